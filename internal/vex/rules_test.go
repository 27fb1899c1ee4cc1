package vex

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func notAffectedRaw() RawFields {
	return RawFields{
		Description:     "Buffer overflow",
		Severity:        "High",
		AffectedPackage: "libfoo 1.2",
		Status:          "Not Affected",
		Justification:   "Vulnerability not applicable",
	}
}

func affectedRaw() RawFields {
	return RawFields{
		Description:     "Heap corruption in parser",
		Severity:        "Critical",
		AffectedPackage: "libbar 3.0.1",
		Status:          "Affected",
		ImpactStatement: "Remote code execution through crafted input",
		ActionStatement: "Upgrade to 3.0.2",
	}
}

func violationsOf(t *testing.T, err error) ViolationList {
	t.Helper()
	require.Error(t, err)
	var vl ViolationList
	require.ErrorAs(t, err, &vl)
	require.NotEmpty(t, vl)
	return vl
}

func TestValidateNotAffected(t *testing.T) {
	e, err := Validate(notAffectedRaw(), FixedID(7))
	require.NoError(t, err)

	assert.Equal(t, uint32(7), e.ID())
	assert.Equal(t, "Buffer overflow", e.Description())
	assert.Equal(t, SeverityHigh, e.Severity())
	assert.Equal(t, "libfoo 1.2", e.AffectedPackage())
	assert.Equal(t, StatusNotAffected, e.Status())

	j, ok := e.Justification()
	require.True(t, ok)
	assert.Equal(t, JustificationVulnerabilityNotApplicable, j)
}

func TestValidateNotAffectedNeedsJustification(t *testing.T) {
	raw := notAffectedRaw()
	raw.Justification = ""

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	require.Len(t, vl, 1)
	assert.Equal(t, FieldJustification, vl[0].Field)
	assert.Equal(t, RequiredFieldMissing, vl[0].Kind)
}

func TestValidateNotAffectedUnknownJustification(t *testing.T) {
	raw := notAffectedRaw()
	raw.Justification = "Not exploitable"

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	require.Len(t, vl, 1)
	assert.True(t, vl.Has(FieldJustification, UnknownVocabularyValue))
}

func TestValidateNotAffectedKeepsOptionalStatements(t *testing.T) {
	raw := notAffectedRaw()
	raw.ImpactStatement = "  Code path unreachable  "

	e, err := Validate(raw, FixedID(1))
	require.NoError(t, err)
	assert.Equal(t, "Code path unreachable", e.ImpactStatement())
	assert.Empty(t, e.ActionStatement())
}

func TestValidateAffectedNeedsStatements(t *testing.T) {
	raw := affectedRaw()
	raw.ImpactStatement = ""
	raw.ActionStatement = ""

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	require.Len(t, vl, 2)
	assert.True(t, vl.Has(FieldImpactStatement, RequiredFieldMissing))
	assert.True(t, vl.Has(FieldActionStatement, RequiredFieldMissing))
}

func TestValidateAffectedMissingActionAlwaysReported(t *testing.T) {
	variants := []RawFields{
		{Status: "Affected"},
		{Status: "Affected", Severity: "Extreme", Justification: "Mitigated"},
		{Status: "Affected", Description: "d", Severity: "Low", AffectedPackage: "p 1", ImpactStatement: "i"},
		{Status: "Affected", Description: "   ", ActionStatement: "   "},
	}

	for _, raw := range variants {
		_, err := Validate(raw, FixedID(1))
		vl := violationsOf(t, err)
		assert.True(t, vl.Has(FieldActionStatement, RequiredFieldMissing), "raw: %+v", raw)
	}
}

func TestValidateAffectedRejectsJustification(t *testing.T) {
	raw := affectedRaw()
	raw.Justification = "Mitigated"

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	require.Len(t, vl, 1)
	assert.Equal(t, FieldJustification, vl[0].Field)
	assert.Equal(t, ConflictingField, vl[0].Kind)
}

func TestValidateAffectedIgnoresBlankJustification(t *testing.T) {
	raw := affectedRaw()
	raw.Justification = "   "

	e, err := Validate(raw, FixedID(1))
	require.NoError(t, err)
	_, ok := e.Justification()
	assert.False(t, ok)
}

func TestValidateUnknownSeverity(t *testing.T) {
	raw := notAffectedRaw()
	raw.Severity = "Extreme"

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	require.Len(t, vl, 1)
	assert.True(t, vl.Has(FieldSeverity, UnknownVocabularyValue))
}

func TestValidateFixed(t *testing.T) {
	raw := RawFields{
		Description:     "Integer overflow",
		Severity:        "Medium",
		AffectedPackage: "libbaz 2.4",
		Status:          "Fixed",
		ActionStatement: "Patched in 2.4.1",
	}

	e, err := Validate(raw, FixedID(3))
	require.NoError(t, err)
	assert.Equal(t, StatusFixed, e.Status())
	_, ok := e.Justification()
	assert.False(t, ok)

	raw.Justification = "Mitigated"
	e, err = Validate(raw, FixedID(3))
	require.NoError(t, err)
	j, ok := e.Justification()
	require.True(t, ok)
	assert.Equal(t, JustificationMitigated, j)

	raw.Justification = "Patched"
	_, err = Validate(raw, FixedID(3))
	assert.True(t, violationsOf(t, err).Has(FieldJustification, UnknownVocabularyValue))

	raw.Justification = ""
	raw.ActionStatement = ""
	_, err = Validate(raw, FixedID(3))
	vl := violationsOf(t, err)
	require.Len(t, vl, 1)
	assert.True(t, vl.Has(FieldActionStatement, RequiredFieldMissing))
}

func TestValidateReportsEverything(t *testing.T) {
	raw := RawFields{
		Description:     " ",
		Severity:        "",
		AffectedPackage: "",
		Status:          "Unknown",
		Justification:   "Because",
	}

	_, err := Validate(raw, FixedID(1))
	vl := violationsOf(t, err)

	assert.Equal(t, []string{
		FieldDescription,
		FieldAffectedPackage,
		FieldSeverity,
		FieldStatus,
		FieldJustification,
	}, vl.Fields())
	assert.Equal(t, RequiredFieldMissing, vl[2].Kind)
	assert.Equal(t, UnknownVocabularyValue, vl[3].Kind)
	assert.Equal(t, UnknownVocabularyValue, vl[4].Kind)
	assert.Contains(t, vl.Error(), "5 validation violation(s)")
	assert.Len(t, vl.ByField(FieldStatus), 1)
}

func TestValidateDoesNotAllocateOnFailure(t *testing.T) {
	calls := 0
	ids := IDSourceFunc(func() (uint32, error) {
		calls++
		return 1, nil
	})

	raw := notAffectedRaw()
	raw.Description = ""
	e, err := Validate(raw, ids)

	require.Error(t, err)
	assert.Equal(t, Entry{}, e)
	assert.Equal(t, 0, calls)
}

func TestValidateIDSourceFailure(t *testing.T) {
	boom := errors.New("sequence unavailable")
	_, err := Validate(notAffectedRaw(), IDSourceFunc(func() (uint32, error) { return 0, boom }))

	require.ErrorIs(t, err, boom)
	var vl ViolationList
	assert.False(t, errors.As(err, &vl))
}

func TestRawReproducesEntry(t *testing.T) {
	for _, raw := range []RawFields{notAffectedRaw(), affectedRaw()} {
		e, err := Validate(raw, FixedID(11))
		require.NoError(t, err)

		again, err := Validate(e.Raw(), FixedID(11))
		require.NoError(t, err)
		assert.Equal(t, e, again)
	}
}

func TestCounterIsUniqueAcrossGoroutines(t *testing.T) {
	counter := NewCounter(1)
	const workers, perWorker = 8, 250

	var mu sync.Mutex
	seen := make(map[uint32]bool)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				e, err := Validate(affectedRaw(), counter)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				seen[e.ID()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.True(t, seen[1])
	assert.True(t, seen[workers*perWorker])
}

func TestCounterExhaustion(t *testing.T) {
	counter := NewCounter(^uint32(0))
	id, err := counter.NextID()
	require.NoError(t, err)
	assert.Equal(t, ^uint32(0), id)

	_, err = counter.NextID()
	assert.ErrorIs(t, err, ErrIDsExhausted)
}
