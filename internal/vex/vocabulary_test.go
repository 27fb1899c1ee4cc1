package vex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabularyRoundTrip(t *testing.T) {
	for _, s := range AllSeverities() {
		parsed, err := ParseSeverity(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	for _, j := range AllJustifications() {
		parsed, err := ParseJustification(j.String())
		require.NoError(t, err)
		assert.Equal(t, j, parsed)
	}
	for _, s := range AllStatuses() {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"None", "Low", "Medium", "High", "Critical"}, SeverityTokens())
	assert.Equal(t, []string{
		"Component not present",
		"Vulnerability not applicable",
		"Mitigated",
		"No fix available",
	}, JustificationTokens())
	assert.Equal(t, []string{"Affected", "Not Affected", "Fixed"}, StatusTokens())
}

func TestParseIsExact(t *testing.T) {
	tests := []struct {
		name  string
		parse func(string) error
		token string
		field string
	}{
		{"lowercase severity", func(s string) error { _, err := ParseSeverity(s); return err }, "high", FieldSeverity},
		{"padded severity", func(s string) error { _, err := ParseSeverity(s); return err }, " High", FieldSeverity},
		{"unknown severity", func(s string) error { _, err := ParseSeverity(s); return err }, "Extreme", FieldSeverity},
		{"status case", func(s string) error { _, err := ParseStatus(s); return err }, "Not affected", FieldStatus},
		{"openvex status", func(s string) error { _, err := ParseStatus(s); return err }, "not_affected", FieldStatus},
		{"empty justification", func(s string) error { _, err := ParseJustification(s); return err }, "", FieldJustification},
		{"justification case", func(s string) error { _, err := ParseJustification(s); return err }, "mitigated", FieldJustification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.token)
			require.Error(t, err)

			var vl ViolationList
			require.ErrorAs(t, err, &vl)
			assert.True(t, vl.Has(tt.field, UnknownVocabularyValue))
		})
	}
}

func TestSeverityOrder(t *testing.T) {
	all := AllSeverities()
	for i := 1; i < len(all); i++ {
		assert.Equal(t, 1, all[i].Compare(all[i-1]))
		assert.Equal(t, -1, all[i-1].Compare(all[i]))
	}
	assert.Equal(t, 0, SeverityHigh.Compare(SeverityHigh))
}

func TestZeroValuesAreNotVocabulary(t *testing.T) {
	var s Severity
	var j Justification
	var st Status

	assert.False(t, s.Valid())
	assert.False(t, j.Valid())
	assert.False(t, st.Valid())
	assert.Empty(t, j.String())

	_, err := j.MarshalText()
	assert.Error(t, err)
}

func TestTextMarshaling(t *testing.T) {
	text, err := StatusNotAffected.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Not Affected", string(text))

	var s Status
	require.NoError(t, s.UnmarshalText([]byte("Fixed")))
	assert.Equal(t, StatusFixed, s)

	var sev Severity
	assert.Error(t, sev.UnmarshalText([]byte("Severe")))
}
