package vexdb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VulnixVex/internal/vex"
)

func newTestDB(t *testing.T) *VEXDatabase {
	t.Helper()
	db, err := NewVEXDatabase(filepath.Join(t.TempDir(), "nested", "vex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRaw() vex.RawFields {
	return vex.RawFields{
		Description:     "Buffer overflow",
		Severity:        "High",
		AffectedPackage: "libfoo 1.2",
		Status:          "Not Affected",
		Justification:   "Vulnerability not applicable",
	}
}

func TestNextIDIsMonotonic(t *testing.T) {
	db := newTestDB(t)

	first, err := db.NextID()
	require.NoError(t, err)
	second, err := db.NextID()
	require.NoError(t, err)

	assert.Equal(t, uint32(1), first)
	assert.Equal(t, first+1, second)
}

func TestInsertAndGetEntry(t *testing.T) {
	db := newTestDB(t)

	e, err := vex.Validate(sampleRaw(), db)
	require.NoError(t, err)
	require.NoError(t, db.InsertEntry(e))

	loaded, err := db.GetEntry(e.ID())
	require.NoError(t, err)
	assert.Equal(t, e, loaded)

	count, err := db.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetEntryNotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetEntry(99)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	assert.ErrorIs(t, db.DeleteEntry(99), ErrEntryNotFound)
}

func TestStoredRowsAreRevalidated(t *testing.T) {
	db := newTestDB(t)

	e, err := vex.Validate(sampleRaw(), db)
	require.NoError(t, err)
	require.NoError(t, db.InsertEntry(e))

	_, err = db.db.Exec(`UPDATE vex_entries SET justification = '' WHERE id = ?`, e.ID())
	require.NoError(t, err)

	_, err = db.GetEntry(e.ID())
	var vl vex.ViolationList
	require.ErrorAs(t, err, &vl)
	assert.True(t, vl.Has(vex.FieldJustification, vex.RequiredFieldMissing))

	entries, err := db.ListEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListAndDeleteEntries(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		e, err := vex.Validate(sampleRaw(), db)
		require.NoError(t, err)
		require.NoError(t, db.InsertEntry(e))
	}

	entries, err := db.ListEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []uint32{1, 2, 3}, []uint32{entries[0].ID(), entries[1].ID(), entries[2].ID()})

	require.NoError(t, db.DeleteEntry(2))
	count, err := db.CountEntries()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestExportHistory(t *testing.T) {
	db := newTestDB(t)

	e, err := vex.Validate(sampleRaw(), db)
	require.NoError(t, err)
	require.NoError(t, db.InsertEntry(e))

	require.NoError(t, db.RecordExport(e.ID(), "json"))
	require.NoError(t, db.RecordExport(e.ID(), "openvex"))

	history, err := db.GetExportHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "openvex", history[0].Format)
	assert.Equal(t, e.ID(), history[0].EntryID)
	assert.NotEmpty(t, history[0].ExportedAt)
}
