package vexdb

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"VulnixVex/internal/utils"
	"VulnixVex/internal/vex"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEntryNotFound is returned when no stored entry has the requested id.
var ErrEntryNotFound = errors.New("vex entry not found")

// VEXDatabase stores validated entries in sqlite. It also works as a
// database-assigned vex.IDSource.
type VEXDatabase struct {
	db     *sql.DB
	path   string
	logger *utils.Logger
}

var _ vex.IDSource = (*VEXDatabase)(nil)

func NewVEXDatabase(dbPath string) (*VEXDatabase, error) {
	logger := utils.NewLogger("vexdb")

	// make sure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	vdb := &VEXDatabase{
		db:     db,
		path:   dbPath,
		logger: logger,
	}

	if err := vdb.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	logger.Debug("opened vex database at %s", dbPath)
	return vdb, nil
}

func (vd *VEXDatabase) initTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS id_sequence (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		allocated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS vex_entries (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		severity TEXT NOT NULL,
		affected_package TEXT NOT NULL,
		justification TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		impact_statement TEXT NOT NULL DEFAULT '',
		action_statement TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entry_package ON vex_entries(affected_package);
	CREATE INDEX IF NOT EXISTS idx_entry_status ON vex_entries(status);

	CREATE TABLE IF NOT EXISTS export_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_id INTEGER NOT NULL,
		format TEXT NOT NULL,
		exported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (entry_id) REFERENCES vex_entries(id) ON DELETE CASCADE
	);
	`

	_, err := vd.db.Exec(schema)
	return err
}

// NextID allocates an identifier from the id_sequence table.
func (vd *VEXDatabase) NextID() (uint32, error) {
	res, err := vd.db.Exec(`INSERT INTO id_sequence DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	if id < 0 || id > math.MaxUint32 {
		return 0, vex.ErrIDsExhausted
	}
	return uint32(id), nil
}

// InsertEntry stores e. An entry with the same id is replaced.
func (vd *VEXDatabase) InsertEntry(e vex.Entry) error {
	rec := e.Record()
	_, err := vd.db.Exec(`
		INSERT OR REPLACE INTO vex_entries
		(id, description, severity, affected_package, justification, status, impact_statement, action_statement)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Description, rec.Severity, rec.AffectedPackage,
		rec.Justification, rec.Status, rec.ImpactStatement, rec.ActionStatement,
	)
	if err != nil {
		return fmt.Errorf("insert entry %d: %w", rec.ID, err)
	}
	vd.logger.Debug("stored entry %d (%s)", rec.ID, rec.Status)
	return nil
}

const selectEntry = `
	SELECT id, description, severity, affected_package, justification, status, impact_statement, action_statement
	FROM vex_entries`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry reads one row and re-validates it; a row that no longer passes
// the rules comes back as a vex.ViolationList.
func scanEntry(row rowScanner) (vex.Entry, error) {
	var rec vex.Record
	var id int64
	err := row.Scan(&id, &rec.Description, &rec.Severity, &rec.AffectedPackage,
		&rec.Justification, &rec.Status, &rec.ImpactStatement, &rec.ActionStatement)
	if err != nil {
		return vex.Entry{}, err
	}
	if id < 0 || id > math.MaxUint32 {
		return vex.Entry{}, fmt.Errorf("stored entry id %d out of range", id)
	}
	rec.ID = uint32(id)
	return vex.FromRecord(rec)
}

// GetEntry loads the entry with the given id.
func (vd *VEXDatabase) GetEntry(id uint32) (vex.Entry, error) {
	e, err := scanEntry(vd.db.QueryRow(selectEntry+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return vex.Entry{}, fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	if err != nil {
		return vex.Entry{}, fmt.Errorf("load entry %d: %w", id, err)
	}
	return e, nil
}

// ListEntries returns every stored entry ordered by id. Rows that fail
// re-validation are skipped and logged.
func (vd *VEXDatabase) ListEntries() ([]vex.Entry, error) {
	rows, err := vd.db.Query(selectEntry + ` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []vex.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			vd.logger.Warn("skipping invalid stored entry: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes the entry with the given id.
func (vd *VEXDatabase) DeleteEntry(id uint32) error {
	res, err := vd.db.Exec(`DELETE FROM vex_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("entry %d: %w", id, ErrEntryNotFound)
	}
	return nil
}

// CountEntries returns the number of stored entries.
func (vd *VEXDatabase) CountEntries() (int, error) {
	var count int
	err := vd.db.QueryRow("SELECT COUNT(*) FROM vex_entries").Scan(&count)
	return count, err
}

// ExportRecord is one row of export history.
type ExportRecord struct {
	EntryID    uint32 `json:"entry_id"`
	Format     string `json:"format"`
	ExportedAt string `json:"exported_at"`
}

// RecordExport notes that an entry was handed to an exporter.
func (vd *VEXDatabase) RecordExport(entryID uint32, format string) error {
	_, err := vd.db.Exec(`
		INSERT INTO export_history (entry_id, format)
		VALUES (?, ?)`,
		entryID, format,
	)
	if err != nil {
		return fmt.Errorf("record export of entry %d: %w", entryID, err)
	}
	return nil
}

// GetExportHistory returns the most recent exports, newest first.
func (vd *VEXDatabase) GetExportHistory(limit int) ([]ExportRecord, error) {
	rows, err := vd.db.Query(`
		SELECT entry_id, format, exported_at
		FROM export_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		if err := rows.Scan(&rec.EntryID, &rec.Format, &rec.ExportedAt); err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

func (vd *VEXDatabase) Close() error {
	return vd.db.Close()
}
