package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite run archive.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the API read while a run is being written
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// scanRecord scans a row into a Record.
func scanRecord(s scanner) (*Record, error) {
	r := &Record{}
	var status string
	var payload []byte

	err := s.Scan(
		&r.ID, &r.SampleID, &r.GenomeBuild, &status, &r.Fingerprint,
		&r.Diseases, &r.TopDiseaseID, &r.TopPosttest, &payload,
		&r.Error, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = Status(status)
	if len(payload) > 0 {
		r.Payload = payload
	}
	return r, nil
}

// createSchema creates the database tables and indexes.
func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id TEXT PRIMARY KEY,
		sample_id TEXT NOT NULL,
		genome_build TEXT NOT NULL,
		status TEXT NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		diseases INTEGER NOT NULL DEFAULT 0,
		top_disease_id TEXT NOT NULL DEFAULT '',
		top_posttest REAL NOT NULL DEFAULT 0,
		payload BLOB,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_sample_id ON analysis_runs(sample_id);
	CREATE INDEX IF NOT EXISTS idx_created_at ON analysis_runs(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `
	SELECT id, sample_id, genome_build, status, fingerprint,
		diseases, top_disease_id, top_posttest, payload,
		error, created_at, updated_at
	FROM analysis_runs`

// Save stores a run, replacing any earlier record with the same ID.
func (s *SQLiteStore) Save(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return domain.NewValidationError("id", "run id is required", record.ID)
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			id, sample_id, genome_build, status, fingerprint,
			diseases, top_disease_id, top_posttest, payload,
			error, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			sample_id = excluded.sample_id,
			genome_build = excluded.genome_build,
			status = excluded.status,
			fingerprint = excluded.fingerprint,
			diseases = excluded.diseases,
			top_disease_id = excluded.top_disease_id,
			top_posttest = excluded.top_posttest,
			payload = excluded.payload,
			error = excluded.error,
			updated_at = excluded.updated_at
	`,
		record.ID,
		record.SampleID,
		record.GenomeBuild,
		string(record.Status),
		record.Fingerprint,
		record.Diseases,
		record.TopDiseaseID,
		record.TopPosttest,
		[]byte(record.Payload),
		record.Error,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}
	return nil
}

// Get retrieves a run by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)

	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return r, nil
}

// List returns runs newest first with pagination.
func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY created_at DESC, id ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Count returns the total number of archived runs.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs").Scan(&count)
	return count, err
}

// Delete removes a run by ID.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM analysis_runs WHERE id = ?", id)
	return err
}

// ExportJSON writes every archived run to writer.
func (s *SQLiteStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportRecords(ctx, s, writer)
}

// ImportJSON reads runs written by ExportJSON.
func (s *SQLiteStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importRecords(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
