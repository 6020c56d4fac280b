package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	_ "github.com/lib/pq"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// PostgresStore implements the Store interface using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL run archive.
// It expects the analysis_runs table to exist (created via migrations).
func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromURL creates a new PostgreSQL run archive from a connection URL.
func NewPostgresStoreFromURL(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	store, err := NewPostgresStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Save stores a run, replacing any earlier record with the same ID.
func (s *PostgresStore) Save(ctx context.Context, record *Record) error {
	if record.ID == "" {
		return domain.NewValidationError("id", "run id is required", record.ID)
	}

	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	// jsonb does not accept the bytea encoding lib/pq uses for []byte
	var payload sql.NullString
	if len(record.Payload) > 0 {
		payload = sql.NullString{String: string(record.Payload), Valid: true}
	}

	query := `
		INSERT INTO analysis_runs (
			id, sample_id, genome_build, status, fingerprint,
			diseases, top_disease_id, top_posttest, payload,
			error, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			sample_id = EXCLUDED.sample_id,
			genome_build = EXCLUDED.genome_build,
			status = EXCLUDED.status,
			fingerprint = EXCLUDED.fingerprint,
			diseases = EXCLUDED.diseases,
			top_disease_id = EXCLUDED.top_disease_id,
			top_posttest = EXCLUDED.top_posttest,
			payload = EXCLUDED.payload,
			error = EXCLUDED.error,
			updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		record.ID,
		record.SampleID,
		record.GenomeBuild,
		string(record.Status),
		record.Fingerprint,
		record.Diseases,
		record.TopDiseaseID,
		record.TopPosttest,
		payload,
		record.Error,
		record.CreatedAt,
		now,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", record.ID, err)
	}

	return nil
}

// Get retrieves a run by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := `
		SELECT id, sample_id, genome_build, status, fingerprint,
			diseases, top_disease_id, top_posttest, payload,
			error, created_at, updated_at
		FROM analysis_runs
		WHERE id = $1
	`

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return r, nil
}

// List returns runs newest first with pagination.
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	query := `
		SELECT id, sample_id, genome_build, status, fingerprint,
			diseases, top_disease_id, top_posttest, payload,
			error, created_at, updated_at
		FROM analysis_runs
		ORDER BY created_at DESC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		result = append(result, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return result, nil
}

// Count returns the total number of archived runs.
func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Delete removes a run by ID.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM analysis_runs WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// ExportJSON writes every archived run to writer.
func (s *PostgresStore) ExportJSON(ctx context.Context, writer io.Writer) error {
	return exportRecords(ctx, s, writer)
}

// ImportJSON reads runs written by ExportJSON.
func (s *PostgresStore) ImportJSON(ctx context.Context, reader io.Reader) (int, int, error) {
	return importRecords(ctx, s, reader)
}

// Close closes the store and releases resources.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
