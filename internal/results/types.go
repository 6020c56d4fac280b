// Package results archives completed analysis runs so that rankings can be
// listed and fetched again without re-running the analysis.
package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Status is the lifecycle state of an archived run.
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Record is one archived analysis run.
type Record struct {
	ID          string `json:"id"`
	SampleID    string `json:"sample_id"`
	GenomeBuild string `json:"genome_build"`
	Status      Status `json:"status"`
	// Fingerprint is the request hash used as the cache key.
	Fingerprint  string  `json:"fingerprint,omitempty"`
	Diseases     int     `json:"diseases"`
	TopDiseaseID string  `json:"top_disease_id,omitempty"`
	TopPosttest  float64 `json:"top_posttest"`
	// Payload holds the full ranked results as JSON.
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store defines the interface for run archive operations.
type Store interface {
	// Save stores a run, replacing any earlier record with the same ID.
	Save(ctx context.Context, record *Record) error

	// Get retrieves a run by ID. It returns domain.ErrRecordNotFound when
	// no run has that ID.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns runs newest first with pagination.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of archived runs.
	Count(ctx context.Context) (int64, error)

	// Delete removes a run by ID.
	Delete(ctx context.Context, id string) error

	// ExportJSON writes every archived run to writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// ImportJSON reads runs written by ExportJSON.
	// Runs whose ID already exists are skipped.
	ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error)

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Runs       []*Record `json:"runs"`
}

// maxExportLimit is the maximum number of runs to export at once.
const maxExportLimit = 1000000

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func exportRecords(ctx context.Context, s Store, writer io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	export := &Export{
		Version:    "1.0",
		ExportedAt: time.Now(),
		Count:      len(all),
		Runs:       all,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

func importRecords(ctx context.Context, s Store, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, r := range export.Runs {
		_, err := s.Get(ctx, r.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if err := s.Save(ctx, r); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
