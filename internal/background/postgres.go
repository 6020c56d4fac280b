package background

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// PostgresProvider reads rate tables from the background_variant_rates
// table created by the migrations.
type PostgresProvider struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger

	mu    sync.Mutex
	cache map[domain.GenomeBuild]*Rates
}

var _ domain.BackgroundVariantRateProvider = (*PostgresProvider)(nil)

// NewPostgresProvider creates a new PostgresProvider
func NewPostgresProvider(pool *pgxpool.Pool, logger *logrus.Logger) *PostgresProvider {
	return &PostgresProvider{
		pool:   pool,
		logger: logger,
		cache:  make(map[domain.GenomeBuild]*Rates),
	}
}

// RatesFor implements domain.BackgroundVariantRateProvider. A build without
// rows yields domain.ErrBackgroundRatesUnavailable.
func (p *PostgresProvider) RatesFor(ctx context.Context, build domain.GenomeBuild) (domain.BackgroundVariantRates, error) {
	if !build.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownGenomeBuild, build)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.cache[build]; ok {
		return r, nil
	}

	rows, err := p.pool.Query(ctx,
		`SELECT gene_id, rate FROM background_variant_rates WHERE genome_build = $1`,
		string(build))
	if err != nil {
		return nil, fmt.Errorf("querying background rates: %w", err)
	}
	defer rows.Close()

	rates := make(map[domain.TermID]float64)
	for rows.Next() {
		var gene string
		var rate float64
		if err := rows.Scan(&gene, &rate); err != nil {
			return nil, fmt.Errorf("scanning background rate: %w", err)
		}
		rates[domain.TermID(gene)] = rate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating background rates: %w", err)
	}
	if len(rates) == 0 {
		return nil, fmt.Errorf("%w: %s (no rows)", domain.ErrBackgroundRatesUnavailable, build)
	}

	r := NewRates(build, rates)
	p.cache[build] = r
	p.logger.WithFields(logrus.Fields{
		"genome_build": build,
		"genes":        r.Len(),
	}).Info("Loaded background variant rates from database")
	return r, nil
}

// Import replaces the stored table of a build in one transaction.
func (p *PostgresProvider) Import(ctx context.Context, build domain.GenomeBuild, rates map[domain.TermID]float64) (int64, error) {
	if !build.IsValid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownGenomeBuild, build)
	}

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM background_variant_rates WHERE genome_build = $1`, string(build)); err != nil {
		return 0, fmt.Errorf("clearing background rates: %w", err)
	}

	genes := make([]string, 0, len(rates))
	for g := range rates {
		genes = append(genes, string(g))
	}
	sort.Strings(genes)
	rows := make([][]any, 0, len(genes))
	for _, g := range genes {
		rows = append(rows, []any{string(build), g, rates[domain.TermID(g)]})
	}

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"background_variant_rates"},
		[]string{"genome_build", "gene_id", "rate"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copying background rates: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing background rates: %w", err)
	}

	p.mu.Lock()
	delete(p.cache, build)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"genome_build": build,
		"genes":        n,
	}).Info("Imported background variant rates")
	return n, nil
}
