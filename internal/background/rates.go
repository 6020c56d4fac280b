// Package background serves per-gene population rates of predicted
// pathogenic alleles, one table per genome build.
package background

import (
	"context"
	"fmt"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Rates is an immutable rate table for one genome build.
type Rates struct {
	build domain.GenomeBuild
	rates map[domain.TermID]float64
}

var _ domain.BackgroundVariantRates = (*Rates)(nil)

// NewRates wraps a gene to rate map. The map must not be modified afterwards.
func NewRates(build domain.GenomeBuild, rates map[domain.TermID]float64) *Rates {
	if rates == nil {
		rates = make(map[domain.TermID]float64)
	}
	return &Rates{build: build, rates: rates}
}

// Rate returns the background rate of gene, if tabulated.
func (r *Rates) Rate(gene domain.TermID) (float64, bool) {
	v, ok := r.rates[gene]
	return v, ok
}

// GenomeBuild returns the build the table was computed for.
func (r *Rates) GenomeBuild() domain.GenomeBuild {
	return r.build
}

// Len returns the number of genes in the table.
func (r *Rates) Len() int {
	return len(r.rates)
}

// StaticProvider serves preloaded tables. It is mostly useful in tests and
// for embedding callers that already hold the rates in memory.
type StaticProvider map[domain.GenomeBuild]*Rates

// RatesFor implements domain.BackgroundVariantRateProvider.
func (p StaticProvider) RatesFor(_ context.Context, build domain.GenomeBuild) (domain.BackgroundVariantRates, error) {
	if r, ok := p[build]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrBackgroundRatesUnavailable, build)
}
