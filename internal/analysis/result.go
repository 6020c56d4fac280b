// Package analysis combines phenotype, genotype and onset evidence into
// post-test probabilities and ranks every disease of the corpus.
package analysis

import (
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// TestResult is the evidence for one disease. The composite likelihood ratio
// and the post-test probability are derived at construction and never change.
type TestResult struct {
	DiseaseID          domain.TermID        `json:"disease_id"`
	DiseaseName        string               `json:"disease_name"`
	PretestProbability float64              `json:"pretest_probability"`
	ObservedResults    []domain.TermLrMatch `json:"observed_results"`
	ExcludedResults    []domain.TermLrMatch `json:"excluded_results"`
	// Genotype is nil when no genotype evidence applies to the disease.
	Genotype *domain.GeneLrMatch `json:"genotype,omitempty"`
	// OnsetLR is nil unless onset scoring was enabled and the age is known.
	OnsetLR *float64 `json:"onset_lr,omitempty"`

	// Log10CompositeLR is kept in log space so extreme ratios stay finite.
	Log10CompositeLR    float64 `json:"log10_composite_lr"`
	PosttestProbability float64 `json:"posttest_probability"`
}

// NewTestResult builds a TestResult and derives its composite scores.
func NewTestResult(d *domain.DiseaseProfile, pretest float64, observed, excluded []domain.TermLrMatch, genotype *domain.GeneLrMatch, onsetLR *float64) TestResult {
	r := TestResult{
		DiseaseID:          d.ID,
		DiseaseName:        d.Name,
		PretestProbability: pretest,
		ObservedResults:    observed,
		ExcludedResults:    excluded,
		Genotype:           genotype,
		OnsetLR:            onsetLR,
	}
	r.Log10CompositeLR = r.logCompositeLR() / math.Ln10
	r.PosttestProbability = posttest(pretest, r.logCompositeLR())
	return r
}

// CompositeLR is the product of every likelihood ratio of the result. It may
// overflow to +Inf for very strong evidence; use Log10CompositeLR to compare.
func (r TestResult) CompositeLR() float64 {
	return math.Exp(r.logCompositeLR())
}

// PretestOdds returns p/(1-p) of the pre-test probability.
func (r TestResult) PretestOdds() float64 {
	return r.PretestProbability / (1 - r.PretestProbability)
}

// PosttestOdds returns the pre-test odds times the composite likelihood ratio.
func (r TestResult) PosttestOdds() float64 {
	return r.PretestOdds() * r.CompositeLR()
}

// HasGenotype reports whether genotype evidence contributed to the result.
func (r TestResult) HasGenotype() bool {
	return r.Genotype != nil
}

func (r TestResult) logCompositeLR() float64 {
	sum := 0.0
	for _, m := range r.ObservedResults {
		sum += math.Log(m.LR)
	}
	for _, m := range r.ExcludedResults {
		sum += math.Log(m.LR)
	}
	if r.Genotype != nil {
		sum += r.Genotype.LogLR()
	}
	if r.OnsetLR != nil {
		sum += math.Log(*r.OnsetLR)
	}
	return sum
}

// posttest computes odds/(1+odds) through the log-odds so that neither the
// odds nor the likelihood ratio has to be materialised.
func posttest(pretest, logLR float64) float64 {
	switch {
	case pretest <= 0:
		return 0
	case pretest >= 1:
		return 1
	}
	logOdds := math.Log(pretest) - math.Log1p(-pretest) + logLR
	if logOdds >= 0 {
		return 1 / (1 + math.Exp(-logOdds))
	}
	e := math.Exp(logOdds)
	return e / (1 + e)
}
