// Package genotype converts the variant burden observed in a gene into a
// gene-level likelihood ratio.
package genotype

import (
	"fmt"
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/poisson"
)

// Constants are the heuristic values of the decision table.
type Constants struct {
	// NoVariantLR is the LR of a gene without variants under a dominant-like
	// mode; recessive-like modes square it.
	NoVariantLR float64
	// ClinVarLR is the LR per required ClinVar P/LP allele.
	ClinVarLR float64
	// HeuristicAboveLambda scales the excess of predicted pathogenic alleles
	// over λ_disease in strict mode.
	HeuristicAboveLambda float64
	// Epsilon is the smallest weighted burden treated as non-zero.
	Epsilon float64
}

// DefaultConstants returns the standard decision table values.
func DefaultConstants() Constants {
	return Constants{
		NoVariantLR:          0.05,
		ClinVarLR:            1000,
		HeuristicAboveLambda: 0.10,
		Epsilon:              1e-5,
	}
}

// Model evaluates genotype evidence for one genome build. It holds only
// read-only state and is safe for concurrent use.
type Model struct {
	rates       domain.BackgroundVariantRates
	defaultRate float64
	strict      bool
	constants   Constants
}

// NewModel creates a new Model. defaultRate is used for genes missing from
// the background table.
func NewModel(rates domain.BackgroundVariantRates, defaultRate float64, strict bool, constants Constants) *Model {
	return &Model{
		rates:       rates,
		defaultRate: defaultRate,
		strict:      strict,
		constants:   constants,
	}
}

// Evaluate returns the LR of the burden observed in one gene for a disease
// with the given modes of inheritance. A disease without annotated modes is
// treated as autosomal dominant.
func (m *Model) Evaluate(burden domain.GeneVariantBurden, modes []domain.InheritanceMode) domain.GeneLrMatch {
	if len(modes) == 0 {
		modes = []domain.InheritanceMode{domain.AutosomalDominant}
	}

	if !burden.HasVariants() {
		return m.noVariants(burden.Gene, modes)
	}

	if match, ok := m.clinVar(burden, modes); ok {
		return match
	}

	observed := burden.WeightedPathogenicBurden
	if burden.PathogenicAlleles == 0 || observed < m.constants.Epsilon {
		return m.noVariants(burden.Gene, modes)
	}

	lambdaBackground := m.defaultRate
	if m.rates != nil {
		if rate, ok := m.rates.Rate(burden.Gene.ID); ok {
			lambdaBackground = rate
		}
	}
	// A gene with a high background count is best explained by background
	// variation, unless ClinVar says otherwise.
	if lambdaBackground > 1 {
		lambdaBackground = math.Min(lambdaBackground, float64(burden.PathogenicAlleles))
	}

	// best is the natural log of the largest LR over the modes.
	best := math.Inf(-1)
	var (
		bestMode  domain.InheritanceMode
		heuristic bool
		logD      float64
		logB      float64
	)
	for _, mode := range modes {
		lambdaDisease := mode.ExpectedPathogenicAlleles()
		count := float64(burden.PathogenicAlleles)

		if m.strict && count > lambdaDisease+m.constants.Epsilon {
			lr := math.Log(m.constants.HeuristicAboveLambda * (count - lambdaDisease))
			if lr > best {
				best, bestMode, heuristic = lr, mode, true
			}
			continue
		}

		d := poisson.LogProbability(observed, lambdaDisease)
		b := poisson.LogProbability(observed, lambdaBackground)
		if math.IsInf(d, -1) || math.IsInf(b, -1) || math.IsNaN(d) || math.IsNaN(b) {
			continue
		}
		if lr := d - b; lr > best {
			best, bestMode, heuristic = lr, mode, false
			logD, logB = d, b
		}
	}

	if math.IsInf(best, -1) {
		lr := math.Log(m.constants.NoVariantLR)
		return domain.NewGeneLrMatch(burden.Gene, domain.PoissonModel, lr,
			fmt.Sprintf("log10(LR)=%.3f. No inheritance mode yielded a usable Poisson model.", lr/math.Ln10))
	}

	if heuristic {
		return domain.NewGeneLrMatch(burden.Gene, domain.HighPredictedPathogenicAlleleCount, best,
			fmt.Sprintf("log10(LR)=%.3f. %s. Heuristic for high number of observed predicted pathogenic variants. "+
				"Observed pathogenic allele count: %d. λ_disease=%d. λ_background=%.4f.",
				best/math.Ln10, bestMode, burden.PathogenicAlleles, int(bestMode.ExpectedPathogenicAlleles()), lambdaBackground))
	}

	return domain.NewGeneLrMatch(burden.Gene, domain.PoissonModel, best,
		fmt.Sprintf("log10(LR)=%.3f. %s. P(G|D)=%.4g. P(G|¬D)=%.4g. Observed weighted pathogenic variant count: %.2f. λ_disease=%d. λ_background=%.4f.",
			best/math.Ln10, bestMode, math.Exp(logD), math.Exp(logB), observed, int(bestMode.ExpectedPathogenicAlleles()), lambdaBackground))
}

// noVariants is the penalty for a gene without deleterious variants. It does
// not consult the background rate.
func (m *Model) noVariants(gene domain.GeneIdentifier, modes []domain.InheritanceMode) domain.GeneLrMatch {
	if allRecessive(modes) {
		lr := 2 * math.Log(m.constants.NoVariantLR)
		return domain.NewGeneLrMatch(gene, domain.NoVariantsDetectedRecessive, lr,
			fmt.Sprintf("log10(LR)=%.3f. No variants detected with autosomal recessive disease.", lr/math.Ln10))
	}
	lr := math.Log(m.constants.NoVariantLR)
	return domain.NewGeneLrMatch(gene, domain.NoVariantsDetectedDominant, lr,
		fmt.Sprintf("log10(LR)=%.3f. No variants detected.", lr/math.Ln10))
}

// clinVar applies the ClinVar rule: one P/LP allele suffices under a
// dominant-like mode, two are required under a recessive-like mode.
func (m *Model) clinVar(burden domain.GeneVariantBurden, modes []domain.InheritanceMode) (domain.GeneLrMatch, bool) {
	n := burden.ClinVarPathogenicAlleles
	if n == 0 {
		return domain.GeneLrMatch{}, false
	}

	dominant, recessive := false, false
	for _, mode := range modes {
		if mode.IsRecessiveLike() {
			recessive = recessive || n >= 2
		} else {
			dominant = true
		}
	}

	switch {
	case recessive:
		lr := 2 * math.Log(m.constants.ClinVarLR)
		return domain.NewGeneLrMatch(burden.Gene, domain.TwoClinVarPathogenicAllelesRecessive, lr,
			fmt.Sprintf("log10(LR)=%.3f. Two pathogenic ClinVar variants detected with autosomal recessive disease.", lr/math.Ln10)), true
	case dominant:
		lr := math.Log(m.constants.ClinVarLR)
		return domain.NewGeneLrMatch(burden.Gene, domain.OneClinVarPathogenicAlleleDominant, lr,
			fmt.Sprintf("log10(LR)=%.3f. Pathogenic ClinVar variant detected.", lr/math.Ln10)), true
	}
	return domain.GeneLrMatch{}, false
}

func allRecessive(modes []domain.InheritanceMode) bool {
	for _, mode := range modes {
		if !mode.IsRecessiveLike() {
			return false
		}
	}
	return len(modes) > 0
}

// Best returns the match with the highest LR, compared in log space. Ties keep the earlier match so
// the result follows the iteration order over implicated genes.
func Best(matches []domain.GeneLrMatch) (domain.GeneLrMatch, bool) {
	if len(matches) == 0 {
		return domain.GeneLrMatch{}, false
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.Log10LR > best.Log10LR {
			best = m
		}
	}
	return best, true
}
