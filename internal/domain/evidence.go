package domain

import "math"

// TermMatchType classifies how a query term relates to a disease's
// annotations. The set is closed; explanation builders live with the matcher.
type TermMatchType string

const (
	ExactMatch                         TermMatchType = "EXACT_MATCH"
	QueryTermDescendantOfDiseaseTerm   TermMatchType = "QUERY_TERM_DESCENDANT_OF_DISEASE_TERM"
	QueryTermAncestorOfDiseaseTerm     TermMatchType = "QUERY_TERM_ANCESTOR_OF_DISEASE_TERM"
	NonRootCommonAncestor              TermMatchType = "NON_ROOT_COMMON_ANCESTOR"
	NoMatchBelowRoot                   TermMatchType = "NO_MATCH_BELOW_ROOT"
	QueryTermPresentButExcluded        TermMatchType = "QUERY_TERM_PRESENT_BUT_EXCLUDED_IN_DISEASE"
	ExcludedQueryTermExcludedInDisease TermMatchType = "EXCLUDED_QUERY_TERM_EXCLUDED_IN_DISEASE"
	ExcludedQueryTermNotInDisease      TermMatchType = "EXCLUDED_QUERY_TERM_NOT_PRESENT_IN_DISEASE"
	ExcludedQueryTermPresentInDisease  TermMatchType = "EXCLUDED_QUERY_TERM_PRESENT_IN_DISEASE"
	UnusualBackgroundFrequency         TermMatchType = "UNUSUAL_BACKGROUND_FREQUENCY"
)

// IsValid reports whether t is a known match type.
func (t TermMatchType) IsValid() bool {
	switch t {
	case ExactMatch, QueryTermDescendantOfDiseaseTerm, QueryTermAncestorOfDiseaseTerm,
		NonRootCommonAncestor, NoMatchBelowRoot, QueryTermPresentButExcluded,
		ExcludedQueryTermExcludedInDisease, ExcludedQueryTermNotInDisease,
		ExcludedQueryTermPresentInDisease, UnusualBackgroundFrequency:
		return true
	}
	return false
}

// TermLrMatch is the likelihood ratio of one query term against one disease.
type TermLrMatch struct {
	Query TermID `json:"query"`
	// Matched is the disease-side term the match was computed against, if any.
	Matched     TermID        `json:"matched,omitempty"`
	MatchType   TermMatchType `json:"match_type"`
	LR          float64       `json:"lr"`
	Explanation string        `json:"explanation"`
}

// GeneMatchType classifies which branch of the genotype model produced a
// gene-level likelihood ratio.
type GeneMatchType string

const (
	NoVariantsDetectedDominant           GeneMatchType = "NO_VARIANTS_DETECTED_AD"
	NoVariantsDetectedRecessive          GeneMatchType = "NO_VARIANTS_DETECTED_AR"
	OneClinVarPathogenicAlleleDominant   GeneMatchType = "ONE_P_OR_LP_CLINVAR_ALLELE_IN_AD"
	TwoClinVarPathogenicAllelesRecessive GeneMatchType = "TWO_P_OR_LP_CLINVAR_ALLELES_IN_AR"
	HighPredictedPathogenicAlleleCount   GeneMatchType = "HIGH_NUMBER_OF_OBSERVED_PREDICTED_PATHOGENIC_VARIANTS"
	PoissonModel                         GeneMatchType = "POISSON_MODEL"
)

// IsValid reports whether t is a known match type.
func (t GeneMatchType) IsValid() bool {
	switch t {
	case NoVariantsDetectedDominant, NoVariantsDetectedRecessive, OneClinVarPathogenicAlleleDominant,
		TwoClinVarPathogenicAllelesRecessive, HighPredictedPathogenicAlleleCount, PoissonModel:
		return true
	}
	return false
}

// GeneLrMatch is the likelihood ratio of the genotype evidence in one gene.
// Build it with NewGeneLrMatch so that LR and Log10LR agree.
type GeneLrMatch struct {
	Gene      GeneIdentifier `json:"gene"`
	MatchType GeneMatchType  `json:"match_type"`
	// LR is clamped to the finite positive float64 range; Log10LR is exact.
	LR          float64 `json:"lr"`
	Log10LR     float64 `json:"log10_lr"`
	Explanation string  `json:"explanation"`
}

// NewGeneLrMatch builds a match from the natural logarithm of the likelihood
// ratio. Infinite inputs are clamped to the largest finite magnitude.
func NewGeneLrMatch(gene GeneIdentifier, matchType GeneMatchType, logLR float64, explanation string) GeneLrMatch {
	if math.IsInf(logLR, 0) {
		logLR = math.Copysign(maxLogLR, logLR)
	}
	return GeneLrMatch{
		Gene:        gene,
		MatchType:   matchType,
		LR:          linearLR(logLR),
		Log10LR:     logLR / math.Ln10,
		Explanation: explanation,
	}
}

// LogLR returns the natural logarithm of the likelihood ratio.
func (m GeneLrMatch) LogLR() float64 {
	return m.Log10LR * math.Ln10
}

var maxLogLR = math.Log(math.MaxFloat64)

func linearLR(logLR float64) float64 {
	lr := math.Exp(logLR)
	switch {
	case math.IsInf(lr, 1):
		return math.MaxFloat64
	case lr == 0:
		return math.SmallestNonzeroFloat64
	}
	return lr
}
