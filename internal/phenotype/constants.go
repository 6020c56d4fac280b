// Package phenotype scores patient phenotype terms against disease profiles
// by reasoning over the ontology graph.
package phenotype

// Constants are the heuristic frequencies and ratios used by the matcher.
// They are exported so that callers can override them for experiments.
type Constants struct {
	// BackgroundFloor is the smallest background frequency a term can have.
	BackgroundFloor float64
	// AncestorAttenuation scales the best descendant frequency once per
	// annotated descendant when the query is broader than the disease terms.
	// One keeps the best descendant frequency unchanged.
	AncestorAttenuation float64
	// AncestorDecay divides an annotation frequency once per is_a edge when
	// it is propagated to an ancestor in the induced graph.
	AncestorDecay float64
	// NoMatchFactor is the LR of a query unrelated to the disease below the
	// root. It also floors the common-ancestor LR.
	NoMatchFactor float64
	// NoCommonOrganMin and NoCommonOrganMax bound the penalty applied to a
	// query that is a child of a disease term. Rare queries are scaled
	// towards the minimum and common ones towards the maximum.
	NoCommonOrganMin float64
	NoCommonOrganMax float64
	// ExcludedInDiseasePresentInQuery is the LR of an observed term that the
	// disease explicitly excludes.
	ExcludedInDiseasePresentInQuery float64
	// ExcludedInDiseaseAndQuery is the LR of an excluded term that the
	// disease also excludes.
	ExcludedInDiseaseAndQuery float64
	// FalseNegativeObservation bounds 1-f from below for excluded terms
	// annotated to the disease.
	FalseNegativeObservation float64
	// UnusualBackgroundThreshold is the background frequency above which an
	// excluded term carries no information.
	UnusualBackgroundThreshold float64
}

// DefaultConstants returns the standard matcher constants.
func DefaultConstants() Constants {
	return Constants{
		BackgroundFloor:                 1.0 / 10000,
		AncestorAttenuation:             1,
		AncestorDecay:                   10,
		NoMatchFactor:                   0.01,
		NoCommonOrganMin:                0.002,
		NoCommonOrganMax:                0.10,
		ExcludedInDiseasePresentInQuery: 1.0 / 1000,
		ExcludedInDiseaseAndQuery:       1000,
		FalseNegativeObservation:        0.01,
		UnusualBackgroundThreshold:      0.99,
	}
}

// noCommonOrganProbability estimates how likely a finding of background
// frequency f is to be seen by chance in a disease that does not list it.
// The penalty grows linearly from NoCommonOrganMin at f = NoMatchFactor to
// NoCommonOrganMax and is then weighted by f.
func (c Constants) noCommonOrganProbability(f float64) float64 {
	factor := (c.NoCommonOrganMax - c.NoCommonOrganMin) / (c.NoCommonOrganMax - c.NoMatchFactor)
	penalty := c.NoCommonOrganMin + (f-c.NoMatchFactor)*factor
	return penalty * f
}
