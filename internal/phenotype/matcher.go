package phenotype

import (
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Matcher computes term-level likelihood ratios against induced disease
// graphs. It holds only read-only state and is safe for concurrent use.
type Matcher struct {
	graph      domain.OntologyGraph
	background *BackgroundFrequencies
	constants  Constants
}

// NewMatcher creates a new Matcher
func NewMatcher(graph domain.OntologyGraph, background *BackgroundFrequencies, constants Constants) *Matcher {
	return &Matcher{
		graph:      graph,
		background: background,
		constants:  constants,
	}
}

// Background returns the frequencies the matcher divides by.
func (m *Matcher) Background() *BackgroundFrequencies {
	return m.background
}

// ObservedTermLR scores a term observed in the patient against one disease.
// The query must be a current ontology term.
func (m *Matcher) ObservedTermLR(q domain.TermID, idg *InducedDiseaseGraph) domain.TermLrMatch {
	if excludedAs, ok := idg.ExcludesTermOrAncestor(q); ok {
		return m.match(q, excludedAs, domain.QueryTermPresentButExcluded, m.constants.ExcludedInDiseasePresentInQuery)
	}

	bg := m.background.Frequency(q)

	if f, ok := idg.AnnotationFrequency(q); ok {
		return m.match(q, q, domain.ExactMatch, f/bg)
	}

	if d, f, n := idg.annotatedDescendants(q); n > 0 {
		attenuated := f * math.Pow(m.constants.AncestorAttenuation, float64(n))
		return m.match(q, d, domain.QueryTermAncestorOfDiseaseTerm, attenuated/bg)
	}

	// Only a direct child of a disease term takes a share of its frequency;
	// deeper descendants fall through to the common-ancestor rule.
	if d, share, ok := idg.bestAnnotatedParent(q); ok {
		f := math.Max(share, m.constants.noCommonOrganProbability(m.background.Raw(q)))
		return m.match(q, d, domain.QueryTermDescendantOfDiseaseTerm, f/bg)
	}

	if ca, f, ok := idg.closestAncestor(q, m.constants.AncestorDecay); ok {
		lr := math.Max(m.constants.NoMatchFactor, f/m.background.Frequency(ca))
		return m.match(q, ca, domain.NonRootCommonAncestor, lr)
	}

	return m.match(q, "", domain.NoMatchBelowRoot, m.constants.NoMatchFactor)
}

// ExcludedTermLR scores a term explicitly excluded in the patient.
func (m *Matcher) ExcludedTermLR(q domain.TermID, idg *InducedDiseaseGraph) domain.TermLrMatch {
	if idg.IsExactExcludedMatch(q) {
		return m.match(q, q, domain.ExcludedQueryTermExcludedInDisease, m.constants.ExcludedInDiseaseAndQuery)
	}

	bg := m.background.Frequency(q)
	if bg > m.constants.UnusualBackgroundThreshold {
		return m.match(q, "", domain.UnusualBackgroundFrequency, 1)
	}

	f, annotated := idg.maxFrequencyAtOrBelow(q)
	if !annotated {
		return m.match(q, "", domain.ExcludedQueryTermNotInDisease, 1/(1-bg))
	}

	excluded := math.Max(m.constants.FalseNegativeObservation, 1-f)
	return m.match(q, q, domain.ExcludedQueryTermPresentInDisease, excluded/(1-bg))
}

// rootLikeTerms are never treated as shared ancestors.
func rootLikeTerms(graph domain.OntologyGraph) domain.TermSet {
	out := domain.NewTermSet(domain.RootTerm, domain.PhenotypicAbnormality)
	for _, r := range graph.Roots() {
		out.Add(r)
	}
	return out
}

func (m *Matcher) match(q, matched domain.TermID, t domain.TermMatchType, lr float64) domain.TermLrMatch {
	out := domain.TermLrMatch{Query: q, Matched: matched, MatchType: t, LR: lr}
	out.Explanation = explain(m.graph, out)
	return out
}
