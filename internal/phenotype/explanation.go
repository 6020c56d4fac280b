package phenotype

import (
	"fmt"
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// explain renders the audit string of a term match. The leading code names
// the match type; the bracketed number is log10 of the LR.
func explain(graph domain.OntologyGraph, m domain.TermLrMatch) string {
	q := termLabel(graph, m.Query)
	d := termLabel(graph, m.Matched)
	lr := math.Log10(m.LR)

	switch m.MatchType {
	case domain.ExactMatch:
		return fmt.Sprintf("E:%s[%.3f]", q, lr)
	case domain.QueryTermDescendantOfDiseaseTerm:
		return fmt.Sprintf("Q<D:%s<%s[%.3f]", q, d, lr)
	case domain.QueryTermAncestorOfDiseaseTerm:
		return fmt.Sprintf("D<Q:%s<%s[%.3f]", d, q, lr)
	case domain.NonRootCommonAncestor:
		return fmt.Sprintf("Q~D:%s~%s[%.3f]", q, d, lr)
	case domain.NoMatchBelowRoot:
		return fmt.Sprintf("NM:%s[%.3f]", q, lr)
	case domain.QueryTermPresentButExcluded:
		return fmt.Sprintf("NM:%s excluded in disease as %s[%.3f]", q, d, lr)
	case domain.ExcludedQueryTermExcludedInDisease:
		return fmt.Sprintf("XX:%s[%.3f]", q, lr)
	case domain.ExcludedQueryTermNotInDisease:
		return fmt.Sprintf("XA:%s[%.3f]", q, lr)
	case domain.ExcludedQueryTermPresentInDisease:
		return fmt.Sprintf("XP:%s[%.3f]", q, lr)
	case domain.UnusualBackgroundFrequency:
		return fmt.Sprintf("U:%s[%.3f]", q, lr)
	}
	return fmt.Sprintf("?:%s[%.3f]", q, lr)
}

func termLabel(graph domain.OntologyGraph, id domain.TermID) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s[%s]", graph.Label(id), id)
}
