package phenotype

import (
	"math"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// BackgroundFrequencies holds bg(t), the fraction of corpus diseases
// annotated to t or one of its descendants. It is built once per run and is
// read-only afterwards, so it can be shared by every scoring task.
type BackgroundFrequencies struct {
	frequencies map[domain.TermID]float64
	diseases    int
	floor       float64
}

// NewBackgroundFrequencies computes bg(t) over every disease in the corpus.
// Negated annotations do not contribute.
func NewBackgroundFrequencies(graph domain.OntologyGraph, corpus domain.DiseaseCorpus, floor float64) *BackgroundFrequencies {
	counts := make(map[domain.TermID]int)
	diseases := corpus.Diseases()
	for _, d := range diseases {
		for id := range annotatedClosure(graph, d) {
			counts[id]++
		}
	}

	bf := &BackgroundFrequencies{
		frequencies: make(map[domain.TermID]float64, len(counts)),
		diseases:    len(diseases),
		floor:       floor,
	}
	if len(diseases) == 0 {
		return bf
	}
	n := float64(len(diseases))
	for id, c := range counts {
		bf.frequencies[id] = float64(c) / n
	}
	return bf
}

// Frequency returns bg(t), never below the configured floor.
func (b *BackgroundFrequencies) Frequency(id domain.TermID) float64 {
	return math.Max(b.frequencies[id], b.floor)
}

// Raw returns the unfloored fraction; zero for terms no disease reaches.
func (b *BackgroundFrequencies) Raw(id domain.TermID) float64 {
	return b.frequencies[id]
}

// Diseases returns the corpus size the frequencies were computed over.
func (b *BackgroundFrequencies) Diseases() int {
	return b.diseases
}

// Len returns the number of terms with a non-zero frequency.
func (b *BackgroundFrequencies) Len() int {
	return len(b.frequencies)
}

// annotatedClosure is the set of annotated terms of d and all their ancestors.
func annotatedClosure(graph domain.OntologyGraph, d *domain.DiseaseProfile) domain.TermSet {
	out := domain.NewTermSet()
	for _, a := range d.Annotations {
		for id := range graph.Ancestors(a.TermID, true) {
			out.Add(id)
		}
	}
	return out
}
