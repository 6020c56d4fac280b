package phenotype

import (
	"math"
	"slices"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// InducedDiseaseGraph is the ontology restricted to one disease: its
// annotated terms plus every ancestor of them. It is built per disease per
// run, never mutated after construction and never shared across diseases.
type InducedDiseaseGraph struct {
	disease *domain.DiseaseProfile
	graph   domain.OntologyGraph
	terms   domain.TermSet
	// frequencies of the directly annotated terms.
	frequencies map[domain.TermID]float64
	annotated   []domain.TermID
	negated     domain.TermSet
	// reaches holds, for every non root-like strict ancestor of an annotated
	// term, the frequencies that propagate to it with their edge distance.
	reaches map[domain.TermID][]reach
}

type reach struct {
	frequency float64
	distance  int
}

// NewInducedDiseaseGraph builds the induced graph of d.
func NewInducedDiseaseGraph(d *domain.DiseaseProfile, graph domain.OntologyGraph) *InducedDiseaseGraph {
	idg := &InducedDiseaseGraph{
		disease:     d,
		graph:       graph,
		terms:       annotatedClosure(graph, d),
		frequencies: make(map[domain.TermID]float64, len(d.Annotations)),
		negated:     domain.NewTermSet(d.NegatedAnnotations...),
	}
	for _, a := range d.Annotations {
		// A term annotated twice keeps its highest frequency.
		if f, ok := idg.frequencies[a.TermID]; !ok || a.Frequency > f {
			idg.frequencies[a.TermID] = a.Frequency
		}
	}
	ids := make(domain.TermSet, len(idg.frequencies))
	for id := range idg.frequencies {
		ids.Add(id)
	}
	idg.annotated = ids.Sorted()
	idg.reaches = propagate(graph, idg.frequencies)
	return idg
}

// propagate walks up from every annotated term and records the shortest
// distance to each ancestor below the root-like terms.
func propagate(graph domain.OntologyGraph, frequencies map[domain.TermID]float64) map[domain.TermID][]reach {
	rootLike := rootLikeTerms(graph)
	out := make(map[domain.TermID][]reach)
	for id, f := range frequencies {
		seen := domain.NewTermSet(id)
		level := []domain.TermID{id}
		for distance := 1; len(level) > 0; distance++ {
			var next []domain.TermID
			for _, t := range level {
				for _, p := range graph.Parents(t) {
					if seen.Contains(p) || rootLike.Contains(p) {
						continue
					}
					seen.Add(p)
					out[p] = append(out[p], reach{frequency: f, distance: distance})
					next = append(next, p)
				}
			}
			level = next
		}
	}
	return out
}

// Disease returns the profile the graph was induced from.
func (g *InducedDiseaseGraph) Disease() *domain.DiseaseProfile {
	return g.disease
}

// Contains reports whether id is an annotated term or an ancestor of one.
func (g *InducedDiseaseGraph) Contains(id domain.TermID) bool {
	return g.terms.Contains(id)
}

// Len returns the number of terms in the induced graph.
func (g *InducedDiseaseGraph) Len() int {
	return len(g.terms)
}

// Parents returns the ontology parents of id that belong to the induced graph.
func (g *InducedDiseaseGraph) Parents(id domain.TermID) []domain.TermID {
	if !g.terms.Contains(id) {
		return nil
	}
	var out []domain.TermID
	for _, p := range g.graph.Parents(id) {
		if g.terms.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// AnnotationFrequency returns the stated frequency of a directly annotated term.
func (g *InducedDiseaseGraph) AnnotationFrequency(id domain.TermID) (float64, bool) {
	f, ok := g.frequencies[id]
	return f, ok
}

// IsExactExcludedMatch reports whether the disease explicitly excludes id.
func (g *InducedDiseaseGraph) IsExactExcludedMatch(id domain.TermID) bool {
	return g.negated.Contains(id)
}

// ExcludesTermOrAncestor returns a negated annotation equal to id or to one of
// its ancestors.
func (g *InducedDiseaseGraph) ExcludesTermOrAncestor(id domain.TermID) (domain.TermID, bool) {
	if len(g.negated) == 0 {
		return "", false
	}
	if g.negated.Contains(id) {
		return id, true
	}
	for _, n := range g.negated.Sorted() {
		if g.graph.IsAncestorOf(n, id) {
			return n, true
		}
	}
	return "", false
}

// bestAnnotatedParent returns the annotated parent d of q that gives q the
// largest share of its frequency, f(d) divided by the number of children of
// d. Ties go to the lexically smallest id.
func (g *InducedDiseaseGraph) bestAnnotatedParent(q domain.TermID) (domain.TermID, float64, bool) {
	var best domain.TermID
	bestShare := 0.0
	for _, a := range g.annotated {
		if !slices.Contains(g.graph.Parents(q), a) {
			continue
		}
		children := len(g.graph.Children(a))
		if children == 0 {
			continue
		}
		if share := g.frequencies[a] / float64(children); share > bestShare {
			best, bestShare = a, share
		}
	}
	return best, bestShare, best != ""
}

// closestAncestor searches upwards from q, one is_a edge at a time, for the
// nearest term that an annotation propagates to. Its frequency is the best
// annotation frequency divided by decay once per edge. Among terms at the
// same distance the highest frequency wins, then the lexically smallest id.
func (g *InducedDiseaseGraph) closestAncestor(q domain.TermID, decay float64) (domain.TermID, float64, bool) {
	seen := domain.NewTermSet(q)
	level := []domain.TermID{q}
	for len(level) > 0 {
		var best domain.TermID
		bestFreq := math.Inf(-1)
		var next []domain.TermID
		for _, t := range level {
			if rs, ok := g.reaches[t]; ok {
				f := propagatedFrequency(rs, decay)
				if f > bestFreq || (f == bestFreq && t < best) {
					best, bestFreq = t, f
				}
			}
			for _, p := range g.graph.Parents(t) {
				if !seen.Contains(p) {
					seen.Add(p)
					next = append(next, p)
				}
			}
		}
		if best != "" {
			return best, bestFreq, true
		}
		level = next
	}
	return "", 0, false
}

func propagatedFrequency(rs []reach, decay float64) float64 {
	best := 0.0
	for _, r := range rs {
		best = math.Max(best, r.frequency/math.Pow(decay, float64(r.distance)))
	}
	return best
}

// annotatedDescendants returns the annotated strict descendants of q with
// the best one by frequency.
func (g *InducedDiseaseGraph) annotatedDescendants(q domain.TermID) (best domain.TermID, bestFreq float64, n int) {
	bestFreq = math.Inf(-1)
	for _, a := range g.annotated {
		if !g.graph.IsAncestorOf(q, a) {
			continue
		}
		n++
		if f := g.frequencies[a]; f > bestFreq {
			best, bestFreq = a, f
		}
	}
	return best, bestFreq, n
}

// maxFrequencyAtOrBelow returns the highest frequency of an annotated term
// equal to q or more specific than q.
func (g *InducedDiseaseGraph) maxFrequencyAtOrBelow(q domain.TermID) (float64, bool) {
	found := false
	best := 0.0
	for a, f := range g.frequencies {
		if a == q || g.graph.IsAncestorOf(q, a) {
			found = true
			best = math.Max(best, f)
		}
	}
	return best, found
}
