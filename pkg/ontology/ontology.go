// Package ontology provides an in-memory, read-only view of the Human
// Phenotype Ontology (or any is_a DAG using CURIE identifiers).
package ontology

import (
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// DefaultCacheSize is the number of ancestor and descendant sets kept in memory.
const DefaultCacheSize = 8192

// Term is a single ontology class.
type Term struct {
	ID         domain.TermID
	Label      string
	AltIDs     []domain.TermID
	Obsolete   bool
	ReplacedBy domain.TermID
}

// Ontology is an immutable is_a graph. It implements domain.OntologyGraph and
// is safe for concurrent use once built.
type Ontology struct {
	terms    map[domain.TermID]*Term
	parents  map[domain.TermID][]domain.TermID
	children map[domain.TermID][]domain.TermID
	// alternates maps alt ids and obsolete ids onto the current primary id.
	alternates map[domain.TermID]domain.TermID
	roots      []domain.TermID

	ancestors   *lru.Cache[domain.TermID, domain.TermSet]
	descendants *lru.Cache[domain.TermID, domain.TermSet]
}

var _ domain.OntologyGraph = (*Ontology)(nil)

// Len returns the number of current terms.
func (o *Ontology) Len() int {
	n := 0
	for _, t := range o.terms {
		if !t.Obsolete {
			n++
		}
	}
	return n
}

// Term returns the term record for a primary id.
func (o *Ontology) Term(id domain.TermID) (*Term, bool) {
	t, ok := o.terms[id]
	return t, ok
}

// Contains reports whether id is a current, non-obsolete term.
func (o *Ontology) Contains(id domain.TermID) bool {
	t, ok := o.terms[id]
	return ok && !t.Obsolete
}

// PrimaryTermID resolves alternate and obsolete ids to the current id.
func (o *Ontology) PrimaryTermID(id domain.TermID) (domain.TermID, bool) {
	if o.Contains(id) {
		return id, true
	}
	if primary, ok := o.alternates[id]; ok && o.Contains(primary) {
		return primary, true
	}
	return "", false
}

// Label returns the term name, or the id itself when the term is unknown.
func (o *Ontology) Label(id domain.TermID) string {
	if t, ok := o.terms[id]; ok && t.Label != "" {
		return t.Label
	}
	return string(id)
}

// Parents returns the direct is_a parents of id.
func (o *Ontology) Parents(id domain.TermID) []domain.TermID {
	return o.parents[id]
}

// Children returns the direct is_a children of id.
func (o *Ontology) Children(id domain.TermID) []domain.TermID {
	return o.children[id]
}

// Roots returns the terms without parents.
func (o *Ontology) Roots() []domain.TermID {
	return o.roots
}

// Ancestors returns every term reachable from id by is_a edges. The
// returned set is shared and must not be modified.
func (o *Ontology) Ancestors(id domain.TermID, includeSelf bool) domain.TermSet {
	set, ok := o.ancestors.Get(id)
	if !ok {
		set = o.closure(id, o.parents)
		o.ancestors.Add(id, set)
	}
	return withSelf(set, id, includeSelf)
}

// Descendants returns every term from which id is reachable. The returned
// set is shared and must not be modified.
func (o *Ontology) Descendants(id domain.TermID, includeSelf bool) domain.TermSet {
	set, ok := o.descendants.Get(id)
	if !ok {
		set = o.closure(id, o.children)
		o.descendants.Add(id, set)
	}
	return withSelf(set, id, includeSelf)
}

// IsAncestorOf reports whether ancestor is a strict ancestor of id.
func (o *Ontology) IsAncestorOf(ancestor, id domain.TermID) bool {
	if ancestor == id {
		return false
	}
	return o.Ancestors(id, false).Contains(ancestor)
}

// closure walks edges breadth-first from id, excluding id itself.
func (o *Ontology) closure(id domain.TermID, edges map[domain.TermID][]domain.TermID) domain.TermSet {
	out := domain.NewTermSet()
	queue := append([]domain.TermID(nil), edges[id]...)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if out.Contains(next) {
			continue
		}
		out.Add(next)
		queue = append(queue, edges[next]...)
	}
	return out
}

func withSelf(set domain.TermSet, id domain.TermID, includeSelf bool) domain.TermSet {
	if !includeSelf || set.Contains(id) {
		return set
	}
	out := make(domain.TermSet, len(set)+1)
	for k := range set {
		out[k] = struct{}{}
	}
	out.Add(id)
	return out
}

// Builder assembles an Ontology. It is not safe for concurrent use.
type Builder struct {
	terms map[domain.TermID]*Term
	edges map[domain.TermID][]domain.TermID
	err   error
}

// NewBuilder creates a new Builder
func NewBuilder() *Builder {
	return &Builder{
		terms: make(map[domain.TermID]*Term),
		edges: make(map[domain.TermID][]domain.TermID),
	}
}

// AddTerm registers a term. Adding the same id twice keeps the last record.
func (b *Builder) AddTerm(t Term) *Builder {
	if t.ID == "" {
		b.err = fmt.Errorf("term without id")
		return b
	}
	term := t
	b.terms[t.ID] = &term
	return b
}

// AddIsA records that child is_a parent.
func (b *Builder) AddIsA(child, parent domain.TermID) *Builder {
	for _, p := range b.edges[child] {
		if p == parent {
			return b
		}
	}
	b.edges[child] = append(b.edges[child], parent)
	return b
}

// Build validates the graph and freezes it. cacheSize <= 0 selects
// DefaultCacheSize.
func (b *Builder) Build(cacheSize int) (*Ontology, error) {
	if b.err != nil {
		return nil, b.err
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	ancestors, err := lru.New[domain.TermID, domain.TermSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create ancestor cache: %w", err)
	}
	descendants, err := lru.New[domain.TermID, domain.TermSet](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create descendant cache: %w", err)
	}

	o := &Ontology{
		terms:       b.terms,
		parents:     make(map[domain.TermID][]domain.TermID, len(b.edges)),
		children:    make(map[domain.TermID][]domain.TermID),
		alternates:  make(map[domain.TermID]domain.TermID),
		ancestors:   ancestors,
		descendants: descendants,
	}

	for child, parents := range b.edges {
		if _, ok := b.terms[child]; !ok {
			return nil, fmt.Errorf("is_a edge from unknown term %s", child)
		}
		for _, p := range parents {
			if _, ok := b.terms[p]; !ok {
				return nil, fmt.Errorf("is_a edge from %s to unknown term %s", child, p)
			}
			o.parents[child] = append(o.parents[child], p)
			o.children[p] = append(o.children[p], child)
		}
	}
	for id := range o.parents {
		sortIDs(o.parents[id])
	}
	for id := range o.children {
		sortIDs(o.children[id])
	}

	for id, t := range b.terms {
		for _, alt := range t.AltIDs {
			o.alternates[alt] = id
		}
		if t.Obsolete && t.ReplacedBy != "" {
			o.alternates[id] = t.ReplacedBy
		}
		if !t.Obsolete && len(o.parents[id]) == 0 {
			o.roots = append(o.roots, id)
		}
	}
	sortIDs(o.roots)

	if err := o.checkAcyclic(); err != nil {
		return nil, err
	}
	return o, nil
}

// checkAcyclic runs a colouring DFS over the parent edges.
func (o *Ontology) checkAcyclic() error {
	const (
		white = iota
		grey
		black
	)
	colour := make(map[domain.TermID]int, len(o.terms))
	var visit func(id domain.TermID) error
	visit = func(id domain.TermID) error {
		switch colour[id] {
		case grey:
			return fmt.Errorf("cycle detected at %s", id)
		case black:
			return nil
		}
		colour[id] = grey
		for _, p := range o.parents[id] {
			if err := visit(p); err != nil {
				return err
			}
		}
		colour[id] = black
		return nil
	}
	ids := make([]domain.TermID, 0, len(o.terms))
	for id := range o.terms {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

func sortIDs(ids []domain.TermID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
