// Package corpus loads the disease annotation corpus and the gene to disease
// associations that the analysis runs over.
package corpus

import (
	"fmt"
	"sort"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Corpus is an immutable, id-ordered collection of disease profiles.
type Corpus struct {
	diseases []*domain.DiseaseProfile
	byID     map[domain.TermID]*domain.DiseaseProfile
}

var _ domain.DiseaseCorpus = (*Corpus)(nil)

// New builds a corpus, rejecting duplicate disease ids.
func New(diseases []*domain.DiseaseProfile) (*Corpus, error) {
	c := &Corpus{
		diseases: make([]*domain.DiseaseProfile, 0, len(diseases)),
		byID:     make(map[domain.TermID]*domain.DiseaseProfile, len(diseases)),
	}
	for _, d := range diseases {
		if d == nil || d.ID == "" {
			return nil, fmt.Errorf("disease without id")
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate disease %s", d.ID)
		}
		c.byID[d.ID] = d
		c.diseases = append(c.diseases, d)
	}
	sort.Slice(c.diseases, func(i, j int) bool { return c.diseases[i].ID < c.diseases[j].ID })
	return c, nil
}

// Diseases returns every profile ordered by id.
func (c *Corpus) Diseases() []*domain.DiseaseProfile {
	return c.diseases
}

// Disease looks up a profile by id.
func (c *Corpus) Disease(id domain.TermID) (*domain.DiseaseProfile, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Len returns the number of diseases.
func (c *Corpus) Len() int {
	return len(c.diseases)
}

// Databases returns the distinct id prefixes present in the corpus.
func (c *Corpus) Databases() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.diseases {
		p := d.ID.Prefix()
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
