package corpus

import (
	"fmt"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// UniformPretest assigns every disease of a corpus the same prior, 1/N.
type UniformPretest struct {
	corpus domain.DiseaseCorpus
	p      float64
}

// NewUniformPretest creates a new UniformPretest over the corpus.
func NewUniformPretest(c domain.DiseaseCorpus) *UniformPretest {
	p := 0.0
	if c.Len() > 0 {
		p = 1 / float64(c.Len())
	}
	return &UniformPretest{corpus: c, p: p}
}

// PretestProbability implements domain.PretestProbabilityProvider.
func (u *UniformPretest) PretestProbability(disease domain.TermID) (float64, bool) {
	if _, ok := u.corpus.Disease(disease); !ok {
		return 0, false
	}
	return u.p, true
}

// MapPretest serves explicit priors, falling back to a base provider for
// diseases without an override.
type MapPretest struct {
	values map[domain.TermID]float64
	base   domain.PretestProbabilityProvider
}

// NewMapPretest validates that every prior lies in (0, 1). base may be nil.
func NewMapPretest(values map[domain.TermID]float64, base domain.PretestProbabilityProvider) (*MapPretest, error) {
	for id, p := range values {
		if p <= 0 || p >= 1 {
			return nil, domain.NewValidationError("pretest_probability", fmt.Sprintf("prior of %s must lie in (0, 1)", id), p)
		}
	}
	return &MapPretest{values: values, base: base}, nil
}

// PretestProbability implements domain.PretestProbabilityProvider.
func (m *MapPretest) PretestProbability(disease domain.TermID) (float64, bool) {
	if p, ok := m.values[disease]; ok {
		return p, true
	}
	if m.base != nil {
		return m.base.PretestProbability(disease)
	}
	return 0, false
}
