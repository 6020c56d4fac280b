// Package onset computes how compatible a diagnosis is with the patient's
// age, given the documented onset window of the disease.
package onset

import (
	"fmt"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Epsilon is the distance from 0 and 1 of every probability returned here.
const Epsilon = 1e-8

// Relation is the position of a disease onset window relative to the
// patient's age interval.
type Relation string

const (
	// Before: the onset window ends at or before the age interval starts.
	Before Relation = "BEFORE"
	// BeforeAndDuring: onset starts before the age and ends inside it.
	BeforeAndDuring Relation = "BEFORE_AND_DURING"
	// Contains: the onset window covers the whole age interval.
	Contains Relation = "CONTAINS"
	// ContainedIn: the onset window lies inside the age interval.
	ContainedIn Relation = "CONTAINED_IN"
	// DuringAndAfter: onset starts inside the age and ends after it.
	DuringAndAfter Relation = "DURING_AND_AFTER"
	// After: the onset window starts at or after the end of the age interval.
	After Relation = "AFTER"
)

// Relate classifies onset against age. Both are half-open intervals.
func Relate(onset, age domain.Interval) Relation {
	switch {
	case onset.End <= age.Start:
		return Before
	case onset.Start >= age.End:
		return After
	case onset.Start <= age.Start && onset.End >= age.End:
		return Contains
	case onset.Start >= age.Start && onset.End <= age.End:
		return ContainedIn
	case onset.Start < age.Start:
		return BeforeAndDuring
	}
	return DuringAndAfter
}

// Outcome is the probability assigned to a relation.
type Outcome string

const (
	// Observable means the disease is expected to be visible at that age (1-ε).
	Observable Outcome = "OBSERVABLE"
	// NotObservable means the disease is not expected yet (ε).
	NotObservable Outcome = "NOT_OBSERVABLE"
	// FollowStrict resolves to NotObservable in strict mode, Observable otherwise.
	FollowStrict Outcome = "FOLLOW_STRICT"
)

// Policy maps every relation to an outcome.
type Policy map[Relation]Outcome

// DefaultPolicy returns the standard table: onset before the age is
// observable, onset after it is not, and every partial overlap follows the
// strict flag.
func DefaultPolicy() Policy {
	return Policy{
		Before:          Observable,
		BeforeAndDuring: FollowStrict,
		Contains:        FollowStrict,
		ContainedIn:     FollowStrict,
		DuringAndAfter:  FollowStrict,
		After:           NotObservable,
	}
}

// Validate checks that every relation has a known outcome.
func (p Policy) Validate() error {
	for _, r := range []Relation{Before, BeforeAndDuring, Contains, ContainedIn, DuringAndAfter, After} {
		switch p[r] {
		case Observable, NotObservable, FollowStrict:
		default:
			return domain.NewValidationError("onset_policy", fmt.Sprintf("no valid outcome for %s", r), p[r])
		}
	}
	return nil
}

// Estimator computes P(disease observable | age) for the diseases of a corpus.
type Estimator struct {
	corpus domain.DiseaseCorpus
	policy Policy
	strict bool
}

// NewEstimator creates a new Estimator. A nil policy selects DefaultPolicy.
func NewEstimator(corpus domain.DiseaseCorpus, strict bool, policy Policy) (*Estimator, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{corpus: corpus, policy: policy, strict: strict}, nil
}

// Probability returns the probability that d has become observable by age.
// A disease without documented onset gets 1-ε.
func (e *Estimator) Probability(d *domain.DiseaseProfile, age domain.Age) float64 {
	window, ok := d.Onset()
	if !ok {
		return 1 - Epsilon
	}
	return e.resolve(e.policy[Relate(window, age.Interval())])
}

// ObservableGivenAge looks the disease up in the corpus. Unknown diseases get 1-ε.
func (e *Estimator) ObservableGivenAge(id domain.TermID, age domain.Age) float64 {
	d, ok := e.corpus.Disease(id)
	if !ok {
		return 1 - Epsilon
	}
	return e.Probability(d, age)
}

// NotObservableGivenAge is the mean of Probability over the whole corpus.
// It is reported with a run and never used for scoring.
func (e *Estimator) NotObservableGivenAge(age domain.Age) float64 {
	diseases := e.corpus.Diseases()
	if len(diseases) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range diseases {
		sum += e.Probability(d, age)
	}
	return sum / float64(len(diseases))
}

func (e *Estimator) resolve(o Outcome) float64 {
	switch o {
	case Observable:
		return 1 - Epsilon
	case NotObservable:
		return Epsilon
	}
	if e.strict {
		return Epsilon
	}
	return 1 - Epsilon
}
