package onset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/testkit"
)

func interval(start, end float64) domain.Interval {
	return domain.Interval{Start: start, End: end}
}

func TestRelate(t *testing.T) {
	age := interval(100, 101)

	tests := []struct {
		name  string
		onset domain.Interval
		want  Relation
	}{
		{"ends before age", interval(10, 50), Before},
		{"ends exactly at age start", interval(10, 100), Before},
		{"starts after age", interval(200, 300), After},
		{"starts exactly at age end", interval(101, 300), After},
		{"covers age", interval(50, 200), Contains},
		{"open-ended adult onset", interval(50, math.Inf(1)), Contains},
		{"inside age", interval(100.2, 100.8), ContainedIn},
		{"straddles age start", interval(50, 100.5), BeforeAndDuring},
		{"straddles age end", interval(100.5, 200), DuringAndAfter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Relate(tt.onset, age))
		})
	}
}

func TestProbability_InfantileOnsetFlipsWithAge(t *testing.T) {
	e, err := NewEstimator(testkit.Corpus(), false, nil)
	require.NoError(t, err)

	tenDays, err := domain.ParseAge("P10D")
	require.NoError(t, err)
	oneYear, err := domain.ParseAge("P1Y")
	require.NoError(t, err)

	// Act
	young := e.ObservableGivenAge(testkit.SeizureDisorder, *tenDays)
	older := e.ObservableGivenAge(testkit.SeizureDisorder, *oneYear)

	// Assert
	assert.Equal(t, Epsilon, young)
	assert.Equal(t, 1-Epsilon, older)
}

func TestProbability_StrictResolvesOverlap(t *testing.T) {
	// Two months lies inside the infantile window of disease A.
	age := domain.Age{Months: 2}

	tests := []struct {
		strict bool
		want   float64
	}{
		{true, Epsilon},
		{false, 1 - Epsilon},
	}

	for _, tt := range tests {
		e, err := NewEstimator(testkit.Corpus(), tt.strict, nil)
		require.NoError(t, err)

		// Act
		got := e.ObservableGivenAge(testkit.SeizureDisorder, age)

		// Assert
		assert.Equal(t, tt.want, got, "strict=%v", tt.strict)
	}
}

func TestProbability_UnknownOnsetIsUninformative(t *testing.T) {
	e, err := NewEstimator(testkit.Corpus(), true, nil)
	require.NoError(t, err)

	for _, age := range []domain.Age{{Days: 1}, {Years: 40}} {
		assert.Equal(t, 1-Epsilon, e.ObservableGivenAge(testkit.EyeDisorder, age))
		assert.Equal(t, 1-Epsilon, e.ObservableGivenAge("OMIM:999999", age))
	}
}

func TestProbability_CustomPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy[Contains] = NotObservable

	e, err := NewEstimator(testkit.Corpus(), false, policy)
	require.NoError(t, err)

	// Act
	got := e.ObservableGivenAge(testkit.SeizureDisorder, domain.Age{Months: 2})

	// Assert
	assert.Equal(t, Epsilon, got)
}

func TestNewEstimator_RejectsIncompletePolicy(t *testing.T) {
	policy := DefaultPolicy()
	delete(policy, After)

	_, err := NewEstimator(testkit.Corpus(), false, policy)

	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestNotObservableGivenAge(t *testing.T) {
	e, err := NewEstimator(testkit.Corpus(), false, nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		age  domain.Age
		want float64
	}{
		// A and C not yet observable; B and D have no onset.
		{"ten days", domain.Age{Days: 10}, 0.5},
		// Only the adult-onset disease C is not yet observable.
		{"one year", domain.Age{Years: 1}, (3*(1-Epsilon) + Epsilon) / 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := e.NotObservableGivenAge(tt.age)

			// Assert
			assert.InDelta(t, tt.want, got, 1e-15)
		})
	}
}
