package analysis

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

var disease = &domain.DiseaseProfile{ID: "OMIM:100001", Name: "Seizure disorder A"}

func lrs(values ...float64) []domain.TermLrMatch {
	out := make([]domain.TermLrMatch, len(values))
	for i, v := range values {
		out[i] = domain.TermLrMatch{Query: "HP:0000001", MatchType: domain.ExactMatch, LR: v}
	}
	return out
}

func TestNewTestResult_CompositeLR(t *testing.T) {
	match := domain.NewGeneLrMatch(domain.GeneIdentifier{}, domain.OneClinVarPathogenicAlleleDominant, math.Log(1000), "")
	gene := &match
	onsetLR := 0.5

	// Act
	r := NewTestResult(disease, 0.25, lrs(1.2, 2), lrs(2), gene, &onsetLR)

	// Assert
	assert.InEpsilon(t, 1.2*2*2*1000*0.5, r.CompositeLR(), 1e-12)
	assert.InDelta(t, math.Log10(2400), r.Log10CompositeLR, 1e-12)
	assert.True(t, r.HasGenotype())
	assert.InDelta(t, 1.0/3, r.PretestOdds(), 1e-15)
	assert.InEpsilon(t, 800, r.PosttestOdds(), 1e-12)
	assert.InDelta(t, 800.0/801, r.PosttestProbability, 1e-12)
}

func TestNewTestResult_GeneLRBeyondFloatRange(t *testing.T) {
	match := domain.NewGeneLrMatch(domain.GeneIdentifier{}, domain.PoissonModel, 800, "")

	// Act
	r := NewTestResult(disease, 1e-4, lrs(0.5), nil, &match, nil)

	// Assert
	assert.InDelta(t, (800+math.Log(0.5))/math.Ln10, r.Log10CompositeLR, 1e-9)
	assert.Equal(t, 1.0, r.PosttestProbability)
	_, err := json.Marshal(r)
	require.NoError(t, err)
}

func TestNewTestResult_OrderIndependent(t *testing.T) {
	values := []float64{1e-3, 47.5, 0.05, 2, 1e4, 0.3}
	reversed := make([]float64, len(values))
	for i, v := range values {
		reversed[len(values)-1-i] = v
	}

	a := NewTestResult(disease, 0.01, lrs(values[:3]...), lrs(values[3:]...), nil, nil)
	b := NewTestResult(disease, 0.01, lrs(reversed[:2]...), lrs(reversed[2:]...), nil, nil)

	assert.InDelta(t, a.Log10CompositeLR, b.Log10CompositeLR, 1e-12)
	assert.InDelta(t, a.PosttestProbability, b.PosttestProbability, 1e-15)
}

func TestNewTestResult_NeutralEvidenceKeepsPretest(t *testing.T) {
	for _, p := range []float64{1e-6, 0.01, 0.25, 0.5, 0.99} {
		r := NewTestResult(disease, p, lrs(1), nil, nil, nil)
		assert.InDelta(t, p, r.PosttestProbability, 1e-12, "pretest %v", p)
	}
}

func TestNewTestResult_MonotoneInCompositeLR(t *testing.T) {
	prev := -1.0
	for _, lr := range []float64{1e-300, 1e-12, 0.01, 0.5, 1, 3, 1e6, 1e300} {
		r := NewTestResult(disease, 0.001, lrs(lr), nil, nil, nil)

		assert.GreaterOrEqual(t, r.PosttestProbability, prev, "lr %v", lr)
		assert.GreaterOrEqual(t, r.PosttestProbability, 0.0)
		assert.LessOrEqual(t, r.PosttestProbability, 1.0)
		prev = r.PosttestProbability
	}
}

func TestNewTestResult_ExtremeMagnitudes(t *testing.T) {
	// 1e200 * 1e200 overflows a float64; the log-space product does not.
	strong := NewTestResult(disease, 1e-5, lrs(1e200, 1e200), nil, nil, nil)
	weak := NewTestResult(disease, 1e-5, lrs(1e-200, 1e-200), nil, nil, nil)

	assert.InDelta(t, 400, strong.Log10CompositeLR, 1e-9)
	assert.Equal(t, 1.0, strong.PosttestProbability)
	assert.InDelta(t, -400, weak.Log10CompositeLR, 1e-9)
	assert.GreaterOrEqual(t, weak.PosttestProbability, 0.0)
	assert.Less(t, weak.PosttestProbability, 1e-300)
}

func TestNewTestResult_DegeneratePretest(t *testing.T) {
	assert.Equal(t, 1.0, NewTestResult(disease, 1, lrs(1e-9), nil, nil, nil).PosttestProbability)
	assert.Equal(t, 0.0, NewTestResult(disease, 0, lrs(1e9), nil, nil, nil).PosttestProbability)
}

func TestResults_Ranked(t *testing.T) {
	results := []TestResult{
		NewTestResult(&domain.DiseaseProfile{ID: "OMIM:3"}, 0.1, lrs(2), nil, nil, nil),
		NewTestResult(&domain.DiseaseProfile{ID: "OMIM:2"}, 0.1, lrs(2), nil, nil, nil),
		NewTestResult(&domain.DiseaseProfile{ID: "OMIM:1"}, 0.1, lrs(0.5), nil, nil, nil),
		NewTestResult(&domain.DiseaseProfile{ID: "OMIM:4"}, 0.1, lrs(10), nil, nil, nil),
	}
	sortResults(results)
	r := &Results{Results: results}

	// Act
	ranked := r.Ranked()

	// Assert
	ids := make([]domain.TermID, len(ranked))
	for i, rr := range ranked {
		ids[i] = rr.DiseaseID
		assert.Equal(t, i+1, rr.Rank)
	}
	assert.Equal(t, []domain.TermID{"OMIM:4", "OMIM:2", "OMIM:3", "OMIM:1"}, ids)

	top, ok := r.Top()
	assert.True(t, ok)
	assert.Equal(t, domain.TermID("OMIM:4"), top.DiseaseID)

	found, ok := r.Find("OMIM:3")
	assert.True(t, ok)
	assert.Equal(t, 3, found.Rank)

	_, ok = r.Find("OMIM:9")
	assert.False(t, ok)
}
