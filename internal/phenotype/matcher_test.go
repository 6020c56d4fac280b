package phenotype

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/corpus"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/testkit"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/ontology"
)

type fixture struct {
	graph   *ontology.Ontology
	matcher *Matcher
	idgs    map[domain.TermID]*InducedDiseaseGraph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	graph := testkit.Ontology()
	c := testkit.Corpus()
	bg := NewBackgroundFrequencies(graph, c, DefaultConstants().BackgroundFloor)

	f := &fixture{
		graph:   graph,
		matcher: NewMatcher(graph, bg, DefaultConstants()),
		idgs:    make(map[domain.TermID]*InducedDiseaseGraph),
	}
	for _, d := range c.Diseases() {
		f.idgs[d.ID] = NewInducedDiseaseGraph(d, graph)
	}
	return f
}

func corpusOf(t *testing.T, diseases ...*domain.DiseaseProfile) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New(diseases)
	require.NoError(t, err)
	return c
}

func TestBackgroundFrequencies(t *testing.T) {
	f := newFixture(t)
	bg := f.matcher.Background()

	tests := []struct {
		term domain.TermID
		want float64
	}{
		{testkit.Seizure, 0.75},
		{testkit.FebrileSeizure, 0.5},
		{testkit.IntellectualDisab, 0.25},
		{testkit.Cataract, 0.5},
		{testkit.Eye, 0.5},
		{testkit.AtrialSeptalDefect, 0.25},
		{testkit.PhenotypicAbnormality, 1},
		{testkit.All, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.term), func(t *testing.T) {
			assert.InDelta(t, tt.want, bg.Frequency(tt.term), 1e-12)
		})
	}

	assert.Equal(t, 4, bg.Diseases())
	assert.Zero(t, bg.Raw(testkit.FocalSeizure), "no disease reaches focal seizure")
	assert.InDelta(t, 1e-4, bg.Frequency(testkit.FocalSeizure), 1e-15, "floored")
}

func TestBackgroundFrequencies_NegatedAnnotationsDoNotCount(t *testing.T) {
	graph := testkit.Ontology()
	only := &domain.DiseaseProfile{
		ID:                 "OMIM:1",
		Annotations:        []domain.PhenotypeAnnotation{{TermID: testkit.Cataract, Frequency: 1}},
		NegatedAnnotations: []domain.TermID{testkit.Seizure},
	}
	c := corpusOf(t, only)

	// Act
	bg := NewBackgroundFrequencies(graph, c, 0)

	// Assert
	assert.Equal(t, 0.0, bg.Frequency(testkit.Seizure))
	assert.Equal(t, 1.0, bg.Frequency(testkit.Eye))
}

func TestBackgroundFrequencies_ExactMatchEqualsFrequencyOverBackground(t *testing.T) {
	// A synthetic corpus where k of n diseases carry the query gives
	// LR = f / (k/n) for each carrier.
	graph := testkit.Ontology()
	var diseases []*domain.DiseaseProfile
	for i, f := range []float64{0.2, 0.4, 0.6, 0.8, 1.0} {
		diseases = append(diseases, &domain.DiseaseProfile{
			ID:          domain.TermID("OMIM:" + string(rune('1'+i))),
			Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.Cataract, Frequency: f}},
		})
	}
	for i := 0; i < 5; i++ {
		diseases = append(diseases, &domain.DiseaseProfile{
			ID:          domain.TermID("ORPHA:" + string(rune('1'+i))),
			Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.AtrialSeptalDefect, Frequency: 1}},
		})
	}
	c := corpusOf(t, diseases...)
	bg := NewBackgroundFrequencies(graph, c, DefaultConstants().BackgroundFloor)
	m := NewMatcher(graph, bg, DefaultConstants())

	for _, d := range diseases[:5] {
		// Act
		got := m.ObservedTermLR(testkit.Cataract, NewInducedDiseaseGraph(d, graph))

		// Assert
		assert.Equal(t, domain.ExactMatch, got.MatchType)
		assert.InDelta(t, d.Annotations[0].Frequency/0.5, got.LR, 1e-12)
	}
}

func TestObservedTermLR(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		query     domain.TermID
		disease   domain.TermID
		matchType domain.TermMatchType
		matched   domain.TermID
		lr        float64
	}{
		{
			name:      "exact match",
			query:     testkit.IntellectualDisab,
			disease:   testkit.SeizureDisorder,
			matchType: domain.ExactMatch,
			matched:   testkit.IntellectualDisab,
			lr:        0.5 / 0.25,
		},
		{
			name:      "query more specific than disease term",
			query:     testkit.FebrileSeizure,
			disease:   testkit.SeizureDisorder,
			matchType: domain.QueryTermDescendantOfDiseaseTerm,
			matched:   testkit.Seizure,
			lr:        0.9 / 2 / 0.5,
		},
		{
			name:      "query more general than disease term",
			query:     testkit.Seizure,
			disease:   testkit.HeartDisorder,
			matchType: domain.QueryTermAncestorOfDiseaseTerm,
			matched:   testkit.FebrileSeizure,
			lr:        0.2 / 0.75,
		},
		{
			name:      "non-root common ancestor",
			query:     testkit.IntellectualDisab,
			disease:   testkit.HeartDisorder,
			matchType: domain.NonRootCommonAncestor,
			matched:   testkit.NervousPhysiology,
			lr:        0.01,
		},
		{
			name:      "only the root is shared",
			query:     testkit.Cataract,
			disease:   testkit.SeizureDisorder,
			matchType: domain.NoMatchBelowRoot,
			lr:        0.01,
		},
		{
			name:      "disease excludes an ancestor of the query",
			query:     testkit.FebrileSeizure,
			disease:   testkit.EyeDisorder,
			matchType: domain.QueryTermPresentButExcluded,
			matched:   testkit.Seizure,
			lr:        1.0 / 1000,
		},
		{
			name:      "disease excludes the query itself",
			query:     testkit.Seizure,
			disease:   testkit.EyeDisorder,
			matchType: domain.QueryTermPresentButExcluded,
			matched:   testkit.Seizure,
			lr:        1.0 / 1000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := f.matcher.ObservedTermLR(tt.query, f.idgs[tt.disease])

			// Assert
			assert.Equal(t, tt.matchType, got.MatchType)
			assert.InDelta(t, tt.lr, got.LR, 1e-12)
			assert.Equal(t, tt.query, got.Query)
			if tt.matched != "" {
				assert.Equal(t, tt.matched, got.Matched)
			}
		})
	}
}

func TestObservedTermLR_CommonAncestorIsNeverRootLike(t *testing.T) {
	f := newFixture(t)

	// Act
	got := f.matcher.ObservedTermLR(testkit.IntellectualDisab, f.idgs[testkit.HeartDisorder])

	// Assert
	require.Equal(t, domain.NonRootCommonAncestor, got.MatchType)
	assert.NotEqual(t, testkit.PhenotypicAbnormality, got.Matched)
	assert.NotEqual(t, testkit.All, got.Matched)
	assert.True(t, f.graph.IsAncestorOf(got.Matched, testkit.IntellectualDisab))
}

func TestObservedTermLR_AttenuationCountsAnnotatedDescendants(t *testing.T) {
	graph := testkit.Ontology()
	d := &domain.DiseaseProfile{
		ID: "OMIM:2",
		Annotations: []domain.PhenotypeAnnotation{
			{TermID: testkit.FebrileSeizure, Frequency: 0.5},
			{TermID: testkit.FocalSeizure, Frequency: 0.3},
		},
	}
	c := corpusOf(t, d)
	bg := NewBackgroundFrequencies(graph, c, DefaultConstants().BackgroundFloor)
	attenuated := DefaultConstants()
	attenuated.AncestorAttenuation = 0.9

	tests := []struct {
		name      string
		constants Constants
		lr        float64
	}{
		{"default keeps the best descendant", DefaultConstants(), 0.5 / 1.0},
		{"overridden per descendant", attenuated, 0.5 * 0.9 * 0.9 / 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := NewMatcher(graph, bg, tt.constants).ObservedTermLR(testkit.Seizure, NewInducedDiseaseGraph(d, graph))

			// Assert
			assert.Equal(t, domain.QueryTermAncestorOfDiseaseTerm, got.MatchType)
			assert.Equal(t, testkit.FebrileSeizure, got.Matched)
			assert.InDelta(t, tt.lr, got.LR, 1e-12)
		})
	}
}

func TestObservedTermLR_ChildShareFlooredByNoCommonOrganProbability(t *testing.T) {
	graph := testkit.Ontology()
	rare := &domain.DiseaseProfile{
		ID:          "OMIM:1",
		Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.Seizure, Frequency: 0.01}},
	}
	other := &domain.DiseaseProfile{
		ID:          "OMIM:2",
		Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.FebrileSeizure, Frequency: 1}},
	}
	c := corpusOf(t, rare, other)
	bg := NewBackgroundFrequencies(graph, c, DefaultConstants().BackgroundFloor)
	m := NewMatcher(graph, bg, DefaultConstants())

	// Act
	got := m.ObservedTermLR(testkit.FebrileSeizure, NewInducedDiseaseGraph(rare, graph))

	// Assert
	require.Equal(t, domain.QueryTermDescendantOfDiseaseTerm, got.MatchType)
	assert.Equal(t, testkit.Seizure, got.Matched)
	floor := (0.002 + (0.5-0.01)*(0.10-0.002)/(0.10-0.01)) * 0.5
	assert.Greater(t, floor, 0.01/2)
	assert.InDelta(t, floor/0.5, got.LR, 1e-12)
}

func TestObservedTermLR_CommonAncestorFrequencyDecaysPerEdge(t *testing.T) {
	graph := testkit.Ontology()
	febrile := &domain.DiseaseProfile{
		ID:          "OMIM:1",
		Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.FebrileSeizure, Frequency: 1}},
	}
	physiology := &domain.DiseaseProfile{
		ID:          "OMIM:2",
		Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.NervousPhysiology, Frequency: 1}},
	}
	diseases := []*domain.DiseaseProfile{febrile, physiology}
	for _, id := range []domain.TermID{"OMIM:3", "OMIM:4"} {
		diseases = append(diseases, &domain.DiseaseProfile{
			ID:          id,
			Annotations: []domain.PhenotypeAnnotation{{TermID: testkit.Cataract, Frequency: 1}},
		})
	}
	c := corpusOf(t, diseases...)
	bg := NewBackgroundFrequencies(graph, c, DefaultConstants().BackgroundFloor)
	m := NewMatcher(graph, bg, DefaultConstants())

	tests := []struct {
		name    string
		query   domain.TermID
		disease *domain.DiseaseProfile
		matched domain.TermID
		lr      float64
	}{
		// Seizure is one edge above febrile seizure, bg 0.25.
		{"sibling of the disease term", testkit.FocalSeizure, febrile, testkit.Seizure, 1.0 / 10 / 0.25},
		// Nervous physiology is two edges up, bg 0.5.
		{"cousin of the disease term", testkit.IntellectualDisab, febrile, testkit.NervousPhysiology, 1.0 / 100 / 0.5},
		// A grandchild takes no share of its grandparent.
		{"grandchild of the disease term", testkit.FebrileSeizure, physiology, testkit.NervousSystem, 1.0 / 10 / 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := m.ObservedTermLR(tt.query, NewInducedDiseaseGraph(tt.disease, graph))

			// Assert
			assert.Equal(t, domain.NonRootCommonAncestor, got.MatchType)
			assert.Equal(t, tt.matched, got.Matched)
			assert.InDelta(t, tt.lr, got.LR, 1e-12)
		})
	}
}

func TestObservedTermLR_CommonAncestorIsFloored(t *testing.T) {
	f := newFixture(t)

	// Act
	got := f.matcher.ObservedTermLR(testkit.IntellectualDisab, f.idgs[testkit.CombinedSyndrome])

	// Assert
	assert.Equal(t, domain.NonRootCommonAncestor, got.MatchType)
	assert.Equal(t, testkit.NervousPhysiology, got.Matched)
	assert.Equal(t, DefaultConstants().NoMatchFactor, got.LR)
}

func TestExcludedTermLR(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		query     domain.TermID
		disease   domain.TermID
		matchType domain.TermMatchType
		lr        float64
	}{
		{
			name:      "excluded in both",
			query:     testkit.Seizure,
			disease:   testkit.EyeDisorder,
			matchType: domain.ExcludedQueryTermExcludedInDisease,
			lr:        1000,
		},
		{
			name:      "not annotated in disease",
			query:     testkit.Cataract,
			disease:   testkit.SeizureDisorder,
			matchType: domain.ExcludedQueryTermNotInDisease,
			lr:        1 / (1 - 0.5),
		},
		{
			name:      "obligate feature excluded",
			query:     testkit.Cataract,
			disease:   testkit.EyeDisorder,
			matchType: domain.ExcludedQueryTermPresentInDisease,
			lr:        0.01 / (1 - 0.5),
		},
		{
			name:      "occasional feature excluded",
			query:     testkit.Cataract,
			disease:   testkit.CombinedSyndrome,
			matchType: domain.ExcludedQueryTermPresentInDisease,
			lr:        (1 - 0.3) / (1 - 0.5),
		},
		{
			name:      "descendant annotated",
			query:     testkit.Seizure,
			disease:   testkit.HeartDisorder,
			matchType: domain.ExcludedQueryTermPresentInDisease,
			lr:        (1 - 0.2) / (1 - 0.75),
		},
		{
			name:      "term shared by every disease",
			query:     testkit.PhenotypicAbnormality,
			disease:   testkit.SeizureDisorder,
			matchType: domain.UnusualBackgroundFrequency,
			lr:        1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got := f.matcher.ExcludedTermLR(tt.query, f.idgs[tt.disease])

			// Assert
			assert.Equal(t, tt.matchType, got.MatchType)
			assert.InDelta(t, tt.lr, got.LR, 1e-12)
		})
	}
}

func TestMatch_LRIsAlwaysPositiveAndFinite(t *testing.T) {
	f := newFixture(t)
	queries := []domain.TermID{
		testkit.All, testkit.PhenotypicAbnormality, testkit.Seizure, testkit.FebrileSeizure,
		testkit.FocalSeizure, testkit.Cataract, testkit.VisualImpairment, testkit.AtrialSeptalDefect,
	}

	for _, idg := range f.idgs {
		for _, q := range queries {
			for _, got := range []domain.TermLrMatch{f.matcher.ObservedTermLR(q, idg), f.matcher.ExcludedTermLR(q, idg)} {
				assert.Greater(t, got.LR, 0.0, "%s vs %s", q, idg.Disease().ID)
				assert.False(t, math.IsInf(got.LR, 0) || math.IsNaN(got.LR), "%s vs %s", q, idg.Disease().ID)
			}
		}
	}
}

func TestExplanation(t *testing.T) {
	f := newFixture(t)

	exact := f.matcher.ObservedTermLR(testkit.IntellectualDisab, f.idgs[testkit.SeizureDisorder])
	descendant := f.matcher.ObservedTermLR(testkit.FebrileSeizure, f.idgs[testkit.SeizureDisorder])
	noMatch := f.matcher.ObservedTermLR(testkit.Cataract, f.idgs[testkit.SeizureDisorder])

	assert.Equal(t, "E:Intellectual disability[HP:0001249][0.301]", exact.Explanation)
	assert.Equal(t, "Q<D:Febrile seizure[HP:0002373]<Seizure[HP:0001250][-0.046]", descendant.Explanation)
	assert.Equal(t, "NM:Cataract[HP:0000518][-2.000]", noMatch.Explanation)

	again := f.matcher.ObservedTermLR(testkit.FebrileSeizure, f.idgs[testkit.SeizureDisorder])
	assert.Equal(t, descendant, again, "matching is deterministic")
}

func TestInducedDiseaseGraph(t *testing.T) {
	f := newFixture(t)
	idg := f.idgs[testkit.HeartDisorder]

	assert.True(t, idg.Contains(testkit.AtrialSeptalDefect))
	assert.True(t, idg.Contains(testkit.Seizure), "ancestor of an annotated term")
	assert.True(t, idg.Contains(testkit.All))
	assert.False(t, idg.Contains(testkit.Cataract))
	assert.False(t, idg.Contains(testkit.FocalSeizure), "siblings are not induced")
	assert.Equal(t, []domain.TermID{testkit.Seizure}, idg.Parents(testkit.FebrileSeizure))
	assert.Nil(t, idg.Parents(testkit.Cataract))

	freq, ok := idg.AnnotationFrequency(testkit.FebrileSeizure)
	assert.True(t, ok)
	assert.Equal(t, 0.2, freq)
	_, ok = idg.AnnotationFrequency(testkit.Seizure)
	assert.False(t, ok)
}
