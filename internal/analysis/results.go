package analysis

import (
	"sort"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/ontology"
)

// Summary describes what happened to the corpus during one run.
type Summary struct {
	SampleID         string             `json:"sample_id"`
	GenomeBuild      domain.GenomeBuild `json:"genome_build"`
	DiseasesInCorpus int                `json:"diseases_in_corpus"`
	// FilteredByDatabase counts diseases outside the requested id prefixes.
	FilteredByDatabase    int `json:"filtered_by_database"`
	Evaluated             int `json:"evaluated"`
	SkippedMissingPretest int `json:"skipped_missing_pretest"`
	DroppedNoDeleterious  int `json:"dropped_no_deleterious_variant"`
	DroppedNoGene         int `json:"dropped_no_candidate_gene"`
	// NotObservableGivenAge is the corpus-wide mean onset probability at the
	// patient's age. Reported only; it takes no part in scoring.
	NotObservableGivenAge *float64                    `json:"not_observable_given_age,omitempty"`
	Sanitation            []ontology.SanitationChange `json:"sanitation,omitempty"`
}

// Results is the ordered outcome of a run: descending post-test probability,
// then descending composite LR, then ascending disease id.
type Results struct {
	Results []TestResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// RankedResult pairs a TestResult with its 1-based position.
type RankedResult struct {
	Rank int `json:"rank"`
	TestResult
}

// Len returns the number of ranked diseases.
func (r *Results) Len() int {
	return len(r.Results)
}

// Top returns the best-ranked result.
func (r *Results) Top() (TestResult, bool) {
	if len(r.Results) == 0 {
		return TestResult{}, false
	}
	return r.Results[0], true
}

// Ranked assigns ranks from list position.
func (r *Results) Ranked() []RankedResult {
	out := make([]RankedResult, len(r.Results))
	for i, tr := range r.Results {
		out[i] = RankedResult{Rank: i + 1, TestResult: tr}
	}
	return out
}

// Find returns the result for a disease and its rank.
func (r *Results) Find(id domain.TermID) (RankedResult, bool) {
	for i, tr := range r.Results {
		if tr.DiseaseID == id {
			return RankedResult{Rank: i + 1, TestResult: tr}, true
		}
	}
	return RankedResult{}, false
}

func sortResults(results []TestResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.PosttestProbability != b.PosttestProbability {
			return a.PosttestProbability > b.PosttestProbability
		}
		if a.Log10CompositeLR != b.Log10CompositeLR {
			return a.Log10CompositeLR > b.Log10CompositeLR
		}
		return a.DiseaseID < b.DiseaseID
	})
}
