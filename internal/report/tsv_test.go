package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

func sampleResults() *analysis.Results {
	onset := 0.5
	gene := domain.NewGeneLrMatch(domain.GeneIdentifier{ID: "NCBIGene:1001", Symbol: "SCN1X"}, domain.PoissonModel, math.Log(1000), "")
	return &analysis.Results{
		Results: []analysis.TestResult{
			{
				DiseaseID:           "OMIM:100001",
				DiseaseName:         "Seizure disorder",
				PretestProbability:  0.25,
				PosttestProbability: 0.8,
				Log10CompositeLR:    1.2,
				ObservedResults: []domain.TermLrMatch{
					{Query: "HP:0001250", LR: 4},
					{Query: "HP:0001249", LR: 1.5},
				},
				ExcludedResults: []domain.TermLrMatch{{Query: "HP:0000518", LR: 0.8}},
				Genotype:        &gene,
				OnsetLR:         &onset,
			},
			{
				DiseaseID:           "ORPHA:100004",
				DiseaseName:         "Combined syndrome",
				PretestProbability:  0.25,
				PosttestProbability: 0.1,
				Log10CompositeLR:    -0.5,
			},
		},
		Summary: analysis.Summary{
			SampleID:         "proband",
			GenomeBuild:      domain.GenomeBuildHG38,
			DiseasesInCorpus: 4,
			Evaluated:        2,
		},
	}
}

func TestWriteTSV(t *testing.T) {
	var buf bytes.Buffer

	// Act
	err := WriteTSV(&buf, sampleResults(), 0)

	// Assert
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "# sample_id: proband", lines[0])
	assert.Equal(t, "# genome_build: hg38", lines[1])
	assert.Equal(t, "# evaluated: 2 of 4 diseases", lines[2])
	assert.Equal(t, strings.Join(Header, "\t"), lines[3])
	assert.Equal(t,
		"1\tSeizure disorder\tOMIM:100001\t0.25\t0.8\t1.2\tSCN1X\t1000\t0.5\tHP:0001250=4;HP:0001249=1.5\tHP:0000518=0.8",
		lines[4])
	assert.Equal(t, "2\tCombined syndrome\tORPHA:100004\t0.25\t0.1\t-0.5\t\t\t\t\t", lines[5])
}

func TestWriteTSV_Top(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteTSV(&buf, sampleResults(), 1))

	assert.Contains(t, buf.String(), "OMIM:100001")
	assert.NotContains(t, buf.String(), "ORPHA:100004")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteJSON(&buf, sampleResults()))

	var decoded analysis.Results
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleResults().Ranked(), decoded.Ranked())
}
