package corpus

import (
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

const sampleHpoa = `#description: "HPO annotations for rare diseases"
#date: 2024-04-19
database_id	disease_name	qualifier	hpo_id	reference	evidence	onset	frequency	sex	modifier	aspect	biocuration
OMIM:619340	Developmental and epileptic encephalopathy 96		HP:0001250	PMID:31675180	PCS	HP:0003593	2/4			P	HPO:probinson[2021-06-21]
OMIM:619340	Developmental and epileptic encephalopathy 96		HP:0001250	PMID:31675181	PCS		3/4			P	HPO:probinson[2021-06-21]
OMIM:619340	Developmental and epileptic encephalopathy 96	NOT	HP:0000478	PMID:31675180	PCS					P	HPO:probinson[2021-06-21]
OMIM:619340	Developmental and epileptic encephalopathy 96		HP:0000007	PMID:31675180	PCS					I	HPO:probinson[2021-06-21]
OMIM:619340	Developmental and epileptic encephalopathy 96		HP:0003593	PMID:31675180	PCS					C	HPO:probinson[2021-06-21]
OMIM:154700	Marfan syndrome		HP:0001166	OMIM:154700	TAS		HP:0040281			P	HPO:skoehler[2010-06-18]
OMIM:154700	Marfan syndrome		HP:0000006	OMIM:154700	TAS					I	HPO:skoehler[2010-06-18]
OMIM:154700	Marfan syndrome		HP:0003577	OMIM:154700	TAS					C	HPO:skoehler[2010-06-18]
OMIM:154700	Marfan syndrome		HP:0011463	OMIM:154700	TAS					C	HPO:skoehler[2010-06-18]
ORPHA:558	Marfan syndrome		HP:0002616	ORPHA:558	TAS		80%			P	ORPHA:orphadata[2024-04-18]
ORPHA:558	Marfan syndrome		HP:0012823	ORPHA:558	TAS					M	ORPHA:orphadata[2024-04-18]
`

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestLoader_Load(t *testing.T) {
	// Act
	c, err := NewLoader(quietLogger()).Load(strings.NewReader(sampleHpoa))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"OMIM", "ORPHA"}, c.Databases())

	ids := make([]domain.TermID, 0, c.Len())
	for _, d := range c.Diseases() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []domain.TermID{"OMIM:154700", "OMIM:619340", "ORPHA:558"}, ids)

	dee, ok := c.Disease("OMIM:619340")
	require.True(t, ok)
	assert.Equal(t, "Developmental and epileptic encephalopathy 96", dee.Name)
	require.Len(t, dee.Annotations, 1)
	assert.Equal(t, 0.75, dee.Annotations[0].Frequency, "repeated rows keep the highest frequency")
	require.NotNil(t, dee.Annotations[0].Onset)
	assert.Equal(t, domain.Interval{Start: 29, End: domain.DaysPerYear}, *dee.Annotations[0].Onset)
	assert.Equal(t, []domain.TermID{"HP:0000478"}, dee.NegatedAnnotations)
	assert.Equal(t, []domain.InheritanceMode{domain.AutosomalRecessive}, dee.ModesOfInheritance)

	marfan, ok := c.Disease("OMIM:154700")
	require.True(t, ok)
	assert.Equal(t, 0.895, marfan.Annotations[0].Frequency)
	require.NotNil(t, marfan.OnsetWindow)
	assert.Equal(t, domain.Interval{Start: 0, End: 5 * domain.DaysPerYear}, *marfan.OnsetWindow)

	orpha, _ := c.Disease("ORPHA:558")
	assert.InDelta(t, 0.8, orpha.Annotations[0].Frequency, 1e-12)
	assert.Empty(t, orpha.ModesOfInheritance)
}

func TestLoader_Load_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Too few columns", "OMIM:1\tname\t\tHP:0000001\n"},
		{"Bad disease id", "OMIM1\tname\t\tHP:0001250\tref\tPCS\t\t\t\t\tP\tcur\n"},
		{"Bad frequency", "OMIM:1\tname\t\tHP:0001250\tref\tPCS\t\t5/4\t\t\tP\tcur\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(nil).Load(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		wantErr  bool
	}{
		{"", 1.0, false},
		{"1/2", 0.5, false},
		{"0/7", 0, false},
		{"12.5%", 0.125, false},
		{"HP:0040283", 0.17, false},
		{"HP:0040285", 0, false},
		{"HP:0000001", 0, true},
		{"3/0", 0, true},
		{"120%", 0, true},
		{"often", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}
}

func TestOnsetInterval(t *testing.T) {
	neonatal, ok := OnsetInterval("HP:0003623")
	require.True(t, ok)
	infantile, _ := OnsetInterval("HP:0003593")
	adult, _ := OnsetInterval("HP:0003581")

	assert.Equal(t, neonatal.End, infantile.Start, "neonatal and infantile onset are contiguous")
	assert.True(t, math.IsInf(adult.End, 1))

	_, ok = OnsetInterval("HP:0001250")
	assert.False(t, ok)
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]*domain.DiseaseProfile{{ID: "OMIM:1"}, {ID: "OMIM:1"}})
	assert.Error(t, err)
}

func TestLoadGenesToDisease(t *testing.T) {
	input := "ncbi_gene_id\tgene_symbol\tassociation_type\tdisease_id\tsource\n" +
		"NCBIGene:2200\tFBN1\tMENDELIAN\tOMIM:154700\tftp://ftp.omim.org\n" +
		"NCBIGene:2200\tFBN1\tMENDELIAN\tORPHA:558\thttps://www.orphadata.com\n" +
		"NCBIGene:7042\tTGFB2\tMENDELIAN\tOMIM:154700\tftp://ftp.omim.org\n" +
		"NCBIGene:2200\tFBN1\tMENDELIAN\tOMIM:154700\tduplicate\n"

	// Act
	index, err := LoadGenesToDisease(strings.NewReader(input))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, index.Len())
	assert.Equal(t, []domain.GeneIdentifier{
		{ID: "NCBIGene:2200", Symbol: "FBN1"},
		{ID: "NCBIGene:7042", Symbol: "TGFB2"},
	}, index.GenesForDisease("OMIM:154700"))
	assert.Equal(t, []domain.TermID{"OMIM:154700", "ORPHA:558"}, index.DiseasesForGene("NCBIGene:2200"))
	assert.Empty(t, index.GenesForDisease("OMIM:000000"))
}

func TestPretestProviders(t *testing.T) {
	c, err := New([]*domain.DiseaseProfile{{ID: "OMIM:1"}, {ID: "OMIM:2"}, {ID: "OMIM:3"}, {ID: "OMIM:4"}})
	require.NoError(t, err)

	uniform := NewUniformPretest(c)
	p, ok := uniform.PretestProbability("OMIM:2")
	assert.True(t, ok)
	assert.Equal(t, 0.25, p)
	_, ok = uniform.PretestProbability("OMIM:9")
	assert.False(t, ok)

	overrides, err := NewMapPretest(map[domain.TermID]float64{"OMIM:1": 0.5}, uniform)
	require.NoError(t, err)
	p, _ = overrides.PretestProbability("OMIM:1")
	assert.Equal(t, 0.5, p)
	p, _ = overrides.PretestProbability("OMIM:3")
	assert.Equal(t, 0.25, p)

	_, err = NewMapPretest(map[domain.TermID]float64{"OMIM:1": 1.0}, nil)
	assert.Error(t, err)
}
