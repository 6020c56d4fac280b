// Package testkit builds a small, fully known ontology and disease corpus for
// tests across packages. Every value here is hand-checked; tests may assert
// exact likelihood ratios computed from it.
package testkit

import (
	"io"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/background"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/corpus"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/ontology"
)

// Ontology terms.
const (
	All                   domain.TermID = "HP:0000001"
	PhenotypicAbnormality domain.TermID = "HP:0000118"
	NervousSystem         domain.TermID = "HP:0000707"
	NervousPhysiology     domain.TermID = "HP:0012638"
	Seizure               domain.TermID = "HP:0001250"
	FebrileSeizure        domain.TermID = "HP:0002373"
	FocalSeizure          domain.TermID = "HP:0007359"
	IntellectualDisab     domain.TermID = "HP:0001249"
	Eye                   domain.TermID = "HP:0000478"
	Cataract              domain.TermID = "HP:0000518"
	VisualImpairment      domain.TermID = "HP:0000505"
	Cardiovascular        domain.TermID = "HP:0001626"
	HeartMorphology       domain.TermID = "HP:0001627"
	AtrialSeptalDefect    domain.TermID = "HP:0001631"
	// ObsoleteSeizure was merged into Seizure.
	ObsoleteSeizure domain.TermID = "HP:0002279"
)

// Diseases of the corpus.
const (
	SeizureDisorder  domain.TermID = "OMIM:100001"
	EyeDisorder      domain.TermID = "OMIM:100002"
	HeartDisorder    domain.TermID = "OMIM:100003"
	CombinedSyndrome domain.TermID = "ORPHA:100004"
)

// Genes of the corpus.
var (
	SCN1X = domain.GeneIdentifier{ID: "NCBIGene:1001", Symbol: "SCN1X"}
	CRYX  = domain.GeneIdentifier{ID: "NCBIGene:1002", Symbol: "CRYX"}
	HRTX  = domain.GeneIdentifier{ID: "NCBIGene:1003", Symbol: "HRTX"}
)

var infantile = domain.Interval{Start: 29, End: domain.DaysPerYear}

var adult = domain.Interval{Start: 16 * domain.DaysPerYear, End: math.Inf(1)}

// Ontology returns the fixture graph:
//
//	All
//	  Phenotypic abnormality
//	    Nervous system > Nervous physiology > Seizure > {Febrile, Focal}
//	                                        > Intellectual disability
//	    Eye > {Cataract, Visual impairment}
//	    Cardiovascular > Heart morphology > Atrial septal defect
func Ontology() *ontology.Ontology {
	b := ontology.NewBuilder()
	terms := []ontology.Term{
		{ID: All, Label: "All"},
		{ID: PhenotypicAbnormality, Label: "Phenotypic abnormality"},
		{ID: NervousSystem, Label: "Abnormality of the nervous system"},
		{ID: NervousPhysiology, Label: "Abnormal nervous system physiology"},
		{ID: Seizure, Label: "Seizure", AltIDs: []domain.TermID{ObsoleteSeizure}},
		{ID: FebrileSeizure, Label: "Febrile seizure"},
		{ID: FocalSeizure, Label: "Focal-onset seizure"},
		{ID: IntellectualDisab, Label: "Intellectual disability"},
		{ID: Eye, Label: "Abnormality of the eye"},
		{ID: Cataract, Label: "Cataract"},
		{ID: VisualImpairment, Label: "Visual impairment"},
		{ID: Cardiovascular, Label: "Abnormality of the cardiovascular system"},
		{ID: HeartMorphology, Label: "Abnormal heart morphology"},
		{ID: AtrialSeptalDefect, Label: "Atrial septal defect"},
	}
	for _, t := range terms {
		b.AddTerm(t)
	}
	edges := [][2]domain.TermID{
		{PhenotypicAbnormality, All},
		{NervousSystem, PhenotypicAbnormality},
		{NervousPhysiology, NervousSystem},
		{Seizure, NervousPhysiology},
		{FebrileSeizure, Seizure},
		{FocalSeizure, Seizure},
		{IntellectualDisab, NervousPhysiology},
		{Eye, PhenotypicAbnormality},
		{Cataract, Eye},
		{VisualImpairment, Eye},
		{Cardiovascular, PhenotypicAbnormality},
		{HeartMorphology, Cardiovascular},
		{AtrialSeptalDefect, HeartMorphology},
	}
	for _, e := range edges {
		b.AddIsA(e[0], e[1])
	}
	o, err := b.Build(0)
	if err != nil {
		panic(err)
	}
	return o
}

// Diseases returns fresh copies of the four fixture diseases.
//
// Background frequencies over this corpus: Seizure 0.75, Febrile seizure 0.5,
// Intellectual disability 0.25, Cataract 0.5, Visual impairment 0.25, Atrial
// septal defect 0.25, Phenotypic abnormality 1.
func Diseases() []*domain.DiseaseProfile {
	inf, ad := infantile, adult
	return []*domain.DiseaseProfile{
		{
			ID:   SeizureDisorder,
			Name: "Seizure disorder A",
			Annotations: []domain.PhenotypeAnnotation{
				{TermID: Seizure, Frequency: 0.9},
				{TermID: IntellectualDisab, Frequency: 0.5},
			},
			ModesOfInheritance: []domain.InheritanceMode{domain.AutosomalDominant},
			OnsetWindow:        &inf,
		},
		{
			ID:   EyeDisorder,
			Name: "Eye disorder B",
			Annotations: []domain.PhenotypeAnnotation{
				{TermID: Cataract, Frequency: 1.0},
				{TermID: VisualImpairment, Frequency: 0.6},
			},
			NegatedAnnotations: []domain.TermID{Seizure},
			ModesOfInheritance: []domain.InheritanceMode{domain.AutosomalRecessive},
		},
		{
			ID:   HeartDisorder,
			Name: "Heart disorder C",
			Annotations: []domain.PhenotypeAnnotation{
				{TermID: AtrialSeptalDefect, Frequency: 0.8},
				{TermID: FebrileSeizure, Frequency: 0.2},
			},
			ModesOfInheritance: []domain.InheritanceMode{domain.AutosomalDominant},
			OnsetWindow:        &ad,
		},
		{
			ID:   CombinedSyndrome,
			Name: "Combined syndrome D",
			Annotations: []domain.PhenotypeAnnotation{
				{TermID: FebrileSeizure, Frequency: 0.4},
				{TermID: Cataract, Frequency: 0.3},
			},
		},
	}
}

// Corpus returns the fixture corpus.
func Corpus() *corpus.Corpus {
	c, err := corpus.New(Diseases())
	if err != nil {
		panic(err)
	}
	return c
}

// Genes links SCN1X, CRYX and HRTX to diseases A, B and C. Disease D has no
// known gene.
func Genes() *corpus.GeneIndex {
	x := corpus.NewGeneIndex()
	x.Add(SCN1X, SeizureDisorder)
	x.Add(CRYX, EyeDisorder)
	x.Add(HRTX, HeartDisorder)
	return x
}

// Rates serves an hg38 table only, so hg19 runs fail for lack of rates.
func Rates() background.StaticProvider {
	return background.StaticProvider{
		domain.GenomeBuildHG38: background.NewRates(domain.GenomeBuildHG38, map[domain.TermID]float64{
			SCN1X.ID: 0.01,
			CRYX.ID:  0.1,
			HRTX.ID:  2.5,
		}),
	}
}

// Burdens is a VariantBurdenProvider backed by a map.
type Burdens map[domain.TermID]domain.GeneVariantBurden

// Burden implements domain.VariantBurdenProvider.
func (b Burdens) Burden(gene domain.TermID) (domain.GeneVariantBurden, bool) {
	v, ok := b[gene]
	return v, ok
}

// Genes implements domain.VariantBurdenProvider.
func (b Burdens) Genes() []domain.TermID {
	ids := make(domain.TermSet, len(b))
	for id := range b {
		ids.Add(id)
	}
	return ids.Sorted()
}

// QuietLogger discards everything.
func QuietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
