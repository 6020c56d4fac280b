// Package domain contains the core entities of the phenotype-driven
// differential diagnosis engine: ontology term identifiers, disease profiles,
// patient evidence, variant burden and the likelihood-ratio match records
// produced while ranking candidate diseases.
//
// Reference: Robinson et al. (2020) Interpretable Clinical Genomics with a
// Likelihood Ratio Paradigm. Am J Hum Genet. 107(3):403-417.
// doi: 10.1016/j.ajhg.2020.06.021
package domain

import (
	"fmt"
	"sort"
	"strings"
)

// TermID identifies an ontology term or a disease, e.g. "HP:0001250" or
// "OMIM:154700". The part before the colon is the prefix.
type TermID string

// ParseTermID validates the PREFIX:LOCAL form and returns the identifier.
func ParseTermID(s string) (TermID, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return "", NewValidationError("term_id", "expected PREFIX:ID", s)
	}
	return TermID(s), nil
}

// MustParseTermID is like ParseTermID but panics on malformed input.
// Intended for constants and tests.
func MustParseTermID(s string) TermID {
	id, err := ParseTermID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Prefix returns the namespace of the identifier, e.g. "HP" or "OMIM".
func (t TermID) Prefix() string {
	if i := strings.IndexByte(string(t), ':'); i > 0 {
		return string(t)[:i]
	}
	return ""
}

// String implements fmt.Stringer.
func (t TermID) String() string {
	return string(t)
}

// Well-known HPO terms.
const (
	RootTerm               TermID = "HP:0000001"
	PhenotypicAbnormality  TermID = "HP:0000118"
	ModeOfInheritanceRoot  TermID = "HP:0000005"
	ClinicalModifierRoot   TermID = "HP:0012823"
	OnsetRoot              TermID = "HP:0003674"
	FrequencyRoot          TermID = "HP:0040279"
	PastMedicalHistoryRoot TermID = "HP:0032443"
	BloodGroupRoot         TermID = "HP:0032223"
	ClinicalCourseRoot     TermID = "HP:0031797"
)

// TermSet is an unordered set of term identifiers.
type TermSet map[TermID]struct{}

// NewTermSet builds a set from the given identifiers.
func NewTermSet(ids ...TermID) TermSet {
	s := make(TermSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s TermSet) Add(id TermID) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the set.
func (s TermSet) Contains(id TermID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in lexical order.
func (s TermSet) Sorted() []TermID {
	out := make([]TermID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GeneIdentifier pairs a gene accession (e.g. "NCBIGene:2200") with its symbol.
type GeneIdentifier struct {
	ID     TermID `json:"id" yaml:"id"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// String renders the symbol when known, falling back to the accession.
func (g GeneIdentifier) String() string {
	if g.Symbol != "" {
		return g.Symbol
	}
	return string(g.ID)
}

// InheritanceMode is an HPO mode-of-inheritance term.
type InheritanceMode TermID

const (
	AutosomalDominant  InheritanceMode = "HP:0000006"
	AutosomalRecessive InheritanceMode = "HP:0000007"
	XLinkedInheritance InheritanceMode = "HP:0001417"
	XLinkedDominant    InheritanceMode = "HP:0001423"
	XLinkedRecessive   InheritanceMode = "HP:0001419"
	YLinked            InheritanceMode = "HP:0001450"
	Mitochondrial      InheritanceMode = "HP:0001427"
	SemidominantMode   InheritanceMode = "HP:0032113"
)

var inheritanceLabels = map[InheritanceMode]string{
	AutosomalDominant:  "autosomal dominant",
	AutosomalRecessive: "autosomal recessive",
	XLinkedInheritance: "X-linked",
	XLinkedDominant:    "X-linked dominant",
	XLinkedRecessive:   "X-linked recessive",
	YLinked:            "Y-linked",
	Mitochondrial:      "mitochondrial",
	SemidominantMode:   "semidominant",
}

// IsValid reports whether the mode is one of the known inheritance terms.
func (m InheritanceMode) IsValid() bool {
	_, ok := inheritanceLabels[m]
	return ok
}

// IsRecessiveLike reports whether two deleterious alleles are required.
func (m InheritanceMode) IsRecessiveLike() bool {
	return m == AutosomalRecessive || m == XLinkedRecessive
}

// ExpectedPathogenicAlleles is the expected count of pathogenic alleles in an
// affected individual: 2 for recessive-like modes, 1 otherwise.
func (m InheritanceMode) ExpectedPathogenicAlleles() float64 {
	if m.IsRecessiveLike() {
		return 2.0
	}
	return 1.0
}

// String returns a human-readable label.
func (m InheritanceMode) String() string {
	if l, ok := inheritanceLabels[m]; ok {
		return l
	}
	return string(m)
}

// Sex of the patient.
type Sex string

const (
	SexUnknown Sex = "UNKNOWN"
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
)

// ParseSex parses a case-insensitive sex value. Empty input maps to SexUnknown.
func ParseSex(s string) (Sex, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "UNKNOWN", "UNKNOWN_SEX", "OTHER_SEX":
		return SexUnknown, nil
	case "MALE", "M":
		return SexMale, nil
	case "FEMALE", "F":
		return SexFemale, nil
	}
	return SexUnknown, NewValidationError("sex", "expected MALE, FEMALE or UNKNOWN", s)
}

// GenomeBuild is the reference assembly the variants were called against.
type GenomeBuild string

const (
	GenomeBuildHG19 GenomeBuild = "hg19"
	GenomeBuildHG38 GenomeBuild = "hg38"
)

// ParseGenomeBuild accepts the UCSC and GRC names of the supported builds.
func ParseGenomeBuild(s string) (GenomeBuild, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hg19", "grch37":
		return GenomeBuildHG19, nil
	case "hg38", "grch38":
		return GenomeBuildHG38, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGenomeBuild, s)
}

// IsValid reports whether the build is supported.
func (g GenomeBuild) IsValid() bool {
	return g == GenomeBuildHG19 || g == GenomeBuildHG38
}

// PhenotypeAnnotation links a disease to a phenotype term.
type PhenotypeAnnotation struct {
	TermID    TermID  `json:"term_id"`
	Frequency float64 `json:"frequency"`
	// Onset is the age window in which the feature appears, when documented.
	Onset *Interval `json:"onset,omitempty"`
}

// DiseaseProfile is an immutable disease record from the annotation corpus.
type DiseaseProfile struct {
	ID                 TermID                `json:"id"`
	Name               string                `json:"name"`
	Annotations        []PhenotypeAnnotation `json:"annotations"`
	NegatedAnnotations []TermID              `json:"negated_annotations,omitempty"`
	ModesOfInheritance []InheritanceMode     `json:"modes_of_inheritance,omitempty"`
	OnsetWindow        *Interval             `json:"onset_window,omitempty"`
}

// Annotation returns the annotation for id if the disease is directly annotated to it.
func (d *DiseaseProfile) Annotation(id TermID) (PhenotypeAnnotation, bool) {
	for _, a := range d.Annotations {
		if a.TermID == id {
			return a, true
		}
	}
	return PhenotypeAnnotation{}, false
}

// IsDirectlyAnnotatedTo reports whether id is one of the disease's annotations.
func (d *DiseaseProfile) IsDirectlyAnnotatedTo(id TermID) bool {
	_, ok := d.Annotation(id)
	return ok
}

// IsNegated reports whether the disease explicitly excludes id.
func (d *DiseaseProfile) IsNegated(id TermID) bool {
	for _, n := range d.NegatedAnnotations {
		if n == id {
			return true
		}
	}
	return false
}

// Onset returns the documented onset of the disease. A disease-level onset
// window wins; otherwise the hull of the per-annotation onsets is used.
func (d *DiseaseProfile) Onset() (Interval, bool) {
	if d.OnsetWindow != nil {
		return *d.OnsetWindow, true
	}
	var hull Interval
	found := false
	for _, a := range d.Annotations {
		if a.Onset == nil {
			continue
		}
		if !found {
			hull = *a.Onset
			found = true
			continue
		}
		hull = hull.Hull(*a.Onset)
	}
	return hull, found
}

// GeneVariantBurden is the per-gene summary of a patient's variants.
type GeneVariantBurden struct {
	Gene GeneIdentifier `json:"gene"`
	// VariantCount is the number of variants observed in the gene.
	VariantCount int `json:"variant_count"`
	// ClinVarPathogenicAlleles counts alleles of variants classified
	// pathogenic or likely pathogenic in ClinVar.
	ClinVarPathogenicAlleles int `json:"clinvar_pathogenic_alleles"`
	// PathogenicAlleles counts alleles of variants whose pathogenicity score
	// reaches the deleteriousness threshold.
	PathogenicAlleles int `json:"pathogenic_alleles"`
	// WeightedPathogenicBurden is Σ dosage × pathogenicity over variants at or
	// above the threshold.
	WeightedPathogenicBurden float64 `json:"weighted_pathogenic_burden"`
}

// HasVariants reports whether any variant was observed in the gene.
func (b GeneVariantBurden) HasVariants() bool {
	return b.VariantCount > 0
}

// HasDeleteriousVariant reports whether the gene carries a ClinVar P/LP
// allele or a predicted pathogenic allele.
func (b GeneVariantBurden) HasDeleteriousVariant() bool {
	return b.ClinVarPathogenicAlleles > 0 || b.PathogenicAlleles > 0
}

// PatientEvidence is the immutable input of a single analysis.
type PatientEvidence struct {
	SampleID string   `json:"sample_id"`
	Age      *Age     `json:"age,omitempty"`
	Sex      Sex      `json:"sex"`
	Observed []TermID `json:"observed"`
	Excluded []TermID `json:"excluded"`
	// Variants is nil when no genotype data is available for the patient.
	Variants VariantBurdenProvider `json:"-"`
}

// HasGenotypes reports whether genotype data accompanies the phenotype.
func (p *PatientEvidence) HasGenotypes() bool {
	return p.Variants != nil
}

// Validate checks the evidence before it is scored.
func (p *PatientEvidence) Validate() error {
	if strings.TrimSpace(p.SampleID) == "" {
		return NewValidationError("sample_id", "sample id is required", p.SampleID)
	}
	if len(p.Observed) == 0 && len(p.Excluded) == 0 {
		return NewValidationError("observed", "at least one observed or excluded term is required", nil)
	}
	return nil
}
