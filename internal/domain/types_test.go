package domain

import (
	"errors"
	"math"
	"testing"
)

func TestParseTermID(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantErr    bool
	}{
		{"HPO term", "HP:0001250", "HP", false},
		{"OMIM disease", "OMIM:154700", "OMIM", false},
		{"Surrounding whitespace", "  ORPHA:558 ", "ORPHA", false},
		{"Missing prefix", ":0001250", "", true},
		{"Missing local id", "HP:", "", true},
		{"No separator", "HP0001250", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseTermID(tt.input)
			if tt.wantErr {
				var ve *ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("Expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if id.Prefix() != tt.wantPrefix {
				t.Errorf("Expected prefix %s, got %s", tt.wantPrefix, id.Prefix())
			}
		})
	}
}

func TestTermSetSorted(t *testing.T) {
	set := NewTermSet("HP:0000003", "HP:0000001", "HP:0000002")
	set.Add("HP:0000001")

	got := set.Sorted()
	want := []TermID{"HP:0000001", "HP:0000002", "HP:0000003"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d terms, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	if !set.Contains("HP:0000002") {
		t.Error("Expected set to contain HP:0000002")
	}
}

func TestInheritanceMode(t *testing.T) {
	tests := []struct {
		mode      InheritanceMode
		recessive bool
		expected  float64
	}{
		{AutosomalDominant, false, 1},
		{AutosomalRecessive, true, 2},
		{XLinkedRecessive, true, 2},
		{XLinkedDominant, false, 1},
		{Mitochondrial, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if !tt.mode.IsValid() {
				t.Errorf("Expected %s to be valid", tt.mode)
			}
			if tt.mode.IsRecessiveLike() != tt.recessive {
				t.Errorf("Expected IsRecessiveLike=%v", tt.recessive)
			}
			if tt.mode.ExpectedPathogenicAlleles() != tt.expected {
				t.Errorf("Expected %v alleles, got %v", tt.expected, tt.mode.ExpectedPathogenicAlleles())
			}
		})
	}

	if InheritanceMode("HP:9999999").IsValid() {
		t.Error("Expected unknown mode to be invalid")
	}
}

func TestParseGenomeBuild(t *testing.T) {
	for input, want := range map[string]GenomeBuild{
		"hg19":   GenomeBuildHG19,
		"GRCh37": GenomeBuildHG19,
		"HG38":   GenomeBuildHG38,
		"grch38": GenomeBuildHG38,
	} {
		got, err := ParseGenomeBuild(input)
		if err != nil {
			t.Errorf("ParseGenomeBuild(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Errorf("ParseGenomeBuild(%q) = %s, want %s", input, got, want)
		}
	}

	if _, err := ParseGenomeBuild("hg18"); !errors.Is(err, ErrUnknownGenomeBuild) {
		t.Errorf("Expected ErrUnknownGenomeBuild, got %v", err)
	}
}

func TestParseSex(t *testing.T) {
	for input, want := range map[string]Sex{"": SexUnknown, "m": SexMale, "Female": SexFemale} {
		got, err := ParseSex(input)
		if err != nil || got != want {
			t.Errorf("ParseSex(%q) = %s, %v; want %s", input, got, err, want)
		}
	}
	if _, err := ParseSex("robot"); err == nil {
		t.Error("Expected error for unknown sex")
	}
}

func TestDiseaseProfileOnset(t *testing.T) {
	infantile := Interval{Start: 29, End: 365}
	childhood := Interval{Start: 365, End: 5 * 365}

	t.Run("Disease-level window wins", func(t *testing.T) {
		window := Interval{Start: 0, End: 28}
		d := &DiseaseProfile{
			ID:          "OMIM:1",
			OnsetWindow: &window,
			Annotations: []PhenotypeAnnotation{{TermID: "HP:0000001", Onset: &infantile}},
		}
		got, ok := d.Onset()
		if !ok || got != window {
			t.Errorf("Expected %v, got %v (%v)", window, got, ok)
		}
	})

	t.Run("Hull of annotation onsets", func(t *testing.T) {
		d := &DiseaseProfile{
			ID: "OMIM:2",
			Annotations: []PhenotypeAnnotation{
				{TermID: "HP:0000002", Onset: &childhood},
				{TermID: "HP:0000003"},
				{TermID: "HP:0000004", Onset: &infantile},
			},
		}
		got, ok := d.Onset()
		want := Interval{Start: 29, End: 5 * 365}
		if !ok || got != want {
			t.Errorf("Expected %v, got %v (%v)", want, got, ok)
		}
	})

	t.Run("Unknown onset", func(t *testing.T) {
		d := &DiseaseProfile{ID: "OMIM:3", Annotations: []PhenotypeAnnotation{{TermID: "HP:0000002"}}}
		if _, ok := d.Onset(); ok {
			t.Error("Expected no onset")
		}
	})
}

func TestGeneVariantBurden(t *testing.T) {
	empty := GeneVariantBurden{}
	if empty.HasVariants() || empty.HasDeleteriousVariant() {
		t.Error("Expected empty burden to have no variants")
	}

	benign := GeneVariantBurden{VariantCount: 2}
	if !benign.HasVariants() || benign.HasDeleteriousVariant() {
		t.Error("Expected variants without deleterious alleles")
	}

	clinvar := GeneVariantBurden{VariantCount: 1, ClinVarPathogenicAlleles: 1}
	if !clinvar.HasDeleteriousVariant() {
		t.Error("Expected ClinVar allele to count as deleterious")
	}
}

func TestPatientEvidenceValidate(t *testing.T) {
	if err := (&PatientEvidence{SampleID: "s1", Observed: []TermID{"HP:0001250"}}).Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := (&PatientEvidence{Observed: []TermID{"HP:0001250"}}).Validate(); err == nil {
		t.Error("Expected error for missing sample id")
	}
	if err := (&PatientEvidence{SampleID: "s1"}).Validate(); err == nil {
		t.Error("Expected error for empty phenotype")
	}
}

func TestAnalysisOptionsValidate(t *testing.T) {
	valid := DefaultAnalysisOptions()
	valid.Pretest = uniformPretest(0.5)
	if err := valid.Validate(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	noPretest := DefaultAnalysisOptions()
	if err := noPretest.Validate(); !errors.Is(err, ErrMissingPretestProvider) {
		t.Errorf("Expected ErrMissingPretestProvider, got %v", err)
	}

	badBuild := valid
	badBuild.GenomeBuild = "hg18"
	if err := badBuild.Validate(); !errors.Is(err, ErrUnknownGenomeBuild) {
		t.Errorf("Expected ErrUnknownGenomeBuild, got %v", err)
	}

	badThreshold := valid
	badThreshold.PathogenicityThreshold = 1.5
	if err := badThreshold.Validate(); err == nil {
		t.Error("Expected error for threshold above 1")
	}
}

func TestAnalysisOptionsIncludesDisease(t *testing.T) {
	opts := AnalysisOptions{}
	if !opts.IncludesDisease("ORPHA:1") {
		t.Error("Expected empty filter to include every disease")
	}
	opts.DiseaseDatabases = []string{"OMIM"}
	if !opts.IncludesDisease("OMIM:154700") || opts.IncludesDisease("ORPHA:558") {
		t.Error("Expected prefix filter to keep OMIM only")
	}
}

func TestParseAge(t *testing.T) {
	tests := []struct {
		input   string
		days    float64
		wantErr bool
	}{
		{"P10D", 10, false},
		{"P1Y", DaysPerYear, false},
		{"P2W", 14, false},
		{"P1Y6M", DaysPerYear * 1.5, false},
		{"P", 0, true},
		{"10D", 0, true},
		{"P1.5Y", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			age, err := ParseAge(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if math.Abs(age.InDays()-tt.days) > 1e-9 {
				t.Errorf("Expected %v days, got %v", tt.days, age.InDays())
			}
		})
	}
}

func TestParseAge_OutOfRange(t *testing.T) {
	for _, input := range []string{"P99999999999999999999Y", "P99999999999999999999D", "P9223372036854775807W"} {
		t.Run(input, func(t *testing.T) {
			age, err := ParseAge(input)

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v (age %v)", err, age)
			}
			if ve.Field != "age" || ve.Value != input {
				t.Errorf("Expected age validation error for %q, got %+v", input, ve)
			}
		})
	}
}

func TestAgeIntervalAndString(t *testing.T) {
	age := Age{Days: 10}
	if got := age.Interval(); got.Start != 10 || got.End != 11 {
		t.Errorf("Expected [10, 11), got %v", got)
	}
	if s := (Age{Years: 1, Months: 2}).String(); s != "P1Y2M" {
		t.Errorf("Expected P1Y2M, got %s", s)
	}
	if s := (Age{}).String(); s != "P0D" {
		t.Errorf("Expected P0D, got %s", s)
	}
}

func TestNewInterval(t *testing.T) {
	if _, err := NewInterval(10, 5); err == nil {
		t.Error("Expected error for reversed interval")
	}
	open, err := NewInterval(16*DaysPerYear, math.Inf(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !open.IsOpenEnded() {
		t.Error("Expected open-ended interval")
	}
}

type uniformPretest float64

func (u uniformPretest) PretestProbability(TermID) (float64, bool) {
	return float64(u), true
}
