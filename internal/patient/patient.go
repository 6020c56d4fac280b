// Package patient reads the evidence of one patient from a YAML or JSON
// document.
package patient

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/variants"
)

// File is the on-disk layout of a patient:
//
//	sample_id: proband
//	age: P2Y3M
//	sex: FEMALE
//	observed: [HP:0001250, HP:0001249]
//	excluded: [HP:0000518]
//	variants:
//	  - gene: {id: "NCBIGene:6323", symbol: SCN1A}
//	    id: chr2:166848646:G:A
//	    alt_alleles: 1
//	    pathogenicity: 0.97
//	    frequency: 0.0
//	    clinvar: PATHOGENIC
//
// Omitting variants means no genotype data is available; an empty list means
// the patient was sequenced and nothing was found.
type File struct {
	SampleID string             `yaml:"sample_id" json:"sample_id"`
	Age      string             `yaml:"age,omitempty" json:"age,omitempty"`
	Sex      string             `yaml:"sex,omitempty" json:"sex,omitempty"`
	Observed []string           `yaml:"observed" json:"observed"`
	Excluded []string           `yaml:"excluded,omitempty" json:"excluded,omitempty"`
	Variants []variants.Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// LoadFile reads and parses a patient file.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open patient file: %w", err)
	}
	defer f.Close()

	file, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Parse decodes a patient document. Unknown keys are rejected. JSON input is
// accepted as well since it is valid YAML.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidationError("patient", "empty patient document", nil)
		}
		return nil, fmt.Errorf("failed to decode patient: %w", err)
	}
	return &file, nil
}

// Evidence validates the file and converts it into PatientEvidence. Variants
// at or above threshold count towards the predicted pathogenic burden.
func (f *File) Evidence(threshold float64) (*domain.PatientEvidence, error) {
	evidence := &domain.PatientEvidence{SampleID: strings.TrimSpace(f.SampleID)}

	if f.Age != "" {
		age, err := domain.ParseAge(strings.TrimSpace(f.Age))
		if err != nil {
			return nil, err
		}
		evidence.Age = age
	}

	sex, err := domain.ParseSex(f.Sex)
	if err != nil {
		return nil, err
	}
	evidence.Sex = sex

	if evidence.Observed, err = parseTerms("observed", f.Observed); err != nil {
		return nil, err
	}
	if evidence.Excluded, err = parseTerms("excluded", f.Excluded); err != nil {
		return nil, err
	}

	if f.Variants != nil {
		table, err := variants.NewTable(f.Variants, threshold)
		if err != nil {
			return nil, err
		}
		evidence.Variants = table
	}

	if err := evidence.Validate(); err != nil {
		return nil, err
	}
	return evidence, nil
}

func parseTerms(field string, values []string) ([]domain.TermID, error) {
	out := make([]domain.TermID, 0, len(values))
	for _, v := range values {
		id, err := domain.ParseTermID(strings.TrimSpace(v))
		if err != nil {
			return nil, domain.NewValidationError(field, err.Error(), v)
		}
		out = append(out, id)
	}
	return out, nil
}
