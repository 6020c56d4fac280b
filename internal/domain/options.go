package domain

import (
	"fmt"
)

// Analysis defaults.
const (
	DefaultPathogenicityThreshold     = 0.8
	DefaultVariantBackgroundFrequency = 0.1
)

// AnalysisOptions tune a single analysis run.
type AnalysisOptions struct {
	// DiseaseDatabases restricts the corpus to the given id prefixes,
	// e.g. "OMIM" or "ORPHA". Empty means every disease is evaluated.
	DiseaseDatabases []string    `json:"disease_databases,omitempty"`
	GenomeBuild      GenomeBuild `json:"genome_build"`
	// PathogenicityThreshold is the minimum pathogenicity score for a
	// variant allele to count towards the predicted pathogenic burden.
	PathogenicityThreshold float64 `json:"pathogenicity_threshold"`
	// DefaultVariantBackgroundFrequency is used for genes missing from the
	// background rate table.
	DefaultVariantBackgroundFrequency float64 `json:"default_variant_background_frequency"`
	Strict                            bool    `json:"strict"`
	// DisregardNoDeleteriousVariants drops diseases none of whose genes
	// carry a deleterious variant.
	DisregardNoDeleteriousVariants bool `json:"disregard_no_deleterious_variants"`
	// Global keeps diseases that have no implicated gene.
	Global   bool `json:"global"`
	UseOnset bool `json:"use_onset"`
	// Workers bounds the worker pool. Zero means runtime.NumCPU().
	Workers int `json:"workers,omitempty"`

	Pretest PretestProbabilityProvider `json:"-"`
}

// DefaultAnalysisOptions returns options with the standard thresholds.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		GenomeBuild:                       GenomeBuildHG38,
		PathogenicityThreshold:            DefaultPathogenicityThreshold,
		DefaultVariantBackgroundFrequency: DefaultVariantBackgroundFrequency,
	}
}

// Validate checks the options before a run starts.
func (o *AnalysisOptions) Validate() error {
	if !o.GenomeBuild.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownGenomeBuild, o.GenomeBuild)
	}
	if o.PathogenicityThreshold < 0 || o.PathogenicityThreshold > 1 {
		return NewValidationError("pathogenicity_threshold", "must be within [0, 1]", o.PathogenicityThreshold)
	}
	if o.DefaultVariantBackgroundFrequency <= 0 {
		return NewValidationError("default_variant_background_frequency", "must be positive", o.DefaultVariantBackgroundFrequency)
	}
	if o.Workers < 0 {
		return NewValidationError("workers", "must not be negative", o.Workers)
	}
	if o.Pretest == nil {
		return ErrMissingPretestProvider
	}
	return nil
}

// IncludesDisease reports whether id passes the disease database filter.
func (o *AnalysisOptions) IncludesDisease(id TermID) bool {
	if len(o.DiseaseDatabases) == 0 {
		return true
	}
	prefix := id.Prefix()
	for _, db := range o.DiseaseDatabases {
		if db == prefix {
			return true
		}
	}
	return false
}
