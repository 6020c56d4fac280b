package service

import (
	"time"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/patient"
)

// AnalysisRequest is the payload of an analysis submitted over HTTP or MCP.
type AnalysisRequest struct {
	Patient patient.File     `json:"patient"`
	Options *OptionOverrides `json:"options,omitempty"`
	// PretestProbabilities replaces the uniform prior of the named diseases.
	PretestProbabilities map[string]float64 `json:"pretest_probabilities,omitempty"`
}

// OptionOverrides holds the analysis options a caller may change. Nil fields
// keep the configured default.
type OptionOverrides struct {
	GenomeBuild                       *string  `json:"genome_build,omitempty"`
	DiseaseDatabases                  []string `json:"disease_databases,omitempty"`
	PathogenicityThreshold            *float64 `json:"pathogenicity_threshold,omitempty"`
	DefaultVariantBackgroundFrequency *float64 `json:"default_variant_background_frequency,omitempty"`
	Strict                            *bool    `json:"strict,omitempty"`
	Global                            *bool    `json:"global,omitempty"`
	DisregardNoDeleteriousVariants    *bool    `json:"disregard_no_deleterious_variants,omitempty"`
	UseOnset                          *bool    `json:"use_onset,omitempty"`
}

// apply returns defaults with the overrides set. A nil receiver changes
// nothing.
func (o *OptionOverrides) apply(defaults domain.AnalysisOptions) (domain.AnalysisOptions, error) {
	opts := defaults
	opts.DiseaseDatabases = append([]string(nil), defaults.DiseaseDatabases...)
	if o == nil {
		return opts, nil
	}

	if o.GenomeBuild != nil {
		build, err := domain.ParseGenomeBuild(*o.GenomeBuild)
		if err != nil {
			return opts, domain.NewValidationError("genome_build", err.Error(), *o.GenomeBuild)
		}
		opts.GenomeBuild = build
	}
	if o.DiseaseDatabases != nil {
		opts.DiseaseDatabases = append([]string(nil), o.DiseaseDatabases...)
	}
	if o.PathogenicityThreshold != nil {
		opts.PathogenicityThreshold = *o.PathogenicityThreshold
	}
	if o.DefaultVariantBackgroundFrequency != nil {
		opts.DefaultVariantBackgroundFrequency = *o.DefaultVariantBackgroundFrequency
	}
	if o.Strict != nil {
		opts.Strict = *o.Strict
	}
	if o.Global != nil {
		opts.Global = *o.Global
	}
	if o.DisregardNoDeleteriousVariants != nil {
		opts.DisregardNoDeleteriousVariants = *o.DisregardNoDeleteriousVariants
	}
	if o.UseOnset != nil {
		opts.UseOnset = *o.UseOnset
	}
	return opts, nil
}

// AnalysisResponse carries a completed or archived run.
type AnalysisResponse struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	// Cached is set when the run was answered from the results cache.
	Cached  bool              `json:"cached,omitempty"`
	Results *analysis.Results `json:"results,omitempty"`
	// Error is set for archived runs that failed.
	Error string `json:"error,omitempty"`
}
