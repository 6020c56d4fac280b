package domain

import (
	"context"
)

// OntologyGraph is a read-only view of the phenotype ontology.
// Implementations must be safe for concurrent use.
type OntologyGraph interface {
	// Contains reports whether id is a current, non-obsolete term.
	Contains(id TermID) bool
	// PrimaryTermID resolves alternate and obsolete ids to the current id.
	PrimaryTermID(id TermID) (TermID, bool)
	Label(id TermID) string
	Parents(id TermID) []TermID
	Children(id TermID) []TermID
	// Ancestors returns every term reachable by is_a edges from id.
	Ancestors(id TermID, includeSelf bool) TermSet
	Descendants(id TermID, includeSelf bool) TermSet
	// IsAncestorOf reports whether ancestor is a strict ancestor of id.
	IsAncestorOf(ancestor, id TermID) bool
	Roots() []TermID
}

// DiseaseCorpus enumerates the disease profiles of the annotation corpus.
type DiseaseCorpus interface {
	// Diseases returns every profile ordered by disease id.
	Diseases() []*DiseaseProfile
	Disease(id TermID) (*DiseaseProfile, bool)
	Len() int
}

// GeneDiseaseIndex maps genes to the diseases they are implicated in.
type GeneDiseaseIndex interface {
	DiseasesForGene(gene TermID) []TermID
	// GenesForDisease returns the implicated genes in a stable order.
	GenesForDisease(disease TermID) []GeneIdentifier
}

// BackgroundVariantRates is the per-gene population rate of predicted
// pathogenic alleles for one genome build.
type BackgroundVariantRates interface {
	Rate(gene TermID) (float64, bool)
	GenomeBuild() GenomeBuild
}

// BackgroundVariantRateProvider resolves background rates for a genome build.
// It returns ErrBackgroundRatesUnavailable when the build is not covered.
type BackgroundVariantRateProvider interface {
	RatesFor(ctx context.Context, build GenomeBuild) (BackgroundVariantRates, error)
}

// PretestProbabilityProvider supplies the prior probability of each disease.
type PretestProbabilityProvider interface {
	PretestProbability(disease TermID) (float64, bool)
}

// VariantBurdenProvider exposes the patient's per-gene variant burden.
type VariantBurdenProvider interface {
	Burden(gene TermID) (GeneVariantBurden, bool)
	Genes() []TermID
}

// ConfigManager handles application configuration
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetAnalysisConfig() *AnalysisConfig
	Reload() error
	Validate() error
}
