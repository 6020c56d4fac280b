// Package variants summarises a patient's annotated variants into the
// per-gene burden consumed by the genotype model.
package variants

import (
	"fmt"
	"math"
	"strings"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// ClinVarSignificance is the ClinVar clinical significance of a variant.
type ClinVarSignificance string

const (
	ClinVarPathogenic           ClinVarSignificance = "PATHOGENIC"
	ClinVarLikelyPathogenic     ClinVarSignificance = "LIKELY_PATHOGENIC"
	ClinVarPathogenicOrLikely   ClinVarSignificance = "PATHOGENIC_OR_LIKELY_PATHOGENIC"
	ClinVarUncertain            ClinVarSignificance = "UNCERTAIN_SIGNIFICANCE"
	ClinVarConflicting          ClinVarSignificance = "CONFLICTING_PATHOGENICITY_INTERPRETATIONS"
	ClinVarLikelyBenign         ClinVarSignificance = "LIKELY_BENIGN"
	ClinVarBenign               ClinVarSignificance = "BENIGN"
	ClinVarBenignOrLikelyBenign ClinVarSignificance = "BENIGN_OR_LIKELY_BENIGN"
	ClinVarNotProvided          ClinVarSignificance = "NOT_PROVIDED"
)

// ParseClinVarSignificance accepts the enum names case-insensitively, with
// spaces or underscores. Empty input maps to ClinVarNotProvided.
func ParseClinVarSignificance(s string) (ClinVarSignificance, error) {
	norm := ClinVarSignificance(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	switch norm {
	case "":
		return ClinVarNotProvided, nil
	case ClinVarPathogenic, ClinVarLikelyPathogenic, ClinVarPathogenicOrLikely, ClinVarUncertain,
		ClinVarConflicting, ClinVarLikelyBenign, ClinVarBenign, ClinVarBenignOrLikelyBenign, ClinVarNotProvided:
		return norm, nil
	}
	return "", domain.NewValidationError("clinvar", "unknown ClinVar significance", s)
}

// IsPathogenicOrLikelyPathogenic reports a P or LP classification.
func (c ClinVarSignificance) IsPathogenicOrLikelyPathogenic() bool {
	return c == ClinVarPathogenic || c == ClinVarLikelyPathogenic || c == ClinVarPathogenicOrLikely
}

// IsBenignOrLikelyBenign reports a B or LB classification.
func (c ClinVarSignificance) IsBenignOrLikelyBenign() bool {
	return c == ClinVarBenign || c == ClinVarLikelyBenign || c == ClinVarBenignOrLikelyBenign
}

// Variant is one functionally annotated variant called in the patient.
type Variant struct {
	Gene domain.GeneIdentifier `json:"gene" yaml:"gene"`
	// ID is a free-form identifier such as "chr15:48487301:C:T".
	ID string `json:"id" yaml:"id"`
	// AltAlleles is the number of alternate alleles in the sample: 1 for
	// heterozygous or hemizygous calls, 2 for homozygous alternate calls.
	AltAlleles int `json:"alt_alleles" yaml:"alt_alleles"`
	// Pathogenicity is the deleteriousness predicted from the variant effect, in [0, 1].
	Pathogenicity float64 `json:"pathogenicity" yaml:"pathogenicity"`
	// Frequency is the population allele frequency in percent, when known.
	Frequency     *float64            `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	ClinVar       ClinVarSignificance `json:"clinvar,omitempty" yaml:"clinvar,omitempty"`
	FailedFilters bool                `json:"failed_filters,omitempty" yaml:"failed_filters,omitempty"`
}

// Validate checks the ranges of the variant fields.
func (v Variant) Validate() error {
	if v.Gene.ID == "" {
		return domain.NewValidationError("gene", "gene id is required", v.ID)
	}
	if v.AltAlleles < 0 || v.AltAlleles > 2 {
		return domain.NewValidationError("alt_alleles", "must be 0, 1 or 2", v.AltAlleles)
	}
	if math.IsNaN(v.Pathogenicity) || v.Pathogenicity < 0 || v.Pathogenicity > 1 {
		return domain.NewValidationError("pathogenicity", "must be within [0, 1]", v.Pathogenicity)
	}
	if v.Frequency != nil && (*v.Frequency < 0 || *v.Frequency > 100) {
		return domain.NewValidationError("frequency", "must be a percentage", *v.Frequency)
	}
	return nil
}

// FrequencyScore penalises common variants: 1 for absent variants, 0 above
// 2%, and a smooth decay in between.
func (v Variant) FrequencyScore() (float64, bool) {
	if v.Frequency == nil {
		return 0, false
	}
	f := *v.Frequency
	switch {
	case f <= 0:
		return 1, true
	case f > 2:
		return 0, true
	}
	return 1.13533 - 0.13533*math.Exp(f), true
}

// PathogenicityScore combines ClinVar, frequency and predicted pathogenicity.
// ClinVar P/LP variants score 1 regardless of the prediction.
func (v Variant) PathogenicityScore() (float64, bool) {
	if v.ClinVar.IsPathogenicOrLikelyPathogenic() {
		return 1, true
	}
	fs, ok := v.FrequencyScore()
	if !ok {
		return 0, false
	}
	return fs * v.Pathogenicity, true
}

// isDeleterious reports whether the variant counts towards the predicted
// pathogenic burden at the threshold. ClinVar B/LB calls never count.
func (v Variant) isDeleterious(threshold float64) bool {
	if v.ClinVar.IsBenignOrLikelyBenign() {
		return false
	}
	score, ok := v.PathogenicityScore()
	return ok && score >= threshold
}

// Table is the per-gene burden of one patient. It implements
// domain.VariantBurdenProvider.
type Table struct {
	burdens map[domain.TermID]domain.GeneVariantBurden
	genes   []domain.TermID
}

var _ domain.VariantBurdenProvider = (*Table)(nil)

// NewTable aggregates variants per gene. Variants that failed upstream
// filters are ignored.
func NewTable(variants []Variant, threshold float64) (*Table, error) {
	t := &Table{burdens: make(map[domain.TermID]domain.GeneVariantBurden)}
	for i, v := range variants {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("variant %d: %w", i, err)
		}
		if v.FailedFilters {
			continue
		}
		b, ok := t.burdens[v.Gene.ID]
		if !ok {
			b.Gene = v.Gene
			t.genes = append(t.genes, v.Gene.ID)
		}
		b.VariantCount++
		if v.ClinVar.IsPathogenicOrLikelyPathogenic() {
			b.ClinVarPathogenicAlleles += v.AltAlleles
		}
		if v.isDeleterious(threshold) {
			b.PathogenicAlleles += v.AltAlleles
			b.WeightedPathogenicBurden += float64(v.AltAlleles) * v.Pathogenicity
		}
		t.burdens[v.Gene.ID] = b
	}
	return t, nil
}

// Burden implements domain.VariantBurdenProvider.
func (t *Table) Burden(gene domain.TermID) (domain.GeneVariantBurden, bool) {
	b, ok := t.burdens[gene]
	return b, ok
}

// Genes returns the genes with at least one passing variant, in input order.
func (t *Table) Genes() []domain.TermID {
	return t.genes
}
