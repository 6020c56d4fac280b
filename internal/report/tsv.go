// Package report renders ranked analysis results for people and pipelines.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// Header is the first row of a TSV report.
var Header = []string{
	"rank",
	"disease_name",
	"disease_id",
	"pretest_probability",
	"posttest_probability",
	"log10_composite_lr",
	"gene",
	"genotype_lr",
	"onset_lr",
	"observed_lrs",
	"excluded_lrs",
}

// WriteTSV writes the top ranked results, all of them when top <= 0, as a
// tab separated table preceded by comment lines with the run summary.
func WriteTSV(w io.Writer, results *analysis.Results, top int) error {
	s := results.Summary
	preamble := []string{
		"sample_id: " + s.SampleID,
		"genome_build: " + string(s.GenomeBuild),
		fmt.Sprintf("evaluated: %d of %d diseases", s.Evaluated, s.DiseasesInCorpus),
	}
	if s.NotObservableGivenAge != nil {
		preamble = append(preamble, "mean_onset_not_observable: "+formatFloat(*s.NotObservableGivenAge))
	}
	for _, line := range preamble {
		if _, err := fmt.Fprintf(w, "# %s\n", line); err != nil {
			return err
		}
	}

	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	if err := tw.Write(Header); err != nil {
		return err
	}

	ranked := results.Ranked()
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	for _, r := range ranked {
		gene, genotypeLR := "", ""
		if r.Genotype != nil {
			gene = r.Genotype.Gene.Symbol
			genotypeLR = formatFloat(r.Genotype.LR)
		}
		onsetLR := ""
		if r.OnsetLR != nil {
			onsetLR = formatFloat(*r.OnsetLR)
		}
		row := []string{
			strconv.Itoa(r.Rank),
			r.DiseaseName,
			string(r.DiseaseID),
			formatFloat(r.PretestProbability),
			formatFloat(r.PosttestProbability),
			formatFloat(r.Log10CompositeLR),
			gene,
			genotypeLR,
			onsetLR,
			termLRs(r.ObservedResults),
			termLRs(r.ExcludedResults),
		}
		if err := tw.Write(row); err != nil {
			return err
		}
	}
	tw.Flush()
	return tw.Error()
}

// WriteJSON writes the complete results as indented JSON.
func WriteJSON(w io.Writer, results *analysis.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func termLRs(matches []domain.TermLrMatch) string {
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = string(m.Query) + "=" + formatFloat(m.LR)
	}
	return strings.Join(parts, ";")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
