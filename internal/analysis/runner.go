package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/genotype"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/onset"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/phenotype"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/ontology"
)

// Reasons attached to diseases that leave a run without a result.
const (
	ReasonMissingPretest       = "missing_pretest"
	ReasonNoDeleteriousVariant = "no_deleterious_variant"
	ReasonNoCandidateGene      = "no_candidate_gene"
)

// ProgressFunc receives the number of scored diseases and the total.
type ProgressFunc func(done, total int)

type progressKey struct{}

// ContextWithProgress attaches a progress callback to a single run. It takes
// precedence over a callback set with WithProgress.
func ContextWithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

func (r *Runner) progressFor(ctx context.Context) ProgressFunc {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		return fn
	}
	return r.progress
}

// Option configures a Runner.
type Option func(*Runner)

// WithProgress reports progress after every scored disease. The callback is
// invoked from a single goroutine.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithPhenotypeConstants overrides the matcher heuristics.
func WithPhenotypeConstants(c phenotype.Constants) Option {
	return func(r *Runner) {
		r.phenotypeConstants = c
	}
}

// WithGenotypeConstants overrides the genotype model constants.
func WithGenotypeConstants(c genotype.Constants) Option {
	return func(r *Runner) {
		r.genotypeConstants = c
	}
}

// WithOnsetPolicy overrides the onset relation table.
func WithOnsetPolicy(p onset.Policy) Option {
	return func(r *Runner) {
		r.onsetPolicy = p
	}
}

// Runner ranks the diseases of a corpus for one patient at a time. The
// reference data it holds is read-only after NewRunner returns, so a Runner
// can serve concurrent runs.
type Runner struct {
	graph   domain.OntologyGraph
	corpus  domain.DiseaseCorpus
	genes   domain.GeneDiseaseIndex
	rates   domain.BackgroundVariantRateProvider
	matcher *phenotype.Matcher
	logger  *logrus.Logger

	progress           ProgressFunc
	phenotypeConstants phenotype.Constants
	genotypeConstants  genotype.Constants
	onsetPolicy        onset.Policy
}

// NewRunner creates a new Runner. Background phenotype frequencies are
// computed here, once, before any run starts.
func NewRunner(graph domain.OntologyGraph, corpus domain.DiseaseCorpus, genes domain.GeneDiseaseIndex, rates domain.BackgroundVariantRateProvider, logger *logrus.Logger, opts ...Option) (*Runner, error) {
	if graph == nil || corpus == nil || genes == nil || rates == nil {
		return nil, errors.New("ontology, corpus, gene index and background rates are required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	r := &Runner{
		graph:              graph,
		corpus:             corpus,
		genes:              genes,
		rates:              rates,
		logger:             logger,
		phenotypeConstants: phenotype.DefaultConstants(),
		genotypeConstants:  genotype.DefaultConstants(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.onsetPolicy != nil {
		if err := r.onsetPolicy.Validate(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	background := phenotype.NewBackgroundFrequencies(graph, corpus, r.phenotypeConstants.BackgroundFloor)
	r.matcher = phenotype.NewMatcher(graph, background, r.phenotypeConstants)
	logger.WithFields(logrus.Fields{
		"diseases": corpus.Len(),
		"terms":    background.Len(),
		"duration": time.Since(start).String(),
	}).Info("Computed background phenotype frequencies")
	return r, nil
}

// run is the frozen per-run state shared by all workers.
type run struct {
	evidence *domain.PatientEvidence
	opts     domain.AnalysisOptions
	model    *genotype.Model
	onset    *onset.Estimator
}

type outcome struct {
	disease *domain.DiseaseProfile
	result  *TestResult
	reason  string
	err     error
}

// Run scores every disease that passes the database filter and returns them
// in rank order. Missing background rates for the genome build, invalid
// options and cancellation abort the run. Failures while scoring individual
// diseases are collected and returned together as *domain.TaskErrors.
func (r *Runner) Run(ctx context.Context, evidence *domain.PatientEvidence, opts domain.AnalysisOptions) (*Results, error) {
	if evidence == nil {
		return nil, domain.NewValidationError("evidence", "patient evidence is required", nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := evidence.Validate(); err != nil {
		return nil, err
	}

	rates, err := r.rates.RatesFor(ctx, opts.GenomeBuild)
	if err != nil {
		return nil, fmt.Errorf("resolving background variant rates for %s: %w", opts.GenomeBuild, err)
	}

	clean, changes := ontology.SanitizeEvidence(r.graph, evidence, r.logger)
	if len(clean.Observed) == 0 && len(clean.Excluded) == 0 {
		return nil, domain.NewValidationError("observed", "no observed or excluded term is known to the ontology", evidence.Observed)
	}

	state := &run{
		evidence: clean,
		opts:     opts,
		model:    genotype.NewModel(rates, opts.DefaultVariantBackgroundFrequency, opts.Strict, r.genotypeConstants),
	}
	summary := Summary{
		SampleID:         clean.SampleID,
		GenomeBuild:      opts.GenomeBuild,
		DiseasesInCorpus: r.corpus.Len(),
		Sanitation:       changes,
	}
	if opts.UseOnset && clean.Age != nil {
		estimator, err := onset.NewEstimator(r.corpus, opts.Strict, r.onsetPolicy)
		if err != nil {
			return nil, err
		}
		state.onset = estimator
		mean := estimator.NotObservableGivenAge(*clean.Age)
		summary.NotObservableGivenAge = &mean
	} else if opts.UseOnset {
		r.logger.WithField("sample_id", clean.SampleID).Warn("Onset scoring requested but the patient age is unknown")
	}

	var diseases []*domain.DiseaseProfile
	for _, d := range r.corpus.Diseases() {
		if !opts.IncludesDisease(d.ID) {
			summary.FilteredByDatabase++
			continue
		}
		diseases = append(diseases, d)
	}

	workers := opts.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	logger := r.logger.WithFields(logrus.Fields{
		"sample_id":    clean.SampleID,
		"genome_build": opts.GenomeBuild,
	})
	logger.WithFields(logrus.Fields{
		"diseases": len(diseases),
		"workers":  workers,
		"observed": len(clean.Observed),
		"excluded": len(clean.Excluded),
		"genotype": clean.HasGenotypes(),
	}).Info("Starting analysis")
	start := time.Now()

	outcomes, err := r.fanOut(ctx, state, diseases, workers)
	if err != nil {
		logger.WithError(err).Warn("Analysis interrupted")
		return nil, err
	}

	results := make([]TestResult, 0, len(outcomes))
	var taskErrs []*domain.DiseaseError
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			logger.WithFields(logrus.Fields{
				"disease_id": o.disease.ID,
				"error":      o.err.Error(),
			}).Error("Failed to score disease")
			taskErrs = append(taskErrs, &domain.DiseaseError{DiseaseID: o.disease.ID, Err: o.err})
		case o.reason == ReasonMissingPretest:
			summary.SkippedMissingPretest++
			logger.WithFields(logrus.Fields{
				"disease_id": o.disease.ID,
				"disease":    o.disease.Name,
				"reason":     o.reason,
			}).Warn("Skipping disease without pretest probability")
		case o.reason != "":
			if o.reason == ReasonNoDeleteriousVariant {
				summary.DroppedNoDeleterious++
			} else {
				summary.DroppedNoGene++
			}
			logger.WithFields(logrus.Fields{
				"disease_id": o.disease.ID,
				"reason":     o.reason,
			}).Debug("Disease dropped by policy")
		default:
			results = append(results, *o.result)
		}
	}
	if len(taskErrs) > 0 {
		return nil, &domain.TaskErrors{Errors: taskErrs}
	}

	sortResults(results)
	summary.Evaluated = len(results)

	logger.WithFields(logrus.Fields{
		"evaluated":       summary.Evaluated,
		"missing_pretest": summary.SkippedMissingPretest,
		"dropped":         summary.DroppedNoDeleterious + summary.DroppedNoGene,
		"duration":        time.Since(start).String(),
	}).Info("Analysis completed")

	return &Results{Results: results, Summary: summary}, nil
}

// fanOut scores diseases on a bounded pool of workers. Outcomes are returned
// in the order of the input slice regardless of completion order.
func (r *Runner) fanOut(ctx context.Context, state *run, diseases []*domain.DiseaseProfile, workers int) ([]outcome, error) {
	if workers > len(diseases) && len(diseases) > 0 {
		workers = len(diseases)
	}

	type job struct {
		index   int
		disease *domain.DiseaseProfile
	}
	type done struct {
		index int
		outcome
	}
	jobs := make(chan job, workers*2)
	finished := make(chan done, workers*2)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					o := r.scoreSafely(state, j.disease)
					select {
					case finished <- done{index: j.index, outcome: o}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	progress := r.progressFor(ctx)
	outcomes := make([]outcome, len(diseases))
	var cwg sync.WaitGroup
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		n := 0
		for d := range finished {
			outcomes[d.index] = d.outcome
			n++
			if progress != nil {
				progress(n, len(diseases))
			}
		}
	}()

feed:
	for i, d := range diseases {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- job{index: i, disease: d}:
		}
	}

	close(jobs)
	wg.Wait()
	close(finished)
	cwg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
	}
	return outcomes, nil
}

func (r *Runner) scoreSafely(state *run, d *domain.DiseaseProfile) (o outcome) {
	defer func() {
		if p := recover(); p != nil {
			o = outcome{disease: d, err: fmt.Errorf("panic: %v", p)}
		}
	}()
	return r.score(state, d)
}

func (r *Runner) score(state *run, d *domain.DiseaseProfile) outcome {
	pretest, ok := state.opts.Pretest.PretestProbability(d.ID)
	if !ok {
		return outcome{disease: d, reason: ReasonMissingPretest}
	}
	if math.IsNaN(pretest) || pretest < 0 || pretest > 1 {
		return outcome{disease: d, err: fmt.Errorf("pretest probability %v outside [0, 1]", pretest)}
	}

	var best *domain.GeneLrMatch
	if state.evidence.HasGenotypes() {
		genes := r.genes.GenesForDisease(d.ID)
		if len(genes) == 0 && !state.opts.Global {
			return outcome{disease: d, reason: ReasonNoCandidateGene}
		}
		if len(genes) > 0 {
			matches := make([]domain.GeneLrMatch, 0, len(genes))
			deleterious := false
			for _, g := range genes {
				burden, ok := state.evidence.Variants.Burden(g.ID)
				if !ok {
					burden = domain.GeneVariantBurden{}
				}
				burden.Gene = g
				if burden.HasDeleteriousVariant() {
					deleterious = true
				}
				matches = append(matches, state.model.Evaluate(burden, d.ModesOfInheritance))
			}
			if state.opts.DisregardNoDeleteriousVariants && !deleterious {
				return outcome{disease: d, reason: ReasonNoDeleteriousVariant}
			}
			if m, ok := genotype.Best(matches); ok {
				best = &m
			}
		}
	}

	idg := phenotype.NewInducedDiseaseGraph(d, r.graph)
	observed := make([]domain.TermLrMatch, len(state.evidence.Observed))
	for i, q := range state.evidence.Observed {
		observed[i] = r.matcher.ObservedTermLR(q, idg)
	}
	excluded := make([]domain.TermLrMatch, len(state.evidence.Excluded))
	for i, q := range state.evidence.Excluded {
		excluded[i] = r.matcher.ExcludedTermLR(q, idg)
	}

	var onsetLR *float64
	if state.onset != nil {
		p := state.onset.Probability(d, *state.evidence.Age)
		onsetLR = &p
	}

	result := NewTestResult(d, pretest, observed, excluded, best, onsetLR)
	if math.IsNaN(result.Log10CompositeLR) || math.IsNaN(result.PosttestProbability) {
		return outcome{disease: d, err: errors.New("composite likelihood ratio is not a number")}
	}
	return outcome{disease: d, result: &result}
}
