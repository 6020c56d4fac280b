package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/corpus"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
)

// AnalysisService runs analyses on behalf of the HTTP and MCP front ends and
// archives what they produce.
type AnalysisService struct {
	logger   *logrus.Logger
	runner   *analysis.Runner
	diseases domain.DiseaseCorpus
	defaults domain.AnalysisOptions
	store    results.Store
	cache    *results.Cache
}

// NewAnalysisService creates a new analysis service. store and cache may be
// nil, in which case runs are neither archived nor cached.
func NewAnalysisService(
	logger *logrus.Logger,
	runner *analysis.Runner,
	diseases domain.DiseaseCorpus,
	defaults domain.AnalysisOptions,
	store results.Store,
	cache *results.Cache,
) *AnalysisService {
	return &AnalysisService{
		logger:   logger,
		runner:   runner,
		diseases: diseases,
		defaults: defaults,
		store:    store,
		cache:    cache,
	}
}

// Analyze ranks the diseases of the corpus for the patient in req. Completed
// runs are archived and cached under the request fingerprint; a repeated
// request is answered from the cache without scoring again.
func (s *AnalysisService) Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResponse, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "analysis request is required", nil)
	}
	startTime := time.Now()

	opts, err := req.Options.apply(s.defaults)
	if err != nil {
		return nil, err
	}
	opts.Pretest, err = s.pretest(req.PretestProbabilities)
	if err != nil {
		return nil, err
	}

	evidence, err := req.Patient.Evidence(opts.PathogenicityThreshold)
	if err != nil {
		return nil, err
	}

	fingerprint := requestFingerprint(req, opts)
	logger := s.logger.WithFields(logrus.Fields{
		"sample_id":   evidence.SampleID,
		"fingerprint": fingerprint,
	})

	if s.cache != nil {
		if record, ok := s.cache.Get(ctx, fingerprint); ok {
			resp, err := responseFromRecord(record)
			if err == nil {
				resp.Cached = true
				logger.WithField("run_id", record.ID).Info("Analysis served from cache")
				return resp, nil
			}
			logger.WithError(err).Warn("Discarding unreadable cached run")
		}
	}

	ranked, err := s.runner.Run(ctx, evidence, opts)
	if err != nil {
		if archivable(err) {
			s.archiveFailure(ctx, evidence, opts, fingerprint, err)
		}
		return nil, err
	}

	payload, err := json.Marshal(ranked)
	if err != nil {
		return nil, fmt.Errorf("failed to encode results: %w", err)
	}

	now := time.Now().UTC()
	record := &results.Record{
		ID:          uuid.New().String(),
		SampleID:    evidence.SampleID,
		GenomeBuild: string(opts.GenomeBuild),
		Status:      results.StatusCompleted,
		Fingerprint: fingerprint,
		Diseases:    ranked.Len(),
		Payload:     payload,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if top, ok := ranked.Top(); ok {
		record.TopDiseaseID = string(top.DiseaseID)
		record.TopPosttest = top.PosttestProbability
	}

	if s.store != nil {
		if err := s.store.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to archive run: %w", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, record, 0); err != nil {
			logger.WithError(err).Warn("Failed to cache run")
		}
	}

	logger.WithFields(logrus.Fields{
		"run_id":          record.ID,
		"diseases":        record.Diseases,
		"top_disease":     record.TopDiseaseID,
		"processing_time": time.Since(startTime),
	}).Info("Analysis run archived")

	return &AnalysisResponse{
		RunID:     record.ID,
		CreatedAt: record.CreatedAt,
		Results:   ranked,
	}, nil
}

// Get returns an archived run.
func (s *AnalysisService) Get(ctx context.Context, id string) (*AnalysisResponse, error) {
	if s.store == nil {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRecordNotFound)
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == results.StatusFailed {
		return &AnalysisResponse{RunID: record.ID, CreatedAt: record.CreatedAt, Error: record.Error}, nil
	}
	return responseFromRecord(record)
}

// List returns archived runs newest first, without their payloads, and the
// total number of archived runs.
func (s *AnalysisService) List(ctx context.Context, limit, offset int) ([]*results.Record, int64, error) {
	if s.store == nil {
		return []*results.Record{}, 0, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	for _, r := range records {
		r.Payload = nil
	}
	return records, total, nil
}

// Defaults returns the options applied when a request overrides nothing.
func (s *AnalysisService) Defaults() domain.AnalysisOptions {
	return s.defaults
}

func (s *AnalysisService) pretest(overrides map[string]float64) (domain.PretestProbabilityProvider, error) {
	uniform := corpus.NewUniformPretest(s.diseases)
	if len(overrides) == 0 {
		return uniform, nil
	}
	values := make(map[domain.TermID]float64, len(overrides))
	for id, p := range overrides {
		term, err := domain.ParseTermID(id)
		if err != nil {
			return nil, domain.NewValidationError("pretest_probabilities", err.Error(), id)
		}
		values[term] = p
	}
	return corpus.NewMapPretest(values, uniform)
}

func (s *AnalysisService) archiveFailure(ctx context.Context, evidence *domain.PatientEvidence, opts domain.AnalysisOptions, fingerprint string, cause error) {
	if s.store == nil {
		return
	}
	now := time.Now().UTC()
	record := &results.Record{
		ID:          uuid.New().String(),
		SampleID:    evidence.SampleID,
		GenomeBuild: string(opts.GenomeBuild),
		Status:      results.StatusFailed,
		Fingerprint: fingerprint,
		Error:       cause.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, record); err != nil {
		s.logger.WithError(err).Warn("Failed to archive failed run")
	}
}

// archivable reports whether a failed run is worth keeping. Rejected input
// and interrupted runs are not.
func archivable(err error) bool {
	var ve *domain.ValidationError
	return !errors.As(err, &ve) && !errors.Is(err, domain.ErrInterrupted)
}

func responseFromRecord(record *results.Record) (*AnalysisResponse, error) {
	var ranked analysis.Results
	if err := json.Unmarshal(record.Payload, &ranked); err != nil {
		return nil, fmt.Errorf("failed to decode run %s: %w", record.ID, err)
	}
	return &AnalysisResponse{
		RunID:     record.ID,
		CreatedAt: record.CreatedAt,
		Results:   &ranked,
	}, nil
}

// requestFingerprint hashes everything that determines the ranking. Term and
// database lists are sorted so that their order does not matter.
func requestFingerprint(req *AnalysisRequest, opts domain.AnalysisOptions) string {
	p := req.Patient
	variants, _ := json.Marshal(p.Variants)
	priors := make([]string, 0, len(req.PretestProbabilities))
	for id, v := range req.PretestProbabilities {
		priors = append(priors, id+"="+strconv.FormatFloat(v, 'g', -1, 64))
	}

	return results.Fingerprint(
		strings.TrimSpace(p.SampleID),
		strings.TrimSpace(p.Age),
		strings.ToUpper(strings.TrimSpace(p.Sex)),
		sortedJoin(p.Observed),
		sortedJoin(p.Excluded),
		string(variants),
		string(opts.GenomeBuild),
		strconv.FormatFloat(opts.PathogenicityThreshold, 'g', -1, 64),
		strconv.FormatFloat(opts.DefaultVariantBackgroundFrequency, 'g', -1, 64),
		strconv.FormatBool(opts.Strict),
		strconv.FormatBool(opts.Global),
		strconv.FormatBool(opts.DisregardNoDeleteriousVariants),
		strconv.FormatBool(opts.UseOnset),
		sortedJoin(opts.DiseaseDatabases),
		sortedJoin(priors),
	)
}

func sortedJoin(values []string) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
