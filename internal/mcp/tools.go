package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/patient"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

const defaultTop = 10

// RunAnalysisParams are the arguments of run_analysis.
type RunAnalysisParams struct {
	Patient              patient.File             `json:"patient" jsonschema:"the patient: sample_id, observed and excluded HPO term ids, optional ISO 8601 age, sex and variants"`
	Options              *service.OptionOverrides `json:"options,omitempty" jsonschema:"overrides of the configured analysis options"`
	PretestProbabilities map[string]float64       `json:"pretest_probabilities,omitempty" jsonschema:"disease id to prior probability in (0, 1), replacing the uniform prior"`
	Top                  int                      `json:"top,omitempty" jsonschema:"number of ranked diseases to return, default 10"`
}

// GetAnalysisParams are the arguments of get_analysis.
type GetAnalysisParams struct {
	RunID string `json:"run_id" jsonschema:"id returned by run_analysis"`
	Top   int    `json:"top,omitempty" jsonschema:"number of ranked diseases to return, default 10"`
}

// ListAnalysesParams are the arguments of list_analyses.
type ListAnalysesParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"page size, at most 100"`
	Offset int `json:"offset,omitempty"`
}

// ExplainDiseaseParams are the arguments of explain_disease.
type ExplainDiseaseParams struct {
	RunID     string `json:"run_id"`
	DiseaseID string `json:"disease_id" jsonschema:"disease id such as OMIM:607208"`
}

// RunView is the tool-facing rendering of a run.
type RunView struct {
	RunID   string                  `json:"run_id"`
	Cached  bool                    `json:"cached,omitempty"`
	Summary analysis.Summary        `json:"summary"`
	Ranked  []analysis.RankedResult `json:"ranked"`
}

func (s *Server) handleRunAnalysis(ctx context.Context, req *mcp.CallToolRequest, in RunAnalysisParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":      "run_analysis",
		"sample_id": in.Patient.SampleID,
	}).Info("Tool invoked")

	if token := req.Params.GetProgressToken(); token != nil && req.Session != nil {
		ctx = analysis.ContextWithProgress(ctx, func(done, total int) {
			if done != total && done%progressStep(total) != 0 {
				return
			}
			err := req.Session.NotifyProgress(ctx, &mcp.ProgressNotificationParams{
				ProgressToken: token,
				Progress:      float64(done),
				Total:         float64(total),
				Message:       fmt.Sprintf("scored %d of %d diseases", done, total),
			})
			if err != nil {
				s.logger.WithError(err).Debug("Failed to send progress notification")
			}
		})
	}

	resp, err := s.analyses.Analyze(ctx, &service.AnalysisRequest{
		Patient:              in.Patient,
		Options:              in.Options,
		PretestProbabilities: in.PretestProbabilities,
	})
	if err != nil {
		return toolError(err), nil, nil
	}
	return jsonResult(runView(resp, in.Top))
}

func (s *Server) handleGetAnalysis(ctx context.Context, req *mcp.CallToolRequest, in GetAnalysisParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":   "get_analysis",
		"run_id": in.RunID,
	}).Info("Tool invoked")

	resp, err := s.analyses.Get(ctx, in.RunID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if resp.Results == nil {
		return toolError(fmt.Errorf("run %s failed: %s", resp.RunID, resp.Error)), nil, nil
	}
	return jsonResult(runView(resp, in.Top))
}

func (s *Server) handleListAnalyses(ctx context.Context, req *mcp.CallToolRequest, in ListAnalysesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_analyses").Info("Tool invoked")

	runs, total, err := s.analyses.List(ctx, in.Limit, in.Offset)
	if err != nil {
		return toolError(err), nil, nil
	}
	return jsonResult(struct {
		Runs  []*results.Record `json:"runs"`
		Total int64             `json:"total"`
	}{runs, total})
}

func (s *Server) handleExplainDisease(ctx context.Context, req *mcp.CallToolRequest, in ExplainDiseaseParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithFields(logrus.Fields{
		"tool":       "explain_disease",
		"run_id":     in.RunID,
		"disease_id": in.DiseaseID,
	}).Info("Tool invoked")

	id, err := domain.ParseTermID(in.DiseaseID)
	if err != nil {
		return toolError(err), nil, nil
	}
	resp, err := s.analyses.Get(ctx, in.RunID)
	if err != nil {
		return toolError(err), nil, nil
	}
	if resp.Results == nil {
		return toolError(fmt.Errorf("run %s failed: %s", resp.RunID, resp.Error)), nil, nil
	}
	ranked, ok := resp.Results.Find(id)
	if !ok {
		return toolError(fmt.Errorf("disease %s was not ranked in run %s: %w", id, in.RunID, domain.ErrRecordNotFound)), nil, nil
	}
	return jsonResult(ranked)
}

func runView(resp *service.AnalysisResponse, top int) RunView {
	if top <= 0 {
		top = defaultTop
	}
	ranked := resp.Results.Ranked()
	if len(ranked) > top {
		ranked = ranked[:top]
	}
	return RunView{
		RunID:   resp.RunID,
		Cached:  resp.Cached,
		Summary: resp.Results.Summary,
		Ranked:  ranked,
	}
}

func progressStep(total int) int {
	if step := total / 20; step > 1 {
		return step
	}
	return 1
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// toolError reports err to the client as a failed tool call rather than a
// protocol error, tagged with its error code.
func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{
			Text: fmt.Sprintf("%s: %s", domain.ErrorCode(err), err.Error()),
		}},
	}
}
