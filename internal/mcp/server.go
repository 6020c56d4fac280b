// Package mcp exposes the analysis service as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

// Server wraps an MCP server whose tools run and browse analyses.
type Server struct {
	mcpServer *mcp.Server
	analyses  *service.AnalysisService
	logger    *logrus.Logger
}

// NewServer creates a new MCP server instance and registers its tools.
func NewServer(cfg domain.MCPConfig, analyses *service.AnalysisService, logger *logrus.Logger) *Server {
	name, version := cfg.ServerName, cfg.ServerVersion
	if name == "" {
		name = "lirical"
	}
	if version == "" {
		version = "1.0.0"
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		analyses:  analyses,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Run serves MCP requests on transport until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("Starting MCP server")
	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// RunStdio serves MCP over stdin and stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_analysis",
		Description: "Rank candidate rare diseases for a patient from observed and excluded HPO terms, " +
			"optional age, sex and variants. Returns the top ranked diseases with pretest and posttest probabilities.",
	}, s.handleRunAnalysis)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Fetch the ranked diseases of an archived analysis run by its run id.",
	}, s.handleGetAnalysis)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_analyses",
		Description: "List archived analysis runs, newest first.",
	}, s.handleListAnalyses)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "explain_disease",
		Description: "Show the per-term, genotype and onset likelihood ratios behind one disease of an archived run.",
	}, s.handleExplainDisease)

	s.logger.WithField("tools", 4).Debug("Registered MCP tools")
}
