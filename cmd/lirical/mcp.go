package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	mcpserver "github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/mcp"
)

var cmdMCP = &cli.Command{
	Name:   "mcp",
	Usage:  "Serve the analysis tools over MCP on stdin and stdout",
	Action: runMCP,
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := env.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	env.logger.Info("Starting MCP server on stdio")
	return mcpserver.NewServer(env.config.GetConfig().MCP, b.analyses, env.logger).RunStdio(ctx)
}
