package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/api"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

var cmdServe = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP API",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "port to listen on",
		},
	},
	Action: runServe,
}

// backend is everything a long running server needs beside its transport.
type backend struct {
	ref      *reference
	store    results.Store
	cache    *results.Cache
	analyses *service.AnalysisService
}

func (b *backend) Close() {
	if b.cache != nil {
		b.cache.Close()
	}
	if b.store != nil {
		b.store.Close()
	}
	b.ref.Close()
}

func (e *environment) openBackend(ctx context.Context) (*backend, error) {
	ref, err := e.loadReference(ctx)
	if err != nil {
		return nil, err
	}
	runner, defaults, err := e.newRunner(ref)
	if err != nil {
		ref.Close()
		return nil, err
	}
	store, err := e.openStore()
	if err != nil {
		ref.Close()
		return nil, err
	}

	b := &backend{ref: ref, store: store, cache: e.openCache()}
	b.analyses = service.NewAnalysisService(e.logger, runner, ref.diseases, defaults, b.store, b.cache)
	return b, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		env.config.GetConfig().Server.Port = int(cmd.Int("port"))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := env.openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	server := api.NewServer(env.config, b.analyses, env.logger)
	if b.store != nil {
		server.AddHealthCheck("archive", func(ctx context.Context) error {
			_, err := b.store.Count(ctx)
			return err
		})
	}
	if b.cache != nil {
		server.AddHealthCheck("cache", b.cache.Ping)
	}
	if b.ref.db != nil {
		server.AddHealthCheck("database", b.ref.db.Health)
	}

	return server.Start(ctx)
}
