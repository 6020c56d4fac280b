package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/analysis"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/background"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/config"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/corpus"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/database"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/pkg/ontology"
)

// environment is the configuration and logger shared by every command.
type environment struct {
	config *config.Manager
	logger *logrus.Logger
}

func loadEnvironment(cmd *cli.Command) (*environment, error) {
	mgr, err := config.NewManager(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	cfg := mgr.GetConfig()
	if level := cmd.String("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if dir := cmd.String("data-dir"); dir != "" {
		cfg.Data.Directory = dir
	}
	if err := mgr.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return &environment{config: mgr, logger: logger}, nil
}

// reference holds the read-only data every analysis runs against.
type reference struct {
	graph    *ontology.Ontology
	diseases *corpus.Corpus
	genes    *corpus.GeneIndex
	rates    domain.BackgroundVariantRateProvider
	// db is set when background rates come from PostgreSQL.
	db *database.DB
}

func (r *reference) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

func (e *environment) loadReference(ctx context.Context) (*reference, error) {
	cfg := e.config.GetConfig()

	graph, err := ontology.LoadFile(e.config.DataPath(cfg.Data.OntologyFile), cfg.Data.OntologyCacheSize)
	if err != nil {
		return nil, err
	}
	e.logger.WithField("terms", graph.Len()).Info("Loaded ontology")

	diseases, err := corpus.NewLoader(e.logger).LoadFile(e.config.DataPath(cfg.Data.AnnotationFile))
	if err != nil {
		return nil, err
	}

	genes, err := corpus.LoadGenesToDiseaseFile(e.config.DataPath(cfg.Data.GeneDiseaseFile))
	if err != nil {
		return nil, err
	}
	e.logger.WithField("genes", genes.Len()).Info("Loaded gene to disease associations")

	ref := &reference{graph: graph, diseases: diseases, genes: genes}
	switch cfg.Data.BackgroundSource {
	case "postgres":
		db, err := database.NewConnection(ctx, database.ConfigFrom(cfg.Database), e.logger)
		if err != nil {
			return nil, err
		}
		ref.db = db
		ref.rates = background.NewPostgresProvider(db.Pool, e.logger)
	default:
		ref.rates = background.NewFileProvider(cfg.Data.Directory, e.logger)
	}
	return ref, nil
}

// openStore opens the configured result archive. It returns a nil Store for
// the "none" backend.
func (e *environment) openStore() (results.Store, error) {
	cfg := e.config.GetConfig()
	switch cfg.Results.Backend {
	case "sqlite":
		if err := e.config.EnsureDataDirs(); err != nil {
			return nil, err
		}
		return results.NewSQLiteStore(cfg.Results.SQLitePath)
	case "postgres":
		return results.NewPostgresStoreFromURL(database.ConfigFrom(cfg.Database).URL())
	}
	return nil, nil
}

// openCache connects to Redis when the cache is enabled. Failing to connect
// disables caching rather than failing the command.
func (e *environment) openCache() *results.Cache {
	cfg := e.config.GetConfig().Cache
	if !cfg.Enabled {
		return nil
	}
	cache, err := results.NewCacheFromConfig(cfg, e.logger)
	if err != nil {
		e.logger.WithError(err).Warn("Results cache disabled")
		return nil
	}
	return cache
}

// newRunner builds the runner and the analysis defaults from configuration.
func (e *environment) newRunner(ref *reference) (*analysis.Runner, domain.AnalysisOptions, error) {
	defaults, err := e.config.AnalysisOptions()
	if err != nil {
		return nil, defaults, err
	}
	runner, err := analysis.NewRunner(ref.graph, ref.diseases, ref.genes, ref.rates, e.logger)
	if err != nil {
		return nil, defaults, err
	}
	return runner, defaults, nil
}
