// Package config loads settings from config.yaml and LIRICAL_* environment
// variables with Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. LIRICAL_SERVER_PORT.
const EnvPrefix = "LIRICAL"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	file   string
	config *domain.Config
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager. An empty file searches the
// default locations for config.yaml; a missing file there is not an error.
func NewManager(file string) (*Manager, error) {
	m := &Manager{file: file}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()
	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/lirical/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

// DefaultDataDir is where reference files and the local result archive live
// unless configured otherwise.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".lirical")
}

// setDefaults sets default configuration values. Every key is registered so
// that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "5m")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "lirical")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "migrations")

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	// Reference data
	v.SetDefault("data.directory", dataDir)
	v.SetDefault("data.ontology_file", "hp.json")
	v.SetDefault("data.annotation_file", "phenotype.hpoa")
	v.SetDefault("data.gene_disease_file", "genes_to_disease.txt")
	v.SetDefault("data.background_source", "file")
	v.SetDefault("data.ontology_cache_size", 4096)

	// Analysis defaults
	v.SetDefault("analysis.genome_build", string(domain.GenomeBuildHG38))
	v.SetDefault("analysis.pathogenicity_threshold", domain.DefaultPathogenicityThreshold)
	v.SetDefault("analysis.default_variant_background_frequency", domain.DefaultVariantBackgroundFrequency)
	v.SetDefault("analysis.strict", false)
	v.SetDefault("analysis.global", false)
	v.SetDefault("analysis.disregard_no_deleterious_variants", false)
	v.SetDefault("analysis.use_onset", false)
	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.disease_databases", []string{"OMIM"})

	// Result archive
	v.SetDefault("results.backend", "sqlite")
	v.SetDefault("results.sqlite_path", filepath.Join(dataDir, "results.db"))

	v.SetDefault("rate_limit.requests_per_second", 5.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("mcp.server_name", "lirical")
	v.SetDefault("mcp.server_version", "1.0.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetAnalysisConfig returns the analysis defaults
func (m *Manager) GetAnalysisConfig() *domain.AnalysisConfig {
	return &m.config.Analysis
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	// Validate server configuration
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if _, err := domain.ParseGenomeBuild(config.Analysis.GenomeBuild); err != nil {
		return fmt.Errorf("invalid analysis genome build: %w", err)
	}
	if t := config.Analysis.PathogenicityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("pathogenicity threshold must be within [0, 1], got %v", t)
	}
	if config.Analysis.DefaultVariantBackgroundFrequency <= 0 {
		return fmt.Errorf("default variant background frequency must be positive")
	}
	if config.Analysis.Workers < 0 {
		return fmt.Errorf("analysis workers must not be negative: %d", config.Analysis.Workers)
	}

	switch config.Results.Backend {
	case "sqlite":
		if config.Results.SQLitePath == "" {
			return fmt.Errorf("results sqlite path is required")
		}
	case "postgres":
		if config.Database.Host == "" || config.Database.Database == "" {
			return fmt.Errorf("database host and name are required for the postgres results backend")
		}
	case "none":
	default:
		return fmt.Errorf("unknown results backend: %q", config.Results.Backend)
	}

	switch config.Data.BackgroundSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("unknown background source: %q", config.Data.BackgroundSource)
	}

	if config.Cache.Enabled && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when the cache is enabled")
	}

	if config.RateLimit.RequestsPerSecond <= 0 || config.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	// Validate logging configuration
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	if f := config.Logging.Format; f != "json" && f != "text" {
		return fmt.Errorf("invalid log format: %s", f)
	}

	return nil
}

// DataPath resolves a reference file name against the data directory.
// Absolute names are returned unchanged.
func (m *Manager) DataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(m.config.Data.Directory, name)
}

// AnalysisOptions converts the configured defaults into run options. The
// pretest provider is left for the caller to set.
func (m *Manager) AnalysisOptions() (domain.AnalysisOptions, error) {
	a := m.config.Analysis
	build, err := domain.ParseGenomeBuild(a.GenomeBuild)
	if err != nil {
		return domain.AnalysisOptions{}, err
	}
	return domain.AnalysisOptions{
		DiseaseDatabases:                  append([]string(nil), a.DiseaseDatabases...),
		GenomeBuild:                       build,
		PathogenicityThreshold:            a.PathogenicityThreshold,
		DefaultVariantBackgroundFrequency: a.DefaultVariantBackgroundFrequency,
		Strict:                            a.Strict,
		DisregardNoDeleteriousVariants:    a.DisregardNoDeleteriousVariants,
		Global:                            a.Global,
		UseOnset:                          a.UseOnset,
		Workers:                           a.Workers,
	}, nil
}

// EnsureDataDirs creates the data directory and the directory of the SQLite
// archive.
func (m *Manager) EnsureDataDirs() error {
	if err := os.MkdirAll(m.config.Data.Directory, 0755); err != nil {
		return err
	}
	if m.config.Results.Backend == "sqlite" {
		return os.MkdirAll(filepath.Dir(m.config.Results.SQLitePath), 0755)
	}
	return nil
}
