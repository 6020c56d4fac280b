package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Data      DataConfig      `mapstructure:"data"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Results   ResultsConfig   `mapstructure:"results"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	MCP       MCPConfig       `mapstructure:"mcp"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// CacheConfig represents Redis result cache configuration
type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// DataConfig locates the reference resources loaded at startup.
type DataConfig struct {
	Directory         string `mapstructure:"directory"`
	OntologyFile      string `mapstructure:"ontology_file"`       // hp.json
	AnnotationFile    string `mapstructure:"annotation_file"`     // phenotype.hpoa
	GeneDiseaseFile   string `mapstructure:"gene_disease_file"`   // genes_to_disease.txt
	BackgroundSource  string `mapstructure:"background_source"`   // "file" or "postgres"
	OntologyCacheSize int    `mapstructure:"ontology_cache_size"` // ancestor sets kept in the LRU
}

// AnalysisConfig holds the defaults applied to every analysis request.
type AnalysisConfig struct {
	GenomeBuild                       string   `mapstructure:"genome_build"`
	PathogenicityThreshold            float64  `mapstructure:"pathogenicity_threshold"`
	DefaultVariantBackgroundFrequency float64  `mapstructure:"default_variant_background_frequency"`
	Strict                            bool     `mapstructure:"strict"`
	Global                            bool     `mapstructure:"global"`
	DisregardNoDeleteriousVariants    bool     `mapstructure:"disregard_no_deleterious_variants"`
	UseOnset                          bool     `mapstructure:"use_onset"`
	Workers                           int      `mapstructure:"workers"`
	DiseaseDatabases                  []string `mapstructure:"disease_databases"`
}

// ResultsConfig selects where completed analyses are archived.
type ResultsConfig struct {
	Backend    string `mapstructure:"backend"`     // "sqlite", "postgres" or "none"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RateLimitConfig bounds analysis requests per client.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}
