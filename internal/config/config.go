package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Feeds     FeedsConfig     `yaml:"feeds" mapstructure:"feeds"`
	Crossref  CrossrefConfig  `yaml:"crossref" mapstructure:"crossref"`
	PubMed    PubMedConfig    `yaml:"pubmed" mapstructure:"pubmed"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Classify  ClassifyConfig  `yaml:"classify" mapstructure:"classify"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// FeedsConfig locates the feed list and the pipeline outputs.
type FeedsConfig struct {
	ListPath    string `yaml:"list_path" mapstructure:"list_path"`
	DataDir     string `yaml:"data_dir" mapstructure:"data_dir"`
	DocsDir     string `yaml:"docs_dir" mapstructure:"docs_dir"`
	OutputFile  string `yaml:"output_file" mapstructure:"output_file"`
	Title       string `yaml:"title" mapstructure:"title"`
	Link        string `yaml:"link" mapstructure:"link"`
	Description string `yaml:"description" mapstructure:"description"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// CrossrefConfig holds Crossref REST API settings.
type CrossrefConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Mailto      string `yaml:"mailto" mapstructure:"mailto"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PubMedConfig holds NCBI E-utilities settings.
type PubMedConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Key         string `yaml:"api_key" mapstructure:"api_key"`
	Tool        string `yaml:"tool" mapstructure:"tool"`
	Email       string `yaml:"email" mapstructure:"email"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"`
	AnthropicKey   string `yaml:"anthropic_key" mapstructure:"anthropic_key"`
	AnthropicModel string `yaml:"anthropic_model" mapstructure:"anthropic_model"`
	GeminiKey      string `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel    string `yaml:"gemini_model" mapstructure:"gemini_model"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ClassifyConfig configures the relevance classifier.
type ClassifyConfig struct {
	Guidance string `yaml:"guidance" mapstructure:"guidance"`
	MinChars int    `yaml:"min_chars" mapstructure:"min_chars"`
	PaceMS   int    `yaml:"pace_ms" mapstructure:"pace_ms"`
}

// ReconcileConfig configures metadata reconciliation.
type ReconcileConfig struct {
	PaceMS           int     `yaml:"pace_ms" mapstructure:"pace_ms"`
	RatePerSec       float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	CandidateLimit   int     `yaml:"candidate_limit" mapstructure:"candidate_limit"`
	RetryAttempts    int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	BreakerThreshold int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerResetSecs int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	UseOracle        bool    `yaml:"use_oracle" mapstructure:"use_oracle"`
}

// FetchConfig configures feed downloads.
type FetchConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	CacheTTLHours int    `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ServerConfig configures the preview server.
type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Dir  string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Pace returns the reconciliation pacing delay.
func (c ReconcileConfig) Pace() time.Duration {
	return time.Duration(c.PaceMS) * time.Millisecond
}

// Pace returns the delay after each classifier call.
func (c ClassifyConfig) Pace() time.Duration {
	return time.Duration(c.PaceMS) * time.Millisecond
}

// CacheTTL returns the lookup cache lifetime. Zero disables caching.
func (c StoreConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("feeds.list_path", "feeds.txt")
	v.SetDefault("feeds.data_dir", "data")
	v.SetDefault("feeds.docs_dir", "docs")
	v.SetDefault("feeds.output_file", "head-neck-cancer.xml")
	v.SetDefault("feeds.title", "Head & Neck Cancer – DOI-Enriched Feed")
	v.SetDefault("feeds.link", "https://colmmemedsurv.github.io/sentinelnode/")
	v.SetDefault("feeds.description", "Curated head & neck cancer literature with PubMed enrichment.")
	v.SetDefault("feeds.concurrency", 4)
	v.SetDefault("crossref.base_url", "https://api.crossref.org")
	v.SetDefault("crossref.mailto", "")
	v.SetDefault("crossref.timeout_secs", 20)
	v.SetDefault("pubmed.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("pubmed.api_key", "")
	v.SetDefault("pubmed.tool", "sentinelnode")
	v.SetDefault("pubmed.email", "")
	v.SetDefault("pubmed.timeout_secs", 20)
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.anthropic_key", "")
	v.SetDefault("llm.anthropic_model", "claude-haiku-4-5-20251001")
	v.SetDefault("llm.gemini_key", "")
	v.SetDefault("llm.gemini_model", "gemini-2.5-flash")
	v.SetDefault("llm.max_tokens", 16)
	v.SetDefault("classify.guidance", "")
	v.SetDefault("classify.min_chars", 20)
	v.SetDefault("classify.pace_ms", 150)
	v.SetDefault("reconcile.pace_ms", 500)
	v.SetDefault("reconcile.rate_per_sec", 3.0)
	v.SetDefault("reconcile.candidate_limit", 5)
	v.SetDefault("reconcile.retry_attempts", 2)
	v.SetDefault("reconcile.breaker_threshold", 5)
	v.SetDefault("reconcile.breaker_reset_secs", 60)
	v.SetDefault("reconcile.use_oracle", true)
	v.SetDefault("fetch.user_agent", "sentinelnode/1.0")
	v.SetDefault("fetch.timeout_secs", 30)
	v.SetDefault("fetch.max_retries", 2)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/sentinel.db")
	v.SetDefault("store.cache_ttl_hours", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.dir", "docs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run":
		switch c.LLM.Provider {
		case "anthropic":
			if c.LLM.AnthropicKey == "" {
				errs = append(errs, "llm.anthropic_key is required")
			}
		case "gemini":
			if c.LLM.GeminiKey == "" {
				errs = append(errs, "llm.gemini_key is required")
			}
		default:
			errs = append(errs, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
		}
		if c.Feeds.ListPath == "" {
			errs = append(errs, "feeds.list_path is required")
		}
		if c.Feeds.Concurrency < 1 || c.Feeds.Concurrency > 32 {
			errs = append(errs, "feeds.concurrency must be between 1 and 32")
		}
	case "reconcile":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Reconcile.CandidateLimit < 1 {
		errs = append(errs, "reconcile.candidate_limit must be >= 1")
	}
	if c.Reconcile.RatePerSec <= 0 {
		errs = append(errs, "reconcile.rate_per_sec must be > 0")
	}
	if c.Reconcile.PaceMS < 0 || c.Classify.PaceMS < 0 {
		errs = append(errs, "pace_ms values must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
