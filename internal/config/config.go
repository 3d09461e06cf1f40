package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ratewise/ratewise/internal/estimate"
	"github.com/ratewise/ratewise/internal/llm"
	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g. RATEWISE_SERVER_ADDR.
const EnvPrefix = "RATEWISE"

// DefaultSQLitePath is where the local history store lives unless configured.
const DefaultSQLitePath = "~/.local/share/ratewise/ratewise.db"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete process configuration, built once at start-up.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Estimate EstimateConfig `mapstructure:"estimate"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StoreConfig selects the history store backend.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	Table       string `mapstructure:"table"`
}

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"`
}

// EstimateConfig holds request defaults for the engine.
type EstimateConfig struct {
	DefaultCurrency    string `mapstructure:"default_currency"`
	DefaultK           int    `mapstructure:"default_k"`
	DefaultDecayMonths int    `mapstructure:"default_decay_months"`
	MaxK               int    `mapstructure:"max_k"`
}

// SetDefaults registers every key with its default and binds the
// environment, so unset keys still resolve through RATEWISE_* variables.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.request_timeout", 60*time.Second)

	v.SetDefault("store.driver", storage.DriverSQLite)
	v.SetDefault("store.sqlite_path", DefaultSQLitePath)
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.table", storage.DefaultTable)

	v.SetDefault("llm.provider", llm.ProviderOpenAI)
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 1200)
	v.SetDefault("llm.timeout", 45*time.Second)
	v.SetDefault("llm.rate_limit", 60)

	v.SetDefault("estimate.default_currency", model.DefaultCurrency)
	v.SetDefault("estimate.default_k", model.DefaultContextSize)
	v.SetDefault("estimate.default_decay_months", model.DefaultDecayMonths)
	v.SetDefault("estimate.max_k", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("store.postgres_dsn", EnvPrefix+"_STORE_POSTGRES_DSN", "DATABASE_URL")
}

// Load decodes v into a Config. Provider API keys fall back to the
// provider's conventional environment variable.
func Load(v *viper.Viper) (Config, error) {
	return load(v, os.Getenv)
}

func load(v *viper.Viper, getenv func(string) string) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	cfg.Store.SQLitePath = ExpandPath(cfg.Store.SQLitePath)
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if cfg.LLM.APIKey == "" {
		if name := ProviderKeyEnv(cfg.LLM.Provider); name != "" {
			cfg.LLM.APIKey = getenv(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ProviderKeyEnv names the environment variable conventionally holding a
// provider's API key.
func ProviderKeyEnv(provider string) string {
	switch provider {
	case "", llm.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case llm.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case llm.ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// Validate rejects settings the process cannot start with. A missing API
// key is not rejected here; it surfaces per request instead.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Server.Addr) == "" {
		problems = append(problems, "server.addr is required")
	}
	if c.Server.RequestTimeout <= 0 {
		problems = append(problems, "server.request_timeout must be positive")
	}

	switch c.Store.Driver {
	case storage.DriverSQLite:
		if c.Store.SQLitePath == "" {
			problems = append(problems, "store.sqlite_path is required for the sqlite driver")
		}
	case storage.DriverPostgres:
		if c.Store.PostgresDSN == "" {
			problems = append(problems, "store.postgres_dsn (or DATABASE_URL) is required for the postgres driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q is not supported", c.Store.Driver))
	}

	switch c.LLM.Provider {
	case llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini:
	default:
		problems = append(problems, fmt.Sprintf("llm.provider %q is not supported", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		problems = append(problems, "llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		problems = append(problems, "llm.max_tokens must be at least 1")
	}
	if c.LLM.RateLimit < 0 {
		problems = append(problems, "llm.rate_limit cannot be negative")
	}

	if c.Estimate.DefaultK < 1 || c.Estimate.MaxK < 1 {
		problems = append(problems, "estimate.default_k and estimate.max_k must be at least 1")
	} else if c.Estimate.DefaultK > c.Estimate.MaxK {
		problems = append(problems, "estimate.default_k cannot exceed estimate.max_k")
	}
	if c.Estimate.DefaultDecayMonths < 1 {
		problems = append(problems, "estimate.default_decay_months must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// StorageOptions returns the store settings in the form storage.Open takes.
func (c Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:      c.Store.Driver,
		SQLitePath:  c.Store.SQLitePath,
		PostgresDSN: c.Store.PostgresDSN,
		Table:       c.Store.Table,
	}
}

// ClientConfig returns the provider settings in the form llm.NewClient takes.
func (c Config) ClientConfig() llm.Config {
	return llm.Config{
		Provider:    c.LLM.Provider,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
		MaxTokens:   c.LLM.MaxTokens,
		Timeout:     c.LLM.Timeout,
		RateLimit:   c.LLM.RateLimit,
	}
}

// EngineOptions returns the engine tuning derived from the config.
func (c Config) EngineOptions() estimate.Options {
	return estimate.Options{
		DefaultCurrency:    c.Estimate.DefaultCurrency,
		Temperature:        c.LLM.Temperature,
		MaxTokens:          c.LLM.MaxTokens,
		DefaultContextSize: c.Estimate.DefaultK,
		DefaultDecayMonths: c.Estimate.DefaultDecayMonths,
		MaxContextSize:     c.Estimate.MaxK,
	}
}
