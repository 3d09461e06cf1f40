package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(newViper(), noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, strings.HasPrefix(cfg.Store.SQLitePath, "~"), "sqlite path should be expanded")
	assert.True(t, strings.HasSuffix(cfg.Store.SQLitePath, filepath.Join(".local", "share", "ratewise", "ratewise.db")))
	assert.Equal(t, "estimates", cfg.Store.Table)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 1200, cfg.LLM.MaxTokens)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 60, cfg.LLM.RateLimit)

	assert.Equal(t, "EGP", cfg.Estimate.DefaultCurrency)
	assert.Equal(t, 12, cfg.Estimate.DefaultK)
	assert.Equal(t, 12, cfg.Estimate.DefaultDecayMonths)
	assert.Equal(t, 100, cfg.Estimate.MaxK)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_APIKeyFallback(t *testing.T) {
	env := map[string]string{
		"OPENAI_API_KEY":    "sk-openai",
		"ANTHROPIC_API_KEY": "sk-ant",
		"GEMINI_API_KEY":    "gm-key",
	}
	getenv := func(name string) string { return env[name] }

	tests := []struct {
		provider string
		explicit string
		want     string
	}{
		{provider: "openai", want: "sk-openai"},
		{provider: "Anthropic", want: "sk-ant"},
		{provider: "gemini", want: "gm-key"},
		{provider: "openai", explicit: "configured", want: "configured"},
	}

	for _, tt := range tests {
		t.Run(tt.provider+"/"+tt.explicit, func(t *testing.T) {
			v := newViper()
			v.Set("llm.provider", tt.provider)
			if tt.explicit != "" {
				v.Set("llm.api_key", tt.explicit)
			}

			cfg, err := load(v, getenv)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LLM.APIKey)
		})
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9191"
  request_timeout: 30s
store:
  driver: postgres
  postgres_dsn: postgres://ratewise@localhost/ratewise
  table: public.estimates
llm:
  provider: gemini
  model: gemini-2.0-flash
  rate_limit: 0
estimate:
  default_currency: SAR
  default_k: 8
`), 0o600))

	v := newViper()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := load(v, noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "public.estimates", cfg.Store.Table)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 0, cfg.LLM.RateLimit)
	assert.Equal(t, "SAR", cfg.Estimate.DefaultCurrency)
	assert.Equal(t, 8, cfg.Estimate.DefaultK)

	opts := cfg.StorageOptions()
	assert.Equal(t, "postgres://ratewise@localhost/ratewise", opts.PostgresDSN)
	assert.Equal(t, "public.estimates", opts.Table)

	client := cfg.ClientConfig()
	assert.Equal(t, "gemini", client.Provider)
	assert.Equal(t, "gemini-2.0-flash", client.Model)

	engine := cfg.EngineOptions()
	assert.Equal(t, "SAR", engine.DefaultCurrency)
	assert.Equal(t, 8, engine.DefaultContextSize)
	assert.Equal(t, 100, engine.MaxContextSize)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("RATEWISE_SERVER_ADDR", ":7070")
	t.Setenv("RATEWISE_ESTIMATE_MAX_K", "40")
	t.Setenv("DATABASE_URL", "postgres://from-env/db")
	t.Setenv("RATEWISE_STORE_DRIVER", "postgres")

	cfg, err := load(newViper(), noEnv)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 40, cfg.Estimate.MaxK)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://from-env/db", cfg.Store.PostgresDSN)
}

func TestValidate(t *testing.T) {
	valid, err := load(newViper(), noEnv)
	require.NoError(t, err)

	tests := []struct {
		mutate func(*Config)
		name   string
		want   string
	}{
		{name: "empty addr", mutate: func(c *Config) { c.Server.Addr = "" }, want: "server.addr"},
		{name: "zero request timeout", mutate: func(c *Config) { c.Server.RequestTimeout = 0 }, want: "server.request_timeout"},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }, want: "store.driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = "postgres" }, want: "store.postgres_dsn"},
		{name: "unknown provider", mutate: func(c *Config) { c.LLM.Provider = "ollama" }, want: "llm.provider"},
		{name: "temperature too high", mutate: func(c *Config) { c.LLM.Temperature = 3 }, want: "llm.temperature"},
		{name: "zero max tokens", mutate: func(c *Config) { c.LLM.MaxTokens = 0 }, want: "llm.max_tokens"},
		{name: "negative rate limit", mutate: func(c *Config) { c.LLM.RateLimit = -1 }, want: "llm.rate_limit"},
		{name: "k above max", mutate: func(c *Config) { c.Estimate.DefaultK = 200 }, want: "cannot exceed"},
		{name: "zero decay", mutate: func(c *Config) { c.Estimate.DefaultDecayMonths = 0 }, want: "default_decay_months"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestProviderKeyEnv(t *testing.T) {
	assert.Equal(t, "OPENAI_API_KEY", ProviderKeyEnv(""))
	assert.Equal(t, "ANTHROPIC_API_KEY", ProviderKeyEnv("anthropic"))
	assert.Equal(t, "GEMINI_API_KEY", ProviderKeyEnv("gemini"))
	assert.Empty(t, ProviderKeyEnv("ollama"))
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("RATEWISE_TEST_DIR", "/srv/data")

	assert.Equal(t, "", ExpandPath(""))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Equal(t, filepath.Join(home, "db", "r.db"), ExpandPath("~/db/r.db"))
	assert.Equal(t, "/srv/data/r.db", ExpandPath("$RATEWISE_TEST_DIR/r.db"))
	assert.Equal(t, "~user/r.db", ExpandPath("~user/r.db"))
	assert.Equal(t, "/abs/r.db", ExpandPath("/abs/r.db"))
}
