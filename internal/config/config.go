// Package config loads reposcope settings from defaults, config files,
// environment variables and flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DirName is the per-project data directory.
const DirName = ".reposcope"

// Config is the complete reposcope configuration.
type Config struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Ollama    OllamaConfig    `yaml:"ollama" mapstructure:"ollama"`
	OpenAI    OpenAIConfig    `yaml:"openai" mapstructure:"openai"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Limits    LimitsConfig    `yaml:"limits" mapstructure:"limits"`

	Language    string `yaml:"language" mapstructure:"language"`
	DBPath      string `yaml:"db_path" mapstructure:"db_path"`
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
	LogLevel    string `yaml:"log_level" mapstructure:"log_level"`
}

// OllamaConfig selects the local Ollama server and model.
type OllamaConfig struct {
	URL   string `yaml:"url" mapstructure:"url"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OpenAIConfig selects an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// RetrievalConfig tunes indexing and search.
type RetrievalConfig struct {
	TopK     int    `yaml:"top_k" mapstructure:"top_k"`
	Chunking string `yaml:"chunking" mapstructure:"chunking"`
	Window   int    `yaml:"window" mapstructure:"window"`
	Workers  int    `yaml:"workers" mapstructure:"workers"`
	Rerank   bool   `yaml:"rerank" mapstructure:"rerank"`
}

// LimitsConfig bounds calls to the completion provider.
type LimitsConfig struct {
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
	RetryAttempts  uint    `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	TimeoutSeconds int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// Providers and chunking strategies.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"

	ChunkingLines  = "lines"
	ChunkingSyntax = "syntax"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: ProviderOllama,
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "qwen3:8b",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Retrieval: RetrievalConfig{
			TopK:     5,
			Chunking: ChunkingLines,
			Window:   50,
			Rerank:   true,
		},
		Limits: LimitsConfig{
			RateLimit:      2,
			Burst:          4,
			RetryAttempts:  3,
			TimeoutSeconds: 120,
		},
		Language: "en",
		LogLevel: "warn",
	}
}

// defaults flattens Default into viper keys so every key is known to the
// environment lookup.
func defaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("provider", d.Provider)
	v.SetDefault("ollama.url", d.Ollama.URL)
	v.SetDefault("ollama.model", d.Ollama.Model)
	v.SetDefault("openai.api_key", d.OpenAI.APIKey)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.OpenAI.Model)
	v.SetDefault("retrieval.top_k", d.Retrieval.TopK)
	v.SetDefault("retrieval.chunking", d.Retrieval.Chunking)
	v.SetDefault("retrieval.window", d.Retrieval.Window)
	v.SetDefault("retrieval.workers", d.Retrieval.Workers)
	v.SetDefault("retrieval.rerank", d.Retrieval.Rerank)
	v.SetDefault("limits.rate_limit", d.Limits.RateLimit)
	v.SetDefault("limits.burst", d.Limits.Burst)
	v.SetDefault("limits.retry_attempts", d.Limits.RetryAttempts)
	v.SetDefault("limits.timeout_seconds", d.Limits.TimeoutSeconds)
	v.SetDefault("language", d.Language)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("metrics_addr", d.MetricsAddr)
	v.SetDefault("log_level", d.LogLevel)
}

// New returns a viper instance reading <projectRoot>/.reposcope/config.yaml,
// then $HOME/.reposcope/config.yaml, with REPOSCOPE_* environment
// overrides. Flags can be bound to it before Load.
func New(projectRoot string) *viper.Viper {
	v := viper.New()
	defaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(projectRoot, DirName))
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, DirName))
	}
	v.SetEnvPrefix("REPOSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("openai.api_key", "REPOSCOPE_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "REPOSCOPE_OPENAI_BASE_URL", "OPENAI_BASE_URL")
	return v
}

// Load reads the configuration for projectRoot from v. A missing config
// file is not an error. An empty db_path resolves to the project's data
// directory.
func Load(v *viper.Viper, projectRoot string) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(projectRoot, DirName, "index.db")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path is where Save writes the project configuration.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, DirName, "config.yaml")
}

// Save writes the configuration as YAML. The file may hold an API key, so
// it is private to the user.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// YAML renders the configuration with the API key masked.
func (c *Config) YAML() (string, error) {
	shown := *c
	if k := shown.OpenAI.APIKey; k != "" {
		shown.OpenAI.APIKey = mask(k)
	}
	data, err := yaml.Marshal(&shown)
	return string(data), err
}

func mask(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "…" + s[len(s)-4:]
}

// Validate checks enumerated fields and numeric bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderNone:
	default:
		errs = append(errs, &Error{Field: "provider", Message: fmt.Sprintf("unknown provider %q", c.Provider)})
	}
	switch c.Retrieval.Chunking {
	case ChunkingLines, ChunkingSyntax:
	default:
		errs = append(errs, &Error{Field: "retrieval.chunking", Message: fmt.Sprintf("unknown strategy %q", c.Retrieval.Chunking)})
	}
	switch c.Language {
	case "en", "es", "fr":
	default:
		errs = append(errs, &Error{Field: "language", Message: fmt.Sprintf("unsupported language %q", c.Language)})
	}
	if c.Retrieval.TopK <= 0 {
		errs = append(errs, &Error{Field: "retrieval.top_k", Message: "must be positive"})
	}
	if c.Retrieval.Window <= 0 {
		errs = append(errs, &Error{Field: "retrieval.window", Message: "must be positive"})
	}
	if c.Limits.RateLimit < 0 || c.Limits.Burst < 0 {
		errs = append(errs, &Error{Field: "limits", Message: "rate limit and burst cannot be negative"})
	}
	return errors.Join(errs...)
}

// Error reports an invalid configuration field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
