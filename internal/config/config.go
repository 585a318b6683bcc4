package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	defaultEnvFile = ".env"
)

type Config struct {
	Port int `env:"PORT" envDefault:"8080"`

	ModelProvider         string `env:"MODEL_PROVIDER"          envDefault:"gemini"`
	GCPProject            string `env:"GCP_PROJECT"`
	GCPRegion             string `env:"GCP_REGION"              envDefault:"us-central1"`
	GeminiModel           string `env:"GEMINI_MODEL"            envDefault:"gemini-1.5-flash"`
	GeminiSafetyThreshold string `env:"GEMINI_SAFETY_THRESHOLD" envDefault:"none"`
	OpenAIAPIKey          string `env:"OPENAI_API_KEY"`
	OpenAIModel           string `env:"OPENAI_MODEL"            envDefault:"gpt-5-mini"`

	ResponseTTL           time.Duration `env:"RESPONSE_TTL"             envDefault:"1h"`
	ResultCacheMaxEntries int           `env:"RESULT_CACHE_MAX_ENTRIES" envDefault:"0"`
	ResultCacheSweepSpec  string        `env:"RESULT_CACHE_SWEEP_SPEC"  envDefault:"@every 1m"`
	JobTimeout            time.Duration `env:"JOB_TIMEOUT"              envDefault:"2m"`

	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"  envDefault:"20s"`
	UserAgent    string        `env:"USER_AGENT"     envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"`
	MaxBodyBytes int64         `env:"MAX_BODY_BYTES" envDefault:"5242880"`

	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load reads an optional .env file (ENV_FILE overrides the path) and then
// parses the process environment.
func Load() (Config, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = defaultEnvFile
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file (path = %s): %w", envFile, err)
	}

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.ModelProvider = strings.ToLower(strings.TrimSpace(cfg.ModelProvider))
	cfg.GeminiSafetyThreshold = strings.ToLower(strings.TrimSpace(cfg.GeminiSafetyThreshold))

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.ModelProvider {
	case ProviderGemini:
		if strings.TrimSpace(c.GCPProject) == "" {
			errs = append(errs, errors.New("GCP_PROJECT is required for gemini provider"))
		}
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MODEL_PROVIDER %q", c.ModelProvider))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.ResponseTTL <= 0 {
		errs = append(errs, fmt.Errorf("RESPONSE_TTL must be positive: %s", c.ResponseTTL))
	}
	if c.JobTimeout <= 0 {
		errs = append(errs, fmt.Errorf("JOB_TIMEOUT must be positive: %s", c.JobTimeout))
	}
	if c.ResultCacheMaxEntries < 0 {
		errs = append(errs, fmt.Errorf("RESULT_CACHE_MAX_ENTRIES must not be negative: %d", c.ResultCacheMaxEntries))
	}

	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger writing to w and installs it as the
// slog default.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}

	var handler slog.Handler
	switch strings.ToLower(c.LogFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
