package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Scratch   ScratchConfig
	Fetch     FetchConfig
	Speech    SpeechConfig
	Translate TranslateConfig
	Refine    RefineConfig
	Redis     RedisConfig
	Queue     QueueConfig
	Dataset   DatasetConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type ScratchConfig struct {
	Dir           string
	Retention     time.Duration
	SweepInterval time.Duration
}

type FetchConfig struct {
	GraphBaseURL string
	Timeout      time.Duration
	MaxRetries   int
}

type SpeechConfig struct {
	Provider     string // "google", "whisper" or "" for none
	APIKey       string
	Endpoint     string
	Encoding     string
	SampleRateHz int
	LanguageCode string
	WhisperModel string
	WhisperKey   string
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
}

type TranslateConfig struct {
	APIKey     string
	Endpoint   string
	Target     string
	Timeout    time.Duration
	MaxRetries int
}

type RefineConfig struct {
	Provider  string // "gemini", "openai", "anthropic" or "" for none
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	ResultTTL time.Duration
	LockTTL   time.Duration
}

type QueueConfig struct {
	Concurrency int
}

type DatasetConfig struct {
	Path      string
	DemoLimit int
}

func Load() (*Config, error) {
	var errs []string
	intVar := func(key string, fallback int) int {
		v, err := getEnvInt(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durVar := func(key string, fallback time.Duration) time.Duration {
		v, err := getEnvDuration(key, fallback)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: intVar("PORT", 8080),
		},
		Scratch: ScratchConfig{
			Dir:           getEnv("SCRATCH_DIR", "temp"),
			Retention:     durVar("SCRATCH_RETENTION", time.Hour),
			SweepInterval: durVar("SCRATCH_SWEEP_INTERVAL", 10*time.Minute),
		},
		Fetch: FetchConfig{
			GraphBaseURL: getEnv("WHATSAPP_GRAPH_URL", "https://graph.facebook.com/v18.0"),
			Timeout:      durVar("FETCH_TIMEOUT", 15*time.Second),
			MaxRetries:   intVar("FETCH_MAX_RETRIES", 2),
		},
		Speech: SpeechConfig{
			Provider:     strings.ToLower(getEnv("SPEECH_PROVIDER", "google")),
			APIKey:       getEnv("GOOGLE_SPEECH_API_KEY", ""),
			Endpoint:     getEnv("GOOGLE_SPEECH_URL", "https://speech.googleapis.com/v1/speech:recognize"),
			Encoding:     getEnv("SPEECH_ENCODING", "OGG_OPUS"),
			SampleRateHz: intVar("SPEECH_SAMPLE_RATE_HZ", 16000),
			LanguageCode: getEnv("SPEECH_LANGUAGE_CODE", "hi-IN"),
			WhisperModel: getEnv("WHISPER_MODEL", "whisper-1"),
			WhisperKey:   getEnv("WHISPER_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:      getEnv("WHISPER_BASE_URL", ""),
			Timeout:      durVar("SPEECH_TIMEOUT", 60*time.Second),
			MaxRetries:   intVar("SPEECH_MAX_RETRIES", 1),
		},
		Translate: TranslateConfig{
			APIKey:     getEnv("GOOGLE_TRANSLATE_API_KEY", ""),
			Endpoint:   getEnv("GOOGLE_TRANSLATE_URL", "https://translation.googleapis.com/language/translate/v2"),
			Target:     getEnv("TRANSLATE_TARGET", "en"),
			Timeout:    durVar("TRANSLATE_TIMEOUT", 15*time.Second),
			MaxRetries: intVar("TRANSLATE_MAX_RETRIES", 1),
		},
		Refine: RefineConfig{
			Provider:  strings.ToLower(getEnv("REFINE_PROVIDER", "gemini")),
			APIKey:    getEnv("REFINE_API_KEY", getEnv("GEMINI_API_KEY", "")),
			BaseURL:   getEnv("REFINE_BASE_URL", ""),
			Model:     getEnv("REFINE_MODEL", ""),
			MaxTokens: intVar("REFINE_MAX_TOKENS", 512),
			Timeout:   durVar("REFINE_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", ""),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        intVar("REDIS_DB", 0),
			ResultTTL: durVar("RESULT_TTL", 24*time.Hour),
			LockTTL:   durVar("RUN_LOCK_TTL", 5*time.Minute),
		},
		Queue: QueueConfig{
			Concurrency: intVar("QUEUE_CONCURRENCY", 4),
		},
		Dataset: DatasetConfig{
			Path:      getEnv("DATASET_PATH", "samples/complaints.xlsx"),
			DemoLimit: intVar("DEMO_LIMIT", 5),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string
	switch c.Speech.Provider {
	case "", "none", "google", "whisper":
	default:
		problems = append(problems, fmt.Sprintf("unknown SPEECH_PROVIDER %q", c.Speech.Provider))
	}
	switch c.Refine.Provider {
	case "", "none", "gemini", "openai", "anthropic":
	default:
		problems = append(problems, fmt.Sprintf("unknown REFINE_PROVIDER %q", c.Refine.Provider))
	}
	if c.Speech.SampleRateHz <= 0 {
		problems = append(problems, "SPEECH_SAMPLE_RATE_HZ must be positive")
	}
	if c.Scratch.Retention <= 0 {
		problems = append(problems, "SCRATCH_RETENTION must be positive")
	}
	if c.Scratch.SweepInterval <= 0 {
		problems = append(problems, "SCRATCH_SWEEP_INTERVAL must be positive")
	}
	if c.Scratch.Dir == "" {
		problems = append(problems, "SCRATCH_DIR must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
