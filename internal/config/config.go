package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig
	OpenAI    OpenAIConfig
	Assistant AssistantConfig
	Redis     RedisConfig
	Run       RunConfig
	Cache     CacheConfig
	CORS      CORSConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type OpenAIConfig struct {
	APIKey string
}

// AssistantConfig names the two remote assistant configurations: the persona
// assistant role-plays the patient, the monitor assistant scores MI adherence.
type AssistantConfig struct {
	PersonaID string
	MonitorID string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RunConfig controls the run poll loop: how often run status is checked and
// how long a run may stay non-terminal before the waiter gives up.
type RunConfig struct {
	PollInterval    time.Duration
	Timeout         time.Duration
	AnalysisTimeout time.Duration
}

type CacheConfig struct {
	Backend string // "redis" or "memory"
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		OpenAI: OpenAIConfig{
			APIKey: k.String("openai.api.key"),
		},
		Assistant: AssistantConfig{
			PersonaID: k.String("assistant.persona.id"),
			MonitorID: k.String("assistant.monitor.id"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		Cache: CacheConfig{
			Backend: k.String("cache.backend"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitOrigins(k.String("cors.allowed.origins")),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "redis"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	// Parse durations
	cfg.Run.PollInterval, err = parseDuration(k.String("run.poll.interval"), "1s")
	if err != nil {
		return nil, fmt.Errorf("parsing run poll interval: %w", err)
	}
	cfg.Run.Timeout, err = parseDuration(k.String("run.timeout"), "30s")
	if err != nil {
		return nil, fmt.Errorf("parsing run timeout: %w", err)
	}
	cfg.Run.AnalysisTimeout, err = parseDuration(k.String("analysis.timeout"), "30s")
	if err != nil {
		return nil, fmt.Errorf("parsing analysis timeout: %w", err)
	}

	return cfg, nil
}

func parseDuration(s, fallback string) (time.Duration, error) {
	if s == "" {
		s = fallback
	}
	return time.ParseDuration(s)
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
