package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		OpenAI: OpenAIConfig{APIKey: "sk-test"},
		Assistant: AssistantConfig{
			PersonaID: "asst_persona",
			MonitorID: "asst_monitor",
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		Run: RunConfig{
			PollInterval:    time.Second,
			Timeout:         30 * time.Second,
			AnalysisTimeout: 30 * time.Second,
		},
		Cache: CacheConfig{Backend: "redis"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_APIKeyRequired(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAI.APIKey = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected OPENAI_API_KEY error, got: %v", err)
	}
}

func TestValidate_AssistantIDsRequired(t *testing.T) {
	cfg := validConfig()
	cfg.Assistant.PersonaID = ""
	cfg.Assistant.MonitorID = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected assistant ID errors")
	}
	if !strings.Contains(err.Error(), "ASSISTANT_PERSONA_ID") {
		t.Errorf("expected ASSISTANT_PERSONA_ID error in: %v", err)
	}
	if !strings.Contains(err.Error(), "ASSISTANT_MONITOR_ID") {
		t.Errorf("expected ASSISTANT_MONITOR_ID error in: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Redis.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "REDIS_PORT") {
		t.Errorf("expected REDIS_PORT error in: %v", err)
	}
}

func TestValidate_InvalidCacheBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Backend = "dynamo"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "CACHE_BACKEND") {
		t.Fatalf("expected CACHE_BACKEND error, got: %v", err)
	}
}

func TestValidate_NonPositiveDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Run.PollInterval = 0
	cfg.Run.Timeout = -time.Second
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected duration validation errors")
	}
	if !strings.Contains(err.Error(), "RUN_POLL_INTERVAL") {
		t.Errorf("expected RUN_POLL_INTERVAL error in: %v", err)
	}
	if !strings.Contains(err.Error(), "RUN_TIMEOUT") {
		t.Errorf("expected RUN_TIMEOUT error in: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 8080},
		Redis:  RedisConfig{Port: 6379},
		Cache:  CacheConfig{Backend: "redis"},
		Run: RunConfig{
			PollInterval:    time.Second,
			Timeout:         time.Second,
			AnalysisTimeout: time.Second,
		},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"OPENAI_API_KEY", "ASSISTANT_PERSONA_ID", "ASSISTANT_MONITOR_ID"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}
