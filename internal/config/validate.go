package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks Config for problems that must stop the process at startup.
// Missing remote-service credentials fail here, never per-request.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	if c.OpenAI.APIKey == "" {
		errs = append(errs, "OPENAI_API_KEY is required")
	}
	if c.Assistant.PersonaID == "" {
		errs = append(errs, "ASSISTANT_PERSONA_ID is required")
	}
	if c.Assistant.MonitorID == "" {
		errs = append(errs, "ASSISTANT_MONITOR_ID is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1-65535, got %d", c.Server.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1-65535, got %d", c.Redis.Port))
	}

	switch c.Cache.Backend {
	case "redis", "memory":
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND must be redis or memory, got %q", c.Cache.Backend))
	}

	if c.Run.PollInterval <= 0 {
		errs = append(errs, "RUN_POLL_INTERVAL must be positive")
	}
	if c.Run.Timeout <= 0 {
		errs = append(errs, "RUN_TIMEOUT must be positive")
	}
	if c.Run.AnalysisTimeout <= 0 {
		errs = append(errs, "ANALYSIS_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
