// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Required credential lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Built-in defaults, used when the corresponding environment variable is unset.
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultModel        = "o4-mini-deep-research"
	DefaultMaxToolCalls = 50
	DefaultTimeout      = 120 * time.Second
)

// Settings holds all application configuration.
// The value is constructed once at startup and treated as read-only.
type Settings struct {
	// APIKey authenticates requests to the upstream research API. Required.
	// Never logged and never included in error messages.
	APIKey string

	// Project is an optional upstream project scope (OpenAI-Project header).
	Project string

	// BaseURL is the upstream API base, overridable for test doubles
	// and proxies.
	BaseURL string

	// Model is the default research model used when a request omits one.
	Model string

	// MaxToolCalls bounds upstream tool invocations per job when a
	// request omits an explicit limit.
	MaxToolCalls int

	// RequestTimeout bounds a single HTTP round trip to the upstream.
	// It does not bound overall job completion time.
	RequestTimeout time.Duration
}

// New creates settings from environment variables.
// Returns an error if the API key is missing or a variable contains an
// invalid value.
func New() (Settings, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return Settings{}, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	maxToolCalls, err := getEnvInt("DEEPRESEARCH_MAX_TOOL_CALLS", DefaultMaxToolCalls)
	if err != nil {
		return Settings{}, err
	}
	if maxToolCalls <= 0 {
		return Settings{}, fmt.Errorf("DEEPRESEARCH_MAX_TOOL_CALLS must be positive, got %d", maxToolCalls)
	}

	timeoutSecs, err := getEnvInt("DEEPRESEARCH_TIMEOUT_SECS", int(DefaultTimeout/time.Second))
	if err != nil {
		return Settings{}, err
	}
	if timeoutSecs <= 0 {
		return Settings{}, fmt.Errorf("DEEPRESEARCH_TIMEOUT_SECS must be positive, got %d", timeoutSecs)
	}

	return Settings{
		APIKey:         apiKey,
		Project:        os.Getenv("OPENAI_PROJECT"),
		BaseURL:        getEnvString("OPENAI_BASE_URL", DefaultBaseURL),
		Model:          getEnvString("DEEPRESEARCH_MODEL", DefaultModel),
		MaxToolCalls:   maxToolCalls,
		RequestTimeout: time.Duration(timeoutSecs) * time.Second,
	}, nil
}

// MustNew creates settings from environment variables.
// Panics on invalid configuration. Use this only when configuration
// errors should be fatal.
func MustNew() Settings {
	settings, err := New()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// Environment variable helpers with proper error handling

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
