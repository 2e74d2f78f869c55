package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "SCRIBRA"
	defaultHTTPAddress     = "0.0.0.0:8080"
	defaultDatabasePath    = "scribra.db"
	defaultLogLevel        = "info"
	defaultTokenTTLMinutes = 30
	defaultGeminiModel     = "gemini-3-flash-preview"
	defaultAutosaveSeconds = 30
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress      string
	SigningSecret    string
	TokenTTL         time.Duration
	DatabasePath     string
	LogLevel         string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	AutosaveInterval time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	// The generator credential keeps its original env name alongside the
	// prefixed form.
	_ = configViper.BindEnv("gemini.api_key", "SCRIBRA_GEMINI_API_KEY", "API_KEY")

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
	configViper.SetDefault("gemini.model", defaultGeminiModel)
	configViper.SetDefault("gemini.base_url", "")
	configViper.SetDefault("autosave.interval_seconds", defaultAutosaveSeconds)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		SigningSecret:    configViper.GetString("auth.signing_secret"),
		TokenTTL:         time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		GeminiAPIKey:     configViper.GetString("gemini.api_key"),
		GeminiModel:      configViper.GetString("gemini.model"),
		GeminiBaseURL:    configViper.GetString("gemini.base_url"),
		AutosaveInterval: time.Duration(configViper.GetInt("autosave.interval_seconds")) * time.Second,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave.interval_seconds must be positive")
	}
	return nil
}
