package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"billclarity/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Analyzer AnalyzerConfig
	Upload   UploadConfig
	CORS     CORSConfig
	Email    EmailConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AnalyzerProviderConfig holds settings for a single model provider.
type AnalyzerProviderConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// AnalyzerConfig holds bill analyzer settings. Attempts are made against the
// primary provider first, then the secondary if one is configured. At most one
// fallback tier is supported so a single request never produces more than two
// billable calls.
type AnalyzerConfig struct {
	Primary   AnalyzerProviderConfig `mapstructure:"primary"`
	Secondary AnalyzerProviderConfig `mapstructure:"secondary"`
}

// SecondaryConfig returns the secondary provider config, or nil if not configured.
func (a *AnalyzerConfig) SecondaryConfig() *AnalyzerProviderConfig {
	if a.Secondary.Provider != "" {
		return &a.Secondary
	}
	return nil
}

// UploadConfig holds image upload limits.
type UploadConfig struct {
	// MaxImageBytes is the rejection ceiling for the raw image payload. The
	// default of 6 MiB matches the upstream transport's effective limit once
	// base64 encoding overhead is accounted for.
	MaxImageBytes int64 `mapstructure:"max_image_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EmailConfig holds letter email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// Load reads configuration from environment variables with the BILLCLARITY_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BILLCLARITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// Analyzer defaults
	v.SetDefault("analyzer.primary.provider", "gemini")
	v.SetDefault("analyzer.primary.api_key", "")
	v.SetDefault("analyzer.primary.model", "gemini-2.0-flash")
	v.SetDefault("analyzer.primary.timeout_secs", 120)
	v.SetDefault("analyzer.secondary.provider", "")
	v.SetDefault("analyzer.secondary.api_key", "")
	v.SetDefault("analyzer.secondary.model", "")
	v.SetDefault("analyzer.secondary.timeout_secs", 120)

	// Upload defaults
	v.SetDefault("upload.max_image_bytes", 6*1024*1024)

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "us-east-1")
	v.SetDefault("email.from_address", "letters@billclarity.app")
	v.SetDefault("email.from_name", "BillClarity")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                     "BILLCLARITY_SERVER_PORT",
		"server.read_timeout":             "BILLCLARITY_SERVER_READ_TIMEOUT",
		"server.write_timeout":            "BILLCLARITY_SERVER_WRITE_TIMEOUT",
		"server.environment":              "BILLCLARITY_SERVER_ENVIRONMENT",
		"log.level":                       "BILLCLARITY_LOG_LEVEL",
		"log.format":                      "BILLCLARITY_LOG_FORMAT",
		"analyzer.primary.provider":       "BILLCLARITY_ANALYZER_PRIMARY_PROVIDER",
		"analyzer.primary.api_key":        "BILLCLARITY_ANALYZER_PRIMARY_API_KEY",
		"analyzer.primary.model":          "BILLCLARITY_ANALYZER_PRIMARY_MODEL",
		"analyzer.primary.timeout_secs":   "BILLCLARITY_ANALYZER_PRIMARY_TIMEOUT_SECS",
		"analyzer.secondary.provider":     "BILLCLARITY_ANALYZER_SECONDARY_PROVIDER",
		"analyzer.secondary.api_key":      "BILLCLARITY_ANALYZER_SECONDARY_API_KEY",
		"analyzer.secondary.model":        "BILLCLARITY_ANALYZER_SECONDARY_MODEL",
		"analyzer.secondary.timeout_secs": "BILLCLARITY_ANALYZER_SECONDARY_TIMEOUT_SECS",
		"upload.max_image_bytes":          "BILLCLARITY_UPLOAD_MAX_IMAGE_BYTES",
		"cors.allowed_origins":            "BILLCLARITY_CORS_ALLOWED_ORIGINS",
		"email.provider":                  "BILLCLARITY_EMAIL_PROVIDER",
		"email.region":                    "BILLCLARITY_EMAIL_REGION",
		"email.from_address":              "BILLCLARITY_EMAIL_FROM_ADDRESS",
		"email.from_name":                 "BILLCLARITY_EMAIL_FROM_NAME",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if BILLCLARITY_SERVER_PORT
	// is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BILLCLARITY_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.Analyzer = AnalyzerConfig{
		Primary: AnalyzerProviderConfig{
			Provider:    v.GetString("analyzer.primary.provider"),
			APIKey:      v.GetString("analyzer.primary.api_key"),
			Model:       v.GetString("analyzer.primary.model"),
			TimeoutSecs: v.GetInt("analyzer.primary.timeout_secs"),
		},
		Secondary: AnalyzerProviderConfig{
			Provider:    v.GetString("analyzer.secondary.provider"),
			APIKey:      v.GetString("analyzer.secondary.api_key"),
			Model:       v.GetString("analyzer.secondary.model"),
			TimeoutSecs: v.GetInt("analyzer.secondary.timeout_secs"),
		},
	}
	cfg.Upload = UploadConfig{
		MaxImageBytes: v.GetInt64("upload.max_image_bytes"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. A missing primary API key
// is a startup error: every analysis would otherwise fail at call time.
func (c *Config) Validate() error {
	if c.Analyzer.Primary.APIKey == "" {
		return fmt.Errorf("%w: analyzer.primary.api_key is required (set BILLCLARITY_ANALYZER_PRIMARY_API_KEY)", domain.ErrAnalyzerNotConfigured)
	}
	if sec := c.Analyzer.SecondaryConfig(); sec != nil && sec.APIKey == "" {
		return fmt.Errorf("%w: analyzer.secondary.api_key is required when a secondary provider is configured", domain.ErrAnalyzerNotConfigured)
	}
	if c.Upload.MaxImageBytes <= 0 {
		return errors.New("upload.max_image_bytes must be positive")
	}
	return nil
}
