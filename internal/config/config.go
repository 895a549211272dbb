package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/newthinker/folio/internal/core"
	"github.com/newthinker/folio/internal/llm"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Storage StorageConfig `mapstructure:"storage"`
	Email   EmailConfig   `mapstructure:"email"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Contact ContactConfig `mapstructure:"contact"`
	Events  EventsConfig  `mapstructure:"events"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
	APIKey   string `mapstructure:"api_key"`

	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

// LLMConfig holds credentials for every model backend. Keys may be empty;
// the backend then fails at call time.
type LLMConfig struct {
	DefaultModel  string         `mapstructure:"default_model"`
	GroundedModel string         `mapstructure:"grounded_model"`
	OpenAI        ProviderConfig `mapstructure:"openai"`
	Perplexity    ProviderConfig `mapstructure:"perplexity"`
	Anthropic     ProviderConfig `mapstructure:"anthropic"`
	Gemini        ProviderConfig `mapstructure:"gemini"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type StorageConfig struct {
	Type    string   `mapstructure:"type"`     // "localfs" or "s3"
	Path    string   `mapstructure:"path"`     // For localfs
	BaseURL string   `mapstructure:"base_url"` // For localfs
	S3      S3Config `mapstructure:"s3"`       // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// AuthConfig holds email-link sign-in settings.
type AuthConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	AllowedDomains []string      `mapstructure:"allowed_domains"`
	SecureCookie   bool          `mapstructure:"secure_cookie"`
}

// ContactConfig holds the contact form relay settings.
type ContactConfig struct {
	To string `mapstructure:"to"`
}

// EventsConfig holds event step retry and run history settings.
type EventsConfig struct {
	StepAttempts int           `mapstructure:"step_attempts"`
	StepBackoff  time.Duration `mapstructure:"step_backoff"`
	MaxRuns      int           `mapstructure:"max_runs"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// envBindings keeps the conventional variable names working without a
// config file.
var envBindings = map[string]string{
	"server.api_key":         "FOLIO_API_KEY",
	"llm.openai.api_key":     "OPENAI_API_KEY",
	"llm.perplexity.api_key": "PERPLEXITY_API_KEY",
	"llm.anthropic.api_key":  "ANTHROPIC_API_KEY",
	"llm.gemini.api_key":     "GEMINI_API_KEY",
	"storage.s3.bucket":      "BUCKET_NAME",
	"storage.s3.region":      "AWS_REGION",
	"storage.s3.access_key":  "AWS_ACCESS_KEY_ID",
	"storage.s3.secret_key":  "AWS_SECRET_ACCESS_KEY",
	"email.password":         "EMAIL_SERVER_PASSWORD",
	"email.from":             "EMAIL_FROM",
	"auth.base_url":          "NEXTAUTH_URL",
}

// Load reads configuration from file over the defaults. An empty path skips
// the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			Port:     8080,
			Mode:     "release",
			LogLevel: "info",

			MaxUploadBytes: 10 << 20,
		},
		LLM: LLMConfig{
			DefaultModel:  string(llm.DefaultChatModel),
			GroundedModel: string(llm.DefaultGroundedModel),
		},
		Storage: StorageConfig{
			Type:    "localfs",
			Path:    "data/uploads",
			BaseURL: "/uploads",
		},
		Email: EmailConfig{
			Host:     "smtp.resend.com",
			Port:     465,
			Username: "resend",
			From:     "onboarding@resend.dev",
		},
		Auth: AuthConfig{
			BaseURL:    "http://localhost:8080",
			TokenTTL:   24 * time.Hour,
			SessionTTL: 30 * 24 * time.Hour,
		},
		Events: EventsConfig{
			StepAttempts: 3,
			StepBackoff:  500 * time.Millisecond,
			MaxRuns:      1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration and reports every problem found.
// Missing provider keys are not errors.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result = multierror.Append(result,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.LLM.DefaultModel != "" {
		if _, err := llm.ParseModelID(c.LLM.DefaultModel); err != nil {
			result = multierror.Append(result, fmt.Errorf("llm.default_model: %w", err))
		}
	}
	if c.LLM.GroundedModel != "" {
		if _, err := llm.ParseModelID(c.LLM.GroundedModel); err != nil {
			result = multierror.Append(result, fmt.Errorf("llm.grounded_model: %w", err))
		}
	}

	switch c.Storage.Type {
	case "localfs":
		if c.Storage.Path == "" {
			result = multierror.Append(result, fmt.Errorf("storage.path required for localfs"))
		}
	case "s3":
		if c.Storage.S3.Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage.s3.bucket required for s3"))
		}
		if c.Storage.S3.Region == "" {
			result = multierror.Append(result, fmt.Errorf("storage.s3.region required for s3"))
		}
	default:
		result = multierror.Append(result,
			fmt.Errorf("storage.type must be localfs or s3, got %q", c.Storage.Type))
	}

	if c.Email.Host != "" && (c.Email.Port < 1 || c.Email.Port > 65535) {
		result = multierror.Append(result,
			fmt.Errorf("email.port must be between 1 and 65535, got %d", c.Email.Port))
	}

	if c.Auth.TokenTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("auth.token_ttl must be positive"))
	}
	if c.Auth.SessionTTL <= 0 {
		result = multierror.Append(result, fmt.Errorf("auth.session_ttl must be positive"))
	}

	if c.Events.StepAttempts < 1 {
		result = multierror.Append(result,
			fmt.Errorf("events.step_attempts must be at least 1, got %d", c.Events.StepAttempts))
	}

	if err := result.ErrorOrNil(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	return nil
}
