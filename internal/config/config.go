// Package config loads service settings from defaults, an optional YAML
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`

	GeminiAPIKey    string        `mapstructure:"gemini_api_key"`
	GeminiModels    []string      `mapstructure:"gemini_models"`
	SummaryCacheTTL time.Duration `mapstructure:"summary_cache_ttl"`

	WebhookSecret string `mapstructure:"github_webhook_secret"`

	EmailUser      string `mapstructure:"email_user"`
	EmailPass      string `mapstructure:"email_pass"`
	EmailRecipient string `mapstructure:"email_recipient"`
	SMTPHost       string `mapstructure:"smtp_host"`
	SMTPPort       int    `mapstructure:"smtp_port"`

	PipedriveAPIKey string `mapstructure:"pipedrive_api_key"`
	CustomerEmail   string `mapstructure:"customer_email"`
}

var keys = []string{
	"port",
	"log_level",
	"gemini_api_key",
	"gemini_models",
	"summary_cache_ttl",
	"github_webhook_secret",
	"email_user",
	"email_pass",
	"email_recipient",
	"smtp_host",
	"smtp_port",
	"pipedrive_api_key",
	"customer_email",
}

// Load reads configuration. An empty cfgFile falls back to CONFIG_FILE; with
// neither set only defaults and the environment are used.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("gemini_models", []string{"gemini-1.5-flash", "gemini-2.0-flash"})
	v.SetDefault("summary_cache_ttl", 30*time.Minute)
	v.SetDefault("smtp_host", "smtp.gmail.com")
	v.SetDefault("smtp_port", 587)

	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_FILE")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if cfg.EmailRecipient == "" {
		cfg.EmailRecipient = cfg.EmailUser
	}
	if cfg.CustomerEmail == "" {
		cfg.CustomerEmail = cfg.EmailRecipient
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every required setting that is missing.
func (c *Config) Validate() error {
	var missing []string
	required := []struct {
		env, value string
	}{
		{"GEMINI_API_KEY", c.GeminiAPIKey},
		{"GITHUB_WEBHOOK_SECRET", c.WebhookSecret},
		{"EMAIL_USER", c.EmailUser},
		{"EMAIL_PASS", c.EmailPass},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if len(c.GeminiModels) == 0 {
		return fmt.Errorf("GEMINI_MODELS must list at least one model")
	}
	return nil
}
