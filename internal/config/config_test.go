package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GITHUB_WEBHOOK_SECRET", "hook-secret")
	t.Setenv("EMAIL_USER", "bot@example.com")
	t.Setenv("EMAIL_PASS", "app-password")
	t.Setenv("CONFIG_FILE", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.SMTPHost != "smtp.gmail.com" || cfg.SMTPPort != 587 {
		t.Errorf("SMTP = %s:%d", cfg.SMTPHost, cfg.SMTPPort)
	}
	if cfg.EmailRecipient != "bot@example.com" {
		t.Errorf("EmailRecipient = %q, want EMAIL_USER", cfg.EmailRecipient)
	}
	if cfg.CustomerEmail != "bot@example.com" {
		t.Errorf("CustomerEmail = %q, want recipient", cfg.CustomerEmail)
	}
	if len(cfg.GeminiModels) != 2 || cfg.GeminiModels[0] != "gemini-1.5-flash" {
		t.Errorf("GeminiModels = %v", cfg.GeminiModels)
	}
	if cfg.SummaryCacheTTL != 30*time.Minute {
		t.Errorf("SummaryCacheTTL = %v", cfg.SummaryCacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9090")
	t.Setenv("EMAIL_RECIPIENT", "sales@example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("GEMINI_MODELS", "gemini-2.0-flash,gemini-2.5-pro")
	t.Setenv("SUMMARY_CACHE_TTL", "5m")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.SMTPPort != 2525 {
		t.Errorf("SMTPPort = %d", cfg.SMTPPort)
	}
	if cfg.EmailRecipient != "sales@example.com" || cfg.CustomerEmail != "sales@example.com" {
		t.Errorf("EmailRecipient = %q, CustomerEmail = %q", cfg.EmailRecipient, cfg.CustomerEmail)
	}
	if len(cfg.GeminiModels) != 2 || cfg.GeminiModels[1] != "gemini-2.5-pro" {
		t.Errorf("GeminiModels = %v", cfg.GeminiModels)
	}
	if cfg.SummaryCacheTTL != 5*time.Minute {
		t.Errorf("SummaryCacheTTL = %v", cfg.SummaryCacheTTL)
	}
}

func TestLoadConfigFile(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_PASS", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "port: \"4000\"\nemail_pass: from-file\ncustomer_email: client@example.com\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "4000" {
		t.Errorf("Port = %q, want 4000", cfg.Port)
	}
	if cfg.EmailPass != "from-file" {
		t.Errorf("EmailPass = %q, want from-file", cfg.EmailPass)
	}
	if cfg.CustomerEmail != "client@example.com" {
		t.Errorf("CustomerEmail = %q", cfg.CustomerEmail)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "5000")

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("port: \"4000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5000" {
		t.Errorf("Port = %q, want 5000", cfg.Port)
	}
}

func TestLoadMissingFile(t *testing.T) {
	setRequired(t)

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("EMAIL_PASS", "")

	_, err := Load("")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, name := range []string{"GEMINI_API_KEY", "EMAIL_PASS"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not mention %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "EMAIL_USER") {
		t.Errorf("error %q mentions a key that is set", err)
	}
}
