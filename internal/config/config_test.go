package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("SHEET_ID", "sheet")
	t.Setenv("GOOGLE_CREDENTIALS", `{"type":"service_account"}`)

	// Clear the optional keys so values from the host environment (or a
	// .env picked up by godotenv) cannot leak into the assertions.
	for _, key := range []string{
		"EXTERNAL_URL", "PORT", "TARGET_URL", "SHEETS_CHECK_POLICY",
		"SESSION_DB", "SESSION_TTL", "FEEDBACK_DELAY", "UPTIME_ALLOW",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d, want 8000", cfg.Port)
	}
	if cfg.CheckPolicy != CheckProceed {
		t.Errorf("CheckPolicy = %q, want proceed", cfg.CheckPolicy)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if cfg.FeedbackDelay != 1500*time.Millisecond {
		t.Errorf("FeedbackDelay = %v, want 1.5s", cfg.FeedbackDelay)
	}
	if cfg.WebhookURL() != "" {
		t.Errorf("WebhookURL = %q without EXTERNAL_URL", cfg.WebhookURL())
	}
}

func TestLoadMissingCredentialsIsFatal(t *testing.T) {
	tests := []struct{ name, unset string }{
		{"missing bot token", "BOT_TOKEN"},
		{"missing sheet id", "SHEET_ID"},
		{"missing google credentials", "GOOGLE_CREDENTIALS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.unset, "")
			if _, err := Load(); err == nil {
				t.Errorf("Load() succeeded without %s", tt.unset)
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("EXTERNAL_URL", "https://bot.example.com")
	t.Setenv("PORT", "9090")
	t.Setenv("SHEETS_CHECK_POLICY", "block")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("FEEDBACK_DELAY", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WebhookURL() != "https://bot.example.com/webhook" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL())
	}
	if cfg.Port != 9090 || cfg.CheckPolicy != CheckBlock {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SessionTTL != time.Hour || cfg.FeedbackDelay != 2*time.Second {
		t.Errorf("durations = %v / %v", cfg.SessionTTL, cfg.FeedbackDelay)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct{ name, key, value string }{
		{"bad port", "PORT", "eighty"},
		{"bad policy", "SHEETS_CHECK_POLICY", "retry"},
		{"bad ttl", "SESSION_TTL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() accepted %s=%q", tt.key, tt.value)
			}
		})
	}
}
