package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// CheckPolicy controls what happens when the duplicate-attempt lookup
// against the result sheet fails.
type CheckPolicy string

const (
	// CheckProceed treats a failed lookup as "no prior attempt" and lets
	// the user start the quiz.
	CheckProceed CheckPolicy = "proceed"
	// CheckBlock answers with a transient-error message and keeps the
	// user out until the sheet is reachable again.
	CheckBlock CheckPolicy = "block"
)

type Config struct {
	BotToken          string
	SheetID           string
	GoogleCredentials []byte

	ExternalURL string // webhook mode when set
	WebhookPath string
	Port        int

	TargetURL     string
	CheckPolicy   CheckPolicy
	SessionDB     string // sqlite path; empty means in-memory sessions
	SessionTTL    time.Duration
	FeedbackDelay time.Duration
	UptimeAllow   string // comma-separated CIDRs for the uptime endpoint
}

// Load reads configuration from the environment (plus an optional .env
// file) and validates it. Missing credentials are an error: the process
// must not come up without them.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:          os.Getenv("BOT_TOKEN"),
		SheetID:           os.Getenv("SHEET_ID"),
		GoogleCredentials: []byte(os.Getenv("GOOGLE_CREDENTIALS")),
		ExternalURL:       os.Getenv("EXTERNAL_URL"),
		WebhookPath:       "/webhook",
		Port:              8000,
		TargetURL:         "https://rosatom.ru",
		CheckPolicy:       CheckProceed,
		SessionDB:         os.Getenv("SESSION_DB"),
		SessionTTL:        30 * time.Minute,
		FeedbackDelay:     1500 * time.Millisecond,
		UptimeAllow:       os.Getenv("UPTIME_ALLOW"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable is required")
	}
	if cfg.SheetID == "" {
		return nil, fmt.Errorf("SHEET_ID environment variable is required")
	}
	if len(cfg.GoogleCredentials) == 0 {
		return nil, fmt.Errorf("GOOGLE_CREDENTIALS environment variable is required")
	}

	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = p
	}
	if v := os.Getenv("TARGET_URL"); v != "" {
		cfg.TargetURL = v
	}
	if v := os.Getenv("SHEETS_CHECK_POLICY"); v != "" {
		switch CheckPolicy(v) {
		case CheckProceed, CheckBlock:
			cfg.CheckPolicy = CheckPolicy(v)
		default:
			return nil, fmt.Errorf("invalid SHEETS_CHECK_POLICY %q: must be %q or %q", v, CheckProceed, CheckBlock)
		}
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		cfg.SessionTTL = d
	}
	if v := os.Getenv("FEEDBACK_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FEEDBACK_DELAY %q: %w", v, err)
		}
		cfg.FeedbackDelay = d
	}

	return cfg, nil
}

// WebhookURL is the full URL registered with Telegram, or empty when the
// bot runs in polling mode.
func (c *Config) WebhookURL() string {
	if c.ExternalURL == "" {
		return ""
	}
	return c.ExternalURL + c.WebhookPath
}
