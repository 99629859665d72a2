// Package config loads runtime settings from the environment, with an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	BackendLocal     = "local"
	BackendSplitwise = "splitwise"
)

// Config holds every setting the server and CLI read.
type Config struct {
	Port      int
	DBPath    string
	LogLevel  string
	LogFormat string

	JWTSecret string
	TokenTTL  time.Duration

	ContactsPath string
	GroupFilter  string

	LedgerBackend    string
	LedgerPayerEmail string
	SplitwiseAPIKey  string
	SplitwiseBaseURL string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	RedisAddr     string
	SubmissionTTL time.Duration
}

// Load reads the configuration. Values already in the environment win over
// those in the .env files; missing .env files are ignored.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, err
	}
	tokenTTL, err := getDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	submissionTTL, err := getDuration("SUBMISSION_TTL", 90*24*time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:      port,
		DBPath:    getEnv("DB_PATH", "./data/billsplit.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  tokenTTL,

		ContactsPath: getEnv("CONTACTS_PATH", "contacts.json"),
		GroupFilter:  getEnv("GROUP_FILTER", "at&t"),

		LedgerBackend:    strings.ToLower(getEnv("LEDGER_BACKEND", BackendLocal)),
		LedgerPayerEmail: getEnv("LEDGER_PAYER_EMAIL", ""),
		SplitwiseAPIKey:  getEnv("SPLITWISE_API_KEY", ""),
		SplitwiseBaseURL: getEnv("SPLITWISE_BASE_URL", ""),

		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		SubmissionTTL: submissionTTL,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.LedgerBackend {
	case BackendLocal:
	case BackendSplitwise:
		if c.SplitwiseAPIKey == "" {
			return errors.New("SPLITWISE_API_KEY is required when LEDGER_BACKEND=splitwise")
		}
	default:
		return fmt.Errorf("unknown LEDGER_BACKEND %q (want %s or %s)", c.LedgerBackend, BackendLocal, BackendSplitwise)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}

// TwilioEnabled reports whether all Twilio credentials are set.
func (c *Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return v, nil
}
