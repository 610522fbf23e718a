package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const defaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

// AppConfig holds all configuration for the application
type AppConfig struct {
	PracticumToken     string
	PracticumEndpoint  string
	TelegramToken      string
	TelegramChatID     int64
	PollInterval       time.Duration // Sleep between poll cycles
	InitialLookback    time.Duration // First query window starts this far in the past
	HTTPTimeout        time.Duration
	TelegramRatePerSec float64
	LogLevel           string
	Environment        string
	LogFile            string
	LogMaxSizeMB       int
	LogMaxBackups      int
}

// MissingError lists every required variable that is unset.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("required environment variables are not set: %s", strings.Join(e.Vars, ", "))
}

// MinPollInterval is the shortest accepted POLL_INTERVAL.
const MinPollInterval = time.Second

// Defaults returns the optional settings with their default values and no
// credentials. It is enough to set up logging before the environment is read.
func Defaults() *AppConfig {
	return &AppConfig{
		PracticumEndpoint:  defaultEndpoint,
		PollInterval:       10 * time.Minute,
		InitialLookback:    30 * time.Minute,
		HTTPTimeout:        30 * time.Second,
		TelegramRatePerSec: 1, // Telegram allows roughly one message per second per chat
		LogLevel:           "debug",
		Environment:        "development",
		LogFile:            "homework.log",
		LogMaxSizeMB:       50,
		LogMaxBackups:      5,
	}
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from getenv. Required values are checked
// first, so a missing token is reported even if optional values are invalid.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	cfg := Defaults()
	var err error

	cfg.PracticumToken = strings.TrimSpace(getenv("PRACTICUM_TOKEN"))
	cfg.TelegramToken = strings.TrimSpace(getenv("TELEGRAM_TOKEN"))
	chatIDStr := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID"))

	var missing []string
	if cfg.PracticumToken == "" {
		missing = append(missing, "PRACTICUM_TOKEN")
	}
	if cfg.TelegramToken == "" {
		missing = append(missing, "TELEGRAM_TOKEN")
	}
	if chatIDStr == "" {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return nil, &MissingError{Vars: missing}
	}

	cfg.TelegramChatID, err = strconv.ParseInt(chatIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
	}

	if v := getenv("PRACTICUM_ENDPOINT"); v != "" {
		cfg.PracticumEndpoint = v
	}

	if cfg.PollInterval, err = durationAtLeast(getenv, "POLL_INTERVAL", cfg.PollInterval, MinPollInterval); err != nil {
		return nil, err
	}
	if cfg.InitialLookback, err = durationOr(getenv, "INITIAL_LOOKBACK", cfg.InitialLookback); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationOr(getenv, "HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return nil, err
	}

	if v := getenv("TELEGRAM_RATE_PER_SEC"); v != "" {
		cfg.TelegramRatePerSec, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_RATE_PER_SEC: %w", err)
		}
	}

	if v := strings.ToLower(getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.ToLower(getenv("ENVIRONMENT")); v != "" {
		cfg.Environment = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if cfg.LogMaxSizeMB, err = intOr(getenv, "LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB); err != nil {
		return nil, err
	}
	if cfg.LogMaxBackups, err = intOr(getenv, "LOG_MAX_BACKUPS", cfg.LogMaxBackups); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationOr(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

// durationAtLeast is durationOr with a lower bound.
func durationAtLeast(getenv func(string) string, key string, def, floor time.Duration) (time.Duration, error) {
	d, err := durationOr(getenv, key, def)
	if err != nil {
		return 0, err
	}
	if d < floor {
		return 0, fmt.Errorf("invalid %s: must be at least %s", key, floor)
	}
	return d, nil
}

func intOr(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
