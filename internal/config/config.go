package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

type Config struct {
	Environment string `validate:"oneof=development production test"`
	LogLevel    slog.Level
	LogFile     string

	DataDir  string `validate:"required"`
	CastFile string // defaults to <DataDir>/cast.yaml
	Episode  string // defaults to <DataDir>/episode.yaml
	RedisURL string `validate:"omitempty,url"`

	TypingSpeed time.Duration `validate:"gt=0"`
	ExitGrace   time.Duration `validate:"gte=0"`
	ChoiceSlots int           `validate:"gte=1,lte=9"`
	FrameRate   int           `validate:"gte=1,lte=240"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := dialogue.DefaultConfig()
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:     getEnv("LOG_FILE", ""),
		DataDir:     getEnv("DATA_DIR", "data"),
		CastFile:    getEnv("CAST_FILE", ""),
		Episode:     getEnv("EPISODE", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
	}

	var err error
	if cfg.TypingSpeed, err = getDuration("TYPING_SPEED", defaults.TypingSpeed); err != nil {
		return nil, err
	}
	if cfg.ExitGrace, err = getDuration("EXIT_GRACE", defaults.ExitGrace); err != nil {
		return nil, err
	}
	if cfg.ChoiceSlots, err = getInt("CHOICE_SLOTS", defaults.ChoiceSlots); err != nil {
		return nil, err
	}
	if cfg.FrameRate, err = getInt("FRAME_RATE", 60); err != nil {
		return nil, err
	}

	if cfg.CastFile == "" {
		cfg.CastFile = filepath.Join(cfg.DataDir, "cast.yaml")
	}
	if cfg.Episode == "" {
		cfg.Episode = filepath.Join(cfg.DataDir, "episode.yaml")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Dialogue returns the playback settings for a dialogue.Director.
func (c *Config) Dialogue() dialogue.Config {
	return dialogue.Config{
		TypingSpeed: c.TypingSpeed,
		ExitGrace:   c.ExitGrace,
		ChoiceSlots: c.ChoiceSlots,
	}
}

// FrameInterval is the time between two scheduler ticks.
func (c *Config) FrameInterval() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// StoriesDir is where story assets live.
func (c *Config) StoriesDir() string {
	return filepath.Join(c.DataDir, "stories")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts Go durations ("40ms") or a bare number of milliseconds.
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
