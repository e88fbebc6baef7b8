package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds everything the chooser binaries read at startup
type Config struct {
	Port          string
	LogLevel      string
	NATSURL       string
	Inactivity    time.Duration
	DefaultMode   touch.Mode
	GroupCount    int
	Palette       []string
	GroupPalettes touch.GroupPalettes
}

// fileConfig is the optional YAML document named by CHOOSER_CONFIG
type fileConfig struct {
	Session struct {
		InactivityMs int    `yaml:"inactivity_ms"`
		DefaultMode  string `yaml:"default_mode"`
		GroupCount   int    `yaml:"group_count"`
	} `yaml:"session"`
	Palette       []string         `yaml:"palette"`
	GroupPalettes map[int][]string `yaml:"group_palettes"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		Port:          "8080",
		LogLevel:      "info",
		Inactivity:    touch.DefaultInactivity,
		DefaultMode:   touch.ModeGroupSplitter,
		GroupCount:    touch.MinGroupCount,
		Palette:       append([]string(nil), touch.DefaultPalette...),
		GroupPalettes: touch.DefaultGroupPalettes(),
	}
}

// Load reads .env, then the YAML file named by CHOOSER_CONFIG, then env overrides
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path := os.Getenv("CHOOSER_CONFIG"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyFile overlays the non-empty fields of a YAML config file
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	if fc.Session.InactivityMs > 0 {
		c.Inactivity = time.Duration(fc.Session.InactivityMs) * time.Millisecond
	}
	if fc.Session.DefaultMode != "" {
		c.DefaultMode = touch.Mode(fc.Session.DefaultMode)
	}
	if fc.Session.GroupCount != 0 {
		c.GroupCount = fc.Session.GroupCount
	}
	if len(fc.Palette) > 0 {
		c.Palette = fc.Palette
	}
	for n, colors := range fc.GroupPalettes {
		c.GroupPalettes[n] = colors
	}

	log.Info().Str("path", path).Msg("loaded config file")
	return nil
}

// ApplyEnv overlays environment variables that are set
func (c *Config) ApplyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.NATSURL = getEnv("NATS_URL", c.NATSURL)
	c.DefaultMode = touch.Mode(getEnv("CHOOSER_DEFAULT_MODE", string(c.DefaultMode)))

	ms, err := getEnvAsInt("CHOOSER_INACTIVITY_MS", int(c.Inactivity/time.Millisecond))
	if err != nil {
		return err
	}
	c.Inactivity = time.Duration(ms) * time.Millisecond

	c.GroupCount, err = getEnvAsInt("CHOOSER_GROUP_COUNT", c.GroupCount)
	return err
}

// Validate checks mode, group count, timing and every color
func (c *Config) Validate() error {
	if _, err := touch.ParseMode(string(c.DefaultMode)); err != nil {
		return fmt.Errorf("default mode: %w", err)
	}
	if !touch.ValidGroupCount(c.GroupCount) {
		return fmt.Errorf("%w: %d", touch.ErrInvalidGroupCount, c.GroupCount)
	}
	if c.Inactivity <= 0 {
		return fmt.Errorf("inactivity must be positive, got %s", c.Inactivity)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	palette, err := normalizeColors(c.Palette)
	if err != nil {
		return fmt.Errorf("palette: %w", err)
	}
	c.Palette = palette

	for n, colors := range c.GroupPalettes {
		norm, err := normalizeColors(colors)
		if err != nil {
			return fmt.Errorf("group palette %d: %w", n, err)
		}
		c.GroupPalettes[n] = norm
	}
	return c.GroupPalettes.Validate()
}

// SessionOptions maps the config onto new-session options
func (c Config) SessionOptions() touch.Options {
	return touch.Options{
		Inactivity:    c.Inactivity,
		Palette:       c.Palette,
		GroupPalettes: c.GroupPalettes,
		Mode:          c.DefaultMode,
		GroupCount:    c.GroupCount,
	}
}

// Level returns the zerolog level, falling back to info
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func normalizeColors(colors []string) ([]string, error) {
	out := make([]string, len(colors))
	seen := make(map[string]bool, len(colors))
	for i, raw := range colors {
		s := strings.TrimSpace(raw)
		col, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", touch.ErrInvalidPalette, raw)
		}
		hex := strings.ToUpper(col.Hex())
		if seen[hex] {
			return nil, fmt.Errorf("%w: duplicate color %s", touch.ErrInvalidPalette, hex)
		}
		seen[hex] = true
		out[i] = hex
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
