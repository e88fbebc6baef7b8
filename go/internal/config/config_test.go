package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/chooser/go/internal/touch"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chooser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, touch.DefaultInactivity, cfg.Inactivity)
	assert.Equal(t, touch.ModeGroupSplitter, cfg.DefaultMode)
	assert.Equal(t, 2, cfg.GroupCount)
	assert.Len(t, cfg.Palette, 10)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("NATS_URL", "nats://example:4222")
	t.Setenv("CHOOSER_DEFAULT_MODE", "pickOne")
	t.Setenv("CHOOSER_INACTIVITY_MS", "1500")
	t.Setenv("CHOOSER_GROUP_COUNT", "4")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, "nats://example:4222", cfg.NATSURL)
	assert.Equal(t, touch.ModePickOne, cfg.DefaultMode)
	assert.Equal(t, 1500*time.Millisecond, cfg.Inactivity)
	assert.Equal(t, 4, cfg.GroupCount)
}

func TestApplyEnvRejectsNonInteger(t *testing.T) {
	t.Setenv("CHOOSER_INACTIVITY_MS", "soon")

	cfg := Default()
	assert.ErrorContains(t, cfg.ApplyEnv(), "CHOOSER_INACTIVITY_MS must be an integer")
}

func TestApplyFileOverlaysSettings(t *testing.T) {
	path := writeFile(t, `
session:
  inactivity_ms: 3000
  default_mode: pickOne
  group_count: 3
palette:
  - "#ff0000"
  - "#0f0"
group_palettes:
  2: ["#111111", "#222222"]
`)

	cfg := Default()
	require.NoError(t, cfg.ApplyFile(path))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3*time.Second, cfg.Inactivity)
	assert.Equal(t, touch.ModePickOne, cfg.DefaultMode)
	assert.Equal(t, 3, cfg.GroupCount)
	assert.Equal(t, []string{"#FF0000", "#00FF00"}, cfg.Palette)
	assert.Equal(t, []string{"#111111", "#222222"}, cfg.GroupPalettes[2])
	assert.Equal(t, touch.DefaultGroupPalettes()[4], cfg.GroupPalettes[4])
}

func TestApplyFileErrors(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, cfg.ApplyFile(filepath.Join(t.TempDir(), "missing.yaml")), "failed to read config file")

	bad := writeFile(t, "session: [")
	assert.ErrorContains(t, cfg.ApplyFile(bad), "failed to parse config")
}

func TestValidateRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   error
		substr string
	}{
		{name: "group count", mutate: func(c *Config) { c.GroupCount = 5 }, want: touch.ErrInvalidGroupCount},
		{name: "mode", mutate: func(c *Config) { c.DefaultMode = "groupChecker" }, want: touch.ErrUnknownMode},
		{name: "palette color", mutate: func(c *Config) { c.Palette = []string{"red"} }, want: touch.ErrInvalidPalette},
		{name: "duplicate palette color", mutate: func(c *Config) { c.Palette = []string{"#ff3b30", "#FF3B30", "#007AFF"} }, want: touch.ErrInvalidPalette},
		{name: "duplicate group color", mutate: func(c *Config) { c.GroupPalettes[2] = []string{"#0f0", "#00FF00"} }, want: touch.ErrInvalidPalette},
		{name: "group palette size", mutate: func(c *Config) { c.GroupPalettes[3] = []string{"#000000"} }, want: touch.ErrInvalidPalette},
		{name: "inactivity", mutate: func(c *Config) { c.Inactivity = 0 }, substr: "inactivity must be positive"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, substr: "log level"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
				return
			}
			assert.ErrorContains(t, err, tc.substr)
		})
	}
}

func TestLoadReadsFileNamedByEnv(t *testing.T) {
	path := writeFile(t, "session:\n  group_count: 4\n")
	t.Setenv("CHOOSER_CONFIG", path)
	t.Setenv("CHOOSER_GROUP_COUNT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.GroupCount)

	opts := cfg.SessionOptions()
	assert.Equal(t, 4, opts.GroupCount)
	assert.Equal(t, cfg.Palette, opts.Palette)
}
