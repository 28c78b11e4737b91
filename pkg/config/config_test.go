package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, OutputSpeaker, cfg.Output)
	assert.Equal(t, 44100, cfg.Tone.SampleRate)
	assert.Equal(t, 150*time.Millisecond, cfg.Tone.Duration())
	assert.Equal(t, 100*time.Millisecond, cfg.Tone.Gap())
	assert.Equal(t, 1, cfg.Queue.MaxLength)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "pintone.toml", `
debug = true
output = "wav"
wav_path = "out.wav"

[tone]
duration_ms = 80
gap_ms = 40

[queue]
max_length = 3
`)

	cfg, err := LoadConfig(path, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, OutputWAV, cfg.Output)
	assert.Equal(t, "out.wav", cfg.WAVPath)
	assert.Equal(t, 80, cfg.Tone.DurationMs)
	assert.Equal(t, 40, cfg.Tone.GapMs)
	// Keys missing from the file keep their defaults.
	assert.Equal(t, 44100, cfg.Tone.SampleRate)
	assert.Equal(t, 3, cfg.Queue.MaxLength)
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"), zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadConfigBadTOML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "bad.toml", "[tone\nduration_ms = ")
	_, err := LoadConfig(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestLoadFilesOverride(t *testing.T) {
	dir := t.TempDir()
	system := writeConfig(t, dir, "system.toml", "[tone]\nduration_ms = 60\ngap_ms = 60\n")
	local := writeConfig(t, dir, "local.toml", "[tone]\ngap_ms = 30\n")

	cfg, err := LoadFiles([]string{system, filepath.Join(dir, "absent.toml"), local}, false, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Tone.DurationMs)
	assert.Equal(t, 30, cfg.Tone.GapMs)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"stub output", func(c *Config) { c.Output = OutputStub }, true},
		{"unknown output", func(c *Config) { c.Output = "radio" }, false},
		{"wav without path", func(c *Config) { c.Output = OutputWAV; c.WAVPath = "" }, false},
		{"zero sample rate", func(c *Config) { c.Tone.SampleRate = 0 }, false},
		{"zero duration", func(c *Config) { c.Tone.DurationMs = 0 }, false},
		{"negative gap", func(c *Config) { c.Tone.GapMs = -1 }, false},
		{"zero gap", func(c *Config) { c.Tone.GapMs = 0 }, true},
		{"negative queue", func(c *Config) { c.Queue.MaxLength = -2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateUnknownOutput(t *testing.T) {
	cfg := Default()
	cfg.Output = "radio"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidOutput)
}

func TestQueueDefaultsLength(t *testing.T) {
	q := Queue{}
	require.NoError(t, q.Validate())
	assert.Equal(t, 1, q.MaxLength)
}

func TestLocate(t *testing.T) {
	files := Locate(zerolog.Nop())
	require.NotEmpty(t, files)
	assert.Equal(t, "/usr/local/etc/pintone.toml", files[0])
	assert.Equal(t, "./pintone.toml", files[len(files)-1])
}
