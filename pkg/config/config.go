package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/aromabox/pintone/pkg/dtmf"
	"github.com/aromabox/pintone/pkg/sample"
)

// Output names accepted in the output key.
const (
	OutputSpeaker = "speaker"
	OutputWAV     = "wav"
	OutputStub    = "stub"
)

// ErrInvalidOutput is returned for an unknown output name.
var ErrInvalidOutput = errors.New("output must be one of speaker, wav, stub")

// Tone defines how each keypad symbol is rendered.
type Tone struct {
	SampleRate int `toml:"sample_rate"`
	DurationMs int `toml:"duration_ms"` // Tone length in milliseconds
	GapMs      int `toml:"gap_ms"`      // Silence between tones in milliseconds
}

// Validate checks if the tone configuration is valid.
func (t *Tone) Validate() error {
	if t.SampleRate <= 0 {
		return errors.New("sample_rate must be positive")
	}
	if t.DurationMs <= 0 {
		return errors.New("duration_ms must be positive")
	}
	if t.GapMs < 0 {
		return errors.New("gap_ms cannot be negative")
	}
	return nil
}

// Duration returns the tone length.
func (t Tone) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// Gap returns the inter-tone silence.
func (t Tone) Gap() time.Duration {
	return time.Duration(t.GapMs) * time.Millisecond
}

// Queue defines the configuration for the transmission queue.
type Queue struct {
	MaxLength int `toml:"max_length"`
}

// Validate checks if the queue configuration is valid.
func (q *Queue) Validate() error {
	if q.MaxLength < 0 {
		return fmt.Errorf("max_length cannot be negative")
	}
	if q.MaxLength == 0 {
		q.MaxLength = 1 // Default to 1 if not specified
	}
	return nil
}

// Config holds the complete pintone configuration.
type Config struct {
	Debug   bool   `toml:"debug"`
	Output  string `toml:"output"`
	WAVPath string `toml:"wav_path"`
	Tone    Tone   `toml:"tone"`
	Queue   Queue  `toml:"queue"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Output:  OutputSpeaker,
		WAVPath: "pin.wav",
		Tone: Tone{
			SampleRate: sample.DefaultSampleRate,
			DurationMs: int(dtmf.DefaultToneDuration / time.Millisecond),
			GapMs:      int(dtmf.DefaultGap / time.Millisecond),
		},
		Queue: Queue{MaxLength: 1},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch c.Output {
	case OutputSpeaker, OutputStub:
	case OutputWAV:
		if c.WAVPath == "" {
			return errors.New("wav_path cannot be empty when output is wav")
		}
	default:
		return fmt.Errorf("%w, got '%s'", ErrInvalidOutput, c.Output)
	}
	if err := c.Tone.Validate(); err != nil {
		return fmt.Errorf("invalid tone: %w", err)
	}
	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("invalid queue: %w", err)
	}
	return nil
}

// Locate returns the config files to try, in order of increasing priority:
// system-wide, the XDG user config, then the working directory.
func Locate(log zerolog.Logger) []string {
	files := []string{"/usr/local/etc/pintone.toml"}

	userConfigPath, err := xdg.ConfigFile("pintone/pintone.toml")
	if err == nil {
		files = append(files, userConfigPath)
	} else {
		log.Warn().Err(err).Msg("Could not determine user config directory")
	}

	return append(files, "./pintone.toml")
}

// LoadConfig reads and validates configuration from a TOML file on top of the
// defaults.
func LoadConfig(path string, log zerolog.Logger) (*Config, error) {
	return LoadFiles([]string{path}, true, log)
}

// LoadFiles merges the given files over the defaults, later files overriding
// earlier ones. Missing files are an error only when required is set.
func LoadFiles(paths []string, required bool, log zerolog.Logger) (*Config, error) {
	cfg := Default()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) && !required {
				continue
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		log.Debug().Str("path", path).Msg("Loading configuration file")
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML '%s': %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("output", cfg.Output).
		Int("sample_rate", cfg.Tone.SampleRate).
		Int("duration_ms", cfg.Tone.DurationMs).
		Int("gap_ms", cfg.Tone.GapMs).
		Msg("Configuration loaded and validated successfully")
	return cfg, nil
}
