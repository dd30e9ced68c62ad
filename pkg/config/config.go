// Package config holds the run configuration shared by the CLI, the API
// server and the TUI.
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// BeatmapConfig selects the two drum notes the beatmap extractor follows.
type BeatmapConfig struct {
	TapNote  uint8 `yaml:"tap_note"`
	HoldNote uint8 `yaml:"hold_note"`
}

// SynthConfig shapes the synth event stream.
type SynthConfig struct {
	OffsetSeconds float64 `yaml:"offset_seconds"`
	ShadowPrefix  string  `yaml:"shadow_prefix"`
	Voice         string  `yaml:"voice"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Config is the main configuration structure
type Config struct {
	Renderer string        `yaml:"renderer"`
	Clock    string        `yaml:"clock"`
	LogLevel string        `yaml:"log_level"`
	Beatmap  BeatmapConfig `yaml:"beatmap"`
	Synth    SynthConfig   `yaml:"synth"`
	Server   ServerConfig  `yaml:"server"`
}

// Renderer and clock names accepted by Validate. They mirror the
// registries in the render and clock packages.
var (
	RendererNames = []string{"dump", "beatmap", "synth"}
	ClockNames    = []string{"sequential", "simultaneous"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Default returns the configuration downstream beatmap and synth loaders
// expect.
func Default() Config {
	return Config{
		Renderer: "dump",
		Clock:    "sequential",
		LogLevel: "info",
		Beatmap: BeatmapConfig{
			TapNote:  37,
			HoldNote: 38,
		},
		Synth: SynthConfig{
			OffsetSeconds: 4.0,
			ShadowPrefix:  "99",
			Voice:         "SineEnv",
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks names and ranges.
func (c Config) Validate() error {
	if !oneOf(c.Renderer, RendererNames) {
		return errors.Errorf("config: unknown renderer %q (want one of %s)", c.Renderer, strings.Join(RendererNames, ", "))
	}
	if !oneOf(c.Clock, ClockNames) {
		return errors.Errorf("config: unknown clock %q (want one of %s)", c.Clock, strings.Join(ClockNames, ", "))
	}
	if !oneOf(c.LogLevel, logLevels) {
		return errors.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if c.Beatmap.TapNote > 127 || c.Beatmap.HoldNote > 127 {
		return errors.New("config: beatmap notes must be 0-127")
	}
	if c.Beatmap.TapNote == c.Beatmap.HoldNote {
		return errors.New("config: beatmap tap and hold notes must differ")
	}
	if c.Synth.ShadowPrefix == "" {
		return errors.New("config: synth shadow_prefix must not be empty")
	}
	if c.Synth.Voice == "" {
		return errors.New("config: synth voice must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
