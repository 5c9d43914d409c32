// Package config provides configuration helpers and TOML parsing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Unset fields are nil
// so command-line flags and built-in defaults can fill them.
type FileConfig struct {
	Practice PracticeConfig          `toml:"practice"`
	Gesture  GestureConfig           `toml:"gesture"`
	Wave     WaveConfig              `toml:"wave"`
	Aux      []AuxConfig             `toml:"aux"`
	Source   SourceConfig            `toml:"source"`
	Layouts  map[string]CustomLayout `toml:"layouts"`
	Log      LogConfig               `toml:"log"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Layout      *string  `toml:"layout"`
	Phrases     *int     `toml:"phrases"`
	PhrasesFile *string  `toml:"phrases-file"`
	Watch       *bool    `toml:"watch"`
	CapsPct     *float64 `toml:"caps"`
	FocusWeak   *bool    `toml:"focus-weak"`
	WeakTop     *int     `toml:"weak-top"`
	WeakFactor  *float64 `toml:"weak-factor"`
	WeakWindow  *int     `toml:"weak-window"`
	Advance     *string  `toml:"advance"`
	Backspace   *string  `toml:"backspace"`
	Shift       *string  `toml:"shift"`
}

// GestureConfig maps the decoder settings.
type GestureConfig struct {
	Mode            *string        `toml:"mode"`
	Hand            *string        `toml:"hand"`
	Trigger         *string        `toml:"trigger"`
	CategoryFinger  *string        `toml:"category-finger"`
	KeyFingers      []string       `toml:"key-fingers"`
	Anchor          *string        `toml:"anchor"`
	Classifier      *string        `toml:"classifier"`
	Epsilon         *float64       `toml:"epsilon"`
	MinDisplacement *float64       `toml:"min-displacement"`
	Stages          *int           `toml:"stages"`
	CancelOnRelease *bool          `toml:"cancel-on-release"`
	Timeout         *time.Duration `toml:"timeout"`
}

// WaveConfig maps the wave detector settings.
type WaveConfig struct {
	Enabled *bool          `toml:"enabled"`
	Hand    *string        `toml:"hand"`
	Joint   *string        `toml:"joint"`
	MinStep *float64       `toml:"min-step"`
	Changes *int           `toml:"changes"`
	Window  *time.Duration `toml:"window"`
	Action  *string        `toml:"action"`
}

// AuxConfig binds one finger edge to an action. Any [[aux]] entry replaces
// the default bindings.
type AuxConfig struct {
	Hand    string `toml:"hand"`
	Finger  string `toml:"finger"`
	Trigger string `toml:"trigger"`
	Action  string `toml:"action"`
}

// SourceConfig selects and tunes the hand-tracking source.
type SourceConfig struct {
	Kind           *string  `toml:"kind"`
	Listen         *string  `toml:"listen"`
	Python         *string  `toml:"python"`
	Script         *string  `toml:"script"`
	Replay         *string  `toml:"replay"`
	Loop           *bool    `toml:"loop"`
	Speed          *float64 `toml:"speed"`
	PinchThreshold *float64 `toml:"pinch-threshold"`
	PinchRange     *float64 `toml:"pinch-range"`
	MinScore       *float64 `toml:"min-score"`
}

// CustomLayout is a user-defined layout: one 6x6 grid of tokens per layer.
type CustomLayout struct {
	Layers [][][]string `toml:"layers"`
}

// LogConfig controls the log file.
type LogConfig struct {
	Level *string `toml:"level"`
	Path  *string `toml:"path"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg FileConfig) (string, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.String(), nil
}

// WriteConfig writes cfg to path, creating parent directories. An existing
// file is kept unless force is set.
func WriteConfig(path string, cfg FileConfig, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists at %s", path)
		}
	}
	text, err := Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
