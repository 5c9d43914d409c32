package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/flicktype/internal/direction"
	"github.com/verte-zerg/flicktype/internal/gesture"
	"github.com/verte-zerg/flicktype/internal/hand"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing config should not fail: %v", err)
	}
	if cfg.Practice.Layout != nil {
		t.Fatalf("expected empty config")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "[practice]\nlayuot = \"kana\"\n")
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "layuot") {
		t.Fatalf("err = %v, want unknown key", err)
	}
}

func TestGestureSettings(t *testing.T) {
	path := writeConfig(t, `
[gesture]
hand = "left"
trigger = "bend"
category-finger = "ring"
key-fingers = ["index", "middle"]
anchor = "wrist"
classifier = "dot"
min-displacement = 0.08
stages = 3
timeout = "2s"

[wave]
enabled = false

[[aux]]
hand = "right"
finger = "index"
action = "space"
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg, err := fc.GestureSettings()
	if err != nil {
		t.Fatalf("gesture settings: %v", err)
	}
	if cfg.Hand != hand.Left || cfg.Trigger != gesture.TriggerBend || cfg.CategoryFinger != hand.Ring {
		t.Fatalf("unexpected hand/trigger/finger: %+v", cfg)
	}
	if len(cfg.KeyFingers) != 2 || cfg.KeyFingers[1] != hand.Middle {
		t.Fatalf("key fingers = %v", cfg.KeyFingers)
	}
	if cfg.Anchor != hand.Wrist || cfg.Stages != 3 || cfg.Timeout != 2*time.Second || cfg.MinDisplacement != 0.08 {
		t.Fatalf("unexpected settings: %+v", cfg)
	}
	if _, ok := cfg.Classifier.(direction.DotProduct); !ok {
		t.Fatalf("classifier = %T", cfg.Classifier)
	}
	if cfg.Wave.Enabled {
		t.Fatalf("wave should be disabled")
	}
	if len(cfg.Aux) != 1 || cfg.Aux[0].Action != gesture.ActionSpace || cfg.Aux[0].Trigger != gesture.TriggerPinch {
		t.Fatalf("aux = %+v", cfg.Aux)
	}
}

func TestGestureSettingsDefaultsAndErrors(t *testing.T) {
	cfg, err := FileConfig{}.GestureSettings()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	def := gesture.DefaultConfig()
	if cfg.Hand != def.Hand || cfg.Stages != def.Stages || len(cfg.Aux) != len(def.Aux) {
		t.Fatalf("defaults changed: %+v", cfg)
	}

	bad := "index"
	fc := FileConfig{Gesture: GestureConfig{CategoryFinger: &bad, KeyFingers: []string{"index"}}}
	if _, err := fc.GestureSettings(); err == nil {
		t.Fatalf("expected error for finger used twice")
	}
	mode := "swipe"
	if _, err := (FileConfig{Gesture: GestureConfig{Mode: &mode}}).RecognizerMode(); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestCustomLayout(t *testing.T) {
	path := writeConfig(t, `
[layouts.mine]
layers = [[
  ["a", "b", "c", "d", "e", "f"],
  ["g", "h", "i", "j", "k", "l"],
  ["m", "n", "o", "p", "q", "r"],
  ["s", "t", "u", "v", "w", "x"],
  ["y", "z", "SPACE", "BS", "", ""],
  ["1", "2", "3", "4", "5", "6"],
]]
`)
	fc, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l, err := fc.Layout("mine")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	key, err := l.Lookup(0, direction.Right, direction.Left)
	if err != nil || key.Text != "b" {
		t.Fatalf("lookup = %+v, %v", key, err)
	}
	if _, err := fc.Layout("kana"); err != nil {
		t.Fatalf("builtin fallback: %v", err)
	}
	names := fc.LayoutNames()
	if len(names) != 4 || names[2] != "kana" || names[3] != "mine" {
		t.Fatalf("names = %v", names)
	}
}

func TestWriteConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	layout := "kana"
	timeout := 3 * time.Second
	cfg := FileConfig{
		Practice: PracticeConfig{Layout: &layout},
		Gesture:  GestureConfig{Timeout: &timeout},
	}
	if err := WriteConfig(path, cfg, false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteConfig(path, cfg, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Practice.Layout == nil || *got.Practice.Layout != "kana" {
		t.Fatalf("layout not round-tripped")
	}
	if got.Gesture.Timeout == nil || *got.Gesture.Timeout != timeout {
		t.Fatalf("timeout not round-tripped")
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/config")
	if got := DefaultLogPath(); got != filepath.Join("/tmp/state", "flicktype", "flicktype.log") {
		t.Fatalf("log path = %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "flicktype", "flicktype.db") {
		t.Fatalf("db path = %q", got)
	}
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/config", "flicktype", "config.toml") {
		t.Fatalf("config path = %q", got)
	}
}
