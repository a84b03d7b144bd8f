package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Storage.FilePrefix != "static_storage_" {
		t.Errorf("expected FilePrefix=static_storage_, got %s", cfg.Storage.FilePrefix)
	}
	if cfg.Storage.Variant != VariantDebounced {
		t.Errorf("expected Variant=debounced, got %s", cfg.Storage.Variant)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "staticstore.yaml")

	cfg := DefaultConfig()
	cfg.Storage.Slot = 4
	cfg.Storage.SaveDir = "saves"
	cfg.Logging.DebugMode = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Storage.Slot != 4 {
		t.Errorf("expected Slot=4, got %d", loaded.Storage.Slot)
	}
	if loaded.Storage.SaveDir != "saves" {
		t.Errorf("expected SaveDir=saves, got %s", loaded.Storage.SaveDir)
	}
	if !loaded.Logging.DebugMode {
		t.Error("expected DebugMode=true")
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.SaveDir != "save" {
		t.Errorf("expected default SaveDir, got %s", cfg.Storage.SaveDir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]func(c *Config){
		"negative slot":   func(c *Config) { c.Storage.Slot = -1 },
		"empty prefix":    func(c *Config) { c.Storage.FilePrefix = "" },
		"prefix with dir": func(c *Config) { c.Storage.FilePrefix = "a/b" },
		"empty save dir":  func(c *Config) { c.Storage.SaveDir = "" },
		"unknown variant": func(c *Config) { c.Storage.Variant = "eventual" },
		"bad interval":    func(c *Config) { c.Storage.DebounceInterval = "soon" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestConfig_Location(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.ProjectRoot = "/games/demo"
	cfg.Storage.Slot = 2

	loc := cfg.Location()
	if want := filepath.Join("/games/demo", "save", "static_storage_2.json"); loc.Path() != want {
		t.Errorf("expected %s, got %s", want, loc.Path())
	}

	cfg.Storage.SaveDir = "/var/saves"
	if got := cfg.SaveDirPath(); got != "/var/saves" {
		t.Errorf("absolute save_dir should be kept, got %s", got)
	}
}

func TestConfig_GetDebounceInterval(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.GetDebounceInterval(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", got)
	}

	cfg.Storage.DebounceInterval = "1ms"
	if got := cfg.GetDebounceInterval(); got != 50*time.Millisecond {
		t.Errorf("expected clamp to 50ms, got %v", got)
	}

	cfg.Storage.DebounceInterval = "1h"
	if got := cfg.GetDebounceInterval(); got != 10*time.Second {
		t.Errorf("expected clamp to 10s, got %v", got)
	}

	cfg.Storage.Variant = VariantImmediate
	if got := cfg.GetDebounceInterval(); got != 0 {
		t.Errorf("immediate variant has no interval, got %v", got)
	}
}

func TestLoggingConfig_Options(t *testing.T) {
	lc := LoggingConfig{DebugMode: true, Format: "json", Level: "debug", Categories: map[string]bool{"io": false}}
	opts := lc.Options()
	if !opts.JSONFormat || opts.Level != "debug" || !opts.DebugMode {
		t.Errorf("unexpected options: %+v", opts)
	}
	if lc.IsCategoryEnabled("io") {
		t.Error("io should be disabled")
	}
	if !lc.IsCategoryEnabled("store") {
		t.Error("unlisted category should be enabled")
	}
}
