package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfigIsValid verifies the defaults pass validation
func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got %v", err)
	}

	if cfg.Model.Resolution.Height != 256 || cfg.Model.Resolution.Width != 256 {
		t.Errorf("Expected default resolution 256x256, got %dx%d",
			cfg.Model.Resolution.Height, cfg.Model.Resolution.Width)
	}
	if cfg.Shape.Policy != "any" {
		t.Errorf("Expected default policy any, got %s", cfg.Shape.Policy)
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected no error for missing config, got %v", err)
	}
	if cfg.Input.MaskSuffix != "_mask" {
		t.Errorf("Expected default mask suffix, got %q", cfg.Input.MaskSuffix)
	}
}

// TestSaveAndLoadConfig verifies a config survives a write and read
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "brainmask.yaml")

	cfg := DefaultConfig()
	cfg.Shape.Policy = "both"
	cfg.Model.Resolution = Resolution{Height: 512, Width: 512}
	cfg.Output.Summary = "summary.csv"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loaded.Shape.Policy != "both" {
		t.Errorf("Expected policy both, got %s", loaded.Shape.Policy)
	}
	if loaded.Model.Resolution.Width != 512 {
		t.Errorf("Expected width 512, got %d", loaded.Model.Resolution.Width)
	}
	if loaded.Output.Summary != "summary.csv" {
		t.Errorf("Expected summary.csv, got %q", loaded.Output.Summary)
	}
}

// TestPartialConfigKeepsDefaults verifies that unspecified keys keep their defaults
func TestPartialConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("shape:\n  policy: both\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Shape.Policy != "both" {
		t.Errorf("Expected policy both, got %s", cfg.Shape.Policy)
	}
	if cfg.Shape.Filter != "linear" {
		t.Errorf("Expected default filter linear, got %s", cfg.Shape.Filter)
	}
	if cfg.Output.SkipReport != "skipped.txt" {
		t.Errorf("Expected default skip report, got %s", cfg.Output.SkipReport)
	}
}

// TestLoadConfigInvalidYAML verifies parse errors are reported
func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("model: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}

// TestValidate covers the rejected settings
func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no extensions":   func(c *Config) { c.Input.Extensions = nil },
		"bad extension":   func(c *Config) { c.Input.Extensions = []string{"nii"} },
		"empty suffix":    func(c *Config) { c.Input.MaskSuffix = "" },
		"unknown model":   func(c *Config) { c.Model.Kind = "resnet" },
		"onnx no path":    func(c *Config) { c.Model.Kind = "onnx" },
		"zero resolution": func(c *Config) { c.Model.Resolution.Width = 0 },
		"big foreground":  func(c *Config) { c.Model.Foreground = 300 },
		"no skip report":  func(c *Config) { c.Output.SkipReport = "" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", name)
			}
		})
	}
}

// TestCreateDefaultConfigFile verifies the generated file loads back
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("Failed to create default config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected generated config to be valid, got %v", err)
	}
}
