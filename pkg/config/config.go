// Package config provides configuration loading and management for brainmask.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resolution is a slice size in a form that reads naturally in YAML
type Resolution struct {
	Height int `yaml:"height"`
	Width  int `yaml:"width"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Input controls scan discovery
	Input struct {
		// TargetDir is searched recursively for scans
		TargetDir string `yaml:"targetDir"`

		// Extensions lists the accepted scan file extensions
		Extensions []string `yaml:"extensions"`

		// MaskSuffix is appended to the file stem of each output mask.
		// Files whose stem already ends with it are not treated as scans.
		MaskSuffix string `yaml:"maskSuffix"`
	} `yaml:"input"`

	// Model selects and parameterizes the segmentation model
	Model struct {
		// Kind is either "threshold" or "onnx"
		Kind string `yaml:"kind"`

		// Resolution is the only slice size the model accepts
		Resolution Resolution `yaml:"resolution"`

		// Foreground is the label written for mask voxels
		Foreground int `yaml:"foreground"`

		ONNX struct {
			// Path to the exported network
			Path string `yaml:"path"`

			// LibraryPath points at the onnxruntime shared library
			LibraryPath string `yaml:"libraryPath"`

			InputName  string `yaml:"inputName"`
			OutputName string `yaml:"outputName"`

			// InputScale multiplies 0..255 intensities before inference
			InputScale float64 `yaml:"inputScale"`

			// Threshold turns output probabilities into labels
			Threshold float64 `yaml:"threshold"`
		} `yaml:"onnx"`
	} `yaml:"model"`

	// Shape controls the resize step around the model call
	Shape struct {
		// Policy is "any" (resize if either dimension differs) or
		// "both" (resize only if both dimensions differ)
		Policy string `yaml:"policy"`

		// Filter is the interpolation used for every resize
		Filter string `yaml:"filter"`
	} `yaml:"shape"`

	// Output parameters
	Output struct {
		// SkipReport is the path of the skipped files report
		SkipReport string `yaml:"skipReport"`

		// Summary is an optional CSV with one row per processed file
		Summary string `yaml:"summary"`

		// PreviewDir enables PNG overlays of every mask slice
		PreviewDir string `yaml:"previewDir"`

		// LogLevel controls the level of logging output
		LogLevel string `yaml:"logLevel"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Input.TargetDir = "images/"
	cfg.Input.Extensions = []string{".nii", ".nii.gz"}
	cfg.Input.MaskSuffix = "_mask"

	cfg.Model.Kind = "threshold"
	cfg.Model.Resolution = Resolution{Height: 256, Width: 256}
	cfg.Model.Foreground = 1
	cfg.Model.ONNX.InputName = "input"
	cfg.Model.ONNX.OutputName = "output"
	cfg.Model.ONNX.InputScale = 1.0 / 255.0
	cfg.Model.ONNX.Threshold = 0.5

	cfg.Shape.Policy = "any"
	cfg.Shape.Filter = "linear"

	cfg.Output.SkipReport = "skipped.txt"
	cfg.Output.LogLevel = "info"

	return cfg
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if len(c.Input.Extensions) == 0 {
		return fmt.Errorf("input.extensions must not be empty")
	}
	for _, ext := range c.Input.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("input.extensions: %q must start with a dot", ext)
		}
	}
	if c.Input.MaskSuffix == "" {
		return fmt.Errorf("input.maskSuffix must not be empty")
	}

	switch c.Model.Kind {
	case "threshold":
	case "onnx":
		if c.Model.ONNX.Path == "" {
			return fmt.Errorf("model.onnx.path is required for the onnx model")
		}
	default:
		return fmt.Errorf("model.kind: unknown model %q", c.Model.Kind)
	}
	if c.Model.Resolution.Height <= 0 || c.Model.Resolution.Width <= 0 {
		return fmt.Errorf("model.resolution must be positive, got %dx%d",
			c.Model.Resolution.Height, c.Model.Resolution.Width)
	}
	if c.Model.Foreground < 1 || c.Model.Foreground > 255 {
		return fmt.Errorf("model.foreground must be in [1, 255], got %d", c.Model.Foreground)
	}

	if c.Output.SkipReport == "" {
		return fmt.Errorf("output.skipReport must not be empty")
	}

	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
