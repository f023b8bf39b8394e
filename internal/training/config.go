package training

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/vettriage/internal/engine/forest"
)

// Config controls a training run. Zero values in a YAML file keep the
// defaults.
type Config struct {
	TargetColumn    string        `yaml:"target_column"`
	TestFraction    float64       `yaml:"test_fraction"`
	MinClassSamples int           `yaml:"min_class_samples"`
	Forest          forest.Params `yaml:"forest"`
}

// DefaultConfig returns an 80/20 split, a 3-sample class floor and the
// default forest.
func DefaultConfig() Config {
	return Config{
		TargetColumn:    "Disease_Prediction",
		TestFraction:    0.2,
		MinClassSamples: 3,
		Forest:          forest.DefaultParams(),
	}
}

// LoadConfig reads YAML from path over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("training: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("training: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.TargetColumn == "" {
		return fmt.Errorf("training: target column is required")
	}
	if c.TestFraction < 0 || c.TestFraction >= 1 {
		return fmt.Errorf("training: test fraction must be in [0,1), got %v", c.TestFraction)
	}
	if c.MinClassSamples < 1 {
		return fmt.Errorf("training: min class samples must be at least 1, got %d", c.MinClassSamples)
	}
	if c.Forest.Trees <= 0 {
		return fmt.Errorf("training: forest trees must be positive, got %d", c.Forest.Trees)
	}
	return nil
}
