package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"
	dirMode        = 0700
	fileMode       = 0600
)

// Config holds the engine settings: training hyperparameters,
// classification thresholds, and scheduler windows.
type Config struct {
	FeatureCount  int     `yaml:"featureCount"`
	LearningRate  float64 `yaml:"learningRate"`
	MaxIterations int     `yaml:"maxIterations"`

	LowThreshold    float64 `yaml:"lowThreshold"`
	MediumThreshold float64 `yaml:"mediumThreshold"`
	HighThreshold   float64 `yaml:"highThreshold"`

	LookbackDays        int     `yaml:"lookbackDays"`
	MaxConcurrentTasks  int64   `yaml:"maxConcurrentTasks"`
	AlertThreshold      float64 `yaml:"alertThreshold"`
	AlertLimit          int     `yaml:"alertLimit"`
	MetricRetentionDays int     `yaml:"metricRetentionDays"`

	LogLevel string `yaml:"logLevel"`
}

func getDefaultConfig() *Config {
	return &Config{
		FeatureCount:        8,
		LearningRate:        0.01,
		MaxIterations:       1000,
		LowThreshold:        0.3,
		MediumThreshold:     0.7,
		HighThreshold:       0.9,
		LookbackDays:        7,
		MaxConcurrentTasks:  3,
		AlertThreshold:      0.7,
		AlertLimit:          50,
		MetricRetentionDays: 30,
		LogLevel:            "info",
	}
}

// Validate checks the fields that break training or classification
// when out of range.
func (c *Config) Validate() error {
	if c.FeatureCount <= 0 {
		return errors.Errorf("featureCount must be positive, got %d", c.FeatureCount)
	}
	if c.LearningRate <= 0 {
		return errors.Errorf("learningRate must be positive, got %f", c.LearningRate)
	}
	if c.MaxIterations <= 0 {
		return errors.Errorf("maxIterations must be positive, got %d", c.MaxIterations)
	}
	if !(c.LowThreshold > 0 && c.LowThreshold < c.MediumThreshold && c.MediumThreshold < c.HighThreshold && c.HighThreshold <= 1) {
		return errors.Errorf("thresholds must be ascending in (0,1]: %f, %f, %f",
			c.LowThreshold, c.MediumThreshold, c.HighThreshold)
	}
	if c.LookbackDays <= 0 {
		return errors.Errorf("lookbackDays must be positive, got %d", c.LookbackDays)
	}
	if c.MaxConcurrentTasks <= 0 {
		return errors.Errorf("maxConcurrentTasks must be positive, got %d", c.MaxConcurrentTasks)
	}
	if c.AlertThreshold <= 0 || c.AlertThreshold >= 1 {
		return errors.Errorf("alertThreshold must be in (0,1), got %f", c.AlertThreshold)
	}
	return nil
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", configFileName)
	}
	return nil
}

// ReadOrCreate reads the engine config from a directory, writing the
// defaults first when no file exists yet.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if _, err := os.Stat(dirPath); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dirPath, dirMode); err != nil {
			return nil, errors.Wrapf(err, "failed to create dir: %s", dirPath)
		}
	}

	path := filepath.Join(dirPath, configFileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := Save(dirPath, getDefaultConfig()); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
	}

	j, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening config file: %s", path)
	}
	defer j.Close()

	b, err := io.ReadAll(j)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return &c, nil
}

// GetOrCreateHomeDir returns the app directory under the current
// user's home. The created flag is true when the directory was made.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, errors.Wrap(err, "failed to get user home dir")
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating app dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, errors.Wrapf(err, "failed to create dir: %s", dir)
		}
		created = true
	}
	return dir, created, nil
}

// Thresholds returns the classification cut points in ascending order.
func (c *Config) Thresholds() (low, medium, high float64) {
	return c.LowThreshold, c.MediumThreshold, c.HighThreshold
}
