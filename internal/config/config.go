package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"anti-instagram/internal/logger"

	"gopkg.in/yaml.v3"
)

const component = "Config"

// Blur strategies applied before clustering
const (
	BlurMedian   = "median"
	BlurGaussian = "gaussian"
	BlurNone     = "none"
)

// Config is read once at start-up; there is no hot reload
type Config struct {
	// Interval is the tick period while looking for the initial transform
	Interval time.Duration `yaml:"interval"`
	// ContinuousInterval replaces Interval once a transform is accepted; zero keeps Interval
	ContinuousInterval time.Duration `yaml:"continuous_interval"`
	// ThrottleTicks is the number of continuous ticks per linear estimation
	ThrottleTicks int `yaml:"throttle_ticks"`

	FancyGeom    bool    `yaml:"fancy_geom"`
	NCenters     int     `yaml:"n_centers"`
	Blur         string  `yaml:"blur"`
	Resize       float64 `yaml:"resize"`
	BlurKernel   int     `yaml:"blur_kernel"`
	CBPercentage float64 `yaml:"cb_percentage"`
	TrafoMode    string  `yaml:"trafo_mode"`

	MaxError       float64 `yaml:"max_error"`
	MinScale       float64 `yaml:"min_scale"`
	MaxScale       float64 `yaml:"max_scale"`
	KMeansAttempts int     `yaml:"kmeans_attempts"`

	Verbose bool `yaml:"verbose"`

	Log     LogConfig     `yaml:"log"`
	Source  SourceConfig  `yaml:"source"`
	Publish PublishConfig `yaml:"publish"`

	// Mode is TrafoMode after validation
	Mode TransformMode `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type SourceConfig struct {
	// URI is a camera index ("0"), a stream URL or a directory of still images
	URI string  `yaml:"uri"`
	FPS float64 `yaml:"fps"`
}

type PublishConfig struct {
	Output    string `yaml:"output"`
	QueueSize int    `yaml:"queue_size"`
	Preview   bool   `yaml:"preview"`
}

// Default returns the configuration used when nothing is supplied
func Default() *Config {
	return &Config{
		Interval:       10 * time.Second,
		ThrottleTicks:  10,
		FancyGeom:      false,
		NCenters:       10,
		Blur:           BlurMedian,
		Resize:         0.2,
		BlurKernel:     5,
		CBPercentage:   2,
		TrafoMode:      "cb",
		MaxError:       20,
		MinScale:       0.1,
		MaxScale:       10,
		KMeansAttempts: 3,
		Verbose:        true,
		Log:            LogConfig{Level: "info", Format: "console"},
		Source:         SourceConfig{URI: "0", FPS: 30},
		Publish:        PublishConfig{QueueSize: 16},
		Mode:           ModeColorBalance,
	}
}

// Load reads an optional YAML file over the defaults. Fields omitted from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	return cfg, nil
}

// Resolve turns TrafoMode into Mode. An unrecognized mode is coerced to
// "both" with a warning; it is never fatal.
func (c *Config) Resolve(log logger.Logger) {
	mode, err := ParseTransformMode(c.TrafoMode)
	if err != nil {
		log.Warning(component, "cannot understand trafo_mode, using both", map[string]interface{}{
			"trafo_mode": c.TrafoMode,
		})
		c.TrafoMode = ModeBoth.String()
	}
	c.Mode = mode
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.ContinuousInterval < 0 {
		return fmt.Errorf("continuous_interval must not be negative, got %s", c.ContinuousInterval)
	}
	if c.ThrottleTicks < 1 {
		return fmt.Errorf("throttle_ticks must be at least 1, got %d", c.ThrottleTicks)
	}
	if c.Resize <= 0 || c.Resize > 1 {
		return fmt.Errorf("resize must be in (0, 1], got %g", c.Resize)
	}
	if c.CBPercentage < 0 || c.CBPercentage >= 50 {
		return fmt.Errorf("cb_percentage must be in [0, 50), got %g", c.CBPercentage)
	}
	switch c.Blur {
	case BlurMedian, BlurGaussian:
		if c.BlurKernel < 1 || c.BlurKernel%2 == 0 {
			return fmt.Errorf("blur_kernel must be odd and positive, got %d", c.BlurKernel)
		}
	case BlurNone:
	default:
		return fmt.Errorf("unknown blur strategy %q", c.Blur)
	}
	if c.NCenters < 4 {
		return fmt.Errorf("n_centers must be at least 4, got %d", c.NCenters)
	}
	if c.MaxError <= 0 {
		return fmt.Errorf("max_error must be positive, got %g", c.MaxError)
	}
	if c.MinScale <= 0 || c.MaxScale <= c.MinScale {
		return fmt.Errorf("scale bounds must satisfy 0 < min_scale < max_scale, got [%g, %g]", c.MinScale, c.MaxScale)
	}
	if c.KMeansAttempts < 1 {
		return fmt.Errorf("kmeans_attempts must be at least 1, got %d", c.KMeansAttempts)
	}
	if c.Publish.QueueSize < 1 {
		return fmt.Errorf("publish.queue_size must be at least 1, got %d", c.Publish.QueueSize)
	}
	return nil
}

// ContinuousPeriod is the tick period once calibration is in continuous mode
func (c *Config) ContinuousPeriod() time.Duration {
	if c.ContinuousInterval > 0 {
		return c.ContinuousInterval
	}
	return c.Interval
}

// Fields is the effective configuration as log fields
func (c *Config) Fields() map[string]interface{} {
	return map[string]interface{}{
		"interval":            c.Interval.String(),
		"continuous_interval": c.ContinuousPeriod().String(),
		"throttle_ticks":      c.ThrottleTicks,
		"fancy_geom":          c.FancyGeom,
		"n_centers":           c.NCenters,
		"blur":                c.Blur,
		"resize":              c.Resize,
		"blur_kernel":         c.BlurKernel,
		"cb_percentage":       c.CBPercentage,
		"trafo_mode":          c.Mode.String(),
		"max_error":           c.MaxError,
	}
}
