package proofread

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable settings of the proofreading core.
type Config struct {
	TolerancePixels         int // Per-coordinate tolerance when comparing word boxes
	CriticalThresholdPixels int // Pixel delta beyond which a mismatch is critical
	MaxUploadSizeMB         int // Advisory working-set quota, enforced by callers
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		TolerancePixels:         2,
		CriticalThresholdPixels: 20,
		MaxUploadSizeMB:         700,
	}
}

// MaxUploadSizeBytes returns the advisory quota in bytes.
func (c Config) MaxUploadSizeBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

type yamlConfig struct {
	MaxUploadSizeMB *int `yaml:"max_upload_size_mb"`
	BBox            struct {
		TolerancePixels         *int `yaml:"tolerance_pixels"`
		CriticalThresholdPixels *int `yaml:"critical_threshold_pixels"`
	} `yaml:"bbox"`
}

// LoadConfig reads settings from a YAML file:
//
//	max_upload_size_mb: 700
//	bbox:
//	  tolerance_pixels: 2
//	  critical_threshold_pixels: 20
//
// A missing file yields the defaults. Absent keys keep their default value;
// an explicit zero is respected (zero tolerance is meaningful).
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}

	if yc.MaxUploadSizeMB != nil {
		cfg.MaxUploadSizeMB = *yc.MaxUploadSizeMB
	}
	if yc.BBox.TolerancePixels != nil {
		cfg.TolerancePixels = *yc.BBox.TolerancePixels
	}
	if yc.BBox.CriticalThresholdPixels != nil {
		cfg.CriticalThresholdPixels = *yc.BBox.CriticalThresholdPixels
	}
	return cfg, nil
}
