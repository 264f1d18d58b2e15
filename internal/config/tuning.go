package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for capture tuning
// parameters. Fields are pointers so a partial JSON file overrides only the
// values it names; the Get* accessors supply defaults for the rest.
type TuningConfig struct {
	// Dead-reckoning params
	StrideLengthMeters *float64 `json:"stride_length_meters,omitempty"`

	// Anchor-lock params
	AnchorAccuracyGateMeters *float64 `json:"anchor_accuracy_gate_meters,omitempty"`
	AnchorWindow             *string  `json:"anchor_window,omitempty"` // duration string like "30s"

	// Tracking params
	MinPointSpacingMeters *float64 `json:"min_point_spacing_meters,omitempty"`
	SimplifyEpsilonMeters *float64 `json:"simplify_epsilon_meters,omitempty"`

	// Corner-sampling params
	CornerWindow               *string  `json:"corner_window,omitempty"`     // duration string like "30s"
	CornerMotionGate           *string  `json:"corner_motion_gate,omitempty"` // duration string like "3s"
	CornerRejectAccuracyMeters *float64 `json:"corner_reject_accuracy_meters,omitempty"`
	CornerTargetAccuracyMeters *float64 `json:"corner_target_accuracy_meters,omitempty"`
	OutlierTrimFraction        *float64 `json:"outlier_trim_fraction,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.StrideLengthMeters != nil {
		if *c.StrideLengthMeters <= 0 || *c.StrideLengthMeters > 2 {
			return fmt.Errorf("stride_length_meters must be in (0, 2], got %f", *c.StrideLengthMeters)
		}
	}

	if c.AnchorAccuracyGateMeters != nil && *c.AnchorAccuracyGateMeters <= 0 {
		return fmt.Errorf("anchor_accuracy_gate_meters must be positive, got %f", *c.AnchorAccuracyGateMeters)
	}

	if c.OutlierTrimFraction != nil {
		if *c.OutlierTrimFraction < 0 || *c.OutlierTrimFraction >= 0.5 {
			return fmt.Errorf("outlier_trim_fraction must be in [0, 0.5), got %f", *c.OutlierTrimFraction)
		}
	}

	if c.MinPointSpacingMeters != nil && *c.MinPointSpacingMeters < 0 {
		return fmt.Errorf("min_point_spacing_meters must be non-negative, got %f", *c.MinPointSpacingMeters)
	}

	if c.SimplifyEpsilonMeters != nil && *c.SimplifyEpsilonMeters < 0 {
		return fmt.Errorf("simplify_epsilon_meters must be non-negative, got %f", *c.SimplifyEpsilonMeters)
	}

	// Validate duration strings can be parsed if set
	for name, v := range map[string]*string{
		"anchor_window":      c.AnchorWindow,
		"corner_window":      c.CornerWindow,
		"corner_motion_gate": c.CornerMotionGate,
	} {
		if v != nil && *v != "" {
			if _, err := time.ParseDuration(*v); err != nil {
				return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
			}
		}
	}

	return nil
}

// GetStrideLengthMeters returns the stride_length_meters value or the default.
func (c *TuningConfig) GetStrideLengthMeters() float64 {
	if c.StrideLengthMeters == nil {
		return 0.76
	}
	return *c.StrideLengthMeters
}

// GetAnchorAccuracyGateMeters returns the anchor_accuracy_gate_meters value or the default.
func (c *TuningConfig) GetAnchorAccuracyGateMeters() float64 {
	if c.AnchorAccuracyGateMeters == nil {
		return 3.0
	}
	return *c.AnchorAccuracyGateMeters
}

// GetAnchorWindow parses and returns the AnchorWindow as a time.Duration.
func (c *TuningConfig) GetAnchorWindow() time.Duration {
	if c.AnchorWindow == nil || *c.AnchorWindow == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.AnchorWindow)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetMinPointSpacingMeters returns the min_point_spacing_meters value or the default.
func (c *TuningConfig) GetMinPointSpacingMeters() float64 {
	if c.MinPointSpacingMeters == nil {
		return 0.8
	}
	return *c.MinPointSpacingMeters
}

// GetSimplifyEpsilonMeters returns the simplify_epsilon_meters value or the default.
func (c *TuningConfig) GetSimplifyEpsilonMeters() float64 {
	if c.SimplifyEpsilonMeters == nil {
		return 5.0
	}
	return *c.SimplifyEpsilonMeters
}

// GetCornerWindow parses and returns the CornerWindow as a time.Duration.
func (c *TuningConfig) GetCornerWindow() time.Duration {
	if c.CornerWindow == nil || *c.CornerWindow == "" {
		return 30 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CornerWindow)
	if err != nil {
		return 30 * time.Second // default on parse error
	}
	return d
}

// GetCornerMotionGate parses and returns the CornerMotionGate as a time.Duration.
func (c *TuningConfig) GetCornerMotionGate() time.Duration {
	if c.CornerMotionGate == nil || *c.CornerMotionGate == "" {
		return 3 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CornerMotionGate)
	if err != nil {
		return 3 * time.Second // default on parse error
	}
	return d
}

// GetCornerRejectAccuracyMeters returns the corner_reject_accuracy_meters value or the default.
func (c *TuningConfig) GetCornerRejectAccuracyMeters() float64 {
	if c.CornerRejectAccuracyMeters == nil {
		return 8.0
	}
	return *c.CornerRejectAccuracyMeters
}

// GetCornerTargetAccuracyMeters returns the corner_target_accuracy_meters value or the default.
func (c *TuningConfig) GetCornerTargetAccuracyMeters() float64 {
	if c.CornerTargetAccuracyMeters == nil {
		return 2.0
	}
	return *c.CornerTargetAccuracyMeters
}

// GetOutlierTrimFraction returns the outlier_trim_fraction value or the default.
func (c *TuningConfig) GetOutlierTrimFraction() float64 {
	if c.OutlierTrimFraction == nil {
		return 0.2
	}
	return *c.OutlierTrimFraction
}
