package config

import (
	"errors"
	"fmt"

	"github.com/tracescope/tracescope/internal/downsample"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := downsample.ParsePolicy(cfg.Policy); err != nil {
		errs = append(errs, ValidationError{
			Field:   "policy",
			Message: err.Error(),
		})
	}

	if cfg.MaxPoints < 2 {
		errs = append(errs, ValidationError{
			Field:   "max_points",
			Message: fmt.Sprintf("must be at least 2 (got %d)", cfg.MaxPoints),
		})
	}

	if cfg.TargetFPS < 1 || cfg.TargetFPS > 240 {
		errs = append(errs, ValidationError{
			Field:   "target_fps",
			Message: fmt.Sprintf("must be in [1, 240] (got %d)", cfg.TargetFPS),
		})
	}

	if cfg.FixedOverhead < 0 {
		errs = append(errs, ValidationError{
			Field:   "fixed_overhead",
			Message: "must not be negative",
		})
	}

	validDevices := map[string]bool{"mem": true, "gl": true}
	if !validDevices[cfg.Device] {
		errs = append(errs, ValidationError{
			Field:   "device",
			Message: fmt.Sprintf("must be 'mem' or 'gl' (got %q)", cfg.Device),
		})
	}

	if cfg.Signals < 0 || cfg.EnumSignals < 0 {
		errs = append(errs, ValidationError{
			Field:   "signals",
			Message: "signal counts must not be negative",
		})
	}
	if cfg.Signals+cfg.EnumSignals < 1 {
		errs = append(errs, ValidationError{
			Field:   "signals",
			Message: "at least one signal is required",
		})
	}

	if cfg.SampleRate <= 0 {
		errs = append(errs, ValidationError{
			Field:   "sample_rate",
			Message: fmt.Sprintf("must be positive (got %g)", cfg.SampleRate),
		})
	}

	if cfg.MetricsAddr == "" {
		errs = append(errs, ValidationError{
			Field:   "metrics_addr",
			Message: "must not be empty",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
