package trajectory

import (
	"fmt"
	"math"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"go.viam.com/trajectory/logging"
	"go.viam.com/trajectory/utils"
)

// Config describes the limits of an axis.
type Config struct {
	MaxAcceleration float64 `json:"max_acc"`
	MaxJerk         float64 `json:"max_jerk,omitempty"`
	MaxVelocity     float64 `json:"max_vel"`
}

// ConfigFromAttributes decodes a Config from loosely typed attributes.
func ConfigFromAttributes(attributes utils.AttributeMap) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &cfg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attributes)); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	var errs error
	if cfg.MaxAcceleration == 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "max_acc"))
	} else if !positive(cfg.MaxAcceleration) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			fmt.Errorf("max_acc must be positive, got %v", cfg.MaxAcceleration)))
	}
	if cfg.MaxVelocity == 0 {
		errs = multierr.Append(errs, goutils.NewConfigValidationFieldRequiredError(path, "max_vel"))
	} else if !positive(cfg.MaxVelocity) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			fmt.Errorf("max_vel must be positive, got %v", cfg.MaxVelocity)))
	}
	if cfg.MaxJerk != 0 && !positive(cfg.MaxJerk) {
		errs = multierr.Append(errs, goutils.NewConfigValidationError(path,
			fmt.Errorf("max_jerk must be positive when set, got %v", cfg.MaxJerk)))
	}
	return errs
}

// Limits returns the limit vector described by the config.
func (cfg *Config) Limits() []float64 {
	if cfg.MaxJerk != 0 {
		return []float64{cfg.MaxAcceleration, cfg.MaxJerk}
	}
	return []float64{cfg.MaxAcceleration}
}

// NewPlannerFromConfig validates cfg and returns an idle planner using its limits.
func NewPlannerFromConfig(cfg *Config, logger logging.Logger) (*Planner, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return NewPlanner(cfg.Limits(), logger)
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
