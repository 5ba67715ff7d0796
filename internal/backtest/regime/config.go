package regime

import (
	"github.com/go-playground/validator/v10"

	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Config holds the parameters of a regime analysis run.
type Config struct {
	// MAWindow is the moving-average window in bars used for regime labeling.
	MAWindow int `yaml:"ma_window" json:"ma_window" jsonschema:"title=MA Window,description=Moving average window in bars for regime labeling,minimum=1" validate:"gt=0"`
	// SlopeWindow is the lag in bars of the moving-average difference.
	SlopeWindow int `yaml:"slope_window" json:"slope_window" jsonschema:"title=Slope Window,description=Lag in bars of the moving average difference,minimum=1" validate:"gt=0"`
	// TradingDays is the annualization base.
	TradingDays int `yaml:"trading_days" json:"trading_days" jsonschema:"title=Trading Days,description=Number of trading days used for annualization,minimum=1" validate:"gt=0"`
	// InvestedThreshold is the gross leverage above which a day counts as
	// invested for the conditional metrics.
	InvestedThreshold float64 `yaml:"invested_threshold" json:"invested_threshold" jsonschema:"title=Invested Threshold,description=Gross leverage above which a day counts as invested,minimum=0" validate:"gte=0"`
}

// DefaultConfig returns the standard regime analysis parameters.
func DefaultConfig() Config {
	return Config{
		MAWindow:          200,
		SlopeWindow:       20,
		TradingDays:       252,
		InvestedThreshold: 0.05,
	}
}

// Validate checks the config against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid regime config", err)
	}

	return nil
}
