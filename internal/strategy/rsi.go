package strategy

import (
	"math"

	"github.com/vpow10/GPW-Quant-System/internal/indicator"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// RSIMeanReversion trades oversold/overbought RSI levels with hysteresis:
// a position opened at an extreme is held until the RSI crosses back through
// its exit level, not merely back inside the entry bands.
type RSIMeanReversion struct {
	// Period is the RSI smoothing period in bars.
	Period int `yaml:"period" json:"period" validate:"gt=0"`
	// LowerBound is the oversold entry level.
	LowerBound float64 `yaml:"lower_bound" json:"lower_bound"`
	// UpperBound is the overbought entry level.
	UpperBound float64 `yaml:"upper_bound" json:"upper_bound"`
	// ExitLongLevel closes a long once the RSI rises above it.
	ExitLongLevel float64 `yaml:"exit_long_level" json:"exit_long_level"`
	// ExitShortLevel closes a short once the RSI falls below it.
	ExitShortLevel float64 `yaml:"exit_short_level" json:"exit_short_level"`
	// LongOnly turns the overbought entry into a long exit instead of a
	// short entry.
	LongOnly bool `yaml:"long_only" json:"long_only"`
}

// NewRSIMeanReversion returns an RSI strategy with the standard defaults.
func NewRSIMeanReversion() *RSIMeanReversion {
	return &RSIMeanReversion{
		Period:         14,
		LowerBound:     30.0,
		UpperBound:     70.0,
		ExitLongLevel:  50.0,
		ExitShortLevel: 50.0,
	}
}

func (r *RSIMeanReversion) Name() string { return "rsi" }

func (r *RSIMeanReversion) validate() error {
	if r.Period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "rsi period must be positive, got %d", r.Period)
	}

	if r.LowerBound >= r.UpperBound {
		return errors.New(errors.ErrCodeInvalidThreshold, "rsi lower_bound must be below upper_bound")
	}

	return nil
}

// GenerateSignals walks each symbol's RSI sequentially, carrying the open
// position between bars. The sequential pass is what gives the hysteresis:
// signal assignment depends on the previously held state.
func (r *RSIMeanReversion) GenerateSignals(bars []types.Bar) ([]types.SignalRow, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	return generate(bars, func(closes []float64) []float64 {
		rsi := indicator.RSI(closes, r.Period)
		signals := make([]float64, len(closes))

		current := types.SignalFlat

		for i := r.Period; i < len(closes); i++ {
			v := rsi[i]
			if math.IsNaN(v) {
				continue
			}

			switch {
			case v < r.LowerBound:
				current = types.SignalLong
			case v > r.UpperBound:
				if r.LongOnly {
					current = types.SignalFlat
				} else {
					current = types.SignalShort
				}
			default:
				if current == types.SignalLong && v > r.ExitLongLevel {
					current = types.SignalFlat
				}

				if current == types.SignalShort && v < r.ExitShortLevel {
					current = types.SignalFlat
				}
			}

			signals[i] = current
		}

		return signals
	})
}
