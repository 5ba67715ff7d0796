package strategy

import (
	"math"

	"github.com/vpow10/GPW-Quant-System/internal/indicator"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// Momentum is a time-series trend-following strategy: go long when the
// trailing lookback return is strongly positive, short when strongly
// negative, flat otherwise.
type Momentum struct {
	// Lookback is the window in bars used to compute the trailing return.
	Lookback int `yaml:"lookback" json:"lookback" validate:"gt=0"`
	// EntryLong is the threshold above which the strategy goes long.
	EntryLong float64 `yaml:"entry_long" json:"entry_long"`
	// EntryShort is the threshold below which the strategy goes short.
	EntryShort float64 `yaml:"entry_short" json:"entry_short"`
	// LongOnly suppresses short signals.
	LongOnly bool `yaml:"long_only" json:"long_only"`
	// ShortOnly suppresses long signals.
	ShortOnly bool `yaml:"short_only" json:"short_only"`
}

// NewMomentum returns a momentum strategy with the standard defaults.
func NewMomentum() *Momentum {
	return &Momentum{
		Lookback:   5,
		EntryLong:  0.05,
		EntryShort: -0.05,
	}
}

func (m *Momentum) Name() string { return "momentum" }

func (m *Momentum) validate() error {
	if m.Lookback <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "momentum lookback must be positive, got %d", m.Lookback)
	}

	if m.EntryLong < m.EntryShort {
		return errors.New(errors.ErrCodeInvalidThreshold, "momentum entry_long must not be below entry_short")
	}

	return nil
}

// GenerateSignals computes the trailing lookback return per symbol and maps
// it through the entry thresholds. Warmup bars stay flat.
func (m *Momentum) GenerateSignals(bars []types.Bar) ([]types.SignalRow, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	return generate(bars, func(closes []float64) []float64 {
		mom := indicator.Momentum(closes, m.Lookback)
		signals := make([]float64, len(closes))

		for i, v := range mom {
			if math.IsNaN(v) {
				continue
			}

			if !m.ShortOnly && v > m.EntryLong {
				signals[i] = types.SignalLong
			}

			if !m.LongOnly && v < m.EntryShort {
				signals[i] = types.SignalShort
			}
		}

		return signals
	})
}
