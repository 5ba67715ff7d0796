package strategy

import (
	"math"

	"github.com/vpow10/GPW-Quant-System/internal/indicator"
	"github.com/vpow10/GPW-Quant-System/internal/types"
	"github.com/vpow10/GPW-Quant-System/pkg/errors"
)

// MeanReversion buys when the price sits far below its rolling mean and
// shorts when far above, measured in rolling z-score units.
type MeanReversion struct {
	// Window is the rolling window in bars for the mean and deviation.
	Window int `yaml:"window" json:"window" validate:"gt=0"`
	// ZEntry is the absolute z-score beyond which a position is opened.
	ZEntry float64 `yaml:"z_entry" json:"z_entry" validate:"gt=0"`
	// LongOnly suppresses short signals.
	LongOnly bool `yaml:"long_only" json:"long_only"`
	// ShortOnly suppresses long signals.
	ShortOnly bool `yaml:"short_only" json:"short_only"`
}

// NewMeanReversion returns a mean-reversion strategy with the standard
// defaults.
func NewMeanReversion() *MeanReversion {
	return &MeanReversion{
		Window: 20,
		ZEntry: 1.5,
	}
}

func (m *MeanReversion) Name() string { return "mean_reversion" }

func (m *MeanReversion) validate() error {
	if m.Window <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "mean reversion window must be positive, got %d", m.Window)
	}

	if m.ZEntry <= 0 {
		return errors.Newf(errors.ErrCodeInvalidThreshold, "mean reversion z_entry must be positive, got %f", m.ZEntry)
	}

	return nil
}

// GenerateSignals computes the rolling z-score per symbol. Bars where the
// rolling deviation is zero, or inside the warmup window, stay flat.
func (m *MeanReversion) GenerateSignals(bars []types.Bar) ([]types.SignalRow, error) {
	if err := m.validate(); err != nil {
		return nil, err
	}

	return generate(bars, func(closes []float64) []float64 {
		z := indicator.ZScore(closes, m.Window)
		signals := make([]float64, len(closes))

		for i, v := range z {
			if math.IsNaN(v) {
				continue
			}

			if !m.ShortOnly && v < -m.ZEntry {
				signals[i] = types.SignalLong
			}

			if !m.LongOnly && v > m.ZEntry {
				signals[i] = types.SignalShort
			}
		}

		return signals
	})
}
