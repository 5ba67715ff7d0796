package indicator

// RSI computes the Relative Strength Index using Wilder's exponential
// smoothing with alpha = 1/period. Values before the warmup period are NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	alpha := 1.0 / float64(period)

	var avgGain, avgLoss float64

	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]

		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}

		if i == 1 {
			avgGain = gain
			avgLoss = loss
		} else {
			avgGain = alpha*gain + (1-alpha)*avgGain
			avgLoss = alpha*loss + (1-alpha)*avgLoss
		}

		if i < period {
			continue
		}

		if avgLoss == 0 {
			out[i] = 100.0
			continue
		}

		rs := avgGain / avgLoss
		out[i] = 100.0 - 100.0/(1.0+rs)
	}

	return out
}
