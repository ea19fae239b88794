package calculator

import (
	"errors"
	"math"

	"MarketDashboard/internal/model"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the rolling simple moving average. Entries before the
// first full window are NaN.
func SMASeries(prices []float64, period int) []float64 {
	out := nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMASeries returns the exponential moving average seeded at the first
// defined input. Entries before period defined inputs are NaN.
func EMASeries(prices []float64, period int) []float64 {
	out := nanSlice(len(prices))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	var ema float64
	seen := 0
	for i, p := range prices {
		if math.IsNaN(p) {
			continue
		}
		if seen == 0 {
			ema = p
		} else {
			ema = alpha*p + (1-alpha)*ema
		}
		seen++
		if seen >= period {
			out[i] = ema
		}
	}
	return out
}

// BollingerSeries returns the period-bar bands at k population standard deviations.
func BollingerSeries(candles []model.Candle, period int, k float64) *model.Bollinger {
	closes := extractCloses(candles)
	mid := SMASeries(closes, period)
	upper := nanSlice(len(closes))
	lower := nanSlice(len(closes))
	for i := period - 1; i < len(closes) && period > 0; i++ {
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			sq += d * d
		}
		sd := math.Sqrt(sq / float64(period))
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return &model.Bollinger{
		Upper:  toPoints(candles, upper),
		Middle: toPoints(candles, mid),
		Lower:  toPoints(candles, lower),
	}
}

// MACDSeries returns the fast/slow EMA difference, its signal EMA and the histogram.
func MACDSeries(candles []model.Candle, fast, slow, signal int) *model.MACD {
	closes := extractCloses(candles)
	f := EMASeries(closes, fast)
	s := EMASeries(closes, slow)
	line := nanSlice(len(closes))
	for i := range closes {
		line[i] = f[i] - s[i]
	}
	sig := EMASeries(line, signal)
	hist := nanSlice(len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return &model.MACD{
		Line:      toPoints(candles, line),
		Signal:    toPoints(candles, sig),
		Histogram: toPoints(candles, hist),
	}
}

func extractCloses(candles []model.Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// toPoints pairs values with candle times, skipping NaN and rounding to cents.
func toPoints(candles []model.Candle, values []float64) []model.SeriesPoint {
	out := make([]model.SeriesPoint, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		out = append(out, model.SeriesPoint{Time: candles[i].Time, Value: round2(v)})
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
