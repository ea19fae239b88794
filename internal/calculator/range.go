package calculator

import (
	"math"
	"sort"

	"MarketDashboard/internal/model"
)

// Support/resistance detection parameters.
const (
	srWindow    = 20
	srThreshold = 0.02
	srKeep      = 5
)

// SupportResistance finds local extremes over a ±srWindow bar window and
// clusters them within 2%, keeping the five highest clusters of each side.
func SupportResistance(candles []model.Candle) *model.SupportResistance {
	var supports, resistances []float64
	for i := srWindow; i < len(candles)-srWindow; i++ {
		low, high := math.Inf(1), math.Inf(-1)
		for j := i - srWindow; j <= i+srWindow; j++ {
			low = math.Min(low, candles[j].Low)
			high = math.Max(high, candles[j].High)
		}
		if candles[i].Low == low {
			supports = append(supports, candles[i].Low)
		}
		if candles[i].High == high {
			resistances = append(resistances, candles[i].High)
		}
	}
	return &model.SupportResistance{
		Support:    clusterLevels(supports),
		Resistance: clusterLevels(resistances),
	}
}

// clusterLevels merges sorted levels lying within srThreshold of a cluster's
// first level and returns the cluster means.
func clusterLevels(levels []float64) []float64 {
	if len(levels) == 0 {
		return []float64{}
	}
	sorted := append([]float64(nil), levels...)
	sort.Float64s(sorted)

	var clusters []float64
	curr := []float64{sorted[0]}
	flush := func() {
		sum := 0.0
		for _, v := range curr {
			sum += v
		}
		clusters = append(clusters, round2(sum/float64(len(curr))))
	}
	for _, l := range sorted[1:] {
		if curr[0] != 0 && (l-curr[0])/curr[0] < srThreshold {
			curr = append(curr, l)
			continue
		}
		flush()
		curr = []float64{l}
	}
	flush()

	if len(clusters) > srKeep {
		clusters = clusters[len(clusters)-srKeep:]
	}
	return clusters
}
