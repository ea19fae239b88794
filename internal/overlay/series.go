package overlay

import (
	"MarketDashboard/internal/chart"
	"MarketDashboard/internal/model"
)

// RangeReference selects the time span support/resistance segments are drawn over.
type RangeReference string

const (
	// RangeFromPrice spans the primary candle series.
	RangeFromPrice RangeReference = "price"
	// RangeFromRSI spans the RSI series.
	RangeFromRSI RangeReference = "rsi"
)

// RSI guide levels drawn on the RSI pane.
var rsiGuides = []float64{70, 30}

const (
	bandEdgeColor   = "rgba(147, 51, 234, 0.5)"
	bandMiddleColor = "rgba(147, 51, 234, 0.8)"
	supportColor    = "#22c55e"
	resistColor     = "#ef4444"
	rsiColor        = "#a855f7"
	macdUpColor     = "#26a69a"
	macdDownColor   = "#ef5350"
	macdLineColor   = "#3b82f6"
	macdSignalColor = "#f59e0b"
)

// seriesDef is one series to create for a kind.
type seriesDef struct {
	spec chart.SeriesSpec
	data []model.SeriesPoint
}

// buildSeries maps a dataset entry to the series that represent it on the chart.
// It returns nil when the dataset lacks kind.
func buildSeries(kind model.IndicatorKind, ds *model.Dataset, ref RangeReference) []seriesDef {
	if !ds.Has(kind) {
		return nil
	}
	switch kind {
	case model.KindBollinger:
		bb := ds.Bollinger
		return []seriesDef{
			{spec: chart.SeriesSpec{Pane: chart.PaneMain, Type: chart.LineSeries, Label: "bb_upper", Color: bandEdgeColor, LineWidth: 1}, data: bb.Upper},
			{spec: chart.SeriesSpec{Pane: chart.PaneMain, Type: chart.LineSeries, Label: "bb_middle", Color: bandMiddleColor, LineWidth: 1, LineStyle: chart.LineDashed}, data: bb.Middle},
			{spec: chart.SeriesSpec{Pane: chart.PaneMain, Type: chart.LineSeries, Label: "bb_lower", Color: bandEdgeColor, LineWidth: 1}, data: bb.Lower},
		}

	case model.KindSupportResistance:
		span := ds.PriceRange
		if ref == RangeFromRSI {
			span = model.SeriesRange(ds.RSI)
		}
		if span.Empty() {
			return nil
		}
		sr := ds.SupportResistance
		defs := make([]seriesDef, 0, len(sr.Support)+len(sr.Resistance))
		for _, level := range sr.Support {
			defs = append(defs, levelSegment("support", supportColor, level, span))
		}
		for _, level := range sr.Resistance {
			defs = append(defs, levelSegment("resistance", resistColor, level, span))
		}
		return defs

	case model.KindRSI:
		return []seriesDef{
			{spec: chart.SeriesSpec{Pane: chart.PaneRSI, Type: chart.LineSeries, Label: "rsi", Color: rsiColor, LineWidth: 1, Guides: rsiGuides}, data: ds.RSI},
		}

	case model.KindMACD:
		m := ds.MACD
		colors := make([]string, len(m.Histogram))
		for i, p := range m.Histogram {
			if p.Value >= 0 {
				colors[i] = macdUpColor
			} else {
				colors[i] = macdDownColor
			}
		}
		return []seriesDef{
			{spec: chart.SeriesSpec{Pane: chart.PaneMACD, Type: chart.HistogramSeries, Label: "macd_histogram", Color: macdUpColor, PointColors: colors}, data: m.Histogram},
			{spec: chart.SeriesSpec{Pane: chart.PaneMACD, Type: chart.LineSeries, Label: "macd_line", Color: macdLineColor, LineWidth: 1}, data: m.Line},
			{spec: chart.SeriesSpec{Pane: chart.PaneMACD, Type: chart.LineSeries, Label: "macd_signal", Color: macdSignalColor, LineWidth: 1}, data: m.Signal},
		}
	}
	return nil
}

// levelSegment is a flat two-point line at level across span.
func levelSegment(label, color string, level float64, span model.TimeRange) seriesDef {
	return seriesDef{
		spec: chart.SeriesSpec{Pane: chart.PaneMain, Type: chart.LineSeries, Label: label, Color: color, LineWidth: 1, LineStyle: chart.LineDashed},
		data: []model.SeriesPoint{{Time: span.From, Value: level}, {Time: span.To, Value: level}},
	}
}
