package model

import (
	"errors"
	"fmt"
	"strings"
)

// IndicatorKind names a technical-analysis overlay.
type IndicatorKind string

const (
	KindBollinger         IndicatorKind = "bollinger"
	KindSupportResistance IndicatorKind = "support_resistance"
	KindRSI               IndicatorKind = "rsi"
	KindMACD              IndicatorKind = "macd"
)

// AllKinds lists every indicator kind in reconciliation order.
var AllKinds = []IndicatorKind{KindBollinger, KindSupportResistance, KindRSI, KindMACD}

// ErrUnknownIndicator is returned when a kind name cannot be parsed.
var ErrUnknownIndicator = errors.New("unknown indicator kind")

// ParseIndicatorKind accepts the canonical names and the short button ids (bb, sr).
func ParseIndicatorKind(s string) (IndicatorKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bollinger", "bb":
		return KindBollinger, nil
	case "support_resistance", "sr":
		return KindSupportResistance, nil
	case "rsi":
		return KindRSI, nil
	case "macd":
		return KindMACD, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownIndicator, s)
}

// SeriesPoint is a single (timestamp, value) sample.
type SeriesPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Bollinger holds the three band series.
type Bollinger struct {
	Upper  []SeriesPoint `json:"upper"`
	Middle []SeriesPoint `json:"middle"`
	Lower  []SeriesPoint `json:"lower"`
}

// SupportResistance holds clustered price levels.
type SupportResistance struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

// MACD holds the line, signal and histogram series.
type MACD struct {
	Line      []SeriesPoint `json:"macd_line"`
	Signal    []SeriesPoint `json:"signal_line"`
	Histogram []SeriesPoint `json:"histogram"`
}

// IndicatorsResponse is the response of GET /api/us/technical-indicators/{ticker}.
// Absent keys decode to nil and mean the kind is missing from the dataset.
type IndicatorsResponse struct {
	Ticker            string             `json:"ticker,omitempty"`
	Bollinger         *Bollinger         `json:"bollinger,omitempty"`
	SupportResistance *SupportResistance `json:"support_resistance,omitempty"`
	RSI               []SeriesPoint      `json:"rsi,omitempty"`
	MACD              *MACD              `json:"macd,omitempty"`
	Error             string             `json:"error,omitempty"`
}

// Dataset is the full indicator payload for one (ticker, period) pair.
type Dataset struct {
	Ticker            string
	Period            string
	PriceRange        TimeRange
	Bollinger         *Bollinger
	SupportResistance *SupportResistance
	RSI               []SeriesPoint
	MACD              *MACD
}

// NewDataset builds the dataset installed after a successful load. It copies
// nothing but the references; the dataset owns the payload from here on.
func NewDataset(resp *IndicatorsResponse, ticker, period string, candles []Candle) (*Dataset, error) {
	if resp == nil {
		return nil, errors.New("nil indicators response")
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("indicators error: %s", resp.Error)
	}
	if resp.Ticker != "" && !strings.EqualFold(resp.Ticker, ticker) {
		return nil, fmt.Errorf("indicators for %q returned for request %q", resp.Ticker, ticker)
	}
	return &Dataset{
		Ticker:            ticker,
		Period:            period,
		PriceRange:        CandleRange(candles),
		Bollinger:         resp.Bollinger,
		SupportResistance: resp.SupportResistance,
		RSI:               resp.RSI,
		MACD:              resp.MACD,
	}, nil
}

// Has reports whether the dataset carries data for kind.
func (d *Dataset) Has(kind IndicatorKind) bool {
	if d == nil {
		return false
	}
	switch kind {
	case KindBollinger:
		return d.Bollinger != nil
	case KindSupportResistance:
		return d.SupportResistance != nil
	case KindRSI:
		return d.RSI != nil
	case KindMACD:
		return d.MACD != nil
	}
	return false
}

// Kinds returns the kinds present in the dataset, in AllKinds order.
func (d *Dataset) Kinds() []IndicatorKind {
	var out []IndicatorKind
	for _, k := range AllKinds {
		if d.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
