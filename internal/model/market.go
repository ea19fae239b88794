package model

import "time"

// Candle is a single OHLC bar as served by the stock-chart endpoint.
// Time is a unix timestamp in seconds.
type Candle struct {
	Time  int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// StockChart is the response of GET /api/us/stock-chart/{ticker}.
type StockChart struct {
	Ticker  string   `json:"ticker"`
	Period  string   `json:"period"`
	Candles []Candle `json:"candles"`
	Error   string   `json:"error,omitempty"`
}

// TimeRange is an inclusive [From, To] span of unix seconds.
type TimeRange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Empty reports whether the range carries no usable span.
func (r TimeRange) Empty() bool {
	return r.From == 0 && r.To == 0
}

// CandleRange returns the first/last timestamp of candles, or an empty range.
func CandleRange(candles []Candle) TimeRange {
	if len(candles) == 0 {
		return TimeRange{}
	}
	return TimeRange{From: candles[0].Time, To: candles[len(candles)-1].Time}
}

// SeriesRange returns the first/last timestamp of a point series, or an empty range.
func SeriesRange(points []SeriesPoint) TimeRange {
	if len(points) == 0 {
		return TimeRange{}
	}
	return TimeRange{From: points[0].Time, To: points[len(points)-1].Time}
}

// RealtimeQuote is one entry of the POST /api/realtime-prices response.
type RealtimeQuote struct {
	Current float64 `json:"current"`
	Open    float64 `json:"open"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Volume  float64 `json:"volume"`
	Date    string  `json:"date"`
}

// PriceTick records a displayed price change observed by the realtime poller.
type PriceTick struct {
	Ticker   string
	OldPrice float64
	NewPrice float64
	At       time.Time
}
