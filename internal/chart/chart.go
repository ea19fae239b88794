package chart

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"MarketDashboard/internal/model"

	"github.com/google/uuid"
)

// Pane identifies the sub-chart a series is drawn on.
type Pane string

const (
	PaneMain Pane = "main"
	PaneRSI  Pane = "rsi"
	PaneMACD Pane = "macd"
)

// SeriesType is the drawable type of a series.
type SeriesType string

const (
	LineSeries      SeriesType = "line"
	HistogramSeries SeriesType = "histogram"
)

// Line styles.
const (
	LineSolid  = 0
	LineDashed = 2
)

// Handle references one drawable series owned by a Surface.
type Handle string

// ErrUnknownHandle is returned when removing a series the surface does not own.
var ErrUnknownHandle = errors.New("unknown series handle")

// SeriesSpec describes how a series is drawn.
type SeriesSpec struct {
	Pane      Pane       `json:"pane"`
	Type      SeriesType `json:"type"`
	Label     string     `json:"label"`
	Color     string     `json:"color"`
	LineWidth int        `json:"line_width"`
	LineStyle int        `json:"line_style"`
	// Guides are horizontal reference levels attached to the series (e.g. RSI 70/30).
	Guides []float64 `json:"guides,omitempty"`
	// PointColors, when set, colors each point individually (histograms).
	PointColors []string `json:"point_colors,omitempty"`
}

// Surface is the drawing target the overlay manager renders into.
type Surface interface {
	SetCandles(candles []model.Candle)
	AddSeries(spec SeriesSpec, data []model.SeriesPoint) (Handle, error)
	RemoveSeries(h Handle) error
}

// Series is a rendered series as held by Chart.
type Series struct {
	Handle Handle              `json:"handle"`
	Spec   SeriesSpec          `json:"spec"`
	Data   []model.SeriesPoint `json:"data"`
	seq    uint64
}

// Chart is a headless, in-memory Surface. It is safe for concurrent use.
type Chart struct {
	mu      sync.Mutex
	candles []model.Candle
	series  map[Handle]*Series
	seq     uint64
}

// New creates an empty chart.
func New() *Chart {
	return &Chart{series: make(map[Handle]*Series)}
}

// SetCandles replaces the primary price series.
func (c *Chart) SetCandles(candles []model.Candle) {
	cp := make([]model.Candle, len(candles))
	copy(cp, candles)
	c.mu.Lock()
	c.candles = cp
	c.mu.Unlock()
}

// Candles returns a copy of the primary price series.
func (c *Chart) Candles() []model.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]model.Candle, len(c.candles))
	copy(cp, c.candles)
	return cp
}

// AddSeries creates a series and stores a copy of data.
func (c *Chart) AddSeries(spec SeriesSpec, data []model.SeriesPoint) (Handle, error) {
	if spec.Pane == "" {
		return "", fmt.Errorf("add series %q: pane is required", spec.Label)
	}
	if spec.Type == "" {
		spec.Type = LineSeries
	}
	cp := make([]model.SeriesPoint, len(data))
	copy(cp, data)

	h := Handle(uuid.NewString())
	c.mu.Lock()
	c.seq++
	c.series[h] = &Series{Handle: h, Spec: spec, Data: cp, seq: c.seq}
	c.mu.Unlock()
	return h, nil
}

// RemoveSeries drops a series.
func (c *Chart) RemoveSeries(h Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.series[h]; !ok {
		return fmt.Errorf("remove series %s: %w", h, ErrUnknownHandle)
	}
	delete(c.series, h)
	return nil
}

// Series returns a copy of one series.
func (c *Chart) Series(h Handle) (Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.series[h]
	if !ok {
		return Series{}, false
	}
	return copySeries(s), true
}

// Len returns the number of live series.
func (c *Chart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.series)
}

// Snapshot returns copies of all series grouped by pane, in creation order.
func (c *Chart) Snapshot() map[Pane][]Series {
	c.mu.Lock()
	all := make([]*Series, 0, len(c.series))
	for _, s := range c.series {
		all = append(all, s)
	}
	c.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })
	out := make(map[Pane][]Series)
	for _, s := range all {
		out[s.Spec.Pane] = append(out[s.Spec.Pane], copySeries(s))
	}
	return out
}

func copySeries(s *Series) Series {
	cp := *s
	cp.Data = make([]model.SeriesPoint, len(s.Data))
	copy(cp.Data, s.Data)
	if s.Spec.Guides != nil {
		cp.Spec.Guides = append([]float64(nil), s.Spec.Guides...)
	}
	if s.Spec.PointColors != nil {
		cp.Spec.PointColors = append([]string(nil), s.Spec.PointColors...)
	}
	return cp
}
