package dashboard

import (
	"time"

	"MarketDashboard/internal/chart"
	"MarketDashboard/internal/i18n"
	"MarketDashboard/internal/model"
)

// PickRow is one smart money row with its live price and flash state.
type PickRow struct {
	model.SmartMoneyPick
	Score        float64     `json:"score"`
	DisplayPrice float64     `json:"display_price"`
	Flash        []Direction `json:"flash,omitempty"`
}

// OverlayState is the indicator overlay as seen by a renderer.
type OverlayState struct {
	Ticker  string                        `json:"ticker"`
	Period  string                        `json:"period"`
	Loaded  bool                          `json:"loaded"`
	Enabled map[model.IndicatorKind]bool  `json:"enabled"`
	Present []model.IndicatorKind         `json:"present"`
	Handles map[model.IndicatorKind]int   `json:"handles"`
	Series  map[chart.Pane][]chart.Series `json:"series"`
	Candles int                           `json:"candles"`
}

// Snapshot is a deep copy of the dashboard view state. Mutating it never
// affects the controller.
type Snapshot struct {
	Language   string            `json:"language"`
	Model      string            `json:"model"`
	ModelLabel string            `json:"model_label"`
	Tab        string            `json:"tab"`
	Period     string            `json:"period"`
	Ticker     string            `json:"ticker"`
	Labels     map[string]string `json:"labels"`
	UpdatedAt  time.Time         `json:"updated_at"`

	Indices      []model.MarketIndex      `json:"indices"`
	Picks        []PickRow                `json:"picks"`
	Summary      *model.SmartMoneySummary `json:"summary,omitempty"`
	HistoryDate  string                   `json:"history_date,omitempty"`
	HistoryDates []string                 `json:"history_dates"`
	ETFFlows     *model.ETFFlowsResponse  `json:"etf_flows,omitempty"`
	OptionsFlow  []model.OptionsFlow      `json:"options_flow"`
	Macro        *model.MacroAnalysis     `json:"macro,omitempty"`
	MacroAt      time.Time                `json:"macro_at"`
	Heatmap      []model.HeatmapSeries    `json:"heatmap"`
	AISummary    *model.AISummary         `json:"ai_summary,omitempty"`
	Calendar     []model.CalendarEvent    `json:"calendar"`
	Errors       map[string]string        `json:"errors,omitempty"`

	Overlay OverlayState `json:"overlay"`
}

// Snapshot copies the current view state.
func (c *Controller) Snapshot() *Snapshot {
	c.mu.Lock()
	s := &Snapshot{
		Language:     c.lang,
		Model:        c.llm,
		ModelLabel:   i18n.ModelLabel(c.llm),
		Tab:          c.tab,
		Period:       c.period,
		Ticker:       c.ticker,
		Labels:       i18n.Labels(i18n.Language(c.lang)),
		UpdatedAt:    c.updatedAt,
		Indices:      append([]model.MarketIndex(nil), c.panels.indices...),
		HistoryDate:  c.panels.historyDate,
		HistoryDates: append([]string(nil), c.panels.historyDates...),
		OptionsFlow:  append([]model.OptionsFlow(nil), c.panels.optionsFlow...),
		MacroAt:      c.panels.macroAt,
		Calendar:     append([]model.CalendarEvent(nil), c.panels.calendar...),
		ETFFlows:     copyETFFlows(c.panels.etfFlows),
		Macro:        copyMacro(c.panels.macro),
	}
	if sm := c.panels.smartMoney; sm != nil {
		s.Picks = make([]PickRow, 0, len(sm.TopPicks))
		for _, p := range sm.TopPicks {
			row := PickRow{SmartMoneyPick: p, Score: p.Score(), DisplayPrice: p.CurrentPrice}
			if p.FinalScore != nil {
				v := *p.FinalScore
				row.FinalScore = &v
			}
			if price, ok := c.prices[p.Ticker]; ok {
				row.DisplayPrice = price
			}
			row.Flash = flashDirs(c.flashes[p.Ticker])
			s.Picks = append(s.Picks, row)
		}
		if sm.Summary != nil {
			sum := *sm.Summary
			if sum.AvgPerformance != nil {
				v := *sum.AvgPerformance
				sum.AvgPerformance = &v
			}
			s.Summary = &sum
		}
	}
	if hm := c.panels.heatmap; hm != nil {
		s.Heatmap = make([]model.HeatmapSeries, len(hm.Series))
		for i, hs := range hm.Series {
			s.Heatmap[i] = model.HeatmapSeries{Name: hs.Name, Data: append([]model.HeatmapCell(nil), hs.Data...)}
		}
	}
	if a := c.panels.aiSummary; a != nil {
		cp := *a
		s.AISummary = &cp
	}
	if len(c.panels.errs) > 0 {
		s.Errors = make(map[string]string, len(c.panels.errs))
		for k, v := range c.panels.errs {
			s.Errors[k] = v
		}
	}
	c.mu.Unlock()

	// The overlay and chart guard their own state.
	ticker, period := c.overlay.Selection()
	ds := c.overlay.Dataset()
	s.Overlay = OverlayState{
		Ticker:  ticker,
		Period:  period,
		Loaded:  ds != nil,
		Enabled: c.overlay.Enabled(),
		Present: ds.Kinds(),
		Handles: c.overlay.HandleCounts(),
		Series:  c.chart.Snapshot(),
		Candles: len(c.chart.Candles()),
	}
	return s
}

func copyETFFlows(e *model.ETFFlowsResponse) *model.ETFFlowsResponse {
	if e == nil {
		return nil
	}
	cp := *e
	cp.TopInflows = append([]model.ETFFlow(nil), e.TopInflows...)
	cp.TopOutflows = append([]model.ETFFlow(nil), e.TopOutflows...)
	return &cp
}

func copyMacro(m *model.MacroAnalysis) *model.MacroAnalysis {
	if m == nil {
		return nil
	}
	cp := *m
	if m.MacroIndicators != nil {
		cp.MacroIndicators = make(map[string]model.MacroIndicator, len(m.MacroIndicators))
		for k, v := range m.MacroIndicators {
			cp.MacroIndicators[k] = v
		}
	}
	return &cp
}
