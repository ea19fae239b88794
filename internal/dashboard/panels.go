package dashboard

import (
	"context"
	"log"
	"sync"
	"time"

	"MarketDashboard/internal/model"
	"MarketDashboard/internal/recorder"
)

// panels is the last successfully fetched state of every panel.
type panels struct {
	indices      []model.MarketIndex
	smartMoney   *model.SmartMoneyResponse
	historyDate  string
	historyDates []string
	etfFlows     *model.ETFFlowsResponse
	optionsFlow  []model.OptionsFlow
	macro        *model.MacroAnalysis
	macroAt      time.Time
	heatmap      *model.HeatmapResponse
	aiSummary    *model.AISummary
	calendar     []model.CalendarEvent
	errs         map[string]string
}

// RefreshDashboard fetches every market panel concurrently. A failing panel
// keeps its previous state and does not affect the others.
func (c *Controller) RefreshDashboard(ctx context.Context) {
	log.Println("[INFO] refreshing dashboard")
	loaders := []func(context.Context){
		c.loadIndices,
		c.loadSmartMoney,
		c.loadETFFlows,
		c.loadOptionsFlow,
		c.ReloadMacro,
		c.loadHeatmap,
	}
	var wg sync.WaitGroup
	for _, load := range loaders {
		wg.Add(1)
		go func(load func(context.Context)) {
			defer wg.Done()
			load(ctx)
		}(load)
	}
	wg.Wait()
}

// observe records the outcome of one panel fetch.
func (c *Controller) observe(panel string, start time.Time, err error) {
	d := time.Since(start)
	c.met.ObservePanel(panel, err, d)

	evt := &recorder.PanelRefresh{Panel: panel, OK: err == nil, DurationMS: d.Milliseconds()}
	if err != nil {
		evt.Err = err.Error()
		log.Printf("[WARN] %s panel: %v", panel, err)
	}
	if rerr := c.rec.RecordPanelRefresh(evt); rerr != nil {
		log.Printf("[WARN] record panel refresh: %v", rerr)
	}

	c.mu.Lock()
	if c.panels.errs == nil {
		c.panels.errs = make(map[string]string)
	}
	if err != nil {
		c.panels.errs[panel] = err.Error()
	} else {
		delete(c.panels.errs, panel)
		c.updatedAt = c.clock.Now()
	}
	c.mu.Unlock()
}

func (c *Controller) loadIndices(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchPortfolio(ctx)
	c.observe(PanelIndices, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.panels.indices = resp.MarketIndices
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) loadSmartMoney(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchSmartMoney(ctx)
	c.observe(PanelSmartMoney, start, err)
	if err != nil {
		return
	}
	c.renderPicks(resp, "")
}

// renderPicks installs a smart money table, current or historical. With no
// chart ticker yet, the first pick's chart loads.
func (c *Controller) renderPicks(resp *model.SmartMoneyResponse, date string) {
	c.loadMu.Lock()
	c.mu.Lock()
	c.panels.smartMoney = resp
	c.panels.historyDate = date
	c.prices = make(map[string]float64, len(resp.TopPicks))
	c.flashes = make(map[string]map[Direction]flashMark)
	for _, p := range resp.TopPicks {
		c.prices[p.Ticker] = p.CurrentPrice
	}
	var auto string
	if c.ticker == "" && len(resp.TopPicks) > 0 && !c.closed {
		auto = resp.TopPicks[0].Ticker
		c.ticker = auto
	}
	period, lang := c.period, c.lang
	c.mu.Unlock()

	if auto != "" {
		c.startLoad(auto, period, lang)
	}
	c.loadMu.Unlock()
	c.notify()
}

func (c *Controller) loadETFFlows(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchETFFlows(ctx)
	c.observe(PanelETFFlows, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.panels.etfFlows = resp
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) loadOptionsFlow(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchOptionsFlow(ctx)
	c.observe(PanelOptionsFlow, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	rows := resp.OptionsFlow
	if len(rows) > c.optionsRows {
		rows = rows[:c.optionsRows]
	}
	flows := make([]model.OptionsFlow, len(rows))
	for i, f := range rows {
		f.Sentiment = f.DerivedSentiment()
		flows[i] = f
	}
	c.panels.optionsFlow = flows
	c.mu.Unlock()
	c.notify()
}

// ReloadMacro fetches the macro analysis for the current language and model.
func (c *Controller) ReloadMacro(ctx context.Context) {
	c.mu.Lock()
	lang, llm := c.lang, c.llm
	c.mu.Unlock()

	start := time.Now()
	resp, err := c.fetcher.FetchMacroAnalysis(ctx, lang, llm)
	c.observe(PanelMacro, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	// A language or model switch during the fetch makes this response stale.
	if c.lang == lang && c.llm == llm {
		c.panels.macro = resp
		c.panels.macroAt = c.clock.Now()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) loadHeatmap(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchSectorHeatmap(ctx)
	c.observe(PanelHeatmap, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.panels.heatmap = resp
	c.mu.Unlock()
	c.notify()
}

// LoadHistoryDates refreshes the list of dates with a smart money snapshot.
func (c *Controller) LoadHistoryDates(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchHistoryDates(ctx)
	c.observe(PanelHistoryDates, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.panels.historyDates = resp.Dates
	c.mu.Unlock()
	c.notify()
}

// LoadHistory shows the smart money snapshot of date. An empty date goes back
// to the current picks. A failed load raises an alert and keeps the table.
func (c *Controller) LoadHistory(ctx context.Context, date string) error {
	if date == "" {
		c.loadSmartMoney(ctx)
		return nil
	}
	start := time.Now()
	resp, err := c.fetcher.FetchHistory(ctx, date)
	c.observe(PanelHistory, start, err)
	if err != nil {
		c.alert(ctx, c.messages().HistoryLoadFailed)
		return err
	}
	c.renderPicks(resp, date)
	return nil
}

// LoadCalendar fetches the economic calendar.
func (c *Controller) LoadCalendar(ctx context.Context) {
	start := time.Now()
	resp, err := c.fetcher.FetchCalendar(ctx)
	c.observe(PanelCalendar, start, err)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.panels.calendar = resp.Events
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) loadAISummary(ctx context.Context, ticker, lang string) {
	start := time.Now()
	resp, err := c.fetcher.FetchAISummary(ctx, ticker, lang)
	c.observe(PanelAISummary, start, err)
	if err != nil {
		resp = &model.AISummary{Ticker: ticker, Lang: lang, Error: err.Error()}
	}
	c.mu.Lock()
	stale := c.ticker != ticker || c.lang != lang
	if !stale {
		c.panels.aiSummary = resp
	}
	c.mu.Unlock()
	if !stale {
		c.notify()
	}
}
