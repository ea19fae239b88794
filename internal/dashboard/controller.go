package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"MarketDashboard/internal/chart"
	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/i18n"
	"MarketDashboard/internal/metrics"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/notifier"
	"MarketDashboard/internal/overlay"
	"MarketDashboard/internal/recorder"
)

var (
	ErrInvalidPeriod   = errors.New("invalid chart period")
	ErrInvalidLanguage = errors.New("invalid language")
	ErrInvalidModel    = errors.New("invalid model")
	ErrInvalidTab      = errors.New("invalid tab")
	ErrNoTicker        = errors.New("no ticker selected")
	ErrClosed          = errors.New("controller closed")
)

// Panel names used for logging, metrics and the recorder.
const (
	PanelIndices      = "indices"
	PanelSmartMoney   = "smart-money"
	PanelETFFlows     = "etf-flows"
	PanelOptionsFlow  = "options-flow"
	PanelMacro        = "macro"
	PanelHeatmap      = "heatmap"
	PanelHistory      = "history"
	PanelHistoryDates = "history-dates"
	PanelAISummary    = "ai-summary"
	PanelCalendar     = "calendar"
)

const defaultOptionsRows = 10

// Options configures a Controller. Fetcher is required; everything else has a default.
type Options struct {
	Fetcher  collector.Fetcher
	Alerter  notifier.Alerter
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Clock    Clock

	Language    string
	Model       string
	Period      string
	Tab         string
	Indicators  []model.IndicatorKind
	SRReference overlay.RangeReference
	OptionsRows int
}

// Controller owns the dashboard view state and the indicator overlay of its chart.
type Controller struct {
	fetcher collector.Fetcher
	alerter notifier.Alerter
	rec     recorder.Recorder
	met     *metrics.Metrics
	clock   Clock
	chart   *chart.Chart
	overlay *overlay.Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// loadMu orders selection changes with the overlay loads they start.
	loadMu      sync.Mutex
	mu          sync.Mutex
	closed      bool
	lang        string
	llm         string
	tab         string
	period      string
	ticker      string
	optionsRows int
	panels      panels
	prices      map[string]float64
	flashes     map[string]map[Direction]flashMark
	timers      map[Timer]struct{}
	updatedAt   time.Time

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

// New creates a Controller. Call Close to release it.
func New(opts Options) (*Controller, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("dashboard: fetcher is required")
	}
	if opts.Alerter == nil {
		opts.Alerter = notifier.LogAlerter{}
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}
	if opts.Language == "" {
		opts.Language = model.LangKorean
	}
	if opts.Model == "" {
		opts.Model = model.ModelGemini
	}
	if opts.Period == "" {
		opts.Period = model.DefaultPeriod
	}
	if opts.Tab == "" {
		opts.Tab = model.TabUSMarket
	}
	if opts.OptionsRows <= 0 {
		opts.OptionsRows = defaultOptionsRows
	}
	switch {
	case !model.ValidLanguage(opts.Language):
		return nil, fmt.Errorf("%w: %q", ErrInvalidLanguage, opts.Language)
	case !model.ValidModel(opts.Model):
		return nil, fmt.Errorf("%w: %q", ErrInvalidModel, opts.Model)
	case !model.ValidPeriod(opts.Period):
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, opts.Period)
	case !model.ValidTab(opts.Tab):
		return nil, fmt.Errorf("%w: %q", ErrInvalidTab, opts.Tab)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:     opts.Fetcher,
		alerter:     opts.Alerter,
		rec:         opts.Recorder,
		met:         opts.Metrics,
		clock:       opts.Clock,
		chart:       chart.New(),
		ctx:         ctx,
		cancel:      cancel,
		lang:        opts.Language,
		llm:         opts.Model,
		tab:         opts.Tab,
		period:      opts.Period,
		optionsRows: opts.OptionsRows,
		prices:      make(map[string]float64),
		flashes:     make(map[string]map[Direction]flashMark),
		timers:      make(map[Timer]struct{}),
		subs:        make(map[chan struct{}]struct{}),
	}
	c.overlay = overlay.NewManager(c.chart, opts.Fetcher, overlay.Options{
		RangeReference: opts.SRReference,
		Enabled:        opts.Indicators,
		OnLoad:         c.onLoad,
		OnChange:       c.onOverlayChange,
	})
	return c, nil
}

// Close stops background work, releases chart series and ends subscriptions.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.mu.Unlock()

	c.cancel()
	c.overlay.Teardown()
	c.wg.Wait()

	c.subMu.Lock()
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.subMu.Unlock()
	return nil
}

// Overlay exposes the indicator overlay manager.
func (c *Controller) Overlay() *overlay.Manager { return c.overlay }

// Chart exposes the chart surface the overlay renders into.
func (c *Controller) Chart() *chart.Chart { return c.chart }

// goBackground runs f on the controller's lifetime context unless the controller is closed.
func (c *Controller) goBackground(f func(ctx context.Context)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()
	go func() {
		defer c.wg.Done()
		f(c.ctx)
	}()
}

// SelectTicker makes ticker the chart ticker and starts loading its chart,
// indicators and AI summary. Loads run on the controller's lifetime context;
// the returned channel reports the indicator load outcome.
func (c *Controller) SelectTicker(ticker string) (<-chan error, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrNoTicker
	}
	c.loadMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.loadMu.Unlock()
		return nil, ErrClosed
	}
	c.ticker = ticker
	period := c.period
	lang := c.lang
	c.mu.Unlock()
	done := c.startLoad(ticker, period, lang)
	c.loadMu.Unlock()

	c.notify()
	return done, nil
}

// startLoad begins the chart, indicator and AI summary loads for ticker.
// The caller holds c.loadMu so the overlay follows the last selection made.
func (c *Controller) startLoad(ticker, period, lang string) <-chan error {
	c.mu.Lock()
	c.panels.aiSummary = nil
	c.mu.Unlock()

	log.Printf("[INFO] loading chart %s (%s)", ticker, period)
	done := c.overlay.SetTicker(c.ctx, ticker, period)
	c.goBackground(func(ctx context.Context) { c.loadAISummary(ctx, ticker, lang) })
	return done
}

// SetPeriod changes the chart period and reloads the chart when a ticker is
// selected. The returned channel is nil when nothing was reloaded.
func (c *Controller) SetPeriod(period string) (<-chan error, error) {
	if !model.ValidPeriod(period) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
	c.loadMu.Lock()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.loadMu.Unlock()
		return nil, ErrClosed
	}
	c.period = period
	ticker := c.ticker
	c.mu.Unlock()

	var done <-chan error
	if ticker != "" {
		log.Printf("[INFO] loading chart %s (%s)", ticker, period)
		done = c.overlay.SetTicker(c.ctx, ticker, period)
	}
	c.loadMu.Unlock()

	c.notify()
	return done, nil
}

// ToggleIndicator flips an indicator overlay and reports whether it is now enabled.
func (c *Controller) ToggleIndicator(kind model.IndicatorKind) (bool, error) {
	on, err := c.overlay.Toggle(kind)
	if err != nil && errors.Is(err, model.ErrUnknownIndicator) {
		return false, err
	}
	if err != nil {
		log.Printf("[WARN] toggle %s: %v", kind, err)
	}
	return on, nil
}

// SetLanguage switches the UI language and refreshes every panel.
func (c *Controller) SetLanguage(ctx context.Context, lang string) error {
	if !model.ValidLanguage(lang) {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	c.mu.Lock()
	changed := c.lang != lang
	c.lang = lang
	ticker := c.ticker
	c.mu.Unlock()
	if !changed {
		return nil
	}

	log.Printf("[INFO] language set to %s", lang)
	c.notify()
	c.RefreshDashboard(ctx)
	if ticker != "" {
		c.loadAISummary(ctx, ticker, lang)
	}
	return nil
}

// SetModel switches the macro analysis model and reloads the macro panel.
func (c *Controller) SetModel(ctx context.Context, llm string) error {
	if !model.ValidModel(llm) {
		return fmt.Errorf("%w: %q", ErrInvalidModel, llm)
	}
	c.mu.Lock()
	changed := c.llm != llm
	c.llm = llm
	c.mu.Unlock()
	if !changed {
		return nil
	}

	log.Printf("[INFO] macro model set to %s", llm)
	c.notify()
	c.ReloadMacro(ctx)
	return nil
}

// SwitchTab activates a tab: the market tab refreshes every panel, the
// calendar tab loads the calendar.
func (c *Controller) SwitchTab(ctx context.Context, tab string) error {
	if !model.ValidTab(tab) {
		return fmt.Errorf("%w: %q", ErrInvalidTab, tab)
	}
	c.mu.Lock()
	c.tab = tab
	c.mu.Unlock()
	c.notify()

	switch tab {
	case model.TabUSMarket:
		c.RefreshDashboard(ctx)
	case model.TabCalendar:
		c.LoadCalendar(ctx)
	}
	return nil
}

func (c *Controller) onLoad(res overlay.LoadResult) {
	c.met.ObserveLoad(res.Outcome)
	evt := &recorder.DatasetLoad{Ticker: res.Ticker, Period: res.Period, Outcome: res.Outcome}
	if res.Err != nil && res.Outcome == overlay.OutcomeFailed {
		evt.Err = res.Err.Error()
	}
	if res.Outcome == overlay.OutcomeInstalled {
		if ds := c.overlay.Dataset(); ds != nil {
			kinds := make([]string, 0, len(model.AllKinds))
			for _, k := range ds.Kinds() {
				kinds = append(kinds, string(k))
			}
			evt.Kinds = strings.Join(kinds, ",")
		}
	}
	if err := c.rec.RecordDatasetLoad(evt); err != nil {
		log.Printf("[WARN] record dataset load: %v", err)
	}
}

func (c *Controller) onOverlayChange() {
	for k, n := range c.overlay.HandleCounts() {
		c.met.SetRendered(string(k), n)
	}
	c.notify()
}

// Subscribe returns a channel signalled after every state change and a
// function that ends the subscription. Signals coalesce.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.subMu.Lock()
	if c.subs == nil {
		c.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

func (c *Controller) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) alert(ctx context.Context, text string) {
	c.met.ObserveAlert()
	if err := c.alerter.Alert(ctx, text); err != nil {
		log.Printf("[ERROR] deliver alert: %v", err)
	}
}

func (c *Controller) messages() i18n.Messages {
	c.mu.Lock()
	defer c.mu.Unlock()
	return i18n.For(i18n.Language(c.lang))
}
