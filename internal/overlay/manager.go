package overlay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"MarketDashboard/internal/chart"
	"MarketDashboard/internal/model"
)

// ErrSuperseded is reported by a load whose selection was replaced before it finished.
var ErrSuperseded = errors.New("selection superseded")

// Loader fetches the chart and indicator payloads for one (ticker, period).
type Loader interface {
	FetchStockChart(ctx context.Context, ticker, period string) (*model.StockChart, error)
	FetchIndicators(ctx context.Context, ticker, period string) (*model.IndicatorsResponse, error)
}

// Load outcomes reported through Options.OnLoad.
const (
	OutcomeInstalled  = "installed"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// LoadResult describes how one SetTicker load ended.
type LoadResult struct {
	Ticker  string
	Period  string
	Outcome string
	Err     error
}

// Options configures a Manager.
type Options struct {
	// RangeReference selects the support/resistance time span. Defaults to RangeFromPrice.
	RangeReference RangeReference
	// Enabled lists the kinds switched on before the first dataset arrives.
	Enabled []model.IndicatorKind
	// OnLoad is called after every load finishes, outside the manager lock.
	OnLoad func(LoadResult)
	// OnChange is called after the rendered state may have changed, outside the manager lock.
	OnChange func()
}

type selection struct {
	ticker string
	period string
	seq    uint64
}

// Manager keeps the chart's indicator series in sync with the enabled set and
// the dataset of the currently selected ticker.
type Manager struct {
	mu      sync.Mutex
	surface chart.Surface
	loader  Loader
	opts    Options

	enabled map[model.IndicatorKind]bool
	dataset *model.Dataset
	handles map[model.IndicatorKind][]chart.Handle
	current selection
	seq     uint64
}

// NewManager creates a Manager drawing into surface.
func NewManager(surface chart.Surface, loader Loader, opts Options) *Manager {
	if opts.RangeReference == "" {
		opts.RangeReference = RangeFromPrice
	}
	m := &Manager{
		surface: surface,
		loader:  loader,
		opts:    opts,
		enabled: make(map[model.IndicatorKind]bool, len(model.AllKinds)),
		handles: make(map[model.IndicatorKind][]chart.Handle, len(model.AllKinds)),
	}
	for _, k := range model.AllKinds {
		m.enabled[k] = false
	}
	for _, k := range opts.Enabled {
		if _, ok := m.enabled[k]; ok {
			m.enabled[k] = true
		}
	}
	return m
}

// SetTicker drops the current dataset and starts loading the one for (ticker,
// period). The returned channel yields the load's outcome once: nil when the
// dataset was installed, ErrSuperseded when a later SetTicker replaced it, or
// the fetch error. Series already on the chart stay until a new dataset installs.
func (m *Manager) SetTicker(ctx context.Context, ticker, period string) <-chan error {
	m.mu.Lock()
	m.seq++
	sel := selection{ticker: ticker, period: period, seq: m.seq}
	m.current = sel
	m.dataset = nil
	m.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		err := m.load(ctx, sel)
		m.finish(sel, err)
		done <- err
		close(done)
	}()
	return done
}

func (m *Manager) load(ctx context.Context, sel selection) error {
	sc, err := m.loader.FetchStockChart(ctx, sel.ticker, sel.period)
	if err != nil {
		return fmt.Errorf("load chart %s/%s: %w", sel.ticker, sel.period, err)
	}
	if sc.Error != "" {
		return fmt.Errorf("load chart %s/%s: %s", sel.ticker, sel.period, sc.Error)
	}

	m.mu.Lock()
	if m.current != sel {
		m.mu.Unlock()
		return ErrSuperseded
	}
	m.surface.SetCandles(sc.Candles)
	m.mu.Unlock()

	resp, err := m.loader.FetchIndicators(ctx, sel.ticker, sel.period)
	if err != nil {
		return fmt.Errorf("load indicators %s/%s: %w", sel.ticker, sel.period, err)
	}
	ds, err := model.NewDataset(resp, sel.ticker, sel.period, sc.Candles)
	if err != nil {
		return fmt.Errorf("load indicators %s/%s: %w", sel.ticker, sel.period, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != sel {
		return ErrSuperseded
	}
	m.dataset = ds
	if err := m.reconcileAllLocked(); err != nil {
		log.Printf("[WARN] reconcile %s/%s: %v", sel.ticker, sel.period, err)
	}
	return nil
}

func (m *Manager) finish(sel selection, err error) {
	res := LoadResult{Ticker: sel.ticker, Period: sel.period, Outcome: OutcomeInstalled, Err: err}
	switch {
	case err == nil:
		log.Printf("[INFO] indicators installed for %s (%s)", sel.ticker, sel.period)
	case errors.Is(err, ErrSuperseded):
		res.Outcome = OutcomeSuperseded
		log.Printf("[INFO] discarded stale load for %s (%s)", sel.ticker, sel.period)
	default:
		res.Outcome = OutcomeFailed
		log.Printf("[WARN] %v", err)
	}
	if m.opts.OnLoad != nil {
		m.opts.OnLoad(res)
	}
	m.changed()
}

// Toggle flips kind in the enabled set. Without a dataset the change is only
// recorded; the next installed dataset applies it.
func (m *Manager) Toggle(kind model.IndicatorKind) (bool, error) {
	m.mu.Lock()
	on, ok := m.enabled[kind]
	if !ok {
		m.mu.Unlock()
		return false, fmt.Errorf("toggle: %w: %q", model.ErrUnknownIndicator, kind)
	}
	on = !on
	m.enabled[kind] = on
	var err error
	if m.dataset != nil {
		err = m.reconcileLocked(kind)
	}
	m.mu.Unlock()

	m.changed()
	return on, err
}

// Reconcile makes the series of kind match the enabled set and dataset.
func (m *Manager) Reconcile(kind model.IndicatorKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enabled[kind]; !ok {
		return fmt.Errorf("reconcile: %w: %q", model.ErrUnknownIndicator, kind)
	}
	return m.reconcileLocked(kind)
}

// ReconcileAll reconciles every kind independently.
func (m *Manager) ReconcileAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reconcileAllLocked()
}

func (m *Manager) reconcileAllLocked() error {
	var errs []error
	for _, k := range model.AllKinds {
		if err := m.reconcileLocked(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// reconcileLocked releases every handle of kind, then recreates the group when
// kind is enabled and present in the dataset.
func (m *Manager) reconcileLocked(kind model.IndicatorKind) error {
	m.releaseLocked(kind)
	if !m.enabled[kind] || !m.dataset.Has(kind) {
		return nil
	}

	defs := buildSeries(kind, m.dataset, m.opts.RangeReference)
	created := make([]chart.Handle, 0, len(defs))
	for _, d := range defs {
		h, err := m.surface.AddSeries(d.spec, d.data)
		if err != nil {
			m.handles[kind] = created
			m.releaseLocked(kind)
			return fmt.Errorf("render %s: %w", kind, err)
		}
		created = append(created, h)
	}
	m.handles[kind] = created
	return nil
}

// releaseLocked removes every handle of kind as a single operation.
func (m *Manager) releaseLocked(kind model.IndicatorKind) {
	for _, h := range m.handles[kind] {
		if err := m.surface.RemoveSeries(h); err != nil {
			log.Printf("[WARN] release %s series: %v", kind, err)
		}
	}
	delete(m.handles, kind)
}

// Teardown releases every handle and forgets the dataset. In-flight loads are discarded.
func (m *Manager) Teardown() {
	m.mu.Lock()
	for _, k := range model.AllKinds {
		m.releaseLocked(k)
	}
	m.dataset = nil
	m.seq++
	m.current = selection{seq: m.seq}
	m.mu.Unlock()
	m.changed()
}

// Enabled returns a copy of the enabled set.
func (m *Manager) Enabled() map[model.IndicatorKind]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.IndicatorKind]bool, len(m.enabled))
	for k, v := range m.enabled {
		out[k] = v
	}
	return out
}

// Handles returns the live handles of kind.
func (m *Manager) Handles(kind model.IndicatorKind) []chart.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]chart.Handle(nil), m.handles[kind]...)
}

// HandleCounts returns the number of live handles per kind.
func (m *Manager) HandleCounts() map[model.IndicatorKind]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[model.IndicatorKind]int, len(model.AllKinds))
	for _, k := range model.AllKinds {
		out[k] = len(m.handles[k])
	}
	return out
}

// Dataset returns the installed dataset, or nil. The dataset is never mutated after install.
func (m *Manager) Dataset() *model.Dataset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dataset
}

// Selection returns the ticker and period of the latest SetTicker.
func (m *Manager) Selection() (ticker, period string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.ticker, m.current.period
}

func (m *Manager) changed() {
	if m.opts.OnChange != nil {
		m.opts.OnChange()
	}
}
