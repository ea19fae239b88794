package dashboard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"MarketDashboard/internal/collector"
	"MarketDashboard/internal/i18n"
	"MarketDashboard/internal/model"
)

type recordingAlerter struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingAlerter) Alert(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recordingAlerter) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

// priceFetcher serves a single pick priced at 100.00 and realtime quotes from quotes.
type priceFetcher struct {
	*collector.MockFetcher
	mu     sync.Mutex
	quotes map[string]float64
}

func (p *priceFetcher) FetchSmartMoney(context.Context) (*model.SmartMoneyResponse, error) {
	score := 88.0
	return &model.SmartMoneyResponse{TopPicks: []model.SmartMoneyPick{
		{Ticker: "AAPL", Name: "Apple Inc.", FinalScore: &score, CurrentPrice: 100.00},
	}}, nil
}

func (p *priceFetcher) FetchRealtimePrices(_ context.Context, tickers []string) (map[string]model.RealtimeQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]model.RealtimeQuote)
	for _, t := range tickers {
		if v, ok := p.quotes[t]; ok {
			out[t] = model.RealtimeQuote{Current: v}
		}
	}
	return out, nil
}

func (p *priceFetcher) quote(ticker string, v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[ticker] = v
}

func newTestController(t *testing.T, opts Options) *Controller {
	t.Helper()
	if opts.Fetcher == nil {
		opts.Fetcher = collector.NewMockFetcher()
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitLoad(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("load did not finish")
	}
	return nil
}

func TestRealtimeFlash(t *testing.T) {
	clock := newFakeClock()
	pf := &priceFetcher{MockFetcher: collector.NewMockFetcher(), quotes: map[string]float64{"AAPL": 101.50}}
	c := newTestController(t, Options{Fetcher: pf, Clock: clock})
	ctx := context.Background()

	c.RefreshDashboard(ctx)
	if p, _ := c.Price("AAPL"); p != 100.00 {
		t.Fatalf("seeded price = %v, want 100.00", p)
	}

	if err := c.UpdateRealtimePrices(ctx); err != nil {
		t.Fatalf("UpdateRealtimePrices: %v", err)
	}
	if p, _ := c.Price("AAPL"); p != 101.50 {
		t.Errorf("price = %v, want 101.50", p)
	}
	if got := c.Flash("AAPL"); !reflect.DeepEqual(got, []Direction{FlashUp}) {
		t.Fatalf("flash = %v, want [up]", got)
	}
	if rows := c.Snapshot().Picks; len(rows) != 1 || !reflect.DeepEqual(rows[0].Flash, []Direction{FlashUp}) || rows[0].DisplayPrice != 101.50 {
		t.Errorf("snapshot row = %+v", rows)
	}

	clock.Advance(999 * time.Millisecond)
	if got := c.Flash("AAPL"); len(got) != 1 {
		t.Fatalf("flash cleared early: %v", got)
	}
	clock.Advance(time.Millisecond)
	if got := c.Flash("AAPL"); len(got) != 0 {
		t.Fatalf("flash after 1s = %v, want none", got)
	}
}

func TestRealtimeFlash_EarlierTimerClearsLaterFlash(t *testing.T) {
	clock := newFakeClock()
	pf := &priceFetcher{MockFetcher: collector.NewMockFetcher(), quotes: map[string]float64{"AAPL": 101.50}}
	c := newTestController(t, Options{Fetcher: pf, Clock: clock})
	ctx := context.Background()
	c.RefreshDashboard(ctx)

	if err := c.UpdateRealtimePrices(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Advance(500 * time.Millisecond)
	pf.quote("AAPL", 102.00)
	if err := c.UpdateRealtimePrices(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Advance(500 * time.Millisecond)
	if got := c.Flash("AAPL"); len(got) != 0 {
		t.Errorf("flash = %v, want cleared by first timer", got)
	}
}

func TestRealtimePrices_DownAndUnchanged(t *testing.T) {
	clock := newFakeClock()
	pf := &priceFetcher{MockFetcher: collector.NewMockFetcher(), quotes: map[string]float64{"AAPL": 100.00}}
	c := newTestController(t, Options{Fetcher: pf, Clock: clock})
	ctx := context.Background()
	c.RefreshDashboard(ctx)

	if err := c.UpdateRealtimePrices(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Flash("AAPL"); len(got) != 0 {
		t.Errorf("unchanged price flashed %v", got)
	}

	pf.quote("AAPL", 98.25)
	if err := c.UpdateRealtimePrices(ctx); err != nil {
		t.Fatal(err)
	}
	if got := c.Flash("AAPL"); !reflect.DeepEqual(got, []Direction{FlashDown}) {
		t.Errorf("flash = %v, want [down]", got)
	}
}

func TestRealtimePrices_NoPicks(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	if err := c.UpdateRealtimePrices(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls(collector.EndpointRealtime); n != 0 {
		t.Errorf("realtime calls = %d, want 0", n)
	}
}

func TestRefreshDashboard_PanelIsolation(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	ctx := context.Background()

	mock.Fail(collector.EndpointETFFlows, errors.New("etf backend down"))
	c.RefreshDashboard(ctx)

	s := c.Snapshot()
	if s.ETFFlows != nil {
		t.Error("ETF panel populated despite failure")
	}
	if _, ok := s.Errors[PanelETFFlows]; !ok {
		t.Errorf("errors = %v, want etf-flows entry", s.Errors)
	}
	if len(s.Indices) == 0 || len(s.Picks) == 0 || s.Macro == nil || len(s.Heatmap) == 0 || len(s.OptionsFlow) == 0 {
		t.Fatalf("healthy panels missing: %+v", s)
	}

	mock.Fail(collector.EndpointETFFlows, nil)
	mock.Fail(collector.EndpointMacro, errors.New("llm timeout"))
	c.RefreshDashboard(ctx)

	s = c.Snapshot()
	if s.ETFFlows == nil {
		t.Error("ETF panel not recovered")
	}
	if s.Macro == nil {
		t.Error("macro panel lost its previous state")
	}
	if _, ok := s.Errors[PanelETFFlows]; ok {
		t.Error("stale etf-flows error kept")
	}
}

func TestOptionsFlow_TopRowsWithSentiment(t *testing.T) {
	c := newTestController(t, Options{Clock: newFakeClock()})
	c.RefreshDashboard(context.Background())

	rows := c.Snapshot().OptionsFlow
	if len(rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(rows))
	}
	for _, r := range rows {
		if r.Sentiment == "" {
			t.Errorf("%s: empty sentiment", r.Ticker)
		}
	}
}

func TestLoadHistory(t *testing.T) {
	tests := []struct {
		name      string
		lang      string
		date      string
		wantErr   bool
		wantAlert string
	}{
		{name: "known date", lang: "ko", date: "2025-01-10"},
		{name: "missing date ko", lang: "ko", date: "1999-01-01", wantErr: true, wantAlert: i18n.For(i18n.LangKO).HistoryLoadFailed},
		{name: "missing date en", lang: "en", date: "1999-01-01", wantErr: true, wantAlert: i18n.For(i18n.LangEN).HistoryLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := &recordingAlerter{}
			c := newTestController(t, Options{Alerter: alerts, Language: tt.lang, Clock: newFakeClock()})

			err := c.LoadHistory(context.Background(), tt.date)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			got := alerts.all()
			if tt.wantAlert == "" {
				if len(got) != 0 {
					t.Errorf("unexpected alerts %v", got)
				}
				s := c.Snapshot()
				if s.HistoryDate != tt.date || len(s.Picks) == 0 {
					t.Errorf("history not rendered: date=%q picks=%d", s.HistoryDate, len(s.Picks))
				}
				return
			}
			if len(got) != 1 || got[0] != tt.wantAlert {
				t.Errorf("alerts = %v, want [%q]", got, tt.wantAlert)
			}
		})
	}
}

func TestLoadHistory_EmptyDateReloadsCurrent(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	ctx := context.Background()

	if err := c.LoadHistory(ctx, "2025-01-03"); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadHistory(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls(collector.EndpointSmartMoney); n != 1 {
		t.Errorf("smart money calls = %d, want 1", n)
	}
	if d := c.Snapshot().HistoryDate; d != "" {
		t.Errorf("history date = %q, want current", d)
	}
}

func TestValidation(t *testing.T) {
	c := newTestController(t, Options{Clock: newFakeClock()})
	ctx := context.Background()

	if _, err := c.SetPeriod("7d"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("SetPeriod(7d) = %v", err)
	}
	if err := c.SetLanguage(ctx, "fr"); !errors.Is(err, ErrInvalidLanguage) {
		t.Errorf("SetLanguage(fr) = %v", err)
	}
	if err := c.SetModel(ctx, "claude"); !errors.Is(err, ErrInvalidModel) {
		t.Errorf("SetModel(claude) = %v", err)
	}
	if err := c.SwitchTab(ctx, "crypto"); !errors.Is(err, ErrInvalidTab) {
		t.Errorf("SwitchTab(crypto) = %v", err)
	}
	if _, err := c.SelectTicker("  "); !errors.Is(err, ErrNoTicker) {
		t.Errorf("SelectTicker(blank) = %v", err)
	}
	if _, err := c.ToggleIndicator("ichimoku"); !errors.Is(err, model.ErrUnknownIndicator) {
		t.Errorf("ToggleIndicator(ichimoku) = %v", err)
	}
	if _, err := New(Options{Fetcher: collector.NewMockFetcher(), Period: "10y"}); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("New(period 10y) = %v", err)
	}
	if _, err := New(Options{}); err == nil {
		t.Error("New without fetcher succeeded")
	}
}

func TestSelectTicker(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock(), Indicators: []model.IndicatorKind{model.KindRSI}})

	done, err := c.SelectTicker("msft")
	if err != nil {
		t.Fatal(err)
	}
	if err := waitLoad(t, done); err != nil {
		t.Fatalf("load: %v", err)
	}
	ds := c.Overlay().Dataset()
	if ds == nil || ds.Ticker != "MSFT" || ds.Period != model.DefaultPeriod {
		t.Fatalf("dataset = %+v", ds)
	}
	if n := c.Overlay().HandleCounts()[model.KindRSI]; n != 1 {
		t.Errorf("rsi handles = %d, want 1", n)
	}
	waitFor(t, "ai summary", func() bool {
		a := c.Snapshot().AISummary
		return a != nil && a.Ticker == "MSFT"
	})

	done, err = c.SetPeriod("3mo")
	if err != nil || done == nil {
		t.Fatalf("SetPeriod = %v, %v", done, err)
	}
	if err := waitLoad(t, done); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if ds := c.Overlay().Dataset(); ds == nil || ds.Period != "3mo" {
		t.Errorf("dataset after period change = %+v", ds)
	}
}

func TestSetPeriod_NoTicker(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	done, err := c.SetPeriod("6mo")
	if err != nil || done != nil {
		t.Fatalf("SetPeriod = %v, %v; want nil, nil", done, err)
	}
	if p := c.Snapshot().Period; p != "6mo" {
		t.Errorf("period = %q", p)
	}
	if n := mock.Calls(collector.EndpointStockChart); n != 0 {
		t.Errorf("chart calls = %d, want 0", n)
	}
}

func TestSmartMoney_AutoLoadsFirstPick(t *testing.T) {
	mock := collector.NewMockFetcher("NVDA", "AAPL")
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	c.RefreshDashboard(context.Background())

	if tk := c.Snapshot().Ticker; tk != "NVDA" {
		t.Fatalf("ticker = %q, want NVDA", tk)
	}
	waitFor(t, "auto-loaded dataset", func() bool {
		ds := c.Overlay().Dataset()
		return ds != nil && ds.Ticker == "NVDA"
	})

	// A later refresh keeps the user's ticker.
	if _, err := c.SelectTicker("AAPL"); err != nil {
		t.Fatal(err)
	}
	c.RefreshDashboard(context.Background())
	if tk, _ := c.Overlay().Selection(); tk != "AAPL" {
		t.Errorf("selection = %q, want AAPL", tk)
	}
}

func TestSetLanguageAndModel(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	ctx := context.Background()

	if err := c.SetLanguage(ctx, "ko"); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls(collector.EndpointMacro); n != 0 {
		t.Errorf("unchanged language refreshed: %d macro calls", n)
	}

	if err := c.SetLanguage(ctx, "en"); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.Labels["ticker"] != "Ticker" {
		t.Errorf("label ticker = %q, want English", s.Labels["ticker"])
	}
	if s.Macro == nil || s.Macro.AIAnalysis != "Rates are stable and breadth is improving." {
		t.Errorf("macro not reloaded in English: %+v", s.Macro)
	}

	if err := c.SetModel(ctx, "gpt"); err != nil {
		t.Fatal(err)
	}
	s = c.Snapshot()
	if s.Macro == nil || s.Macro.Model != "gpt" || s.ModelLabel != "GPT-5.2" {
		t.Errorf("macro after model switch = %+v (%s)", s.Macro, s.ModelLabel)
	}
	before := mock.Calls(collector.EndpointMacro)
	if err := c.SetModel(ctx, "gpt"); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls(collector.EndpointMacro); n != before {
		t.Errorf("unchanged model reloaded macro")
	}
}

func TestSwitchTab(t *testing.T) {
	mock := collector.NewMockFetcher()
	c := newTestController(t, Options{Fetcher: mock, Clock: newFakeClock()})
	ctx := context.Background()

	if err := c.SwitchTab(ctx, model.TabCalendar); err != nil {
		t.Fatal(err)
	}
	s := c.Snapshot()
	if s.Tab != model.TabCalendar || len(s.Calendar) == 0 {
		t.Errorf("calendar tab: tab=%q events=%d", s.Tab, len(s.Calendar))
	}
	if n := mock.Calls(collector.EndpointPortfolio); n != 0 {
		t.Errorf("calendar tab refreshed market panels")
	}

	if err := c.SwitchTab(ctx, model.TabUSMarket); err != nil {
		t.Fatal(err)
	}
	if n := mock.Calls(collector.EndpointPortfolio); n != 1 {
		t.Errorf("portfolio calls = %d, want 1", n)
	}
}

func TestSubscribeAndClose(t *testing.T) {
	c, err := New(Options{Fetcher: collector.NewMockFetcher(), Clock: newFakeClock()})
	if err != nil {
		t.Fatal(err)
	}
	ch, cancel := c.Subscribe()
	defer cancel()

	if _, err := c.SetPeriod("2y"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	c.Close()
	if _, ok := <-ch; ok {
		// drain a pending signal, then expect close
		if _, ok := <-ch; ok {
			t.Error("subscription still open after Close")
		}
	}
	if _, err := c.SelectTicker("AAPL"); !errors.Is(err, ErrClosed) {
		t.Errorf("SelectTicker after Close = %v", err)
	}
}

func TestSelectTickerAndSetPeriod_Concurrent(t *testing.T) {
	c := newTestController(t, Options{})
	tickers := []string{"AAPL", "MSFT", "NVDA"}
	periods := []string{"1mo", "3mo", "6mo", "1y"}

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			if _, err := c.SelectTicker(tickers[i%len(tickers)]); err != nil {
				t.Errorf("SelectTicker: %v", err)
			}
		}(i)
		go func(i int) {
			defer wg.Done()
			if _, err := c.SetPeriod(periods[i%len(periods)]); err != nil {
				t.Errorf("SetPeriod: %v", err)
			}
		}(i)
	}
	wg.Wait()

	snap := c.Snapshot()
	ticker, period := c.Overlay().Selection()
	if ticker != snap.Ticker || period != snap.Period {
		t.Errorf("overlay selection %s/%s, controller %s/%s", ticker, period, snap.Ticker, snap.Period)
	}
}
