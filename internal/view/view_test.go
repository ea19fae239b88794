package view

import (
	"errors"
	"strings"
	"testing"
	"time"

	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/i18n"
	"MarketDashboard/internal/model"
)

func testSnapshot() *dashboard.Snapshot {
	score := 91.5
	avg := 2.5
	return &dashboard.Snapshot{
		Language:   "en",
		Model:      "gemini",
		ModelLabel: "Gemini 3.0",
		Tab:        model.TabUSMarket,
		Period:     "1y",
		Ticker:     "AAPL",
		Labels:     i18n.Labels(i18n.LangEN),
		UpdatedAt:  time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC),
		Indices:    []model.MarketIndex{{Name: "S&P 500", Price: "5881.63", Change: "+24.70", ChangePct: 0.42}},
		Picks: []dashboard.PickRow{
			{SmartMoneyPick: model.SmartMoneyPick{Ticker: "AAPL", FinalScore: &score, ChangeSinceRec: 3.1}, Score: score, DisplayPrice: 101.5, Flash: []dashboard.Direction{dashboard.FlashUp}},
			{SmartMoneyPick: model.SmartMoneyPick{Ticker: "MSFT", CompositeScore: 80, ChangeSinceRec: -1.2}, Score: 80, DisplayPrice: 420},
		},
		Summary:     &model.SmartMoneySummary{Total: 2, AvgPerformance: &avg},
		HistoryDate: "2025-01-10",
		OptionsFlow: []model.OptionsFlow{{Ticker: "NVDA", Sentiment: model.SentimentBullish}},
		Macro:       &model.MacroAnalysis{AIAnalysis: "Rates <steady>", MacroIndicators: map[string]model.MacroIndicator{"VIX": {Current: 15.2, Change1D: -0.8}}},
		Calendar:    []model.CalendarEvent{{Date: "2025-01-10", Title: "Non-Farm Payrolls", Impact: "High"}},
		Errors:      map[string]string{"heatmap": "status 502"},
		Overlay: dashboard.OverlayState{
			Ticker:  "AAPL",
			Period:  "1y",
			Loaded:  true,
			Enabled: map[model.IndicatorKind]bool{model.KindRSI: true},
			Handles: map[model.IndicatorKind]int{model.KindRSI: 1},
			Candles: 252,
		},
	}
}

func TestText(t *testing.T) {
	out := Text(testSnapshot())
	for _, want := range []string{
		"Market Indices", "S&P 500",
		"Final Top 10", "(2025-01-10)", "> AAPL", "MSFT", "101.50 ▲",
		"Options Flow", "NVDA",
		"Macro Analysis", "[Gemini 3.0]", "VIX",
		"AAPL (1y)", "252 candles",
		"heatmap: status 502",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "Non-Farm Payrolls") {
		t.Error("calendar rendered on market tab")
	}
}

func TestText_CalendarTab(t *testing.T) {
	s := testSnapshot()
	s.Tab = model.TabCalendar
	out := Text(s)
	if !strings.Contains(out, "Non-Farm Payrolls") {
		t.Error("calendar missing")
	}
	if strings.Contains(out, "Final Top 10") {
		t.Error("market panels rendered on calendar tab")
	}
}

func TestChatStatus(t *testing.T) {
	out := ChatStatus(testSnapshot())
	for _, want := range []string{
		"<b>MarketDashboard</b> | 2025-01-02 15:04",
		"chart: <b>AAPL</b> | rsi(1)",
		"1. AAPL 91.5 $101.50 (+3.10%)",
		"Rates &lt;steady&gt;",
		"1 panel(s) failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q\n%s", want, out)
		}
	}
}

func TestText_CalendarFailed(t *testing.T) {
	s := testSnapshot()
	s.Tab = model.TabCalendar
	s.Calendar = nil
	s.Errors = map[string]string{dashboard.PanelCalendar: "status 500"}
	out := Text(s)
	if !strings.Contains(out, "Error loading calendar.") {
		t.Errorf("calendar failure message missing:\n%s", out)
	}
}

func TestChatCalendar_Escapes(t *testing.T) {
	s := testSnapshot()
	s.Calendar = []model.CalendarEvent{
		{Date: "2025-01-02", Time: "09:45", Currency: "USD", Title: "S&P Global Manufacturing PMI <prelim>", Impact: "Medium"},
		{Date: "2025-01-10", Time: "08:30", Currency: "USD", Title: "Non-Farm Payrolls", Impact: "High"},
	}
	out := ChatCalendar(s)
	if !strings.Contains(out, "S&amp;P Global Manufacturing PMI &lt;prelim&gt;") {
		t.Errorf("title not escaped:\n%s", out)
	}
	if strings.Contains(out, "S&P") || strings.Contains(out, "<prelim>") {
		t.Errorf("raw markup leaked:\n%s", out)
	}
	if !strings.Contains(out, "<b>2025-01-10 08:30 USD Non-Farm Payrolls</b>") {
		t.Errorf("high impact event not bold:\n%s", out)
	}
}

func TestChatError(t *testing.T) {
	got := ChatError(errors.New(`invalid chart period "<5y&>"`))
	want := "❌ invalid chart period &#34;&lt;5y&amp;&gt;&#34;"
	if got != want {
		t.Errorf("ChatError = %q, want %q", got, want)
	}
}
