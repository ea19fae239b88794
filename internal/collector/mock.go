package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"MarketDashboard/internal/calculator"
	"MarketDashboard/internal/model"
)

// Endpoint names used as MockFetcher.Errors keys.
const (
	EndpointPortfolio    = "portfolio"
	EndpointSmartMoney   = "smart-money"
	EndpointHistory      = "history"
	EndpointHistoryDates = "history-dates"
	EndpointETFFlows     = "etf-flows"
	EndpointOptionsFlow  = "options-flow"
	EndpointMacro        = "macro-analysis"
	EndpointHeatmap      = "sector-heatmap"
	EndpointStockChart   = "stock-chart"
	EndpointIndicators   = "technical-indicators"
	EndpointAISummary    = "ai-summary"
	EndpointCalendar     = "calendar"
	EndpointRealtime     = "realtime-prices"
)

var mockAnchor = time.Date(2025, 1, 2, 21, 0, 0, 0, time.UTC)

// MockFetcher returns deterministic data for development and testing.
// Indicator payloads are computed from the generated candles.
type MockFetcher struct {
	Tickers []string
	Dates   []string

	mu     sync.Mutex
	errors map[string]error
	tick   int
	calls  map[string]int
}

// NewMockFetcher creates a mock serving the given smart money tickers.
func NewMockFetcher(tickers ...string) *MockFetcher {
	if len(tickers) == 0 {
		tickers = []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AVGO", "JPM", "LLY"}
	}
	return &MockFetcher{
		Tickers: tickers,
		Dates:   []string{"2025-01-10", "2025-01-03"},
		errors:  make(map[string]error),
		calls:   make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// Fail makes endpoint return err until cleared with a nil err.
func (m *MockFetcher) Fail(endpoint string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, endpoint)
		return
	}
	m.errors[endpoint] = err
}

// Calls returns how often endpoint was requested.
func (m *MockFetcher) Calls(endpoint string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[endpoint]
}

func (m *MockFetcher) enter(ctx context.Context, endpoint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[endpoint]++
	return m.errors[endpoint]
}

func (m *MockFetcher) FetchPortfolio(ctx context.Context) (*model.PortfolioResponse, error) {
	if err := m.enter(ctx, EndpointPortfolio); err != nil {
		return nil, err
	}
	idx := []struct {
		name  string
		price float64
		pct   float64
	}{
		{"S&P 500", 5881.63, 0.42},
		{"NASDAQ", 19310.79, 0.61},
		{"Dow Jones", 42544.22, -0.12},
		{"Russell 2000", 2230.16, -0.35},
	}
	out := &model.PortfolioResponse{}
	for _, i := range idx {
		color := "#22c55e"
		if i.pct < 0 {
			color = "#ef4444"
		}
		out.MarketIndices = append(out.MarketIndices, model.MarketIndex{
			Name:      i.name,
			Price:     fmt.Sprintf("%.2f", i.price),
			Change:    fmt.Sprintf("%+.2f", i.price*i.pct/100),
			ChangePct: i.pct,
			Color:     color,
		})
	}
	return out, nil
}

func (m *MockFetcher) FetchSmartMoney(ctx context.Context) (*model.SmartMoneyResponse, error) {
	if err := m.enter(ctx, EndpointSmartMoney); err != nil {
		return nil, err
	}
	return m.picks("", false), nil
}

func (m *MockFetcher) FetchHistory(ctx context.Context, date string) (*model.SmartMoneyResponse, error) {
	if err := m.enter(ctx, EndpointHistory); err != nil {
		return nil, err
	}
	for _, d := range m.Dates {
		if d == date {
			return m.picks(date, true), nil
		}
	}
	return nil, &APIError{Status: 404, Message: "history not found for " + date}
}

func (m *MockFetcher) picks(date string, history bool) *model.SmartMoneyResponse {
	out := &model.SmartMoneyResponse{AnalysisDate: date}
	var sum float64
	for i, t := range m.Tickers {
		base := basePrice(t)
		score := 90 - float64(i)*3.5
		p := model.SmartMoneyPick{
			Ticker:         t,
			Name:           t + " Inc.",
			Sector:         "Technology",
			Category:       "Accumulation",
			PriceAtRec:     base,
			CurrentPrice:   round2(base * 1.02),
			ChangeSinceRec: 2.0,
			TargetUpside:   12.5,
		}
		if history {
			p.CompositeScore = score
		} else {
			s := score
			p.FinalScore = &s
		}
		out.TopPicks = append(out.TopPicks, p)
		sum += p.ChangeSinceRec
	}
	if history {
		avg := 0.0
		if len(m.Tickers) > 0 {
			avg = sum / float64(len(m.Tickers))
		}
		out.Summary = &model.SmartMoneySummary{Total: len(m.Tickers), AvgPerformance: &avg}
	} else {
		out.Summary = &model.SmartMoneySummary{TotalAnalyzed: 500, AvgScore: 61.4}
	}
	return out
}

func (m *MockFetcher) FetchHistoryDates(ctx context.Context) (*model.HistoryDatesResponse, error) {
	if err := m.enter(ctx, EndpointHistoryDates); err != nil {
		return nil, err
	}
	return &model.HistoryDatesResponse{Dates: append([]string(nil), m.Dates...)}, nil
}

func (m *MockFetcher) FetchETFFlows(ctx context.Context) (*model.ETFFlowsResponse, error) {
	if err := m.enter(ctx, EndpointETFFlows); err != nil {
		return nil, err
	}
	return &model.ETFFlowsResponse{
		MarketSentimentScore: 58.3,
		TopInflows:           []model.ETFFlow{{Ticker: "SPY", Name: "SPDR S&P 500", FlowScore: 81}, {Ticker: "QQQ", Name: "Invesco QQQ", FlowScore: 77}},
		TopOutflows:          []model.ETFFlow{{Ticker: "TLT", Name: "iShares 20+ Year Treasury", FlowScore: 22}},
		AIAnalysis:           "Equity inflows continue while long duration bonds see redemptions.",
	}, nil
}

func (m *MockFetcher) FetchOptionsFlow(ctx context.Context) (*model.OptionsFlowResponse, error) {
	if err := m.enter(ctx, EndpointOptionsFlow); err != nil {
		return nil, err
	}
	out := &model.OptionsFlowResponse{}
	for i, t := range append(append([]string(nil), m.Tickers...), "SPY", "QQQ") {
		var f model.OptionsFlow
		f.Ticker = t
		f.Metrics.PCRatio = round2(0.4 + float64(i%8)*0.12)
		out.OptionsFlow = append(out.OptionsFlow, f)
	}
	return out, nil
}

func (m *MockFetcher) FetchMacroAnalysis(ctx context.Context, lang, llm string) (*model.MacroAnalysis, error) {
	if err := m.enter(ctx, EndpointMacro); err != nil {
		return nil, err
	}
	text := "Rates are stable and breadth is improving."
	if lang == "ko" {
		text = "금리는 안정적이며 시장 폭이 개선되고 있습니다."
	}
	return &model.MacroAnalysis{
		AIAnalysis: text,
		Model:      llm,
		MacroIndicators: map[string]model.MacroIndicator{
			"VIX":     {Current: 15.2, Change1D: -0.8},
			"DXY":     {Current: 104.1, Change1D: 0.2},
			"US10Y":   {Current: 4.21, Change1D: 0.03},
			"GOLD":    {Current: 2650.4, Change1D: 0.5},
			"OIL":     {Current: 71.3, Change1D: -1.1},
			"BTC":     {Current: 94210, Change1D: 2.4},
			"USD/KRW": {Current: 1452.3, Change1D: 0.1},
		},
	}, nil
}

func (m *MockFetcher) FetchSectorHeatmap(ctx context.Context) (*model.HeatmapResponse, error) {
	if err := m.enter(ctx, EndpointHeatmap); err != nil {
		return nil, err
	}
	return &model.HeatmapResponse{Series: []model.HeatmapSeries{
		{Name: "Technology", Data: []model.HeatmapCell{{X: "AAPL", Y: 3400, Change: 0.8}, {X: "MSFT", Y: 3100, Change: -0.3}}},
		{Name: "Financials", Data: []model.HeatmapCell{{X: "JPM", Y: 680, Change: 1.2}}},
	}}, nil
}

func (m *MockFetcher) FetchStockChart(ctx context.Context, ticker, period string) (*model.StockChart, error) {
	if err := m.enter(ctx, EndpointStockChart); err != nil {
		return nil, err
	}
	return &model.StockChart{Ticker: ticker, Period: period, Candles: mockCandles(ticker, period)}, nil
}

func (m *MockFetcher) FetchIndicators(ctx context.Context, ticker, period string) (*model.IndicatorsResponse, error) {
	if err := m.enter(ctx, EndpointIndicators); err != nil {
		return nil, err
	}
	return calculator.Indicators(ticker, mockCandles(ticker, period)), nil
}

func (m *MockFetcher) FetchAISummary(ctx context.Context, ticker, lang string) (*model.AISummary, error) {
	if err := m.enter(ctx, EndpointAISummary); err != nil {
		return nil, err
	}
	text := ticker + " shows steady institutional accumulation."
	if lang == "ko" {
		text = ticker + " 종목은 기관 매집이 꾸준히 이어지고 있습니다."
	}
	return &model.AISummary{Ticker: ticker, Summary: text, Lang: lang}, nil
}

func (m *MockFetcher) FetchCalendar(ctx context.Context) (*model.CalendarResponse, error) {
	if err := m.enter(ctx, EndpointCalendar); err != nil {
		return nil, err
	}
	return &model.CalendarResponse{Events: []model.CalendarEvent{
		{Date: "2025-01-10", Time: "08:30", Currency: "USD", Title: "Non-Farm Payrolls", Actual: "256K", Forecast: "164K", Previous: "212K", Impact: "High"},
		{Date: "2025-01-15", Time: "08:30", Currency: "USD", Title: "CPI m/m", Forecast: "0.3%", Previous: "0.3%", Impact: "High"},
	}}, nil
}

// FetchRealtimePrices walks each ticker's price a little further on every call.
func (m *MockFetcher) FetchRealtimePrices(ctx context.Context, tickers []string) (map[string]model.RealtimeQuote, error) {
	if err := m.enter(ctx, EndpointRealtime); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.tick++
	tick := m.tick
	m.mu.Unlock()

	out := make(map[string]model.RealtimeQuote, len(tickers))
	for _, t := range tickers {
		p := round2(basePrice(t) * 1.02 * (1 + 0.003*math.Sin(float64(tick))))
		out[t] = model.RealtimeQuote{
			Current: p, Open: p, High: p, Low: p,
			Date: mockAnchor.Add(time.Duration(tick) * time.Minute).Format("2006-01-02 15:04"),
		}
	}
	return out, nil
}

// periodBars maps a chart period to a bar count and spacing.
func periodBars(period string) (int, time.Duration) {
	day := 24 * time.Hour
	switch period {
	case "1mo":
		return 22, day
	case "3mo":
		return 63, day
	case "6mo":
		return 126, day
	case "2y":
		return 504, day
	case "5y":
		return 260, 7 * day
	case "max":
		return 520, 7 * day
	}
	return 252, day
}

func mockCandles(ticker, period string) []model.Candle {
	n, step := periodBars(period)
	base := basePrice(ticker)
	candles := make([]model.Candle, n)
	start := mockAnchor.Add(-time.Duration(n) * step)
	for i := 0; i < n; i++ {
		x := float64(i)
		p := base * (1 + 0.08*math.Sin(x/9) + 0.0005*x)
		candles[i] = model.Candle{
			Time:  start.Add(time.Duration(i) * step).Unix(),
			Open:  round2(p * 0.998),
			High:  round2(p * 1.01),
			Low:   round2(p * 0.99),
			Close: round2(p),
		}
	}
	return candles
}

func basePrice(ticker string) float64 {
	h := fnv.New32a()
	h.Write([]byte(ticker))
	return float64(50 + h.Sum32()%450)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
