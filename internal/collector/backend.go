package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"MarketDashboard/internal/model"

	"golang.org/x/time/rate"
)

// APIError is a non-200 or error-flagged backend response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return "backend error: " + e.Message
	}
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

// retryable reports whether err came from transport or a 5xx status.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// ChartSource fetches raw candles when the backend chart endpoint fails.
type ChartSource interface {
	FetchCandles(ctx context.Context, ticker, period string) ([]model.Candle, error)
}

// BackendOptions configures an HTTPFetcher.
type BackendOptions struct {
	BaseURL  string
	ProxyURL string
	Timeout  time.Duration
	// RPS and Burst bound outbound requests; RPS <= 0 disables limiting.
	RPS   float64
	Burst int
	// Fallback, when set, serves stock charts if the backend chart call fails.
	Fallback ChartSource
}

// HTTPFetcher implements Fetcher against the dashboard analytics backend.
type HTTPFetcher struct {
	BaseURL  string
	Client   *http.Client
	limiter  *rate.Limiter
	fallback ChartSource
}

// NewHTTPFetcher creates a backend client with optional proxy support.
func NewHTTPFetcher(opts BackendOptions) *HTTPFetcher {
	transport := &http.Transport{}
	if opts.ProxyURL != "" {
		if u, err := url.Parse(opts.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	f := &HTTPFetcher{
		BaseURL: opts.BaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		fallback: opts.Fallback,
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return f
}

func (f *HTTPFetcher) Name() string { return "backend" }

func (f *HTTPFetcher) FetchPortfolio(ctx context.Context) (*model.PortfolioResponse, error) {
	var out model.PortfolioResponse
	if err := f.get(ctx, "/api/us/portfolio", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch portfolio: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchSmartMoney(ctx context.Context) (*model.SmartMoneyResponse, error) {
	var out model.SmartMoneyResponse
	if err := f.get(ctx, "/api/us/smart-money", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch smart money: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchHistory(ctx context.Context, date string) (*model.SmartMoneyResponse, error) {
	var out model.SmartMoneyResponse
	if err := f.get(ctx, "/api/us/history/"+url.PathEscape(date), nil, &out); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", date, err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchHistoryDates(ctx context.Context) (*model.HistoryDatesResponse, error) {
	var out model.HistoryDatesResponse
	if err := f.get(ctx, "/api/us/history-dates", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch history dates: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchETFFlows(ctx context.Context) (*model.ETFFlowsResponse, error) {
	var out model.ETFFlowsResponse
	if err := f.get(ctx, "/api/us/etf-flows", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch etf flows: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchOptionsFlow(ctx context.Context) (*model.OptionsFlowResponse, error) {
	var out model.OptionsFlowResponse
	if err := f.get(ctx, "/api/us/options-flow", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch options flow: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchMacroAnalysis(ctx context.Context, lang, llm string) (*model.MacroAnalysis, error) {
	var out model.MacroAnalysis
	q := url.Values{"lang": {lang}, "model": {llm}}
	if err := f.get(ctx, "/api/us/macro-analysis", q, &out); err != nil {
		return nil, fmt.Errorf("fetch macro analysis: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchSectorHeatmap(ctx context.Context) (*model.HeatmapResponse, error) {
	var raw json.RawMessage
	if err := f.get(ctx, "/api/us/sector-heatmap", nil, &raw); err != nil {
		return nil, fmt.Errorf("fetch sector heatmap: %w", err)
	}
	var out model.HeatmapResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode sector heatmap: %w", err)
	}
	out.Raw = raw
	return &out, nil
}

// FetchStockChart falls back to the configured ChartSource when the backend is
// unreachable or answers 5xx. Error-flagged bodies and 4xx are returned as-is.
func (f *HTTPFetcher) FetchStockChart(ctx context.Context, ticker, period string) (*model.StockChart, error) {
	var out model.StockChart
	err := f.get(ctx, "/api/us/stock-chart/"+url.PathEscape(ticker), url.Values{"period": {period}}, &out)
	if err == nil {
		return &out, nil
	}
	if f.fallback == nil || ctx.Err() != nil || !retryable(err) {
		return nil, fmt.Errorf("fetch stock chart %s: %w", ticker, err)
	}
	log.Printf("[WARN] backend chart for %s failed: %v, trying fallback", ticker, err)
	candles, fbErr := f.fallback.FetchCandles(ctx, ticker, period)
	if fbErr != nil {
		return nil, fmt.Errorf("fetch stock chart %s: %w; fallback also failed: %w", ticker, err, fbErr)
	}
	return &model.StockChart{Ticker: ticker, Period: period, Candles: candles}, nil
}

func (f *HTTPFetcher) FetchIndicators(ctx context.Context, ticker, period string) (*model.IndicatorsResponse, error) {
	var out model.IndicatorsResponse
	if err := f.get(ctx, "/api/us/technical-indicators/"+url.PathEscape(ticker), url.Values{"period": {period}}, &out); err != nil {
		return nil, fmt.Errorf("fetch indicators %s: %w", ticker, err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchAISummary(ctx context.Context, ticker, lang string) (*model.AISummary, error) {
	var out model.AISummary
	if err := f.get(ctx, "/api/us/ai-summary/"+url.PathEscape(ticker), url.Values{"lang": {lang}}, &out); err != nil {
		return nil, fmt.Errorf("fetch ai summary %s: %w", ticker, err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchCalendar(ctx context.Context) (*model.CalendarResponse, error) {
	var out model.CalendarResponse
	if err := f.get(ctx, "/api/us/calendar", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch calendar: %w", err)
	}
	return &out, nil
}

func (f *HTTPFetcher) FetchRealtimePrices(ctx context.Context, tickers []string) (map[string]model.RealtimeQuote, error) {
	if len(tickers) == 0 {
		return map[string]model.RealtimeQuote{}, nil
	}
	body, err := json.Marshal(struct {
		Tickers []string `json:"tickers"`
	}{tickers})
	if err != nil {
		return nil, err
	}
	req, err := f.newRequest(ctx, http.MethodPost, "/api/realtime-prices", nil, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := f.do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch realtime prices: %w", err)
	}
	// Quotes the backend could not resolve come back as null.
	var quotes map[string]*model.RealtimeQuote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil, fmt.Errorf("decode realtime prices: %w", err)
	}
	out := make(map[string]model.RealtimeQuote, len(quotes))
	for t, q := range quotes {
		if q != nil {
			out[t] = *q
		}
	}
	return out, nil
}

func (f *HTTPFetcher) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := f.newRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return err
	}
	raw, err := f.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	endpoint := f.BaseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	return http.NewRequestWithContext(ctx, method, endpoint, body)
}

// do sends req and returns the body of a 200 response that carries no error flag.
func (f *HTTPFetcher) do(req *http.Request) ([]byte, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	msg := errorFlag(body)
	if resp.StatusCode != http.StatusOK {
		if msg == "" {
			msg = string(body)
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if msg != "" {
		return nil, &APIError{Message: msg}
	}
	return body, nil
}

// errorFlag returns the "error" member of a JSON object body, if any.
func errorFlag(body []byte) string {
	if len(body) == 0 || body[0] != '{' {
		return ""
	}
	var probe struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &probe) != nil {
		return ""
	}
	return probe.Error
}
