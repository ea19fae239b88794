package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"MarketDashboard/internal/model"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *HTTPFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPFetcher(BackendOptions{BaseURL: srv.URL})
}

func TestFetchIndicators_Decodes(t *testing.T) {
	f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/us/technical-indicators/AAPL" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("period"); got != "1y" {
			t.Errorf("expected period 1y, got %s", got)
		}
		w.Write([]byte(`{"ticker":"AAPL","rsi":[{"time":1,"value":55.5}],"macd":{"macd_line":[],"signal_line":[],"histogram":[{"time":1,"value":-0.2}]}}`))
	})
	resp, err := f.FetchIndicators(context.Background(), "AAPL", "1y")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.Ticker != "AAPL" || len(resp.RSI) != 1 || resp.RSI[0].Value != 55.5 {
		t.Errorf("unexpected rsi: %+v", resp)
	}
	if resp.MACD == nil || len(resp.MACD.Histogram) != 1 {
		t.Errorf("expected macd histogram, got %+v", resp.MACD)
	}
	if resp.Bollinger != nil || resp.SupportResistance != nil {
		t.Error("absent keys should decode to nil")
	}
}

func TestFetch_ErrorFlagAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   int
	}{
		{"error flag on 200", 200, `{"error":"No data found for ZZZZ"}`, 0},
		{"not found", 404, `{"error":"No data found"}`, 404},
		{"server error plain", 500, `boom`, 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := f.FetchStockChart(context.Background(), "ZZZZ", "1y")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, apiErr.Status)
			}
			if apiErr.Message == "" {
				t.Error("expected message")
			}
		})
	}
}

func TestFetchMacroAnalysis_Query(t *testing.T) {
	f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lang") != "en" || q.Get("model") != "gpt" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"ai_analysis":"ok","macro_indicators":{"VIX":{"current":15.1,"change_1d":-0.4}}}`))
	})
	out, err := f.FetchMacroAnalysis(context.Background(), "en", "gpt")
	if err != nil {
		t.Fatal(err)
	}
	if out.MacroIndicators["VIX"].Change1D != -0.4 {
		t.Errorf("unexpected macro %+v", out)
	}
}

func TestFetchRealtimePrices(t *testing.T) {
	f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var req struct {
			Tickers []string `json:"tickers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if strings.Join(req.Tickers, ",") != "AAPL,MSFT" {
			t.Errorf("unexpected tickers %v", req.Tickers)
		}
		w.Write([]byte(`{"AAPL":{"current":101.5,"open":100,"high":102,"low":99,"volume":1000,"date":"2025-01-02 15:59"},"MSFT":null}`))
	})
	quotes, err := f.FetchRealtimePrices(context.Background(), []string{"AAPL", "MSFT"})
	if err != nil {
		t.Fatal(err)
	}
	if len(quotes) != 1 || quotes["AAPL"].Current != 101.5 {
		t.Errorf("unexpected quotes %+v", quotes)
	}
}

func TestFetchRealtimePrices_NoTickers(t *testing.T) {
	f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	quotes, err := f.FetchRealtimePrices(context.Background(), nil)
	if err != nil || len(quotes) != 0 {
		t.Errorf("expected empty result, got %v %v", quotes, err)
	}
}

type stubSource struct {
	candles []model.Candle
	err     error
}

func (s stubSource) FetchCandles(context.Context, string, string) ([]model.Candle, error) {
	return s.candles, s.err
}

func TestFetchStockChart_Fallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(BackendOptions{
		BaseURL:  srv.URL,
		Fallback: stubSource{candles: []model.Candle{{Time: 1, Close: 10}}},
	})
	sc, err := f.FetchStockChart(context.Background(), "AAPL", "1y")
	if err != nil {
		t.Fatalf("expected fallback to succeed: %v", err)
	}
	if len(sc.Candles) != 1 || sc.Ticker != "AAPL" {
		t.Errorf("unexpected chart %+v", sc)
	}

	f.fallback = stubSource{err: errors.New("yahoo down")}
	if _, err := f.FetchStockChart(context.Background(), "AAPL", "1y"); err == nil {
		t.Error("expected error when fallback fails")
	}
}

func TestFetchStockChart_NoFallbackOnRejection(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "error flag", status: http.StatusOK, body: `{"error":"No data for ZZZZ"}`, wantStatus: 0},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"unknown ticker"}`, wantStatus: http.StatusNotFound},
		{name: "bad request", status: http.StatusBadRequest, body: `bad period`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewHTTPFetcher(BackendOptions{
				BaseURL:  srv.URL,
				Fallback: stubSource{candles: []model.Candle{{Time: 1, Close: 10}}},
			})
			sc, err := f.FetchStockChart(context.Background(), "ZZZZ", "1y")
			if err == nil {
				t.Fatalf("expected error, got chart %+v", sc)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.Status != tt.wantStatus {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestFetchSectorHeatmap_KeepsRaw(t *testing.T) {
	body := `{"series":[{"name":"Tech","data":[{"x":"AAPL","y":3400,"change":0.8}]}]}`
	f := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
	hm, err := f.FetchSectorHeatmap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(hm.Raw) != body || len(hm.Series) != 1 {
		t.Errorf("unexpected heatmap %+v", hm)
	}
}

func TestYahooSource_FetchCandles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/%5EGSPC") && !strings.HasSuffix(r.URL.Path, "/^GSPC") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1wk" {
			t.Errorf("expected weekly interval for 5y")
		}
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[200,100,150],"indicators":{"quote":[{"open":[2,1,null],"high":[2,1,null],"low":[2,1,null],"close":[2,1,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	y := NewYahooSource("")
	y.BaseURL = srv.URL
	candles, err := y.FetchCandles(context.Background(), "SPX", "5y")
	if err != nil {
		t.Fatal(err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected null bar skipped, got %d candles", len(candles))
	}
	if candles[0].Time != 100 || candles[1].Time != 200 {
		t.Errorf("expected sorted candles, got %+v", candles)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(&APIError{Status: 404}) {
		t.Error("expected 404 to be not found")
	}
	if IsNotFound(errors.New("x")) {
		t.Error("plain error is not a 404")
	}
}
