package calculator

import (
	"math"
	"testing"

	"MarketDashboard/internal/model"
)

func candlesFrom(closes ...float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i, c := range closes {
		out[i] = model.Candle{Time: int64(1700000000 + i*86400), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("expected 4, got %.2f", got)
	}
	if _, err := CalculateSMA([]float64{1}, 3); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := CalculateSMA([]float64{1}, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestSMASeries(t *testing.T) {
	got := SMASeries([]float64{2, 4, 6, 8}, 2)
	if !math.IsNaN(got[0]) {
		t.Errorf("expected NaN before first window, got %.2f", got[0])
	}
	want := []float64{3, 5, 7}
	for i, w := range want {
		if got[i+1] != w {
			t.Errorf("index %d: expected %.2f, got %.2f", i+1, w, got[i+1])
		}
	}
}

func TestRSI_MonotonicRise(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	c := candlesFrom(closes...)
	rsi, err := CalculateRSI(c, 14)
	if err != nil {
		t.Fatal(err)
	}
	if rsi != 100 {
		t.Errorf("expected 100 for a pure uptrend, got %.2f", rsi)
	}
	series := RSISeries(c, 14)
	if len(series) != 30-14 {
		t.Errorf("expected %d points, got %d", 30-14, len(series))
	}
	if series[0].Time != c[14].Time {
		t.Errorf("expected first point at candle 14")
	}
}

func TestRSI_Insufficient(t *testing.T) {
	rsi, err := CalculateRSI(candlesFrom(1, 2, 3), 14)
	if err != nil || rsi != 50 {
		t.Errorf("expected default 50, got %.2f (%v)", rsi, err)
	}
	if got := RSISeries(candlesFrom(1, 2, 3), 14); len(got) != 0 {
		t.Errorf("expected empty series, got %d points", len(got))
	}
}

func TestBollingerSeries_Flat(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50
	}
	bb := BollingerSeries(candlesFrom(closes...), 20, 2)
	if len(bb.Middle) != 6 {
		t.Fatalf("expected 6 points, got %d", len(bb.Middle))
	}
	for i := range bb.Middle {
		if bb.Upper[i].Value != 50 || bb.Lower[i].Value != 50 || bb.Middle[i].Value != 50 {
			t.Errorf("flat prices should collapse bands, got %+v %+v %+v", bb.Upper[i], bb.Middle[i], bb.Lower[i])
		}
	}
}

func TestMACDSeries_Lengths(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/3)*5
	}
	m := MACDSeries(candlesFrom(closes...), 12, 26, 9)
	if len(m.Line) != 60-25 {
		t.Errorf("expected %d macd points, got %d", 60-25, len(m.Line))
	}
	if len(m.Signal) != 60-25-8 {
		t.Errorf("expected %d signal points, got %d", 60-25-8, len(m.Signal))
	}
	if len(m.Histogram) != len(m.Signal) {
		t.Errorf("histogram and signal lengths differ: %d vs %d", len(m.Histogram), len(m.Signal))
	}
}

func TestClusterLevels(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"empty", nil, []float64{}},
		{"merge within 2%", []float64{100, 101, 150}, []float64{100.5, 150}},
		{"keep last five", []float64{10, 20, 30, 40, 50, 60, 70}, []float64{30, 40, 50, 60, 70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clusterLevels(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestIndicators_AllKindsPresent(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*10
	}
	resp := Indicators("AAPL", candlesFrom(closes...))
	if resp.Ticker != "AAPL" {
		t.Errorf("expected ticker AAPL, got %s", resp.Ticker)
	}
	if resp.Bollinger == nil || resp.MACD == nil || resp.SupportResistance == nil || resp.RSI == nil {
		t.Fatal("expected every indicator present")
	}
	if len(resp.SupportResistance.Support) == 0 || len(resp.SupportResistance.Resistance) == 0 {
		t.Errorf("expected levels for an oscillating series, got %+v", resp.SupportResistance)
	}
}
