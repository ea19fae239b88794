package model

import "encoding/json"

// MarketIndex is one tile of the market indices strip.
type MarketIndex struct {
	Name      string  `json:"name"`
	Price     string  `json:"price"`
	Change    string  `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Color     string  `json:"color"`
}

// PortfolioResponse is the response of GET /api/us/portfolio.
type PortfolioResponse struct {
	MarketIndices []MarketIndex `json:"market_indices"`
}

// SmartMoneyPick is one row of the smart money table.
type SmartMoneyPick struct {
	Ticker         string   `json:"ticker"`
	Name           string   `json:"name"`
	Sector         string   `json:"sector"`
	FinalScore     *float64 `json:"final_score,omitempty"`
	CompositeScore float64  `json:"composite_score,omitempty"`
	Category       string   `json:"category"`
	PriceAtRec     float64  `json:"price_at_rec"`
	CurrentPrice   float64  `json:"current_price"`
	ChangeSinceRec float64  `json:"change_since_rec"`
	TargetUpside   float64  `json:"target_upside"`
}

// Score returns final_score, falling back to composite_score.
func (p SmartMoneyPick) Score() float64 {
	if p.FinalScore != nil {
		return *p.FinalScore
	}
	return p.CompositeScore
}

// SmartMoneySummary is the summary block; current picks carry total_analyzed and
// avg_score, history snapshots carry total and avg_performance.
type SmartMoneySummary struct {
	TotalAnalyzed  int      `json:"total_analyzed,omitempty"`
	AvgScore       float64  `json:"avg_score,omitempty"`
	Total          int      `json:"total,omitempty"`
	AvgPerformance *float64 `json:"avg_performance,omitempty"`
}

// SmartMoneyResponse is the response of GET /api/us/smart-money and GET /api/us/history/{date}.
type SmartMoneyResponse struct {
	AnalysisDate string             `json:"analysis_date,omitempty"`
	TopPicks     []SmartMoneyPick   `json:"top_picks"`
	Summary      *SmartMoneySummary `json:"summary,omitempty"`
}

// HistoryDatesResponse is the response of GET /api/us/history-dates.
type HistoryDatesResponse struct {
	Dates []string `json:"dates"`
}

// ETFFlow is one ETF row in the inflow/outflow lists.
type ETFFlow struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	FlowScore float64 `json:"flow_score"`
}

// ETFFlowsResponse is the response of GET /api/us/etf-flows.
type ETFFlowsResponse struct {
	MarketSentimentScore float64   `json:"market_sentiment_score"`
	TopInflows           []ETFFlow `json:"top_inflows"`
	TopOutflows          []ETFFlow `json:"top_outflows"`
	AIAnalysis           string    `json:"ai_analysis"`
}

// Options sentiments.
const (
	SentimentBullish = "Bullish"
	SentimentBearish = "Bearish"
	SentimentNeutral = "Neutral"
)

// OptionsFlow is one ticker in the options flow grid.
type OptionsFlow struct {
	Ticker    string `json:"ticker"`
	Sentiment string `json:"sentiment,omitempty"`
	Metrics   struct {
		PCRatio float64 `json:"pc_ratio"`
	} `json:"metrics"`
}

// DerivedSentiment returns the reported sentiment or derives it from the put/call ratio.
func (o OptionsFlow) DerivedSentiment() string {
	if o.Sentiment != "" {
		return o.Sentiment
	}
	switch pc := o.Metrics.PCRatio; {
	case pc < 0.6:
		return SentimentBullish
	case pc > 1.0:
		return SentimentBearish
	default:
		return SentimentNeutral
	}
}

// OptionsFlowResponse is the response of GET /api/us/options-flow.
type OptionsFlowResponse struct {
	OptionsFlow []OptionsFlow `json:"options_flow"`
}

// MacroIndicator is one value in the macro grid.
type MacroIndicator struct {
	Current  float64 `json:"current"`
	Change1D float64 `json:"change_1d"`
}

// MacroAnalysis is the response of GET /api/us/macro-analysis.
type MacroAnalysis struct {
	AIAnalysis      string                    `json:"ai_analysis"`
	MacroIndicators map[string]MacroIndicator `json:"macro_indicators"`
	Model           string                    `json:"model,omitempty"`
	Timestamp       string                    `json:"timestamp,omitempty"`
}

// HeatmapCell is one treemap rectangle.
type HeatmapCell struct {
	X      string  `json:"x"`
	Y      float64 `json:"y"`
	Change float64 `json:"change"`
	Color  string  `json:"color,omitempty"`
}

// HeatmapSeries is one sector group of the treemap.
type HeatmapSeries struct {
	Name string        `json:"name"`
	Data []HeatmapCell `json:"data"`
}

// HeatmapResponse is the response of GET /api/us/sector-heatmap. Raw keeps the
// payload untouched for chart libraries that consume it directly.
type HeatmapResponse struct {
	Series []HeatmapSeries `json:"series"`
	Raw    json.RawMessage `json:"-"`
}

// AISummary is the response of GET /api/us/ai-summary/{ticker}.
type AISummary struct {
	Ticker  string `json:"ticker,omitempty"`
	Summary string `json:"summary"`
	Lang    string `json:"lang,omitempty"`
	Updated string `json:"updated,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CalendarEvent is one economic calendar entry.
type CalendarEvent struct {
	Time       string `json:"time"`
	Currency   string `json:"currency"`
	Date       string `json:"date"`
	Title      string `json:"title"`
	Actual     string `json:"actual"`
	Forecast   string `json:"forecast"`
	Previous   string `json:"previous"`
	Impact     string `json:"impact"`
	AIAnalysis string `json:"ai_analysis,omitempty"`
}

// CalendarResponse is the response of GET /api/us/calendar.
type CalendarResponse struct {
	Events []CalendarEvent `json:"events"`
}
