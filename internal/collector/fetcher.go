package collector

import (
	"context"

	"MarketDashboard/internal/model"
)

// Fetcher defines the interface for fetching dashboard data from the analytics backend.
type Fetcher interface {
	FetchPortfolio(ctx context.Context) (*model.PortfolioResponse, error)
	FetchSmartMoney(ctx context.Context) (*model.SmartMoneyResponse, error)
	FetchHistory(ctx context.Context, date string) (*model.SmartMoneyResponse, error)
	FetchHistoryDates(ctx context.Context) (*model.HistoryDatesResponse, error)
	FetchETFFlows(ctx context.Context) (*model.ETFFlowsResponse, error)
	FetchOptionsFlow(ctx context.Context) (*model.OptionsFlowResponse, error)
	FetchMacroAnalysis(ctx context.Context, lang, llm string) (*model.MacroAnalysis, error)
	FetchSectorHeatmap(ctx context.Context) (*model.HeatmapResponse, error)
	FetchStockChart(ctx context.Context, ticker, period string) (*model.StockChart, error)
	FetchIndicators(ctx context.Context, ticker, period string) (*model.IndicatorsResponse, error)
	FetchAISummary(ctx context.Context, ticker, lang string) (*model.AISummary, error)
	FetchCalendar(ctx context.Context) (*model.CalendarResponse, error)
	FetchRealtimePrices(ctx context.Context, tickers []string) (map[string]model.RealtimeQuote, error)
	Name() string
}
