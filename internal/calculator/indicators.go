package calculator

import "MarketDashboard/internal/model"

// Standard indicator parameters.
const (
	RSIPeriod       = 14
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerPeriod = 20
	BollingerStdDev = 2.0
)

// Indicators computes the full technical-indicators payload for candles.
func Indicators(ticker string, candles []model.Candle) *model.IndicatorsResponse {
	return &model.IndicatorsResponse{
		Ticker:            ticker,
		Bollinger:         BollingerSeries(candles, BollingerPeriod, BollingerStdDev),
		SupportResistance: SupportResistance(candles),
		RSI:               RSISeries(candles, RSIPeriod),
		MACD:              MACDSeries(candles, MACDFast, MACDSlow, MACDSignal),
	}
}
