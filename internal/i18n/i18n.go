package i18n

import (
	"reflect"
	"sync"
)

// Language is a UI language code.
type Language string

const (
	LangKO Language = "ko"
	LangEN Language = "en"
)

// Messages holds all translatable strings. Fields tagged with key are the
// labels addressed by element key (ai-analysis, final-top10, ...).
type Messages struct {
	// Section labels
	AIAnalysis    string `key:"ai-analysis"`
	FinalTop10    string `key:"final-top10"`
	ETFFlows      string `key:"etf-flows"`
	OptionsFlow   string `key:"options-flow"`
	MacroAnalysis string `key:"macro-analysis"`
	MarketIndices string `key:"market-indices"`
	SectorHeatmap string `key:"sector-heatmap"`
	Calendar      string `key:"economic-calendar"`

	// Table headers
	Ticker       string `key:"ticker"`
	Score        string `key:"score"`
	Price        string `key:"price"`
	Change       string `key:"change"`
	Sentiment    string `key:"sentiment"`
	PCRatio      string `key:"pc-ratio"`
	TotalTracked string `key:"total-tracked"`
	AvgScore     string `key:"avg-score"`
	AvgReturn    string `key:"avg-return"`

	// Alerts
	HistoryLoadFailed string `key:"history-load-failed"`
	CalendarFailed    string `key:"calendar-failed"`
	NoData            string `key:"no-data"`
}

var messagesKO = Messages{
	AIAnalysis:    "🤖 AI 투자 분석",
	FinalTop10:    "📊 Final Top 10 - Smart Money Picks",
	ETFFlows:      "💰 ETF Fund Flows - 자금 흐름",
	OptionsFlow:   "Options Flow - 기관 포지션",
	MacroAnalysis: "🌍 Macro Analysis - AI 예측",
	MarketIndices: "주요 지수",
	SectorHeatmap: "섹터 히트맵",
	Calendar:      "경제 캘린더",

	Ticker:       "종목",
	Score:        "점수",
	Price:        "현재가",
	Change:       "등락",
	Sentiment:    "심리",
	PCRatio:      "P/C 비율",
	TotalTracked: "분석 종목 수",
	AvgScore:     "평균 점수",
	AvgReturn:    "평균 수익률",

	HistoryLoadFailed: "해당 날짜의 데이터를 불러올 수 없습니다.",
	CalendarFailed:    "캘린더를 불러오지 못했습니다.",
	NoData:            "데이터 없음",
}

var messagesEN = Messages{
	AIAnalysis:    "🤖 AI Investment Analysis",
	FinalTop10:    "📊 Final Top 10 - Smart Money Picks",
	ETFFlows:      "💰 ETF Fund Flows",
	OptionsFlow:   "Options Flow",
	MacroAnalysis: "🌍 Macro Analysis - AI Prediction",
	MarketIndices: "Market Indices",
	SectorHeatmap: "Sector Heatmap",
	Calendar:      "Economic Calendar",

	Ticker:       "Ticker",
	Score:        "Score",
	Price:        "Price",
	Change:       "Change",
	Sentiment:    "Sentiment",
	PCRatio:      "P/C Ratio",
	TotalTracked: "Total Tracked",
	AvgScore:     "Avg Score",
	AvgReturn:    "Avg Return",

	HistoryLoadFailed: "Could not load data for the selected date.",
	CalendarFailed:    "Error loading calendar.",
	NoData:            "No data",
}

// modelLabels are the captions of the macro model switch.
var modelLabels = map[string]string{
	"gemini": "Gemini 3.0",
	"gpt":    "GPT-5.2",
}

var (
	keyOnce  sync.Once
	keyIndex map[string]int
)

func index() map[string]int {
	keyOnce.Do(func() {
		t := reflect.TypeOf(Messages{})
		keyIndex = make(map[string]int, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			if k := t.Field(i).Tag.Get("key"); k != "" {
				keyIndex[k] = i
			}
		}
	})
	return keyIndex
}

// For returns a copy of the messages of lang, falling back to Korean.
func For(lang Language) Messages {
	if lang == LangEN {
		return messagesEN
	}
	return messagesKO
}

// Get returns the label for an element key, or the key itself when unknown.
func Get(lang Language, key string) string {
	i, ok := index()[key]
	if !ok {
		return key
	}
	return reflect.ValueOf(For(lang)).Field(i).String()
}

// Labels returns every keyed label of lang.
func Labels(lang Language) map[string]string {
	v := reflect.ValueOf(For(lang))
	out := make(map[string]string, len(index()))
	for k, i := range index() {
		out[k] = v.Field(i).String()
	}
	return out
}

// ModelLabel returns the display name of a macro model.
func ModelLabel(model string) string {
	if l, ok := modelLabels[model]; ok {
		return l
	}
	return model
}
