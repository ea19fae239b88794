package model

// Chart periods accepted by the stock-chart and technical-indicators endpoints.
var Periods = []string{"1mo", "3mo", "6mo", "1y", "2y", "5y", "max"}

// UI languages.
const (
	LangKorean  = "ko"
	LangEnglish = "en"
)

// Macro analysis models.
const (
	ModelGemini = "gemini"
	ModelGPT    = "gpt"
)

// Dashboard tabs.
const (
	TabUSMarket = "us-market"
	TabCalendar = "economic-calendar"
)

// DefaultPeriod is the chart period used until the user picks another.
const DefaultPeriod = "1y"

func ValidPeriod(p string) bool {
	for _, v := range Periods {
		if v == p {
			return true
		}
	}
	return false
}

func ValidLanguage(l string) bool { return l == LangKorean || l == LangEnglish }

func ValidModel(m string) bool { return m == ModelGemini || m == ModelGPT }

func ValidTab(t string) bool { return t == TabUSMarket || t == TabCalendar }
