package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"MarketDashboard/internal/model"
)

// Prefs are the user choices restored on the next start.
type Prefs struct {
	Language   string                `json:"language"`
	Model      string                `json:"model"`
	Period     string                `json:"period"`
	Tab        string                `json:"tab"`
	Ticker     string                `json:"ticker,omitempty"`
	Indicators []model.IndicatorKind `json:"indicators"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// LoadPrefs reads prefs from a JSON file. Returns nil prefs if the file doesn't exist.
func LoadPrefs(filePath string) (*Prefs, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prefs %s: %w", filePath, err)
	}
	return &p, nil
}

// SavePrefs writes prefs to a JSON file.
func SavePrefs(filePath string, p *Prefs) error {
	p.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}

// Apply copies valid saved choices over opts. Invalid entries are ignored.
func (p *Prefs) Apply(opts *Options) {
	if p == nil {
		return
	}
	if model.ValidLanguage(p.Language) {
		opts.Language = p.Language
	}
	if model.ValidModel(p.Model) {
		opts.Model = p.Model
	}
	if model.ValidPeriod(p.Period) {
		opts.Period = p.Period
	}
	if model.ValidTab(p.Tab) {
		opts.Tab = p.Tab
	}
	if p.Indicators != nil {
		kinds := make([]model.IndicatorKind, 0, len(p.Indicators))
		for _, k := range p.Indicators {
			if parsed, err := model.ParseIndicatorKind(string(k)); err == nil {
				kinds = append(kinds, parsed)
			}
		}
		opts.Indicators = kinds
	}
}

// Prefs returns the current user choices.
func (c *Controller) Prefs() *Prefs {
	c.mu.Lock()
	p := &Prefs{Language: c.lang, Model: c.llm, Period: c.period, Tab: c.tab, Ticker: c.ticker}
	c.mu.Unlock()

	p.Indicators = []model.IndicatorKind{}
	enabled := c.overlay.Enabled()
	for _, k := range model.AllKinds {
		if enabled[k] {
			p.Indicators = append(p.Indicators, k)
		}
	}
	return p
}
