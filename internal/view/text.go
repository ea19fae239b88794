// Package view renders dashboard snapshots for terminals and chat.
package view

import (
	"fmt"
	"sort"
	"strings"

	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	flashUpStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	flashDnStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9"))
)

// Text renders the whole dashboard as plain text with ANSI colors.
func Text(s *dashboard.Snapshot) string {
	var b strings.Builder

	updated := "-"
	if !s.UpdatedAt.IsZero() {
		updated = s.UpdatedAt.Format("2006-01-02 15:04:05")
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("MarketDashboard | %s | %s | %s", strings.ToUpper(s.Language), s.ModelLabel, updated)))
	b.WriteString("\n\n")

	if s.Tab == model.TabCalendar {
		writeCalendar(&b, s)
		writeErrors(&b, s)
		return b.String()
	}

	writeIndices(&b, s)
	writePicks(&b, s)
	writeChart(&b, s)
	writeETF(&b, s)
	writeOptions(&b, s)
	writeMacro(&b, s)
	writeHeatmap(&b, s)
	writeErrors(&b, s)
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return t
}

func signed(v float64, format string) string {
	if v >= 0 {
		return text.FgGreen.Sprintf("+"+format, v)
	}
	return text.FgRed.Sprintf(format, v)
}

func writeIndices(b *strings.Builder, s *dashboard.Snapshot) {
	section(b, s.Labels["market-indices"])
	if len(s.Indices) == 0 {
		b.WriteString(dimStyle.Render(s.Labels["no-data"]) + "\n\n")
		return
	}
	t := newTable()
	for _, idx := range s.Indices {
		t.AppendRow(table.Row{idx.Name, idx.Price, idx.Change, signed(idx.ChangePct, "%.2f%%")})
	}
	b.WriteString(t.Render() + "\n\n")
}

func writePicks(b *strings.Builder, s *dashboard.Snapshot) {
	title := s.Labels["final-top10"]
	if s.HistoryDate != "" {
		title += " (" + s.HistoryDate + ")"
	}
	section(b, title)
	if len(s.Picks) == 0 {
		b.WriteString(dimStyle.Render(s.Labels["no-data"]) + "\n\n")
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"#", s.Labels["ticker"], s.Labels["score"], s.Labels["price"], s.Labels["change"]})
	for i, p := range s.Picks {
		ticker := p.Ticker
		if p.Ticker == s.Ticker {
			ticker = "> " + ticker
		}
		t.AppendRow(table.Row{i + 1, ticker, fmt.Sprintf("%.1f", p.Score), flashPrice(p), signed(p.ChangeSinceRec, "%.2f%%")})
	}
	if sum := s.Summary; sum != nil {
		if s.HistoryDate != "" {
			avg := "-"
			if sum.AvgPerformance != nil {
				avg = signed(*sum.AvgPerformance, "%.2f%%")
			}
			t.AppendFooter(table.Row{"", s.Labels["total-tracked"], sum.Total, s.Labels["avg-return"], avg})
		} else {
			t.AppendFooter(table.Row{"", s.Labels["total-tracked"], sum.TotalAnalyzed, s.Labels["avg-score"], fmt.Sprintf("%.1f", sum.AvgScore)})
		}
	}
	b.WriteString(t.Render() + "\n\n")
}

func flashPrice(p dashboard.PickRow) string {
	price := fmt.Sprintf("$%.2f", p.DisplayPrice)
	for _, d := range p.Flash {
		switch d {
		case dashboard.FlashUp:
			return flashUpStyle.Render(price + " ▲")
		case dashboard.FlashDown:
			return flashDnStyle.Render(price + " ▼")
		}
	}
	return price
}

func writeChart(b *strings.Builder, s *dashboard.Snapshot) {
	o := s.Overlay
	if o.Ticker == "" {
		return
	}
	section(b, fmt.Sprintf("%s (%s)", o.Ticker, o.Period))
	if !o.Loaded {
		b.WriteString(dimStyle.Render("loading...") + "\n")
	}
	t := newTable()
	t.AppendHeader(table.Row{"indicator", "on", "series"})
	for _, k := range model.AllKinds {
		on := ""
		if o.Enabled[k] {
			on = "●"
		}
		t.AppendRow(table.Row{string(k), on, o.Handles[k]})
	}
	b.WriteString(t.Render() + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d candles", o.Candles)) + "\n")

	if a := s.AISummary; a != nil {
		section(b, s.Labels["ai-analysis"])
		if a.Error != "" {
			b.WriteString(errorStyle.Render(a.Error) + "\n")
		} else {
			b.WriteString(a.Summary + "\n")
		}
	}
	b.WriteString("\n")
}

func writeETF(b *strings.Builder, s *dashboard.Snapshot) {
	e := s.ETFFlows
	if e == nil {
		return
	}
	section(b, fmt.Sprintf("%s (%.1f)", s.Labels["etf-flows"], e.MarketSentimentScore))
	t := newTable()
	for _, f := range e.TopInflows {
		t.AppendRow(table.Row{text.FgGreen.Sprint("▲"), f.Ticker, f.Name, fmt.Sprintf("%.0f", f.FlowScore)})
	}
	for _, f := range e.TopOutflows {
		t.AppendRow(table.Row{text.FgRed.Sprint("▼"), f.Ticker, f.Name, fmt.Sprintf("%.0f", f.FlowScore)})
	}
	b.WriteString(t.Render() + "\n")
	if e.AIAnalysis != "" {
		b.WriteString(e.AIAnalysis + "\n")
	}
	b.WriteString("\n")
}

func writeOptions(b *strings.Builder, s *dashboard.Snapshot) {
	if len(s.OptionsFlow) == 0 {
		return
	}
	section(b, s.Labels["options-flow"])
	t := newTable()
	t.AppendHeader(table.Row{s.Labels["ticker"], s.Labels["sentiment"], s.Labels["pc-ratio"]})
	for _, f := range s.OptionsFlow {
		sent := f.Sentiment
		switch sent {
		case model.SentimentBullish:
			sent = text.FgGreen.Sprint(sent)
		case model.SentimentBearish:
			sent = text.FgRed.Sprint(sent)
		}
		t.AppendRow(table.Row{f.Ticker, sent, fmt.Sprintf("%.2f", f.Metrics.PCRatio)})
	}
	b.WriteString(t.Render() + "\n\n")
}

func writeMacro(b *strings.Builder, s *dashboard.Snapshot) {
	m := s.Macro
	if m == nil {
		return
	}
	section(b, fmt.Sprintf("%s [%s]", s.Labels["macro-analysis"], s.ModelLabel))
	names := make([]string, 0, len(m.MacroIndicators))
	for k := range m.MacroIndicators {
		names = append(names, k)
	}
	sort.Strings(names)
	t := newTable()
	for _, k := range names {
		v := m.MacroIndicators[k]
		t.AppendRow(table.Row{k, fmt.Sprintf("%.2f", v.Current), signed(v.Change1D, "%.2f")})
	}
	b.WriteString(t.Render() + "\n")
	b.WriteString(m.AIAnalysis + "\n\n")
}

func writeHeatmap(b *strings.Builder, s *dashboard.Snapshot) {
	if len(s.Heatmap) == 0 {
		return
	}
	section(b, s.Labels["sector-heatmap"])
	for _, hs := range s.Heatmap {
		cells := make([]string, 0, len(hs.Data))
		for _, c := range hs.Data {
			cells = append(cells, c.X+" "+signed(c.Change, "%.2f%%"))
		}
		b.WriteString(fmt.Sprintf("%-12s %s\n", hs.Name, strings.Join(cells, "  ")))
	}
	b.WriteString("\n")
}

func writeCalendar(b *strings.Builder, s *dashboard.Snapshot) {
	section(b, s.Labels["economic-calendar"])
	if _, failed := s.Errors[dashboard.PanelCalendar]; failed && len(s.Calendar) == 0 {
		b.WriteString(errorStyle.Render(s.Labels["calendar-failed"]) + "\n\n")
		return
	}
	if len(s.Calendar) == 0 {
		b.WriteString(dimStyle.Render(s.Labels["no-data"]) + "\n\n")
		return
	}
	t := newTable()
	t.AppendHeader(table.Row{"date", "time", "cur", "event", "actual", "forecast", "previous", "impact"})
	for _, e := range s.Calendar {
		impact := e.Impact
		if impact == "High" {
			impact = text.FgRed.Sprint(impact)
		}
		t.AppendRow(table.Row{e.Date, e.Time, e.Currency, e.Title, e.Actual, e.Forecast, e.Previous, impact})
	}
	b.WriteString(t.Render() + "\n\n")
}

func writeErrors(b *strings.Builder, s *dashboard.Snapshot) {
	if len(s.Errors) == 0 {
		return
	}
	panels := make([]string, 0, len(s.Errors))
	for p := range s.Errors {
		panels = append(panels, p)
	}
	sort.Strings(panels)
	for _, p := range panels {
		b.WriteString(errorStyle.Render(fmt.Sprintf("! %s: %s", p, s.Errors[p])) + "\n")
	}
}
