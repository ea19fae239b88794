package view

import (
	"fmt"
	"html"
	"strings"

	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/model"
)

// ChatStatus formats a short HTML status message for Telegram.
func ChatStatus(s *dashboard.Snapshot) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>MarketDashboard</b> | %s\n\n", s.UpdatedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("lang: %s | model: %s | period: %s\n", s.Language, html.EscapeString(s.ModelLabel), s.Period))

	if s.Ticker != "" {
		b.WriteString(fmt.Sprintf("chart: <b>%s</b>", html.EscapeString(s.Ticker)))
		var on []string
		for _, k := range model.AllKinds {
			if s.Overlay.Enabled[k] {
				on = append(on, fmt.Sprintf("%s(%d)", k, s.Overlay.Handles[k]))
			}
		}
		if len(on) > 0 {
			b.WriteString(" | " + strings.Join(on, ", "))
		}
		b.WriteString("\n")
	}

	if len(s.Indices) > 0 {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(s.Labels["market-indices"])))
		for _, idx := range s.Indices {
			b.WriteString(fmt.Sprintf("  %s %s (%+.2f%%)\n", html.EscapeString(idx.Name), idx.Price, idx.ChangePct))
		}
	}

	if len(s.Picks) > 0 {
		title := s.Labels["final-top10"]
		if s.HistoryDate != "" {
			title += " (" + s.HistoryDate + ")"
		}
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n", html.EscapeString(title)))
		for i, p := range s.Picks {
			b.WriteString(fmt.Sprintf("  %d. %s %.1f $%.2f (%+.2f%%)\n", i+1, html.EscapeString(p.Ticker), p.Score, p.DisplayPrice, p.ChangeSinceRec))
		}
	}

	if m := s.Macro; m != nil && m.AIAnalysis != "" {
		b.WriteString(fmt.Sprintf("\n<b>%s</b>\n%s\n", html.EscapeString(s.Labels["macro-analysis"]), html.EscapeString(m.AIAnalysis)))
	}

	if len(s.Errors) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d panel(s) failed to refresh\n", len(s.Errors)))
	}
	return b.String()
}

// ChatCalendar formats the economic calendar as HTML for Telegram.
func ChatCalendar(s *dashboard.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>%s</b>\n", html.EscapeString(s.Labels["economic-calendar"])))
	if _, failed := s.Errors[dashboard.PanelCalendar]; failed && len(s.Calendar) == 0 {
		b.WriteString(html.EscapeString(s.Labels["calendar-failed"]) + "\n")
		return b.String()
	}
	for _, e := range s.Calendar {
		line := strings.Join([]string{e.Date, e.Time, e.Currency, e.Title}, " ")
		if e.Impact == "High" {
			line = "<b>" + html.EscapeString(line) + "</b>"
		} else {
			line = html.EscapeString(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// ChatError formats a failed command reply. err may echo user input.
func ChatError(err error) string {
	return "❌ " + html.EscapeString(err.Error())
}
