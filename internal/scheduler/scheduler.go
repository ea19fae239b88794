package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"MarketDashboard/internal/dashboard"
	"MarketDashboard/internal/metrics"
	"MarketDashboard/internal/model"
	"MarketDashboard/internal/overlay"
	"MarketDashboard/internal/view"

	"github.com/robfig/cron/v3"
)

// loadWait bounds how long a chat command waits for a chart load to finish.
const loadWait = 20 * time.Second

// Scheduler runs the dashboard pollers and answers chat commands.
type Scheduler struct {
	Cron      *cron.Cron
	Dashboard *dashboard.Controller
	Metrics   *metrics.Metrics
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. Jobs that are still running when
// their next tick arrives are skipped.
func NewScheduler(ctx context.Context, dash *dashboard.Controller, met *metrics.Metrics) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		Dashboard: dash,
		Metrics:   met,
		Ctx:       ctx,
	}
}

// RegisterAll registers the realtime price, macro and optional full refresh jobs.
func (s *Scheduler) RegisterAll(pricesCron, macroCron, refreshCron string) error {
	if _, err := s.Cron.AddFunc(pricesCron, s.pricesTask); err != nil {
		return fmt.Errorf("register prices task: %w", err)
	}
	if _, err := s.Cron.AddFunc(macroCron, s.macroTask); err != nil {
		return fmt.Errorf("register macro task: %w", err)
	}
	if refreshCron != "" {
		if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
			return fmt.Errorf("register refresh task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunRefreshNow performs the initial dashboard load (for startup / manual trigger).
func (s *Scheduler) RunRefreshNow() {
	s.refreshTask()
}

func (s *Scheduler) pricesTask() {
	if err := s.Dashboard.UpdateRealtimePrices(s.Ctx); err != nil && !errors.Is(err, dashboard.ErrClosed) {
		log.Printf("[WARN] prices task: %v", err)
	}
}

func (s *Scheduler) macroTask() {
	log.Println("[INFO] reloading macro analysis")
	s.Dashboard.ReloadMacro(s.Ctx)
}

func (s *Scheduler) refreshTask() {
	s.Dashboard.RefreshDashboard(s.Ctx)
	s.Dashboard.LoadHistoryDates(s.Ctx)
}

const helpText = "Available commands:\n" +
	"• /status\n" +
	"• /refresh\n" +
	"• /ticker AAPL\n" +
	"• /period 1mo|3mo|6mo|1y|2y|5y|max\n" +
	"• /toggle bb|sr|rsi|macd\n" +
	"• /lang ko|en\n" +
	"• /model gemini|gpt\n" +
	"• /history [YYYY-MM-DD]\n" +
	"• /calendar"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	// Telegram appends the bot name in groups: /status@my_bot
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	s.Metrics.ObserveCommand("chat")

	switch name {
	case "/status", "/start":
		return view.ChatStatus(s.Dashboard.Snapshot())

	case "/refresh":
		s.refreshTask()
		return view.ChatStatus(s.Dashboard.Snapshot())

	case "/ticker":
		if arg == "" {
			return "usage: /ticker AAPL"
		}
		done, err := s.Dashboard.SelectTicker(arg)
		if err != nil {
			return view.ChatError(err)
		}
		return s.awaitLoad(ctx, done)

	case "/period":
		done, err := s.Dashboard.SetPeriod(arg)
		if err != nil {
			return view.ChatError(err)
		}
		if done == nil {
			return fmt.Sprintf("period set to %s", html.EscapeString(arg))
		}
		return s.awaitLoad(ctx, done)

	case "/toggle":
		kind, err := model.ParseIndicatorKind(arg)
		if err != nil {
			return view.ChatError(err)
		}
		on, err := s.Dashboard.ToggleIndicator(kind)
		if err != nil {
			return view.ChatError(err)
		}
		state := "off"
		if on {
			state = "on"
		}
		return fmt.Sprintf("%s %s", kind, state)

	case "/lang":
		if err := s.Dashboard.SetLanguage(ctx, strings.ToLower(arg)); err != nil {
			return view.ChatError(err)
		}
		return view.ChatStatus(s.Dashboard.Snapshot())

	case "/model":
		if err := s.Dashboard.SetModel(ctx, strings.ToLower(arg)); err != nil {
			return view.ChatError(err)
		}
		return view.ChatStatus(s.Dashboard.Snapshot())

	case "/history":
		if err := s.Dashboard.LoadHistory(ctx, arg); err != nil {
			// The controller already raised the localized alert.
			return ""
		}
		return view.ChatStatus(s.Dashboard.Snapshot())

	case "/calendar":
		if err := s.Dashboard.SwitchTab(ctx, model.TabCalendar); err != nil {
			return view.ChatError(err)
		}
		return view.ChatCalendar(s.Dashboard.Snapshot())

	default:
		return helpText
	}
}

func (s *Scheduler) awaitLoad(ctx context.Context, done <-chan error) string {
	ctx, cancel := context.WithTimeout(ctx, loadWait)
	defer cancel()
	select {
	case err := <-done:
		switch {
		case err == nil:
			return view.ChatStatus(s.Dashboard.Snapshot())
		case errors.Is(err, overlay.ErrSuperseded):
			return "chart request replaced by a newer one"
		default:
			return view.ChatError(err)
		}
	case <-ctx.Done():
		return "chart is still loading"
	}
}
