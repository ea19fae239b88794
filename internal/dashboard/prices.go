package dashboard

import (
	"context"
	"fmt"
	"log"
	"time"

	"MarketDashboard/internal/model"
)

// Direction is the way a displayed price moved.
type Direction string

const (
	FlashUp   Direction = "up"
	FlashDown Direction = "down"
)

// flashDuration is how long a price flash stays on a row.
const flashDuration = time.Second

type flashMark struct {
	at time.Time
}

// UpdateRealtimePrices fetches quotes for the tickers in the smart money table
// and flashes every row whose price moved. It does nothing when no picks are shown.
func (c *Controller) UpdateRealtimePrices(ctx context.Context) error {
	tickers := c.visibleTickers()
	if len(tickers) == 0 {
		return nil
	}

	quotes, err := c.fetcher.FetchRealtimePrices(ctx, tickers)
	if err != nil {
		log.Printf("[WARN] realtime prices: %v", err)
		return fmt.Errorf("realtime prices: %w", err)
	}

	now := c.clock.Now()
	var ticks []model.PriceTick
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for _, t := range tickers {
		q, ok := quotes[t]
		if !ok {
			continue
		}
		old, known := c.prices[t]
		c.prices[t] = q.Current
		if !known || old == 0 || old == q.Current {
			continue
		}
		dir := FlashUp
		if q.Current < old {
			dir = FlashDown
		}
		c.flashLocked(t, dir, now)
		ticks = append(ticks, model.PriceTick{Ticker: t, OldPrice: old, NewPrice: q.Current, At: now})
	}
	c.mu.Unlock()

	for i := range ticks {
		tick := &ticks[i]
		dir := FlashUp
		if tick.NewPrice < tick.OldPrice {
			dir = FlashDown
		}
		c.met.ObserveFlash(string(dir))
		if err := c.rec.RecordPriceTick(tick); err != nil {
			log.Printf("[WARN] record price tick %s: %v", tick.Ticker, err)
		}
	}
	c.notify()
	return nil
}

// flashLocked marks ticker with dir and schedules its removal one second later.
// The removal is unconditional, so a newer flash in the same direction is
// cleared by the older timer.
func (c *Controller) flashLocked(ticker string, dir Direction, now time.Time) {
	marks := c.flashes[ticker]
	if marks == nil {
		marks = make(map[Direction]flashMark, 2)
		c.flashes[ticker] = marks
	}
	marks[dir] = flashMark{at: now}

	var timer Timer
	timer = c.clock.AfterFunc(flashDuration, func() {
		c.mu.Lock()
		delete(c.timers, timer)
		if m := c.flashes[ticker]; m != nil {
			delete(m, dir)
			if len(m) == 0 {
				delete(c.flashes, ticker)
			}
		}
		c.mu.Unlock()
		c.notify()
	})
	c.timers[timer] = struct{}{}
}

func (c *Controller) visibleTickers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	sm := c.panels.smartMoney
	if sm == nil {
		return nil
	}
	out := make([]string, 0, len(sm.TopPicks))
	for _, p := range sm.TopPicks {
		out = append(out, p.Ticker)
	}
	return out
}

// Price returns the displayed price of ticker.
func (c *Controller) Price(ticker string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.prices[ticker]
	return p, ok
}

// Flash returns the directions ticker is currently flashing in.
func (c *Controller) Flash(ticker string) []Direction {
	c.mu.Lock()
	defer c.mu.Unlock()
	return flashDirs(c.flashes[ticker])
}

func flashDirs(marks map[Direction]flashMark) []Direction {
	var out []Direction
	for _, d := range []Direction{FlashUp, FlashDown} {
		if _, ok := marks[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
