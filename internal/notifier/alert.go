package notifier

import (
	"context"
	"errors"
	"log"
)

// Alerter delivers a user-visible alert.
type Alerter interface {
	Alert(ctx context.Context, text string) error
}

// LogAlerter writes alerts to the process log.
type LogAlerter struct{}

func (LogAlerter) Alert(_ context.Context, text string) error {
	log.Printf("[ALERT] %s", text)
	return nil
}

// Multi sends every alert to all of its alerters.
type Multi []Alerter

func (m Multi) Alert(ctx context.Context, text string) error {
	var errs []error
	for _, a := range m {
		if err := a.Alert(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
