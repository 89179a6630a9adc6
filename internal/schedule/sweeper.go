// Package schedule runs recurring maintenance work from cron expressions.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/cronexpr"
)

// Sweep does one round of maintenance work.
type Sweep func(ctx context.Context) error

// Sweeper invokes a sweep on a cron schedule. All times are UTC.
type Sweeper struct {
	name  string
	expr  *cronexpr.Expression
	sweep Sweep
}

// NewSweeper parses the cron expression eagerly; an invalid schedule is
// a startup error, never a runtime one.
func NewSweeper(name, cron string, sweep Sweep) (*Sweeper, error) {
	expr, err := cronexpr.Parse(cron)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cron, err)
	}
	return &Sweeper{
		name:  name,
		expr:  expr,
		sweep: sweep,
	}, nil
}

// Next returns the first scheduled time after the given instant, in UTC.
func (s *Sweeper) Next(after time.Time) time.Time {
	return s.expr.Next(after.UTC())
}

// Run sleeps until each scheduled time and invokes the sweep, until the
// context is done. A failed sweep is logged and the schedule continues.
func (s *Sweeper) Run(ctx context.Context) error {
	for {
		next := s.Next(time.Now())
		if next.IsZero() {
			return fmt.Errorf("cron expression for %s has no future run times", s.name)
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.sweep(ctx); err != nil {
			slog.Error("sweep failed", slog.String("sweeper", s.name), slog.Any("error", err))
			continue
		}
		slog.Info("sweep complete", slog.String("sweeper", s.name))
	}
}
