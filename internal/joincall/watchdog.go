package joincall

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/foxseedlab/roomwarden/internal/repository"
)

const JobName = "join-call-watchdog"

// Watchdog force-closes join calls that have been open for at least
// maxDuration. The close is a single conditional update, so a real close
// racing with it either wins or becomes a no-op.
type Watchdog struct {
	calls       repository.JoinCallRepository
	holidays    holiday.Oracle
	maxDuration time.Duration
	loc         *time.Location
	now         func() time.Time
}

func NewWatchdog(calls repository.JoinCallRepository, holidays holiday.Oracle, maxDuration time.Duration, loc *time.Location) *Watchdog {
	return &Watchdog{
		calls:       calls,
		holidays:    holidays,
		maxDuration: maxDuration,
		loc:         loc,
		now:         time.Now,
	}
}

func (w *Watchdog) Run(ctx context.Context) error {
	_, err := w.Sweep(ctx)
	return err
}

// Sweep returns the number of calls it closed.
func (w *Watchdog) Sweep(ctx context.Context) (int64, error) {
	if holiday.Today(ctx, w.holidays, w.now, w.loc) {
		slog.Info("holiday; skipping join call watchdog")
		return 0, nil
	}
	now := w.now()
	cutoff := now.Add(-w.maxDuration)
	closed, err := w.calls.CloseStaleJoinCalls(ctx, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("close stale join calls: %w", err)
	}
	if closed > 0 {
		slog.Info("closed stale join calls", "count", closed, "cutoff", cutoff)
	} else {
		slog.Debug("no stale join calls", "cutoff", cutoff)
	}
	return closed, nil
}
