package holiday

import (
	"context"
	"log/slog"
	"time"
)

const DateLayout = "2006-01-02"

// Oracle reports whether enforcement should be suspended on a given local day.
type Oracle interface {
	IsHoliday(ctx context.Context, day time.Time) (bool, error)
}

type OracleFunc func(ctx context.Context, day time.Time) (bool, error)

func (f OracleFunc) IsHoliday(ctx context.Context, day time.Time) (bool, error) {
	return f(ctx, day)
}

// Static is a fixed set of calendar dates. Days are compared by their
// year-month-day in whatever location the caller passes them in.
type Static struct {
	days map[string]struct{}
}

func NewStatic(days []time.Time) *Static {
	s := &Static{days: make(map[string]struct{}, len(days))}
	for _, d := range days {
		s.days[d.Format(DateLayout)] = struct{}{}
	}
	return s
}

func (s *Static) IsHoliday(_ context.Context, day time.Time) (bool, error) {
	_, ok := s.days[day.Format(DateLayout)]
	return ok, nil
}

type anyOracle []Oracle

// Any reports a holiday when at least one oracle does. An erroring oracle
// does not hide a positive answer from the others.
func Any(oracles ...Oracle) Oracle {
	list := make(anyOracle, 0, len(oracles))
	for _, o := range oracles {
		if o != nil {
			list = append(list, o)
		}
	}
	return list
}

func (a anyOracle) IsHoliday(ctx context.Context, day time.Time) (bool, error) {
	var firstErr error
	for _, o := range a {
		ok, err := o.IsHoliday(ctx, day)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

// Today asks the oracle about the current local day. Lookup failures are
// logged and count as a working day.
func Today(ctx context.Context, oracle Oracle, clock func() time.Time, loc *time.Location) bool {
	if oracle == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	day := clock().In(loc)
	ok, err := oracle.IsHoliday(ctx, day)
	if err != nil {
		slog.Warn("holiday lookup failed; treating day as a working day", "day", day.Format(DateLayout), "error", err)
		return false
	}
	return ok
}
