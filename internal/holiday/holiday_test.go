package holiday

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatic_MatchesLocalDate(t *testing.T) {
	tet := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	s := NewStatic([]time.Time{tet})

	loc := time.FixedZone("ICT", 7*60*60)
	// 2026-02-16 20:00 UTC is already 2026-02-17 03:00 in UTC+7.
	day := time.Date(2026, 2, 16, 20, 0, 0, 0, time.UTC).In(loc)

	ok, err := s.IsHoliday(context.Background(), day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected local date to be a holiday")
	}

	ok, _ = s.IsHoliday(context.Background(), time.Date(2026, 2, 18, 12, 0, 0, 0, loc))
	if ok {
		t.Fatal("expected other day not to be a holiday")
	}
}

func TestAny_PositiveWinsOverError(t *testing.T) {
	failing := OracleFunc(func(context.Context, time.Time) (bool, error) {
		return false, errors.New("calendar down")
	})
	yes := OracleFunc(func(context.Context, time.Time) (bool, error) { return true, nil })

	ok, err := Any(failing, nil, yes).IsHoliday(context.Background(), time.Now())
	if err != nil || !ok {
		t.Fatalf("expected holiday without error, got ok=%v err=%v", ok, err)
	}
}

func TestAny_ReportsErrorWhenNoOracleSaysYes(t *testing.T) {
	failing := OracleFunc(func(context.Context, time.Time) (bool, error) {
		return false, errors.New("calendar down")
	})
	no := OracleFunc(func(context.Context, time.Time) (bool, error) { return false, nil })

	ok, err := Any(no, failing).IsHoliday(context.Background(), time.Now())
	if ok || err == nil {
		t.Fatalf("expected error and no holiday, got ok=%v err=%v", ok, err)
	}
}

func TestToday_ErrorCountsAsWorkingDay(t *testing.T) {
	failing := OracleFunc(func(context.Context, time.Time) (bool, error) {
		return true, errors.New("calendar down")
	})
	clock := func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }

	if Today(context.Background(), failing, clock, time.UTC) {
		t.Fatal("expected lookup failure to count as a working day")
	}
	if Today(context.Background(), nil, clock, time.UTC) {
		t.Fatal("expected nil oracle to mean no holiday")
	}
}

func TestToday_UsesConfiguredLocation(t *testing.T) {
	var seen time.Time
	o := OracleFunc(func(_ context.Context, day time.Time) (bool, error) {
		seen = day
		return false, nil
	})
	loc := time.FixedZone("ICT", 7*60*60)
	clock := func() time.Time { return time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC) }

	Today(context.Background(), o, clock, loc)
	if seen.Format(DateLayout) != "2026-10-17" {
		t.Fatalf("expected local day 2026-10-17, got %s", seen.Format(DateLayout))
	}
}
