package holiday

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foxseedlab/roomwarden/internal/config"
	"google.golang.org/api/option"
)

func newCalendarServer(t *testing.T, holidays map[string]bool, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasSuffix(r.URL.Path, "/calendars/cal-1/events") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		day := r.URL.Query().Get("timeMin")
		w.Header().Set("Content-Type", "application/json")
		if holidays[day[:10]] {
			_, _ = w.Write([]byte(`{"kind":"calendar#events","items":[{"id":"e1","summary":"Holiday"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"kind":"calendar#events","items":[]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testOracle(srv *httptest.Server, loc *time.Location) *CalendarOracle {
	return NewCalendarOracle(CalendarConfig{CalendarID: "cal-1", Location: loc},
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithoutAuthentication(),
	)
}

func TestCalendarOracle_DetectsEventDay(t *testing.T) {
	var hits int32
	srv := newCalendarServer(t, map[string]bool{"2026-09-02": true}, &hits)
	loc := time.FixedZone("ICT", 7*60*60)
	o := testOracle(srv, loc)

	ok, err := o.IsHoliday(context.Background(), time.Date(2026, 9, 2, 10, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected 2026-09-02 to be a holiday")
	}

	ok, err = o.IsHoliday(context.Background(), time.Date(2026, 9, 3, 10, 0, 0, 0, loc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected 2026-09-03 to be a working day")
	}
}

func TestCalendarOracle_CachesPerDay(t *testing.T) {
	var hits int32
	srv := newCalendarServer(t, nil, &hits)
	o := testOracle(srv, time.UTC)
	day := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := o.IsHoliday(context.Background(), day.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected 1 calendar request, got %d", got)
	}
}

func TestCalendarOracle_PropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	o := testOracle(srv, time.UTC)

	if _, err := o.IsHoliday(context.Background(), time.Now()); err == nil {
		t.Fatal("expected error from failing calendar")
	}
}

func TestNewOracle_StaticOnlyWithoutCalendar(t *testing.T) {
	o, err := NewOracle(&config.Config{SchedulerTimezone: "UTC", HolidayDates: []string{"2026-01-01"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := o.IsHoliday(context.Background(), time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	if err != nil || !ok {
		t.Fatalf("expected static holiday, got ok=%v err=%v", ok, err)
	}
}

func TestNewOracle_RejectsBadDates(t *testing.T) {
	if _, err := NewOracle(&config.Config{HolidayDates: []string{"01/01/2026"}}); err == nil {
		t.Fatal("expected invalid date error")
	}
}
