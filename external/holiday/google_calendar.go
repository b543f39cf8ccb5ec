package holiday

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/auth/credentials"
	"github.com/foxseedlab/roomwarden/internal/holiday"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type CalendarConfig struct {
	CalendarID      string
	CredentialsJSON string
	APIKey          string
	Location        *time.Location
}

// CalendarOracle treats any event on a local day in a Google Calendar as a
// holiday. Answers are cached per day for the life of the process.
type CalendarOracle struct {
	calendarID string
	loc        *time.Location
	opts       []option.ClientOption

	mu      sync.Mutex
	service *calendar.Service
	cache   map[string]bool
}

func NewCalendarOracle(cfg CalendarConfig, opts ...option.ClientOption) *CalendarOracle {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &CalendarOracle{
		calendarID: cfg.CalendarID,
		loc:        loc,
		opts:       append(authOptions(cfg), opts...),
		cache:      make(map[string]bool),
	}
}

func authOptions(cfg CalendarConfig) []option.ClientOption {
	if cfg.APIKey != "" {
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	}
	return nil
}

func (o *CalendarOracle) IsHoliday(ctx context.Context, day time.Time) (bool, error) {
	local := day.In(o.loc)
	key := local.Format(holiday.DateLayout)

	o.mu.Lock()
	if v, ok := o.cache[key]; ok {
		o.mu.Unlock()
		return v, nil
	}
	o.mu.Unlock()

	svc, err := o.calendarService(ctx)
	if err != nil {
		return false, err
	}

	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, o.loc)
	end := start.AddDate(0, 0, 1)
	events, err := svc.Events.List(o.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("list holiday calendar events: %w", err)
	}
	isHoliday := len(events.Items) > 0
	slog.Debug("holiday calendar lookup", "calendar_id", o.calendarID, "day", key, "holiday", isHoliday)

	o.mu.Lock()
	o.cache[key] = isHoliday
	o.mu.Unlock()
	return isHoliday, nil
}

func (o *CalendarOracle) calendarService(ctx context.Context) (*calendar.Service, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.service != nil {
		return o.service, nil
	}
	svc, err := calendar.NewService(ctx, o.opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	o.service = svc
	return svc, nil
}

func detectCredentials(credentialsJSON string) (option.ClientOption, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(credentialsJSON),
		Scopes:          []string{calendar.CalendarReadonlyScope},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	return option.WithAuthCredentials(creds), nil
}
