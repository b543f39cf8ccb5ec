package holiday

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/samber/do/v2"
	"google.golang.org/api/option"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (holiday.Oracle, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewOracle(c)
	})
}

// NewOracle combines the static HOLIDAY_DATES list with the optional
// Google Calendar lookup.
func NewOracle(c *config.Config) (holiday.Oracle, error) {
	dates, err := c.ParsedHolidayDates()
	if err != nil {
		return nil, err
	}
	oracles := []holiday.Oracle{holiday.NewStatic(dates)}
	if c.HolidayCalendarID == "" {
		return holiday.Any(oracles...), nil
	}

	var opts []option.ClientOption
	if c.GoogleAPIKey == "" {
		credOpt, err := detectCredentials(c.GoogleCloudCredentialsJSON)
		if err != nil {
			return nil, err
		}
		opts = append(opts, credOpt)
	}
	oracles = append(oracles, NewCalendarOracle(CalendarConfig{
		CalendarID: c.HolidayCalendarID,
		APIKey:     c.GoogleAPIKey,
		Location:   c.Location(),
	}, opts...))
	return holiday.Any(oracles...), nil
}
