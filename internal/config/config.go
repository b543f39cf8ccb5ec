package config

import (
	"fmt"
	"strings"
	"time"
)

const holidayDateLayout = "2006-01-02"

type Config struct {
	Env                        string
	DatabaseURL                string
	DiscordToken               string
	DiscordGuildID             string
	DiscordVoiceParentID       string
	SchedulerTimezone          string
	SoloEvictionThreshold      time.Duration
	JoinCallMaxDuration        time.Duration
	LifecycleWindow            time.Duration
	GatewayRequestTimeout      time.Duration
	ReconcileConcurrency       int
	ScheduleOccupancy          string
	ScheduleLifecycle          string
	ScheduleJoinCall           string
	ScheduleShutdown           string
	ScheduleAnnouncement       string
	ShutdownMemberID           string
	AnnouncementChannelID      string
	AnnouncementAudioPath      string
	HolidayDates               []string
	HolidayCalendarID          string
	GoogleCloudCredentialsJSON string
	GoogleAPIKey               string
	HTTPAddr                   string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if strings.TrimSpace(req.value) == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	for _, d := range c.positiveDurationChecks() {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.name, d.value)
		}
	}
	if c.ReconcileConcurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive, got %d", c.ReconcileConcurrency)
	}
	if _, err := time.LoadLocation(c.SchedulerTimezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE is invalid: %w", err)
	}
	if _, err := c.ParsedHolidayDates(); err != nil {
		return err
	}
	if (c.AnnouncementChannelID == "") != (c.AnnouncementAudioPath == "") {
		return fmt.Errorf("ANNOUNCEMENT_CHANNEL_ID and ANNOUNCEMENT_AUDIO_PATH must be set together")
	}
	if c.HolidayCalendarID != "" && c.GoogleCloudCredentialsJSON == "" && c.GoogleAPIKey == "" {
		return fmt.Errorf("GOOGLE_CLOUD_CREDENTIALS_JSON or GOOGLE_API_KEY is required when HOLIDAY_CALENDAR_ID is set")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "DATABASE_URL", value: c.DatabaseURL},
		{name: "DISCORD_TOKEN", value: c.DiscordToken},
		{name: "DISCORD_GUILD_ID", value: c.DiscordGuildID},
		{name: "DISCORD_VOICE_PARENT_ID", value: c.DiscordVoiceParentID},
		{name: "SCHEDULER_TIMEZONE", value: c.SchedulerTimezone},
		{name: "SCHEDULE_OCCUPANCY", value: c.ScheduleOccupancy},
		{name: "SCHEDULE_LIFECYCLE", value: c.ScheduleLifecycle},
		{name: "SCHEDULE_JOIN_CALL", value: c.ScheduleJoinCall},
		{name: "SCHEDULE_SHUTDOWN", value: c.ScheduleShutdown},
		{name: "SCHEDULE_ANNOUNCEMENT", value: c.ScheduleAnnouncement},
	}
}

type durationField struct {
	name  string
	value time.Duration
}

func (c *Config) positiveDurationChecks() []durationField {
	return []durationField{
		{name: "SOLO_EVICTION_THRESHOLD", value: c.SoloEvictionThreshold},
		{name: "JOIN_CALL_MAX_DURATION", value: c.JoinCallMaxDuration},
		{name: "LIFECYCLE_WINDOW", value: c.LifecycleWindow},
		{name: "GATEWAY_REQUEST_TIMEOUT", value: c.GatewayRequestTimeout},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Location returns the organizational timezone. Validate must have passed.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.SchedulerTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) ParsedHolidayDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.HolidayDates))
	for _, raw := range c.HolidayDates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		d, err := time.Parse(holidayDateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("HOLIDAY_DATES contains invalid date %q: %w", raw, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func (c *Config) AnnouncementEnabled() bool {
	return c.AnnouncementChannelID != "" && c.AnnouncementAudioPath != ""
}
