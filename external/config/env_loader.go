package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/roomwarden/internal/config"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type envConfig struct {
	Env                        string        `env:"ENV" envDefault:"production"`
	DatabaseURL                string        `env:"DATABASE_URL,required"`
	DiscordToken               string        `env:"DISCORD_TOKEN,required"`
	DiscordGuildID             string        `env:"DISCORD_GUILD_ID,required"`
	DiscordVoiceParentID       string        `env:"DISCORD_VOICE_PARENT_ID,required"`
	SchedulerTimezone          string        `env:"SCHEDULER_TIMEZONE" envDefault:"Asia/Ho_Chi_Minh"`
	SoloEvictionThreshold      time.Duration `env:"SOLO_EVICTION_THRESHOLD" envDefault:"10m"`
	JoinCallMaxDuration        time.Duration `env:"JOIN_CALL_MAX_DURATION" envDefault:"2h"`
	LifecycleWindow            time.Duration `env:"LIFECYCLE_WINDOW" envDefault:"24h"`
	GatewayRequestTimeout      time.Duration `env:"GATEWAY_REQUEST_TIMEOUT" envDefault:"10s"`
	ReconcileConcurrency       int           `env:"RECONCILE_CONCURRENCY" envDefault:"4"`
	ScheduleOccupancy          string        `env:"SCHEDULE_OCCUPANCY" envDefault:"* * * * *"`
	ScheduleLifecycle          string        `env:"SCHEDULE_LIFECYCLE" envDefault:"23 0 * * 0-6"`
	ScheduleJoinCall           string        `env:"SCHEDULE_JOIN_CALL" envDefault:"0 9-11,13-17 * * 1-5"`
	ScheduleShutdown           string        `env:"SCHEDULE_SHUTDOWN" envDefault:"15 14 * * 4"`
	ScheduleAnnouncement       string        `env:"SCHEDULE_ANNOUNCEMENT" envDefault:"30 11 * * 5"`
	ScheduleFile               string        `env:"SCHEDULE_FILE"`
	ShutdownMemberID           string        `env:"SHUTDOWN_MEMBER_ID"`
	AnnouncementChannelID      string        `env:"ANNOUNCEMENT_CHANNEL_ID"`
	AnnouncementAudioPath      string        `env:"ANNOUNCEMENT_AUDIO_PATH"`
	HolidayDates               []string      `env:"HOLIDAY_DATES" envSeparator:","`
	HolidayCalendarID          string        `env:"HOLIDAY_CALENDAR_ID"`
	GoogleCloudCredentialsJSON string        `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleAPIKey               string        `env:"GOOGLE_API_KEY"`
	HTTPAddr                   string        `env:"HTTP_ADDR" envDefault:":8080"`
}

// scheduleFile is the optional YAML override for job schedules:
//
//	jobs:
//	  occupancy-reconcile: "*/2 * * * *"
type scheduleFile struct {
	Jobs map[string]string `yaml:"jobs"`
}

func Load() (*internalconfig.Config, error) {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if raw.ScheduleFile != "" {
		if err := applyScheduleFile(&raw, raw.ScheduleFile); err != nil {
			return nil, err
		}
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		DatabaseURL:                raw.DatabaseURL,
		DiscordToken:               raw.DiscordToken,
		DiscordGuildID:             raw.DiscordGuildID,
		DiscordVoiceParentID:       raw.DiscordVoiceParentID,
		SchedulerTimezone:          raw.SchedulerTimezone,
		SoloEvictionThreshold:      raw.SoloEvictionThreshold,
		JoinCallMaxDuration:        raw.JoinCallMaxDuration,
		LifecycleWindow:            raw.LifecycleWindow,
		GatewayRequestTimeout:      raw.GatewayRequestTimeout,
		ReconcileConcurrency:       raw.ReconcileConcurrency,
		ScheduleOccupancy:          raw.ScheduleOccupancy,
		ScheduleLifecycle:          raw.ScheduleLifecycle,
		ScheduleJoinCall:           raw.ScheduleJoinCall,
		ScheduleShutdown:           raw.ScheduleShutdown,
		ScheduleAnnouncement:       raw.ScheduleAnnouncement,
		ShutdownMemberID:           raw.ShutdownMemberID,
		AnnouncementChannelID:      raw.AnnouncementChannelID,
		AnnouncementAudioPath:      raw.AnnouncementAudioPath,
		HolidayDates:               raw.HolidayDates,
		HolidayCalendarID:          raw.HolidayCalendarID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleAPIKey:               raw.GoogleAPIKey,
		HTTPAddr:                   raw.HTTPAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyScheduleFile(raw *envConfig, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read SCHEDULE_FILE: %w", err)
	}
	var f scheduleFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("SCHEDULE_FILE is not valid yaml: %w", err)
	}
	targets := map[string]*string{
		"occupancy-reconcile": &raw.ScheduleOccupancy,
		"lifecycle-reconcile": &raw.ScheduleLifecycle,
		"join-call-watchdog":  &raw.ScheduleJoinCall,
		"shutdown":            &raw.ScheduleShutdown,
		"announcement":        &raw.ScheduleAnnouncement,
	}
	for name, spec := range f.Jobs {
		target, ok := targets[name]
		if !ok {
			return fmt.Errorf("SCHEDULE_FILE references unknown job %q", name)
		}
		*target = spec
	}
	return nil
}
