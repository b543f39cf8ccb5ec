package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	audioimpl "github.com/foxseedlab/roomwarden/external/audio"
	configloader "github.com/foxseedlab/roomwarden/external/config"
	"github.com/foxseedlab/roomwarden/external/discord"
	holidayimpl "github.com/foxseedlab/roomwarden/external/holiday"
	"github.com/foxseedlab/roomwarden/external/httpserver"
	repositoryimpl "github.com/foxseedlab/roomwarden/external/repository"
	"github.com/foxseedlab/roomwarden/internal/announcement"
	"github.com/foxseedlab/roomwarden/internal/config"
	discordpkg "github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/jobs"
	"github.com/foxseedlab/roomwarden/internal/joincall"
	"github.com/foxseedlab/roomwarden/internal/lifecycle"
	"github.com/foxseedlab/roomwarden/internal/occupancy"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/foxseedlab/roomwarden/internal/scheduler"
	"github.com/samber/do/v2"
)

const (
	discordConnectTimeout = 20 * time.Second
	shutdownTimeout       = 30 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	slog.Info("startup: loading configuration")
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		return nil, err
	}
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)
	return cfg, nil
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	holidayimpl.RegisterDI(injector)
	scheduler.RegisterDI(injector)
	occupancy.RegisterDI(injector)
	lifecycle.RegisterDI(injector)
	joincall.RegisterDI(injector)
	announcement.RegisterDI(injector)
	jobs.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

// bootstrap loads configuration, builds the dependency graph and connects
// to the Discord gateway. The returned cleanup closes the gateway and store.
func bootstrap() (*config.Config, do.Injector, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	dc, err := do.Invoke[discordpkg.Client](injector)
	if err != nil {
		slog.Error("failed to resolve discord client", "error", err)
		return nil, nil, nil, err
	}
	repo, err := do.Invoke[repository.Repository](injector)
	if err != nil {
		slog.Error("failed to resolve repository", "error", err)
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
	defer cancel()

	slog.Info("startup: connecting to discord gateway")
	if err := dc.Connect(ctx); err != nil {
		slog.Error("discord connect failed", "error", err)
		repo.Close()
		return nil, nil, nil, err
	}
	slog.Info("startup: discord connected", "guild_id", cfg.DiscordGuildID)

	cleanup := func() {
		if err := dc.Close(); err != nil {
			slog.Error("discord close failed", "error", err)
		}
		repo.Close()
	}
	return cfg, injector, cleanup, nil
}

func setupScheduler(cfg *config.Config, injector do.Injector) (*scheduler.Scheduler, error) {
	sched, err := do.Invoke[*scheduler.Scheduler](injector)
	if err != nil {
		return nil, err
	}
	set, err := do.Invoke[jobs.Set](injector)
	if err != nil {
		return nil, err
	}
	if err := jobs.Setup(sched, cfg, set); err != nil {
		slog.Error("job registration failed", "error", err)
		return nil, err
	}
	return sched, nil
}
