package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	configloader "github.com/foxseedlab/roomwarden/external/config"
	"github.com/foxseedlab/roomwarden/external/httpserver"
	repositoryimpl "github.com/foxseedlab/roomwarden/external/repository"
	"github.com/foxseedlab/roomwarden/internal/lifecycle"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "roomwarden",
		Short:        "Voice room occupancy and lifecycle scheduler",
		Long:         `Runs the scheduled voice room jobs. Commands: serve (default), run, migrate, rename.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Connect to Discord and run every job on its schedule",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "run <job>",
			Short: "Run one job once and exit",
			Args:  cobra.ExactArgs(1),
			RunE:  runJob,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply store migrations",
			Args:  cobra.NoArgs,
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "rename <channel-id> <name>",
			Short: "Rename a voice channel until the next lifecycle reconcile",
			Args:  cobra.ExactArgs(2),
			RunE:  runRename,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, injector, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	sched, err := setupScheduler(cfg, injector)
	if err != nil {
		return err
	}
	sched.Start()

	var srv *httpserver.Server
	if cfg.HTTPAddr != "" {
		srv, err = do.Invoke[*httpserver.Server](injector)
		if err != nil {
			return err
		}
		srv.Start()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown failed", "error", err)
		}
	}
	return sched.Stop(shutdownCtx)
}

func runJob(cmd *cobra.Command, args []string) error {
	cfg, injector, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	sched, err := setupScheduler(cfg, injector)
	if err != nil {
		return err
	}
	name := args[0]
	slog.Info("running job once", "job", name)
	if err := sched.RunNow(cmd.Context(), name); err != nil {
		return fmt.Errorf("job %s: %w (available: %v)", name, err, sched.Names())
	}
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := configloader.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	repo, err := repositoryimpl.Open(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer repo.Close()
	if err := repo.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}
	slog.Info("migration completed")
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	_, injector, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	renamer, err := do.Invoke[*lifecycle.Renamer](injector)
	if err != nil {
		return err
	}
	rec, err := renamer.RenameTemporarily(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}
	slog.Info("temporary rename recorded", "record_id", rec.ID, "channel_id", rec.VoiceChannelID, "original_name", rec.OriginalName)
	return nil
}
