package jobs

import (
	"context"
	"fmt"

	"github.com/foxseedlab/roomwarden/internal/announcement"
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/joincall"
	"github.com/foxseedlab/roomwarden/internal/lifecycle"
	"github.com/foxseedlab/roomwarden/internal/occupancy"
	"github.com/foxseedlab/roomwarden/internal/scheduler"
)

type Runner interface {
	Run(ctx context.Context) error
}

type Registrar interface {
	Register(name, spec string, job scheduler.Job) error
}

// Set holds the runner behind each named job.
type Set struct {
	Occupancy    Runner
	Lifecycle    Runner
	JoinCall     Runner
	Shutdown     Runner
	Announcement Runner
}

type definition struct {
	name   string
	spec   string
	runner Runner
}

func definitions(cfg *config.Config, set Set) []definition {
	return []definition{
		{name: occupancy.JobName, spec: cfg.ScheduleOccupancy, runner: set.Occupancy},
		{name: lifecycle.JobName, spec: cfg.ScheduleLifecycle, runner: set.Lifecycle},
		{name: joincall.JobName, spec: cfg.ScheduleJoinCall, runner: set.JoinCall},
		{name: ShutdownJobName, spec: cfg.ScheduleShutdown, runner: set.Shutdown},
		{name: announcement.JobName, spec: cfg.ScheduleAnnouncement, runner: set.Announcement},
	}
}

// Setup registers every job. Any error is a configuration bug.
func Setup(r Registrar, cfg *config.Config, set Set) error {
	for _, d := range definitions(cfg, set) {
		if d.runner == nil {
			return fmt.Errorf("job %q has no runner", d.name)
		}
		if err := r.Register(d.name, d.spec, d.runner.Run); err != nil {
			return err
		}
	}
	return nil
}
