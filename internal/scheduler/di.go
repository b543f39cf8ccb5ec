package scheduler

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Scheduler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return New(cfg.Location()), nil
	})
}
