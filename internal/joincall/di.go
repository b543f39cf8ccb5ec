package joincall

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Watchdog, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		oracle := do.MustInvoke[holiday.Oracle](i)
		return NewWatchdog(repo, oracle, cfg.JoinCallMaxDuration, cfg.Location()), nil
	})
}
