package lifecycle

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Reconciler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		gw := do.MustInvoke[discord.Gateway](i)
		return NewReconciler(repo, gw, cfg.LifecycleWindow, cfg.ReconcileConcurrency), nil
	})
	do.Provide(injector, func(i do.Injector) (*Renamer, error) {
		repo := do.MustInvoke[repository.Repository](i)
		gw := do.MustInvoke[discord.Gateway](i)
		return NewRenamer(repo, gw), nil
	})
}
