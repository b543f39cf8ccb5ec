package occupancy

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Reconciler, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		gw := do.MustInvoke[discord.Gateway](i)
		oracle := do.MustInvoke[holiday.Oracle](i)
		return NewReconciler(repo, gw, oracle, Config{
			ParentID:    cfg.DiscordVoiceParentID,
			Threshold:   cfg.SoloEvictionThreshold,
			Concurrency: cfg.ReconcileConcurrency,
			Location:    cfg.Location(),
		}), nil
	})
}
