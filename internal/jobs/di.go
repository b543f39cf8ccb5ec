package jobs

import (
	"github.com/foxseedlab/roomwarden/internal/announcement"
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/joincall"
	"github.com/foxseedlab/roomwarden/internal/lifecycle"
	"github.com/foxseedlab/roomwarden/internal/occupancy"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Shutdown, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		return NewShutdown(dc, cfg.ShutdownMemberID, dc.GetBotUserID), nil
	})
	do.Provide(injector, func(i do.Injector) (Set, error) {
		return Set{
			Occupancy:    do.MustInvoke[*occupancy.Reconciler](i),
			Lifecycle:    do.MustInvoke[*lifecycle.Reconciler](i),
			JoinCall:     do.MustInvoke[*joincall.Watchdog](i),
			Shutdown:     do.MustInvoke[*Shutdown](i),
			Announcement: do.MustInvoke[*announcement.Announcer](i),
		}, nil
	})
}
