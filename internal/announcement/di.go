package announcement

import (
	"github.com/foxseedlab/roomwarden/internal/audio"
	"github.com/foxseedlab/roomwarden/internal/config"
	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Announcer, error) {
		cfg := do.MustInvoke[*config.Config](i)
		dc := do.MustInvoke[discord.Client](i)
		newEncoder := do.MustInvoke[audio.EncoderFactory](i)
		return NewAnnouncer(dc, newEncoder, cfg.AnnouncementChannelID, cfg.AnnouncementAudioPath), nil
	})
}
