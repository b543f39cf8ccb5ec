package discord

import (
	"github.com/foxseedlab/roomwarden/internal/config"
	discordpkg "github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (discordpkg.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewClient(c.DiscordToken, c.DiscordGuildID, c.GatewayRequestTimeout), nil
	})
	do.Provide(injector, func(i do.Injector) (discordpkg.Gateway, error) {
		return do.Invoke[discordpkg.Client](i)
	})
}
