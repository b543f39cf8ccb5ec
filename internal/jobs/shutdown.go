package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/roomwarden/internal/discord"
)

const ShutdownJobName = "shutdown"

// Shutdown disconnects one configured member from voice. When no member is
// configured it targets the bot itself.
type Shutdown struct {
	gateway  discord.Gateway
	memberID string
	self     func() (string, error)
}

func NewShutdown(gateway discord.Gateway, memberID string, self func() (string, error)) *Shutdown {
	return &Shutdown{gateway: gateway, memberID: memberID, self: self}
}

func (s *Shutdown) Run(ctx context.Context) error {
	userID := s.memberID
	if userID == "" {
		if s.self == nil {
			return errors.New("no shutdown member configured")
		}
		id, err := s.self()
		if err != nil {
			return fmt.Errorf("resolve bot user id: %w", err)
		}
		userID = id
	}

	member, err := s.gateway.FetchMember(ctx, userID)
	if errors.Is(err, discord.ErrMemberNotFound) {
		slog.Warn("shutdown member not found in guild", "user_id", userID)
		return nil
	}
	if err != nil {
		return err
	}
	if member.VoiceChannelID == "" {
		slog.Info("shutdown member is not in voice; nothing to do", "user_id", userID)
		return nil
	}
	if err := s.gateway.DisconnectMember(ctx, userID); err != nil {
		return err
	}
	slog.Info("shutdown member disconnected", "user_id", userID, "channel_id", member.VoiceChannelID)
	return nil
}
