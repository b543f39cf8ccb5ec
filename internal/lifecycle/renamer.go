package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/repository"
)

// Renamer performs tracked temporary renames. The original name is recorded
// before the channel is touched so the reconciler can always put it back.
type Renamer struct {
	records repository.LifecycleRepository
	gateway discord.Gateway
	now     func() time.Time
}

func NewRenamer(records repository.LifecycleRepository, gateway discord.Gateway) *Renamer {
	return &Renamer{records: records, gateway: gateway, now: time.Now}
}

func (r *Renamer) RenameTemporarily(ctx context.Context, channelID, name string) (*repository.LifecycleRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("channel name must not be empty")
	}
	ch, err := r.gateway.FetchChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("fetch channel %s: %w", channelID, err)
	}
	rec, err := r.records.CreateLifecycleRecord(ctx, repository.CreateLifecycleRecordInput{
		VoiceChannelID: channelID,
		OriginalName:   ch.Name,
		CreatedAt:      r.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("record original channel name: %w", err)
	}
	if err := r.gateway.RenameChannel(ctx, channelID, name); err != nil {
		return rec, fmt.Errorf("rename channel %s: %w", channelID, err)
	}
	slog.Info("channel renamed temporarily", "channel_id", channelID, "original_name", ch.Name, "name", name, "record_id", rec.ID)
	return rec, nil
}
