package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/reconcile"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"golang.org/x/sync/errgroup"
)

const JobName = "lifecycle-reconcile"

const (
	ActionRestored  = "restored"
	ActionUnchanged = "unchanged"
	ActionOrphaned  = "orphaned"
)

// Reconciler restores the at-rest name of channels that were renamed
// temporarily. Only records created within [now-window, now+window] are
// considered; older ones are left alone.
type Reconciler struct {
	records     repository.LifecycleRepository
	gateway     discord.Gateway
	window      time.Duration
	concurrency int
	now         func() time.Time
}

func NewReconciler(records repository.LifecycleRepository, gateway discord.Gateway, window time.Duration, concurrency int) *Reconciler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Reconciler{
		records:     records,
		gateway:     gateway,
		window:      window,
		concurrency: concurrency,
		now:         time.Now,
	}
}

func (r *Reconciler) Run(ctx context.Context) error {
	out, err := r.Tick(ctx)
	if err != nil {
		return err
	}
	out.Log(JobName, ActionRestored, ActionUnchanged, ActionOrphaned)
	return out.Err()
}

func (r *Reconciler) Tick(ctx context.Context) (*reconcile.Outcome, error) {
	now := r.now()
	records, err := r.records.ListPendingLifecycleRecords(ctx, now.Add(-r.window), now.Add(r.window))
	if err != nil {
		return nil, fmt.Errorf("list pending lifecycle records: %w", err)
	}
	out := reconcile.NewOutcome()
	groups := groupByChannel(records)
	slog.Debug("lifecycle records pending", "records", len(records), "channels", len(groups))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for _, group := range groups {
		g.Go(func() error {
			r.restore(ctx, group, out)
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// restore handles every pending record of one channel. Records arrive oldest
// first, so the first one holds the name the channel had before any of the
// pending renames.
func (r *Reconciler) restore(ctx context.Context, group []repository.LifecycleRecord, out *reconcile.Outcome) {
	channelID := group[0].VoiceChannelID
	original := group[0].OriginalName
	log := slog.With("channel_id", channelID, "original_name", original)

	action := ActionRestored
	ch, err := r.gateway.FetchChannel(ctx, channelID)
	switch {
	case errors.Is(err, discord.ErrChannelNotFound):
		log.Info("channel no longer exists; finishing lifecycle record")
		action = ActionOrphaned
	case err != nil:
		out.Fail(channelID, err)
		return
	case ch.Name == original:
		action = ActionUnchanged
	default:
		if err := r.gateway.RenameChannel(ctx, channelID, original); err != nil {
			if !errors.Is(err, discord.ErrChannelNotFound) {
				log.Error("failed to restore channel name", "current_name", ch.Name, "error", err)
				out.Fail(channelID, err)
				return
			}
			action = ActionOrphaned
		} else {
			log.Info("channel name restored", "previous_name", ch.Name)
		}
	}

	for _, rec := range group {
		if _, err := r.records.FinishLifecycleRecord(ctx, rec.ID); err != nil {
			out.Fail(rec.ID, err)
			return
		}
	}
	out.Succeed(action, channelID)
}

func groupByChannel(records []repository.LifecycleRecord) [][]repository.LifecycleRecord {
	index := make(map[string]int)
	var groups [][]repository.LifecycleRecord
	for _, rec := range records {
		i, ok := index[rec.VoiceChannelID]
		if !ok {
			i = len(groups)
			index[rec.VoiceChannelID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}
