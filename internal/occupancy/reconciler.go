package occupancy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/foxseedlab/roomwarden/internal/discord"
	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/foxseedlab/roomwarden/internal/reconcile"
	"github.com/foxseedlab/roomwarden/internal/repository"
	"golang.org/x/sync/errgroup"
)

const JobName = "occupancy-reconcile"

// Outcome actions.
const (
	ActionEvicted  = "evicted"
	ActionStale    = "stale"
	ActionResolved = "resolved"
	ActionCreated  = "created"
)

type Config struct {
	ParentID    string
	Threshold   time.Duration
	Concurrency int
	Location    *time.Location
}

// Reconciler tracks voice channels holding exactly one member and evicts that
// member once the solo episode reaches the threshold.
type Reconciler struct {
	timers   repository.SoloTimerRepository
	gateway  discord.Gateway
	holidays holiday.Oracle
	cfg      Config
	now      func() time.Time
}

func NewReconciler(timers repository.SoloTimerRepository, gateway discord.Gateway, holidays holiday.Oracle, cfg Config) *Reconciler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Reconciler{
		timers:   timers,
		gateway:  gateway,
		holidays: holidays,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Run is the scheduler entrypoint for one tick.
func (r *Reconciler) Run(ctx context.Context) error {
	out, err := r.Tick(ctx)
	if err != nil {
		return err
	}
	out.Log(JobName, ActionEvicted, ActionStale, ActionResolved, ActionCreated)
	return out.Err()
}

// Tick evaluates one membership snapshot. The eviction pass completes for
// every due timer before any channel is considered for a fresh timer.
func (r *Reconciler) Tick(ctx context.Context) (*reconcile.Outcome, error) {
	out := reconcile.NewOutcome()
	if holiday.Today(ctx, r.holidays, r.now, r.cfg.Location) {
		slog.Info("holiday; skipping occupancy reconcile")
		return out, nil
	}
	now := r.now()

	active, err := r.timers.ListActiveSoloTimers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active solo timers: %w", err)
	}

	channels, listErr := r.gateway.ListVoiceChannels(ctx, r.cfg.ParentID)
	if listErr != nil {
		slog.Error("failed to list voice channels; skipping timer creation", "parent_id", r.cfg.ParentID, "error", listErr)
		out.Fail(r.cfg.ParentID, listErr)
	}
	snap := newSnapshot(channels)

	known := newChannelSet()
	var due []repository.SoloTimer
	for _, t := range active {
		known.add(t.ChannelID)
		if now.Sub(t.StartTime) >= r.cfg.Threshold {
			due = append(due, t)
		}
	}
	slog.Debug("occupancy snapshot taken", "active_timers", len(active), "due_timers", len(due), "channels", len(channels))

	var evictions errgroup.Group
	evictions.SetLimit(r.cfg.Concurrency)
	for _, t := range due {
		evictions.Go(func() error {
			if r.evict(ctx, t, now, snap, out) {
				known.remove(t.ChannelID)
			}
			return nil
		})
	}
	_ = evictions.Wait()

	if listErr != nil {
		return out, nil
	}

	var updates errgroup.Group
	updates.SetLimit(r.cfg.Concurrency)
	for _, id := range snap.ids() {
		updates.Go(func() error {
			r.update(ctx, id, snap.count(id), known.has(id), now, out)
			return nil
		})
	}
	_ = updates.Wait()
	return out, nil
}

// evict handles one timer past the threshold and reports whether the timer
// is no longer active afterwards.
func (r *Reconciler) evict(ctx context.Context, t repository.SoloTimer, now time.Time, snap *snapshot, out *reconcile.Outcome) bool {
	log := slog.With("channel_id", t.ChannelID, "timer_id", t.ID, "elapsed", now.Sub(t.StartTime).String())

	occupants, ok := snap.occupants(t.ChannelID)
	if !ok {
		ch, err := r.gateway.FetchChannel(ctx, t.ChannelID)
		switch {
		case errors.Is(err, discord.ErrChannelNotFound):
			log.Info("channel no longer exists; resolving stale solo timer")
			if !r.resolve(ctx, t, now, out) {
				return false
			}
			out.Succeed(ActionStale, t.ChannelID)
			return true
		case err != nil:
			out.Fail(t.ChannelID, err)
			return false
		}
		occupants = ch.MemberIDs
	}

	if len(occupants) > 0 {
		userID := occupants[0]
		if err := r.gateway.DisconnectMember(ctx, userID); err != nil {
			log.Error("failed to evict solo occupant", "user_id", userID, "error", err)
			out.Fail(t.ChannelID, err)
		} else {
			snap.consume(t.ChannelID, userID)
			log.Info("evicted solo occupant", "user_id", userID)
			out.Succeed(ActionEvicted, t.ChannelID)
		}
	} else {
		log.Info("solo timer due but channel is empty")
	}
	return r.resolve(ctx, t, now, out)
}

func (r *Reconciler) resolve(ctx context.Context, t repository.SoloTimer, now time.Time, out *reconcile.Outcome) bool {
	changed, err := r.timers.ResolveSoloTimer(ctx, t.ID, now)
	if err != nil {
		out.Fail(t.ChannelID, err)
		return false
	}
	if !changed {
		slog.Debug("solo timer already resolved elsewhere", "channel_id", t.ChannelID, "timer_id", t.ID)
	}
	return true
}

func (r *Reconciler) update(ctx context.Context, channelID string, count int, knownActive bool, now time.Time, out *reconcile.Outcome) {
	switch {
	case count == 1 && !knownActive:
		created, err := r.timers.CreateSoloTimer(ctx, channelID, now)
		if err != nil {
			out.Fail(channelID, err)
			return
		}
		if !created {
			slog.Debug("solo timer already exists", "channel_id", channelID)
			return
		}
		slog.Info("solo occupancy started", "channel_id", channelID)
		out.Succeed(ActionCreated, channelID)
	case count != 1 && knownActive:
		changed, err := r.timers.ResolveActiveSoloTimerByChannel(ctx, channelID, now)
		if err != nil {
			out.Fail(channelID, err)
			return
		}
		if changed {
			slog.Info("solo occupancy ended", "channel_id", channelID, "members", count)
			out.Succeed(ActionResolved, channelID)
		}
	}
}

type snapshot struct {
	mu       sync.Mutex
	order    []string
	channels map[string][]string
}

func newSnapshot(channels []discord.Channel) *snapshot {
	s := &snapshot{channels: make(map[string][]string, len(channels))}
	for _, ch := range channels {
		if _, dup := s.channels[ch.ID]; dup {
			continue
		}
		s.order = append(s.order, ch.ID)
		s.channels[ch.ID] = append([]string(nil), ch.MemberIDs...)
	}
	return s
}

func (s *snapshot) ids() []string {
	return s.order
}

func (s *snapshot) occupants(channelID string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.channels[channelID]
	return append([]string(nil), m...), ok
}

func (s *snapshot) count(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels[channelID])
}

// consume removes an evicted member so it does not seed a new timer in the
// same tick.
func (s *snapshot) consume(channelID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.channels[channelID]
	if !ok {
		return
	}
	kept := members[:0]
	for _, m := range members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	s.channels[channelID] = kept
}

type channelSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newChannelSet() *channelSet {
	return &channelSet{ids: make(map[string]struct{})}
}

func (c *channelSet) add(id string) {
	c.mu.Lock()
	c.ids[id] = struct{}{}
	c.mu.Unlock()
}

func (c *channelSet) remove(id string) {
	c.mu.Lock()
	delete(c.ids, id)
	c.mu.Unlock()
}

func (c *channelSet) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.ids[id]
	return ok
}
