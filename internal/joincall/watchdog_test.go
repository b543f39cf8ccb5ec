package joincall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/foxseedlab/roomwarden/internal/holiday"
	"github.com/foxseedlab/roomwarden/internal/repository"
)

type mockJoinCallStore struct {
	calls     map[int64]*repository.JoinCall
	bulkCalls int
	err       error
}

func newMockStore(calls ...repository.JoinCall) *mockJoinCallStore {
	m := &mockJoinCallStore{calls: make(map[int64]*repository.JoinCall)}
	for i := range calls {
		c := calls[i]
		m.calls[c.ID] = &c
	}
	return m
}

func (m *mockJoinCallStore) CreateJoinCall(_ context.Context, input repository.CreateJoinCallInput) (*repository.JoinCall, error) {
	c := &repository.JoinCall{
		ID:        int64(len(m.calls) + 1),
		ChannelID: input.ChannelID,
		UserID:    input.UserID,
		Status:    repository.JoinCallStatusJoining,
		StartTime: input.StartTime,
	}
	m.calls[c.ID] = c
	return c, nil
}

func (m *mockJoinCallStore) GetJoinCall(_ context.Context, id int64) (*repository.JoinCall, error) {
	c, ok := m.calls[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

func (m *mockJoinCallStore) FinishJoinCall(_ context.Context, id int64, end time.Time) (bool, error) {
	c, ok := m.calls[id]
	if !ok || c.Status != repository.JoinCallStatusJoining {
		return false, nil
	}
	c.Status = repository.JoinCallStatusFinish
	c.EndTime = &end
	return true, nil
}

func (m *mockJoinCallStore) CloseStaleJoinCalls(_ context.Context, cutoff, end time.Time) (int64, error) {
	m.bulkCalls++
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for _, c := range m.calls {
		if c.Status == repository.JoinCallStatusJoining && !c.StartTime.After(cutoff) {
			c.Status = repository.JoinCallStatusFinish
			e := end
			c.EndTime = &e
			n++
		}
	}
	return n, nil
}

var t0 = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func newTestWatchdog(store *mockJoinCallStore, oracle holiday.Oracle, now time.Time) *Watchdog {
	w := NewWatchdog(store, oracle, 2*time.Hour, time.UTC)
	w.now = func() time.Time { return now }
	return w
}

func TestSweep_ClosesCallOpenLongerThanMaxDuration(t *testing.T) {
	store := newMockStore(repository.JoinCall{ID: 5, Status: repository.JoinCallStatusJoining, StartTime: t0})
	now := t0.Add(2*time.Hour + time.Second)
	w := newTestWatchdog(store, nil, now)

	closed, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed call, got %d", closed)
	}
	c := store.calls[5]
	if c.Status != repository.JoinCallStatusFinish || c.EndTime == nil || !c.EndTime.Equal(now) {
		t.Fatalf("unexpected call state: %+v", c)
	}
}

func TestSweep_ClosesAtExactlyMaxDuration(t *testing.T) {
	store := newMockStore(repository.JoinCall{ID: 1, Status: repository.JoinCallStatusJoining, StartTime: t0})
	w := newTestWatchdog(store, nil, t0.Add(2*time.Hour))

	closed, err := w.Sweep(context.Background())
	if err != nil || closed != 1 {
		t.Fatalf("expected call closed at the boundary, got closed=%d err=%v", closed, err)
	}
}

func TestSweep_LeavesYoungAndFinishedCallsAlone(t *testing.T) {
	earlierEnd := t0.Add(10 * time.Minute)
	store := newMockStore(
		repository.JoinCall{ID: 1, Status: repository.JoinCallStatusJoining, StartTime: t0.Add(time.Hour)},
		repository.JoinCall{ID: 2, Status: repository.JoinCallStatusFinish, StartTime: t0, EndTime: &earlierEnd},
	)
	w := newTestWatchdog(store, nil, t0.Add(2*time.Hour+time.Second))

	closed, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected nothing closed, got %d", closed)
	}
	if store.calls[1].Status != repository.JoinCallStatusJoining {
		t.Fatal("young call must stay joining")
	}
	if !store.calls[2].EndTime.Equal(earlierEnd) {
		t.Fatal("finished call must keep its end time")
	}
}

func TestSweep_SkipsOnHoliday(t *testing.T) {
	store := newMockStore(repository.JoinCall{ID: 1, Status: repository.JoinCallStatusJoining, StartTime: t0})
	now := t0.Add(3 * time.Hour)
	w := newTestWatchdog(store, holiday.NewStatic([]time.Time{now}), now)

	closed, err := w.Sweep(context.Background())
	if err != nil || closed != 0 {
		t.Fatalf("expected no-op on holiday, got closed=%d err=%v", closed, err)
	}
	if store.bulkCalls != 0 {
		t.Fatalf("expected no store writes on holiday, got %d", store.bulkCalls)
	}
}

func TestRun_PropagatesStoreError(t *testing.T) {
	store := newMockStore()
	store.err = &repository.StoreError{Op: "close stale join calls", Err: errors.New("db down")}
	w := newTestWatchdog(store, nil, t0)

	var storeErr *repository.StoreError
	if err := w.Run(context.Background()); !errors.As(err, &storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}
