package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrJobBusy     = errors.New("job is already running")
)

// DuplicateJobError is returned when a job name is registered twice.
type DuplicateJobError struct {
	Name string
}

func (e *DuplicateJobError) Error() string {
	return fmt.Sprintf("job %q is already registered", e.Name)
}

type Job func(ctx context.Context) error

type Status struct {
	Name       string    `json:"name"`
	Spec       string    `json:"spec"`
	Running    bool      `json:"running"`
	Next       time.Time `json:"next,omitempty"`
	LastStart  time.Time `json:"last_start,omitempty"`
	LastFinish time.Time `json:"last_finish,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
	Runs       int64     `json:"runs"`
	Failures   int64     `json:"failures"`
	Skips      int64     `json:"skips"`
}

type entry struct {
	name    string
	spec    string
	job     Job
	id      cron.EntryID
	running atomic.Bool

	mu         sync.Mutex
	lastStart  time.Time
	lastFinish time.Time
	lastErr    error
	runs       int64
	failures   int64
	skips      int64
}

// Scheduler runs named jobs on cron expressions in a fixed location.
// A job never overlaps with itself; a firing that finds it busy is skipped.
type Scheduler struct {
	cron   *cron.Cron
	parser cron.Parser
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	jobs map[string]*entry
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	logger := slogLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithParser(parser),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger)),
		),
		parser: parser,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		jobs:   make(map[string]*entry),
	}
}

func (s *Scheduler) Register(name, spec string, job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return &DuplicateJobError{Name: name}
	}
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse schedule for job %q: %w", name, err)
	}
	e := &entry{name: name, spec: spec, job: job}
	e.id = s.cron.Schedule(schedule, cron.FuncJob(func() {
		if err := s.run(s.ctx, e, "schedule"); err != nil && !errors.Is(err, ErrJobBusy) {
			slog.Error("scheduled job failed", "job", name, "error", err)
		}
	}))
	s.jobs[name] = e
	slog.Info("job registered", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) Start() {
	slog.Info("scheduler starting", "jobs", len(s.jobs), "location", s.cron.Location().String())
	s.cron.Start()
}

// Stop prevents new firings and waits for running jobs until ctx is done.
// Jobs still running after that see their context cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()
	defer s.cancel()
	select {
	case <-done:
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		slog.Warn("scheduler stop timed out; cancelling running jobs", "error", ctx.Err())
		return ctx.Err()
	}
}

// RunNow triggers a job outside its schedule, honoring the same no-overlap rule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	e, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.run(ctx, e, "manual")
}

func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Statuses() []Status {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	out := make([]Status, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		st := Status{
			Name:       e.name,
			Spec:       e.spec,
			Running:    e.running.Load(),
			LastStart:  e.lastStart,
			LastFinish: e.lastFinish,
			Runs:       e.runs,
			Failures:   e.failures,
			Skips:      e.skips,
		}
		if e.lastErr != nil {
			st.LastError = e.lastErr.Error()
		}
		e.mu.Unlock()
		st.Next = s.cron.Entry(e.id).Next
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) run(ctx context.Context, e *entry, trigger string) (err error) {
	if !e.running.CompareAndSwap(false, true) {
		e.mu.Lock()
		e.skips++
		e.mu.Unlock()
		slog.Warn("job still running; skipping", "job", e.name, "trigger", trigger)
		return fmt.Errorf("%w: %s", ErrJobBusy, e.name)
	}
	s.wg.Add(1)
	defer s.wg.Done()
	defer e.running.Store(false)

	start := s.now()
	e.mu.Lock()
	e.lastStart = start
	e.mu.Unlock()
	slog.Info("job started", "job", e.name, "trigger", trigger)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %q panicked: %v", e.name, r)
		}
		finish := s.now()
		e.mu.Lock()
		e.lastFinish = finish
		e.lastErr = err
		e.runs++
		if err != nil {
			e.failures++
		}
		e.mu.Unlock()
		slog.Info("job finished", "job", e.name, "trigger", trigger, "elapsed", finish.Sub(start).String(), "ok", err == nil)
	}()

	return e.job(ctx)
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
