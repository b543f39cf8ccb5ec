package reconcile

import (
	"errors"
	"log/slog"
	"sort"
	"sync"
)

// Failure is one item that could not be reconciled in a tick.
type Failure struct {
	ID  string
	Err error
}

// Outcome collects per-item results of a fan-out. It is safe for concurrent use.
type Outcome struct {
	mu        sync.Mutex
	succeeded map[string][]string
	failures  []Failure
}

func NewOutcome() *Outcome {
	return &Outcome{succeeded: make(map[string][]string)}
}

// Succeed records id under an action such as "evicted" or "created".
func (o *Outcome) Succeed(action, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.succeeded[action] = append(o.succeeded[action], id)
}

func (o *Outcome) Fail(id string, err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, Failure{ID: id, Err: err})
}

func (o *Outcome) Succeeded(action string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]string(nil), o.succeeded[action]...)
	sort.Strings(out)
	return out
}

func (o *Outcome) Count(action string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.succeeded[action])
}

func (o *Outcome) Failures() []Failure {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Failure(nil), o.failures...)
}

// Err joins every recorded failure, or returns nil when the tick was clean.
func (o *Outcome) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(o.failures))
	for _, f := range o.failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Log writes one summary line plus one line per failure.
func (o *Outcome) Log(job string, actions ...string) {
	attrs := []any{"job", job}
	for _, action := range actions {
		attrs = append(attrs, action, o.Count(action))
	}
	failures := o.Failures()
	attrs = append(attrs, "failed", len(failures))
	for _, f := range failures {
		slog.Warn("reconcile item failed", "job", job, "id", f.ID, "error", f.Err)
	}
	slog.Info("reconcile tick finished", attrs...)
}
