// Package jobmgr runs named background jobs. A name identifies at most one
// live job; starting under a taken name fails, restarting replaces it.
//
//	jobs := jobmgr.NewManager(func(e jobmgr.Event) {
//	    log.Debug("job", zap.String("job", e.Job), zap.String("state", string(e.State)))
//	})
//	jobs.After("tourney-editor:42", 10*time.Minute, closeEditor)
//	defer jobs.Shutdown()
package jobmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type State string

const (
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// Event is one lifecycle transition of a job. Err is set for StateFailed.
type Event struct {
	Job   string
	State State
	Err   error
}

// Reporter receives job events. It is called from the job's goroutine.
type Reporter func(Event)

type job struct {
	started time.Time
	cancel  context.CancelFunc
}

// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	jobs   map[string]*job
	wg     sync.WaitGroup
	report Reporter
}

// NewManager returns an empty Manager. report may be nil.
func NewManager(report Reporter) *Manager {
	if report == nil {
		report = func(Event) {}
	}
	return &Manager{jobs: make(map[string]*job), report: report}
}

// StartAsync launches fn under name and returns at once.
func (m *Manager) StartAsync(name string, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.jobs[name]; taken {
		return fmt.Errorf("job %q is already running", name)
	}
	m.launch(name, fn)
	return nil
}

// Restart cancels whatever runs under name and launches fn in its place.
func (m *Manager) Restart(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.jobs[name]; ok {
		old.cancel()
		delete(m.jobs, name)
	}
	m.launch(name, fn)
}

// After calls fn once d has passed, unless name is stopped or restarted
// before that. Calling After again with the same name resets the timer.
func (m *Manager) After(name string, d time.Duration, fn func()) {
	m.Restart(name, func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			fn()
		case <-ctx.Done():
		}
		return nil
	})
}

// launch registers and starts a job. Callers hold m.mu.
func (m *Manager) launch(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{started: time.Now(), cancel: cancel}
	m.jobs[name] = j

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		m.report(Event{Job: name, State: StateRunning})
		if err := fn(ctx); err != nil {
			m.report(Event{Job: name, State: StateFailed, Err: err})
		} else {
			m.report(Event{Job: name, State: StateDone})
		}

		m.mu.Lock()
		if m.jobs[name] == j {
			delete(m.jobs, name)
		}
		m.mu.Unlock()
	}()
}

// Stop cancels the job called name. It does not wait for it to return.
func (m *Manager) Stop(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[name]
	if !ok {
		return fmt.Errorf("job %q is not running", name)
	}
	j.cancel()
	delete(m.jobs, name)
	return nil
}

// Shutdown cancels every job and waits until all of them have returned.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for name, j := range m.jobs {
		j.cancel()
		delete(m.jobs, name)
	}
	m.mu.Unlock()

	m.wg.Wait()
}

// List returns the names of live jobs in order.
func (m *Manager) List() []string {
	m.mu.Lock()
	names := make([]string, 0, len(m.jobs))
	for name := range m.jobs {
		names = append(names, name)
	}
	m.mu.Unlock()

	sort.Strings(names)
	return names
}

func (m *Manager) Running(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[name]
	return ok
}

// Status summarizes live jobs for a status embed, e.g.
// "Running jobs: tourney-editor:1, tourney-editor:2".
func (m *Manager) Status() string {
	names := m.List()
	if len(names) == 0 {
		return "No jobs are running."
	}
	return "Running jobs: " + strings.Join(names, ", ")
}
