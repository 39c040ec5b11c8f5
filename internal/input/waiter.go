package input

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDeadline is returned by Await when no matching event arrived in time.
var ErrDeadline = errors.New("input: wait deadline exceeded")

type subscription struct {
	match Predicate
	ch    chan Event
}

// Waiter holds one-shot subscriptions. Dispatch hands each event to every
// pending subscription whose predicate accepts it; a subscription resolves at
// most once and is removed when it resolves, times out or is cancelled.
type Waiter struct {
	mu   sync.Mutex
	subs []*subscription
}

func NewWaiter() *Waiter {
	return &Waiter{}
}

// Await blocks until a dispatched event satisfies match, the timeout elapses
// or ctx is done. A zero timeout waits on ctx alone.
func (w *Waiter) Await(ctx context.Context, match Predicate, timeout time.Duration) (Event, error) {
	sub := &subscription{match: match, ch: make(chan Event, 1)}

	w.mu.Lock()
	w.subs = append(w.subs, sub)
	w.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case ev := <-sub.ch:
		return ev, nil
	case <-deadline:
	case <-ctx.Done():
	}

	w.remove(sub)

	// Dispatch may have delivered while the timer fired.
	select {
	case ev := <-sub.ch:
		return ev, nil
	default:
	}

	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, ErrDeadline
}

// Dispatch resolves every pending subscription that accepts ev, in
// registration order, and reports how many were resolved.
func (w *Waiter) Dispatch(ev Event) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	resolved := 0
	kept := w.subs[:0]
	for _, sub := range w.subs {
		if sub.match != nil && sub.match(ev) {
			sub.ch <- ev
			resolved++
			continue
		}
		kept = append(kept, sub)
	}
	for i := len(kept); i < len(w.subs); i++ {
		w.subs[i] = nil
	}
	w.subs = kept
	return resolved
}

// Pending reports how many subscriptions are waiting.
func (w *Waiter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

func (w *Waiter) remove(target *subscription) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, sub := range w.subs {
		if sub == target {
			w.subs = append(w.subs[:i], w.subs[i+1:]...)
			return
		}
	}
}
