package tourney

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Store persists tourneys.
type Store interface {
	SaveTourney(t Tourney) error
	// SaveTourneyIfChannelFree saves t, or returns ErrChannelInUse when another
	// tourney of the guild registers in the same channel. Check and write are
	// one step.
	SaveTourneyIfChannelFree(t Tourney) error
	DeleteTourney(guildID, id string) error
	Tourney(guildID, id string) (Tourney, error)
	Tourneys(guildID string) ([]Tourney, error)
	RegistrationChannelInUse(guildID, channelID, exceptID string) (bool, error)
}

// Editor owns one draft. Every mutation goes through Apply; readers get
// copies from Snapshot.
type Editor struct {
	mu        sync.Mutex
	draft     Tourney
	dirty     bool
	busy      bool
	persisted bool
	now       func() time.Time
}

// NewEditor wraps t. persisted marks a tourney that already exists in the store.
func NewEditor(t Tourney, persisted bool) *Editor {
	return &Editor{draft: t.Clone(), persisted: persisted, now: time.Now}
}

// Apply runs u against the draft and marks it dirty.
func (e *Editor) Apply(u Update) Change {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u.apply == nil {
		return Change{Field: u.Field}
	}
	desc := u.apply(&e.draft)
	e.dirty = true
	return Change{Field: u.Field, Description: desc}
}

func (e *Editor) Snapshot() Tourney {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Persisted reports whether the draft has a stored counterpart.
func (e *Editor) Persisted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.persisted
}

// Begin claims the editor for one prompt. It returns false while another
// prompt is in flight.
func (e *Editor) Begin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return false
	}
	e.busy = true
	return true
}

func (e *Editor) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
}

// Save validates the draft and writes it to s.
func (e *Editor) Save(s Store) (Tourney, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.draft.Validate(); err != nil {
		return Tourney{}, err
	}

	prev := e.draft.UpdatedAt
	e.draft.UpdatedAt = e.now()
	if err := s.SaveTourneyIfChannelFree(e.draft.Clone()); err != nil {
		e.draft.UpdatedAt = prev
		if errors.Is(err, ErrChannelInUse) {
			return Tourney{}, ErrChannelInUse
		}
		return Tourney{}, fmt.Errorf("save tourney: %w", err)
	}

	e.dirty = false
	e.persisted = true
	return e.draft.Clone(), nil
}

// Delete removes the stored tourney. An unsaved draft is simply dropped.
func (e *Editor) Delete(s Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.persisted {
		return nil
	}
	if err := s.DeleteTourney(e.draft.GuildID, e.draft.ID); err != nil {
		return fmt.Errorf("delete tourney: %w", err)
	}
	e.persisted = false
	return nil
}
