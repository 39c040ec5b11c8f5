package storage

import (
	"sort"

	"tourney-bot/internal/tourney"
)

// SaveTourney inserts or replaces a tourney in its guild record.
func (s *Storage) SaveTourney(t tourney.Tourney) error {
	return s.update(t.GuildID, func(r *Record) error {
		r.Tourneys[t.ID] = t.Clone()
		return nil
	})
}

// SaveTourneyIfChannelFree saves t unless another tourney of its guild
// already registers in t's registration channel, in which case it returns
// tourney.ErrChannelInUse and stores nothing.
func (s *Storage) SaveTourneyIfChannelFree(t tourney.Tourney) error {
	return s.update(t.GuildID, func(r *Record) error {
		if channelTaken(r, t.RegistrationChannelID, t.ID) {
			return tourney.ErrChannelInUse
		}
		r.Tourneys[t.ID] = t.Clone()
		return nil
	})
}

// DeleteTourney removes a tourney. Deleting a missing tourney returns tourney.ErrNotFound.
func (s *Storage) DeleteTourney(guildID, id string) error {
	return s.update(guildID, func(r *Record) error {
		if _, ok := r.Tourneys[id]; !ok {
			return tourney.ErrNotFound
		}
		delete(r.Tourneys, id)
		return nil
	})
}

func (s *Storage) Tourney(guildID, id string) (tourney.Tourney, error) {
	var out tourney.Tourney
	err := s.view(guildID, func(r *Record) error {
		t, ok := r.Tourneys[id]
		if !ok {
			return tourney.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

// Tourneys returns a guild's tourneys, oldest first.
func (s *Storage) Tourneys(guildID string) ([]tourney.Tourney, error) {
	var out []tourney.Tourney
	err := s.view(guildID, func(r *Record) error {
		for _, t := range r.Tourneys {
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, err
}

// RegistrationChannelInUse reports whether another tourney of the guild
// already takes registrations in channelID.
func (s *Storage) RegistrationChannelInUse(guildID, channelID, exceptID string) (bool, error) {
	inUse := false
	err := s.view(guildID, func(r *Record) error {
		inUse = channelTaken(r, channelID, exceptID)
		return nil
	})
	return inUse, err
}

func channelTaken(r *Record, channelID, exceptID string) bool {
	if channelID == "" {
		return false
	}
	for id, t := range r.Tourneys {
		if id != exceptID && t.RegistrationChannelID == channelID {
			return true
		}
	}
	return false
}
