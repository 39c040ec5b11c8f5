package storage

import (
	"slices"
	"time"
)

func (s *Storage) DisableGroup(guildID, group string) error {
	return s.update(guildID, func(r *Record) error {
		if !slices.Contains(r.CommandsDisabled, group) {
			r.CommandsDisabled = append(r.CommandsDisabled, group)
		}
		return nil
	})
}

func (s *Storage) EnableGroup(guildID, group string) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsDisabled = slices.DeleteFunc(r.CommandsDisabled, func(g string) bool { return g == group })
		return nil
	})
}

func (s *Storage) IsGroupDisabled(guildID, group string) (bool, error) {
	disabled := false
	err := s.view(guildID, func(r *Record) error {
		disabled = slices.Contains(r.CommandsDisabled, group)
		return nil
	})
	return disabled, err
}

func (s *Storage) DisabledGroups(guildID string) ([]string, error) {
	var out []string
	err := s.view(guildID, func(r *Record) error {
		out = slices.Clone(r.CommandsDisabled)
		return nil
	})
	return out, err
}

// SetCommand appends a history entry, keeping the most recent commandHistoryLimit.
func (s *Storage) SetCommand(guildID, channelID, channelName, guildName, userID, username, command string) error {
	return s.AppendCommand(guildID, CommandHistory{
		ChannelID:   channelID,
		ChannelName: channelName,
		GuildName:   guildName,
		UserID:      userID,
		Username:    username,
		Command:     command,
		Datetime:    time.Now(),
	})
}

func (s *Storage) AppendCommand(guildID string, entry CommandHistory) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, entry)
		if len(r.CommandsHistory) > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[len(r.CommandsHistory)-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) CommandHistory(guildID string) ([]CommandHistory, error) {
	var out []CommandHistory
	err := s.view(guildID, func(r *Record) error {
		out = slices.Clone(r.CommandsHistory)
		return nil
	})
	return out, err
}
