// /internal/storage/storage.go
package storage

import (
	"fmt"
	"sync"
	"time"

	"tourney-bot/datastore"
	"tourney-bot/internal/tourney"

	"go.uber.org/zap"
)

const commandHistoryLimit int = 20

// Storage keeps one Record per guild in the datastore, keyed by guild ID.
type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

type CommandHistory struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Datetime    time.Time `json:"datetime"`
}

type Record struct {
	Tourneys         map[string]tourney.Tourney `json:"tourneys"` // key = tourney ID
	CommandsDisabled []string                   `json:"commands_disabled"`
	CommandsHistory  []CommandHistory           `json:"commands_history"`
}

// Options configure New.
type Options struct {
	AutosaveInterval time.Duration
	Logger           *zap.Logger
}

func New(filePath string, opts Options) (*Storage, error) {
	cfg := datastore.DefaultConfig(filePath)
	if opts.AutosaveInterval > 0 {
		cfg.AutoSaveInterval = opts.AutosaveInterval
	}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	}

	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Flush writes pending changes to disk immediately.
func (s *Storage) Flush() error {
	return s.ds.Flush()
}

// Guilds lists every guild with a stored record.
func (s *Storage) Guilds() []string {
	return s.ds.Keys()
}

// getOrCreateGuildRecord loads a guild record. Callers hold s.mu.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, fmt.Errorf("error loading record for guild %s: %w", guildID, err)
	}

	if record.Tourneys == nil {
		record.Tourneys = map[string]tourney.Tourney{}
	}
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}
	return &record, nil
}

// update runs fn on the guild record and stores the result.
func (s *Storage) update(guildID string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	if err := fn(record); err != nil {
		return err
	}
	return s.ds.Put(guildID, record)
}

// view runs fn on a loaded copy of the guild record.
func (s *Storage) view(guildID string, fn func(*Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}
	return fn(record)
}

// GuildRecord returns a copy of the stored record of a guild.
func (s *Storage) GuildRecord(guildID string) (Record, error) {
	var out Record
	err := s.view(guildID, func(r *Record) error {
		out = *r
		return nil
	})
	return out, err
}
