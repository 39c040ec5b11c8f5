// Package tourney holds the esports tournament record and the editor that
// mutates a draft of it.
package tourney

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	NameLimit           = 30
	SuccessMessageLimit = 500
	MaxMentions         = 10
	MinSlots            = 1
	MaxSlots            = 15000

	defaultMentions = 4
	defaultSlots    = 100
)

var (
	ErrNotFound      = errors.New("tourney not found")
	ErrChannelInUse  = errors.New("registration channel is used by another tourney")
	ErrIncomplete    = errors.New("tourney is missing required settings")
	ErrNotToggleable = errors.New("field cannot be toggled")
)

type Tourney struct {
	ID      string `json:"id" yaml:"id"`
	GuildID string `json:"guild_id" yaml:"guild_id"`
	Name    string `json:"name" yaml:"name"`

	RegistrationChannelID string `json:"registration_channel_id,omitempty" yaml:"registration_channel_id,omitempty"`
	ConfirmChannelID      string `json:"confirm_channel_id,omitempty" yaml:"confirm_channel_id,omitempty"`
	RoleID                string `json:"role_id,omitempty" yaml:"role_id,omitempty"`
	PingRoleID            string `json:"ping_role_id,omitempty" yaml:"ping_role_id,omitempty"`
	OpenRoleID            string `json:"open_role_id,omitempty" yaml:"open_role_id,omitempty"`

	RequiredMentions int `json:"required_mentions" yaml:"required_mentions"`
	TotalSlots       int `json:"total_slots" yaml:"total_slots"`

	MultiRegister      bool `json:"multiregister" yaml:"multiregister"`
	TeamNameCompulsion bool `json:"teamname_compulsion" yaml:"teamname_compulsion"`
	NoDuplicateName    bool `json:"no_duplicate_name" yaml:"no_duplicate_name"`
	AutodeleteRejected bool `json:"autodelete_rejected" yaml:"autodelete_rejected"`

	SuccessMessage string     `json:"success_message,omitempty" yaml:"success_message,omitempty"`
	OpenAt         *time.Time `json:"open_at,omitempty" yaml:"open_at,omitempty"`
	BannerURL      string     `json:"banner_url,omitempty" yaml:"banner_url,omitempty"`
	HostIDs        []string   `json:"host_ids,omitempty" yaml:"host_ids,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// New returns a fresh draft with a random ID and the default settings.
func New(guildID, name string, now time.Time) Tourney {
	return Tourney{
		ID:               uuid.NewString(),
		GuildID:          guildID,
		Name:             Truncate(strings.TrimSpace(name), NameLimit),
		RequiredMentions: defaultMentions,
		TotalSlots:       defaultSlots,
		NoDuplicateName:  true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate reports the settings a tourney needs before it can be saved.
func (t Tourney) Validate() error {
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.RegistrationChannelID == "" {
		missing = append(missing, "registration channel")
	}
	if t.ConfirmChannelID == "" {
		missing = append(missing, "confirm channel")
	}
	if t.RoleID == "" {
		missing = append(missing, "success role")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// IsHost reports whether userID is one of the tourney hosts.
func (t Tourney) IsHost(userID string) bool {
	return lo.Contains(t.HostIDs, userID)
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Tourney) Clone() Tourney {
	c := t
	if t.HostIDs != nil {
		c.HostIDs = append([]string(nil), t.HostIDs...)
	}
	if t.OpenAt != nil {
		at := *t.OpenAt
		c.OpenAt = &at
	}
	return c
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
