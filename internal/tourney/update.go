package tourney

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Field names an editable tourney setting.
type Field string

const (
	FieldName                Field = "name"
	FieldRegistrationChannel Field = "registration_channel"
	FieldConfirmChannel      Field = "confirm_channel"
	FieldSuccessRole         Field = "success_role"
	FieldRequiredMentions    Field = "required_mentions"
	FieldTotalSlots          Field = "total_slots"
	FieldPingRole            Field = "ping_role"
	FieldOpenRole            Field = "open_role"
	FieldMultiRegister       Field = "multiregister"
	FieldTeamNameCompulsion  Field = "teamname_compulsion"
	FieldNoDuplicateName     Field = "no_duplicate_name"
	FieldAutodeleteRejected  Field = "autodelete_rejected"
	FieldSuccessMessage      Field = "success_message"
	FieldOpenAt              Field = "open_at"
	FieldBanner              Field = "banner"
	FieldHosts               Field = "hosts"
)

// Update is a single described change to a draft. Build one with the Set*,
// Toggle and ToggleHost constructors and hand it to Editor.Apply.
type Update struct {
	Field Field
	apply func(*Tourney) string
}

// Change is what Editor.Apply reports back.
type Change struct {
	Field       Field
	Description string
}

func SetName(name string) Update {
	name = Truncate(strings.TrimSpace(name), NameLimit)
	return Update{Field: FieldName, apply: func(t *Tourney) string {
		t.Name = name
		return fmt.Sprintf("Name set to **%s**.", name)
	}}
}

func SetRegistrationChannel(channelID string) Update {
	return Update{Field: FieldRegistrationChannel, apply: func(t *Tourney) string {
		t.RegistrationChannelID = channelID
		return fmt.Sprintf("Registrations will be taken in <#%s>.", channelID)
	}}
}

func SetConfirmChannel(channelID string) Update {
	return Update{Field: FieldConfirmChannel, apply: func(t *Tourney) string {
		t.ConfirmChannelID = channelID
		return fmt.Sprintf("Confirmations will be posted in <#%s>.", channelID)
	}}
}

func SetSuccessRole(roleID string) Update {
	return Update{Field: FieldSuccessRole, apply: func(t *Tourney) string {
		t.RoleID = roleID
		return fmt.Sprintf("<@&%s> will be given on registration.", roleID)
	}}
}

// SetRequiredMentions clamps n to [0, MaxMentions].
func SetRequiredMentions(n int) Update {
	n = clamp(n, 0, MaxMentions)
	return Update{Field: FieldRequiredMentions, apply: func(t *Tourney) string {
		t.RequiredMentions = n
		return fmt.Sprintf("Required mentions set to **%d**.", n)
	}}
}

// SetTotalSlots clamps n to [MinSlots, MaxSlots].
func SetTotalSlots(n int) Update {
	n = clamp(n, MinSlots, MaxSlots)
	return Update{Field: FieldTotalSlots, apply: func(t *Tourney) string {
		t.TotalSlots = n
		return fmt.Sprintf("Total slots set to **%d**.", n)
	}}
}

func SetPingRole(roleID string) Update {
	return Update{Field: FieldPingRole, apply: func(t *Tourney) string {
		t.PingRoleID = roleID
		return fmt.Sprintf("<@&%s> will be pinged when registrations open.", roleID)
	}}
}

func SetOpenRole(roleID string) Update {
	return Update{Field: FieldOpenRole, apply: func(t *Tourney) string {
		t.OpenRoleID = roleID
		return fmt.Sprintf("Registrations will open for <@&%s>.", roleID)
	}}
}

// Toggle flips one of the boolean settings.
func Toggle(f Field) (Update, error) {
	var flip func(*Tourney) string
	switch f {
	case FieldMultiRegister:
		flip = func(t *Tourney) string {
			t.MultiRegister = !t.MultiRegister
			return fmt.Sprintf("Now users **%s** register more than once.", pick(t.MultiRegister, "can", "can not"))
		}
	case FieldTeamNameCompulsion:
		flip = func(t *Tourney) string {
			t.TeamNameCompulsion = !t.TeamNameCompulsion
			return fmt.Sprintf("Now Team Name **%s** required to register.", pick(t.TeamNameCompulsion, "is", "is not"))
		}
	case FieldNoDuplicateName:
		flip = func(t *Tourney) string {
			t.NoDuplicateName = !t.NoDuplicateName
			return fmt.Sprintf("Duplicate team names are now **%s**.", pick(t.NoDuplicateName, "not allowed", "allowed"))
		}
	case FieldAutodeleteRejected:
		flip = func(t *Tourney) string {
			t.AutodeleteRejected = !t.AutodeleteRejected
			return fmt.Sprintf("Rejected registrations will **%s** deleted automatically.", pick(t.AutodeleteRejected, "be", "not be"))
		}
	default:
		return Update{}, fmt.Errorf("%w: %s", ErrNotToggleable, f)
	}
	return Update{Field: f, apply: flip}, nil
}

// SetSuccessMessage truncates msg to SuccessMessageLimit. "none" in any case
// removes the message.
func SetSuccessMessage(msg string) Update {
	msg = Truncate(msg, SuccessMessageLimit)
	if strings.EqualFold(strings.TrimSpace(msg), "none") {
		msg = ""
	}
	return Update{Field: FieldSuccessMessage, apply: func(t *Tourney) string {
		t.SuccessMessage = msg
		if msg == "" {
			return "Removed Success Message."
		}
		return "Success Message Updated."
	}}
}

// SetOpenAt schedules registrations; the zero time clears the schedule.
func SetOpenAt(at time.Time) Update {
	return Update{Field: FieldOpenAt, apply: func(t *Tourney) string {
		if at.IsZero() {
			t.OpenAt = nil
			return "Open time removed."
		}
		v := at
		t.OpenAt = &v
		return fmt.Sprintf("Registrations will open <t:%d:F>.", at.Unix())
	}}
}

// SetBanner sets the banner image; an empty URL removes it.
func SetBanner(url string) Update {
	return Update{Field: FieldBanner, apply: func(t *Tourney) string {
		t.BannerURL = url
		if url == "" {
			return "Banner removed."
		}
		return "Banner updated."
	}}
}

// ToggleHost adds userID to the hosts, or removes it when already present.
func ToggleHost(userID string) Update {
	return Update{Field: FieldHosts, apply: func(t *Tourney) string {
		if t.IsHost(userID) {
			t.HostIDs = lo.Without(t.HostIDs, userID)
			return fmt.Sprintf("<@%s> is no longer a host.", userID)
		}
		t.HostIDs = append(t.HostIDs, userID)
		return fmt.Sprintf("<@%s> is now a host.", userID)
	}}
}

func clamp(n, low, hi int) int {
	if n < low {
		return low
	}
	if n > hi {
		return hi
	}
	return n
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
