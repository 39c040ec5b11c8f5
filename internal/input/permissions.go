package input

import (
	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// Capability is a named permission bit.
type Capability struct {
	Bit  int64
	Name string
}

// ChannelBase is what the bot needs in any channel it posts to.
var ChannelBase = []Capability{
	{discordgo.PermissionViewChannel, "view channel"},
	{discordgo.PermissionSendMessages, "send messages"},
	{discordgo.PermissionEmbedLinks, "embed links"},
}

// ChannelStrict is required on top of ChannelBase for channels the bot manages.
var ChannelStrict = []Capability{
	{discordgo.PermissionAddReactions, "add reactions"},
	{discordgo.PermissionUseExternalEmojis, "use external emojis"},
	{discordgo.PermissionManageChannels, "manage channel"},
	{discordgo.PermissionManageRoles, "manage permissions"},
	{discordgo.PermissionManageMessages, "manage messages"},
}

// DangerousRole lists permissions a self-assignable role must not carry.
var DangerousRole = []Capability{
	{discordgo.PermissionAdministrator, "administrator"},
	{discordgo.PermissionManageChannels, "manage channels"},
	{discordgo.PermissionManageRoles, "manage roles"},
	{discordgo.PermissionKickMembers, "kick members"},
	{discordgo.PermissionBanMembers, "ban members"},
}

// Missing returns the capabilities whose bit is not set in have.
func Missing(have int64, caps []Capability) []Capability {
	return lo.Filter(caps, func(c Capability, _ int) bool {
		return have&c.Bit != c.Bit
	})
}

// Names returns the display names of caps.
func Names(caps []Capability) []string {
	return lo.Map(caps, func(c Capability, _ int) string { return c.Name })
}

// Mask ORs the bits of caps together.
func Mask(caps []Capability) int64 {
	return lo.Reduce(caps, func(acc int64, c Capability, _ int) int64 { return acc | c.Bit }, 0)
}
