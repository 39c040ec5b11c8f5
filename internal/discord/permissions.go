package discord

import (
	"tourney-bot/internal/config"

	"github.com/bwmarrin/discordgo"
)

// IsAdministrator reports whether a member owns the guild, holds an
// administrator role, or is the configured developer.
func IsAdministrator(s *discordgo.Session, guildID string, member *discordgo.Member, cfg *config.Config) bool {
	if member == nil || member.User == nil {
		return false
	}
	if config.IsDeveloper(cfg, member.User.ID) {
		return true
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	guild, err := s.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, err = s.Guild(guildID)
		if err != nil || guild == nil {
			return false
		}
	}

	if member.User.ID == guild.OwnerID {
		return true
	}
	for _, roleID := range member.Roles {
		if role, _ := s.State.Role(guild.ID, roleID); role != nil {
			if role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true
			}
		}
	}
	return false
}
