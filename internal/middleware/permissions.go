package middleware

import (
	"context"
	"fmt"
	"strings"

	"tourney-bot/internal/command"
	"tourney-bot/internal/config"
	"tourney-bot/internal/discord"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// PermissionNames labels permission bits in refusal messages.
var PermissionNames = map[int64]string{
	discordgo.PermissionCreateInstantInvite:              "Create Instant Invite",
	discordgo.PermissionKickMembers:                      "Kick Members",
	discordgo.PermissionBanMembers:                       "Ban Members",
	discordgo.PermissionAdministrator:                    "Administrator",
	discordgo.PermissionManageChannels:                   "Manage Channels",
	discordgo.PermissionManageGuild:                      "Manage Server",
	discordgo.PermissionAddReactions:                     "Add Reactions",
	discordgo.PermissionViewAuditLogs:                    "View Audit Logs",
	discordgo.PermissionViewChannel:                      "View Channel",
	discordgo.PermissionSendMessages:                     "Send Messages",
	discordgo.PermissionSendTTSMessages:                  "Send TTS Messages",
	discordgo.PermissionManageMessages:                   "Manage Messages",
	discordgo.PermissionEmbedLinks:                       "Embed Links",
	discordgo.PermissionAttachFiles:                      "Attach Files",
	discordgo.PermissionReadMessageHistory:               "Read Message History",
	discordgo.PermissionMentionEveryone:                  "Mention Everyone",
	discordgo.PermissionUseExternalEmojis:                "Use External Emojis",
	discordgo.PermissionUseApplicationCommands:           "Use Application Commands",
	discordgo.PermissionManageThreads:                    "Manage Threads",
	discordgo.PermissionCreatePublicThreads:              "Create Public Threads",
	discordgo.PermissionCreatePrivateThreads:             "Create Private Threads",
	discordgo.PermissionUseExternalStickers:              "Use External Stickers",
	discordgo.PermissionSendMessagesInThreads:            "Send Messages in Threads",
	discordgo.PermissionSendVoiceMessages:                "Send Voice Messages",
	discordgo.PermissionSendPolls:                        "Send Polls",
	discordgo.PermissionUseExternalApps:                  "Use External Apps",
	discordgo.PermissionVoicePrioritySpeaker:             "Priority Speaker",
	discordgo.PermissionVoiceStreamVideo:                 "Stream Video",
	discordgo.PermissionVoiceConnect:                     "Connect to Voice Channel",
	discordgo.PermissionVoiceSpeak:                       "Speak",
	discordgo.PermissionVoiceMuteMembers:                 "Mute Members",
	discordgo.PermissionVoiceDeafenMembers:               "Deafen Members",
	discordgo.PermissionVoiceMoveMembers:                 "Move Members",
	discordgo.PermissionVoiceUseVAD:                      "Use Voice Activity Detection",
	discordgo.PermissionVoiceRequestToSpeak:              "Request to Speak",
	discordgo.PermissionUseEmbeddedActivities:            "Use Embedded Activities",
	discordgo.PermissionUseSoundboard:                    "Use Soundboard",
	discordgo.PermissionUseExternalSounds:                "Use External Sounds",
	discordgo.PermissionChangeNickname:                   "Change Nickname",
	discordgo.PermissionManageNicknames:                  "Manage Nicknames",
	discordgo.PermissionManageRoles:                      "Manage Roles",
	discordgo.PermissionManageWebhooks:                   "Manage Webhooks",
	discordgo.PermissionManageGuildExpressions:           "Manage Expressions (Emojis, Stickers, Sounds)",
	discordgo.PermissionManageEvents:                     "Manage Events",
	discordgo.PermissionViewCreatorMonetizationAnalytics: "View Creator Monetization Analytics",
	discordgo.PermissionCreateGuildExpressions:           "Create Expressions (Emojis, Stickers, Sounds)",
	discordgo.PermissionCreateEvents:                     "Create Events",
	discordgo.PermissionViewGuildInsights:                "View Guild Insights",
	discordgo.PermissionModerateMembers:                  "Moderate Members",
}

// WithUserPermissionCheck requires one of the command's UserPermissions.
// Administrators and the configured developer always pass.
func WithUserPermissionCheck(cfg *config.Config) cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			var (
				s *discordgo.Session
				e *discordgo.InteractionCreate
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, e = v.Session, v.Event
			case *command.ComponentInteractionContext:
				s, e = v.Session, v.Event
			default:
				return c.Run(ctx, inv)
			}

			m := e.Member
			if e.GuildID == "" || m == nil || m.User == nil {
				return c.Run(ctx, inv)
			}
			if config.IsDeveloper(cfg, m.User.ID) {
				return c.Run(ctx, inv)
			}

			meta, ok := cmd.As[command.DiscordMeta](c)
			if !ok || len(meta.UserPermissions()) == 0 {
				return c.Run(ctx, inv)
			}

			have := m.Permissions
			if have == 0 {
				var err error
				if have, err = s.UserChannelPermissions(m.User.ID, e.ChannelID); err != nil {
					return fmt.Errorf("failed to get user permissions: %w", err)
				}
			}

			if msg := refusal(have, meta.UserPermissions()); msg != "" {
				// Guild owners and admin roles can show up without the bit set.
				if s != nil && discord.IsAdministrator(s, e.GuildID, m, cfg) {
					return c.Run(ctx, inv)
				}
				return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: msg})
			}
			return c.Run(ctx, inv)
		})
	}
}

// refusal returns the message shown when have holds none of required, or
// "" when the member may proceed.
func refusal(have int64, required []int64) string {
	if have&discordgo.PermissionAdministrator != 0 {
		return ""
	}
	for _, p := range required {
		if have&p != 0 {
			return ""
		}
	}

	allowed := make([]string, 0, len(required))
	for _, p := range required {
		name := PermissionNames[p]
		if name == "" {
			name = fmt.Sprintf("0x%x", p)
		}
		allowed = append(allowed, name)
	}
	return fmt.Sprintf(
		"You need at least one of the following permissions to run this command:\n`%s`",
		strings.Join(allowed, "`, `"),
	)
}
