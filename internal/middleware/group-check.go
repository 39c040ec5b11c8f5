package middleware

import (
	"context"

	"tourney-bot/internal/command"
	"tourney-bot/internal/discord"
	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

const groupDisabledMessage = "This command is disabled on this server.\nUse `/maintenance status` to check which groups are disabled."

// WithGroupAccessCheck refuses commands whose group is disabled in the guild.
func WithGroupAccessCheck() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			var (
				s     *discordgo.Session
				e     *discordgo.InteractionCreate
				store *storage.Storage
			)
			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				s, e, store = v.Session, v.Event, v.Storage
			case *command.ComponentInteractionContext:
				s, e, store = v.Session, v.Event, v.Storage
			default:
				return c.Run(ctx, inv)
			}

			if disabledGroup(c, e.GuildID, store) {
				return discord.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{Description: groupDisabledMessage})
			}
			return c.Run(ctx, inv)
		})
	}
}

func disabledGroup(c cmd.Command, guildID string, store *storage.Storage) bool {
	meta, ok := cmd.As[command.DiscordMeta](c)
	if !ok || meta.Group() == "" || meta.Group() == "core" || store == nil {
		return false
	}
	disabled, err := store.IsGroupDisabled(guildID, meta.Group())
	if err != nil {
		return false
	}
	return disabled
}
