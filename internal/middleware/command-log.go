package middleware

import (
	"context"

	"tourney-bot/internal/command"
	"tourney-bot/internal/discord"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// WithCommandLogger records every slash command in the guild history and
// logs failures. Button presses are logged but not stored.
func WithCommandLogger(log *zap.Logger) cmd.Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("command")

	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := c.Run(ctx, inv)

			switch v := inv.Data.(type) {
			case *command.SlashInteractionContext:
				user := discord.InteractionUser(v.Event)
				name := c.Name() + subcommandSuffix(v.Event)
				log.Info("slash command",
					zap.String("command", name),
					zap.String("guild", v.Event.GuildID),
					zap.String("user", user.ID),
					zap.Error(err))
				if v.Storage != nil {
					if e := discord.LogCommand(v.Session, v.Storage, log, v.Event.GuildID, v.Event.ChannelID, user.ID, user.Username, name); e != nil {
						log.Warn("failed to store command history", zap.String("command", name), zap.Error(e))
					}
				}
			case *command.ComponentInteractionContext:
				log.Debug("component",
					zap.String("custom_id", v.Event.MessageComponentData().CustomID),
					zap.String("user", discord.InteractionUser(v.Event).ID),
					zap.Error(err))
			}
			return err
		})
	}
}

// subcommandSuffix renders " create" for /tourney create.
func subcommandSuffix(e *discordgo.InteractionCreate) string {
	opts := e.ApplicationCommandData().Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return " " + opts[0].Name
	}
	return ""
}
