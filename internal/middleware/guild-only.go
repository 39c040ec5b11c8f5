package middleware

import (
	"context"

	"tourney-bot/internal/command"
	"tourney-bot/pkg/cmd"
)

// WithGuildOnly drops interactions that arrive outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			if guildID(inv) == "" {
				return nil
			}
			return c.Run(ctx, inv)
		})
	}
}

// guildID returns the guild of a Discord invocation, empty for anything else.
func guildID(inv *cmd.Invocation) string {
	switch v := inv.Data.(type) {
	case *command.SlashInteractionContext:
		return v.Event.GuildID
	case *command.ComponentInteractionContext:
		return v.Event.GuildID
	}
	return ""
}
