package command

import (
	"context"

	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

// Discord-specific contexts (what the runtime passes when executing).

type SlashInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

type ComponentInteractionContext struct {
	Session *discordgo.Session
	Event   *discordgo.InteractionCreate
	Storage *storage.Storage
}

// GuildID returns the guild of the interaction, empty in DMs.
func (c *SlashInteractionContext) GuildID() string { return c.Event.GuildID }

func (c *ComponentInteractionContext) GuildID() string { return c.Event.GuildID }

// SlashProvider is how a command is registered with Discord.
type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

// ComponentInteractionHandler receives button presses whose custom id starts
// with the command name followed by a colon.
type ComponentInteractionHandler interface {
	Component(ctx context.Context, c *ComponentInteractionContext) error
}

// DiscordMeta is exposed by the Discord adapter so middleware can read Group/Category/Permissions
// without depending on the concrete Discord command type.
type DiscordMeta interface {
	Group() string
	Category() string
	UserPermissions() []int64
}

// DiscordCommand is what individual Discord commands implement. data is one
// of the *Context types above.
type DiscordCommand interface {
	Name() string
	Description() string
	Group() string
	Category() string
	UserPermissions() []int64
	Run(ctx context.Context, data interface{}) error
}

// DiscordAdapter adapts a DiscordCommand to cmd.Command so it can live in the universal registry.
// Component contexts are routed to the command's Component method when it has one.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Group() string            { return a.Cmd.Group() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	if cc, ok := inv.Data.(*ComponentInteractionContext); ok {
		if ch, ok := a.Cmd.(ComponentInteractionHandler); ok {
			return ch.Component(ctx, cc)
		}
		return nil
	}
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

// HandlesComponents reports whether the wrapped command accepts button presses.
func (a *DiscordAdapter) HandlesComponents() bool {
	_, ok := a.Cmd.(ComponentInteractionHandler)
	return ok
}

// RegisterCommand registers a Discord command with reg and applies middlewares.
func RegisterCommand(reg *cmd.Registry, discordCmd DiscordCommand, mws ...cmd.Middleware) cmd.Command {
	c := cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...)
	reg.Register(c)
	return c
}
