// Package esports implements /tourney: creating, listing and editing
// tourneys through a button driven editor.
package esports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tourney-bot/internal/command"
	"tourney-bot/internal/discord"
	"tourney-bot/internal/input"
	"tourney-bot/internal/tourney"
	"tourney-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const DefaultIdle = 10 * time.Minute

// Messenger is what the editor needs from the chat transport.
type Messenger interface {
	Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
	Edit(edit *discordgo.MessageEdit) error
	DeleteMessage(channelID, messageID string) error
	// SendTemp posts an embed that removes itself after d.
	SendTemp(channelID string, embed *discordgo.MessageEmbed, d time.Duration)
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

type Deps struct {
	Store    tourney.Store
	Input    *input.Pipeline
	Messages Messenger
	Jobs     *jobmgr.Manager
	// Idle closes an editor nobody touched for this long.
	Idle time.Duration
	Log  *zap.Logger
	Now  func() time.Time
}

type TourneyCommand struct {
	store tourney.Store
	input *input.Pipeline
	msgs  Messenger
	jobs  *jobmgr.Manager
	idle  time.Duration
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func New(d Deps) *TourneyCommand {
	c := &TourneyCommand{
		store:    d.Store,
		input:    d.Input,
		msgs:     d.Messages,
		jobs:     d.Jobs,
		idle:     d.Idle,
		log:      d.Log,
		now:      d.Now,
		sessions: make(map[string]*session),
	}
	if c.idle <= 0 {
		c.idle = DefaultIdle
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.jobs == nil {
		c.jobs = jobmgr.NewManager(nil)
	}
	c.log = c.log.Named("tourney")
	return c
}

func (c *TourneyCommand) Name() string        { return "tourney" }
func (c *TourneyCommand) Description() string { return "Create and edit esports tourneys" }
func (c *TourneyCommand) Group() string       { return "esports" }
func (c *TourneyCommand) Category() string    { return "🏆 Esports" }
func (c *TourneyCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionManageGuild}
}

func (c *TourneyCommand) SlashDefinition() *discordgo.ApplicationCommand {
	perms := int64(discordgo.PermissionManageGuild)
	return &discordgo.ApplicationCommand{
		Name:                     c.Name(),
		Description:              c.Description(),
		DefaultMemberPermissions: &perms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Set up a new tourney",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Tourney name",
					Required:    true,
					MaxLength:   tourney.NameLimit,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "edit",
				Description: "Open the editor of an existing tourney",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "id",
					Description: "Tourney ID from /tourney list",
					Required:    true,
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List the tourneys of this server",
			},
		},
	}
}

func (c *TourneyCommand) Run(ctx context.Context, data interface{}) error {
	slash, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	e := slash.Event

	opts := e.ApplicationCommandData().Options
	if len(opts) == 0 {
		return c.reply(e.Interaction, "No subcommand provided.")
	}
	sub := opts[0]
	args := make(map[string]string, len(sub.Options))
	for _, o := range sub.Options {
		args[o.Name] = o.StringValue()
	}

	switch sub.Name {
	case "create":
		return c.create(e.Interaction, args["name"])
	case "edit":
		return c.edit(e.Interaction, strings.TrimSpace(args["id"]))
	case "list":
		return c.list(e.Interaction)
	default:
		return c.reply(e.Interaction, fmt.Sprintf("Unknown subcommand: %s", sub.Name))
	}
}

func (c *TourneyCommand) create(i *discordgo.Interaction, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return c.reply(i, "The tourney needs a name.")
	}
	t := tourney.New(i.GuildID, name, c.now())
	return c.open(i, tourney.NewEditor(t, false))
}

func (c *TourneyCommand) edit(i *discordgo.Interaction, id string) error {
	t, err := c.store.Tourney(i.GuildID, id)
	if errors.Is(err, tourney.ErrNotFound) {
		return c.reply(i, fmt.Sprintf("No tourney with ID `%s`. Use `/tourney list` to see them.", id))
	}
	if err != nil {
		return fmt.Errorf("load tourney: %w", err)
	}
	return c.open(i, tourney.NewEditor(t, true))
}

func (c *TourneyCommand) list(i *discordgo.Interaction) error {
	all, err := c.store.Tourneys(i.GuildID)
	if err != nil {
		return fmt.Errorf("list tourneys: %w", err)
	}
	if len(all) == 0 {
		return c.reply(i, "No tourneys yet. Use `/tourney create` to set one up.")
	}

	var b strings.Builder
	for _, t := range all {
		fmt.Fprintf(&b, "`%s` **%s**", t.ID, t.Name)
		if t.RegistrationChannelID != "" {
			fmt.Fprintf(&b, " in <#%s>", t.RegistrationChannelID)
		}
		fmt.Fprintf(&b, " · %d slots\n", t.TotalSlots)
	}
	return c.msgs.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "🏆 Tourneys",
				Description: b.String(),
				Color:       discord.EmbedColor,
			}},
		},
	})
}

// reply answers an interaction with an ephemeral embed.
func (c *TourneyCommand) reply(i *discordgo.Interaction, text string) error {
	return c.msgs.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{Description: text, Color: discord.EmbedColor}},
		},
	})
}

func userID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}
