package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"tourney-bot/internal/command"
	"tourney-bot/internal/discord"
	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"
	"tourney-bot/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

const protectedGroup = "core"

type MaintenanceCommand struct {
	deps Deps
}

func NewMaintenance(d Deps) *MaintenanceCommand {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Publish == nil {
		d.Publish = discord.PublishSystemEvent
	}
	return &MaintenanceCommand{deps: d}
}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Bot maintenance commands" }
func (c *MaintenanceCommand) Group() string       { return protectedGroup }
func (c *MaintenanceCommand) Category() string    { return "⚙️ Settings" }
func (c *MaintenanceCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *MaintenanceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	perms := int64(discordgo.PermissionAdministrator)
	return &discordgo.ApplicationCommand{
		Name:                     c.Name(),
		Description:              c.Description(),
		DefaultMemberPermissions: &perms,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ping",
				Description: "Check bot latency",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show disabled groups, background jobs and stored tourneys",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "download-db",
				Description: "Download the current server database as a JSON file",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "log",
				Description: "Show the most recent commands used in this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "toggle-group",
				Description: "Enable or disable a group of commands",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "group",
					Description: "Command group",
					Required:    true,
				}},
			},
		},
	}
}

func (c *MaintenanceCommand) Run(_ context.Context, data interface{}) error {
	slash, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	e := slash.Event
	r := c.deps.Responder

	options := e.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondEphemeral(r, e.Interaction, &discordgo.MessageEmbed{Description: "No subcommand provided."})
	}
	if slash.Storage == nil && options[0].Name != "ping" {
		return respondEphemeral(r, e.Interaction, &discordgo.MessageEmbed{Description: "Storage is not available."})
	}

	sub := options[0]
	switch sub.Name {
	case "ping":
		var latency time.Duration
		if slash.Session != nil {
			latency = slash.Session.HeartbeatLatency()
		}
		return respondEphemeral(r, e.Interaction, &discordgo.MessageEmbed{
			Title:       "Pong! 🏓",
			Description: fmt.Sprintf("Latency: %dms", latency.Milliseconds()),
		})
	case "status":
		return c.status(e.Interaction, slash.Storage)
	case "download-db":
		return c.downloadDB(e.Interaction, slash.Storage)
	case "log":
		return c.history(e.Interaction, slash.Storage)
	case "toggle-group":
		var group string
		if len(sub.Options) > 0 {
			group = strings.ToLower(strings.TrimSpace(sub.Options[0].StringValue()))
		}
		return c.toggleGroup(e.Interaction, slash.Storage, group)
	default:
		return respondEphemeral(r, e.Interaction, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown subcommand: %s", sub.Name),
		})
	}
}

func (c *MaintenanceCommand) status(i *discordgo.Interaction, store *storage.Storage) error {
	disabled, err := store.DisabledGroups(i.GuildID)
	if err != nil {
		return fmt.Errorf("load disabled groups: %w", err)
	}
	tourneys, err := store.Tourneys(i.GuildID)
	if err != nil {
		return fmt.Errorf("load tourneys: %w", err)
	}

	jobs := "No jobs are running."
	if c.deps.Jobs != nil {
		jobs = c.deps.Jobs.Status()
	}
	groups := "None"
	if len(disabled) > 0 {
		groups = strings.Join(lo.Map(disabled, func(g string, _ int) string { return "`" + g + "`" }), ", ")
	}

	return respondEphemeral(c.deps.Responder, i, &discordgo.MessageEmbed{
		Title: "📊 Status",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Disabled groups", Value: groups},
			{Name: "Available groups", Value: strings.Join(c.groups(), ", ")},
			{Name: "Tourneys", Value: fmt.Sprintf("%d", len(tourneys)), Inline: true},
			{Name: "Jobs", Value: jobs},
		},
	})
}

func (c *MaintenanceCommand) downloadDB(i *discordgo.Interaction, store *storage.Storage) error {
	record, err := store.GuildRecord(i.GuildID)
	if err != nil {
		return respondEphemeral(c.deps.Responder, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Failed to fetch record: ```%v```", err),
		})
	}

	jsonBytes, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return respondEphemeral(c.deps.Responder, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("JSON encode failed: ```%v```", err),
		})
	}

	return c.deps.Responder.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{{
				Title:       "🧠 Database Dump",
				Description: "Here's the current snapshot of this server's data.",
				Color:       discord.EmbedColor,
			}},
			Files: []*discordgo.File{{
				Name:        fmt.Sprintf("%s_database_dump.json", i.GuildID),
				ContentType: "application/json",
				Reader:      bytes.NewReader(jsonBytes),
			}},
		},
	})
}

func (c *MaintenanceCommand) history(i *discordgo.Interaction, store *storage.Storage) error {
	entries, err := store.CommandHistory(i.GuildID)
	if err != nil {
		return fmt.Errorf("load command history: %w", err)
	}
	if len(entries) == 0 {
		return respondEphemeral(c.deps.Responder, i, &discordgo.MessageEmbed{Description: "No commands logged yet."})
	}

	var b strings.Builder
	for idx := len(entries) - 1; idx >= 0; idx-- {
		h := entries[idx]
		fmt.Fprintf(&b, "`%s` **%s** used `/%s` in <#%s>\n",
			util.FormatDateTpl(h.Datetime.In(c.deps.Location), "YYYY-MM-DD hh:mm"), h.Username, h.Command, h.ChannelID)
	}
	return respondEphemeral(c.deps.Responder, i, &discordgo.MessageEmbed{
		Title:       "📜 Command Log",
		Description: b.String(),
	})
}

func (c *MaintenanceCommand) toggleGroup(i *discordgo.Interaction, store *storage.Storage, group string) error {
	r := c.deps.Responder
	if group == protectedGroup {
		return respondEphemeral(r, i, &discordgo.MessageEmbed{Description: "The `core` group cannot be disabled."})
	}
	if !lo.Contains(c.groups(), group) {
		return respondEphemeral(r, i, &discordgo.MessageEmbed{
			Description: fmt.Sprintf("Unknown group `%s`. Available: %s", group, strings.Join(c.groups(), ", ")),
		})
	}

	disabled, err := store.IsGroupDisabled(i.GuildID, group)
	if err != nil {
		return fmt.Errorf("check group: %w", err)
	}
	verb := "disabled"
	if disabled {
		err = store.EnableGroup(i.GuildID, group)
		verb = "enabled"
	} else {
		err = store.DisableGroup(i.GuildID, group)
	}
	if err != nil {
		return fmt.Errorf("toggle group %s: %w", group, err)
	}

	c.deps.Publish(discord.SystemEvent{
		Type:    discord.SystemEventRefreshCommands,
		GuildID: i.GuildID,
		Target:  "group:" + group,
	})
	return respondEphemeral(r, i, &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Group `%s` %s. Slash commands will refresh shortly.", group, verb),
	})
}

// groups lists the command groups found in the registry, sorted.
func (c *MaintenanceCommand) groups() []string {
	if c.deps.Registry == nil {
		return nil
	}
	var out []string
	for _, rc := range c.deps.Registry.GetAll() {
		if meta, ok := cmd.As[command.DiscordMeta](rc); ok && !lo.Contains(out, meta.Group()) {
			out = append(out, meta.Group())
		}
	}
	sort.Strings(out)
	return out
}
