package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"tourney-bot/internal/command"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

type HelpCommand struct {
	deps Deps
}

func NewHelp(d Deps) *HelpCommand { return &HelpCommand{deps: d} }

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Group() string            { return protectedGroup }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return []int64{} }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "category",
				Description: "View commands grouped by category",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "group",
				Description: "View commands grouped by group",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "flat",
				Description: "View all commands as a flat list",
			},
		},
	}
}

func (c *HelpCommand) Run(_ context.Context, data interface{}) error {
	slash, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	e := slash.Event

	var output string
	opts := e.ApplicationCommandData().Options
	switch {
	case len(opts) > 0 && opts[0].Name == "group":
		output = c.byGroup()
	case len(opts) > 0 && opts[0].Name == "flat":
		output = c.flat()
	default:
		output = c.byCategory()
	}

	return respondEphemeral(c.deps.Responder, e.Interaction, &discordgo.MessageEmbed{
		Title:       "Tourney Bot Help",
		Description: output,
	})
}

type entry struct {
	name, description, group, category string
}

func (c *HelpCommand) entries() []entry {
	if c.deps.Registry == nil {
		return nil
	}
	return lo.FilterMap(c.deps.Registry.GetAll(), func(rc cmd.Command, _ int) (entry, bool) {
		meta, ok := cmd.As[command.DiscordMeta](rc)
		if !ok {
			return entry{}, false
		}
		return entry{rc.Name(), rc.Description(), meta.Group(), meta.Category()}, true
	})
}

func writeSection(b *strings.Builder, title string, list []entry) {
	fmt.Fprintf(b, "**%s**\n", title)
	sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	for _, e := range list {
		fmt.Fprintf(b, "`%s` - %s\n", e.name, e.description)
	}
	b.WriteString("\n")
}

func (c *HelpCommand) byCategory() string {
	byCat := lo.GroupBy(c.entries(), func(e entry) string { return e.category })
	cats := lo.Keys(byCat)
	sort.Slice(cats, func(i, j int) bool {
		wi, oki := CategoryWeights[cats[i]]
		wj, okj := CategoryWeights[cats[j]]
		if oki != okj {
			return oki
		}
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var b strings.Builder
	for _, cat := range cats {
		writeSection(&b, cat, byCat[cat])
	}
	return b.String()
}

func (c *HelpCommand) byGroup() string {
	byGroup := lo.GroupBy(c.entries(), func(e entry) string { return e.group })
	groups := lo.Keys(byGroup)
	sort.Strings(groups)

	var b strings.Builder
	for _, g := range groups {
		writeSection(&b, g, byGroup[g])
	}
	return b.String()
}

func (c *HelpCommand) flat() string {
	all := c.entries()
	sort.Slice(all, func(i, j int) bool { return all[i].name < all[j].name })

	var b strings.Builder
	for _, e := range all {
		fmt.Fprintf(&b, "`%s` - %s\n", e.name, e.description)
	}
	return b.String()
}
