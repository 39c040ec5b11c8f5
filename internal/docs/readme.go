// Package docs renders the command reference of the README from the registry.
package docs

import (
	_ "embed"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/template"

	"tourney-bot/internal/command"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
)

//go:embed README.md.tmpl
var DefaultTemplate string

type entry struct {
	category string
	name     string
	desc     string
	subs     []*discordgo.ApplicationCommandOption
}

// Sections renders one markdown section per category, ordered by weights and
// then by name. Categories missing from weights come last.
func Sections(reg *cmd.Registry, weights map[string]int) string {
	var entries []entry
	for _, c := range reg.GetAll() {
		e := entry{name: c.Name(), desc: c.Description()}
		root := cmd.Root(c)
		if meta, ok := root.(command.DiscordMeta); ok {
			e.category = meta.Category()
		}
		if sp, ok := root.(command.SlashProvider); ok {
			if def := sp.SlashDefinition(); def != nil {
				for _, o := range def.Options {
					if o.Type == discordgo.ApplicationCommandOptionSubCommand {
						e.subs = append(e.subs, o)
					}
				}
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		wi, oki := weights[entries[i].category]
		wj, okj := weights[entries[j].category]
		switch {
		case oki != okj:
			return oki
		case wi != wj:
			return wi < wj
		case entries[i].category != entries[j].category:
			return entries[i].category < entries[j].category
		}
		return entries[i].name < entries[j].name
	})

	var b strings.Builder
	current := "\x00"
	for _, e := range entries {
		if e.category != current {
			if current != "\x00" {
				b.WriteString("\n")
			}
			current = e.category
			fmt.Fprintf(&b, "### %s\n\n", current)
		}
		fmt.Fprintf(&b, "- **/%s** - %s\n", e.name, e.desc)
		for _, s := range e.subs {
			fmt.Fprintf(&b, "  - `/%s %s` - %s\n", e.name, s.Name, s.Description)
		}
	}
	return b.String()
}

// Render executes tmpl with the command sections as {{.CommandSections}}.
func Render(w io.Writer, tmpl string, reg *cmd.Registry, weights map[string]int) error {
	t, err := template.New("readme").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("parse readme template: %w", err)
	}
	data := struct{ CommandSections string }{Sections(reg, weights)}
	if err := t.Execute(w, data); err != nil {
		return fmt.Errorf("render readme: %w", err)
	}
	return nil
}
