package esports

import (
	"fmt"
	"strings"
	"time"

	"tourney-bot/internal/discord"
	"tourney-bot/internal/tourney"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// field is one lettered row of the editor.
type field struct {
	action string
	label  string
	value  func(t tourney.Tourney) string
}

var fields = []field{
	{"name", "Name", func(t tourney.Tourney) string { return orNotSet(t.Name, "`%s`") }},
	{"registration", "Registration Channel", func(t tourney.Tourney) string { return orNotSet(t.RegistrationChannelID, "<#%s>") }},
	{"confirm", "Confirm Channel", func(t tourney.Tourney) string { return orNotSet(t.ConfirmChannelID, "<#%s>") }},
	{"role", "Success Role", func(t tourney.Tourney) string { return orNotSet(t.RoleID, "<@&%s>") }},
	{"mentions", "Mentions", func(t tourney.Tourney) string { return fmt.Sprintf("`%d`", t.RequiredMentions) }},
	{"slots", "Total Slots", func(t tourney.Tourney) string { return fmt.Sprintf("`%d`", t.TotalSlots) }},
	{"ping", "Ping Role", func(t tourney.Tourney) string { return orNotSet(t.PingRoleID, "<@&%s>") }},
	{"open-role", "Open Role", func(t tourney.Tourney) string { return orNotSet(t.OpenRoleID, "<@&%s>") }},
	{"multireg", "Multiple Registrations", func(t tourney.Tourney) string { return onOff(t.MultiRegister) }},
	{"teamname", "Team Name Compulsion", func(t tourney.Tourney) string { return onOff(t.TeamNameCompulsion) }},
	{"duplicate", "Duplicate Team Name", func(t tourney.Tourney) string { return onOff(!t.NoDuplicateName) }},
	{"autodelete", "Autodelete Rejected", func(t tourney.Tourney) string { return onOff(t.AutodeleteRejected) }},
	{"message", "Success Message", func(t tourney.Tourney) string {
		if t.SuccessMessage == "" {
			return "`Not Set`"
		}
		return "`" + tourney.Truncate(t.SuccessMessage, 40) + "`"
	}},
	{"open-at", "Registration Opens", func(t tourney.Tourney) string {
		if t.OpenAt == nil {
			return "`Not Set`"
		}
		return fmt.Sprintf("<t:%d:F>", t.OpenAt.Unix())
	}},
	{"banner", "Banner", func(t tourney.Tourney) string { return lo.Ternary(t.BannerURL == "", "`Not Set`", "`Set`") }},
	{"host", "Hosts", func(t tourney.Tourney) string {
		if len(t.HostIDs) == 0 {
			return "`Not Set`"
		}
		return strings.Join(lo.Map(t.HostIDs, func(id string, _ int) string { return "<@" + id + ">" }), ", ")
	}},
}

const buttonsPerRow = 5

// regionalIndicator returns the emoji letter for index i (0 is 🇦).
func regionalIndicator(i int) string {
	return string(rune(0x1F1E6 + i))
}

func render(s *session) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	t := s.editor.Snapshot()

	var b strings.Builder
	for i, f := range fields {
		fmt.Fprintf(&b, "%s **%s:** %s\n", regionalIndicator(i), f.label, f.value(t))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Tourney Editor",
		Description: b.String(),
		Color:       discord.EmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "ID: " + t.ID},
	}
	if t.BannerURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: t.BannerURL}
	}

	if s.confirmingDelete.Load() {
		embed.Footer.Text = "Are you sure you want to delete this tourney? This action is not reversible."
		return embed, []discordgo.MessageComponent{discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Delete", Style: discordgo.DangerButton, CustomID: s.customID("delete-yes")},
			discordgo.Button{Label: "Cancel", Style: discordgo.SecondaryButton, CustomID: s.customID("delete-no")},
		}}}
	}

	buttons := make([]discordgo.MessageComponent, 0, len(fields)+2)
	for i, f := range fields {
		buttons = append(buttons, discordgo.Button{
			Style:    discordgo.SecondaryButton,
			Emoji:    &discordgo.ComponentEmoji{Name: regionalIndicator(i)},
			CustomID: s.customID(f.action),
		})
	}
	buttons = append(buttons,
		discordgo.Button{
			Style:    discordgo.DangerButton,
			Emoji:    &discordgo.ComponentEmoji{Name: "🗑️"},
			CustomID: s.customID("delete"),
		},
		discordgo.Button{
			Label:    "Save",
			Style:    discordgo.SuccessButton,
			Disabled: !s.editor.Dirty(),
			CustomID: s.customID("save"),
		},
	)

	rows := lo.Map(lo.Chunk(buttons, buttonsPerRow), func(chunk []discordgo.MessageComponent, _ int) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: chunk}
	})
	return embed, rows
}

func orNotSet(v, format string) string {
	if v == "" {
		return "`Not Set`"
	}
	return fmt.Sprintf(format, v)
}

func onOff(v bool) string {
	return lo.Ternary(v, "`Enabled`", "`Disabled`")
}

const (
	successNoticeFor = 3 * time.Second
	errorNoticeFor   = 5 * time.Second
)

func successEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: "✅ " + text, Color: 0x2ecc71}
}

func warnEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: text, Color: discord.EmbedColor}
}

func errorEmbed(text string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{Description: "❌ " + text, Color: 0xe74c3c}
}
