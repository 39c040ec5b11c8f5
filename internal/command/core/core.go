// Package core holds the commands every guild keeps: help and maintenance.
package core

import (
	"time"

	"tourney-bot/internal/discord"
	"tourney-bot/pkg/cmd"
	"tourney-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
)

// Responder answers interactions. *discord.Messenger implements it.
type Responder interface {
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error
}

type Deps struct {
	Registry  *cmd.Registry
	Jobs      *jobmgr.Manager
	Responder Responder
	Location  *time.Location
	// Publish hands a system event to the running bot.
	Publish func(discord.SystemEvent) bool
}

// CategoryWeights orders help and README sections; unknown categories sort last.
var CategoryWeights = map[string]int{
	"🏆 Esports":      0,
	"🕯️ Information": 10,
	"⚙️ Settings":    20,
}

func respondEphemeral(r Responder, i *discordgo.Interaction, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = discord.EmbedColor
	}
	return r.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}
