package discord

import (
	"tourney-bot/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// LogCommand records a command execution to storage, resolving channel and guild names from state.
func LogCommand(s *discordgo.Session, store *storage.Storage, log *zap.Logger, guildID, channelID, userID, username, commandName string) error {
	channelName := ""
	channel, err := s.State.Channel(channelID)
	if err != nil {
		channel, err = s.Channel(channelID)
	}
	if err != nil {
		log.Debug("failed to fetch channel", zap.String("channel", channelID), zap.Error(err))
	} else {
		channelName = channel.Name
	}

	guildName := ""
	guild, err := s.State.Guild(guildID)
	if err != nil {
		guild, err = s.Guild(guildID)
	}
	if err != nil {
		log.Debug("failed to fetch guild", zap.String("guild", guildID), zap.Error(err))
	} else {
		guildName = guild.Name
	}

	return store.SetCommand(guildID, channelID, channelName, guildName, userID, username, commandName)
}

// InteractionUser returns the user behind an interaction in a guild or DM.
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	if i.User != nil {
		return i.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}
