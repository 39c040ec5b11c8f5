package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const EmbedColor = 0xb01e66

// --- Interaction responses ---

// RespondEmbedEphemeral sends an ephemeral embed response to an interaction.
func RespondEmbedEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags:  discordgo.MessageFlagsEphemeral,
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// Messenger sends, edits and deletes messages on behalf of commands that
// should not hold a session themselves. It also satisfies input.Deleter.
type Messenger struct {
	s   *discordgo.Session
	log *zap.Logger
}

func NewMessenger(s *discordgo.Session, log *zap.Logger) *Messenger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Messenger{s: s, log: log.Named("messenger")}
}

func (m *Messenger) Send(channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return m.s.ChannelMessageSendComplex(channelID, msg)
}

func (m *Messenger) Edit(edit *discordgo.MessageEdit) error {
	_, err := m.s.ChannelMessageEditComplex(edit)
	return err
}

func (m *Messenger) DeleteMessage(channelID, messageID string) error {
	return m.s.ChannelMessageDelete(channelID, messageID)
}

// SendTemp posts embed and removes it after d. Failures are only logged.
func (m *Messenger) SendTemp(channelID string, embed *discordgo.MessageEmbed, d time.Duration) {
	if embed.Color == 0 {
		embed.Color = EmbedColor
	}
	msg, err := m.s.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		m.log.Warn("failed to send notice", zap.String("channel", channelID), zap.Error(err))
		return
	}
	time.AfterFunc(d, func() {
		if err := m.DeleteMessage(channelID, msg.ID); err != nil {
			m.log.Debug("failed to delete notice", zap.String("message", msg.ID), zap.Error(err))
		}
	})
}

func (m *Messenger) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	return m.s.InteractionRespond(i, resp)
}
