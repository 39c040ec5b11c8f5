// Package input waits for a user's next chat message and turns it into a
// validated value: text, a bounded integer, a channel, a role, a member, a
// point in time or an image URL.
package input

import "github.com/bwmarrin/discordgo"

// Attachment is the subset of a message attachment the pipeline inspects.
type Attachment struct {
	ID          string
	Filename    string
	ContentType string
	URL         string
	ProxyURL    string
}

// Event is an incoming chat message as seen by the waiter.
type Event struct {
	MessageID   string
	ChannelID   string
	GuildID     string
	AuthorID    string
	Content     string
	Attachments []Attachment
}

// FromMessage converts a gateway message. A message without an author gets an
// empty AuthorID and can still match on channel.
func FromMessage(m *discordgo.Message) Event {
	if m == nil {
		return Event{}
	}

	ev := Event{
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
	}
	if m.Author != nil {
		ev.AuthorID = m.Author.ID
	}
	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		ev.Attachments = append(ev.Attachments, Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			URL:         a.URL,
			ProxyURL:    a.ProxyURL,
		})
	}
	return ev
}
