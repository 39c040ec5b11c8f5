package esports

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"tourney-bot/internal/command"
	"tourney-bot/internal/tourney"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// session is one editor message and the draft behind it.
type session struct {
	id        string
	guildID   string
	channelID string
	messageID string
	ownerID   string
	editor    *tourney.Editor

	confirmingDelete atomic.Bool
}

func (s *session) job() string { return "tourney-editor:" + s.id }

func (s *session) customID(action string) string {
	return "tourney:" + s.id + ":" + action
}

// parseCustomID splits "tourney:<session>:<action>".
func parseCustomID(id string) (sessionID, action string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] != "tourney" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// open posts a new editor in the interaction's channel. A stored tourney
// gets at most one editor; the check and the registration share c.mu.
func (c *TourneyCommand) open(i *discordgo.Interaction, ed *tourney.Editor) error {
	s := &session{
		id:        uuid.NewString(),
		guildID:   i.GuildID,
		channelID: i.ChannelID,
		ownerID:   userID(i),
		editor:    ed,
	}

	c.mu.Lock()
	if ed.Persisted() {
		if owner, busy := c.editingLocked(ed.Snapshot().ID); busy {
			c.mu.Unlock()
			return c.reply(i, fmt.Sprintf("This tourney is already being edited by <@%s>.", owner))
		}
	}
	c.sessions[s.id] = s
	c.mu.Unlock()

	embed, components := render(s)
	msg, err := c.msgs.Send(s.channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		c.mu.Lock()
		delete(c.sessions, s.id)
		c.mu.Unlock()
		return fmt.Errorf("post editor: %w", err)
	}
	s.messageID = msg.ID
	c.touch(s)

	c.log.Debug("editor opened",
		zap.String("session", s.id),
		zap.String("tourney", ed.Snapshot().ID),
		zap.String("owner", s.ownerID))

	return c.reply(i, "Tourney editor opened. Use the buttons below it to change a setting.")
}

// editingLocked reports who, if anyone, has an editor open on tourneyID.
// Callers hold c.mu.
func (c *TourneyCommand) editingLocked(tourneyID string) (string, bool) {
	for _, s := range c.sessions {
		if s.editor.Snapshot().ID == tourneyID {
			return s.ownerID, true
		}
	}
	return "", false
}

func (c *TourneyCommand) session(id string) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[id]
}

// Sessions returns the number of open editors.
func (c *TourneyCommand) Sessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// touch restarts the idle timer of s.
func (c *TourneyCommand) touch(s *session) {
	c.jobs.After(s.job(), c.idle, func() { c.close(s, "This editor timed out.") })
}

// close forgets s and freezes its message with a footer note.
func (c *TourneyCommand) close(s *session, note string) {
	c.mu.Lock()
	_, open := c.sessions[s.id]
	delete(c.sessions, s.id)
	c.mu.Unlock()
	if !open {
		return
	}
	_ = c.jobs.Stop(s.job())

	embed, _ := render(s)
	embed.Footer = &discordgo.MessageEmbedFooter{Text: note}
	edit := discordgo.NewMessageEdit(s.channelID, s.messageID).SetEmbeds([]*discordgo.MessageEmbed{embed})
	edit.Components = &[]discordgo.MessageComponent{}
	if err := c.msgs.Edit(edit); err != nil {
		c.log.Debug("failed to close editor message", zap.String("session", s.id), zap.Error(err))
	}
	c.log.Debug("editor closed", zap.String("session", s.id), zap.String("note", note))
}

// Component handles a press on one of the editor's buttons.
func (c *TourneyCommand) Component(ctx context.Context, data *command.ComponentInteractionContext) error {
	i := data.Event.Interaction
	sessionID, action, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return nil
	}

	s := c.session(sessionID)
	if s == nil {
		return c.reply(i, "This editor has expired. Run `/tourney edit` to open it again.")
	}
	if uid := userID(i); uid != s.ownerID {
		return c.reply(i, fmt.Sprintf("Only <@%s> can use this editor.", s.ownerID))
	}

	run, known := actions[action]
	if !known {
		return c.reply(i, "Unknown editor action.")
	}

	if err := c.msgs.Respond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return fmt.Errorf("acknowledge button: %w", err)
	}
	c.touch(s)

	if !s.editor.Begin() {
		c.notice(s, warnEmbed("Finish the current prompt first."), errorNoticeFor)
		return nil
	}
	closed := func() bool {
		defer s.editor.End()
		return run(ctx, c, s)
	}()

	if !closed && c.session(s.id) != nil {
		c.refresh(s)
	}
	return nil
}

// refresh redraws the editor message from the current draft.
func (c *TourneyCommand) refresh(s *session) {
	embed, components := render(s)
	edit := discordgo.NewMessageEdit(s.channelID, s.messageID).SetEmbeds([]*discordgo.MessageEmbed{embed})
	edit.Components = &components
	if err := c.msgs.Edit(edit); err != nil {
		c.log.Warn("failed to refresh editor", zap.String("session", s.id), zap.Error(err))
	}
}
