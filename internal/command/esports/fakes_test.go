package esports

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"tourney-bot/internal/command"
	"tourney-bot/internal/input"
	"tourney-bot/internal/tourney"
	"tourney-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	guild   = "g1"
	channel = "c-editor"
	owner   = "u-owner"
	other   = "u-other"
)

type fakeMessenger struct {
	mu        sync.Mutex
	next      int
	sent      []*discordgo.MessageSend
	edits     []*discordgo.MessageEdit
	deleted   []string
	notices   []string
	responses []*discordgo.InteractionResponse
}

func (m *fakeMessenger) Send(_ string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.sent = append(m.sent, msg)
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", m.next)}, nil
}

func (m *fakeMessenger) Edit(edit *discordgo.MessageEdit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edits = append(m.edits, edit)
	return nil
}

func (m *fakeMessenger) DeleteMessage(_, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeMessenger) SendTemp(_ string, embed *discordgo.MessageEmbed, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, embed.Description)
}

func (m *fakeMessenger) Respond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return nil
}

func (m *fakeMessenger) lastNotice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.notices) == 0 {
		return ""
	}
	return m.notices[len(m.notices)-1]
}

func (m *fakeMessenger) lastEdit() *discordgo.MessageEdit {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edits) == 0 {
		return nil
	}
	return m.edits[len(m.edits)-1]
}

// lastReply returns the description of the last ephemeral embed response.
func (m *fakeMessenger) lastReply() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.responses) - 1; i >= 0; i-- {
		if d := m.responses[i].Data; d != nil && len(d.Embeds) > 0 {
			return d.Embeds[0].Description
		}
	}
	return ""
}

type memStore struct {
	mu       sync.Mutex
	tourneys map[string]tourney.Tourney
}

func newMemStore() *memStore { return &memStore{tourneys: map[string]tourney.Tourney{}} }

func (s *memStore) SaveTourney(t tourney.Tourney) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tourneys[t.ID] = t
	return nil
}

func (s *memStore) SaveTourneyIfChannelFree(t tourney.Tourney) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.tourneys {
		if o.GuildID == t.GuildID && o.ID != t.ID && t.RegistrationChannelID != "" && o.RegistrationChannelID == t.RegistrationChannelID {
			return tourney.ErrChannelInUse
		}
	}
	s.tourneys[t.ID] = t
	return nil
}

func (s *memStore) DeleteTourney(_, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tourneys[id]; !ok {
		return tourney.ErrNotFound
	}
	delete(s.tourneys, id)
	return nil
}

func (s *memStore) Tourney(guildID, id string) (tourney.Tourney, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tourneys[id]
	if !ok || t.GuildID != guildID {
		return tourney.Tourney{}, tourney.ErrNotFound
	}
	return t, nil
}

func (s *memStore) Tourneys(guildID string) ([]tourney.Tourney, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tourney.Tourney
	for _, t := range s.tourneys {
		if t.GuildID == guildID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) RegistrationChannelInUse(guildID, channelID, exceptID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tourneys {
		if t.GuildID == guildID && t.ID != exceptID && channelID != "" && t.RegistrationChannelID == channelID {
			return true, nil
		}
	}
	return false, nil
}

type fakeDirectory struct {
	channels map[string]*discordgo.Channel
	roles    map[string]*discordgo.Role
	members  map[string]*discordgo.Member
	perms    int64
	tops     map[string]*discordgo.Role
}

func (d *fakeDirectory) Channel(_ context.Context, _, token string) (*discordgo.Channel, error) {
	if ch, ok := d.channels[token]; ok {
		return ch, nil
	}
	return nil, input.ErrNotFound
}

func (d *fakeDirectory) Role(_ context.Context, _, token string) (*discordgo.Role, error) {
	if r, ok := d.roles[token]; ok {
		return r, nil
	}
	return nil, input.ErrNotFound
}

func (d *fakeDirectory) Member(_ context.Context, _, token string) (*discordgo.Member, error) {
	if m, ok := d.members[token]; ok {
		return m, nil
	}
	return nil, input.ErrNotFound
}

func (d *fakeDirectory) BotPermissions(context.Context, string) (int64, error) { return d.perms, nil }

func (d *fakeDirectory) TopRole(_ context.Context, _, userID string) (*discordgo.Role, error) {
	return d.tops[userID], nil
}

func (d *fakeDirectory) OwnerID(context.Context, string) (string, error) { return "", nil }

func (d *fakeDirectory) BotID() string { return "bot" }

type harness struct {
	t      *testing.T
	cmd    *TourneyCommand
	msgs   *fakeMessenger
	store  *memStore
	dir    *fakeDirectory
	waiter *input.Waiter
}

func newHarness(t *testing.T, idle time.Duration) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)

	dir := &fakeDirectory{
		channels: map[string]*discordgo.Channel{},
		roles:    map[string]*discordgo.Role{},
		members:  map[string]*discordgo.Member{},
		perms:    input.Mask(input.ChannelBase) | input.Mask(input.ChannelStrict),
		tops: map[string]*discordgo.Role{
			"bot": {ID: "r-bot", Position: 10},
			owner: {ID: "r-owner", Position: 8},
		},
	}
	w := input.NewWaiter()
	jobs := jobmgr.NewManager(nil)
	t.Cleanup(jobs.Shutdown)

	h := &harness{
		t:      t,
		msgs:   &fakeMessenger{},
		store:  newMemStore(),
		dir:    dir,
		waiter: w,
	}
	h.cmd = New(Deps{
		Store:    h.store,
		Input:    input.New(w, dir, input.WithTimeout(2*time.Second), input.WithLogger(log)),
		Messages: h.msgs,
		Jobs:     jobs,
		Idle:     idle,
		Log:      log,
		Now:      func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	return h
}

func (h *harness) slash(user, sub string, opts ...*discordgo.ApplicationCommandInteractionDataOption) error {
	e := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guild,
		ChannelID: channel,
		Member:    &discordgo.Member{User: &discordgo.User{ID: user}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "tourney",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name:    sub,
				Type:    discordgo.ApplicationCommandOptionSubCommand,
				Options: opts,
			}},
		},
	}}
	return h.cmd.Run(context.Background(), &command.SlashInteractionContext{Event: e})
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// create opens an editor for a new draft and returns its session.
func (h *harness) create(name string) *session {
	h.t.Helper()
	require.NoError(h.t, h.slash(owner, "create", stringOpt("name", name)))
	h.cmd.mu.Lock()
	defer h.cmd.mu.Unlock()
	require.Len(h.t, h.cmd.sessions, 1)
	for _, s := range h.cmd.sessions {
		return s
	}
	return nil
}

func (h *harness) press(user, customID string) error {
	e := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   guild,
		ChannelID: channel,
		Member:    &discordgo.Member{User: &discordgo.User{ID: user}},
		Message:   &discordgo.Message{ID: "msg-1", ChannelID: channel},
		Data:      discordgo.MessageComponentInteractionData{CustomID: customID},
	}}
	return h.cmd.Component(context.Background(), &command.ComponentInteractionContext{Event: e})
}

// pressAndAnswer presses a prompting button and answers with each content in turn.
func (h *harness) pressAndAnswer(s *session, action string, answers ...string) {
	h.t.Helper()
	done := make(chan error, 1)
	go func() { done <- h.press(owner, s.customID(action)) }()

	for i, content := range answers {
		require.Eventually(h.t, func() bool { return h.waiter.Pending() == 1 }, time.Second, time.Millisecond)
		h.waiter.Dispatch(input.Event{
			MessageID: fmt.Sprintf("answer-%d", i),
			ChannelID: channel,
			GuildID:   guild,
			AuthorID:  owner,
			Content:   content,
		})
	}

	select {
	case err := <-done:
		require.NoError(h.t, err)
	case <-time.After(3 * time.Second):
		h.t.Fatal("button press did not finish")
	}
}

func buttons(edit *discordgo.MessageEdit) []discordgo.Button {
	var out []discordgo.Button
	if edit == nil || edit.Components == nil {
		return out
	}
	for _, row := range *edit.Components {
		for _, c := range row.(discordgo.ActionsRow).Components {
			out = append(out, c.(discordgo.Button))
		}
	}
	return out
}

func onlySession(t *testing.T, h *harness) *session {
	t.Helper()
	h.cmd.mu.Lock()
	defer h.cmd.mu.Unlock()
	require.Len(t, h.cmd.sessions, 1)
	for _, s := range h.cmd.sessions {
		return s
	}
	return nil
}

func inputEvent(content string) input.Event {
	return input.Event{
		MessageID: "answer",
		ChannelID: channel,
		GuildID:   guild,
		AuthorID:  owner,
		Content:   content,
	}
}
