package esports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tourney-bot/internal/input"
	"tourney-bot/internal/tourney"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// actionFunc runs one button. It reports true when the editor was closed.
type actionFunc func(ctx context.Context, c *TourneyCommand, s *session) bool

var actions = map[string]actionFunc{
	"name":         setName,
	"registration": setRegistrationChannel,
	"confirm":      setConfirmChannel,
	"role":         roleAction("Mention the role you want to give for correct registration.", tourney.SetSuccessRole),
	"mentions":     integerAction("How many mentions are required for registration? (Max `10`)", input.Between(0, tourney.MaxMentions), tourney.SetRequiredMentions),
	"slots":        integerAction("How many total slots are there? (Max `15000`)", input.Between(tourney.MinSlots, tourney.MaxSlots), tourney.SetTotalSlots),
	"ping":         roleAction("Mention the role you want to ping with registration open message.", tourney.SetPingRole),
	"open-role":    roleAction("Mention the role for which you want to open/close registrations.", tourney.SetOpenRole),
	"multireg":     toggleAction(tourney.FieldMultiRegister),
	"teamname":     toggleAction(tourney.FieldTeamNameCompulsion),
	"duplicate":    toggleAction(tourney.FieldNoDuplicateName),
	"autodelete":   toggleAction(tourney.FieldAutodeleteRejected),
	"message":      setSuccessMessage,
	"open-at":      setOpenAt,
	"banner":       setBanner,
	"host":         toggleHost,
	"delete":       askDelete,
	"delete-yes":   confirmDelete,
	"delete-no":    cancelDelete,
	"save":         save,
}

// request builds an input request answered by the editor owner in the
// editor channel.
func (c *TourneyCommand) request(s *session) input.Request {
	return input.Request{
		GuildID:     s.guildID,
		ChannelID:   s.channelID,
		RequesterID: s.ownerID,
		DeleteAfter: true,
		Check: func(ev input.Event) bool {
			return ev.ChannelID == s.channelID && ev.AuthorID == s.ownerID
		},
	}
}

// prompt posts a question and returns a func that removes it.
func (c *TourneyCommand) prompt(s *session, text string) func() {
	msg, err := c.msgs.Send(s.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{warnEmbed(text)},
	})
	if err != nil {
		c.log.Warn("failed to send prompt", zap.String("session", s.id), zap.Error(err))
		return func() {}
	}
	return func() {
		if err := c.msgs.DeleteMessage(s.channelID, msg.ID); err != nil {
			c.log.Debug("failed to delete prompt", zap.String("message", msg.ID), zap.Error(err))
		}
	}
}

func (c *TourneyCommand) notice(s *session, embed *discordgo.MessageEmbed, d time.Duration) {
	c.msgs.SendTemp(s.channelID, embed, d)
}

// fail shows the reason an input was rejected.
func (c *TourneyCommand) fail(s *session, err error) {
	c.notice(s, errorEmbed(input.Reason(err)), errorNoticeFor)
}

// apply runs u on the draft and announces the change.
func (c *TourneyCommand) apply(s *session, u tourney.Update) {
	change := s.editor.Apply(u)
	c.log.Debug("draft updated", zap.String("session", s.id), zap.String("field", string(change.Field)))
	c.notice(s, successEmbed(change.Description), successNoticeFor)
}

func setName(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "Enter the new name of the tournament. (`Max 30 characters`)")
	name, err := c.input.Text(ctx, c.request(s)).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	c.apply(s, tourney.SetName(name))
	return false
}

func setRegistrationChannel(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "Mention the channel where you want to take registrations.")
	ch, err := c.input.Channel(ctx, c.request(s), input.ChannelOptions{Strict: true}).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}

	inUse, err := c.store.RegistrationChannelInUse(s.guildID, ch.ID, s.editor.Snapshot().ID)
	if err != nil {
		c.log.Error("registration channel lookup failed", zap.String("channel", ch.ID), zap.Error(err))
		c.notice(s, errorEmbed("Could not check that channel. Try again."), errorNoticeFor)
		return false
	}
	if inUse {
		c.notice(s, errorEmbed(fmt.Sprintf("Another tourney is running in <#%s>.", ch.ID)), errorNoticeFor)
		return false
	}
	c.apply(s, tourney.SetRegistrationChannel(ch.ID))
	return false
}

func setConfirmChannel(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "Mention the channel where you want me to post registration confirm messages.")
	ch, err := c.input.Channel(ctx, c.request(s), input.ChannelOptions{Strict: true}).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	c.apply(s, tourney.SetConfirmChannel(ch.ID))
	return false
}

func roleAction(question string, set func(roleID string) tourney.Update) actionFunc {
	return func(ctx context.Context, c *TourneyCommand, s *session) bool {
		done := c.prompt(s, question)
		role, err := c.input.Role(ctx, c.request(s), input.RoleOptions{Hierarchy: true, CheckPermissions: true}).Unwrap()
		done()
		if err != nil {
			c.fail(s, err)
			return false
		}
		c.apply(s, set(role.ID))
		return false
	}
}

func integerAction(question string, bounds input.Bounds, set func(int) tourney.Update) actionFunc {
	return func(ctx context.Context, c *TourneyCommand, s *session) bool {
		done := c.prompt(s, question)
		n, err := c.input.Integer(ctx, c.request(s), bounds).Unwrap()
		done()
		if err != nil {
			c.fail(s, err)
			return false
		}
		c.apply(s, set(n))
		return false
	}
}

func toggleAction(f tourney.Field) actionFunc {
	return func(_ context.Context, c *TourneyCommand, s *session) bool {
		u, err := tourney.Toggle(f)
		if err != nil {
			c.log.Error("toggle failed", zap.String("field", string(f)), zap.Error(err))
			return false
		}
		c.apply(s, u)
		return false
	}
}

func setSuccessMessage(ctx context.Context, c *TourneyCommand, s *session) bool {
	current := s.editor.Snapshot().SuccessMessage
	if current == "" {
		current = "Not Set Yet."
	}
	done := c.prompt(s, "What message do you want me to show for successful registration? This message will be sent to "+
		"DM of players who register successfully.\n\n**Current Success Message:**"+
		"```"+current+"```"+
		"\n`Kindly keep it under 500 characters. Enter none to remove it.`")
	msg, err := c.input.Text(ctx, c.request(s)).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	if strings.EqualFold(strings.TrimSpace(msg), "cancel") {
		return false
	}
	c.apply(s, tourney.SetSuccessMessage(msg))
	return false
}

func setOpenAt(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "When should registrations open? (e.g. `tomorrow 6pm`, `in 2 hours`, `21:30`)")
	at, err := c.input.Time(ctx, c.request(s)).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	c.apply(s, tourney.SetOpenAt(at))
	return false
}

func setBanner(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "Send the banner image, or a link to it. Enter `none` to remove the banner.")
	url, err := c.input.Image(ctx, c.request(s)).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	c.apply(s, tourney.SetBanner(url))
	return false
}

func toggleHost(ctx context.Context, c *TourneyCommand, s *session) bool {
	done := c.prompt(s, "Mention the member you want to add or remove as a host.")
	m, err := c.input.Member(ctx, c.request(s)).Unwrap()
	done()
	if err != nil {
		c.fail(s, err)
		return false
	}
	c.apply(s, tourney.ToggleHost(m.User.ID))
	return false
}

func askDelete(_ context.Context, _ *TourneyCommand, s *session) bool {
	s.confirmingDelete.Store(true)
	return false
}

func cancelDelete(_ context.Context, c *TourneyCommand, s *session) bool {
	if s.confirmingDelete.CompareAndSwap(true, false) {
		c.notice(s, warnEmbed("Okay, not deleting."), successNoticeFor)
	}
	return false
}

func confirmDelete(_ context.Context, c *TourneyCommand, s *session) bool {
	if !s.confirmingDelete.CompareAndSwap(true, false) {
		return false
	}
	if err := s.editor.Delete(c.store); err != nil {
		c.log.Error("failed to delete tourney", zap.String("session", s.id), zap.Error(err))
		c.notice(s, errorEmbed("Could not delete the tourney. Try again."), errorNoticeFor)
		return false
	}
	c.notice(s, successEmbed("Successfully deleted tourney."), successNoticeFor)
	c.close(s, "This tourney was deleted.")
	return true
}

func save(_ context.Context, c *TourneyCommand, s *session) bool {
	if !s.editor.Dirty() {
		return false
	}
	t, err := s.editor.Save(c.store)
	switch {
	case errors.Is(err, tourney.ErrIncomplete):
		missing := strings.TrimPrefix(err.Error(), tourney.ErrIncomplete.Error()+": ")
		c.notice(s, errorEmbed("Set these before saving: "+missing+"."), errorNoticeFor)
		return false
	case errors.Is(err, tourney.ErrChannelInUse):
		c.notice(s, errorEmbed(fmt.Sprintf("Another tourney is running in <#%s>.", s.editor.Snapshot().RegistrationChannelID)), errorNoticeFor)
		return false
	case err != nil:
		c.log.Error("failed to save tourney", zap.String("session", s.id), zap.Error(err))
		c.notice(s, errorEmbed("Could not save the tourney. Try again."), errorNoticeFor)
		return false
	}
	c.log.Info("tourney saved", zap.String("guild", t.GuildID), zap.String("tourney", t.ID))
	c.notice(s, successEmbed(fmt.Sprintf("**%s** saved.", t.Name)), successNoticeFor)
	return false
}
