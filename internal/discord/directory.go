package discord

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"tourney-bot/internal/input"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
)

// restClient is the slice of *discordgo.Session used when state misses.
type restClient interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildMembersSearch(guildID, query string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error)
	UserChannelPermissions(userID, channelID string, options ...discordgo.RequestOption) (int64, error)
}

// Directory resolves channels, roles and members from the gateway state,
// falling back to REST. It implements input.Directory.
type Directory struct {
	state *discordgo.State
	rest  restClient
}

var _ input.Directory = (*Directory)(nil)

func NewDirectory(s *discordgo.Session) *Directory {
	return &Directory{state: s.State, rest: s}
}

func (d *Directory) Channel(_ context.Context, guildID, token string) (*discordgo.Channel, error) {
	if id, ok := channelRef(token); ok {
		ch, err := d.state.Channel(id)
		if err != nil {
			if ch, err = d.rest.Channel(id); err != nil {
				return nil, notFound(err)
			}
		}
		if ch.GuildID != guildID || ch.Type != discordgo.ChannelTypeGuildText {
			return nil, input.ErrNotFound
		}
		return ch, nil
	}

	name := plainName(token, "#")
	channels, err := d.guildChannels(guildID)
	if err != nil {
		return nil, err
	}
	ch, ok := lo.Find(channels, func(c *discordgo.Channel) bool {
		return c.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(c.Name, name)
	})
	if !ok {
		return nil, input.ErrNotFound
	}
	return ch, nil
}

func (d *Directory) Role(_ context.Context, guildID, token string) (*discordgo.Role, error) {
	roles, err := d.guildRoles(guildID)
	if err != nil {
		return nil, err
	}

	var (
		role *discordgo.Role
		ok   bool
	)
	if id, isRef := roleRef(token); isRef {
		role, ok = lo.Find(roles, func(r *discordgo.Role) bool { return r.ID == id })
	} else {
		name := plainName(token, "@")
		role, ok = lo.Find(roles, func(r *discordgo.Role) bool { return strings.EqualFold(r.Name, name) })
	}
	if !ok {
		return nil, input.ErrNotFound
	}
	return role, nil
}

func (d *Directory) Member(_ context.Context, guildID, token string) (*discordgo.Member, error) {
	if id, ok := userRef(token); ok {
		return d.member(guildID, id)
	}

	name := plainName(token, "@")
	if g, err := d.state.Guild(guildID); err == nil {
		if m, ok := lo.Find(g.Members, func(m *discordgo.Member) bool { return memberNamed(m, name) }); ok {
			return m, nil
		}
	}

	found, err := d.rest.GuildMembersSearch(guildID, name, 10)
	if err != nil {
		return nil, notFound(err)
	}
	if m, ok := lo.Find(found, func(m *discordgo.Member) bool { return memberNamed(m, name) }); ok {
		return m, nil
	}
	return nil, input.ErrNotFound
}

func (d *Directory) BotPermissions(_ context.Context, channelID string) (int64, error) {
	if perms, err := d.state.UserChannelPermissions(d.BotID(), channelID); err == nil {
		return perms, nil
	}
	return d.rest.UserChannelPermissions(d.BotID(), channelID)
}

// TopRole returns nil, not an error, for a member without roles.
func (d *Directory) TopRole(_ context.Context, guildID, userID string) (*discordgo.Role, error) {
	m, err := d.member(guildID, userID)
	if err != nil {
		return nil, err
	}
	roles, err := d.guildRoles(guildID)
	if err != nil {
		return nil, err
	}

	held := lo.Filter(roles, func(r *discordgo.Role, _ int) bool { return lo.Contains(m.Roles, r.ID) })
	if len(held) == 0 {
		return nil, nil
	}
	sort.Slice(held, func(i, j int) bool { return input.Outranks(held[i], held[j]) })
	return held[0], nil
}

func (d *Directory) OwnerID(_ context.Context, guildID string) (string, error) {
	g, err := d.guild(guildID)
	if err != nil {
		return "", err
	}
	return g.OwnerID, nil
}

func (d *Directory) BotID() string {
	if d.state == nil || d.state.User == nil {
		return ""
	}
	return d.state.User.ID
}

func (d *Directory) guild(guildID string) (*discordgo.Guild, error) {
	if g, err := d.state.Guild(guildID); err == nil {
		return g, nil
	}
	g, err := d.rest.Guild(guildID)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (d *Directory) guildChannels(guildID string) ([]*discordgo.Channel, error) {
	if g, err := d.state.Guild(guildID); err == nil && len(g.Channels) > 0 {
		return g.Channels, nil
	}
	channels, err := d.rest.GuildChannels(guildID)
	if err != nil {
		return nil, notFound(err)
	}
	return channels, nil
}

func (d *Directory) guildRoles(guildID string) ([]*discordgo.Role, error) {
	if g, err := d.state.Guild(guildID); err == nil && len(g.Roles) > 0 {
		return g.Roles, nil
	}
	roles, err := d.rest.GuildRoles(guildID)
	if err != nil {
		return nil, notFound(err)
	}
	return roles, nil
}

func (d *Directory) member(guildID, userID string) (*discordgo.Member, error) {
	if m, err := d.state.Member(guildID, userID); err == nil {
		return m, nil
	}
	m, err := d.rest.GuildMember(guildID, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func memberNamed(m *discordgo.Member, name string) bool {
	if m == nil || m.User == nil {
		return false
	}
	return lo.ContainsBy([]string{m.Nick, m.User.Username, m.User.GlobalName}, func(n string) bool {
		return n != "" && strings.EqualFold(n, name)
	})
}

// notFound maps a 404 from the REST API to input.ErrNotFound.
func notFound(err error) error {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return input.ErrNotFound
	}
	return err
}
