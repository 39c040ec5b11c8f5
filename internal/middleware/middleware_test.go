package middleware

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tourney-bot/internal/command"
	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type probe struct {
	group string
	perms []int64
	runs  int
}

func (p *probe) Name() string             { return "tourney" }
func (p *probe) Description() string      { return "probe" }
func (p *probe) Group() string            { return p.group }
func (p *probe) Category() string         { return "" }
func (p *probe) UserPermissions() []int64 { return p.perms }
func (p *probe) Run(context.Context, interface{}) error {
	p.runs++
	return nil
}

func slashEvent(guildID string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommand,
		GuildID: guildID,
		Member:  &discordgo.Member{User: &discordgo.User{ID: "u1", Username: "mod"}},
		Data:    discordgo.ApplicationCommandInteractionData{Name: "tourney", Options: opts},
	}}
}

func TestWithGuildOnly(t *testing.T) {
	p := &probe{}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithGuildOnly())

	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{
		Data: &command.SlashInteractionContext{Event: slashEvent("")},
	}))
	assert.Equal(t, 0, p.runs, "direct messages are dropped")

	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{
		Data: &command.SlashInteractionContext{Event: slashEvent("g1")},
	}))
	assert.Equal(t, 1, p.runs)
}

func TestRefusal(t *testing.T) {
	assert.Empty(t, refusal(discordgo.PermissionManageGuild, []int64{discordgo.PermissionManageGuild}))
	assert.Empty(t, refusal(discordgo.PermissionAdministrator, []int64{discordgo.PermissionManageGuild}))
	assert.Empty(t, refusal(discordgo.PermissionManageRoles|discordgo.PermissionSendMessages,
		[]int64{discordgo.PermissionManageGuild, discordgo.PermissionManageRoles}))

	msg := refusal(discordgo.PermissionSendMessages, []int64{discordgo.PermissionManageGuild, 1 << 62})
	assert.Equal(t,
		"You need at least one of the following permissions to run this command:\n`Manage Server`, `0x4000000000000000`",
		msg)
}

func TestWithUserPermissionCheck_Allows(t *testing.T) {
	p := &probe{perms: []int64{discordgo.PermissionManageGuild}}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithUserPermissionCheck(nil))

	e := slashEvent("g1")
	e.Member.Permissions = discordgo.PermissionManageGuild
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{
		Data: &command.SlashInteractionContext{Event: e},
	}))
	assert.Equal(t, 1, p.runs)
}

func TestDisabledGroup(t *testing.T) {
	store, err := storage.New(filepath.Join(t.TempDir(), "db.json"), storage.Options{AutosaveInterval: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.DisableGroup("g1", "esports"))
	require.NoError(t, store.DisableGroup("g1", "core"))

	esports := &command.DiscordAdapter{Cmd: &probe{group: "esports"}}
	core := &command.DiscordAdapter{Cmd: &probe{group: "core"}}

	assert.True(t, disabledGroup(cmd.Apply(esports, WithGuildOnly()), "g1", store))
	assert.False(t, disabledGroup(esports, "g2", store))
	assert.False(t, disabledGroup(core, "g1", store), "core cannot be disabled")
	assert.False(t, disabledGroup(esports, "g1", nil))
}

func TestWithCommandLogger(t *testing.T) {
	zc, logs := observer.New(zap.DebugLevel)
	p := &probe{}
	c := cmd.Apply(&command.DiscordAdapter{Cmd: p}, WithCommandLogger(zap.New(zc)))

	e := slashEvent("g1", &discordgo.ApplicationCommandInteractionDataOption{
		Name: "create",
		Type: discordgo.ApplicationCommandOptionSubCommand,
	})
	require.NoError(t, c.Run(context.Background(), &cmd.Invocation{
		Data: &command.SlashInteractionContext{Event: e},
	}))

	assert.Equal(t, 1, p.runs)
	entries := logs.FilterMessage("slash command").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "tourney create", entries[0].ContextMap()["command"])
	assert.Equal(t, "u1", entries[0].ContextMap()["user"])
}
