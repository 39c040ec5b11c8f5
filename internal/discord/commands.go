package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tourney-bot/internal/command"
	"tourney-bot/pkg/cmd"
	"tourney-bot/pkg/retrylimit"
	"tourney-bot/pkg/util"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// guildWorkers bounds how many guilds sync their commands at once.
const guildWorkers = 4

// restError exposes the HTTP status of a discordgo REST failure to retrylimit.
type restError struct {
	err *discordgo.RESTError
}

func (e restError) Error() string   { return e.err.Error() }
func (e restError) Unwrap() error   { return e.err }
func (e restError) StatusCode() int { return e.err.Response.StatusCode }

// classify marks client errors other than 429 as fatal so they are not retried.
func classify(err error) error {
	var re *discordgo.RESTError
	if !errors.As(err, &re) || re.Response == nil {
		return err
	}
	code := re.Response.StatusCode
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return retrylimit.Fatal(restError{re})
	}
	return restError{re}
}

func (b *Bot) retry(ctx context.Context, fn func() error) error {
	cfg := retrylimit.DefaultRetryConfig()
	cfg.Logger = b.log
	return retrylimit.WithRetryConfig(ctx, func() error { return classify(fn()) }, b.limiter, cfg)
}

// registerAll syncs commands for every guild, a few at a time.
func (b *Bot) registerAll(ctx context.Context, guildIDs []string) {
	err := util.Parallel(ctx, guildIDs, guildWorkers, func(ctx context.Context, guildID string) error {
		if err := b.registerCommands(ctx, guildID); err != nil {
			b.log.Error("failed to register commands", zap.String("guild", guildID), zap.Error(err))
		}
		return ctx.Err()
	})
	if err != nil {
		b.log.Warn("command registration interrupted", zap.Error(err))
	}
}

// registerCommands syncs slash commands for a guild with Discord:
// deletes obsolete ones and those of disabled groups, creates commands
// whose definition changed or that Discord does not have.
func (b *Bot) registerCommands(ctx context.Context, guildID string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}

	var remote []*discordgo.ApplicationCommand
	if err := b.retry(ctx, func() (err error) {
		remote, err = b.dg.ApplicationCommands(appID, guildID)
		return err
	}); err != nil {
		return fmt.Errorf("list commands: %w", err)
	}

	disabled, err := b.storage.DisabledGroups(guildID)
	if err != nil {
		return fmt.Errorf("read disabled groups: %w", err)
	}
	wanted := b.definitions(disabled)
	hashes := b.cache.load(guildID)

	wantedByName := lo.SliceToMap(wanted, func(d *discordgo.ApplicationCommand) (string, *discordgo.ApplicationCommand) {
		return d.Name, d
	})
	remoteByName := lo.SliceToMap(remote, func(d *discordgo.ApplicationCommand) (string, *discordgo.ApplicationCommand) {
		return d.Name, d
	})

	for name, rc := range remoteByName {
		if _, ok := wantedByName[name]; ok {
			continue
		}
		b.log.Info("deleting obsolete command", zap.String("guild", guildID), zap.String("command", name))
		if err := b.retry(ctx, func() error { return b.dg.ApplicationCommandDelete(appID, guildID, rc.ID) }); err != nil {
			b.log.Error("failed to delete command", zap.String("guild", guildID), zap.String("command", name), zap.Error(err))
			continue
		}
		delete(hashes, name)
	}

	var created int
	for _, def := range wanted {
		h := hashCommand(def)
		_, registered := remoteByName[def.Name]
		if registered && hashes[def.Name] == h {
			continue
		}
		if err := b.retry(ctx, func() error {
			_, err := b.dg.ApplicationCommandCreate(appID, guildID, def)
			return err
		}); err != nil {
			b.log.Error("failed to register command", zap.String("guild", guildID), zap.String("command", def.Name), zap.Error(err))
			continue
		}
		hashes[def.Name] = h
		created++
	}
	if created > 0 {
		b.log.Info("registered commands", zap.String("guild", guildID), zap.Int("count", created))
	}

	return b.cache.save(guildID, hashes)
}

// refreshSingle re-creates one command regardless of its cached hash.
func (b *Bot) refreshSingle(ctx context.Context, guildID, name string) error {
	appID, err := b.appID()
	if err != nil {
		return err
	}
	c := b.registry.Get(strings.ToLower(name))
	if c == nil {
		return fmt.Errorf("no command named %q", name)
	}
	def := commandDefinition(c)
	if def == nil {
		return fmt.Errorf("command %q has no slash definition", name)
	}
	return b.retry(ctx, func() error {
		_, err := b.dg.ApplicationCommandCreate(appID, guildID, def)
		return err
	})
}

// handleRefreshCommands processes a SystemEventRefreshCommands event.
func (b *Bot) handleRefreshCommands(ctx context.Context, evt SystemEvent) {
	log := b.log.With(zap.String("guild", evt.GuildID), zap.String("target", evt.Target))
	if b.cfg.IsGuildBlacklisted(evt.GuildID) {
		log.Info("ignoring refresh for blacklisted guild")
		return
	}

	var err error
	switch {
	case evt.Target == "", strings.EqualFold(evt.Target, "all"), strings.HasPrefix(evt.Target, "group:"):
		err = b.registerCommands(ctx, evt.GuildID)
	default:
		err = b.refreshSingle(ctx, evt.GuildID, evt.Target)
	}
	if err != nil {
		log.Error("failed to refresh commands", zap.Error(err))
		return
	}
	log.Info("commands refreshed")
}

// definitions returns the slash definitions of every registered command
// outside the disabled groups.
func (b *Bot) definitions(disabledGroups []string) []*discordgo.ApplicationCommand {
	var defs []*discordgo.ApplicationCommand
	for _, c := range b.registry.GetAll() {
		if meta, ok := cmd.As[command.DiscordMeta](c); ok && lo.Contains(disabledGroups, meta.Group()) {
			continue
		}
		if def := commandDefinition(c); def != nil {
			defs = append(defs, def)
		}
	}
	return defs
}

// commandDefinition extracts the ApplicationCommand definition from a registered command,
// looking below the middleware layers.
func commandDefinition(c cmd.Command) *discordgo.ApplicationCommand {
	slash, ok := cmd.As[command.SlashProvider](c)
	if !ok {
		return nil
	}
	def := slash.SlashDefinition()
	if def != nil && def.Type == 0 {
		def.Type = discordgo.ChatApplicationCommand
	}
	return def
}

// appID returns the bot's application ID, fetching from Discord if not cached in State.
func (b *Bot) appID() (string, error) {
	if u := b.dg.State.User; u != nil && u.ID != "" {
		return u.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("failed to fetch bot user: %w", err)
	}
	return u.ID, nil
}
