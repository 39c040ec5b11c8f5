package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tourney-bot/internal/command"
	"tourney-bot/internal/config"
	"tourney-bot/internal/input"
	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"
	"tourney-bot/pkg/retrylimit"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Bot is a Discord bot
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	registry *cmd.Registry
	waiter   *input.Waiter
	cache    commandCache
	limiter  *retrylimit.AdaptiveLimiter
	log      *zap.Logger

	mu          sync.Mutex
	ctx         context.Context
	readyGuilds map[string]bool
}

// New wires a bot around an unopened session.
func New(dg *discordgo.Session, cfg *config.Config, store *storage.Storage, reg *cmd.Registry, w *input.Waiter, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		dg:          dg,
		cfg:         cfg,
		storage:     store,
		registry:    reg,
		waiter:      w,
		cache:       commandCache{dir: cfg.CommandCachePath},
		limiter:     retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		log:         log.Named("discord"),
		ctx:         context.Background(),
		readyGuilds: make(map[string]bool),
	}
}

// Run opens the gateway and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.ctx = ctx
	b.mu.Unlock()

	b.dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent
	b.dg.StateEnabled = true

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("shutdown signal received, closing session")
			return nil
		case evt := <-SystemEvents():
			if evt.Type == SystemEventRefreshCommands {
				go b.handleRefreshCommands(ctx, evt)
			}
		}
	}
}

func (b *Bot) context() context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctx
}

// onReady leaves blacklisted guilds and syncs commands for the rest.
func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	var guildIDs []string
	for _, g := range r.Guilds {
		if b.cfg.IsGuildBlacklisted(g.ID) {
			b.leave(s, g.ID)
			continue
		}
		guildIDs = append(guildIDs, g.ID)
	}

	b.mu.Lock()
	for _, id := range guildIDs {
		b.readyGuilds[id] = true
	}
	b.mu.Unlock()

	if b.cfg.InitSlashCommands {
		go b.registerAll(b.context(), guildIDs)
	} else {
		b.log.Info("slash command registration skipped")
	}

	b.log.Info("discord bot is running",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(guildIDs)))
}

// onGuildCreate handles guilds joined after startup; guilds listed in
// Ready are synced by onReady.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.cfg.IsGuildBlacklisted(g.ID) {
		b.leave(s, g.ID)
		return
	}

	b.mu.Lock()
	known := b.readyGuilds[g.ID]
	b.readyGuilds[g.ID] = true
	b.mu.Unlock()
	if known || !b.cfg.InitSlashCommands {
		return
	}

	b.log.Info("bot added to guild", zap.String("guild", g.ID), zap.String("name", g.Name))
	if err := b.registerCommands(b.context(), g.ID); err != nil {
		b.log.Error("failed to register commands for new guild", zap.String("guild", g.ID), zap.Error(err))
	}
}

func (b *Bot) leave(s *discordgo.Session, guildID string) {
	b.log.Info("leaving blacklisted guild", zap.String("guild", guildID))
	if err := s.GuildLeave(guildID); err != nil {
		b.log.Error("failed to leave guild", zap.String("guild", guildID), zap.Error(err))
	}
}

// onMessageCreate hands every message except the bot's own to pending
// input requests.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || (s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if n := b.waiter.Dispatch(input.FromMessage(m.Message)); n > 0 {
		b.log.Debug("message answered input request",
			zap.String("channel", m.ChannelID),
			zap.String("author", m.Author.ID))
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := b.context()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		c := b.registry.Get(name)
		if c == nil {
			b.log.Warn("unknown command", zap.String("command", name))
			return
		}
		data := &command.SlashInteractionContext{Session: s, Event: i, Storage: b.storage}
		if err := c.Run(ctx, &cmd.Invocation{Data: data}); err != nil {
			b.log.Error("slash command failed", zap.String("command", name), zap.Error(err))
			_ = RespondEmbedEphemeral(s, i, &discordgo.MessageEmbed{
				Description: fmt.Sprintf("Error running slash command: %v", err),
			})
		}

	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		c := b.componentOwner(customID)
		if c == nil {
			b.log.Warn("no command for component", zap.String("custom_id", customID))
			return
		}
		data := &command.ComponentInteractionContext{Session: s, Event: i, Storage: b.storage}
		if err := c.Run(ctx, &cmd.Invocation{Data: data}); err != nil {
			b.log.Error("component failed", zap.String("custom_id", customID), zap.Error(err))
		}

	default:
		b.log.Debug("unhandled interaction type", zap.Int("type", int(i.Type)))
	}
}

// componentOwner finds the command whose name prefixes customID as "name:".
func (b *Bot) componentOwner(customID string) cmd.Command {
	for _, c := range b.registry.GetAll() {
		if !strings.HasPrefix(customID, c.Name()+":") {
			continue
		}
		if a, ok := cmd.As[*command.DiscordAdapter](c); ok && a.HandlesComponents() {
			return c
		}
	}
	return nil
}
