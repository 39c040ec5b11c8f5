// cmd/discord/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"tourney-bot/internal/command"
	"tourney-bot/internal/command/core"
	"tourney-bot/internal/command/esports"
	"tourney-bot/internal/config"
	"tourney-bot/internal/discord"
	"tourney-bot/internal/input"
	"tourney-bot/internal/logging"
	"tourney-bot/internal/middleware"
	"tourney-bot/internal/storage"
	"tourney-bot/pkg/cmd"
	"tourney-bot/pkg/jobmgr"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.New()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("bot exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("bot exited cleanly")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting tourney bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.StoragePath, storage.Options{
		AutosaveInterval: cfg.AutosaveInterval,
		Logger:           log.Named("datastore"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", zap.Error(err))
		}
	}()

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return err
	}

	jobs := jobmgr.NewManager(func(e jobmgr.Event) {
		if e.Err != nil {
			log.Warn("job failed", zap.String("job", e.Job), zap.Error(e.Err))
			return
		}
		log.Debug("job", zap.String("job", e.Job), zap.String("state", string(e.State)))
	})
	defer jobs.Shutdown()

	messenger := discord.NewMessenger(dg, log)
	waiter := input.NewWaiter()
	pipeline := input.New(waiter, discord.NewDirectory(dg),
		input.WithDeleter(messenger),
		input.WithLocation(cfg.Location()),
		input.WithTimeout(cfg.InputTimeout),
		input.WithHTTPClient(&http.Client{Timeout: cfg.ImageFetchTimeout}),
		input.WithLogger(log.Named("input")),
	)

	reg := cmd.NewRegistry()
	mws := []cmd.Middleware{
		middleware.WithGroupAccessCheck(),
		middleware.WithGuildOnly(),
		middleware.WithUserPermissionCheck(cfg),
		middleware.WithCommandLogger(log.Named("commands")),
	}

	coreDeps := core.Deps{
		Registry:  reg,
		Jobs:      jobs,
		Responder: messenger,
		Location:  cfg.Location(),
	}
	command.RegisterCommand(reg, core.NewHelp(coreDeps), mws...)
	command.RegisterCommand(reg, core.NewMaintenance(coreDeps), mws...)
	command.RegisterCommand(reg, esports.New(esports.Deps{
		Store:    store,
		Input:    pipeline,
		Messages: messenger,
		Jobs:     jobs,
		Idle:     cfg.EditorIdle,
		Log:      log,
	}), mws...)

	bot := discord.New(dg, cfg, store, reg, waiter, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(ctx) })
	return g.Wait()
}
