package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"kinobot/internal/access"
	"kinobot/internal/bot"
	"kinobot/internal/catalog"
	"kinobot/internal/config"
	"kinobot/internal/daemon"
	"kinobot/internal/delivery"
	"kinobot/internal/ingest"
	"kinobot/internal/library"
	"kinobot/internal/logging"
	"kinobot/internal/texts"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog store", logging.Error(err))
		return
	}

	tc, err := texts.Load(cfg.Languages.Default, cfg.Languages.Supported)
	if err != nil {
		logger.Error("load translations", logging.Error(err))
		store.Close()
		return
	}

	lib := library.New(cfg.Paths.MoviesDir)
	dispatcher := bot.NewDispatcher(
		cfg,
		store,
		tc,
		access.NewList(cfg.Bot.AdminIDs),
		ingest.NewPipeline(store, lib, logger),
		delivery.NewDeliverer(store, lib, logger),
		lib,
		nil,
		logger,
	)

	d, err := daemon.New(cfg, store, dispatcher, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("kinobotd shutting down")
}
