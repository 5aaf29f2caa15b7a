package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gatekeeper-bot/internal/bot"
	"gatekeeper-bot/internal/config"
	"gatekeeper-bot/internal/logging"
	"gatekeeper-bot/internal/repository"
	"gatekeeper-bot/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("bot stopped with error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	db, err := repository.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	client, err := bot.NewTelegramClient(cfg.TelegramToken, cfg.SendRate, logger)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(db)
	membershipSvc := service.NewMembershipService(client, cfg.ChannelID)
	reportSvc := service.NewReportService(userRepo)

	telegramBot, err := bot.New(bot.Dependencies{
		Messenger:  client,
		Membership: membershipSvc,
		Registry:   userRepo,
		Reports:    reportSvc,
		Links: bot.Links{
			ChannelID:    cfg.ChannelID,
			PhotoURL:     cfg.PhotoURL,
			SubscribeURL: cfg.SubscribeURL,
			WebAppURL:    cfg.WebAppURL,
		},
		AdminID: cfg.AdminID,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(time.Local)
	digest := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendAdminDigest(jobCtx); err != nil {
			logger.Warn("admin digest", zap.Error(err))
		}
	}
	if cfg.DigestAt != "" {
		if _, err := scheduler.ScheduleDaily(cfg.DigestAt, digest); err != nil {
			return err
		}
	}
	if cfg.DigestInterval > 0 {
		if _, err := scheduler.ScheduleInterval(cfg.DigestInterval, digest); err != nil {
			return err
		}
	}
	if scheduler.Len() > 0 {
		scheduler.Start()
		defer scheduler.Stop()
	}

	logger.Info("gatekeeper bot started", zap.String("channel", cfg.ChannelID))
	return telegramBot.Start(ctx, client)
}
