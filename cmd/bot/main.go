package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"realestate/server/config"
	"realestate/server/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadBotConfig(config.BotConfigPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to load bot configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Telegram")
	}
	logger.WithField("username", api.Self.UserName).Info("Authorized on Telegram")

	tokens := telegram.NewTokenStore(cfg.TokenTTL, logger)
	tokens.Start(cfg.SweepInterval)
	defer tokens.Stop()

	bot := telegram.New(telegram.Options{
		Messenger:     api,
		Catalog:       telegram.NewCatalogClient(cfg.APIBaseURL, cfg.RequestTimeout, logger),
		Tokens:        tokens,
		Admins:        telegram.NewAllowList(cfg.AdminChatIDs),
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		ReloadAdmins:  cfg.ReloadAdminChatIDs,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.PollTimeout
	updates := api.GetUpdatesChan(u)

	logger.WithFields(logrus.Fields{
		"api":    cfg.APIBaseURL,
		"admins": len(cfg.AdminChatIDs),
	}).Info("Bot is running")

	if err := bot.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("Bot stopped")
	}
	api.StopReceivingUpdates()
	logger.Info("Bot stopped")
}
