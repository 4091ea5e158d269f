package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"telegram-lang-bot/internal/config"
	"telegram-lang-bot/internal/infra/adapters/telegram"
	"telegram-lang-bot/internal/infra/db/postgres"
	"telegram-lang-bot/internal/infra/i18n"
	"telegram-lang-bot/internal/infra/logging"
	"telegram-lang-bot/internal/infra/metrics"
	"telegram-lang-bot/internal/infra/throttle"
	"telegram-lang-bot/internal/infra/web"
	"telegram-lang-bot/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	dev := flag.Bool("dev", false, "development mode (console logs)")
	flag.Parse()

	cfg, err := config.Load(*configPath, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("exiting")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Bot.Workers)+2)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
		return err
	}

	tr, err := i18n.Default(cfg.Locales.Supported, cfg.Locales.Fallback)
	if err != nil {
		return err
	}

	userRepo := postgres.NewPostgresUserRepo(pool)
	txManager := postgres.NewTxManager(pool)
	sessions := postgres.NewSessionFactory(pool)
	userUC := usecase.NewUserUseCase(userRepo, txManager, cfg.Locales.Supported, cfg.Locales.Fallback, logger)

	guard := throttle.NewGuard(cfg.Throttle.TTL, cfg.Throttle.Capacity,
		throttle.BucketDefault, throttle.BucketCallback)
	defer guard.Stop()

	bot, err := telegram.NewBot(cfg.Bot, logger)
	if err != nil {
		return err
	}
	unhandledLog := logging.NewUnhandled(cfg.Log, logger)
	pipeline := telegram.NewPipeline(bot, sessions, userUC, tr, guard, logger, unhandledLog)
	bot.AttachPipeline(pipeline)

	server := web.NewServer(cfg.Web.Port, logger)
	if cfg.Bot.Mode == "webhook" {
		path, err := webhookPath(cfg.Bot.WebhookURL)
		if err != nil {
			return err
		}
		server.MountWebhook(path, bot.WebhookHandler())
	}

	if err := bot.Startup(ctx, tr); err != nil {
		return err
	}
	if cfg.Bot.Mode != "webhook" {
		bot.StartPolling(ctx)
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bot.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	return nil
}

// webhookPath extracts the local mount path from the public webhook URL.
func webhookPath(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse webhook url: %w", err)
	}
	if u.Path == "" || !strings.HasPrefix(u.Path, "/") {
		return "", fmt.Errorf("webhook url %q needs a path to mount", raw)
	}
	return u.Path, nil
}
