// Command shillbot runs the Telegram meme bot and its share-card web
// server in one process. The bot turns free-text prompts into generated
// Pepe images with promo captions; the web server renders the Twitter/Open
// Graph card pages those shares link to.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pepemp3/shillbot/internal/admission"
	"github.com/pepemp3/shillbot/internal/artifact"
	"github.com/pepemp3/shillbot/internal/bot"
	"github.com/pepemp3/shillbot/internal/config"
	"github.com/pepemp3/shillbot/internal/generator"
	httpapi "github.com/pepemp3/shillbot/internal/http"
	"github.com/pepemp3/shillbot/internal/http/handlers"
	"github.com/pepemp3/shillbot/internal/observability"
	"github.com/pepemp3/shillbot/internal/points"
	"github.com/pepemp3/shillbot/internal/session"
	"github.com/pepemp3/shillbot/internal/sharing"
	"github.com/pepemp3/shillbot/internal/storage"
	"github.com/pepemp3/shillbot/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	logger := log.With().Str("service", "shillbot").Logger()
	logger.Info().Str("version", version).Msg("starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("otel setup failed")
	}

	store, err := storage.New(ctx, storage.Config{
		Bucket:        cfg.S3.Bucket,
		Region:        cfg.S3.Region,
		Endpoint:      cfg.S3.Endpoint,
		AccessKey:     cfg.S3.AccessKey,
		SecretKey:     cfg.S3.SecretKey,
		PublicBaseURL: cfg.S3.PublicBaseURL,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("storage init failed")
	}

	artifacts := artifact.NewCache(store, logger)
	registry := session.NewRegistry(logger, session.WithMaxAge(cfg.Session.MaxAge))
	ledger := points.NewLedger()

	shareOpts := []sharing.Option{
		sharing.WithCardBaseURL(cfg.Sharing.CardBaseURL),
		sharing.WithTweetBudget(cfg.Sharing.TweetBudget),
	}
	if cfg.Sharing.Attribution != "" {
		shareOpts = append(shareOpts, sharing.WithAttribution(cfg.Sharing.Attribution))
	}
	shares := sharing.NewCoordinator(artifacts, ledger, logger, shareOpts...)

	genOpts := []generator.Option{}
	if cfg.Gemini.BaseURL != "" {
		genOpts = append(genOpts, generator.WithBaseURL(cfg.Gemini.BaseURL))
	}
	if cfg.Gemini.ImageModel != "" || cfg.Gemini.CaptionModel != "" {
		genOpts = append(genOpts, generator.WithModels(cfg.Gemini.ImageModel, cfg.Gemini.CaptionModel))
	}
	gen := generator.NewClient(cfg.Gemini.APIKey, logger, genOpts...)

	// The membership gate needs the live Telegram connection, so the bot is
	// built first and the service attached after.
	tgBot, err := bot.New(bot.Config{
		Token:               cfg.Telegram.BotToken,
		RequiredChatID:      cfg.Telegram.RequiredChatID,
		RequiredChannelName: cfg.Telegram.RequiredChannelName,
		OperatorChatID:      cfg.Telegram.OperatorChatID,
		PollTimeout:         cfg.Telegram.PollTimeout,
	}, nil, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram connect failed")
	}

	membership := bot.NewChannelMembership(tgBot.Telebot(), cfg.Telegram.RequiredChatID)
	gate := admission.NewController(membership, registry, logger,
		admission.WithDailyLimit(cfg.Admission.DailyLimit),
		admission.WithCooldown(cfg.Admission.Cooldown),
	)
	svc := bot.NewService(gen, gate, artifacts, shares, ledger, logger)
	tgBot.AttachService(svc)

	// Background sweepers.
	go registry.RunSweeper(ctx, cfg.Session.SweepInterval)
	go gate.RunSweeper(ctx, cfg.Admission.SweepInterval)
	go store.RunCleanup(ctx, cfg.S3.CleanupInterval)

	// Card server.
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	h := handlers.New(handlers.Deps{
		Sessions:  registry,
		Artifacts: artifacts,
		Admission: gate,
		Shares:    shares,
		Scores:    ledger,
	}, cfg.Sharing.CardBaseURL, cfg.Sharing.PlaceholderImageURL)
	httpapi.RegisterRoutes(engine, h, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("card server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("card server failed")
		}
	}()

	go tgBot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	tgBot.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("card server shutdown failed")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("otel shutdown failed")
	}
	logger.Info().Msg("stopped")
}
