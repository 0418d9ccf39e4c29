package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docbot/internal/config"
	"docbot/internal/domain/conversation"
	"docbot/internal/domain/docsearch"
	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
	"docbot/internal/infrastructure/assistant"
	"docbot/internal/infrastructure/database"
	docsearchclient "docbot/internal/infrastructure/docsearch"
	"docbot/internal/infrastructure/logger"
	"docbot/internal/infrastructure/observability"
	transcriptrepo "docbot/internal/infrastructure/repository/transcript"
	"docbot/internal/interfaces/chat"
	"docbot/internal/interfaces/httpserver"
	"docbot/internal/webhook"
	"docbot/internal/worker"
)

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	// Transcript persistence is optional; an empty DATABASE_URL runs the
	// service stateless.
	var store conversation.TranscriptStore
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(database.Config{
			DSN:             cfg.DatabaseURL,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("connect database")
		}
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			log.Fatal().Err(err).Msg("migrate database")
		}
		store = transcriptrepo.NewPostgresRepository(db)
	} else {
		log.Info().Msg("DATABASE_URL is empty, using in-memory transcript store")
		store = conversation.NewMemoryStore()
	}

	assistantCfg := assistant.Config{
		BaseURL:            cfg.AssistantBaseURL,
		APIKey:             cfg.AssistantAPIKey,
		APIVersion:         cfg.AssistantAPIVer,
		UseManagedIdentity: cfg.UseManagedIdentity,
		VectorStoreID:      cfg.VectorStoreID,
	}
	if cfg.UseManagedIdentity {
		assistantCfg.TokenSource = assistant.FileTokenSource(cfg.TokenFile)
	}
	assistantClient := assistant.NewClient(assistantCfg)

	docsClient := docsearchclient.NewClient(cfg.DocsAPIURL, cfg.DocsAPIKey)

	registry := tool.NewRegistry(log)
	for _, def := range docsearch.Tools(docsClient) {
		registry.Register(def)
	}

	poller := run.NewPoller(assistantClient, run.PollPolicy{
		InitialDelay: cfg.PollInitialDelay,
		MaxDelay:     cfg.PollMaxDelay,
		MaxAttempts:  cfg.PollMaxAttempts,
	}, log)
	dispatcher := run.NewDispatcher(assistantClient, registry, cfg.ToolTimeout, log)
	orchestrator := run.NewOrchestrator(
		assistantClient,
		cfg.AssistantID,
		registry,
		poller,
		dispatcher,
		docsearch.RecoveryRules(),
		log,
	)

	sessionFactory := func() *conversation.Session {
		return conversation.NewSession(assistantClient, orchestrator, store, log)
	}

	gateway := webhook.NewHTTPService(cfg.ChatWebhookURL, log)
	router := chat.NewRouter(gateway, sessionFactory, cfg.ChatMessageLimit, log)

	pool := worker.NewPool(router, worker.Config{
		WorkerCount:  cfg.ChatWorkerCount,
		QueueSize:    cfg.ChatQueueSize,
		EventTimeout: cfg.ChatEventTimeout,
	}, log)
	pool.Start(ctx)
	defer pool.Stop()

	server := httpserver.New(cfg, pool, log)
	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}

	log.Info().Msg("server exited")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
