package main

import (
	"time"

	"maildesk/internal/analysis"
	"maildesk/internal/cache"
	"maildesk/internal/config"
	"maildesk/internal/email"
	"maildesk/internal/openai"
	"maildesk/internal/server"
	"maildesk/internal/store"
	"maildesk/internal/triage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup logger
	logger := cfg.SetupLogger()

	// Initialize the completion capability; the pipeline degrades to
	// deterministic fallbacks when no provider is configured
	var completer analysis.ChatCompleter
	if client, err := openai.NewClient(cfg); err != nil {
		logger.Warn().Err(err).Msg("AI capability unavailable, triage will use fallback defaults")
	} else {
		completer = client
		logger.Info().Str("provider", client.GetProviderName()).Msg("AI capability initialized")
	}

	// Initialize the email store, falling back to memory when no database
	// is reachable
	var st store.Store
	sqlStore, err := store.NewSQLStore(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Database connection failed, using in-memory store")
		st = store.NewMemoryStore()
	} else {
		logger.Info().Msg("Database connection established successfully")
		st = sqlStore
	}

	// Assemble the triage pipeline
	analyzer := analysis.NewAnalyzer(completer)
	responder := analysis.NewResponder(completer)
	sender := email.NewSender(cfg.SendGridAPIKey, cfg.SupportEmail)
	statsTTL := time.Duration(cfg.StatsCacheTTL) * time.Minute
	triageService := triage.NewService(st, analyzer, responder, sender, cache.New(), statsTTL, logger)

	// Create and initialize server
	srv := server.New(cfg, st, triageService, logger)
	srv.Initialize()

	// Start server
	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}
