// Command import-emails parses .eml files from a directory and runs each one
// through the triage pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"maildesk/internal/analysis"
	"maildesk/internal/cache"
	"maildesk/internal/config"
	"maildesk/internal/emails"
	"maildesk/internal/openai"
	"maildesk/internal/store"
	"maildesk/internal/triage"
)

func main() {
	dir := flag.String("dir", "", "directory containing .eml files (defaults to EMAIL_IMPORT_PATH)")
	flag.Parse()

	importPath := *dir
	if importPath == "" {
		importPath = os.Getenv("EMAIL_IMPORT_PATH")
	}
	if importPath == "" {
		importPath = "/emails"
	}

	cfg := config.Load()
	logger := cfg.SetupLogger()

	if _, err := os.Stat(importPath); os.IsNotExist(err) {
		fmt.Printf("Email directory not found: %s\n", importPath)
		os.Exit(1)
	}

	var completer analysis.ChatCompleter
	if client, err := openai.NewClient(cfg); err != nil {
		logger.Warn().Err(err).Msg("AI capability unavailable, importing with fallback classifications")
	} else {
		completer = client
	}

	st, err := store.NewSQLStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error().Err(err).Msg("Database connection failed")
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	parsed, err := emails.ParseDirectory(importPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse email directory")
		os.Exit(1)
	}
	fmt.Printf("Found %d emails under %s\n", len(parsed), importPath)

	analyzer := analysis.NewAnalyzer(completer)
	responder := analysis.NewResponder(completer)
	svc := triage.NewService(st, analyzer, responder, nil, cache.New(), time.Minute, logger)

	ctx := context.Background()
	processed := 0
	for i := range parsed {
		inbound := parsed[i]
		result, err := svc.ProcessEmail(ctx, inbound.Sender, inbound.Subject, inbound.Body, inbound.ReceivedAt)
		if err != nil {
			logger.Error().Err(err).Str("sender", inbound.Sender).Msg("Failed to process imported email")
			continue
		}
		processed++
		fmt.Printf("Imported %s (priority=%s, auto-response=%v)\n", inbound.Sender, result.Email.Priority, result.HasResponse)
	}

	fmt.Printf("Import complete: %d of %d emails processed\n", processed, len(parsed))
}
