// Command seed-emails feeds a set of sample support emails through the triage
// pipeline, for demos and local development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"maildesk/internal/analysis"
	"maildesk/internal/cache"
	"maildesk/internal/config"
	"maildesk/internal/openai"
	"maildesk/internal/store"
	"maildesk/internal/triage"
)

type sampleEmail struct {
	sender  string
	subject string
	body    string
}

var samples = []sampleEmail{
	{
		sender:  "sarah.johnson@techcorp.com",
		subject: "Invoice discrepancy on March statement",
		body:    "Hello, I was charged twice on my last invoice and I would like a refund for the duplicate payment. Please review transaction #48211 and confirm the adjustment.",
	},
	{
		sender:  "m.chen@startupventure.io",
		subject: "CRITICAL: dashboard down for all users",
		body:    "Our entire team cannot access the analytics dashboard since this morning. Everything is broken and we have a board meeting in two hours. This is urgent, please fix immediately.",
	},
	{
		sender:  "emily.r@designstudio.com",
		subject: "Feature request: export to CSV",
		body:    "Hi! Is it possible to export report data to CSV? We currently copy numbers by hand and a feature like this would save us hours every week.",
	},
	{
		sender:  "david.kumar@university.edu",
		subject: "Security audit questionnaire",
		body:    "Dear team, our compliance department requires your current security certifications and details about data encryption at rest before we can renew the contract.",
	},
	{
		sender:  "lisa.thompson@nonprofit.org",
		subject: "Thank you!",
		body:    "I just wanted to say the onboarding experience was excellent and your support team has been great. We love the product!",
	},
	{
		sender:  "alex.rivera@smallbiz.co",
		subject: "Help getting started",
		body:    "I'm new to the platform and honestly a bit overwhelmed. I don't understand how to set up my first project. Could someone walk me through it?",
	},
}

func main() {
	cfg := config.Load()
	logger := cfg.SetupLogger()

	var completer analysis.ChatCompleter
	if client, err := openai.NewClient(cfg); err != nil {
		logger.Warn().Err(err).Msg("AI capability unavailable, seeding with fallback classifications")
	} else {
		completer = client
	}

	var st store.Store
	sqlStore, err := store.NewSQLStore(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("Database connection failed, seeding an in-memory store is pointless")
		fmt.Println("Set DATABASE_URL to seed a persistent store; aborting.")
		os.Exit(1)
	} else {
		st = sqlStore
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	analyzer := analysis.NewAnalyzer(completer)
	responder := analysis.NewResponder(completer)
	svc := triage.NewService(st, analyzer, responder, nil, cache.New(), time.Minute, logger)

	ctx := context.Background()
	seeded := 0
	for _, sample := range samples {
		result, err := svc.ProcessEmail(ctx, sample.sender, sample.subject, sample.body, time.Now().UTC())
		if err != nil {
			logger.Error().Err(err).Str("sender", sample.sender).Msg("Failed to seed email")
			continue
		}
		seeded++
		fmt.Printf("Seeded %s (priority=%s, sentiment=%s, auto-response=%v)\n",
			sample.sender, result.Email.Priority, result.Email.Sentiment, result.HasResponse)
	}

	fmt.Printf("Successfully seeded %d of %d sample emails\n", seeded, len(samples))
}
