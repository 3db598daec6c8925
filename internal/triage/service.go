// Package triage orchestrates the email support pipeline: classification,
// persistence, conditional response generation, finalization and the
// dashboard listing facade.
package triage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"maildesk/internal/analysis"
	"maildesk/internal/cache"
	"maildesk/internal/models"
	"maildesk/internal/store"

	"github.com/rs/zerolog"
)

// GenericFallbackResponse is returned by GenerateResponseForEmail when
// generation or persistence fails; the endpoint backs an interactive button
// and must never fail visibly.
const GenericFallbackResponse = "Thank you for contacting us. We have received your message and our support team will get back to you within 24 hours."

// Analyzer runs the three independent classification passes. Calls never
// return errors; failures degrade to documented defaults inside the adapter.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, body, subject string) analysis.SentimentAnalysis
	AnalyzePriority(ctx context.Context, body, subject string) analysis.PriorityAnalysis
	ExtractInformation(ctx context.Context, body, subject, sender string) analysis.EmailInformation
}

// Responder drafts a reply given the email plus the classification outputs
type Responder interface {
	GenerateResponse(ctx context.Context, body, subject, sender, sentiment, priority string, info analysis.EmailInformation) analysis.ResponseGeneration
}

// ReplySender delivers finalized responses back to customers
type ReplySender interface {
	Enabled() bool
	SendReply(recipient, subject, body string) error
}

const statsCacheKey = "dashboard_stats"

// Service is the email triage pipeline
type Service struct {
	store     store.Store
	analyzer  Analyzer
	responder Responder
	sender    ReplySender
	cache     *cache.Cache
	statsTTL  time.Duration
	logger    zerolog.Logger
}

// NewService creates the triage pipeline with its injected collaborators
func NewService(st store.Store, analyzer Analyzer, responder Responder, sender ReplySender, c *cache.Cache, statsTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		store:     st,
		analyzer:  analyzer,
		responder: responder,
		sender:    sender,
		cache:     c,
		statsTTL:  statsTTL,
		logger:    logger,
	}
}

// ProcessEmail triages one raw inbound email: the three classification calls
// run concurrently, the email record is persisted with the combined results,
// and urgent emails get a response generated and persisted immediately.
// Persistence failure for the email record is the one error that propagates;
// response generation problems degrade and never fail the call.
func (s *Service) ProcessEmail(ctx context.Context, sender, subject, body string, receivedAt time.Time) (*models.EmailWithResponse, error) {
	var (
		sentiment analysis.SentimentAnalysis
		priority  analysis.PriorityAnalysis
		info      analysis.EmailInformation
	)

	// Fan-out: the three classifier calls are independent reads; each branch
	// converts its own failures into defaults, so the join is error-free.
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		sentiment = s.analyzer.AnalyzeSentiment(ctx, body, subject)
	}()
	go func() {
		defer wg.Done()
		priority = s.analyzer.AnalyzePriority(ctx, body, subject)
	}()
	go func() {
		defer wg.Done()
		info = s.analyzer.ExtractInformation(ctx, body, subject, sender)
	}()
	wg.Wait()

	category := info.Category
	if category == "" {
		category = models.DefaultCategory
	}

	emailRecord := &models.Email{
		Sender:     sender,
		Subject:    subject,
		Body:       body,
		ReceivedAt: receivedAt,
		Priority:   priority.Priority,
		Sentiment:  sentiment.Sentiment,
		Category:   category,
		ExtractedInfo: models.ExtractedInfo{
			PhoneNumbers:         info.PhoneNumbers,
			AlternateEmails:      info.AlternateEmails,
			Category:             category,
			CustomerRequirements: info.CustomerRequirements,
			SentimentIndicators:  info.SentimentIndicators,
			SentimentConfidence:  sentiment.Confidence,
			SentimentReasoning:   sentiment.Reasoning,
			PriorityConfidence:   priority.Confidence,
			PriorityKeywords:     priority.Keywords,
		},
	}

	if err := s.store.CreateEmail(ctx, emailRecord); err != nil {
		return nil, fmt.Errorf("failed to store email: %w", err)
	}
	s.cache.Delete(statsCacheKey)

	s.logger.Info().
		Str("email_id", emailRecord.ID).
		Str("priority", emailRecord.Priority).
		Str("sentiment", emailRecord.Sentiment).
		Str("category", emailRecord.Category).
		Msg("Email triaged")

	result := &models.EmailWithResponse{Email: *emailRecord}

	// Urgent emails get an immediate draft; failures here degrade, they never
	// fail the already-persisted email.
	if priority.Priority == models.PriorityUrgent {
		generated := s.responder.GenerateResponse(ctx, body, subject, sender, sentiment.Sentiment, priority.Priority, info)
		response := &models.EmailResponse{
			EmailID:           emailRecord.ID,
			GeneratedResponse: generated.Response,
			Confidence:        confidencePercent(generated.Confidence),
		}
		if err := s.store.CreateResponse(ctx, response); err != nil {
			s.logger.Error().Err(err).Str("email_id", emailRecord.ID).Msg("Failed to store auto-generated response")
		} else {
			result.HasResponse = true
			result.Response = response
		}
	}

	return result, nil
}

// GenerateResponseForEmail returns the response text for an email, generating
// and persisting one if none exists yet. Generation is at-most-once per
// email: an existing response is returned unchanged. The only error returned
// is store.ErrEmailNotFound; anything else degrades to the generic fallback.
func (s *Service) GenerateResponseForEmail(ctx context.Context, emailID string) (string, error) {
	emailRecord, err := s.store.GetEmail(ctx, emailID)
	if err != nil {
		if errors.Is(err, store.ErrEmailNotFound) {
			return "", err
		}
		s.logger.Error().Err(err).Str("email_id", emailID).Msg("Failed to fetch email for generation")
		return GenericFallbackResponse, nil
	}

	existing, err := s.store.GetResponsesByEmail(ctx, emailID)
	if err != nil {
		s.logger.Error().Err(err).Str("email_id", emailID).Msg("Failed to fetch existing responses")
		return GenericFallbackResponse, nil
	}
	if len(existing) > 0 {
		return existing[0].GeneratedResponse, nil
	}

	// Rehydrate the extraction results persisted at triage time so on-demand
	// generation sees the same context as the urgent auto-response path
	info := analysis.EmailInformation{
		PhoneNumbers:         emailRecord.ExtractedInfo.PhoneNumbers,
		AlternateEmails:      emailRecord.ExtractedInfo.AlternateEmails,
		Category:             emailRecord.Category,
		CustomerRequirements: emailRecord.ExtractedInfo.CustomerRequirements,
		SentimentIndicators:  emailRecord.ExtractedInfo.SentimentIndicators,
	}
	generated := s.responder.GenerateResponse(ctx, emailRecord.Body, emailRecord.Subject, emailRecord.Sender,
		emailRecord.Sentiment, emailRecord.Priority, info)

	response := &models.EmailResponse{
		EmailID:           emailID,
		GeneratedResponse: generated.Response,
		Confidence:        confidencePercent(generated.Confidence),
	}
	if err := s.store.CreateResponse(ctx, response); err != nil {
		if errors.Is(err, store.ErrResponseExists) {
			// Lost a concurrent race; return the winner's text
			winners, fetchErr := s.store.GetResponsesByEmail(ctx, emailID)
			if fetchErr == nil && len(winners) > 0 {
				return winners[0].GeneratedResponse, nil
			}
		}
		s.logger.Error().Err(err).Str("email_id", emailID).Msg("Failed to store generated response")
		return GenericFallbackResponse, nil
	}
	s.cache.Delete(statsCacheKey)

	return response.GeneratedResponse, nil
}

// SendResponse finalizes the response for an email: records the text actually
// sent, whether it was edited, and the send time. This is the only mutation
// path for a response. Delivery to the customer is best-effort; the record
// update is the contract.
func (s *Service) SendResponse(ctx context.Context, emailID, finalText string) (*models.EmailResponse, error) {
	responses, err := s.store.GetResponsesByEmail(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch response: %w", err)
	}
	if len(responses) == 0 {
		return nil, store.ErrResponseNotFound
	}

	response := responses[0]
	now := time.Now().UTC()
	response.FinalResponse = &finalText
	response.SentAt = &now
	response.IsEdited = finalText != response.GeneratedResponse

	if err := s.store.UpdateResponse(ctx, &response); err != nil {
		return nil, fmt.Errorf("failed to update response: %w", err)
	}
	s.cache.Delete(statsCacheKey)

	if s.sender != nil && s.sender.Enabled() {
		emailRecord, err := s.store.GetEmail(ctx, emailID)
		if err != nil {
			s.logger.Error().Err(err).Str("email_id", emailID).Msg("Failed to fetch email for delivery")
		} else if err := s.sender.SendReply(emailRecord.Sender, emailRecord.Subject, finalText); err != nil {
			s.logger.Error().Err(err).Str("email_id", emailID).Msg("Failed to deliver response")
		} else {
			s.logger.Info().Str("email_id", emailID).Str("recipient", emailRecord.Sender).Msg("Response delivered")
		}
	}

	return &response, nil
}

// ListEmails returns the triage queue: emails joined with their zero-or-one
// response, urgent before normal, each group newest first.
func (s *Service) ListEmails(ctx context.Context, limit, offset int) ([]models.EmailWithResponse, error) {
	emails, err := s.store.ListEmails(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}

	result := make([]models.EmailWithResponse, 0, len(emails))
	for i := range emails {
		entry := models.EmailWithResponse{Email: emails[i]}
		responses, err := s.store.GetResponsesByEmail(ctx, emails[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch response for email %s: %w", emails[i].ID, err)
		}
		if len(responses) > 0 {
			entry.HasResponse = true
			entry.Response = &responses[0]
		}
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i].Email, result[j].Email
		if a.Priority != b.Priority {
			return a.Priority == models.PriorityUrgent
		}
		return a.ReceivedAt.After(b.ReceivedAt)
	})

	return result, nil
}

// Stats returns aggregate dashboard counts, cached for the configured TTL
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		if stats, ok := cached.(*models.Stats); ok {
			return stats, nil
		}
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	s.cache.Set(statsCacheKey, stats, s.statsTTL)
	return stats, nil
}

// confidencePercent converts a 0.0-1.0 confidence into the stored 0-100 scale
func confidencePercent(confidence float64) int {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 100
	}
	return int(math.Round(confidence * 100))
}
