// Package analysis wraps the AI classification and response-generation calls
// used by the triage pipeline. Every adapter in this package degrades to a
// typed default on failure so one failing call never blocks the pipeline.
package analysis

import (
	"context"
	"fmt"

	"maildesk/internal/models"
	"maildesk/internal/openai"
	"maildesk/internal/utils"
)

// ChatCompleter is the completion capability the adapters depend on.
// *openai.Client satisfies it; tests substitute a fake.
type ChatCompleter interface {
	CompletionJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// maxPromptBodyRunes bounds how much of an email body is sent to the model
const maxPromptBodyRunes = 8000

// SentimentAnalysis is the result of a sentiment classification call
type SentimentAnalysis struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"` // 0.0-1.0
	Reasoning  string  `json:"reasoning"`
}

// PriorityAnalysis is the result of a priority classification call
type PriorityAnalysis struct {
	Priority   string   `json:"priority"`
	Confidence float64  `json:"confidence"` // 0.0-1.0
	Keywords   []string `json:"keywords"`
}

// EmailInformation is the structured information extracted from an email
type EmailInformation struct {
	PhoneNumbers         []string `json:"phoneNumbers"`
	AlternateEmails      []string `json:"alternateEmails"`
	Category             string   `json:"category"`
	CustomerRequirements []string `json:"customerRequirements"`
	SentimentIndicators  []string `json:"sentimentIndicators"`
}

// Analyzer runs the three independent classification passes over an email.
// A nil completer means the capability is unavailable; every call then
// returns its documented fallback immediately.
type Analyzer struct {
	completer ChatCompleter
}

// NewAnalyzer creates an analyzer backed by the given completion capability
func NewAnalyzer(completer ChatCompleter) *Analyzer {
	return &Analyzer{completer: completer}
}

const sentimentSystemPrompt = `You are a sentiment analysis expert. Analyze the sentiment of customer support emails.
Consider the subject line and email body together.
Respond with JSON in this format:
{ "sentiment": "positive|negative|neutral", "confidence": 0.0-1.0, "reasoning": "brief explanation" }`

// AnalyzeSentiment classifies the sentiment of an email. It never returns an
// error: any failure of the underlying capability yields the neutral fallback.
func (a *Analyzer) AnalyzeSentiment(ctx context.Context, body, subject string) SentimentAnalysis {
	fallback := SentimentAnalysis{
		Sentiment:  models.SentimentNeutral,
		Confidence: 0.5,
		Reasoning:  "Error during analysis",
	}

	if a.completer == nil {
		return fallback
	}

	userPrompt := fmt.Sprintf("Subject: %s\n\nEmail Body: %s", subject, utils.Truncate(body, maxPromptBodyRunes))
	content, err := a.completer.CompletionJSON(ctx, sentimentSystemPrompt, userPrompt)
	if err != nil {
		fmt.Printf("[ANALYSIS] Sentiment analysis failed: %v\n", err)
		return fallback
	}

	var result SentimentAnalysis
	if err := openai.DecodeJSON(content, &result); err != nil {
		fmt.Printf("[ANALYSIS] Sentiment analysis returned invalid JSON: %v\n", err)
		return fallback
	}

	if result.Sentiment == "" {
		result.Sentiment = models.SentimentNeutral
	}
	if result.Confidence == 0 {
		result.Confidence = 0.5
	}
	result.Confidence = clamp01(result.Confidence)
	if result.Reasoning == "" {
		result.Reasoning = "Unable to determine reasoning"
	}

	return result
}

const prioritySystemPrompt = `You are an email priority classification expert.
Classify emails as "urgent" or "normal" based on keywords and context.
Urgent indicators: "immediately", "critical", "cannot access", "urgent", "asap", "emergency", "broken", "not working", "failed", "error", "issue", "problem".
Respond with JSON: { "priority": "urgent|normal", "confidence": 0.0-1.0, "keywords": ["keyword1", "keyword2"] }`

// AnalyzePriority classifies an email as urgent or normal. It never returns
// an error: any failure yields the normal-priority fallback.
func (a *Analyzer) AnalyzePriority(ctx context.Context, body, subject string) PriorityAnalysis {
	fallback := PriorityAnalysis{
		Priority:   models.PriorityNormal,
		Confidence: 0.5,
		Keywords:   []string{},
	}

	if a.completer == nil {
		return fallback
	}

	userPrompt := fmt.Sprintf("Subject: %s\n\nEmail Body: %s", subject, utils.Truncate(body, maxPromptBodyRunes))
	content, err := a.completer.CompletionJSON(ctx, prioritySystemPrompt, userPrompt)
	if err != nil {
		fmt.Printf("[ANALYSIS] Priority analysis failed: %v\n", err)
		return fallback
	}

	var result PriorityAnalysis
	if err := openai.DecodeJSON(content, &result); err != nil {
		fmt.Printf("[ANALYSIS] Priority analysis returned invalid JSON: %v\n", err)
		return fallback
	}

	if result.Priority != models.PriorityUrgent {
		result.Priority = models.PriorityNormal
	}
	if result.Confidence == 0 {
		result.Confidence = 0.5
	}
	result.Confidence = clamp01(result.Confidence)
	if result.Keywords == nil {
		result.Keywords = []string{}
	}

	return result
}

const extractSystemPrompt = `Extract key information from customer support emails.
Find phone numbers, alternate emails, categorize the issue, identify customer requirements, and sentiment indicators.
Respond with JSON: {
  "phoneNumbers": ["phone1", "phone2"],
  "alternateEmails": ["email1@example.com"],
  "category": "Account Issues|Billing Questions|Technical Support|General Inquiry|Other",
  "customerRequirements": ["requirement1", "requirement2"],
  "sentimentIndicators": ["frustrated", "happy", "confused"]
}`

// ExtractInformation pulls structured details from an email. It never returns
// an error: any failure yields empty collections and the default category.
func (a *Analyzer) ExtractInformation(ctx context.Context, body, subject, sender string) EmailInformation {
	fallback := EmailInformation{
		PhoneNumbers:         []string{},
		AlternateEmails:      []string{},
		Category:             models.DefaultCategory,
		CustomerRequirements: []string{},
		SentimentIndicators:  []string{},
	}

	if a.completer == nil {
		return fallback
	}

	userPrompt := fmt.Sprintf("From: %s\nSubject: %s\n\nEmail Body: %s", sender, subject, utils.Truncate(body, maxPromptBodyRunes))
	content, err := a.completer.CompletionJSON(ctx, extractSystemPrompt, userPrompt)
	if err != nil {
		fmt.Printf("[ANALYSIS] Information extraction failed: %v\n", err)
		return fallback
	}

	var result EmailInformation
	if err := openai.DecodeJSON(content, &result); err != nil {
		fmt.Printf("[ANALYSIS] Information extraction returned invalid JSON: %v\n", err)
		return fallback
	}

	if result.PhoneNumbers == nil {
		result.PhoneNumbers = []string{}
	}
	if result.AlternateEmails == nil {
		result.AlternateEmails = []string{}
	}
	if result.Category == "" {
		result.Category = models.DefaultCategory
	}
	if result.CustomerRequirements == nil {
		result.CustomerRequirements = []string{}
	}
	if result.SentimentIndicators == nil {
		result.SentimentIndicators = []string{}
	}

	return result
}

// clamp01 bounds a confidence score to [0, 1]
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
