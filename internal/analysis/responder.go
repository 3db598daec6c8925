package analysis

import (
	"context"
	"fmt"

	"maildesk/internal/openai"
	"maildesk/internal/utils"
)

// ResponseGeneration is the result of drafting a reply to an email
type ResponseGeneration struct {
	Response   string  `json:"response"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"` // 0.0-1.0
}

// Responder drafts replies to emails using the completion capability, falling
// back to deterministic keyword-bucket templates when the capability fails.
// A user always receives a plausible, personalized draft.
type Responder struct {
	completer ChatCompleter
}

// NewResponder creates a responder backed by the given completion capability
func NewResponder(completer ChatCompleter) *Responder {
	return &Responder{completer: completer}
}

// GenerateResponse drafts a reply for the email using all the collected
// triage context. It never returns an error: on any failure the templated
// fallback reply is selected by keyword heuristics over the body and subject.
func (r *Responder) GenerateResponse(ctx context.Context, body, subject, sender, sentiment, priority string, info EmailInformation) ResponseGeneration {
	if r.completer == nil {
		return fallbackResponse(body, subject, sender, sentiment)
	}

	// Tone selection informs the prompt, not just logging
	toneInstruction := "professional and helpful"
	if sentiment == "negative" {
		toneInstruction = "empathetic and apologetic while being solution-focused"
	} else if priority == "urgent" {
		toneInstruction = "urgent yet reassuring, acknowledging the importance of their request"
	}

	systemPrompt := fmt.Sprintf(`You are a professional customer support representative.
Generate contextual responses to customer emails.
- Use a %s tone
- Reference specific details from the customer's email
- Provide actionable solutions or next steps
- Be concise but thorough
- End with appropriate contact information or follow-up steps

Customer Context:
- Sentiment: %s
- Priority: %s
- Category: %s

Respond with JSON: {
  "response": "the email response text",
  "tone": "description of tone used",
  "confidence": 0.0-1.0
}`, toneInstruction, sentiment, priority, info.Category)

	userPrompt := fmt.Sprintf(`Customer Email:
From: %s
Subject: %s

%s

Please generate an appropriate response.`, sender, subject, utils.Truncate(body, maxPromptBodyRunes))

	content, err := r.completer.CompletionJSON(ctx, systemPrompt, userPrompt)
	if err != nil {
		fmt.Printf("[ANALYSIS] Response generation failed: %v\n", err)
		return fallbackResponse(body, subject, sender, sentiment)
	}

	var result ResponseGeneration
	if err := openai.DecodeJSON(content, &result); err != nil {
		fmt.Printf("[ANALYSIS] Response generation returned invalid JSON: %v\n", err)
		return fallbackResponse(body, subject, sender, sentiment)
	}

	if result.Response == "" {
		result.Response = "Thank you for your email. We will get back to you shortly."
	}
	if result.Tone == "" {
		result.Tone = toneInstruction
	}
	if result.Confidence == 0 {
		result.Confidence = 0.8
	}
	result.Confidence = clamp01(result.Confidence)

	return result
}
