package models

import "time"

// Priority levels assigned to inbound emails
const (
	PriorityUrgent = "urgent"
	PriorityNormal = "normal"
)

// Sentiment values assigned to inbound emails
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// DefaultCategory is used when information extraction yields no category
const DefaultCategory = "General Inquiry"

// Email represents one inbound support message with its derived triage fields.
// The derived fields (priority, sentiment, category, extracted info) are set
// once by the triage pipeline at creation and never mutated afterward.
type Email struct {
	ID            string        `db:"id" json:"id" example:"9f1c8f0a-2d6e-4b8a-9c3f-1a2b3c4d5e6f"`
	Sender        string        `db:"sender" json:"sender" example:"customer@example.com"`
	Subject       string        `db:"subject" json:"subject" example:"Account locked"`
	Body          string        `db:"body" json:"body"`
	ReceivedAt    time.Time     `db:"received_at" json:"receivedAt"`
	Priority      string        `db:"priority" json:"priority" example:"urgent"`
	Sentiment     string        `db:"sentiment" json:"sentiment" example:"negative"`
	Category      string        `db:"category" json:"category" example:"Technical Support"`
	ExtractedInfo ExtractedInfo `db:"-" json:"extractedInfo"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`
}

// ExtractedInfo is the structured bag of information pulled from an email,
// plus the raw confidence/reasoning from each classifier call for audit.
type ExtractedInfo struct {
	PhoneNumbers         []string `json:"phoneNumbers"`
	AlternateEmails      []string `json:"alternateEmails"`
	Category             string   `json:"category"`
	CustomerRequirements []string `json:"customerRequirements"`
	SentimentIndicators  []string `json:"sentimentIndicators"`
	// Audit trail from the classifier calls
	SentimentConfidence float64  `json:"sentimentConfidence"`
	SentimentReasoning  string   `json:"sentimentReasoning"`
	PriorityConfidence  float64  `json:"priorityConfidence"`
	PriorityKeywords    []string `json:"priorityKeywords"`
}

// EmailResponse represents the (at most one) generated reply for an Email.
// It is mutated exactly once, when the response is sent: FinalResponse is set
// to the text that was actually sent, IsEdited records whether a human changed
// it, and SentAt is stamped with the send time.
type EmailResponse struct {
	ID                string     `db:"id" json:"id"`
	EmailID           string     `db:"email_id" json:"emailId"`
	GeneratedResponse string     `db:"generated_response" json:"generatedResponse"`
	Confidence        int        `db:"confidence" json:"confidence" example:"85"` // 0-100
	IsEdited          bool       `db:"is_edited" json:"isEdited"`
	FinalResponse     *string    `db:"final_response" json:"finalResponse,omitempty"`
	SentAt            *time.Time `db:"sent_at" json:"sentAt,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
}

// EmailWithResponse joins an email with its zero-or-one generated response
// for dashboard consumption.
type EmailWithResponse struct {
	Email       Email          `json:"email"`
	HasResponse bool           `json:"hasResponse"`
	Response    *EmailResponse `json:"response,omitempty"`
}
