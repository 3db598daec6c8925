package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// ProcessEmailRequest represents a raw inbound email supplied to the pipeline
// @Description Inbound email payload
type ProcessEmailRequest struct {
	Sender     string     `json:"sender" example:"customer@example.com"`
	Subject    string     `json:"subject" example:"Cannot log in"`
	Body       string     `json:"body"`
	ReceivedAt *time.Time `json:"receivedAt,omitempty"` // Defaults to now when omitted
}

// ProcessEmailResponse represents the result of triaging one inbound email
// @Description Triage result payload
type ProcessEmailResponse struct {
	Success bool               `json:"success" example:"true"`
	Email   *EmailWithResponse `json:"email,omitempty"`
	Error   string             `json:"error,omitempty" example:""`
}

// EmailListResponse represents the triage queue for the dashboard
// @Description Email list payload, urgent first then newest first
type EmailListResponse struct {
	Success bool                `json:"success" example:"true"`
	Emails  []EmailWithResponse `json:"emails,omitempty"`
	Count   int                 `json:"count" example:"25"`
	Error   string              `json:"error,omitempty" example:""`
}

// GenerateResponseResponse represents the result of on-demand generation
// @Description Generated response payload
type GenerateResponseResponse struct {
	Success  bool   `json:"success" example:"true"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty" example:""`
}

// SendResponseRequest represents the finalize/send request for a response
// @Description Send response payload
type SendResponseRequest struct {
	FinalResponse string `json:"finalResponse"` // Text actually sent, possibly edited
}

// SendResponseResponse represents the result of finalizing a response
// @Description Send result payload
type SendResponseResponse struct {
	Success  bool           `json:"success" example:"true"`
	Response *EmailResponse `json:"response,omitempty"`
	Error    string         `json:"error,omitempty" example:""`
}

// Stats holds aggregate counts for the dashboard cards
type Stats struct {
	TotalEmails        int     `json:"totalEmails"`
	UrgentEmails       int     `json:"urgentEmails"`
	ResponsesGenerated int     `json:"responsesGenerated"`
	ResponsesSent      int     `json:"responsesSent"`
	AverageConfidence  float64 `json:"averageConfidence"` // 0-100, over generated responses
}

// StatsResponse represents the API response for dashboard stats
// @Description Dashboard stats payload
type StatsResponse struct {
	Success bool   `json:"success" example:"true"`
	Stats   *Stats `json:"stats,omitempty"`
	Error   string `json:"error,omitempty" example:""`
}

// LoginRequest represents admin login credentials
// @Description Admin login payload
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password"`
}

// LoginResponse represents the result of an admin login
// @Description Admin login result
type LoginResponse struct {
	Success bool   `json:"success" example:"true"`
	Token   string `json:"token,omitempty"`
	Error   string `json:"error,omitempty" example:""`
}
