// Package email delivers finalized support replies via SendGrid.
package email

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Sender sends finalized responses back to customers. Without an API key the
// sender degrades to a no-op so response records can still be finalized.
type Sender struct {
	apiKey      string
	fromAddress string
}

// NewSender creates a new SendGrid-backed sender
func NewSender(apiKey, fromAddress string) *Sender {
	if fromAddress == "" {
		fromAddress = "support@maildesk.app"
	}
	return &Sender{
		apiKey:      apiKey,
		fromAddress: fromAddress,
	}
}

// Enabled reports whether outbound delivery is configured
func (s *Sender) Enabled() bool {
	return s.apiKey != ""
}

// SendReply sends the finalized response text to the customer. The subject is
// prefixed as a reply to the original message.
func (s *Sender) SendReply(recipient, subject, body string) error {
	if !s.Enabled() {
		return fmt.Errorf("SendGrid API key not configured")
	}

	from := mail.NewEmail("Customer Support", s.fromAddress)
	to := mail.NewEmail("", recipient)

	message := mail.NewSingleEmail(from, "Re: "+subject, to, body, body)

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	return nil
}
