package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	assert.True(t, NewSender("SG.key", "support@maildesk.app").Enabled())
	assert.False(t, NewSender("", "support@maildesk.app").Enabled())
}

func TestSendReplyWithoutKey(t *testing.T) {
	sender := NewSender("", "")
	err := sender.SendReply("customer@example.com", "Hello", "body")
	assert.Error(t, err)
}
