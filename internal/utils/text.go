package utils

import "strings"

// SenderName returns the local part of an email address, used to personalize
// templated replies ("jane.doe@example.com" -> "jane.doe").
func SenderName(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return "Customer"
	}
	if at := strings.Index(address, "@"); at > 0 {
		return address[:at]
	}
	return address
}

// ContainsAny reports whether text contains at least one of the keywords.
// Matching is case-insensitive substring matching.
func ContainsAny(text string, keywords ...string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// Truncate caps text at max runes, appending an ellipsis marker when cut.
// Used to bound email bodies before sending them to the completion API.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
