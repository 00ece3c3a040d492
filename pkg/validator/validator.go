package validator

import (
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 4000

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// Error makes ValidationErrors usable as an error value.
func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// ValidateMessage checks message content before any network call. Empty or
// whitespace-only submissions are rejected client-side.
func ValidateMessage(content string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(content) == "" {
		errs.Add("content", "Message cannot be empty")
	} else if utf8.RuneCountInString(content) > maxMessageLength {
		errs.Add("content", "Message is too long")
	}

	return errs
}
