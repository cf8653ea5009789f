package util

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/skilldiff/internal/model"
)

const maxErrorBody = 500

// StatusError tags a non-2xx API response.
// 429 is capacity and retryable, 402 is capacity only, 5xx is retryable.
func StatusError(service string, status int, body []byte) error {
	msg := truncateRunes(strings.TrimSpace(string(body)), maxErrorBody)
	err := fmt.Errorf("%s API error (%d): %s", service, status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return model.MarkTransient(model.MarkCapacity(err))
	case status == http.StatusPaymentRequired:
		return model.MarkCapacity(err)
	case status >= 500:
		return model.MarkTransient(err)
	default:
		return err
	}
}

// TransportError tags a failed round trip as retryable
func TransportError(service string, err error) error {
	return model.MarkTransient(fmt.Errorf("%s request failed: %w", service, err))
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
