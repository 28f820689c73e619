package catalogapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"PriceScout/internal/product"
)

var (
	ErrUnavailable = errors.New("catalog unavailable")
	ErrBadStatus   = errors.New("catalog bad status")
)

const maxMessageLen = 200

// StatusError is a non-2xx answer from the search API. Message is what the
// catalog said, or a fallback built from the status code.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status=%d: %s", ErrBadStatus, e.Status, e.Message)
}

func (e *StatusError) Is(target error) bool { return target == ErrBadStatus }

func newStatusError(status int, body []byte) *StatusError {
	return &StatusError{Status: status, Message: messageFromBody(status, body)}
}

// messageFromBody accepts {"message": ...}, {"error": ...}, plain text or
// nothing at all.
func messageFromBody(status int, body []byte) string {
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '{' {
		var v struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(body, &v); err == nil {
			if m := strings.TrimSpace(v.Message); m != "" {
				return m
			}
			if m := strings.TrimSpace(v.Error); m != "" {
				return m
			}
		}
		return fallbackMessage(status)
	}

	if len(body) > 0 && utf8.Valid(body) {
		text := strings.Join(strings.Fields(string(body)), " ")
		if len(text) > maxMessageLen {
			text = truncate(text, maxMessageLen) + "…"
		}
		return text
	}

	return fallbackMessage(status)
}

func fallbackMessage(status int) string {
	if text := http.StatusText(status); text != "" {
		return fmt.Sprintf("Error %d: %s", status, text)
	}
	return fmt.Sprintf("Error %d", status)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ErrorLabel buckets errors for metrics and logs.
func ErrorLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var se *StatusError
	switch {
	case errors.As(err, &se) && se.Status >= 500:
		return "status_5xx"
	case errors.As(err, &se):
		return "status_4xx"
	case errors.Is(err, product.ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
