package llm

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is the structured failure of one summarization service call.
// Status 0 means a transport error with no HTTP response. Code, Type, Param
// and RequestID are filled from the service's JSON error envelope when
// present.
type APIError struct {
	Status    int
	Code      string
	Type      string
	Param     string
	RequestID string
	Message   string
}

func (e *APIError) Error() string {
	var sb strings.Builder
	if e.Status == 0 {
		sb.WriteString("llm: transport error")
	} else {
		fmt.Fprintf(&sb, "llm: status %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&sb, " (%s)", e.Code)
	}
	if e.Message != "" {
		sb.WriteString(": " + e.Message)
	}
	if e.RequestID != "" {
		fmt.Fprintf(&sb, " [request_id=%s]", e.RequestID)
	}
	return sb.String()
}

var retryableStatus = map[int]bool{
	0:   true, // transport / unknown
	408: true,
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// Retryable classifies the failure purely by HTTP status.
func (e *APIError) Retryable() bool {
	return retryableStatus[e.Status]
}

// Describe renders a compact human-readable description of a failure,
// suitable for a fallback bullet. Operators should be able to tell
// rate-limiting from bad requests from outages without raw bodies.
func Describe(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		part := fmt.Sprintf("status %d", apiErr.Status)
		if apiErr.Status == 0 {
			part = "network error"
		}
		if apiErr.Code != "" {
			part += " " + apiErr.Code
		}
		if apiErr.Message != "" {
			part += ": " + truncate(apiErr.Message, 140)
		}
		return part
	}
	return truncate(err.Error(), 160)
}
