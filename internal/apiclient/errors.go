package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failed request.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindRateLimited  Kind = "rate_limited"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindRequest      Kind = "request"
	KindMalformed    Kind = "malformed"
)

const (
	unauthorizedMessage = "Session expired. Please log in again."
	forbiddenMessage    = "You don't have permission to perform this action."
	notFoundMessage     = "The requested resource was not found."
	rateLimitedMessage  = "Too many requests. Please slow down and try again."
	serverMessage       = "Server error. Please try again later."
	networkMessage      = "Network error. Check your connection and try again."
	requestMessage      = "Request failed."
	malformedMessage    = "Unexpected response from server."
)

// Error is returned for every classified failure. Message is the text shown
// to the user.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus is the status a gateway should answer with for this error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindRequest:
		if e.Status >= 400 && e.Status < 500 {
			return e.Status
		}
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// FlattenValidation joins the messages of fields in sorted field order,
// keeping the server's message order within a field. An empty map yields
// fallback.
func FlattenValidation(fields map[string][]string, fallback string) string {
	if len(fields) == 0 {
		return fallback
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var lines []string
	for _, k := range keys {
		for _, msg := range fields[k] {
			if msg = strings.TrimSpace(msg); msg != "" {
				lines = append(lines, msg)
			}
		}
	}
	if len(lines) == 0 {
		return fallback
	}
	return strings.Join(lines, "\n")
}

func classify(status int, body []byte) *Error {
	var env struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	// Error bodies are best effort; a non-JSON body still classifies by status.
	_ = json.Unmarshal(body, &env)

	e := &Error{Status: status, Fields: env.Errors}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind, e.Message = KindUnauthorized, unauthorizedMessage
	case status == http.StatusForbidden:
		e.Kind, e.Message = KindForbidden, forbiddenMessage
	case status == http.StatusNotFound:
		e.Kind, e.Message = KindNotFound, notFoundMessage
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
		e.Message = FlattenValidation(env.Errors, firstNonEmpty(env.Message, requestMessage))
	case status == http.StatusTooManyRequests:
		e.Kind, e.Message = KindRateLimited, rateLimitedMessage
	case status >= 500:
		e.Kind, e.Message = KindServer, serverMessage
	default:
		e.Kind, e.Message = KindRequest, firstNonEmpty(env.Message, requestMessage)
	}
	return e
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
