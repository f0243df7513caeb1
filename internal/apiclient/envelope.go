package apiclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Envelope is the shape of every backend response body.
type Envelope struct {
	Success *bool               `json:"success"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func malformed(status int, format string, args ...any) *Error {
	return &Error{Kind: KindMalformed, Status: status, Message: malformedMessage, Err: fmt.Errorf(format, args...)}
}

func decodeEnvelope(status int, body []byte, out any) error {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return malformed(status, "decode envelope: %w", err)
	}
	if env.Success == nil {
		return malformed(status, "envelope missing success")
	}
	if !*env.Success {
		return &Error{Kind: KindRequest, Status: status, Message: firstNonEmpty(env.Message, requestMessage), Fields: env.Errors}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return malformed(status, "envelope missing data")
	}

	dec := json.NewDecoder(bytes.NewReader(env.Data))
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return malformed(status, "decode data: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return malformed(status, "trailing data after payload")
	}
	return nil
}
