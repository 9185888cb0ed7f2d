package socket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed marks frames or payloads that could not be decoded.
	ErrMalformed = errors.New("malformed event")
	// ErrUnknownEvent marks frames naming an event the client does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)

// Frame is one websocket text message: an event name and its payload. The
// payload is either the envelope object or a JSON string holding it.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Envelope wraps the event data with an optional message and status.
type Envelope struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Status  string          `json:"status,omitempty"`
}

// DecodeFrame parses a raw websocket message.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, fmt.Errorf("%w: frame: %v", ErrMalformed, err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("%w: frame without event name", ErrMalformed)
	}
	return f, nil
}

// Envelope decodes the frame payload.
func (f Frame) Envelope() (Envelope, error) {
	payload := bytes.TrimSpace(f.Data)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return Envelope{}, nil
	}
	if payload[0] == '"' {
		var inner string
		if err := json.Unmarshal(payload, &inner); err != nil {
			return Envelope{}, fmt.Errorf("%w: %s payload: %v", ErrMalformed, f.Event, err)
		}
		payload = bytes.TrimSpace([]byte(inner))
		if len(payload) == 0 {
			return Envelope{}, nil
		}
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s envelope: %v", ErrMalformed, f.Event, err)
	}
	return env, nil
}

// Decode unmarshals the envelope data into dest.
func (e Envelope) Decode(dest any) error {
	if len(bytes.TrimSpace(e.Data)) == 0 {
		return fmt.Errorf("%w: empty data", ErrMalformed)
	}
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}
	return nil
}

// NewFrame builds a frame for an outbound event. data is marshalled into an
// envelope string, the same shape the server sends.
func NewFrame(event string, data any) (Frame, error) {
	var env Envelope
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Frame{}, fmt.Errorf("encode %s data: %w", event, err)
		}
		env.Data = raw
	}
	inner, err := json.Marshal(env)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s envelope: %w", event, err)
	}
	quoted, err := json.Marshal(string(inner))
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return Frame{Event: event, Data: quoted}, nil
}
