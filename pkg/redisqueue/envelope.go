package redisqueue

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/relay"
)

// envelope is the list item format. JSON payloads travel as Payload; raw
// strings and bytes as Text.
type envelope struct {
	Headers    map[string][]string `json:"headers,omitempty"`
	Path       string              `json:"path"`
	Text       string              `json:"text,omitempty"`
	SessionID  string              `json:"session_id,omitempty"`
	DispatchID string              `json:"dispatch_id,omitempty"`
	Payload    json.RawMessage     `json:"payload,omitempty"`
}

func encode(msg relay.Message) ([]byte, error) {
	if msg.Path == "" {
		return nil, ErrPathRequired
	}
	env := envelope{
		Path:       msg.Path,
		Headers:    msg.Headers,
		SessionID:  msg.SessionID,
		DispatchID: msg.DispatchID,
	}

	switch v := msg.Payload.(type) {
	case nil:
	case json.RawMessage:
		if !json.Valid(v) {
			return nil, fmt.Errorf("%w: raw message is not valid JSON", ErrInvalidPayload)
		}
		env.Payload = v
	case []byte:
		env.Text = string(v)
	case string:
		env.Text = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		env.Payload = b
	}
	return json.Marshal(env)
}

// decode turns a list item into a message. Items that are not an envelope
// with a path are dispatched whole to defaultPath.
func decode(item string, defaultPath string) (relay.Message, error) {
	var env envelope
	if trimmed := bytes.TrimSpace([]byte(item)); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Path != "" {
			msg := relay.Message{
				Path:       env.Path,
				Headers:    env.Headers,
				SessionID:  env.SessionID,
				DispatchID: env.DispatchID,
			}
			switch {
			case len(env.Payload) > 0:
				msg.Payload = env.Payload
			case env.Text != "":
				msg.Payload = env.Text
			}
			return msg, nil
		}
	}

	if defaultPath == "" {
		return relay.Message{}, ErrPathRequired
	}
	return relay.Message{Path: defaultPath, Payload: item}, nil
}
