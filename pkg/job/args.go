package job

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrymomot/relay"
)

// DispatchKind is the River job kind of every dispatch job.
const DispatchKind = "relay:dispatch"

// dispatchArgs is the River job payload for one dispatch.
// JSON payloads travel as Payload; raw strings and bytes as Text.
// Uniqueness considers only Path and UniqueKey.
type dispatchArgs struct {
	Headers    map[string][]string `json:"headers,omitempty"`
	Path       string              `json:"path" river:"unique"`
	Text       string              `json:"text,omitempty"`
	SessionID  string              `json:"session_id,omitempty"`
	DispatchID string              `json:"dispatch_id,omitempty"`
	UniqueKey  string              `json:"unique_key,omitempty" river:"unique"`
	Payload    json.RawMessage     `json:"payload,omitempty"`
}

func (dispatchArgs) Kind() string {
	return DispatchKind
}

// message rebuilds the relay message. Without a stored dispatch ID the
// job ID is used, so every attempt of the same job shares one ID.
func (a dispatchArgs) message(jobID int64) relay.Message {
	msg := relay.Message{
		Path:       a.Path,
		Headers:    a.Headers,
		SessionID:  a.SessionID,
		DispatchID: a.DispatchID,
	}
	switch {
	case len(a.Payload) > 0:
		msg.Payload = a.Payload
	case a.Text != "":
		msg.Payload = a.Text
	}
	if msg.DispatchID == "" {
		msg.DispatchID = fmt.Sprintf("job-%d", jobID)
	}
	return msg
}

func newDispatchArgs(msg relay.Message) (*dispatchArgs, error) {
	if msg.Path == "" {
		return nil, ErrPathRequired
	}
	args := &dispatchArgs{
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
		args.Payload = v
	case []byte:
		args.Text = string(v)
	case string:
		args.Text = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		args.Payload = b
	}
	return args, nil
}
