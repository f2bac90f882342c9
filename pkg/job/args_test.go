package job

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay"
)

func TestNewDispatchArgs(t *testing.T) {
	t.Parallel()

	t.Run("requires path", func(t *testing.T) {
		t.Parallel()

		_, err := newDispatchArgs(relay.Message{Payload: "x"})
		require.ErrorIs(t, err, ErrPathRequired)
	})

	t.Run("marshals structured payload", func(t *testing.T) {
		t.Parallel()

		args, err := newDispatchArgs(relay.Message{Path: "/orders", Payload: map[string]int{"qty": 2}})
		require.NoError(t, err)
		assert.JSONEq(t, `{"qty":2}`, string(args.Payload))
		assert.Empty(t, args.Text)
	})

	t.Run("keeps strings and bytes raw", func(t *testing.T) {
		t.Parallel()

		args, err := newDispatchArgs(relay.Message{Path: "/p", Payload: "plain text"})
		require.NoError(t, err)
		assert.Equal(t, "plain text", args.Text)
		assert.Nil(t, args.Payload)

		args, err = newDispatchArgs(relay.Message{Path: "/p", Payload: []byte("bytes")})
		require.NoError(t, err)
		assert.Equal(t, "bytes", args.Text)
	})

	t.Run("rejects invalid raw JSON", func(t *testing.T) {
		t.Parallel()

		_, err := newDispatchArgs(relay.Message{Path: "/p", Payload: json.RawMessage(`{nope`)})
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("rejects unmarshalable payload", func(t *testing.T) {
		t.Parallel()

		_, err := newDispatchArgs(relay.Message{Path: "/p", Payload: make(chan int)})
		require.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("carries metadata", func(t *testing.T) {
		t.Parallel()

		args, err := newDispatchArgs(relay.Message{
			Path:       "/p",
			Headers:    map[string][]string{"X-Tenant": {"acme"}},
			SessionID:  "s1",
			DispatchID: "d1",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"acme"}, args.Headers["X-Tenant"])
		assert.Equal(t, "s1", args.SessionID)
		assert.Equal(t, "d1", args.DispatchID)
		assert.Equal(t, DispatchKind, args.Kind())
	})
}

func TestDispatchArgs_Message(t *testing.T) {
	t.Parallel()

	t.Run("json payload stays raw", func(t *testing.T) {
		t.Parallel()

		msg := dispatchArgs{Path: "/p", Payload: json.RawMessage(`{"a":1}`)}.message(12)
		assert.Equal(t, json.RawMessage(`{"a":1}`), msg.Payload)
		assert.Equal(t, "job-12", msg.DispatchID)
	})

	t.Run("text payload becomes string", func(t *testing.T) {
		t.Parallel()

		msg := dispatchArgs{Path: "/p", Text: "hi", DispatchID: "keep"}.message(12)
		assert.Equal(t, "hi", msg.Payload)
		assert.Equal(t, "keep", msg.DispatchID)
	})

	t.Run("empty payload is nil", func(t *testing.T) {
		t.Parallel()

		msg := dispatchArgs{Path: "/p"}.message(1)
		assert.Nil(t, msg.Payload)
	})
}
