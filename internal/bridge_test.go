package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/journal"
	"github.com/dmitrymomot/relay/pkg/session"
)

func echoApp() *internal.App {
	return internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/ems/test", func(c internal.Context) error {
			body, err := io.ReadAll(c.HTTPRequest().Body)
			if err != nil {
				return err
			}
			return c.Blob(http.StatusOK, c.Request().ContentType(), body)
		})
		r.POST("/fail", func(c internal.Context) error {
			return internal.ErrInternal("backend unavailable")
		})
		r.POST("/raise", func(c internal.Context) error {
			return errors.New("handler exploded")
		})
	})))
}

func newBridge(t *testing.T, router internal.HandlerRouter, opts ...internal.BridgeOption) *internal.Bridge {
	t.Helper()
	b, err := internal.NewBridge(router, opts...)
	require.NoError(t, err)
	return b
}

func TestNewBridge_RequiresRouter(t *testing.T) {
	t.Parallel()

	b, err := internal.NewBridge(nil)
	require.ErrorIs(t, err, internal.ErrRouterRequired)
	assert.Nil(t, b)
}

func TestBridge_DispatchEcho(t *testing.T) {
	t.Parallel()

	b := newBridge(t, echoApp())

	resp, err := b.Dispatch(context.Background(), "/ems/test", map[string]int{"a": 1})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, http.StatusOK, resp.Status())
	assert.Equal(t, `{"a":1}`, string(resp.BodyBytes()))
	assert.Equal(t, "application/json", resp.ContentType())
}

func TestBridge_DispatchProcessingError(t *testing.T) {
	t.Parallel()

	b := newBridge(t, echoApp())

	resp, err := b.Dispatch(context.Background(), "/fail", "x")
	require.Error(t, err)

	pe := internal.AsProcessingError(err)
	require.NotNil(t, pe)
	assert.Equal(t, http.StatusInternalServerError, pe.Status)
	assert.Equal(t, "backend unavailable", pe.Message)
	assert.Equal(t, "/fail", pe.Path)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.Status())
}

func TestBridge_DispatchNotFoundIsProcessingError(t *testing.T) {
	t.Parallel()

	b := newBridge(t, echoApp())

	_, err := b.Dispatch(context.Background(), "/nowhere", nil)
	pe := internal.AsProcessingError(err)
	require.NotNil(t, pe)
	assert.Equal(t, http.StatusNotFound, pe.StatusCode())
}

func TestBridge_DispatchError(t *testing.T) {
	t.Parallel()

	b := newBridge(t, echoApp())

	_, err := b.Dispatch(context.Background(), "/raise", nil)
	de := internal.AsDispatchError(err)
	require.NotNil(t, de)
	assert.Equal(t, "/raise", de.Path)
	assert.EqualError(t, de.Err, "handler exploded")
	assert.False(t, internal.IsProcessingError(err))
}

func TestBridge_RouterErrorIsWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("router broke")
	b := newBridge(t, internal.HandlerRouterFunc(func(context.Context, *internal.Request, *internal.Response) error {
		return cause
	}))

	_, err := b.Dispatch(context.Background(), "/any", nil)
	require.ErrorIs(t, err, cause)
	require.NotNil(t, internal.AsDispatchError(err))
}

func TestBridge_StatusOtherThan200Fails(t *testing.T) {
	t.Parallel()

	b := newBridge(t, internal.HandlerRouterFunc(func(_ context.Context, _ *internal.Request, resp *internal.Response) error {
		resp.SetStatus(http.StatusNoContent)
		return nil
	}))

	_, err := b.Dispatch(context.Background(), "/x", nil)
	pe := internal.AsProcessingError(err)
	require.NotNil(t, pe)
	assert.Equal(t, http.StatusNoContent, pe.Status)
	assert.Empty(t, pe.Message)
}

type stringer struct{}

func (stringer) String() string { return "from-stringer" }

func TestBridge_RequestConstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"string", `{"raw":true}`, `{"raw":true}`},
		{"bytes", []byte("abc"), "abc"},
		{"raw json", json.RawMessage(`[1,2]`), "[1,2]"},
		{"reader", strings.NewReader("streamed"), "streamed"},
		{"stringer", stringer{}, "from-stringer"},
		{"struct", struct {
			N int `json:"n"`
		}{N: 7}, `{"n":7}`},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *internal.Request
			b := newBridge(t, internal.HandlerRouterFunc(func(_ context.Context, req *internal.Request, _ *internal.Response) error {
				got = req
				return nil
			}))

			_, err := b.Dispatch(context.Background(), "/ems/test", tt.payload)
			require.NoError(t, err)

			require.NotNil(t, got)
			assert.Equal(t, http.MethodPost, got.Method())
			assert.Equal(t, "/ems/test", got.RequestURI())
			assert.Equal(t, "application/json", got.ContentType())
			assert.Equal(t, "application/json", got.Header("Content-Type"))
			assert.Equal(t, tt.want, string(got.Content()))
		})
	}
}

func TestBridge_WithServer(t *testing.T) {
	t.Parallel()

	var got *internal.Request
	b := newBridge(t, internal.HandlerRouterFunc(func(_ context.Context, req *internal.Request, _ *internal.Response) error {
		got = req
		return nil
	}), internal.WithServer("relay.internal", 8443))

	_, err := b.Dispatch(context.Background(), "/ems/test", nil)
	require.NoError(t, err)
	assert.Equal(t, "relay.internal", got.ServerName())
	assert.Equal(t, 8443, got.ServerPort())
}

func TestBridge_DispatchMessage(t *testing.T) {
	t.Parallel()

	var got *internal.Request
	var gotID string
	b := newBridge(t, internal.HandlerRouterFunc(func(ctx context.Context, req *internal.Request, _ *internal.Response) error {
		got = req
		gotID = internal.DispatchIDFromContext(ctx)
		return nil
	}))

	_, err := b.DispatchMessage(context.Background(), internal.Message{
		Path:    "/orders/created?tag=a&tag=b&source=queue",
		Payload: `{}`,
		Headers: map[string][]string{
			"X-Trace-Id":      {"t-1"},
			"Accept-Language": {"fr-CH, fr;q=0.9, en;q=0.8"},
		},
		DispatchID: "fixed-id",
	})
	require.NoError(t, err)

	assert.Equal(t, "fixed-id", gotID)
	assert.Equal(t, "/orders/created", got.RequestURI())
	assert.Equal(t, "tag=a&tag=b&source=queue", got.QueryString())
	assert.Equal(t, []string{"a", "b"}, got.ParameterValues("tag"))
	assert.Equal(t, []string{"source", "tag"}, got.ParameterNames())
	assert.Equal(t, "t-1", got.Header("x-trace-id"))
	assert.Equal(t, "fr-CH", got.Locale().String())
	assert.Len(t, got.Locales(), 3)
}

func TestBridge_GeneratesDispatchID(t *testing.T) {
	t.Parallel()

	var ids []string
	b := newBridge(t, internal.HandlerRouterFunc(func(ctx context.Context, _ *internal.Request, _ *internal.Response) error {
		ids = append(ids, internal.DispatchIDFromContext(ctx))
		return nil
	}))

	for range 2 {
		_, err := b.Dispatch(context.Background(), "/x", nil)
		require.NoError(t, err)
	}

	require.Len(t, ids, 2)
	assert.Len(t, ids[0], 26)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestBridge_InvalidQuery(t *testing.T) {
	t.Parallel()

	called := false
	b := newBridge(t, internal.HandlerRouterFunc(func(context.Context, *internal.Request, *internal.Response) error {
		called = true
		return nil
	}))

	_, err := b.Dispatch(context.Background(), "/x?bad=%zz", nil)
	require.NotNil(t, internal.AsDispatchError(err))
	assert.False(t, called)
}

func TestBridge_Journal(t *testing.T) {
	t.Parallel()

	rec := journal.NewMemory(10)
	b := newBridge(t, echoApp(), internal.WithRecorder(rec))

	_, _ = b.DispatchMessage(context.Background(), internal.Message{Path: "/ems/test", Payload: "{}", DispatchID: "d-1"})
	_, _ = b.Dispatch(context.Background(), "/fail", nil)
	_, _ = b.Dispatch(context.Background(), "/raise", nil)

	entries := rec.Entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "d-1", entries[0].DispatchID)
	assert.Equal(t, journal.OutcomeOK, entries[0].Outcome)
	assert.Equal(t, http.StatusOK, entries[0].Status)
	assert.Empty(t, entries[0].Error)

	assert.Equal(t, journal.OutcomeProcessingError, entries[1].Outcome)
	assert.Equal(t, http.StatusInternalServerError, entries[1].Status)
	assert.Equal(t, "/fail", entries[1].Path)

	assert.Equal(t, journal.OutcomeDispatchError, entries[2].Outcome)
	assert.Contains(t, entries[2].Error, "handler exploded")
}

func TestBridge_JournalFailureDoesNotFailDispatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	b := newBridge(t, echoApp(),
		internal.WithBridgeLogger(slog.New(slog.NewJSONHandler(&buf, nil))),
		internal.WithRecorder(journal.RecorderFunc(func(context.Context, journal.Entry) error {
			return errors.New("disk full")
		})),
	)

	_, err := b.Dispatch(context.Background(), "/ems/test", "{}")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "journal record failed")
}

func TestBridge_Logging(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := newBridge(t, echoApp(), internal.WithBridgeLogger(log))

	_, err := b.Dispatch(context.Background(), "/ems/test", `{"a":1}`)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"dispatching"`)
	assert.Contains(t, out, `"url":"http://localhost/ems/test"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"content_type":"application/json"`)
	assert.Contains(t, out, `"msg":"dispatch processed"`)

	buf.Reset()
	_, _ = b.Dispatch(context.Background(), "/fail", nil)
	assert.Contains(t, buf.String(), `"level":"WARN"`)

	buf.Reset()
	_, _ = b.Dispatch(context.Background(), "/raise", nil)
	assert.Contains(t, buf.String(), `"level":"ERROR"`)
}

func sessionApp() *internal.App {
	return internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.POST("/login", func(c internal.Context) error {
			if _, err := c.Request().ChangeSessionID(); err != nil && !errors.Is(err, internal.ErrNoSession) {
				return err
			}
			if err := c.Session().Set("user", "u-1"); err != nil {
				return err
			}
			return c.String(http.StatusOK, c.Session().ID)
		})
		r.POST("/whoami", func(c internal.Context) error {
			user := session.ValueOr(c.Session(), "user", "anonymous")
			return c.String(http.StatusOK, user)
		})
		r.POST("/logout", func(c internal.Context) error {
			if s := c.Request().Session(false); s != nil {
				if err := s.Invalidate(); err != nil {
					return err
				}
			}
			return c.NoContent(http.StatusOK)
		})
	})))
}

func TestBridge_SessionLifecycle(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(session.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	b := newBridge(t, sessionApp(), internal.WithSessionStore(store))
	ctx := context.Background()

	// A message without a session ID gets a fresh session that is saved.
	resp, err := b.Dispatch(ctx, "/login", nil)
	require.NoError(t, err)
	sid := string(resp.BodyBytes())
	require.NotEmpty(t, sid)

	stored, err := store.Get(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "u-1", session.ValueOr(stored, "user", ""))

	// The next message carries the session ID and sees the stored values.
	resp, err = b.DispatchMessage(ctx, internal.Message{Path: "/whoami", SessionID: sid})
	require.NoError(t, err)
	assert.Equal(t, "u-1", string(resp.BodyBytes()))

	// Logging in again rotates the ID and drops the old entry.
	resp, err = b.DispatchMessage(ctx, internal.Message{Path: "/login", SessionID: sid})
	require.NoError(t, err)
	rotated := string(resp.BodyBytes())
	assert.NotEqual(t, sid, rotated)
	_, err = store.Get(ctx, sid)
	require.ErrorIs(t, err, session.ErrNotFound)

	// Invalidation removes the session from the store.
	_, err = b.DispatchMessage(ctx, internal.Message{Path: "/logout", SessionID: rotated})
	require.NoError(t, err)
	_, err = store.Get(ctx, rotated)
	require.ErrorIs(t, err, session.ErrNotFound)
	assert.Zero(t, store.Len())
}

func TestBridge_SessionTTL(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(session.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	b := newBridge(t, sessionApp(), internal.WithSessionStore(store), internal.WithSessionTTL(time.Hour))

	resp, err := b.Dispatch(context.Background(), "/login", nil)
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), string(resp.BodyBytes()))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, stored.MaxInactiveInterval)
}

func TestBridge_UnknownSessionID(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(session.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	var requested string
	var valid bool
	b := newBridge(t, internal.HandlerRouterFunc(func(_ context.Context, req *internal.Request, _ *internal.Response) error {
		requested = req.RequestedSessionID()
		valid = req.IsRequestedSessionIDValid()
		return nil
	}), internal.WithSessionStore(store))

	_, err := b.DispatchMessage(context.Background(), internal.Message{Path: "/x", SessionID: "expired"})
	require.NoError(t, err)
	assert.Equal(t, "expired", requested)
	assert.False(t, valid)
	assert.Zero(t, store.Len())
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) (*session.Session, error) { return nil, f.err }
func (f failingStore) Save(context.Context, *session.Session) error        { return f.err }
func (f failingStore) Delete(context.Context, string) error                { return f.err }

func TestBridge_SessionStoreFailure(t *testing.T) {
	t.Parallel()

	cause := errors.New("redis down")
	b := newBridge(t, sessionApp(), internal.WithSessionStore(failingStore{err: cause}))

	_, err := b.DispatchMessage(context.Background(), internal.Message{Path: "/whoami", SessionID: "s-1"})
	require.ErrorIs(t, err, cause)
	require.NotNil(t, internal.AsDispatchError(err))

	_, err = b.Dispatch(context.Background(), "/login", nil)
	require.ErrorIs(t, err, cause)
}

func TestBridge_ConcurrentDispatches(t *testing.T) {
	t.Parallel()

	b := newBridge(t, echoApp())

	const n = 20
	errs := make(chan error, n)
	for i := range n {
		go func() {
			payload := map[string]int{"i": i}
			resp, err := b.Dispatch(context.Background(), "/ems/test", payload)
			if err == nil {
				want, _ := json.Marshal(payload)
				if string(resp.BodyBytes()) != string(want) {
					err = errors.New("body mismatch")
				}
			}
			errs <- err
		}()
	}
	for range n {
		require.NoError(t, <-errs)
	}
}
