package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/relay/pkg/i18n"
	"github.com/dmitrymomot/relay/pkg/id"
	"github.com/dmitrymomot/relay/pkg/journal"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/session"
)

// DispatchContentType is the content type of every dispatched request.
const DispatchContentType = "application/json"

type dispatchIDKey struct{}

// WithDispatchID stores a dispatch ID in ctx.
func WithDispatchID(ctx context.Context, dispatchID string) context.Context {
	return context.WithValue(ctx, dispatchIDKey{}, dispatchID)
}

// DispatchIDFromContext returns the ID of the dispatch running in ctx.
func DispatchIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(dispatchIDKey{}).(string)
	return v
}

// Message is one payload delivered by a source, with optional transport
// metadata. Only Path is required.
type Message struct {
	Payload any                 `json:"payload,omitempty"`
	Headers map[string][]string `json:"headers,omitempty"`
	Path    string              `json:"path"`
	// SessionID loads a stored session before dispatch.
	SessionID string `json:"session_id,omitempty"`
	// DispatchID is generated when empty. Sources that redeliver the same
	// message should pass a stable ID.
	DispatchID string `json:"dispatch_id,omitempty"`
}

// Bridge turns payloads into synthetic exchanges served by a HandlerRouter.
// A Bridge is safe for concurrent use: every dispatch owns its own request
// and response, and only the session store is shared.
type Bridge struct {
	router   HandlerRouter
	sessions session.Store
	recorder journal.Recorder
	logger   *slog.Logger
	now      func() time.Time

	serverName string
	serverPort int
	sessionTTL time.Duration
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the logger used for request and outcome snapshots.
func WithBridgeLogger(l *slog.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSessionStore enables session loading and persistence for messages
// that carry a session ID.
func WithSessionStore(s session.Store) BridgeOption {
	return func(b *Bridge) {
		b.sessions = s
	}
}

// WithRecorder records a journal entry after every dispatch.
func WithRecorder(r journal.Recorder) BridgeOption {
	return func(b *Bridge) {
		b.recorder = r
	}
}

// WithServer sets the server name and port of every built request.
// Zero values keep the request defaults.
func WithServer(name string, port int) BridgeOption {
	return func(b *Bridge) {
		b.serverName = name
		b.serverPort = port
	}
}

// WithSessionTTL sets the inactivity window of sessions created during a
// dispatch. Zero keeps session.DefaultMaxInactiveInterval.
func WithSessionTTL(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		b.sessionTTL = d
	}
}

// NewBridge creates a bridge over router.
// Returns ErrRouterRequired when router is nil.
func NewBridge(router HandlerRouter, opts ...BridgeOption) (*Bridge, error) {
	if router == nil {
		return nil, ErrRouterRequired
	}
	b := &Bridge{
		router: router,
		logger: logger.NewNope(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Dispatch delivers payload to path as a POST with an application/json body.
//
// It returns the filled response and nil when the router returned with
// status 200. A *ProcessingError is returned, together with the response,
// when the router returned with any other status. A *DispatchError wraps
// anything the router raised.
func (b *Bridge) Dispatch(ctx context.Context, path string, payload any) (*Response, error) {
	return b.DispatchMessage(ctx, Message{Path: path, Payload: payload})
}

// DispatchMessage is Dispatch with headers, a session and a dispatch ID.
func (b *Bridge) DispatchMessage(ctx context.Context, msg Message) (*Response, error) {
	dispatchID := msg.DispatchID
	if dispatchID == "" {
		dispatchID = id.NewULID()
	}
	ctx = WithDispatchID(ctx, dispatchID)
	start := b.now()

	resp, err := b.dispatch(ctx, msg)

	b.record(ctx, journal.Entry{
		DispatchID: dispatchID,
		Path:       msg.Path,
		Status:     statusOf(resp),
		Outcome:    outcomeOf(err),
		Error:      errorText(err),
		Duration:   b.now().Sub(start),
		CreatedAt:  start,
	})
	return resp, err
}

func (b *Bridge) dispatch(ctx context.Context, msg Message) (*Response, error) {
	req, err := b.buildRequest(ctx, msg)
	if err != nil {
		return nil, &DispatchError{Path: msg.Path, Err: err}
	}
	resp := NewResponse()

	if b.logger.Enabled(ctx, slog.LevelDebug) {
		b.logger.DebugContext(ctx, "dispatching",
			slog.String("url", req.RequestURL()),
			slog.String("uri", req.RequestURI()),
			slog.String("method", req.Method()),
			slog.String("content_type", req.ContentType()),
			slog.String("body", string(req.Content())),
		)
	}

	if err := b.router.Serve(ctx, req, resp); err != nil {
		b.logger.ErrorContext(ctx, "dispatch failed",
			slog.String("path", msg.Path),
			slog.String("error", err.Error()),
		)
		return resp, &DispatchError{Path: msg.Path, Err: err}
	}

	if err := b.persistSession(ctx, req); err != nil {
		b.logger.ErrorContext(ctx, "session persistence failed",
			slog.String("path", msg.Path),
			slog.String("error", err.Error()),
		)
		return resp, &DispatchError{Path: msg.Path, Err: err}
	}

	if resp.Status() != http.StatusOK {
		perr := &ProcessingError{
			Path:    msg.Path,
			Status:  resp.Status(),
			Message: resp.ErrorMessage(),
		}
		b.logger.WarnContext(ctx, "dispatch not processed",
			slog.String("path", msg.Path),
			slog.Int("status", perr.Status),
			slog.String("message", perr.Message),
		)
		return resp, perr
	}

	if b.logger.Enabled(ctx, slog.LevelDebug) {
		body, err := resp.BodyString()
		if err != nil {
			body = string(resp.BodyBytes())
		}
		b.logger.DebugContext(ctx, "dispatch processed",
			slog.String("path", msg.Path),
			slog.String("body", body),
		)
	}
	return resp, nil
}

// buildRequest populates a request from msg. Query parameters in the path
// become request parameters; Accept-Language becomes the locale stack.
func (b *Bridge) buildRequest(ctx context.Context, msg Message) (*Request, error) {
	uri, query, _ := strings.Cut(msg.Path, "?")
	req := NewRequest(http.MethodPost, uri)
	req.SetQueryString(query)
	if b.serverName != "" {
		req.SetServerName(b.serverName)
	}
	if b.serverPort > 0 {
		req.SetServerPort(b.serverPort)
	}

	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return nil, fmt.Errorf("parse query: %w", err)
		}
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			req.AddParameter(name, values[name]...)
		}
	}

	names := make([]string, 0, len(msg.Headers))
	for name := range msg.Headers {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, v := range msg.Headers[name] {
			req.AddHeader(name, v)
		}
	}
	if al := req.Header("Accept-Language"); al != "" {
		if tags := i18n.ParseAcceptLanguage(al); len(tags) > 0 {
			req.SetLocales(tags...)
		}
	}

	req.SetContentType(DispatchContentType)
	body, err := payloadBytes(msg.Payload)
	if err != nil {
		return nil, err
	}
	req.SetContent(body)

	if msg.SessionID != "" && b.sessions != nil {
		req.SetRequestedSessionID(msg.SessionID)
		s, err := b.sessions.Get(ctx, msg.SessionID)
		switch {
		case errors.Is(err, session.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("load session: %w", err)
		default:
			s.Touch(b.now())
			req.SetSession(s)
		}
	}
	return req, nil
}

// persistSession saves or removes the request session after a dispatch.
func (b *Bridge) persistSession(ctx context.Context, req *Request) error {
	if b.sessions == nil {
		return nil
	}
	s := req.Session(false)
	requested := req.RequestedSessionID()

	if s == nil {
		return nil
	}
	if s.Invalidated {
		for _, sid := range []string{s.ID, s.PreviousID(), requested} {
			if sid == "" {
				continue
			}
			if err := b.sessions.Delete(ctx, sid); err != nil {
				return err
			}
		}
		return nil
	}
	if requested != "" && requested != s.ID && requested != s.PreviousID() {
		// The requested session was replaced by a fresh one.
		if err := b.sessions.Delete(ctx, requested); err != nil {
			return err
		}
	}
	if s.IsNew() && b.sessionTTL > 0 && s.MaxInactiveInterval == session.DefaultMaxInactiveInterval {
		s.SetMaxInactiveInterval(b.sessionTTL)
	}
	if !s.IsDirty() {
		return nil
	}
	if err := b.sessions.Save(ctx, s); err != nil {
		return err
	}
	s.ClearDirty()
	s.ClearNew()
	return nil
}

func (b *Bridge) record(ctx context.Context, e journal.Entry) {
	if b.recorder == nil {
		return
	}
	if err := b.recorder.Record(ctx, e); err != nil {
		b.logger.ErrorContext(ctx, "journal record failed",
			slog.String("path", e.Path),
			slog.String("error", err.Error()),
		)
	}
}

// payloadBytes renders a payload as the request body. Bytes and strings are
// used as is; other values are encoded as JSON.
func payloadBytes(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	case io.Reader:
		b, err := io.ReadAll(p)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		return b, nil
	case fmt.Stringer:
		return []byte(p.String()), nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return b, nil
}

func statusOf(resp *Response) int {
	if resp == nil {
		return 0
	}
	return resp.Status()
}

func outcomeOf(err error) journal.Outcome {
	switch {
	case err == nil:
		return journal.OutcomeOK
	case IsProcessingError(err):
		return journal.OutcomeProcessingError
	}
	return journal.OutcomeDispatchError
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
