package main

import (
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/middlewares"
	"github.com/dmitrymomot/relay/pkg/journal"
	"github.com/dmitrymomot/relay/pkg/session"
)

var supportedLocales = []language.Tag{language.English, language.German, language.French}

// inboxHandler serves messages pulled from the Redis list.
type inboxHandler struct {
	route string
}

func (h *inboxHandler) Routes(r relay.Router) {
	r.POST(h.route, h.receive)
}

func (h *inboxHandler) receive(c relay.Context) error {
	body := c.Request().Content()
	if len(body) == 0 {
		return relay.ErrBadRequest("empty message")
	}

	s := c.Session()
	// Values read back from the Redis store are JSON numbers.
	seen := session.ValueOr(s, "seen", float64(0)) + 1
	if err := s.Set("seen", seen); err != nil {
		return err
	}

	c.LogInfo("message received",
		"bytes", len(body),
		"request_id", middlewares.GetRequestID(c),
	)

	return c.JSON(http.StatusOK, map[string]any{
		"session": s.ID,
		"seen":    seen,
		"locale":  middlewares.GetLocale(c).String(),
	})
}

// maintenanceHandler serves scheduled housekeeping dispatches.
type maintenanceHandler struct {
	journal *journal.Postgres
}

func (h *maintenanceHandler) Routes(r relay.Router) {
	r.POST("/maintenance/journal/prune", h.prune)
}

func (h *maintenanceHandler) prune(c relay.Context) error {
	if h.journal == nil {
		return c.NoContent(http.StatusOK)
	}
	n, err := h.journal.Prune(c.Context(), 7*24*time.Hour)
	if err != nil {
		return relay.ErrInternal("prune journal", relay.WithError(err))
	}
	c.LogInfo("journal pruned", "deleted", n)
	return c.NoContent(http.StatusOK)
}
