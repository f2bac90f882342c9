package middlewares_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/middlewares"
)

func TestLocale(t *testing.T) {
	t.Parallel()

	mw := middlewares.Locale(language.English, language.German)

	t.Run("matches preferred locale", func(t *testing.T) {
		t.Parallel()

		req := internal.NewRequest(http.MethodPost, "/")
		req.AddHeader("Accept-Language", "fr;q=0.9, de-AT;q=0.8")

		var got language.Tag
		resp, err := serve(t, req, func(c internal.Context) error {
			got = middlewares.GetLocale(c)
			return nil
		}, internal.WithMiddleware(mw))

		require.NoError(t, err)
		base, _ := got.Base()
		assert.Equal(t, "de", base.String())
		assert.Equal(t, got, resp.Locale())
		assert.NotEmpty(t, resp.Header("Content-Language"))
	})

	t.Run("falls back to first supported", func(t *testing.T) {
		t.Parallel()

		req := internal.NewRequest(http.MethodPost, "/")
		req.AddHeader("Accept-Language", "ja")

		resp, err := serve(t, req, func(internal.Context) error { return nil }, internal.WithMiddleware(mw))

		require.NoError(t, err)
		assert.Equal(t, "en", resp.Header("Content-Language"))
	})
}
