package middlewares_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/middlewares"
)

func TestTimeout(t *testing.T) {
	t.Parallel()

	t.Run("passes through when handler completes in time", func(t *testing.T) {
		t.Parallel()

		resp, err := serve(t, nil, func(c internal.Context) error {
			return c.String(http.StatusOK, "ok")
		}, internal.WithMiddleware(middlewares.Timeout(time.Second)))

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.Status())
	})

	t.Run("handler sees the deadline", func(t *testing.T) {
		t.Parallel()

		var hasDeadline bool
		_, err := serve(t, nil, func(c internal.Context) error {
			_, hasDeadline = c.Deadline()
			return nil
		}, internal.WithMiddleware(middlewares.Timeout(time.Second)))

		require.NoError(t, err)
		assert.True(t, hasDeadline)
	})

	t.Run("returns TimeoutError when handler exceeds timeout", func(t *testing.T) {
		t.Parallel()

		_, err := serve(t, nil, func(c internal.Context) error {
			<-c.Done()
			return c.Err()
		}, internal.WithMiddleware(middlewares.Timeout(20*time.Millisecond)))

		require.Error(t, err)
		te := middlewares.AsTimeoutError(err)
		require.NotNil(t, te)
		assert.Equal(t, 20*time.Millisecond, te.Duration)
		assert.True(t, errors.Is(err, te.Err))
	})
}
