package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/health"
)

func ok(context.Context) error { return nil }

func TestProbe(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()
		report := health.Probe(context.Background(), nil)
		assert.True(t, report.Healthy())
		assert.NoError(t, report.Err())
	})

	t.Run("all pass", func(t *testing.T) {
		t.Parallel()
		report := health.Probe(context.Background(), health.Checks{"a": ok, "b": ok})
		assert.True(t, report.Healthy())
		assert.Len(t, report.Checks, 2)
	})

	t.Run("one fails", func(t *testing.T) {
		t.Parallel()
		report := health.Probe(context.Background(), health.Checks{
			"postgres": ok,
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		assert.False(t, report.Healthy())
		assert.Equal(t, health.StatusHealthy, report.Checks["postgres"].Status)
		assert.Equal(t, "connection refused", report.Checks["redis"].Error)

		err := report.Err()
		require.ErrorIs(t, err, health.ErrCheckFailed)
		assert.Contains(t, err.Error(), "redis: connection refused")
	})

	t.Run("slow check times out", func(t *testing.T) {
		t.Parallel()
		block := make(chan struct{})
		t.Cleanup(func() { close(block) })

		report := health.Probe(context.Background(), health.Checks{
			"slow": func(context.Context) error { <-block; return nil },
		}, health.WithTimeout(20*time.Millisecond))
		assert.False(t, report.Healthy())
		assert.Equal(t, health.ErrCheckTimeout.Error(), report.Checks["slow"].Error)
	})
}

func TestStartupHook(t *testing.T) {
	t.Parallel()

	assert.NoError(t, health.StartupHook(health.Checks{"a": ok})(context.Background()))

	cause := errors.New("down")
	err := health.StartupHook(health.Checks{"a": func(context.Context) error { return cause }})(context.Background())
	assert.ErrorIs(t, err, health.ErrCheckFailed)
}
