package internal_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/internal"
)

func blockingSource(started *atomic.Int32) internal.Source {
	return internal.SourceFunc(func(ctx context.Context) error {
		started.Add(1)
		<-ctx.Done()
		return ctx.Err()
	})
}

func TestRun_NoSources(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, internal.Run(), internal.ErrNoSources)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var started atomic.Int32
	var hooks []string

	done := make(chan error, 1)
	go func() {
		done <- internal.Run(
			internal.WithRunContext(ctx),
			internal.WithSource("a", blockingSource(&started)),
			internal.WithSource("b", blockingSource(&started)),
			internal.WithShutdownHook(func(context.Context) error { hooks = append(hooks, "first"); return nil }),
			internal.WithShutdownHook(func(context.Context) error { hooks = append(hooks, "second"); return nil }),
		)
	}()

	require.Eventually(t, func() bool { return started.Load() == 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, []string{"first", "second"}, hooks)
}

func TestRun_SourceFailureStopsOthers(t *testing.T) {
	t.Parallel()

	boom := errors.New("queue gone")
	var started atomic.Int32
	hookRan := false

	err := internal.Run(
		internal.WithSource("healthy", blockingSource(&started)),
		internal.WithSource("broken", internal.SourceFunc(func(context.Context) error { return boom })),
		internal.WithShutdownHook(func(context.Context) error { hookRan = true; return nil }),
	)

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "source broken")
	assert.True(t, hookRan)
}

func TestRun_StartupHookFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("migrations failed")
	var started atomic.Int32

	err := internal.Run(
		internal.WithSource("a", blockingSource(&started)),
		internal.WithStartupHook(func(context.Context) error { return boom }),
	)

	require.ErrorIs(t, err, boom)
	assert.Zero(t, started.Load())
}

func TestRun_ShutdownHookErrorsAreJoined(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e1, e2 := errors.New("close db"), errors.New("close redis")
	var started atomic.Int32

	err := internal.Run(
		internal.WithRunContext(ctx),
		internal.WithSource("a", blockingSource(&started)),
		internal.WithShutdownHook(func(context.Context) error { return e1 }),
		internal.WithShutdownHook(func(context.Context) error { return e2 }),
		internal.WithShutdownTimeout(time.Second),
	)

	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)
}
