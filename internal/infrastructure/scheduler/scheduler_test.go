package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestScheduler(t *testing.T) *JobScheduler {
	t.Helper()
	js, err := New(time.Second, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.Stop() })
	return js
}

func waitForRuns(t *testing.T, js *JobScheduler, name string, runs int) JobStats {
	t.Helper()
	var st JobStats
	require.Eventually(t, func() bool {
		st, _ = js.Stats(name)
		return st.Runs >= runs
	}, 2*time.Second, 10*time.Millisecond)
	return st
}

func TestJobScheduler_Register(t *testing.T) {
	js := newTestScheduler(t)

	require.NoError(t, js.Register("a", time.Hour, func(context.Context) error { return nil }))

	t.Run("duplicate name", func(t *testing.T) {
		err := js.Register("a", time.Hour, func(context.Context) error { return nil })
		assert.Error(t, err)
	})

	t.Run("non-positive interval", func(t *testing.T) {
		err := js.Register("b", 0, func(context.Context) error { return nil })
		assert.Error(t, err)
	})

	st, ok := js.Stats("a")
	require.True(t, ok)
	assert.Equal(t, JobStatusPending, st.Status)
	assert.Equal(t, []string{"a"}, js.Names())
}

func TestJobScheduler_RunNow(t *testing.T) {
	js := newTestScheduler(t)

	ran := make(chan struct{}, 1)
	require.NoError(t, js.Register("ok", time.Hour, func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "job runs are bounded by the timeout")
		ran <- struct{}{}
		return nil
	}))
	require.NoError(t, js.Register("fails", time.Hour, func(context.Context) error {
		return errors.New("database unavailable")
	}))
	require.NoError(t, js.Register("panics", time.Hour, func(context.Context) error {
		panic("boom")
	}))
	js.Start()

	require.NoError(t, js.RunNow("ok"))
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	st := waitForRuns(t, js, "ok", 1)
	assert.Equal(t, JobStatusSuccess, st.Status)

	require.NoError(t, js.RunNow("fails"))
	st = waitForRuns(t, js, "fails", 1)
	assert.Equal(t, JobStatusFailed, st.Status)
	assert.Equal(t, 1, st.Failures)
	assert.Equal(t, "database unavailable", st.LastError)

	require.NoError(t, js.RunNow("panics"))
	st = waitForRuns(t, js, "panics", 1)
	assert.Equal(t, JobStatusFailed, st.Status)
	assert.Contains(t, st.LastError, "panicked")

	assert.ErrorIs(t, js.RunNow("missing"), ErrJobNotFound)
}
