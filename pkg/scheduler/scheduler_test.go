package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddValidates(t *testing.T) {
	s := New(clock.NewMock(), time.Second, nil)
	fn := func(context.Context) {}

	assert.Error(t, s.Add(Job{Interval: time.Hour, Fn: fn}))
	assert.Error(t, s.Add(Job{Name: "a", Fn: fn}))
	assert.Error(t, s.Add(Job{Name: "a", Interval: time.Hour}))
	require.NoError(t, s.Add(Job{Name: "a", Interval: time.Hour, Fn: fn}))
	assert.Error(t, s.Add(Job{Name: "a", Interval: time.Hour, Fn: fn}))
}

func TestFirstRunIsOneIntervalAway(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	s := New(mock, 10*time.Second, nil)

	var runs int
	require.NoError(t, s.Add(Job{Name: "tick", Interval: time.Hour, Fn: func(context.Context) { runs++ }}))

	assert.Equal(t, 0, s.RunPending(ctx))

	mock.Add(59 * time.Minute)
	assert.Equal(t, 0, s.RunPending(ctx))

	mock.Add(time.Minute)
	assert.Equal(t, 1, s.RunPending(ctx))
	assert.Equal(t, 1, runs)

	next, ok := s.NextRun("tick")
	require.True(t, ok)
	assert.Equal(t, mock.Now().Add(time.Hour), next)

	// not due again until a full interval passes
	assert.Equal(t, 0, s.RunPending(ctx))
}

func TestRunOnStart(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock, time.Second, nil)
	require.NoError(t, s.Add(Job{Name: "now", Interval: time.Hour, RunOnStart: true, Fn: func(context.Context) {}}))

	assert.Equal(t, 1, s.RunPending(context.Background()))
	assert.Equal(t, 1, s.Runs("now"))
}

func TestPanickingJobDoesNotStopOthers(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock, time.Second, nil)

	var ok int
	require.NoError(t, s.Add(Job{Name: "bad", Interval: time.Minute, RunOnStart: true, Fn: func(context.Context) { panic("boom") }}))
	require.NoError(t, s.Add(Job{Name: "good", Interval: time.Minute, RunOnStart: true, Fn: func(context.Context) { ok++ }}))

	assert.Equal(t, 2, s.RunPending(context.Background()))
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, s.Runs("bad"))

	next, _ := s.NextRun("bad")
	assert.Equal(t, mock.Now().Add(time.Minute), next)
}

func TestRunLoopFiresOnTicks(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock, 10*time.Second, nil)

	var runs int32
	require.NoError(t, s.Add(Job{Name: "j", Interval: 30 * time.Second, Fn: func(context.Context) {
		atomic.AddInt32(&runs, 1)
	}}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		return atomic.LoadInt32(&runs) >= 2
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestAddWhileRunning(t *testing.T) {
	mock := clock.NewMock()
	s := New(mock, 10*time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	var runs int32
	require.NoError(t, s.Add(Job{Name: "late", Interval: time.Minute, RunOnStart: true, Fn: func(context.Context) {
		atomic.AddInt32(&runs, 1)
	}}))

	require.Eventually(t, func() bool {
		mock.Add(10 * time.Second)
		return atomic.LoadInt32(&runs) >= 1
	}, 2*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
