package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCheck fails until its counter is exhausted.
type flakyCheck struct {
	name      string
	failsLeft atomic.Int32
}

func (f *flakyCheck) Name() string { return f.name }

func (f *flakyCheck) Check(ctx context.Context) error {
	if f.failsLeft.Add(-1) >= 0 {
		return errors.New("still warming up")
	}
	return nil
}

func TestNewDefaults(t *testing.T) {
	h := New()

	assert.Equal(t, 5*time.Second, h.timeout)
	assert.Equal(t, 3, h.failureThreshold)
}

func TestOptions(t *testing.T) {
	h := New(WithTimeout(time.Second), WithFailureThreshold(1))

	assert.Equal(t, time.Second, h.timeout)
	assert.Equal(t, 1, h.failureThreshold)

	// Non-positive thresholds keep the default.
	h2 := New(WithFailureThreshold(0))
	assert.Equal(t, 3, h2.failureThreshold)
}

func TestCheckFunc(t *testing.T) {
	called := false
	check := NewCheckFunc("memory_store", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.Equal(t, "memory_store", check.Name())
	require.NoError(t, check.Check(context.Background()))
	assert.True(t, called)
}

func TestNoChecksIsHealthy(t *testing.T) {
	h := New()

	status, err := h.CheckReadiness(context.Background())

	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Empty(t, status.Checks)
}

func TestLivenessAndReadinessAreSeparate(t *testing.T) {
	h := New(WithFailureThreshold(1))

	h.AddLivenessCheck(NewCheckFunc("process", func(ctx context.Context) error { return nil }))
	h.AddReadinessCheck(NewCheckFunc("condition_source", func(ctx context.Context) error {
		return errors.New("unreachable")
	}))

	liveStatus, liveErr := h.CheckLiveness(context.Background())
	require.NoError(t, liveErr)
	assert.True(t, liveStatus.Healthy)

	readyStatus, readyErr := h.CheckReadiness(context.Background())
	require.Error(t, readyErr)
	assert.False(t, readyStatus.Healthy)
	assert.Contains(t, readyErr.Error(), "condition_source")
}

func TestFailureThreshold(t *testing.T) {
	h := New(WithFailureThreshold(3))

	flaky := &flakyCheck{name: "snapshot_cache"}
	flaky.failsLeft.Store(100)
	h.AddReadinessCheck(flaky)

	// Two failures stay under the threshold.
	for i := 0; i < 2; i++ {
		status, err := h.CheckReadiness(context.Background())
		require.NoError(t, err, "attempt %d must still be healthy", i+1)
		assert.True(t, status.Healthy)
	}

	// Third consecutive failure crosses it.
	status, err := h.CheckReadiness(context.Background())
	require.Error(t, err)
	assert.False(t, status.Healthy)
	require.Len(t, status.Checks, 1)
	assert.Equal(t, "still warming up", status.Checks[0].Error)
}

func TestFailureStreakResetsOnSuccess(t *testing.T) {
	h := New(WithFailureThreshold(2))

	flaky := &flakyCheck{name: "condition_source"}
	flaky.failsLeft.Store(1)
	h.AddReadinessCheck(flaky)

	// One failure, then success; the streak resets.
	_, err := h.CheckReadiness(context.Background())
	require.NoError(t, err)
	_, err = h.CheckReadiness(context.Background())
	require.NoError(t, err)

	// A single new failure stays below the threshold again.
	flaky.failsLeft.Store(1)
	_, err = h.CheckReadiness(context.Background())
	assert.NoError(t, err)
}

func TestCheckTimeout(t *testing.T) {
	h := New(WithTimeout(20*time.Millisecond), WithFailureThreshold(1))

	h.AddReadinessCheck(NewCheckFunc("slow", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}))

	start := time.Now()
	status, err := h.CheckReadiness(context.Background())

	require.Error(t, err)
	assert.False(t, status.Healthy)
	assert.Less(t, time.Since(start), 500*time.Millisecond, "timeout must cut the check short")
}

func TestChecksRunConcurrently(t *testing.T) {
	h := New(WithFailureThreshold(1))

	const n = 4
	for i := 0; i < n; i++ {
		h.AddReadinessCheck(NewCheckFunc("dep", func(ctx context.Context) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		}))
	}

	start := time.Now()
	status, err := h.CheckReadiness(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Len(t, status.Checks, n)
	assert.Less(t, elapsed, time.Duration(n)*50*time.Millisecond,
		"four 50ms checks must not run sequentially")
}

func TestResultLatencyRecorded(t *testing.T) {
	h := New(WithFailureThreshold(1))
	h.AddReadinessCheck(NewCheckFunc("dep", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}))

	status, err := h.CheckReadiness(context.Background())

	require.NoError(t, err)
	require.Len(t, status.Checks, 1)
	assert.GreaterOrEqual(t, status.Checks[0].Latency, 10*time.Millisecond)
}
