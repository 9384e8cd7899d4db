package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localserve/notify/pkg/async"
)

func TestAsync_Await(t *testing.T) {
	f := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	result, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.True(t, f.IsComplete())
}

func TestAsync_Error(t *testing.T) {
	wantErr := errors.New("boom")
	f := async.Async(context.Background(), "x", func(ctx context.Context, s string) (string, error) {
		return "", wantErr
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, wantErr)
}

func TestAsync_PreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	invoked := false
	f := async.Async(ctx, 0, func(ctx context.Context, n int) (int, error) {
		invoked = true
		return n, nil
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, invoked)
}

func TestAwaitWithTimeout(t *testing.T) {
	f := async.Async(context.Background(), struct{}{}, func(ctx context.Context, _ struct{}) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	// The computation still completes after the timeout.
	result, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, result)
}

func TestSettleAll_CollectsAllOutcomes(t *testing.T) {
	wantErr := errors.New("delivery failed")

	ok := async.Async(context.Background(), 1, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})
	failed := async.Async(context.Background(), 2, func(ctx context.Context, n int) (int, error) {
		return 0, wantErr
	})
	slow := async.Async(context.Background(), 3, func(ctx context.Context, n int) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return n, nil
	})

	results := async.SettleAll(ok, failed, slow)
	require.Len(t, results, 3)

	assert.Equal(t, 1, results[0].Value)
	assert.NoError(t, results[0].Err)

	assert.ErrorIs(t, results[1].Err, wantErr)

	assert.Equal(t, 3, results[2].Value)
	assert.NoError(t, results[2].Err)
}

func TestWaitAll_ReturnsFirstError(t *testing.T) {
	wantErr := errors.New("first failure")

	a := async.Async(context.Background(), 1, func(ctx context.Context, n int) (int, error) {
		return 0, wantErr
	})
	b := async.Async(context.Background(), 2, func(ctx context.Context, n int) (int, error) {
		return n, nil
	})

	results, err := async.WaitAll(a, b)
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 2, results[1])
}
