// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyCaller fails a fixed number of times before succeeding.
type flakyCaller struct {
	failures int
	calls    int
}

func (c *flakyCaller) Call(_ context.Context, _ Request) (Response, error) {
	c.calls++
	if c.calls <= c.failures {
		return Response{}, errors.New("transient failure")
	}
	return Response{Content: "ok"}, nil
}

func TestCallWithRetry(t *testing.T) {
	orig := backoffBase
	backoffBase = time.Millisecond
	t.Cleanup(func() { backoffBase = orig })

	t.Run("succeeds after transient failures", func(t *testing.T) {
		c := &flakyCaller{failures: 2}
		resp, err := CallWithRetry(context.Background(), c, Request{Prompt: "p"}, 3)
		require.NoError(t, err)
		assert.Equal(t, "ok", resp.Content)
		assert.Equal(t, 3, c.calls)
	})

	t.Run("exhausts retries", func(t *testing.T) {
		c := &flakyCaller{failures: 10}
		_, err := CallWithRetry(context.Background(), c, Request{Prompt: "p"}, 2)
		require.Error(t, err)
		assert.ErrorContains(t, err, "after 2 retries")
		assert.Equal(t, 3, c.calls)
	})

	t.Run("zero retries uses default of 3", func(t *testing.T) {
		c := &flakyCaller{failures: 10}
		_, err := CallWithRetry(context.Background(), c, Request{Prompt: "p"}, 0)
		require.Error(t, err)
		assert.Equal(t, 4, c.calls)
	})

	t.Run("respects context cancellation during backoff", func(t *testing.T) {
		backoffBase = time.Minute
		t.Cleanup(func() { backoffBase = time.Millisecond })

		ctx, cancel := context.WithCancel(context.Background())
		c := &flakyCaller{failures: 10}

		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()

		_, err := CallWithRetry(ctx, c, Request{Prompt: "p"}, 3)
		require.ErrorIs(t, err, context.Canceled)
	})
}
