// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai defines the contract between the ideation pipeline and the
// Generative AI calling shim. The classifier and transformer receive a
// Caller at construction so tests can supply a stub; there is no
// package-level singleton.
package ai

import (
	"context"
	"fmt"
	"math"
	"time"
)

// ResponseFormat selects how the model is asked to shape its reply.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Request describes one completion call.
type Request struct {
	// Prompt is the full prompt text.
	Prompt string

	// Model is the model identifier. Empty uses the caller's default.
	Model string

	// Format asks the model for plain text or a JSON object.
	Format ResponseFormat

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps the response length. Zero uses the caller's default.
	MaxTokens int
}

// Response is the result of a completion call.
type Response struct {
	// Content is the raw response text.
	Content string

	// Model is the model that produced the response.
	Model string
}

// Caller executes completion requests against a Generative AI API.
// Implementations live outside the core; tests supply stubs.
type Caller interface {
	Call(ctx context.Context, req Request) (Response, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// CallWithRetry calls the backend with exponential backoff: 1s, 2s, 4s
// between attempts. It is for collaborators that want retries; the
// classifier and transformer call once and treat failure as soft.
func CallWithRetry(ctx context.Context, caller Caller, req Request, maxRetries int) (Response, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := caller.Call(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return Response{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
