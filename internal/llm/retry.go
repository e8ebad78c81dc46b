package llm

import (
	"context"
	"time"

	"github.com/personachat/personachat/internal/prompt"
)

// RetryPolicy configures backoff behavior around a Generator. Rate limits
// get a larger attempt budget than other transient failures; the delay
// doubles after every failed attempt regardless of class.
type RetryPolicy struct {
	// MaxRateLimitAttempts is the attempt budget for rate-limited calls,
	// including the initial attempt.
	MaxRateLimitAttempts int

	// MaxTransientAttempts is the attempt budget for timeouts and
	// unavailability, including the initial attempt.
	MaxTransientAttempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns sensible defaults for retry behavior.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRateLimitAttempts: 4,
		MaxTransientAttempts: 2,
		BaseDelay:            500 * time.Millisecond,
		MaxDelay:             8 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxRateLimitAttempts < 1 {
		p.MaxRateLimitAttempts = 1
	}
	if p.MaxTransientAttempts < 1 {
		p.MaxTransientAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// RetryingGenerator wraps a Generator with the retry policy. The policy is
// independent of any particular transport, so it can be exercised against
// a fake Generator without network mocking.
type RetryingGenerator struct {
	gen    Generator
	policy RetryPolicy
}

// WithRetry wraps gen with the given policy.
func WithRetry(gen Generator, policy RetryPolicy) *RetryingGenerator {
	return &RetryingGenerator{gen: gen, policy: policy.normalized()}
}

// Generate calls the wrapped generator, retrying rate limits and transient
// failures with exponential backoff. Non-retryable errors return
// immediately. A context cancelled mid-retry abandons the loop and returns
// a KindTimeout error.
func (g *RetryingGenerator) Generate(ctx context.Context, p prompt.Prompt) (string, error) {
	var (
		rateLimitAttempts int
		transientAttempts int
	)
	backoff := g.policy.BaseDelay

	for {
		if err := ctx.Err(); err != nil {
			return "", &GenerationError{Kind: KindTimeout, Err: err}
		}

		reply, err := g.gen.Generate(ctx, p)
		if err == nil {
			return reply, nil
		}

		genErr := AsGenerationError(err)
		if !genErr.Kind.Retryable() {
			return "", genErr
		}

		switch genErr.Kind {
		case KindRateLimited:
			rateLimitAttempts++
			if rateLimitAttempts >= g.policy.MaxRateLimitAttempts {
				return "", genErr
			}
		default:
			transientAttempts++
			if transientAttempts >= g.policy.MaxTransientAttempts {
				return "", genErr
			}
		}

		select {
		case <-ctx.Done():
			return "", &GenerationError{Kind: KindTimeout, Err: ctx.Err()}
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > g.policy.MaxDelay {
			backoff = g.policy.MaxDelay
		}
	}
}
