package llm

import (
	"context"
	"testing"
	"time"

	"github.com/personachat/personachat/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator fails with the queued errors, then succeeds.
type fakeGenerator struct {
	errs  []error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ prompt.Prompt) (string, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return "ok", nil
}

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRateLimitAttempts: 4,
		MaxTransientAttempts: 2,
		BaseDelay:            time.Millisecond,
		MaxDelay:             4 * time.Millisecond,
	}
}

func rateLimited() error {
	return &GenerationError{Kind: KindRateLimited}
}

func TestRetrySucceedsWithinBudget(t *testing.T) {
	gen := &fakeGenerator{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	g := WithRetry(gen, fastPolicy())

	reply, err := g.Generate(context.Background(), prompt.Prompt{})
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, 4, gen.calls)
}

func TestRetryExhaustsRateLimitBudget(t *testing.T) {
	gen := &fakeGenerator{errs: []error{rateLimited(), rateLimited(), rateLimited(), rateLimited(), rateLimited()}}
	g := WithRetry(gen, fastPolicy())

	_, err := g.Generate(context.Background(), prompt.Prompt{})
	require.Error(t, err)
	assert.Equal(t, KindRateLimited, AsGenerationError(err).Kind)
	assert.Equal(t, 4, gen.calls)
}

func TestRetryTransientSmallerBudget(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		&GenerationError{Kind: KindUnavailable},
		&GenerationError{Kind: KindUnavailable},
	}}
	g := WithRetry(gen, fastPolicy())

	_, err := g.Generate(context.Background(), prompt.Prompt{})
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, AsGenerationError(err).Kind)
	assert.Equal(t, 2, gen.calls)
}

func TestRetryInvalidRequestFailsImmediately(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&GenerationError{Kind: KindInvalidRequest}}}
	g := WithRetry(gen, fastPolicy())

	_, err := g.Generate(context.Background(), prompt.Prompt{})
	require.Error(t, err)
	assert.Equal(t, KindInvalidRequest, AsGenerationError(err).Kind)
	assert.Equal(t, 1, gen.calls)
}

func TestRetryAbandonedOnCancel(t *testing.T) {
	gen := &fakeGenerator{errs: []error{
		rateLimited(), rateLimited(), rateLimited(), rateLimited(),
	}}
	policy := fastPolicy()
	policy.BaseDelay = time.Hour // forces cancellation during backoff
	policy.MaxDelay = time.Hour
	g := WithRetry(gen, policy)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := g.Generate(ctx, prompt.Prompt{})
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, KindTimeout, AsGenerationError(err).Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("retry loop did not respect cancellation")
	}
}

func TestRetryWrapsUntypedErrors(t *testing.T) {
	gen := &fakeGenerator{errs: []error{assert.AnError, assert.AnError}}
	g := WithRetry(gen, fastPolicy())

	_, err := g.Generate(context.Background(), prompt.Prompt{})
	require.Error(t, err)
	assert.Equal(t, KindUnavailable, AsGenerationError(err).Kind)
	assert.Equal(t, 2, gen.calls)
}
