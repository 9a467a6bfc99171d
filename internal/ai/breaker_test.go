package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test-open", 2, time.Minute)
	boom := errors.New("boom")

	assert.ErrorIs(t, b.Do("op", func() error { return boom }), boom)
	assert.ErrorIs(t, b.Do("op", func() error { return boom }), boom)
	assert.Equal(t, gobreaker.StateOpen, b.State())

	called := false
	err := b.Do("op", func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsRun(t *testing.T) {
	b := NewBreaker("test-reset", 2, time.Minute)
	boom := errors.New("boom")

	_ = b.Do("op", func() error { return boom })
	assert.NoError(t, b.Do("op", func() error { return nil }))
	_ = b.Do("op", func() error { return boom })
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CanceledIsNotAFailure(t *testing.T) {
	b := NewBreaker("test-cancel", 1, time.Minute)

	err := b.Do("op", func() error { return context.Canceled })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_HalfOpensAfterTimeout(t *testing.T) {
	b := NewBreaker("test-half", 1, 20*time.Millisecond)
	_ = b.Do("op", func() error { return errors.New("boom") })
	assert.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(40 * time.Millisecond)
	assert.NoError(t, b.Do("op", func() error { return nil }))
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
