package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalConnectionLimiter_AcquireRelease(t *testing.T) {
	l := NewGlobalConnectionLimiter(2)

	assert.True(t, l.Acquire())
	assert.True(t, l.Acquire())
	assert.False(t, l.Acquire(), "third acquire must fail at capacity")

	l.Release()
	assert.True(t, l.Acquire())
	assert.EqualValues(t, 2, l.Current())
}

func TestGlobalConnectionLimiter_Concurrent(t *testing.T) {
	l := NewGlobalConnectionLimiter(50)

	var wg sync.WaitGroup
	acquired := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acquired <- l.Acquire()
		}()
	}
	wg.Wait()
	close(acquired)

	granted := 0
	for ok := range acquired {
		if ok {
			granted++
		}
	}
	assert.Equal(t, 50, granted)
	assert.EqualValues(t, 50, l.Current())
}

func TestAttemptRateLimiter_BurstThenDeny(t *testing.T) {
	l := NewAttemptRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "burst attempt %d should pass", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// Another IP has its own bucket.
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestConnectionLimits_ReasonReporting(t *testing.T) {
	l := NewConnectionLimits(1, 1000, 1000)

	ok, reason := l.Acquire("10.0.0.1")
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = l.Acquire("10.0.0.2")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonGlobal, reason)

	l.Release()
	ok, _ = l.Acquire("10.0.0.2")
	assert.True(t, ok)
}

func TestConnectionLimits_RateBeforeGlobal(t *testing.T) {
	l := NewConnectionLimits(100, 0.001, 1)

	ok, _ := l.Acquire("10.0.0.1")
	assert.True(t, ok)

	ok, reason := l.Acquire("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, LimitReasonRate, reason)
}
