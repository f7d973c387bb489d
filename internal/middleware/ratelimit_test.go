package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterAllow(t *testing.T) {
	l := NewRateLimiter(3, time.Hour, 16)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("a@veryus.test"), "request %d", i+1)
	}
	assert.False(t, l.Allow("a@veryus.test"))
	assert.True(t, l.Allow("b@veryus.test"), "keys are limited separately")
	assert.Greater(t, l.RetryAfter("a@veryus.test"), time.Duration(0))
}

func TestRateLimiterWindowResets(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, time.Hour, 16)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))

	now = now.Add(time.Hour + time.Second)
	assert.True(t, l.Allow("k"))
	assert.Equal(t, time.Hour, l.RetryAfter("k"))
}
