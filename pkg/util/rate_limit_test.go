package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestNewValidRateLimiter(t *testing.T) {
	cases := []struct {
		name     string
		r        rate.Limit
		b        int
		hasError bool
	}{
		{"valid limiter", 0.1, 1, false},
		{"zero rate", 0, 1, true},
		{"zero burst", 0.1, 0, true},
		{"both zero", 0, 0, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			limiter, err := NewValidLimiter(c.r, c.b)
			assert.Equal(t, c.hasError, err != nil)
			if !c.hasError {
				assert.NotNil(t, limiter)
			}
		})
	}
}

func TestParseRateLimitSyntax(t *testing.T) {
	cases := []struct {
		desc     string
		burst    int
		hasError bool
	}{
		{"2+10/1s", 2, false},
		{"5+3/1m", 5, false},
		{"1/3m", 0, true}, // zero burst tokens
		{"3m", 1, false},
		{"what", 0, true},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			limiter, err := ParseRateLimitSyntax(c.desc)
			if c.hasError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			if assert.NotNil(t, limiter) {
				assert.Equal(t, c.burst, limiter.Burst())
			}
		})
	}
}
