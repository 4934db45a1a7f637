package util

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

func NewValidLimiter(r rate.Limit, b int) (*rate.Limiter, error) {
	if b <= 0 || r <= 0 {
		return nil, fmt.Errorf("bad rate limit config. insufficient tokens. (rate=%f, b=%d)", r, b)
	}
	return rate.NewLimiter(r, b), nil
}

// ParseRateLimitSyntax builds a limiter from the "burst+tokens/interval"
// syntax of the exchange.rateLimit config key:
//
//	2+10/1s (burst of 2, 10 tokens per second)
//	5+3/1m  (burst of 5, 3 tokens per minute)
//	1/3m    (1 token per 3 minutes)
//	3m      (1 token per 3 minutes)
func ParseRateLimitSyntax(desc string) (*rate.Limiter, error) {
	b := 0
	r := 1.0
	var durStr string

	if _, err := fmt.Sscanf(desc, "%d+%f/%s", &b, &r, &durStr); err != nil {
		b = 0
		r = 1.0
		if _, err := fmt.Sscanf(desc, "%f/%s", &r, &durStr); err != nil {
			// a bare duration means one token per interval
			durStr = desc
			b = 1
			r = 1.0
		}
	}

	duration, err := time.ParseDuration(durStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit syntax: b+n/duration, err: %v", err)
	}

	if r == 1.0 {
		return NewValidLimiter(rate.Every(duration), b)
	}

	return NewValidLimiter(rate.Every(time.Duration(float64(duration)/r)), b)
}
