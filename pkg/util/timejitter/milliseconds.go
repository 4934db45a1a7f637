package timejitter

import (
	"math/rand"
	"time"
)

// Milliseconds adds a random delay below jitterInMilliseconds so periodic
// tasks started together do not fire in lockstep.
func Milliseconds(d time.Duration, jitterInMilliseconds int) time.Duration {
	n := rand.Intn(jitterInMilliseconds)
	return d + time.Duration(n)*time.Millisecond
}
