// Package backoff computes retry delays for failed jobs.
package backoff

import "time"

// Delay returns min(base^attempts, capSeconds) as a duration. attempts is the
// failure count after incrementing, so the first retry gets base^1. Integer
// arithmetic with overflow clamping; no jitter.
func Delay(attempts, base, capSeconds int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	if base < 1 {
		base = 1
	}
	if capSeconds < 1 {
		capSeconds = 1
	}

	d := 1
	for i := 0; i < attempts; i++ {
		d *= base
		if d >= capSeconds || d <= 0 {
			return time.Duration(capSeconds) * time.Second
		}
	}
	return time.Duration(d) * time.Second
}
