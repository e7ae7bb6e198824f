package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay(t *testing.T) {
	tests := []struct {
		name     string
		attempts int
		base     int
		cap      int
		want     time.Duration
	}{
		{"first retry", 1, 2, 300, 2 * time.Second},
		{"second retry", 2, 2, 300, 4 * time.Second},
		{"third retry", 3, 2, 300, 8 * time.Second},
		{"hits cap", 9, 2, 300, 300 * time.Second},
		{"far past cap", 40, 2, 300, 300 * time.Second},
		{"base one is constant", 5, 1, 300, 1 * time.Second},
		{"cap below first delay", 1, 10, 5, 5 * time.Second},
		{"base three", 2, 3, 300, 9 * time.Second},
		{"zero attempts clamps to one", 0, 2, 300, 2 * time.Second},
		{"overflow clamps to cap", 100, 10, 600, 600 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Delay(tt.attempts, tt.base, tt.cap))
		})
	}
}

func TestDelayMonotonicUpToCap(t *testing.T) {
	prev := time.Duration(0)
	for n := 1; n <= 20; n++ {
		d := Delay(n, 2, 300)
		assert.GreaterOrEqual(t, d, prev, "delay must never shrink")
		assert.LessOrEqual(t, d, 300*time.Second)
		prev = d
	}
}
