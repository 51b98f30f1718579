package cyw

import (
	"testing"
	"time"
)

func TestStallBackoff(t *testing.T) {
	prev := time.Duration(0)
	for stalled := 1; stalled < 200; stalled++ {
		sleep := stallBackoff(stalled)
		if sleep <= 0 {
			t.Fatalf("stalled=%d: sleep %v not positive", stalled, sleep)
		}
		if sleep > backoffMax {
			t.Fatalf("stalled=%d: sleep %v exceeds max %v", stalled, sleep, backoffMax)
		}
		if sleep < prev {
			t.Fatalf("stalled=%d: sleep %v shrank from %v", stalled, sleep, prev)
		}
		prev = sleep
	}
	// Long idle periods saturate at the max instead of wrapping around.
	if got := stallBackoff(1000); got != backoffMax {
		t.Errorf("saturated sleep = %v, want %v", got, backoffMax)
	}
}
