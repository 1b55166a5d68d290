package main

import (
	"math/rand"
	"testing"
	"time"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentile(samples, 50); got != 5 {
		t.Fatalf("p50 = %v", got)
	}
	if got := percentile(samples, 100); got != 10 {
		t.Fatalf("p100 = %v", got)
	}
	if got := percentile(nil, 99); got != 0 {
		t.Fatalf("empty = %v", got)
	}
}

func TestRunPhaseCountsFailures(t *testing.T) {
	s := runPhase(100, 4, func(_ *rand.Rand, i int) bool { return i%4 != 0 })
	if s.ops != 100 || s.failures != 25 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestIdentityForCyclesRoles(t *testing.T) {
	for i := 0; i < 6; i++ {
		id := identityFor(i)
		if err := id.Validate(); err != nil {
			t.Fatalf("identity %d invalid: %v", i, err)
		}
	}
}
