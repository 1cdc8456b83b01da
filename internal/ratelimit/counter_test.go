package ratelimit

import (
	"testing"
	"time"
)

func TestCounterThrottles(t *testing.T) {
	c := NewCounter(time.Hour)
	if _, ok := c.Inc(); !ok {
		t.Fatal("first occurrence must log")
	}
	for i := 0; i < 5; i++ {
		if _, ok := c.Inc(); ok {
			t.Fatal("occurrences inside the interval must be suppressed")
		}
	}
	if c.Total() != 6 {
		t.Errorf("total = %d, want 6", c.Total())
	}
}

func TestCounterZeroIntervalAlwaysLogs(t *testing.T) {
	c := NewCounter(0)
	for i := 0; i < 3; i++ {
		if _, ok := c.Inc(); !ok {
			t.Fatal("zero interval disables throttling")
		}
	}
}

func TestNilCounter(t *testing.T) {
	var c *Counter
	if total, ok := c.Inc(); total != 0 || ok {
		t.Fatal("nil counter must be inert")
	}
	if c.Total() != 0 {
		t.Fatal("nil counter total must be zero")
	}
}
