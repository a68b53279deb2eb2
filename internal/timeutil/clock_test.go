package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	var c Clock = RealClock{}
	before := time.Now()
	c.Sleep(time.Millisecond)
	if got := c.Now(); got.Before(before) {
		t.Errorf("Now() = %v, before %v", got, before)
	}
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	if !c.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", c.Now(), start)
	}
	c.Advance(time.Minute)
	c.Sleep(2 * time.Second)
	c.Sleep(4 * time.Second)

	want := start.Add(time.Minute + 6*time.Second)
	if !c.Now().Equal(want) {
		t.Errorf("Now() = %v, want %v", c.Now(), want)
	}
	sleeps := c.Sleeps()
	if len(sleeps) != 2 || sleeps[0] != 2*time.Second || sleeps[1] != 4*time.Second {
		t.Errorf("Sleeps() = %v", sleeps)
	}

	// The returned slice is a copy.
	sleeps[0] = 0
	if c.Sleeps()[0] != 2*time.Second {
		t.Error("Sleeps() exposed internal state")
	}
}
