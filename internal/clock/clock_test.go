package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func TestFakeFiresInOrder(t *testing.T) {
	f := NewFake(epoch)
	var order []int
	f.AfterFunc(2*time.Second, func() { order = append(order, 2) })
	f.AfterFunc(time.Second, func() { order = append(order, 1) })
	f.AfterFunc(2*time.Second, func() { order = append(order, 3) })

	f.Advance(3 * time.Second)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("unexpected order %v", order)
	}
	if !f.Now().Equal(epoch.Add(3 * time.Second)) {
		t.Fatalf("clock at %v", f.Now())
	}
}

func TestFakeNowDuringCallback(t *testing.T) {
	f := NewFake(epoch)
	var seen time.Time
	f.AfterFunc(1500*time.Millisecond, func() { seen = f.Now() })
	f.Advance(time.Minute)
	if !seen.Equal(epoch.Add(1500 * time.Millisecond)) {
		t.Fatalf("callback saw %v", seen)
	}
}

func TestFakeStop(t *testing.T) {
	f := NewFake(epoch)
	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("first stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second stop should report false")
	}
	f.Advance(time.Hour)
	if fired {
		t.Fatal("stopped timer fired")
	}
	if f.Pending() != 0 {
		t.Fatalf("expected 0 pending, got %d", f.Pending())
	}
}

func TestFakeRescheduleFromCallback(t *testing.T) {
	f := NewFake(epoch)
	count := 0
	var arm func()
	arm = func() {
		f.AfterFunc(time.Second, func() {
			count++
			arm()
		})
	}
	arm()
	f.Advance(5 * time.Second)
	if count != 5 {
		t.Fatalf("expected 5 firings, got %d", count)
	}
	if f.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", f.Pending())
	}
}

func TestEpochMillisRoundTrip(t *testing.T) {
	ms := EpochMillis(epoch)
	if !FromEpochMillis(ms).Equal(epoch) {
		t.Fatal("round trip mismatch")
	}
}
