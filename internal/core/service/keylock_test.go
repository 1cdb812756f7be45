package service

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	l := newKeyLock(8)
	key := dayKey(42, "2026-08-17")

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock(key)
			counter++
			l.Unlock(key)
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Fatalf("counter = %d, want 50", counter)
	}
}

// LockAll and single Lock calls on overlapping keys must not deadlock, and
// duplicate keys in one batch must not double-lock a stripe.
func TestKeyLock_LockAll(t *testing.T) {
	l := newKeyLock(4)
	keys := []string{
		dayKey(1, "2026-08-17"),
		dayKey(2, "2026-08-17"),
		dayKey(1, "2026-08-18"),
		dayKey(1, "2026-08-17"), // duplicate
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			release := l.LockAll(keys)
			release()
		}
		done <- struct{}{}
	}()
	go func() {
		for i := 0; i < 100; i++ {
			l.Lock(keys[0])
			l.Unlock(keys[0])
		}
		done <- struct{}{}
	}()
	<-done
	<-done
}

func TestDayKey(t *testing.T) {
	if dayKey(7, "2026-01-02") != "7|2026-01-02" {
		t.Fatalf("unexpected key %q", dayKey(7, "2026-01-02"))
	}
	if dayKey(7, "2026-01-02") == dayKey(70, "2026-01-02") {
		t.Fatal("distinct users must produce distinct keys")
	}
}
