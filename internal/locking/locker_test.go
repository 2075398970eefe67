package locking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "technician:a")
			if err != nil {
				t.Errorf("lock: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()
	unlockA, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock a: %v", err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	unlockB, err := locker.Lock(ctx, "b")
	if err != nil {
		t.Fatalf("lock b should not wait on a: %v", err)
	}
	unlockB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "a"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	unlock()
	unlock()
	again, err := locker.Lock(context.Background(), "a")
	if err != nil {
		t.Fatalf("relock after double unlock: %v", err)
	}
	again()
}

func TestLocalLockerDropsIdleKeys(t *testing.T) {
	locker := NewLocalLocker()
	for i := 0; i < 10; i++ {
		unlock, err := locker.Lock(context.Background(), fmt.Sprintf("technician:%d", i))
		if err != nil {
			t.Fatalf("lock: %v", err)
		}
		unlock()
	}

	unlock, err := locker.Lock(context.Background(), "busy")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "busy"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	locker.mu.Lock()
	held := len(locker.slots)
	locker.mu.Unlock()
	if held != 1 {
		t.Fatalf("expected only the held key to remain, got %d slots", held)
	}

	unlock()
	locker.mu.Lock()
	held = len(locker.slots)
	locker.mu.Unlock()
	if held != 0 {
		t.Fatalf("expected no slots after release, got %d", held)
	}
}
