package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, time.Second), mr
}

func TestRedisLockerExcludesSecondHolder(t *testing.T) {
	l, _ := newTestRedisLocker(t)

	release, err := l.Acquire(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "user-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	release()
	release2, err := l.Acquire(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestRedisLockerReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newTestRedisLocker(t)

	release, err := l.Acquire(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	// Simulate expiry followed by another holder taking the key.
	mr.Set(l.prefix+"user-2", "someone-else")

	release()
	got, err := mr.Get(l.prefix + "user-2")
	if err != nil || got != "someone-else" {
		t.Fatalf("expected foreign token to survive release, got %q (%v)", got, err)
	}
}

func TestLocalLockerSerializesKey(t *testing.T) {
	l := NewLocalLocker()
	release, err := l.Acquire(context.Background(), "k")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Acquire(ctx, "k"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}

	release()
	release()
	if _, err := l.Acquire(context.Background(), "k"); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func localSlotCount(l *LocalLocker) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func TestLocalLockerDropsIdleKeys(t *testing.T) {
	l := NewLocalLocker()
	for _, key := range []string{"user-1", "user-2", "user-3"} {
		release, err := l.Acquire(context.Background(), key)
		if err != nil {
			t.Fatalf("acquire %s: %v", key, err)
		}
		release()
	}
	if n := localSlotCount(l); n != 0 {
		t.Fatalf("expected no idle slots, got %d", n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	held, _ := l.Acquire(context.Background(), "user-1")
	if _, err := l.Acquire(ctx, "user-1"); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired, got %v", err)
	}
	if n := localSlotCount(l); n != 1 {
		t.Fatalf("expected the held slot only, got %d", n)
	}
	held()
	if n := localSlotCount(l); n != 0 {
		t.Fatalf("expected no slots after release, got %d", n)
	}
}

func TestLocalLockerHandsOffToWaiter(t *testing.T) {
	l := NewLocalLocker()
	first, err := l.Acquire(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	acquired := make(chan func(), 1)
	go func() {
		release, err := l.Acquire(context.Background(), "user-1")
		if err != nil {
			t.Errorf("waiter acquire: %v", err)
			close(acquired)
			return
		}
		acquired <- release
	}()

	select {
	case <-acquired:
		t.Fatal("waiter acquired a held key")
	case <-time.After(20 * time.Millisecond):
	}

	first()
	select {
	case second, ok := <-acquired:
		if !ok {
			return
		}
		// The waiter still holds the slot, so a third caller must block.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		if _, err := l.Acquire(ctx, "user-1"); !errors.Is(err, ErrNotAcquired) {
			t.Fatalf("expected ErrNotAcquired while waiter holds, got %v", err)
		}
		second()
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired after release")
	}
	if n := localSlotCount(l); n != 0 {
		t.Fatalf("expected no slots after both released, got %d", n)
	}
}

func TestRedisLockerPing(t *testing.T) {
	l, mr := newTestRedisLocker(t)

	if err := l.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	mr.Close()
	if err := l.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail once redis is gone")
	}
}
