package keypool

import (
	"errors"
	"testing"
	"time"
)

func TestNewRejectsEmptyPool(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, 0); !errors.Is(err, ErrNoKeys) {
		t.Fatalf("expected ErrNoKeys, got %v", err)
	}
	if _, err := New([]string{"", "  "}, 0); !errors.Is(err, ErrNoKeys) {
		t.Fatalf("expected ErrNoKeys for blank keys, got %v", err)
	}
}

func TestNextRoundRobinWithWraparound(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1", "k2", "k3"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	var got []string
	for i := 0; i < 4; i++ {
		key, err := pool.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		got = append(got, key)
	}

	want := []string{"k1", "k2", "k3", "k1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected rotation order: got %v, want %v", got, want)
		}
	}
}

func TestNextSkipsCoolingKey(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1", "k2", "k3"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	pool.MarkRateLimited("k1", time.Minute)

	for i := 0; i < 6; i++ {
		key, err := pool.Next()
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if key == "k1" {
			t.Fatalf("selected cooling key on iteration %d", i)
		}
	}
}

func TestNextFailsFastWhenAllCooling(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1", "k2", "k3"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	pool.MarkRateLimited("k1", time.Minute)
	pool.MarkRateLimited("k2", time.Minute)
	pool.MarkRateLimited("k3", time.Minute)

	start := time.Now()
	_, err = pool.Next()
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("next blocked for %v", elapsed)
	}
}

func TestNextReusesKeyAfterCooldownExpiry(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	base := time.Now()
	pool.now = func() time.Time { return base }
	pool.MarkRateLimited("k1", time.Minute)

	if _, err := pool.Next(); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited while cooling, got %v", err)
	}

	pool.now = func() time.Time { return base.Add(2 * time.Minute) }
	key, err := pool.Next()
	if err != nil {
		t.Fatalf("next failed after expiry: %v", err)
	}
	if key != "k1" {
		t.Fatalf("unexpected key: %q", key)
	}
}

func TestEarliestPrefersSoonestExpiry(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1", "k2", "k3"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	base := time.Now()
	pool.now = func() time.Time { return base }
	pool.MarkRateLimited("k1", 3*time.Minute)
	pool.MarkRateLimited("k2", time.Minute)
	pool.MarkRateLimited("k3", 2*time.Minute)

	key, wait := pool.Earliest()
	if key != "k2" {
		t.Fatalf("expected earliest key k2, got %q", key)
	}
	if wait != time.Minute {
		t.Fatalf("unexpected wait: %v", wait)
	}
}

func TestEarliestReturnsAvailableKeyImmediately(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1", "k2"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	pool.MarkRateLimited("k1", time.Minute)

	key, wait := pool.Earliest()
	if key != "k2" || wait != 0 {
		t.Fatalf("expected k2 with no wait, got %q %v", key, wait)
	}
}

func TestMarkHealthyClearsCooldown(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1"}, 0)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	pool.MarkRateLimited("k1", time.Hour)
	pool.MarkHealthy("k1")

	if _, err := pool.Next(); err != nil {
		t.Fatalf("expected k1 to be usable again, got %v", err)
	}
}

func TestMarkRateLimitedUsesFallbackCooldown(t *testing.T) {
	t.Parallel()

	pool, err := New([]string{"k1"}, time.Minute)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}

	base := time.Now()
	pool.now = func() time.Time { return base }
	pool.MarkRateLimited("k1", 0)

	_, wait := pool.Earliest()
	if wait != time.Minute {
		t.Fatalf("expected fallback cooldown, got %v", wait)
	}
}
