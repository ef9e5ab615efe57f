package cache

import (
	"context"
	"errors"
	"testing"
)

func TestNilCache_IsPermanentMiss(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	var dest string
	found, err := c.Get(ctx, "k", &dest)
	if err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}
	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("nil Set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("nil Delete: %v", err)
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("expected Ping error on nil cache")
	}
}

func TestNilCache_AsideAlwaysFetches(t *testing.T) {
	var c *Cache
	calls := 0
	var dest int
	for i := 0; i < 2; i++ {
		err := c.Aside(context.Background(), "k", &dest, func() error {
			calls++
			dest = 42
			return nil
		})
		if err != nil {
			t.Fatalf("aside: %v", err)
		}
	}
	if calls != 2 || dest != 42 {
		t.Fatalf("expected fetch each time, calls=%d dest=%d", calls, dest)
	}
}

func TestNilCache_AsidePropagatesFetchError(t *testing.T) {
	var c *Cache
	want := errors.New("boom")
	var dest int
	if err := c.Aside(context.Background(), "k", &dest, func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := New("not-a-url", 0); err == nil {
		t.Fatal("expected error for invalid redis url")
	}
}
