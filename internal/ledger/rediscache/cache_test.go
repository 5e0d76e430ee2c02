package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNewRequiresAddress(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error when address is missing")
	}
}

func TestNewFailsWhenUnreachable(t *testing.T) {
	if _, err := New(context.Background(), Config{Address: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected ping failure against closed port")
	}
}

func TestKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	cache := newWithClient(client, "")
	if got := cache.key("0xabc"); got != "cyberguard:txcount:0xabc" {
		t.Fatalf("unexpected default key %q", got)
	}
	cache = newWithClient(client, "test:")
	if got := cache.key("0xabc"); got != "test:0xabc" {
		t.Fatalf("unexpected custom key %q", got)
	}
}

func TestGetSet(t *testing.T) {
	srv := newFakeRedis(t)
	cache, err := New(context.Background(), Config{Address: srv.Addr(), Prefix: "test:"})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	ctx := context.Background()
	if _, ok, err := cache.Get(ctx, "0xabc"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	if err := cache.Set(ctx, "0xabc", 42, 10*time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	value, ttl, ok := srv.entry("test:0xabc")
	if !ok || value != "42" || ttl != 10*time.Minute {
		t.Fatalf("unexpected stored entry %q ttl=%s ok=%v", value, ttl, ok)
	}

	count, ok, err := cache.Get(ctx, "0xabc")
	if err != nil || !ok || count != 42 {
		t.Fatalf("expected hit of 42, got %d ok=%v err=%v", count, ok, err)
	}
}

func TestSetSubSecondTTL(t *testing.T) {
	srv := newFakeRedis(t)
	cache, err := New(context.Background(), Config{Address: srv.Addr()})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	if err := cache.Set(context.Background(), "0xabc", 7, 1500*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ttl, _ := srv.entry("cyberguard:txcount:0xabc"); ttl != 1500*time.Millisecond {
		t.Fatalf("unexpected ttl %s", ttl)
	}
}

func TestGetRejectsNonNumericValue(t *testing.T) {
	srv := newFakeRedis(t)
	srv.put("cyberguard:txcount:0xabc", "many")
	cache, err := New(context.Background(), Config{Address: srv.Addr()})
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	if _, ok, err := cache.Get(context.Background(), "0xabc"); err == nil || ok {
		t.Fatalf("expected decode error, got ok=%v err=%v", ok, err)
	}
}
