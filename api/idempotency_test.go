package api

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	m, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		if cerr := client.Close(); cerr != nil {
			t.Logf("redis close: %v", cerr)
		}
	})
	return m, client
}

func exerciseDeduper(t *testing.T, d Deduper) {
	t.Helper()
	ctx := context.Background()

	claimed, err := d.Claim(ctx, "k1")
	if err != nil || !claimed {
		t.Fatalf("expected first claim, got %v (err %v)", claimed, err)
	}
	claimed, err = d.Claim(ctx, "k1")
	if err != nil || claimed {
		t.Fatalf("expected duplicate claim to fail, got %v (err %v)", claimed, err)
	}
	if id, err := d.Lookup(ctx, "k1"); err != nil || id != "" {
		t.Fatalf("expected pending claim, got %q (err %v)", id, err)
	}
	if err := d.Resolve(ctx, "k1", "act-1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id, err := d.Lookup(ctx, "k1"); err != nil || id != "act-1" {
		t.Fatalf("expected act-1, got %q (err %v)", id, err)
	}
	if claimed, err := d.Claim(ctx, "k1"); err != nil || claimed {
		t.Fatalf("expected resolved key to stay claimed, got %v (err %v)", claimed, err)
	}
	if err := d.Resolve(ctx, "missing", "act-2"); err == nil {
		t.Fatalf("expected resolve of unknown key to fail")
	}

	if err := d.Remove(ctx, "k1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if id, err := d.Lookup(ctx, "k1"); err != nil || id != "" {
		t.Fatalf("expected removed key to read as empty, got %q (err %v)", id, err)
	}
	if claimed, err := d.Claim(ctx, "k1"); err != nil || !claimed {
		t.Fatalf("expected claim after remove, got %v (err %v)", claimed, err)
	}
	if err := d.Remove(ctx, "never-claimed"); err != nil {
		t.Fatalf("remove of unknown key: %v", err)
	}
}

func TestRedisDeduper(t *testing.T) {
	_, client := setupRedis(t)
	exerciseDeduper(t, NewRedisDeduper(client, time.Minute))
}

func TestMemoryDeduper(t *testing.T) {
	exerciseDeduper(t, NewMemoryDeduper(time.Minute))
}

func TestRedisDeduperKeyNamespacing(t *testing.T) {
	m, client := setupRedis(t)
	deduper := NewRedisDeduper(client, time.Minute)

	if _, err := deduper.Claim(context.Background(), "k1"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	expectedKey := dedupeNamespace + ":" + dedupeKeyPrefix + ":k1"
	if !m.Exists(expectedKey) {
		t.Fatalf("expected redis key %q to exist", expectedKey)
	}
	if ttl := m.TTL(expectedKey); ttl != time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	m.FastForward(2 * time.Minute)
	if claimed, err := deduper.Claim(context.Background(), "k1"); err != nil || !claimed {
		t.Fatalf("expected claim after expiry, got %v (err %v)", claimed, err)
	}
}

func TestMemoryDeduperExpiry(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	d := NewMemoryDeduper(time.Minute)
	d.now = func() time.Time { return now }

	if claimed, _ := d.Claim(context.Background(), "k1"); !claimed {
		t.Fatalf("expected first claim")
	}
	now = now.Add(2 * time.Minute)
	if id, _ := d.Lookup(context.Background(), "k1"); id != "" {
		t.Fatalf("expected expired key to read as empty, got %q", id)
	}
	if claimed, _ := d.Claim(context.Background(), "k1"); !claimed {
		t.Fatalf("expected claim after expiry")
	}
}
