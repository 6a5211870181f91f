package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/voice-pos/internal/core/domain"
)

func newRedisAdapter(t *testing.T) (*RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisAdapter(client, "pos:", time.Hour), mr
}

func TestRedisCheckpoint_RoundTrip(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	saved := time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC)
	err := adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-1",
		Revision:  "rev-1",
		Cart:      map[string]int{"apple": 2, "kiwi": 1},
		Stock:     map[string]int{"apple": 3, "kiwi": 9, "coffee": 0},
		SavedAt:   saved,
	})
	if err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	if got := mr.HGet("pos:checkpoint:till-1:cart", "apple"); got != "2" {
		t.Errorf("expected cart apple=2 in redis, got %q", got)
	}

	cp, err := adapter.LoadCheckpoint(ctx, "till-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if cp == nil {
		t.Fatal("expected checkpoint, got nil")
	}
	if cp.Revision != "rev-1" || !cp.SavedAt.Equal(saved) {
		t.Errorf("unexpected header: %+v", cp)
	}
	if cp.Cart["apple"] != 2 || cp.Cart["kiwi"] != 1 || len(cp.Cart) != 2 {
		t.Errorf("unexpected cart: %v", cp.Cart)
	}
	if cp.Stock["coffee"] != 0 || cp.Stock["kiwi"] != 9 || len(cp.Stock) != 3 {
		t.Errorf("unexpected stock: %v", cp.Stock)
	}
}

func TestRedisCheckpoint_ReplacesStaleLines(t *testing.T) {
	adapter, _ := newRedisAdapter(t)
	ctx := context.Background()

	adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-1", Revision: "rev-1",
		Cart: map[string]int{"apple": 2}, Stock: map[string]int{"apple": 3},
	})
	adapter.SaveCheckpoint(ctx, domain.Checkpoint{
		SessionID: "till-1", Revision: "rev-2",
		Cart: map[string]int{}, Stock: map[string]int{"apple": 5},
	})

	cp, err := adapter.LoadCheckpoint(ctx, "till-1")
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if len(cp.Cart) != 0 {
		t.Errorf("expected empty cart, got %v", cp.Cart)
	}
	if cp.Stock["apple"] != 5 || cp.Revision != "rev-2" {
		t.Errorf("unexpected checkpoint: %+v", cp)
	}
}

func TestRedisCheckpoint_Missing(t *testing.T) {
	adapter, _ := newRedisAdapter(t)

	cp, err := adapter.LoadCheckpoint(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cp != nil {
		t.Error("expected nil for a session without checkpoint")
	}
}

func TestRedisCheckpoint_Malformed(t *testing.T) {
	adapter, mr := newRedisAdapter(t)

	mr.HSet("pos:checkpoint:till-1:meta", "revision", "r", "saved_at", time.Now().UTC().Format(time.RFC3339Nano))
	mr.HSet("pos:checkpoint:till-1:cart", "apple", "lots")

	if _, err := adapter.LoadCheckpoint(context.Background(), "till-1"); err == nil {
		t.Error("expected error for non-numeric quantity")
	}
}

func TestRedisCheckpoint_ServerError(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	mr.SetError("LOADING redis is loading the dataset")

	err := adapter.SaveCheckpoint(context.Background(), domain.Checkpoint{SessionID: "till-1"})
	if err == nil {
		t.Error("expected error when redis fails")
	}
}

func TestSetIdempotency(t *testing.T) {
	adapter, mr := newRedisAdapter(t)
	ctx := context.Background()

	ok, err := adapter.SetIdempotency(ctx, "request:till-1:abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected first call to succeed")
	}

	ok, _ = adapter.SetIdempotency(ctx, "request:till-1:abc")
	if ok {
		t.Error("expected duplicate to be rejected")
	}

	if ttl := mr.TTL("pos:request:till-1:abc"); ttl != time.Hour {
		t.Errorf("expected ttl 1h, got %v", ttl)
	}

	if err := adapter.ReleaseIdempotency(ctx, "request:till-1:abc"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if mr.Exists("pos:request:till-1:abc") {
		t.Error("expected key to be deleted")
	}
	ok, _ = adapter.SetIdempotency(ctx, "request:till-1:abc")
	if !ok {
		t.Error("expected released key to be reusable")
	}

	mr.FastForward(2 * time.Hour)
	ok, _ = adapter.SetIdempotency(ctx, "request:till-1:abc")
	if !ok {
		t.Error("expected key to be reusable after expiry")
	}
}
