package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
)

func newCacheWithServer(t *testing.T, next *stubRoleRepo, ttl time.Duration) (*RoleCache, *miniredis.Miniredis, *[]string) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var results []string
	cache := NewRoleCache(client, next, ttl, zerolog.Nop()).
		WithLookupCounter(func(r string) { results = append(results, r) })
	return cache, mr, &results
}

func TestRoleCache_HitIsServedFromRedis(t *testing.T) {
	next := &stubRoleRepo{roles: map[string]domain.Role{"ADMIN": {ID: "1", Name: "ADMIN", Description: "admins"}}}
	cache, mr, results := newCacheWithServer(t, next, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		role, err := cache.FindByName(ctx, "ADMIN")
		if err != nil || role.ID != "1" || role.Description != "admins" {
			t.Fatalf("FindByName #%d = %+v, %v", i, role, err)
		}
	}

	if next.finds != 1 {
		t.Fatalf("second lookup must not reach the store, got %d finds", next.finds)
	}
	if got := *results; len(got) != 2 || got[0] != "miss" || got[1] != "hit" {
		t.Fatalf("unexpected lookup results %v", got)
	}

	raw, err := mr.Get("role:ADMIN")
	if err != nil {
		t.Fatalf("expected role:ADMIN in redis: %v", err)
	}
	var cached domain.Role
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached.Name != "ADMIN" {
		t.Fatalf("cached value is not the role as JSON: %q", raw)
	}
	if ttl := mr.TTL("role:ADMIN"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := cache.FindByName(ctx, "ADMIN"); err != nil {
		t.Fatalf("FindByName after expiry: %v", err)
	}
	if next.finds != 2 {
		t.Fatalf("expired entry must be reloaded from the store, got %d finds", next.finds)
	}
}

func TestRoleCache_MissLeavesNoKey(t *testing.T) {
	next := &stubRoleRepo{roles: map[string]domain.Role{}}
	cache, mr, _ := newCacheWithServer(t, next, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cache.FindByName(context.Background(), "GHOST"); !errors.Is(err, domain.ErrRoleNotFound) {
			t.Fatalf("expected ErrRoleNotFound, got %v", err)
		}
	}
	if mr.Exists("role:GHOST") {
		t.Fatalf("a missing role must not be cached")
	}
	if next.finds != 2 {
		t.Fatalf("every miss must reach the store, got %d finds", next.finds)
	}
}

func TestRoleCache_SaveRefreshesEntry(t *testing.T) {
	next := &stubRoleRepo{roles: map[string]domain.Role{"USER": {ID: "3", Name: "USER", Description: "old"}}}
	cache, _, _ := newCacheWithServer(t, next, time.Minute)
	ctx := context.Background()

	if _, err := cache.FindByName(ctx, "USER"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if _, err := cache.Save(ctx, &domain.Role{ID: "3", Name: "USER", Description: "new"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	role, err := cache.FindByName(ctx, "USER")
	if err != nil || role.Description != "new" {
		t.Fatalf("expected refreshed entry, got %+v, %v", role, err)
	}
	if next.finds != 1 {
		t.Fatalf("refreshed entry must be served from redis, got %d finds", next.finds)
	}
}

func TestRoleCache_UndecodableEntryFallsThrough(t *testing.T) {
	next := &stubRoleRepo{roles: map[string]domain.Role{"MANAGER": {ID: "2", Name: "MANAGER"}}}
	cache, mr, results := newCacheWithServer(t, next, time.Minute)

	if err := mr.Set("role:MANAGER", "{not json"); err != nil {
		t.Fatalf("seed redis: %v", err)
	}

	role, err := cache.FindByName(context.Background(), "MANAGER")
	if err != nil || role.ID != "2" {
		t.Fatalf("FindByName = %+v, %v", role, err)
	}
	if next.finds != 1 || (*results)[0] != "error" {
		t.Fatalf("expected fall-through with an error lookup, finds=%d results=%v", next.finds, *results)
	}

	raw, _ := mr.Get("role:MANAGER")
	var cached domain.Role
	if err := json.Unmarshal([]byte(raw), &cached); err != nil || cached.ID != "2" {
		t.Fatalf("bad entry must be replaced, got %q", raw)
	}
}
