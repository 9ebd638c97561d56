package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisStore(client), mr
}

func storesUnderTest(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestStoreSetGetTakeDelete(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.Set(ctx, "tok", map[string]string{"a": "1", "b": "2"}, time.Minute); err != nil {
				t.Fatalf("set: %v", err)
			}
			if v, ok, err := store.Get(ctx, "tok", "a"); err != nil || !ok || v != "1" {
				t.Fatalf("get a: %q %v %v", v, ok, err)
			}
			if v, ok, err := store.Take(ctx, "tok", "b"); err != nil || !ok || v != "2" {
				t.Fatalf("take b: %q %v %v", v, ok, err)
			}
			if _, ok, err := store.Take(ctx, "tok", "b"); err != nil || ok {
				t.Fatalf("second take must miss: %v %v", ok, err)
			}
			if _, ok, _ := store.Get(ctx, "other", "a"); ok {
				t.Fatalf("sessions must not leak across tokens")
			}
			if err := store.Delete(ctx, "tok"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, ok, _ := store.Get(ctx, "tok", "a"); ok {
				t.Fatalf("expected session gone after delete")
			}
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	if err := store.Set(ctx, "tok", map[string]string{"a": "1"}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "tok", "a"); ok {
		t.Fatalf("expected expired session")
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()
	_ = store.Set(ctx, "tok", map[string]string{"a": "1"}, time.Minute)

	now = now.Add(61 * time.Second)
	if _, ok, _ := store.Get(ctx, "tok", "a"); ok {
		t.Fatalf("expected expired session")
	}
}

func TestTouchExtendsSession(t *testing.T) {
	ctx := context.Background()

	store, mr := newRedisStore(t)
	_ = store.Set(ctx, "tok", map[string]string{"a": "1"}, time.Minute)
	mr.FastForward(50 * time.Second)
	if err := store.Touch(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("touch: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if _, ok, _ := store.Get(ctx, "tok", "a"); !ok {
		t.Fatalf("redis: touched session expired early")
	}

	mem := NewMemoryStore()
	now := time.Now()
	mem.now = func() time.Time { return now }
	_ = mem.Set(ctx, "tok", map[string]string{"a": "1"}, time.Minute)
	now = now.Add(50 * time.Second)
	if err := mem.Touch(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("touch: %v", err)
	}
	now = now.Add(50 * time.Second)
	if _, ok, _ := mem.Get(ctx, "tok", "a"); !ok {
		t.Fatalf("memory: touched session expired early")
	}
	if err := mem.Touch(ctx, "missing", time.Minute); err != nil {
		t.Fatalf("touch on a missing session: %v", err)
	}
	if _, ok, _ := mem.Get(ctx, "missing", "a"); ok {
		t.Fatalf("touch must not create sessions")
	}
}

func TestHandoffIsSingleUse(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHandoff(store, time.Minute)
			if _, err := h.Peek(ctx, "tok"); !errors.Is(err, ErrSessionExpired) {
				t.Fatalf("expected no pending enrollment, got %v", err)
			}
			if err := h.Begin(ctx, "tok", "alice"); err != nil {
				t.Fatalf("begin: %v", err)
			}
			if u, err := h.Peek(ctx, "tok"); err != nil || u != "alice" {
				t.Fatalf("peek: %q %v", u, err)
			}
			if u, err := h.Peek(ctx, "tok"); err != nil || u != "alice" {
				t.Fatalf("peek must not consume: %q %v", u, err)
			}
			if u, err := h.Complete(ctx, "tok"); err != nil || u != "alice" {
				t.Fatalf("complete: %q %v", u, err)
			}
			if _, err := h.Complete(ctx, "tok"); !errors.Is(err, ErrSessionExpired) {
				t.Fatalf("second complete must fail, got %v", err)
			}
		})
	}
}

func TestHandoffConcurrentCompleteHasOneWinner(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			h := NewHandoff(store, time.Minute)
			if err := h.Begin(ctx, "tok", "alice"); err != nil {
				t.Fatalf("begin: %v", err)
			}

			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := h.Complete(ctx, "tok"); err == nil {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			if wins != 1 {
				t.Fatalf("expected exactly one successful completion, got %d", wins)
			}
		})
	}
}

func TestAppendKeepsEveryConcurrentValue(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 20
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if err := store.Append(ctx, "tok", "flash", fmt.Sprintf("m%d", i), "|", time.Minute); err != nil {
						t.Errorf("append: %v", err)
					}
				}(i)
			}
			wg.Wait()

			raw, ok, err := store.Take(ctx, "tok", "flash")
			if err != nil || !ok {
				t.Fatalf("take: %v %v", ok, err)
			}
			if got := len(strings.Split(raw, "|")); got != writers {
				t.Fatalf("expected %d messages, got %d in %q", writers, got, raw)
			}
		})
	}
}

func TestAppendArmsExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	if err := store.Append(ctx, "tok", "flash", "hi", "|", time.Minute); err != nil {
		t.Fatalf("append: %v", err)
	}
	if ttl := mr.TTL(redisKeyPrefix + "tok"); ttl != time.Minute {
		t.Fatalf("expected one minute ttl, got %s", ttl)
	}
}
