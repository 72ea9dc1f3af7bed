package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClaimer(t *testing.T, ttl time.Duration) (*EmailClaimer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewEmailClaimer(client, ttl), mr
}

func TestEmailClaimer_ClaimIsExclusive(t *testing.T) {
	c, _ := newTestClaimer(t, time.Minute)
	ctx := context.Background()

	token, ok, err := c.Claim(ctx, "a@x.com")
	if err != nil || !ok || token == "" {
		t.Fatalf("first claim should succeed, got token=%q ok=%v err=%v", token, ok, err)
	}
	token, ok, err = c.Claim(ctx, "a@x.com")
	if err != nil || ok || token != "" {
		t.Fatalf("second claim should be refused, got token=%q ok=%v err=%v", token, ok, err)
	}
	_, ok, _ = c.Claim(ctx, "b@x.com")
	if !ok {
		t.Fatalf("claims on other emails are independent")
	}
}

func TestEmailClaimer_Release(t *testing.T) {
	c, mr := newTestClaimer(t, time.Minute)
	ctx := context.Background()

	token, _, _ := c.Claim(ctx, "a@x.com")
	if !mr.Exists("claim:register:a@x.com") {
		t.Fatalf("expected claim key to exist")
	}
	if err := c.Release(ctx, "a@x.com", token); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, _ := c.Claim(ctx, "a@x.com"); !ok {
		t.Fatalf("claim should be available after release")
	}
}

func TestEmailClaimer_ReleaseKeepsNewerHolder(t *testing.T) {
	c, mr := newTestClaimer(t, 10*time.Second)
	ctx := context.Background()

	stale, _, _ := c.Claim(ctx, "a@x.com")
	mr.FastForward(11 * time.Second)

	current, ok, _ := c.Claim(ctx, "a@x.com")
	if !ok {
		t.Fatalf("claim should be available after expiry")
	}

	// The first holder outlived its TTL; its release must not free the new claim.
	if err := c.Release(ctx, "a@x.com", stale); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if got, err := mr.Get("claim:register:a@x.com"); err != nil || got != current {
		t.Fatalf("expected the newer claim to survive, got %q (%v)", got, err)
	}
	if _, ok, _ := c.Claim(ctx, "a@x.com"); ok {
		t.Fatalf("claim must still be held by the newer caller")
	}

	if err := c.Release(ctx, "a@x.com", current); err != nil {
		t.Fatalf("release: %v", err)
	}
	if mr.Exists("claim:register:a@x.com") {
		t.Fatalf("owner release should delete the claim")
	}
}

func TestEmailClaimer_Expires(t *testing.T) {
	c, mr := newTestClaimer(t, 10*time.Second)
	ctx := context.Background()

	_, _, _ = c.Claim(ctx, "a@x.com")
	if ttl := mr.TTL("claim:register:a@x.com"); ttl != 10*time.Second {
		t.Fatalf("expected ttl 10s, got %s", ttl)
	}

	mr.FastForward(11 * time.Second)
	if _, ok, _ := c.Claim(ctx, "a@x.com"); !ok {
		t.Fatalf("claim should be available after expiry")
	}
}

func TestEmailClaimer_DefaultTTL(t *testing.T) {
	c, _ := newTestClaimer(t, 0)
	if c.ttl != defaultClaimTTL {
		t.Fatalf("expected default ttl %s, got %s", defaultClaimTTL, c.ttl)
	}
}

func TestEmailClaimer_RedisDown(t *testing.T) {
	c, mr := newTestClaimer(t, time.Minute)
	mr.Close()

	if _, _, err := c.Claim(context.Background(), "a@x.com"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), Config{Addr: addr})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatalf("expected connect to fail against a closed server")
	}
}
