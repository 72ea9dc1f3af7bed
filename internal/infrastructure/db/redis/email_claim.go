package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultClaimTTL = 30 * time.Second

// releaseScript deletes the claim only while it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EmailClaimer holds a short-lived registration claim per email backed by Redis.
// Key format: claim:register:<email>
type EmailClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEmailClaimer creates an EmailClaimer. Claims expire after ttl so a crashed
// registration never blocks an email for long.
func NewEmailClaimer(client *redis.Client, ttl time.Duration) *EmailClaimer {
	if ttl <= 0 {
		ttl = defaultClaimTTL
	}
	return &EmailClaimer{client: client, ttl: ttl}
}

// Claim reports whether the caller now holds the claim on email. The token
// identifies this holder for Release.
func (c *EmailClaimer) Claim(ctx context.Context, email string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, c.key(email), token, c.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claim email: %w", err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the claim on email if token still holds it. A claim that
// expired and was taken by another caller is left alone.
func (c *EmailClaimer) Release(ctx context.Context, email, token string) error {
	if err := releaseScript.Run(ctx, c.client, []string{c.key(email)}, token).Err(); err != nil {
		return fmt.Errorf("release email: %w", err)
	}
	return nil
}

func (c *EmailClaimer) key(email string) string {
	return "claim:register:" + email
}
