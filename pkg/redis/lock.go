package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const decisionLockScope = "design_decision"

// AcquireDecisionLock takes a short-lived exclusive lock for the given design
// id. It returns the release token and whether the lock was acquired. A held
// lock expires on its own after ttl so a crashed holder cannot wedge reviews.
func (c *Client) AcquireDecisionLock(ctx context.Context, designID string, ttl time.Duration) (string, bool, error) {
	if c.store == nil {
		return "", false, errors.New("redis client not initialized")
	}
	token := uuid.NewString()
	ok, err := c.SetNX(ctx, c.LockKey(decisionLockScope, designID), token, ttl)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseDecisionLock frees the lock only when the token still matches, so a
// holder whose lock already expired cannot release a successor's lock.
func (c *Client) ReleaseDecisionLock(ctx context.Context, designID, token string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	key := c.LockKey(decisionLockScope, designID)
	current, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		return err
	}
	if current != token {
		return nil
	}
	return c.Del(ctx, key)
}
