package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const roleCachePrefix = "access:role:"

// RoleCache keeps resolved roles in Redis so repeated requests skip the
// profile lookup. A nil cache is valid and caches nothing.
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedRole struct {
	Role  Role   `json:"role"`
	Roles []Role `json:"roles,omitempty"`
}

// NewRoleCache returns a cache storing entries for ttl.
func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RoleCache{client: client, ttl: ttl}
}

func (c *RoleCache) get(ctx context.Context, userID int64) (cachedRole, bool, error) {
	if c == nil || c.client == nil {
		return cachedRole{}, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cachedRole{}, false, nil
		}
		return cachedRole{}, false, err
	}
	var entry cachedRole
	if err := json.Unmarshal(raw, &entry); err != nil {
		return cachedRole{}, false, err
	}
	return entry, true, nil
}

func (c *RoleCache) set(ctx context.Context, userID int64, entry cachedRole) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(userID), raw, c.ttl).Err()
}

// Invalidate drops the cached role of userID.
func (c *RoleCache) Invalidate(ctx context.Context, userID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (c *RoleCache) key(userID int64) string {
	return roleCachePrefix + strconv.FormatInt(userID, 10)
}
