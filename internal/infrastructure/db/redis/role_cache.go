package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/multirole-auth/internal/core/domain"
	"github.com/99minutos/multirole-auth/internal/core/ports"
)

const defaultRoleTTL = 10 * time.Minute

// RoleCache is a read-through cache in front of a RoleRepository.
// Key format: role:<name>
// Only hits are cached, so a role created later is visible immediately.
// Redis errors are logged and the call falls through to the wrapped store.
type RoleCache struct {
	client *redis.Client
	next   ports.RoleRepository
	ttl    time.Duration
	log    zerolog.Logger
	count  func(result string)
}

// NewRoleCache wraps next. A ttl <= 0 selects defaultRoleTTL.
func NewRoleCache(client *redis.Client, next ports.RoleRepository, ttl time.Duration, log zerolog.Logger) *RoleCache {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RoleCache{client: client, next: next, ttl: ttl, log: log, count: func(string) {}}
}

// WithLookupCounter registers fn to be told "hit", "miss" or "error" for
// every FindByName.
func (c *RoleCache) WithLookupCounter(fn func(result string)) *RoleCache {
	if fn != nil {
		c.count = fn
	}
	return c
}

func (c *RoleCache) FindByName(ctx context.Context, name string) (*domain.Role, error) {
	raw, err := c.client.Get(ctx, c.key(name)).Bytes()
	switch {
	case err == nil:
		var role domain.Role
		if jerr := json.Unmarshal(raw, &role); jerr == nil {
			c.count("hit")
			return &role, nil
		}
		c.count("error")
		c.log.Warn().Str("role", name).Msg("discarding undecodable cached role")
	case errors.Is(err, redis.Nil):
		c.count("miss")
	default:
		c.count("error")
		c.log.Warn().Err(err).Str("role", name).Msg("role cache read failed")
	}

	role, err := c.next.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	c.store(ctx, role)
	return role, nil
}

func (c *RoleCache) Save(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	saved, err := c.next.Save(ctx, role)
	if err != nil {
		return nil, err
	}
	c.store(ctx, saved)
	return saved, nil
}

func (c *RoleCache) store(ctx context.Context, role *domain.Role) {
	b, err := json.Marshal(role)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(role.Name), b, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("role", role.Name).Msg("role cache write failed")
	}
}

func (c *RoleCache) key(name string) string {
	return fmt.Sprintf("role:%s", name)
}
