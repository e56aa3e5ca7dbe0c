package authz

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResolveCache caches resolved permission sets in Redis. Keys embed the
// snapshot generation, so a snapshot swap orphans every prior entry and the
// TTL sweeps them out; correctness depends only on generation freshness,
// never on wall-clock time.
type ResolveCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResolveCache instantiates the cache helper. A nil client disables
// caching transparently.
func NewResolveCache(client *redis.Client, ttl time.Duration) *ResolveCache {
	return &ResolveCache{client: client, ttl: ttl}
}

type cachedResolution struct {
	Permissions []string `json:"permissions"`
	UnknownRole bool     `json:"unknown_role"`
}

func resolveKey(generation uint64, principal Principal) string {
	return fmt.Sprintf("authz:resolve:%d:%s:%s", generation, principal.RoleID, principal.DepartmentKey)
}

// Get returns a cached resolution for the principal under the given
// snapshot generation. ok is false on a miss or any cache error.
func (c *ResolveCache) Get(ctx context.Context, generation uint64, principal Principal) (set EffectivePermissionSet, unknownRole bool, ok bool) {
	if c == nil || c.client == nil {
		return EffectivePermissionSet{}, false, false
	}
	payload, err := c.client.Get(ctx, resolveKey(generation, principal)).Bytes()
	if err != nil {
		return EffectivePermissionSet{}, false, false
	}
	var cached cachedResolution
	if err := json.Unmarshal(payload, &cached); err != nil {
		return EffectivePermissionSet{}, false, false
	}
	set = newEffectiveSet(len(cached.Permissions))
	for _, id := range cached.Permissions {
		set.add(id)
	}
	return set, cached.UnknownRole, true
}

// Put stores a resolution. Failures are swallowed; the cache is a pure
// optimization and resolution stays correct without it.
func (c *ResolveCache) Put(ctx context.Context, generation uint64, principal Principal, set EffectivePermissionSet, unknownRole bool) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(cachedResolution{
		Permissions: set.List(),
		UnknownRole: unknownRole,
	})
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, resolveKey(generation, principal), payload, c.ttl).Err()
}
