package invites

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// {communityID} resolves to the community's vanity invite code.
const vanityRedisKey = "communitylog:vanity:%s"

const defaultVanityTTL = time.Hour

// VanityCache caches vanity codes in redis so the diff fallback path does
// not hit the provider on every unattributed join. Best-effort: every redis
// failure reads as a miss and the caller falls through to the provider.
type VanityCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewVanityCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *VanityCache {
	if ttl <= 0 {
		ttl = defaultVanityTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &VanityCache{rdb: rdb, ttl: ttl, log: log}
}

func (v *VanityCache) Get(ctx context.Context, communityID string) (string, bool) {
	if v.rdb == nil || communityID == "" {
		return "", false
	}
	code, err := v.rdb.Get(ctx, fmt.Sprintf(vanityRedisKey, communityID)).Result()
	if err != nil {
		if err != redis.Nil {
			v.log.Debug("vanity cache read failed", "community_id", communityID, "err", err)
		}
		return "", false
	}
	return code, code != ""
}

func (v *VanityCache) Set(ctx context.Context, communityID, code string) {
	if v.rdb == nil || communityID == "" || code == "" {
		return
	}
	if err := v.rdb.Set(ctx, fmt.Sprintf(vanityRedisKey, communityID), code, v.ttl).Err(); err != nil {
		v.log.Debug("vanity cache write failed", "community_id", communityID, "err", err)
	}
}

// Invalidate drops the cached vanity code, e.g. after the community changes it.
func (v *VanityCache) Invalidate(ctx context.Context, communityID string) {
	if v.rdb == nil || communityID == "" {
		return
	}
	if err := v.rdb.Del(ctx, fmt.Sprintf(vanityRedisKey, communityID)).Err(); err != nil {
		v.log.Debug("vanity cache invalidate failed", "community_id", communityID, "err", err)
	}
}
