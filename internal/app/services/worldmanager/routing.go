package worldmanager

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

// walletZoneTTL bounds how long a stale routing entry survives a player
// disconnecting without a clean logout; the dispatcher falls back to an
// explicit zone hint (or a miss) once an entry expires.
const walletZoneTTL = 15 * time.Minute

// RoutingCache is the wallet→zoneId lookup shared across the shard fleet
// (SPEC_FULL.md "go-redis/redis/v8 | C16 World Manager"), so a dispatcher
// request can find which Runtime currently holds an entity without
// scanning every zone on every process in the fleet.
type RoutingCache struct {
	client *redis.Client
}

// NewRoutingCache constructs a cache backed by a Redis client at addr.
func NewRoutingCache(addr string) *RoutingCache {
	return &RoutingCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies connectivity, used at boot so a misconfigured address fails
// fast instead of surfacing as a routing miss on the first player action.
func (c *RoutingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// SetWalletZone records that wallet's entity currently resides in zoneID.
// Called whenever a player logs in, spawns, or completes a cross-zone move
// (portal transition, dungeon teleport).
func (c *RoutingCache) SetWalletZone(ctx context.Context, wallet, zoneID string) error {
	return c.client.Set(ctx, routingKey(wallet), zoneID, walletZoneTTL).Err()
}

// WalletZone resolves wallet's last known zone. ok is false on a cache miss
// (redis.Nil) as well as any other read failure, since both cases mean the
// dispatcher must fall back to a broadcast lookup or reject the request.
func (c *RoutingCache) WalletZone(ctx context.Context, wallet string) (zoneID string, ok bool) {
	zoneID, err := c.client.Get(ctx, routingKey(wallet)).Result()
	if err != nil {
		return "", false
	}
	return zoneID, true
}

// ClearWallet removes a wallet's routing entry on logout.
func (c *RoutingCache) ClearWallet(ctx context.Context, wallet string) error {
	return c.client.Del(ctx, routingKey(wallet)).Err()
}

// Close releases the underlying connection pool.
func (c *RoutingCache) Close() error {
	return c.client.Close()
}

func routingKey(wallet string) string {
	return "worldcore:wallet-zone:" + wallet
}
