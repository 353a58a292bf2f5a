package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AiBunty/BoxCostPro-sub007/internal/entitlement"
)

// DecisionCache caches computed entitlement decisions in Redis. The engine
// itself never caches; this layer lives with the callers and must be
// invalidated whenever a subscription or override changes.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string // host:port
	Password string // Optional password
	DB       int    // Database number
	PoolSize int    // Connection pool size
}

// NewDecisionCache creates a Redis-backed decision cache with connection pooling
func NewDecisionCache(cfg RedisConfig, ttl time.Duration) (*DecisionCache, error) {
	// Set defaults
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,

		// Connection settings
		MaxRetries:      3,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &DecisionCache{client: client, ttl: ttl}, nil
}

// decisionKey builds the Redis key for a user's cached decision
func decisionKey(userID string) string {
	return "entitlement:" + userID
}

// Get retrieves a cached decision for a user
// Returns the decision and true on a hit, nil and false on a miss
func (c *DecisionCache) Get(ctx context.Context, userID string) (*entitlement.Decision, bool) {
	raw, err := c.client.Get(ctx, decisionKey(userID)).Result()
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to a miss too
		// so entitlement checks keep working without Redis.
		return nil, false
	}

	var decision entitlement.Decision
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return nil, false
	}

	return &decision, true
}

// Set stores a decision with the configured TTL
func (c *DecisionCache) Set(ctx context.Context, decision *entitlement.Decision) error {
	raw, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal decision: %w", err)
	}

	if err := c.client.Set(ctx, decisionKey(decision.UserID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache decision: %w", err)
	}

	return nil
}

// Invalidate drops a user's cached decision. Called on every override or
// subscription change and by the lifecycle sweep.
func (c *DecisionCache) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = decisionKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate decisions: %w", err)
	}

	return nil
}

// Ping tests the connection to Redis
func (c *DecisionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *DecisionCache) Close() error {
	return c.client.Close()
}
