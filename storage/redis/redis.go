// Package redis provides a Redis implementation of the brandgen.LedgerStore
// interface. Usage increments run inside a Lua script so both counters and
// the timestamp move together. Asset records are relational and stay in
// the postgres or memory adapters.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bizkidco/brandbooth/pkg/brandgen"
)

// Storage implements brandgen.LedgerStore using Redis.
type Storage struct {
	client   redis.UniversalClient
	config   Config
	addUsage *redis.Script
}

// Config holds Redis storage configuration.
type Config struct {
	// KeyPrefix is prepended to all Redis keys (default: "brandbooth:")
	KeyPrefix string

	// LedgerTTL is the TTL for ledger keys (0 = no expiration). The
	// ledger is never deleted by the core, so the default is no expiry.
	LedgerTTL time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "brandbooth:",
		LedgerTTL: 0,
	}
}

// New creates a new Redis storage adapter.
// The client can be *redis.Client, *redis.ClusterClient, or *redis.Ring.
func New(client redis.UniversalClient, config Config) (*Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "brandbooth:"
	}

	return &Storage{
		client: client,
		config: config,
		addUsage: redis.NewScript(`
			local key = KEYS[1]
			local generations = tonumber(ARGV[1])
			local images = tonumber(ARGV[2])
			local usedAt = ARGV[3]
			local ttl = tonumber(ARGV[4])

			redis.call('HINCRBY', key, 'generation_count', generations)
			redis.call('HINCRBY', key, 'image_count', images)
			redis.call('HSET', key, 'last_used_at', usedAt)

			if ttl > 0 then
				redis.call('EXPIRE', key, ttl)
			end

			return redis.call('HGET', key, 'generation_count')
		`),
	}, nil
}

// GetOrCreateEntry implements brandgen.LedgerStore. A missing hash is the
// lazily-created zero entry; nothing is written until usage is recorded.
func (s *Storage) GetOrCreateEntry(ctx context.Context, key brandgen.LedgerKey) (*brandgen.LedgerEntry, error) {
	fields, err := s.client.HGetAll(ctx, s.ledgerKey(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	entry := &brandgen.LedgerEntry{Key: key}
	if len(fields) == 0 {
		return entry, nil
	}

	if v, ok := fields["generation_count"]; ok {
		if entry.GenerationCount, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("corrupt generation_count: %w", err)
		}
	}
	if v, ok := fields["image_count"]; ok {
		if entry.ImageCount, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("corrupt image_count: %w", err)
		}
	}
	if v, ok := fields["last_used_at"]; ok && v != "" {
		if entry.LastUsedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return nil, fmt.Errorf("corrupt last_used_at: %w", err)
		}
	}
	return entry, nil
}

// AddUsage implements brandgen.LedgerStore via a Lua script.
func (s *Storage) AddUsage(ctx context.Context, key brandgen.LedgerKey, generations, images int, usedAt time.Time) error {
	if generations < 0 || images < 0 {
		return fmt.Errorf("usage increments must be non-negative")
	}

	err := s.addUsage.Run(ctx, s.client,
		[]string{s.ledgerKey(key)},
		generations, images,
		usedAt.UTC().Format(time.RFC3339Nano),
		int(s.config.LedgerTTL.Seconds()),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to add usage: %w", err)
	}
	return nil
}

func (s *Storage) ledgerKey(key brandgen.LedgerKey) string {
	return fmt.Sprintf("%sledger:%s:%s:%s", s.config.KeyPrefix, key.OwnerID, key.ToolID, key.Plan)
}
