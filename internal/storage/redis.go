package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/questweaver/questweaver/pkg/state"
)

// gameTTL keeps abandoned sessions from accumulating. Every save
// refreshes the clock.
const gameTTL = 72 * time.Hour

// RedisStorage implements the Storage interface using Redis
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func gameKey(id uuid.UUID) string {
	return "game:" + id.String()
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStorage) SaveGame(ctx context.Context, id uuid.UUID, cs *state.CharacterState) error {
	cs.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cs)
	if err != nil {
		r.logger.Error("Failed to marshal game session", "uuid", id, "error", err)
		return fmt.Errorf("failed to marshal game session: %w", err)
	}

	if err := r.client.Set(ctx, gameKey(id), string(data), gameTTL).Err(); err != nil {
		r.logger.Error("Failed to save game session", "uuid", id, "error", err)
		return fmt.Errorf("failed to save game session: %w", err)
	}

	return nil
}

func (r *RedisStorage) LoadGame(ctx context.Context, id uuid.UUID) (*state.CharacterState, error) {
	cmd := r.client.Get(ctx, gameKey(id))
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Game session not found", "uuid", id)
			return nil, nil // Return nil for not found
		}
		r.logger.Error("Failed to load game session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to load game session: %w", err)
	}

	var cs state.CharacterState
	if err := json.Unmarshal([]byte(cmd.Val()), &cs); err != nil {
		r.logger.Error("Failed to unmarshal game session", "uuid", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal game session: %w", err)
	}
	return &cs, nil
}

// ListGames scans the game keyspace and loads every session. Entries
// that fail to decode are skipped with a warning rather than failing
// the whole listing.
func (r *RedisStorage) ListGames(ctx context.Context) ([]*state.CharacterState, error) {
	var sessions []*state.CharacterState

	iter := r.client.Scan(ctx, 0, "game:*", 100).Iterator()
	for iter.Next(ctx) {
		val, err := r.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // expired between scan and get
			}
			return nil, fmt.Errorf("failed to read game session: %w", err)
		}

		var cs state.CharacterState
		if err := json.Unmarshal([]byte(val), &cs); err != nil {
			r.logger.Warn("Skipping undecodable game session", "key", iter.Val(), "error", err)
			continue
		}
		sessions = append(sessions, &cs)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan game sessions: %w", err)
	}
	return sessions, nil
}

func (r *RedisStorage) DeleteGame(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, gameKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete game session", "uuid", id, "error", err)
		return fmt.Errorf("failed to delete game session: %w", err)
	}
	return nil
}
