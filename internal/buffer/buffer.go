package buffer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"codeberg.org/moodcanvas/server/internal/logger"
	"codeberg.org/moodcanvas/server/moodcanvas/sessions"
)

// handles Redis-backed buffering for session records
type SessionBuffer struct {
	client *redis.Client
}

// creates a new session buffer with Redis connection
func NewSessionBuffer(redisURL string) (*SessionBuffer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("connected to redis")

	return NewSessionBufferFromClient(client), nil
}

// wraps an existing client
func NewSessionBufferFromClient(client *redis.Client) *SessionBuffer {
	return &SessionBuffer{client: client}
}

// closes the Redis connection
func (b *SessionBuffer) Close() error {
	return b.client.Close()
}

// stores the latest record for a session and marks it dirty
func (b *SessionBuffer) SetRecord(ctx context.Context, record *sessions.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(keySessionRecord, record.Session.ID), data, 0)
	pipe.SAdd(ctx, keyDirtySessions, record.Session.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set record in redis: %w", err)
	}

	return nil
}

// retrieves the buffered record for a session
// returns nil if not found (caller should fall back to the durable store)
func (b *SessionBuffer) GetRecord(ctx context.Context, sessionID string) (*sessions.Record, error) {
	data, err := b.client.Get(ctx, fmt.Sprintf(keySessionRecord, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get record from redis: %w", err)
	}

	var record sessions.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal buffered record: %w", err)
	}

	return &record, nil
}

// returns all session IDs with unflushed records
func (b *SessionBuffer) GetDirtySessions(ctx context.Context) ([]string, error) {
	return b.client.SMembers(ctx, keyDirtySessions).Result()
}

// flags a session for the next flush
func (b *SessionBuffer) MarkDirty(ctx context.Context, sessionID string) error {
	return b.client.SAdd(ctx, keyDirtySessions, sessionID).Err()
}

// clears the dirty flag and returns the buffered record. The flag is cleared
// first so a write racing with the flush marks the session dirty again.
// The record stays in redis for reads.
func (b *SessionBuffer) FlushRecord(ctx context.Context, sessionID string) (*sessions.Record, error) {
	if err := b.client.SRem(ctx, keyDirtySessions, sessionID).Err(); err != nil {
		return nil, fmt.Errorf("failed to clear dirty flag: %w", err)
	}

	return b.GetRecord(ctx, sessionID)
}

// removes all buffered data for a session (call after session ends)
func (b *SessionBuffer) ClearSession(ctx context.Context, sessionID string) error {
	pipe := b.client.Pipeline()
	pipe.Del(ctx, fmt.Sprintf(keySessionRecord, sessionID))
	pipe.SRem(ctx, keyDirtySessions, sessionID)

	_, err := pipe.Exec(ctx)
	return err
}

// returns the underlying Redis client for advanced operations
func (b *SessionBuffer) Client() *redis.Client {
	return b.client
}
