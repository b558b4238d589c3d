// Package redis keeps a capped list of recent predictions in Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// RecentKey is the list holding serialized prediction records, newest first.
const RecentKey = "predictions:recent"

// History stores prediction records in a trimmed Redis list.
type History struct {
	client *goredis.Client
	size   int64
}

// New connects to Redis and verifies the connection with PING. size caps the
// number of retained records.
func New(ctx context.Context, addr, password string, db, size int) (*History, error) {
	if size <= 0 {
		return nil, fmt.Errorf("history size must be positive, got %d", size)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", addr, err)
	}

	return &History{client: client, size: int64(size)}, nil
}

// Record prepends rec and trims the list to the configured size.
func (h *History) Record(ctx context.Context, rec domain.PredictionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal prediction record: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, RecentKey, data)
	pipe.LTrim(ctx, RecentKey, 0, h.size-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record prediction: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first. Entries that fail to decode
// are skipped.
func (h *History) Recent(ctx context.Context, n int) ([]domain.PredictionRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	data, err := h.client.LRange(ctx, RecentKey, 0, int64(n)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent predictions: %w", err)
	}

	records := make([]domain.PredictionRecord, 0, len(data))
	for _, d := range data {
		var rec domain.PredictionRecord
		if err := json.Unmarshal([]byte(d), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// CheckReadiness pings Redis.
func (h *History) CheckReadiness(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (h *History) Close() error {
	return h.client.Close()
}
