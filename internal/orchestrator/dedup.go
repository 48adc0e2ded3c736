package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper drops repeated engine callbacks. n8n retries its HTTP nodes, so
// the same draft or send confirmation can arrive more than once; a SETNX
// key per callback identity makes the second delivery a recognized no-op.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDeduper creates a deduper. ttl bounds how long callback identities are
// remembered.
func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{rdb: rdb, ttl: ttl}
}

// GenerationKey identifies one generated draft by lead and content.
func GenerationKey(leadID, subject, body string) string {
	sum := sha256.Sum256([]byte(subject + "\x00" + body))
	return fmt.Sprintf("outreach:dedup:gen:%s:%s", leadID, hex.EncodeToString(sum[:8]))
}

// SentKey identifies one send confirmation by email and provider message id.
func SentKey(emailID, messageID string) string {
	return fmt.Sprintf("outreach:dedup:sent:%s:%s", emailID, messageID)
}

// Seen marks the key and reports whether it had been seen before. The first
// caller gets false and owns the side effects; later callers get true. If
// the side effects fail, the owner must Release the key or the engine's
// retry would be swallowed as a duplicate.
func (d *Deduper) Seen(ctx context.Context, key string) (bool, error) {
	set, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return !set, nil
}

// Release frees a key claimed by Seen so a later delivery is treated as
// fresh again.
func (d *Deduper) Release(ctx context.Context, key string) error {
	if err := d.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("dedup release: %w", err)
	}
	return nil
}
