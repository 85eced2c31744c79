// Package rediscache keeps short-lived command state in Redis.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"rentpricing/internal/app/middleware"
	"rentpricing/internal/domain/shared/errs"
)

const keyPrefix = "rentpricing:idempotency:"

// NewClient connects and pings Redis.
func NewClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		return nil, errs.Unavailable(err)
	}
	return rc, nil
}

// IdempotencyStore stores command outcomes as JSON strings that Redis expires after the TTL.
type IdempotencyStore struct {
	rc  redis.Cmdable
	ttl time.Duration
}

func NewIdempotencyStore(rc redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rc: rc, ttl: ttl}
}

type record struct {
	Payload    []byte    `json:"payload,omitempty"`
	Error      string    `json:"error,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	raw, err := s.rc.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return middleware.IdempotencyRecord{}, false, errs.Unavailable(err)
	}
	rec, err := decodeRecord(key, raw)
	if err != nil {
		// a corrupt entry is treated as absent; the command runs again and overwrites it
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	raw, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	return errs.Unavailable(s.rc.Set(ctx, keyPrefix+rec.Key, raw, s.ttl).Err())
}

func encodeRecord(rec middleware.IdempotencyRecord) ([]byte, error) {
	return json.Marshal(record{
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		OccurredAt: rec.OccurredAt.UTC(),
	})
}

func decodeRecord(key string, raw []byte) (middleware.IdempotencyRecord, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return middleware.IdempotencyRecord{}, err
	}
	return middleware.IdempotencyRecord{
		Key:        key,
		Payload:    r.Payload,
		Error:      r.Error,
		ErrorKind:  r.ErrorKind,
		OccurredAt: r.OccurredAt,
	}, nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
