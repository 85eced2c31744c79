package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentpricing/internal/app/middleware"
	"rentpricing/internal/domain/shared/errs"
)

type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var m idempotencyModel
	if err := s.db.WithContext(ctx).Where(&idempotencyModel{Key: key}).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, errs.Unavailable(err)
	}
	if s.ttl > 0 && time.Since(m.CreatedAt) > s.ttl {
		return middleware.IdempotencyRecord{}, false, nil
	}
	return middleware.IdempotencyRecord{
		Key:        m.Key,
		Payload:    m.Payload,
		Error:      m.Error,
		ErrorKind:  m.ErrorKind,
		OccurredAt: m.OccurredAt.UTC(),
	}, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	m := idempotencyModel{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		OccurredAt: rec.OccurredAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	return errs.Unavailable(s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error)
}

// Purge deletes records older than the TTL and returns how many it removed.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Where("created_at < ?", time.Now().UTC().Add(-s.ttl)).Delete(&idempotencyModel{})
	return res.RowsAffected, errs.Unavailable(res.Error)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
