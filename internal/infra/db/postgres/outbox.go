package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "rentpricing/internal/app/outbox"
	"rentpricing/internal/domain/shared/errs"
	"rentpricing/internal/infra/outbox"
)

const (
	outboxNew     = "NEW"
	outboxClaimed = "CLAIMED"
	outboxSent    = "SENT"
	outboxFailed  = "FAILED"
)

// OutboxStore keeps outbox rows in the pricing database. Add joins the caller's transaction,
// so records commit with the unit of work that produced them.
type OutboxStore struct {
	db    *gorm.DB
	Lease time.Duration
	now   func() time.Time
}

func NewOutboxStore(db *gorm.DB) *OutboxStore {
	return &OutboxStore{db: db, Lease: time.Minute, now: time.Now}
}

func (s *OutboxStore) Add(ctx context.Context, record appoutbox.EventRecord) error {
	headers := datatypes.JSONMap{}
	for k, v := range record.Headers {
		headers[k] = v
	}
	now := s.now().UTC()
	m := outboxModel{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt.UTC(),
		Aggregate:   record.Aggregate,
		Headers:     headers,
		State:       outboxNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return errs.Unavailable(conn(ctx, s.db).Create(&m).Error)
}

// Flush is a no-op: the worker relays committed rows.
func (s *OutboxStore) Flush(context.Context) error {
	return nil
}

// Claim takes the oldest due row, including claims whose lease expired, and returns nil when
// nothing is due. PostgreSQL workers skip rows locked by their peers.
func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*outbox.EventDocument, error) {
	var claimed *outbox.EventDocument
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		q := tx.Where("(state IN ? AND next_attempt <= ?) OR (state = ? AND claimed_at <= ?)",
			[]string{outboxNew, outboxFailed}, now, outboxClaimed, now.Add(-s.Lease)).
			Order("next_attempt ASC")
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		var m outboxModel
		if err := q.Take(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		err := tx.Model(&outboxModel{}).Where("id = ?", m.ID).
			Updates(map[string]any{"state": outboxClaimed, "claimed_by": workerID, "claimed_at": now}).Error
		if err != nil {
			return err
		}
		m.State, m.ClaimedBy, m.ClaimedAt = outboxClaimed, workerID, &now
		claimed = m.document()
		return nil
	})
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	return claimed, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := s.now().UTC()
	err := s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{"state": outboxSent, "sent_at": now}).Error
	return errs.Unavailable(err)
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	err := s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":        outboxFailed,
			"next_attempt": next.UTC(),
			"last_error":   errMsg,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
	return errs.Unavailable(err)
}

func (m outboxModel) document() *outbox.EventDocument {
	headers := make(map[string]string, len(m.Headers))
	for k, v := range m.Headers {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	doc := &outbox.EventDocument{
		ID:          m.ID,
		Name:        m.Name,
		Payload:     m.Payload,
		OccurredAt:  m.OccurredAt.UTC(),
		Aggregate:   m.Aggregate,
		Headers:     headers,
		State:       m.State,
		Attempts:    m.Attempts,
		NextAttempt: m.NextAttempt.UTC(),
		CreatedAt:   m.CreatedAt.UTC(),
		ClaimedBy:   m.ClaimedBy,
		LastError:   m.LastError,
	}
	if m.ClaimedAt != nil {
		doc.ClaimedAt = m.ClaimedAt.UTC()
	}
	if m.SentAt != nil {
		doc.SentAt = m.SentAt.UTC()
	}
	return doc
}

var (
	_ appoutbox.Outbox = (*OutboxStore)(nil)
	_ outbox.Queue     = (*OutboxStore)(nil)
)
