package memory

import (
	"context"
	"log/slog"
	"sync"

	appoutbox "rentpricing/internal/app/outbox"
	"rentpricing/internal/domain/shared/errs"
)

// Outbox buffers records until Flush. With a Producer configured, Flush publishes them as
// CloudEvents; otherwise they are dropped.
type Outbox struct {
	Producer    appoutbox.Producer
	TopicPrefix string
	Source      string
	Logger      *slog.Logger

	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

// Flush publishes pending records in order. On a publish failure the unsent records stay
// buffered for the next flush.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Producer == nil {
		o.records = nil
		return nil
	}
	for len(o.records) > 0 {
		rec := o.records[0]
		payload, headers, err := appoutbox.CloudEvent(rec, o.Source)
		if err != nil {
			o.logger().Error("dropping unencodable outbox record", "event", rec.Name, "id", rec.ID, "err", err)
			o.records = o.records[1:]
			continue
		}
		topic := appoutbox.TopicFor(o.TopicPrefix, rec.Name)
		if err := o.Producer.Publish(ctx, topic, rec.Aggregate, payload, headers); err != nil {
			return errs.Unavailable(err)
		}
		o.records = o.records[1:]
	}
	o.records = nil
	return nil
}

// Pending returns a copy of the buffered records.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

func (o *Outbox) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

var _ appoutbox.Outbox = (*Outbox)(nil)
