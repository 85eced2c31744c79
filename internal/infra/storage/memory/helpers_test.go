package memory

import (
	"time"

	"rentpricing/internal/app/middleware"
	appoutbox "rentpricing/internal/app/outbox"
)

func outboxRecord(name, aggregate string) appoutbox.EventRecord {
	return appoutbox.EventRecord{ID: "evt-" + aggregate, Name: name, Aggregate: aggregate, Payload: []byte(`{"unit_id":1}`), OccurredAt: time.Now().UTC()}
}

func idemRecord(key string, at time.Time) middleware.IdempotencyRecord {
	return middleware.IdempotencyRecord{Key: key, Payload: []byte(`{}`), OccurredAt: at}
}
