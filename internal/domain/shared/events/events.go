package events

import "time"

// DomainEvent is a fact recorded by the engine and relayed through the outbox. AggregateID
// becomes the broker partition key, so events of one unit stay ordered.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}
