package outbox

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

const DefaultSource = "app://rentpricing"

// Producer publishes one message to a broker topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// TopicFor maps "pricing.price_calculated" to "<prefix>pricing.events.v1".
func TopicFor(prefix, eventName string) string {
	base := eventName
	if idx := strings.IndexRune(eventName, '.'); idx > 0 {
		base = eventName[:idx]
	}
	return prefix + base + ".events.v1"
}

// CloudEvent wraps the record payload in a structured-mode CloudEvents 1.0 envelope and returns
// it with the message headers.
func CloudEvent(rec EventRecord, source string) ([]byte, map[string]string, error) {
	if source == "" {
		source = DefaultSource
	}
	var data any
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              rec.ID,
		"type":            rec.Name + ".v1",
		"source":          source,
		"subject":         rec.Aggregate,
		"time":            rec.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if evt["id"] == "" {
		evt["id"] = uuid.NewString()
	}
	if trace, ok := rec.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range rec.Headers {
		headers[k] = v
	}
	return payload, headers, nil
}
