package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleEvent struct {
	Unit int       `json:"unit"`
	At   time.Time `json:"-"`
}

func (e sampleEvent) EventName() string     { return "pricing.sample" }
func (e sampleEvent) AggregateID() string   { return "7" }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type sliceOutbox struct{ records []EventRecord }

func (o *sliceOutbox) Add(_ context.Context, r EventRecord) error {
	o.records = append(o.records, r)
	return nil
}
func (o *sliceOutbox) Flush(context.Context) error { return nil }

func TestTopicFor(t *testing.T) {
	assert.Equal(t, "pricing.events.v1", TopicFor("", "pricing.price_calculated"))
	assert.Equal(t, "stage.pricing.events.v1", TopicFor("stage.", "pricing.dynamic_toggled"))
	assert.Equal(t, "plain.events.v1", TopicFor("", "plain"))
}

func TestRecordAndEnvelope(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	box := &sliceOutbox{}
	enc := JSONEventEncoder{
		IDGenerator:    func() string { return "evt-1" },
		ContextHeaders: func(context.Context) map[string]string { return map[string]string{"x-request-id": "req-9"} },
	}
	require.NoError(t, Record(context.Background(), box, enc, sampleEvent{Unit: 7, At: at}))
	require.Len(t, box.records, 1)
	rec := box.records[0]
	assert.Equal(t, "pricing.sample", rec.Name)
	assert.Equal(t, "7", rec.Aggregate)
	assert.JSONEq(t, `{"unit":7}`, string(rec.Payload))
	assert.Equal(t, map[string]string{"event-name": "pricing.sample", "x-request-id": "req-9"}, rec.Headers)

	payload, headers, err := CloudEvent(rec, "")
	require.NoError(t, err)
	assert.Equal(t, "application/cloudevents+json", headers["content-type"])
	assert.Equal(t, "req-9", headers["x-request-id"])
	var env map[string]any
	require.NoError(t, json.Unmarshal(payload, &env))
	assert.Equal(t, "evt-1", env["id"])
	assert.Equal(t, "pricing.sample.v1", env["type"])
	assert.Equal(t, DefaultSource, env["source"])
	assert.Equal(t, map[string]any{"unit": float64(7)}, env["data"])
}

func TestRecordWithoutOutbox(t *testing.T) {
	assert.NoError(t, Record(context.Background(), nil, nil, sampleEvent{}))
}
