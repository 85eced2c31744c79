package kafka

import (
	"context"
	"errors"
	"sort"

	"github.com/IBM/sarama"

	"rentpricing/internal/app/outbox"
	"rentpricing/internal/domain/shared/errs"
)

// Producer publishes outbox records synchronously so a failed send keeps the record pending.
type Producer struct {
	client sarama.Client
	sync   sarama.SyncProducer
}

func NewProducer(brokers []string, clientID string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	client, err := sarama.NewClient(brokers, cfg)
	if err != nil {
		return nil, errs.Unavailable(err)
	}
	sync, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, errs.Unavailable(err)
	}
	return &Producer{client: client, sync: sync}, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(payload),
		Headers: recordHeaders(headers),
	}
	if _, _, err := p.sync.SendMessage(msg); err != nil {
		return errs.Unavailable(err)
	}
	return nil
}

// Ping refreshes cluster metadata; readiness fails while no broker answers.
func (p *Producer) Ping(context.Context) error {
	if p.client == nil {
		return nil
	}
	if err := p.client.RefreshMetadata(); err != nil {
		return errs.Unavailable(err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.sync == nil {
		return nil
	}
	err := p.sync.Close()
	if p.client != nil && !p.client.Closed() {
		err = errors.Join(err, p.client.Close())
	}
	return err
}

func recordHeaders(headers map[string]string) []sarama.RecordHeader {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	hs := make([]sarama.RecordHeader, 0, len(keys))
	for _, k := range keys {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(headers[k])})
	}
	return hs
}

var _ outbox.Producer = (*Producer)(nil)
