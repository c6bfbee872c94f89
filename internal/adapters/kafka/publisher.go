package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"tours_manager/internal/adapters/observability"
	"tours_manager/internal/domain"
)

// NewConfig is the producer configuration: acks from all replicas and
// idempotent writes.
func NewConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "tours-manager"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Idempotent = true
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// Publisher writes domain events as JSON, keyed by the aggregate id. Review
// events go to "<prefix>.reviews", agency request events to
// "<prefix>.agency_requests".
type Publisher struct {
	sync   sarama.SyncProducer
	prefix string
}

func NewPublisher(brokers []string, prefix string) (*Publisher, error) {
	sync, err := sarama.NewSyncProducer(brokers, NewConfig())
	if err != nil {
		return nil, err
	}
	return NewWithProducer(sync, prefix), nil
}

func NewWithProducer(p sarama.SyncProducer, prefix string) *Publisher {
	return &Publisher{sync: p, prefix: prefix}
}

func (p *Publisher) Topic(eventName string) string {
	family, _, _ := strings.Cut(eventName, ".")
	switch family {
	case "review":
		family = "reviews"
	case "agency_request":
		family = "agency_requests"
	}
	if p.prefix == "" {
		return family
	}
	return p.prefix + "." + family
}

func (p *Publisher) Publish(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Name, err)
	}
	topic := p.Topic(e.Name)
	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(e.Key.String()),
		Value:   sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{{Key: []byte("event"), Value: []byte(e.Name)}},
	}
	start := time.Now()
	_, _, err = p.sync.SendMessage(msg)
	observability.ObserveExternal("kafka", topic, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Name, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.sync == nil {
		return nil
	}
	return p.sync.Close()
}

// Noop drops events; used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.Event) error { return nil }
