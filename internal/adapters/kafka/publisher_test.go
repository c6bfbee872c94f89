package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"

	"tours_manager/internal/adapters/kafka"
	"tours_manager/internal/domain"
)

func TestPublisher_SendsKeyedJSON(t *testing.T) {
	sp := mocks.NewSyncProducer(t, kafka.NewConfig())
	defer func() { _ = sp.Close() }()

	e := domain.Event{
		Name: domain.EventReviewCreated, Key: uuid.New(), AccountID: uuid.New(),
		TourID: uuid.New(), Rating: 4.5, At: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "tours.reviews" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != e.Key.String() {
			return errors.New("key must be the review id")
		}
		raw, _ := msg.Value.Encode()
		var got domain.Event
		if err := json.Unmarshal(raw, &got); err != nil {
			return err
		}
		if got.Name != e.Name || got.Rating != 4.5 || got.TourID != e.TourID {
			return errors.New("payload mismatch")
		}
		return nil
	})

	p := kafka.NewWithProducer(sp, "tours")
	if err := p.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestPublisher_SurfacesBrokerErrors(t *testing.T) {
	sp := mocks.NewSyncProducer(t, kafka.NewConfig())
	defer func() { _ = sp.Close() }()
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := kafka.NewWithProducer(sp, "tours")
	err := p.Publish(context.Background(), domain.Event{Name: domain.EventAgencyRequestAccepted, Key: uuid.New()})
	if !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("expected ErrOutOfBrokers, got %v", err)
	}
}

func TestPublisher_Topics(t *testing.T) {
	p := kafka.NewWithProducer(nil, "")
	if got := p.Topic(domain.EventAgencyRequestDeclined); got != "agency_requests" {
		t.Fatalf("topic: %q", got)
	}
	if got := kafka.NewWithProducer(nil, "prod").Topic(domain.EventReviewDeleted); got != "prod.reviews" {
		t.Fatalf("topic: %q", got)
	}
}
