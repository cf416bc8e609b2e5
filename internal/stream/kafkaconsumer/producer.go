package kafkaconsumer

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

// Publisher sends one encoded result.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type syncPublisher struct {
	p     sarama.SyncProducer
	topic string
}

// NewPublisher wraps a sarama.SyncProducer writing to topic.
func NewPublisher(p sarama.SyncProducer, topic string) Publisher {
	return &syncPublisher{p: p, topic: topic}
}

func (s *syncPublisher) Publish(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, _, err := s.p.SendMessage(&sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("publish result %q: %w", key, err)
	}
	return nil
}

func producerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	return cfg
}
