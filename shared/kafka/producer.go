package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

var ErrPublish = errors.New("failed to publish event")

// Producer wraps the Kafka producer used for best-effort build event
// publishing. A nil *Producer is valid and drops every message, so the
// relay can run without a broker configured.
type Producer struct {
	producer *kafka.Producer
}

// NewProducer creates a new Kafka producer
func NewProducer(bootstrapServers string) (*Producer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": bootstrapServers,
	})
	if err != nil {
		return nil, err
	}

	// Drain delivery reports so the event channel never blocks
	go func() {
		for e := range p.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					log.Printf("Failed to deliver message: %v\n", ev.TopicPartition.Error)
				}
			}
		}
	}()

	return &Producer{producer: p}, nil
}

// SendMessage enqueues a JSON-marshalled message on the topic.
// Delivery is asynchronous; a returned error means the message never
// entered the queue.
func (p *Producer) SendMessage(ctx context.Context, topic string, key string, value interface{}) error {
	if p == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	if err := p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          jsonValue,
	}, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}

// Close closes the producer
func (p *Producer) Close() {
	if p == nil {
		return
	}
	p.producer.Close()
}
