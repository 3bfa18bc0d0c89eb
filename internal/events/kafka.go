// Package events relays domain events from the transactional outbox to Kafka
// and to the notification side effects that hang off them.
package events

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig names the brokers and topic the relayer publishes to.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// KafkaProducer is a synchronous writer. Messages with the same key land on the
// same partition, so events of one aggregate stay ordered.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer builds a producer; no connection is made until the first write.
func NewKafkaProducer(cfg KafkaConfig) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, topic: cfg.Topic}
}

// Topic returns the destination topic.
func (p *KafkaProducer) Topic() string {
	return p.topic
}

// Close flushes and closes the writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Send writes one message and waits for all in-sync replicas.
func (p *KafkaProducer) Send(ctx context.Context, key string, value []byte, headers ...kafka.Header) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	})
}

// KeyFromID renders an aggregate id as a message key.
func KeyFromID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
