package bus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Message is one raw delivery from the bus.
type Message struct {
	Topic string
	Value []byte
}

// Consumer is the "next message" primitive the ingestion worker consumes.
// Subscription, offsets and reconnection are the implementation's concern.
type Consumer interface {
	// Poll waits up to timeout for the next message. A timeout with no
	// message returns ok=false with a nil error.
	Poll(ctx context.Context, timeout time.Duration) (msg Message, ok bool, err error)
	Close() error
}

// KafkaConsumer consumes the sensor topics through a kafka-go reader.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer creates a consumer subscribed to the given topics, with a
// consumer group id unique to this process.
func NewKafkaConsumer(brokers, topics []string) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID(),
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})
	return &KafkaConsumer{reader: reader}
}

// Poll reads the next message, returning ok=false when none arrives within
// the timeout.
func (c *KafkaConsumer) Poll(ctx context.Context, timeout time.Duration) (Message, bool, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m, err := c.reader.ReadMessage(pollCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return Message{}, false, nil
		}
		return Message{}, false, err
	}

	return Message{Topic: m.Topic, Value: m.Value}, true, nil
}

// Close shuts down the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// groupID builds a consumer group id unique to this process so every
// instance sees the full stream from the earliest retained offset.
func groupID() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("sensor_metrics_consumer_%s_%d_%s",
		hostname, time.Now().Unix(), uuid.NewString()[:8])
}
