package feed

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic carries change events when KafkaConfig.Topic is empty
const DefaultKafkaTopic = "plotstyle-changes"

// KafkaConfig holds the Kafka bus settings
type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// Kafka broadcasts on partition 0 of one topic. Subscribers read without a
// consumer group, from the tail, so each sees every later event.
type Kafka struct {
	brokers []string
	topic   string
	writer  *kafka.Writer
}

// NewKafka builds a Kafka bus. No connection is made until first use.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka feed: at least one broker is required")
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultKafkaTopic
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               kafka.BalancerFunc(firstPartition),
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &Kafka{brokers: cfg.Brokers, topic: cfg.Topic, writer: writer}, nil
}

func firstPartition(_ kafka.Message, partitions ...int) int {
	if len(partitions) == 0 {
		return 0
	}
	return partitions[0]
}

// Publish writes payload to the topic
func (k *Kafka) Publish(ctx context.Context, payload []byte) error {
	if err := k.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		return fmt.Errorf("kafka feed: publish to %s: %w", k.topic, err)
	}
	return nil
}

// Subscribe reads new messages until ctx is done
func (k *Kafka) Subscribe(ctx context.Context) (<-chan []byte, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   k.brokers,
		Topic:     k.topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	if err := reader.SetOffset(kafka.LastOffset); err != nil {
		reader.Close()
		return nil, fmt.Errorf("kafka feed: seek %s: %w", k.topic, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				// shutdown and broker failures both end the feed
				return
			}
			select {
			case out <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close flushes and closes the writer
func (k *Kafka) Close() error {
	return k.writer.Close()
}
