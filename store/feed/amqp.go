package feed

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultAMQPExchange carries change events when AMQPConfig.Exchange is empty
const DefaultAMQPExchange = "plotstyle.changes"

// AMQPConfig holds the RabbitMQ bus settings
type AMQPConfig struct {
	URL      string `json:"url" yaml:"url"`
	Exchange string `json:"exchange" yaml:"exchange"`
}

// AMQP broadcasts through a fanout exchange. Each subscriber gets its own
// exclusive auto-delete queue bound to it.
type AMQP struct {
	exchange string
	conn     *amqp.Connection

	mu  sync.Mutex
	pub *amqp.Channel
}

// NewAMQP dials the broker and declares the exchange
func NewAMQP(ctx context.Context, cfg AMQPConfig) (*AMQP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp feed: url is required")
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultAMQPExchange
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("amqp feed: dial: %w", err)
	}
	pub, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp feed: open channel: %w", err)
	}
	if err := pub.ExchangeDeclare(
		cfg.Exchange,
		"fanout",
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		pub.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp feed: declare exchange %s: %w", cfg.Exchange, err)
	}

	return &AMQP{exchange: cfg.Exchange, conn: conn, pub: pub}, nil
}

// Publish sends payload to the exchange
func (a *AMQP) Publish(ctx context.Context, payload []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	err := a.pub.PublishWithContext(ctx, a.exchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("amqp feed: publish to %s: %w", a.exchange, err)
	}
	return nil
}

// Subscribe binds a private queue and forwards deliveries until ctx is done
func (a *AMQP) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch, err := a.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp feed: open channel: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err == nil {
		err = ch.QueueBind(q.Name, "", a.exchange, false, nil)
	}
	var deliveries <-chan amqp.Delivery
	if err == nil {
		deliveries, err = ch.Consume(q.Name, "", true, true, false, false, nil)
	}
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp feed: subscribe to %s: %w", a.exchange, err)
	}

	out := make(chan []byte, 16)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				select {
				case out <- d.Body:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the publishing channel and the connection
func (a *AMQP) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pub.Close()
	return a.conn.Close()
}
