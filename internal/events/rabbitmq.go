package events

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AnnouncementStream names the exchange, queue, and routing key the
// contest-announced events travel over.
type AnnouncementStream struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

// RabbitMQ is the production Broker. It carries exactly one stream: the
// announcement events published after a contest's first tweet lands.
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	stream  AnnouncementStream
}

// NewRabbitMQ connects and declares the announcement stream's topology.
func NewRabbitMQ(url string, stream AnnouncementStream) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := declareAnnouncementStream(ch, stream); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQ{conn: conn, channel: ch, stream: stream}, nil
}

func declareAnnouncementStream(ch *amqp.Channel, s AnnouncementStream) error {
	if err := ch.ExchangeDeclare(s.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", s.Exchange, err)
	}
	if _, err := ch.QueueDeclare(s.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", s.Queue, err)
	}
	if err := ch.QueueBind(s.Queue, s.RoutingKey, s.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", s.Queue, err)
	}
	return nil
}

// PublishContestAnnounced emits one announcement event. Delivery is
// persistent so a broker restart does not drop pending invalidations.
func (r *RabbitMQ) PublishContestAnnounced(event ContestAnnounced) error {
	body, err := event.Marshal()
	if err != nil {
		return err
	}

	return r.channel.Publish(r.stream.Exchange, r.stream.RoutingKey, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}

// ConsumeContestAnnounced subscribes to the announcement stream. The
// returned channel closes when ctx is cancelled or the amqp delivery
// channel shuts down. Payloads that do not decode are dropped here so
// subscribers only ever see well-formed events.
func (r *RabbitMQ) ConsumeContestAnnounced(ctx context.Context) (<-chan ContestAnnounced, error) {
	deliveries, err := r.channel.Consume(r.stream.Queue, "", true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", r.stream.Queue, err)
	}

	out := make(chan ContestAnnounced, 64)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				event, err := UnmarshalContestAnnounced(msg.Body)
				if err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RabbitMQ) Close() error {
	if err := r.channel.Close(); err != nil {
		_ = r.conn.Close()
		return err
	}
	return r.conn.Close()
}
