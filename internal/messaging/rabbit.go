// Package messaging carries listing change events between service instances
// over RabbitMQ topic exchanges.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"listing-browser/internal/store"

	amqp "github.com/rabbitmq/amqp091-go"
)

type ChangeTopic string

const ListingsChanged ChangeTopic = "listings_changed"

func getName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// DefineTopic declares the durable topic exchange for a topic
func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := getName(prefix, topic)
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-delete
		false,   // internal
		false,   // noWait
		nil,     // arguments
	)
}

// DeclareBindAndConsume binds an exclusive queue to the topic exchange, so
// every instance receives every event.
func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err := ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(q.Name, "", false, true, false, false, nil)
}

var errNotifierClosed = errors.New("rabbitmq notifier closed")

// RabbitNotifier implements store.Notifier on a RabbitMQ connection. A lost
// connection is redialed on the next publish or by the listener.
type RabbitNotifier struct {
	url    string
	prefix string

	mu     sync.Mutex
	conn   *amqp.Connection
	closed bool

	// first wait before resubscribing; doubles up to maxRetryDelay
	retryDelay    time.Duration
	maxRetryDelay time.Duration
}

func NewRabbitNotifier(url, prefix string) (*RabbitNotifier, error) {
	n := &RabbitNotifier{
		url:           url,
		prefix:        prefix,
		retryDelay:    time.Second,
		maxRetryDelay: 30 * time.Second,
	}
	if _, err := n.connection(); err != nil {
		return nil, err
	}
	return n, nil
}

// connection returns the live connection, dialing a new one when needed
func (n *RabbitNotifier) connection() (*amqp.Connection, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil, errNotifierClosed
	}
	if n.conn != nil && !n.conn.IsClosed() {
		return n.conn, nil
	}

	conn, err := amqp.Dial(n.url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := DefineTopic(ch, n.prefix, ListingsChanged); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	n.conn = conn
	return conn, nil
}

func (n *RabbitNotifier) Publish(ctx context.Context, ev store.ChangeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	conn, err := n.connection()
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()
	name := getName(n.prefix, ListingsChanged)
	return ch.PublishWithContext(ctx,
		name,
		name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// subscribeFunc opens a consumer and returns its deliveries and a release func
type subscribeFunc func() (<-chan amqp.Delivery, func(), error)

func (n *RabbitNotifier) subscribe() (<-chan amqp.Delivery, func(), error) {
	conn, err := n.connection()
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}
	msgs, err := DeclareBindAndConsume(ch, n.prefix, ListingsChanged)
	if err != nil {
		ch.Close()
		return nil, nil, err
	}
	return msgs, func() { ch.Close() }, nil
}

// Listen consumes change events until ctx is done. When the broker closes
// the consumer it resubscribes with backoff and then delivers a resync
// event, since changes published in between were missed.
func (n *RabbitNotifier) Listen(ctx context.Context, fn func(store.ChangeEvent)) error {
	msgs, release, err := n.subscribe()
	if err != nil {
		return err
	}
	go listenLoop(ctx, n.subscribe, msgs, release, fn, n.retryDelay, n.maxRetryDelay)
	return nil
}

func listenLoop(ctx context.Context, subscribe subscribeFunc, msgs <-chan amqp.Delivery, release func(),
	fn func(store.ChangeEvent), retryDelay, maxRetryDelay time.Duration) {
	for {
		closed := drain(ctx, msgs, fn)
		release()
		if !closed {
			return
		}
		log.Printf("Messaging: %s consumer closed, resubscribing", ListingsChanged)

		delay := retryDelay
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			var err error
			msgs, release, err = subscribe()
			if err == nil {
				break
			}
			log.Printf("Messaging: resubscribe failed, retrying in %v: %v", delay, err)
			delay = min(delay*2, maxRetryDelay)
		}

		log.Printf("Messaging: %s consumer restored", ListingsChanged)
		fn(store.ChangeEvent{Kind: store.ChangeResync, At: time.Now().UnixMilli()})
	}
}

// drain hands deliveries to fn. It reports true when the channel was closed
// by the broker and false when ctx ended.
func drain(ctx context.Context, msgs <-chan amqp.Delivery, fn func(store.ChangeEvent)) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case d, ok := <-msgs:
			if !ok {
				return true
			}
			ev, err := Decode(d.Body)
			if err != nil {
				log.Printf("Messaging: dropping malformed event: %v", err)
				d.Nack(false, false)
				continue
			}
			fn(ev)
			d.Ack(false)
		}
	}
}

func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}
	return n.conn.Close()
}

// Encode serializes a change event for the wire
func Encode(ev store.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

// Decode parses a change event; the kind is required
func Decode(body []byte) (store.ChangeEvent, error) {
	var ev store.ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, err
	}
	if ev.Kind == "" {
		return ev, fmt.Errorf("change event without kind")
	}
	return ev, nil
}
