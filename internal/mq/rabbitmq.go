package mq

import (
	"Mini_Drive/config"
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeTasks = "reconcile.exchange"
	ExchangeRetry = "reconcile.retry.exchange"
	ExchangeDLQ   = "reconcile.dlq.exchange"

	QueueTasks = "reconcile.queue"
	QueueRetry = "reconcile.retry.queue"
	QueueDLQ   = "reconcile.dlq.queue"

	RoutingTask  = "reconcile"
	RoutingRetry = "reconcile.retry"
	RoutingDLQ   = "reconcile.dlq"
)

type binding struct {
	exchange string
	queue    string
	key      string
	args     amqp.Table
}

// topology lists each exchange with its single bound queue. Retry messages expire
// back into the task exchange.
var topology = []binding{
	{exchange: ExchangeTasks, queue: QueueTasks, key: RoutingTask},
	{exchange: ExchangeRetry, queue: QueueRetry, key: RoutingRetry, args: amqp.Table{
		"x-dead-letter-exchange":    ExchangeTasks,
		"x-dead-letter-routing-key": RoutingTask,
	}},
	{exchange: ExchangeDLQ, queue: QueueDLQ, key: RoutingDLQ},
}

type Client struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	publishMu sync.Mutex
}

var publisherMu sync.Mutex
var publisher *Client

// Dial opens a connection and channel to the configured broker.
func Dial() (*Client, error) {
	conn, err := amqp.Dial(config.AppConfig.RabbitMQURL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{Conn: conn, Channel: ch}, nil
}

// GetPublisher returns the shared publishing client, reconnecting when it was closed.
func GetPublisher() (*Client, error) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if publisher != nil {
		if !publisher.Conn.IsClosed() && !publisher.Channel.IsClosed() {
			return publisher, nil
		}
		publisher.Close()
		publisher = nil
	}
	client, err := Dial()
	if err != nil {
		return nil, err
	}
	if err := client.DeclareTopology(); err != nil {
		client.Close()
		return nil, err
	}
	publisher = client
	return publisher, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

// DeclareTopology declares the durable exchanges, queues and bindings.
func (c *Client) DeclareTopology() error {
	for _, b := range topology {
		if err := c.Channel.ExchangeDeclare(b.exchange, "direct", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", b.exchange, err)
		}
		if _, err := c.Channel.QueueDeclare(b.queue, true, false, false, false, b.args); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}
		if err := c.Channel.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}
	return nil
}

func (c *Client) PublishTask(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeTasks, RoutingTask, body, "")
}

// PublishRetry parks the message in the retry queue for delay before it returns to the task queue.
func (c *Client) PublishRetry(ctx context.Context, body []byte, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	return c.publish(ctx, ExchangeRetry, RoutingRetry, body, fmt.Sprintf("%d", delay.Milliseconds()))
}

func (c *Client) PublishDLQ(ctx context.Context, body []byte) error {
	return c.publish(ctx, ExchangeDLQ, RoutingDLQ, body, "")
}

func (c *Client) publish(ctx context.Context, exchange, key string, body []byte, expiration string) error {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Expiration:   expiration,
	}
	return c.Channel.PublishWithContext(ctx, exchange, key, false, false, msg)
}
