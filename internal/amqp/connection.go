package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/inkboard/board-renderer/internal/config"
	"github.com/inkboard/board-renderer/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Connection wraps the AMQP connection and channel
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.AMQPConfig
	logger  *zap.Logger
}

// NewConnection creates a new AMQP connection
func NewConnection(cfg config.AMQPConfig, logger *zap.Logger) (*Connection, error) {
	c := &Connection{
		config: cfg,
		logger: logger,
	}

	if err := c.dial(); err != nil {
		return nil, err
	}

	return c, nil
}

// dial establishes the connection, channel, and queue topology.
func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	// Set QoS for fair distribution across multiple renderer instances
	err = ch.Qos(
		c.config.PrefetchCount, // prefetch count
		0,                      // prefetch size (0 = no limit on message size)
		false,                  // global (false = apply to current consumer only)
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		c.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare input queue
	_, err = ch.QueueDeclare(
		c.config.QueueName, // name
		true,               // durable
		false,              // delete when unused
		false,              // exclusive
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	// Result queues are declared per device in PublishResult

	// Bind queue to exchange
	err = ch.QueueBind(
		c.config.QueueName,  // queue name
		c.config.RoutingKey, // routing key
		c.config.Exchange,   // exchange
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	c.conn = conn
	c.channel = ch
	return nil
}

// EnsureConnection re-dials if the connection has been lost.
func (c *Connection) EnsureConnection() error {
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}

	c.logger.Info("AMQP connection lost, reconnecting")
	c.forceClose()
	return c.dial()
}

// forceClose tears down the current connection so the next
// EnsureConnection re-dials.
func (c *Connection) forceClose() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close closes the AMQP connection and channel
func (c *Connection) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// DeviceQueueName returns the result queue for a device: board.{DEVICE_ID}
func DeviceQueueName(deviceID string) string {
	return fmt.Sprintf("board.%s", deviceID)
}

// PublishResult publishes a result message to the device-specific queue
func (c *Connection) PublishResult(ctx context.Context, result *models.RenderResult) error {
	deviceQueue := DeviceQueueName(result.DeviceID)

	// Declare the device-specific queue (idempotent operation)
	_, err := c.channel.QueueDeclare(
		deviceQueue, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare device queue %s: %w", deviceQueue, err)
	}

	// Bind the device queue to the exchange with device ID as routing key
	err = c.channel.QueueBind(
		deviceQueue,       // queue name
		result.DeviceID,   // routing key (device ID)
		c.config.Exchange, // exchange
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to bind device queue %s: %w", deviceQueue, err)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = c.channel.PublishWithContext(
		ctx,
		c.config.Exchange, // exchange
		result.DeviceID,   // routing key (device ID)
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	c.logger.Debug("Published result to device queue",
		zap.String("device_id", result.DeviceID),
		zap.String("queue", deviceQueue),
		zap.Int("image_bytes", len(result.ImageData)))
	return nil
}
