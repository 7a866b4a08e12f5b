package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/inkboard/board-renderer/pkg/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventHandler defines the interface for handling render requests
type EventHandler interface {
	Handle(ctx context.Context, request *models.RenderRequest) (*models.RenderResult, error)
}

// Consumer handles consuming render requests from AMQP
type Consumer struct {
	conn    *Connection
	handler EventHandler
	logger  *zap.Logger
}

// NewConsumer creates a new consumer
func NewConsumer(conn *Connection, handler EventHandler, logger *zap.Logger) *Consumer {
	return &Consumer{
		conn:    conn,
		handler: handler,
		logger:  logger,
	}
}

// Start starts consuming messages from the specified queue with automatic reconnection
func (c *Consumer) Start(ctx context.Context, queueName string) error {
	retryDelay := time.Second
	maxRetryDelay := 30 * time.Second
	retryCount := 0

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled, stopping")
			return ctx.Err()
		default:
			if err := c.startConsuming(ctx, queueName); err != nil {
				retryCount++
				c.logger.Error("Consumer failed, will retry after delay",
					zap.Error(err),
					zap.String("queue", queueName),
					zap.Int("retry_count", retryCount),
					zap.Duration("retry_delay", retryDelay))

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(retryDelay):
					// Exponential backoff
					retryDelay = time.Duration(float64(retryDelay) * 1.5)
					if retryDelay > maxRetryDelay {
						retryDelay = maxRetryDelay
					}
					continue
				}
			} else {
				retryDelay = time.Second
				retryCount = 0
			}
		}
	}
}

// startConsuming handles a single consumption session
func (c *Consumer) startConsuming(ctx context.Context, queueName string) error {
	if err := c.conn.EnsureConnection(); err != nil {
		return fmt.Errorf("failed to ensure connection: %w", err)
	}

	// Generate unique consumer tag for this instance
	hostname, _ := os.Hostname()
	consumerTag := fmt.Sprintf("board-renderer-%s-%d", hostname, time.Now().Unix())

	msgs, err := c.conn.channel.Consume(
		queueName,   // queue
		consumerTag, // consumer tag
		false,       // auto-ack (disabled for manual acknowledgment)
		false,       // exclusive (allow multiple consumers)
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		c.logger.Warn("Failed to register consumer, forcing reconnection",
			zap.Error(err),
			zap.String("queue", queueName))

		c.conn.forceClose()

		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Started consuming messages",
		zap.String("queue", queueName),
		zap.String("consumer_tag", consumerTag))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer context cancelled, stopping")
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warn("Message channel closed, will reconnect")
				return fmt.Errorf("message channel closed")
			}

			go c.handleMessage(ctx, msg)
		}
	}
}

// handleMessage processes a single render request message
func (c *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	c.logger.Debug("Received message",
		zap.String("routing_key", msg.RoutingKey),
		zap.String("correlation_id", msg.CorrelationId))

	var request models.RenderRequest
	if err := json.Unmarshal(msg.Body, &request); err != nil {
		c.logger.Error("Failed to unmarshal message",
			zap.Error(err),
			zap.String("correlation_id", msg.CorrelationId))
		msg.Nack(false, false)
		return
	}

	result, err := c.handler.Handle(ctx, &request)
	if err != nil {
		c.logger.Error("Failed to handle render request",
			zap.Error(err),
			zap.String("device_id", request.Device.ID))

		if result == nil {
			result = &models.RenderResult{
				Type:        "render_result",
				UUID:        request.UUID,
				DeviceID:    request.Device.ID,
				ImageData:   "",
				ProcessedAt: time.Now(),
			}
		}
	}

	// Always publish a result so the device is never left waiting
	if publishErr := c.conn.PublishResult(ctx, result); publishErr != nil {
		c.logger.Error("Failed to publish result",
			zap.Error(publishErr),
			zap.String("device_id", request.Device.ID))

		// Only requeue successful renders; error results are acked to
		// avoid infinite retry loops.
		if err == nil {
			msg.Nack(false, true)
		} else {
			if ackErr := msg.Ack(false); ackErr != nil {
				c.logger.Error("Failed to acknowledge message after publish error",
					zap.Error(ackErr),
					zap.String("device_id", request.Device.ID))
			}
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("Failed to acknowledge message",
			zap.Error(ackErr),
			zap.String("device_id", request.Device.ID))
	}
}
