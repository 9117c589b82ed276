package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dlqRoutingKey = "dlq"
	consumerTag   = "narrative-engine-worker"
)

// Processor обрабатывает тело сообщения. Ошибка отправляет сообщение в DLQ.
type Processor interface {
	Process(ctx context.Context, body []byte) error
}

// Consumer читает задачи из очереди по одной (prefetch 1).
type Consumer struct {
	conn      *amqp.Connection
	queueName string
	processor Processor
	logger    *zap.Logger

	channel *amqp.Channel
	done    chan struct{}
}

func NewConsumer(conn *amqp.Connection, queueName string, processor Processor, logger *zap.Logger) *Consumer {
	return &Consumer{
		conn:      conn,
		queueName: queueName,
		processor: processor,
		logger:    logger.Named("CommandConsumer"),
		done:      make(chan struct{}),
	}
}

// topology — часть канала, нужная для объявления очередей.
type topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// declareTopology объявляет очередь задач с dead letter exchange и очередь
// для отклонённых сообщений.
func declareTopology(ch topology, queueName string) error {
	dlxName := queueName + "_dlx"
	dlqName := queueName + "_dlq"

	if err := ch.ExchangeDeclare(dlxName, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX '%s': %w", dlxName, err)
	}
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ '%s': %w", dlqName, err)
	}
	if err := ch.QueueBind(dlqName, dlqRoutingKey, dlxName, false, nil); err != nil {
		return fmt.Errorf("bind DLQ '%s' to '%s': %w", dlqName, dlxName, err)
	}

	args := amqp.Table{
		"x-queue-mode":              "lazy",
		"x-dead-letter-exchange":    dlxName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, args); err != nil {
		return fmt.Errorf("declare queue '%s': %w", queueName, err)
	}
	return nil
}

// Start объявляет очереди и запускает горутину обработки. Горутина
// завершается по отмене ctx или закрытию канала.
func (c *Consumer) Start(ctx context.Context) error {
	var err error
	c.channel, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	if err := declareTopology(c.channel, c.queueName); err != nil {
		_ = c.channel.Close()
		return err
	}
	if err := c.channel.Qos(1, 0, false); err != nil {
		_ = c.channel.Close()
		return fmt.Errorf("set QoS: %w", err)
	}

	msgs, err := c.channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		_ = c.channel.Close()
		return fmt.Errorf("register consumer on '%s': %w", c.queueName, err)
	}
	c.logger.Info("Command consumer started", zap.String("queue", c.queueName))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("Panic recovered in command consumer", zap.Any("panic", r))
			}
			close(c.done)
		}()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("Delivery channel closed")
					return
				}
				c.handle(ctx, msg)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// handle подтверждает сообщение при успехе и отклоняет без повтора при
// ошибке, после чего брокер перекладывает его в DLQ.
func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery) {
	if err := c.processor.Process(ctx, msg.Body); err != nil {
		c.logger.Warn("Rejecting command task", zap.String("message_id", msg.MessageId), zap.Error(err))
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to nack message", zap.Error(nackErr))
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Error("Failed to ack message", zap.Error(ackErr))
	}
}

// Stop отменяет подписку и ждёт завершения текущей задачи.
func (c *Consumer) Stop() error {
	if c.channel == nil {
		return nil
	}
	if err := c.channel.Cancel(consumerTag, false); err != nil {
		c.logger.Warn("Error cancelling command consumer", zap.Error(err))
	}

	select {
	case <-c.done:
	case <-time.After(30 * time.Second):
		c.logger.Warn("Timeout waiting for command consumer to stop")
	}

	if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return fmt.Errorf("close consumer channel: %w", err)
	}
	c.logger.Info("Command consumer stopped")
	return nil
}
