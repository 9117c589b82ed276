package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var _ ResultPublisher = (*RabbitMQPublisher)(nil)

// RabbitMQPublisher публикует результаты в очередь через default exchange.
type RabbitMQPublisher struct {
	mu        sync.Mutex
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublisher открывает собственный канал и объявляет очередь
// результатов, если её ещё нет.
func NewRabbitMQPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("result publisher: open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("result publisher: declare queue '%s': %w", queueName, err)
	}
	logger = logger.Named("ResultPublisher")
	logger.Info("Result queue declared", zap.String("queue", queueName))
	return &RabbitMQPublisher{channel: ch, queueName: queueName, logger: logger}, nil
}

func (p *RabbitMQPublisher) PublishResult(ctx context.Context, result CommandResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal command result: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    result.TaskID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to '%s': %w", p.queueName, err)
	}
	p.logger.Debug("Command result published", zap.String("task_id", result.TaskID), zap.String("status", string(result.Status)))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Close()
}
