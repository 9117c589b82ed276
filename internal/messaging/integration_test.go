//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"narrative-engine/internal/messaging"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

const (
	taskQueue   = "command_execution_tasks"
	resultQueue = "command_execution_results"
)

type echoProcessor struct {
	publisher messaging.ResultPublisher
}

// Process отвечает результатом с тем же task_id; пустой ввод отклоняется.
func (e echoProcessor) Process(ctx context.Context, body []byte) error {
	var task messaging.CommandTask
	if err := json.Unmarshal(body, &task); err != nil {
		return messaging.ErrMalformedTask
	}
	return e.publisher.PublishResult(ctx, messaging.CommandResult{
		TaskID:   task.TaskID,
		Status:   messaging.StatusSuccess,
		SceneKey: task.SceneKey,
		Valid:    true,
		Lines:    []string{task.Input},
	})
}

type WorkerSuite struct {
	suite.Suite
	container *rabbitmq.RabbitMQContainer
	conn      *amqp.Connection
	publisher *messaging.RabbitMQPublisher
	consumer  *messaging.Consumer
	cancel    context.CancelFunc
}

func (s *WorkerSuite) SetupSuite() {
	ctx := context.Background()
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	s.Require().NoError(err)
	s.container = container

	url, err := container.AmqpURL(ctx)
	s.Require().NoError(err)
	s.conn, err = amqp.Dial(url)
	s.Require().NoError(err)

	s.publisher, err = messaging.NewRabbitMQPublisher(s.conn, resultQueue, zap.NewNop())
	s.Require().NoError(err)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.consumer = messaging.NewConsumer(s.conn, taskQueue, echoProcessor{publisher: s.publisher}, zap.NewNop())
	s.Require().NoError(s.consumer.Start(runCtx))
}

func (s *WorkerSuite) TearDownSuite() {
	if s.consumer != nil {
		_ = s.consumer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *WorkerSuite) publishTask(body []byte) {
	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()
	s.Require().NoError(ch.PublishWithContext(context.Background(), "", taskQueue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}))
}

func (s *WorkerSuite) nextMessage(queue string) amqp.Delivery {
	ch, err := s.conn.Channel()
	s.Require().NoError(err)
	defer ch.Close()

	var msg amqp.Delivery
	s.Require().Eventually(func() bool {
		var ok bool
		msg, ok, err = ch.Get(queue, true)
		return err == nil && ok
	}, 30*time.Second, 100*time.Millisecond)
	return msg
}

func (s *WorkerSuite) TestTaskProducesResult() {
	s.publishTask([]byte(`{"task_id": "it-1", "scene_key": "mill", "input": "wave"}`))

	msg := s.nextMessage(resultQueue)
	var result messaging.CommandResult
	s.Require().NoError(json.Unmarshal(msg.Body, &result))
	s.Equal("it-1", msg.MessageId)
	s.Equal(messaging.CommandResult{
		TaskID:   "it-1",
		Status:   messaging.StatusSuccess,
		SceneKey: "mill",
		Valid:    true,
		Lines:    []string{"wave"},
	}, result)
}

func (s *WorkerSuite) TestMalformedTaskGoesToDLQ() {
	s.publishTask([]byte(`not json`))

	msg := s.nextMessage(taskQueue + "_dlq")
	s.Equal("not json", string(msg.Body))
}

func TestWorkerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("integration suite needs docker")
	}
	suite.Run(t, new(WorkerSuite))
}
