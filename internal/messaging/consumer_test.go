package messaging

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type processorFunc func(ctx context.Context, body []byte) error

func (f processorFunc) Process(ctx context.Context, body []byte) error { return f(ctx, body) }

type ackRecorder struct {
	acked   []uint64
	nacked  []uint64
	requeue bool
}

func (a *ackRecorder) Ack(tag uint64, _ bool) error {
	a.acked = append(a.acked, tag)
	return nil
}

func (a *ackRecorder) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacked = append(a.nacked, tag)
	a.requeue = a.requeue || requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func TestConsumer_HandleAcksAndRejects(t *testing.T) {
	acks := &ackRecorder{}
	c := NewConsumer(nil, "tasks", processorFunc(func(_ context.Context, body []byte) error {
		if string(body) == "bad" {
			return ErrMalformedTask
		}
		return nil
	}), zap.NewNop())

	c.handle(context.Background(), amqp.Delivery{Acknowledger: acks, DeliveryTag: 1, Body: []byte("ok")})
	c.handle(context.Background(), amqp.Delivery{Acknowledger: acks, DeliveryTag: 2, Body: []byte("bad")})

	assert.Equal(t, []uint64{1}, acks.acked)
	assert.Equal(t, []uint64{2}, acks.nacked)
	assert.False(t, acks.requeue)
}

type declared struct {
	kind string
	name string
	args amqp.Table
}

type topologyRecorder struct {
	calls []declared
	fail  string
}

func (r *topologyRecorder) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	r.calls = append(r.calls, declared{kind: "exchange:" + kind, name: name})
	if r.fail == name {
		return errors.New("access refused")
	}
	return nil
}

func (r *topologyRecorder) QueueDeclare(name string, _, _, _, _ bool, args amqp.Table) (amqp.Queue, error) {
	r.calls = append(r.calls, declared{kind: "queue", name: name, args: args})
	if r.fail == name {
		return amqp.Queue{}, errors.New("precondition failed")
	}
	return amqp.Queue{Name: name}, nil
}

func (r *topologyRecorder) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	r.calls = append(r.calls, declared{kind: "bind:" + key, name: name + "->" + exchange})
	return nil
}

func TestDeclareTopology(t *testing.T) {
	rec := &topologyRecorder{}
	require.NoError(t, declareTopology(rec, "tasks"))

	require.Len(t, rec.calls, 4)
	assert.Equal(t, declared{kind: "exchange:direct", name: "tasks_dlx"}, rec.calls[0])
	assert.Equal(t, declared{kind: "queue", name: "tasks_dlq"}, rec.calls[1])
	assert.Equal(t, declared{kind: "bind:dlq", name: "tasks_dlq->tasks_dlx"}, rec.calls[2])
	assert.Equal(t, "tasks", rec.calls[3].name)
	assert.Equal(t, "tasks_dlx", rec.calls[3].args["x-dead-letter-exchange"])
	assert.Equal(t, dlqRoutingKey, rec.calls[3].args["x-dead-letter-routing-key"])
}

func TestDeclareTopology_StopsOnError(t *testing.T) {
	rec := &topologyRecorder{fail: "tasks_dlq"}
	err := declareTopology(rec, "tasks")

	assert.ErrorContains(t, err, "declare DLQ 'tasks_dlq'")
	assert.Len(t, rec.calls, 2)
}
