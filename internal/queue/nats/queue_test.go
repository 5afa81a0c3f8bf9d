package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub/natstest"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/queue"
)

var testConfig = Config{
	Stream:       "PRISONER_INDEX",
	DLQStream:    "PRISONER_INDEX_DLQ",
	ConsumerName: "indexer",
	MaxDeliver:   3,
}

func newTestQueue(t *testing.T) (*Queue, *natstest.JetStream) {
	t.Helper()
	js := new(natstest.JetStream)
	js.On("CreateOrUpdateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return cfg.Name == "PRISONER_INDEX" && cfg.Retention == jetstream.WorkQueuePolicy && cfg.Subjects[0] == "PRISONER_INDEX.work"
	})).Return(nil, nil).Once()
	js.On("CreateOrUpdateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return cfg.Name == "PRISONER_INDEX_DLQ" && cfg.Subjects[0] == "PRISONER_INDEX_DLQ.dead"
	})).Return(nil, nil).Once()
	js.On("CreateOrUpdateConsumer", mock.Anything, "PRISONER_INDEX", mock.MatchedBy(func(cfg jetstream.ConsumerConfig) bool {
		return cfg.Durable == "indexer" && cfg.MaxDeliver == 3
	})).Return(natstest.NewConsumer(), nil).Once()

	q, err := New(context.Background(), js, testConfig)
	require.NoError(t, err)
	return q, js
}

func TestNew_StreamError(t *testing.T) {
	js := new(natstest.JetStream)
	js.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, errors.New("no jetstream"))
	_, err := New(context.Background(), js, testConfig)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRISONER_INDEX")
}

func TestQueue_Send(t *testing.T) {
	q, js := newTestQueue(t)
	js.On("Publish", mock.Anything, "PRISONER_INDEX.work", mock.MatchedBy(func(data []byte) bool {
		m, err := queue.Decode(data)
		return err == nil && m.PrisonerNumber == "A1234AA"
	})).Return(&jetstream.PubAck{}, nil)

	require.NoError(t, q.Send(context.Background(), queue.PopulatePrisoner("A1234AA")))
	js.AssertExpectations(t)
}

func TestQueue_Depth(t *testing.T) {
	q, js := newTestQueue(t)
	cons := natstest.NewConsumer()
	cons.On("Info", mock.Anything).Return(&jetstream.ConsumerInfo{NumPending: 4, NumAckPending: 1}, nil)
	dlq := new(natstest.Stream)
	dlq.On("Info", mock.Anything).Return(&jetstream.StreamInfo{State: jetstream.StreamState{Msgs: 2}}, nil)
	js.On("Consumer", mock.Anything, "PRISONER_INDEX", "indexer").Return(cons, nil)
	js.On("Stream", mock.Anything, "PRISONER_INDEX_DLQ").Return(dlq, nil)

	d, err := q.Depth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, queue.Depth{Visible: 4, InFlight: 1, DeadLettered: 2}, d)
}

func TestQueue_DepthError(t *testing.T) {
	q, js := newTestQueue(t)
	js.On("Consumer", mock.Anything, "PRISONER_INDEX", "indexer").Return(nil, errors.New("consumer not found"))

	_, err := q.Depth(context.Background())
	assert.Error(t, err)
}

func TestQueue_Purge(t *testing.T) {
	q, js := newTestQueue(t)
	work := new(natstest.Stream)
	work.On("Purge", mock.Anything).Return(nil)
	dlq := new(natstest.Stream)
	dlq.On("Purge", mock.Anything).Return(errors.New("timeout"))
	js.On("Stream", mock.Anything, "PRISONER_INDEX").Return(work, nil)
	js.On("Stream", mock.Anything, "PRISONER_INDEX_DLQ").Return(dlq, nil)

	err := q.Purge(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRISONER_INDEX_DLQ")
	work.AssertCalled(t, "Purge", mock.Anything)
}

func TestQueue_ConsumeDeadLettersOnFinalNak(t *testing.T) {
	q, js := newTestQueue(t)
	cons := natstest.NewConsumer()
	cc := new(natstest.ConsumeContext)
	cc.On("Stop").Return()
	cons.On("Consume", mock.Anything).Return(cc, nil)
	js.On("Consumer", mock.Anything, "PRISONER_INDEX", "indexer").Return(cons, nil)
	js.On("Publish", mock.Anything, "PRISONER_INDEX_DLQ.dead", []byte("payload")).Return(&jetstream.PubAck{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := q.Consume(ctx)
	require.NoError(t, err)
	handler := <-cons.HandlerCh()

	early := natstest.NewMsg("PRISONER_INDEX.work", []byte("payload"))
	early.On("Metadata").Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil)
	early.On("Nak").Return(nil)
	handler(early)

	final := natstest.NewMsg("PRISONER_INDEX.work", []byte("payload"))
	final.On("Metadata").Return(&jetstream.MsgMetadata{NumDelivered: 3}, nil)
	final.On("Term").Return(nil)
	handler(final)

	for i := 0; i < 2; i++ {
		select {
		case msg := <-ch:
			require.NoError(t, msg.Nak())
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for message")
		}
	}

	early.AssertCalled(t, "Nak")
	final.AssertCalled(t, "Term")
	final.AssertNotCalled(t, "Nak")
	js.AssertCalled(t, "Publish", mock.Anything, "PRISONER_INDEX_DLQ.dead", []byte("payload"))
}
