// Package natstest provides testify mocks of the JetStream types used by the
// NATS-backed bus and work queue.
package natstest

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/mock"
)

// JetStream mocks the JetStream subset used by this module.
type JetStream struct {
	mock.Mock
}

func (m *JetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *JetStream) CreateOrUpdateConsumer(ctx context.Context, stream string, cfg jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	args := m.Called(ctx, stream, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Consumer), args.Error(1)
}

func (m *JetStream) Stream(ctx context.Context, name string) (jetstream.Stream, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *JetStream) Consumer(ctx context.Context, stream, consumer string) (jetstream.Consumer, error) {
	args := m.Called(ctx, stream, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Consumer), args.Error(1)
}

func (m *JetStream) Publish(ctx context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.PubAck), args.Error(1)
}

// Stream mocks jetstream.Stream; unmocked methods panic.
type Stream struct {
	mock.Mock
	jetstream.Stream
}

func (m *Stream) Info(ctx context.Context, _ ...jetstream.StreamInfoOpt) (*jetstream.StreamInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.StreamInfo), args.Error(1)
}

func (m *Stream) Purge(ctx context.Context, _ ...jetstream.StreamPurgeOpt) error {
	return m.Called(ctx).Error(0)
}

// Consumer mocks jetstream.Consumer; unmocked methods panic.
type Consumer struct {
	mock.Mock
	jetstream.Consumer
	handlerCh chan jetstream.MessageHandler
}

// NewConsumer returns a Consumer that exposes the handler given to Consume.
func NewConsumer() *Consumer {
	return &Consumer{handlerCh: make(chan jetstream.MessageHandler, 1)}
}

func (m *Consumer) Consume(handler jetstream.MessageHandler, _ ...jetstream.PullConsumeOpt) (jetstream.ConsumeContext, error) {
	args := m.Called(handler)
	if m.handlerCh != nil {
		select {
		case m.handlerCh <- handler:
		default:
		}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.ConsumeContext), args.Error(1)
}

func (m *Consumer) Info(ctx context.Context) (*jetstream.ConsumerInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.ConsumerInfo), args.Error(1)
}

// HandlerCh receives the handler passed to Consume.
func (m *Consumer) HandlerCh() <-chan jetstream.MessageHandler {
	return m.handlerCh
}

// ConsumeContext mocks jetstream.ConsumeContext.
type ConsumeContext struct {
	mock.Mock
	jetstream.ConsumeContext
}

func (m *ConsumeContext) Stop() {
	m.Called()
}

// Msg mocks jetstream.Msg.
type Msg struct {
	mock.Mock
	data    []byte
	subject string
}

// NewMsg returns a Msg with the given subject and payload.
func NewMsg(subject string, data []byte) *Msg {
	return &Msg{subject: subject, data: data}
}

func (m *Msg) Data() []byte         { return m.data }
func (m *Msg) Subject() string      { return m.subject }
func (m *Msg) Reply() string        { return "" }
func (m *Msg) Headers() nats.Header { return nil }

func (m *Msg) Ack() error                         { return m.Called().Error(0) }
func (m *Msg) Nak() error                         { return m.Called().Error(0) }
func (m *Msg) NakWithDelay(d time.Duration) error { return m.Called(d).Error(0) }
func (m *Msg) Term() error                        { return m.Called().Error(0) }
func (m *Msg) TermWithReason(r string) error      { return m.Called(r).Error(0) }
func (m *Msg) InProgress() error                  { return m.Called().Error(0) }
func (m *Msg) DoubleAck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *Msg) Metadata() (*jetstream.MsgMetadata, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.MsgMetadata), args.Error(1)
}
