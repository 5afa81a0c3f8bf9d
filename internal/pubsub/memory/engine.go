// Package memory is an in-process pubsub.Provider for local runs and tests.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

var (
	// ErrEngineClosed is returned when operating on a closed engine.
	ErrEngineClosed = errors.New("engine is closed")
	// ErrPatternSubscribed is returned when a pattern already has a subscriber.
	ErrPatternSubscribed = errors.New("pattern already has a subscriber")
)

var _ pubsub.Provider = (*Engine)(nil)

// Engine routes published messages to matching subscriptions. Messages
// published with no matching subscription are dropped.
type Engine struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	closed atomic.Bool
}

type subscription struct {
	msgCh  chan pubsub.Message
	ctx    context.Context
	cancel context.CancelFunc
	// maxDeliver bounds redelivery on Nak; 0 is unlimited.
	maxDeliver int
}

// New returns an empty engine.
func New() *Engine {
	return &Engine{subs: make(map[string]*subscription)}
}

func (e *Engine) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &publisher{engine: e, opts: opts}, nil
}

func (e *Engine) NewConsumer(opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	return &consumer{engine: e, opts: opts}, nil
}

// Close cancels every subscription.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for pattern, sub := range e.subs {
		sub.cancel()
		close(sub.msgCh)
		delete(e.subs, pattern)
	}
	return nil
}

func (e *Engine) IsClosed() bool {
	return e.closed.Load()
}

func (e *Engine) publish(ctx context.Context, subject string, data []byte) error {
	if e.IsClosed() {
		return ErrEngineClosed
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	for pattern, sub := range e.subs {
		if !matchSubject(pattern, subject) {
			continue
		}
		msg := &message{
			data:      data,
			subject:   subject,
			timestamp: time.Now(),
			delivered: 1,
			sub:       sub,
		}
		select {
		case sub.msgCh <- msg:
		case <-ctx.Done():
			return ctx.Err()
		case <-sub.ctx.Done():
		}
	}
	return nil
}

func (e *Engine) subscribe(ctx context.Context, pattern string, bufSize, maxDeliver int) (<-chan pubsub.Message, error) {
	if e.IsClosed() {
		return nil, ErrEngineClosed
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.subs[pattern] != nil {
		return nil, ErrPatternSubscribed
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		msgCh:      make(chan pubsub.Message, bufSize),
		ctx:        subCtx,
		cancel:     cancel,
		maxDeliver: maxDeliver,
	}
	e.subs[pattern] = sub

	go func() {
		<-subCtx.Done()
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.subs[pattern] == sub {
			delete(e.subs, pattern)
			close(sub.msgCh)
		}
	}()
	return sub.msgCh, nil
}

// matchSubject matches NATS-style patterns: "*" is one token and a trailing
// ">" is one or more tokens.
func matchSubject(pattern, subject string) bool {
	if pattern == "" || subject == "" {
		return false
	}
	pp := strings.Split(pattern, ".")
	sp := strings.Split(subject, ".")
	for i, p := range pp {
		if p == ">" {
			return i < len(sp)
		}
		if i >= len(sp) || (p != "*" && p != sp[i]) {
			return false
		}
	}
	return len(pp) == len(sp)
}

type publisher struct {
	engine *Engine
	opts   pubsub.PublisherOptions
	closed atomic.Bool
}

func (p *publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if p.closed.Load() {
		return ErrEngineClosed
	}
	start := time.Now()
	fullSubject := pubsub.FullSubject(p.opts.SubjectPrefix, subject)
	err := p.engine.publish(ctx, fullSubject, data)
	if p.opts.OnPublish != nil {
		p.opts.OnPublish(fullSubject, err, time.Since(start))
	}
	return err
}

func (p *publisher) Close() error {
	p.closed.Store(true)
	return nil
}

type consumer struct {
	engine *Engine
	opts   pubsub.ConsumerOptions
}

func (c *consumer) Subscribe(ctx context.Context) (<-chan pubsub.Message, error) {
	pattern := c.opts.FilterSubject
	if pattern == "" {
		pattern = ">"
		if c.opts.StreamName != "" {
			pattern = c.opts.StreamName + ".>"
		}
	}
	bufSize := c.opts.ChannelBufSize
	if bufSize <= 0 {
		bufSize = pubsub.DefaultConsumerOptions().ChannelBufSize
	}
	return c.engine.subscribe(ctx, pattern, bufSize, c.opts.MaxDeliver)
}
