package queue

import (
	"context"
	"sync"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

// DefaultMaxDeliver is the delivery limit before a message is dead-lettered.
const DefaultMaxDeliver = 5

var _ Queue = (*Memory)(nil)

// Memory is an in-process Queue. It supports a single consumer.
type Memory struct {
	mu         sync.Mutex
	visible    []*memoryMessage
	inFlight   int64
	dead       [][]byte
	maxDeliver int
	// generation is bumped by Purge so that settling a purged message does
	// not touch the counters.
	generation uint64
	notify     chan struct{}
}

// NewMemory returns an empty queue; maxDeliver <= 0 uses DefaultMaxDeliver.
func NewMemory(maxDeliver int) *Memory {
	if maxDeliver <= 0 {
		maxDeliver = DefaultMaxDeliver
	}
	return &Memory{
		maxDeliver: maxDeliver,
		notify:     make(chan struct{}, 1),
	}
}

func (q *Memory) Send(_ context.Context, m Message) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	q.mu.Lock()
	q.visible = append(q.visible, &memoryMessage{
		queue:      q,
		data:       data,
		subject:    string(m.Kind),
		timestamp:  time.Now(),
		generation: q.generation,
	})
	q.mu.Unlock()
	q.wake()
	return nil
}

func (q *Memory) Depth(context.Context) (Depth, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Depth{
		Visible:      int64(len(q.visible)),
		InFlight:     q.inFlight,
		DeadLettered: int64(len(q.dead)),
	}, nil
}

func (q *Memory) Purge(context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.visible = nil
	q.dead = nil
	q.inFlight = 0
	q.generation++
	return nil
}

// DeadLetters returns copies of the dead-lettered payloads.
func (q *Memory) DeadLetters() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([][]byte, len(q.dead))
	copy(out, q.dead)
	return out
}

// Consume delivers visible messages until ctx is done. Messages left in the
// channel when ctx ends stay counted as in flight until settled.
func (q *Memory) Consume(ctx context.Context) (<-chan pubsub.Message, error) {
	out := make(chan pubsub.Message)
	go func() {
		defer close(out)
		for {
			msg := q.next()
			if msg == nil {
				select {
				case <-q.notify:
					continue
				case <-ctx.Done():
					return
				}
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				msg.requeue()
				return
			}
		}
	}()
	return out, nil
}

func (q *Memory) next() *memoryMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.visible) == 0 {
		return nil
	}
	msg := q.visible[0]
	q.visible = q.visible[1:]
	msg.delivered++
	msg.settled = false
	q.inFlight++
	return msg
}

func (q *Memory) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

type memoryMessage struct {
	queue      *Memory
	data       []byte
	subject    string
	timestamp  time.Time
	generation uint64

	// guarded by queue.mu
	delivered uint64
	settled   bool
}

func (m *memoryMessage) Data() []byte    { return m.data }
func (m *memoryMessage) Subject() string { return m.subject }

func (m *memoryMessage) Ack() error {
	m.settle(func() {})
	return nil
}

func (m *memoryMessage) Term() error {
	m.settle(func() {})
	return nil
}

func (m *memoryMessage) Nak() error {
	q := m.queue
	m.settle(func() {
		if m.delivered >= uint64(q.maxDeliver) {
			q.dead = append(q.dead, m.data)
			return
		}
		q.visible = append(q.visible, m)
	})
	q.wake()
	return nil
}

func (m *memoryMessage) NakWithDelay(delay time.Duration) error {
	time.AfterFunc(delay, func() { _ = m.Nak() })
	return nil
}

func (m *memoryMessage) Metadata() (pubsub.MessageMetadata, error) {
	m.queue.mu.Lock()
	defer m.queue.mu.Unlock()
	return pubsub.MessageMetadata{
		NumDelivered: m.delivered,
		Timestamp:    m.timestamp,
		Subject:      m.subject,
		Stream:       "memory",
	}, nil
}

// settle leaves the in-flight set exactly once, running then under the
// queue lock. Messages from before a purge are discarded.
func (m *memoryMessage) settle(then func()) {
	q := m.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if m.settled || m.generation != q.generation {
		m.settled = true
		return
	}
	m.settled = true
	q.inFlight--
	then()
}

func (m *memoryMessage) requeue() {
	q := m.queue
	q.mu.Lock()
	defer q.mu.Unlock()
	if m.generation != q.generation {
		return
	}
	q.inFlight--
	m.delivered--
	q.visible = append([]*memoryMessage{m}, q.visible...)
}
