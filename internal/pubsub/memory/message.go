package memory

import (
	"sync"
	"time"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

type message struct {
	data      []byte
	subject   string
	timestamp time.Time
	sub       *subscription

	mu        sync.Mutex
	delivered uint64
	settled   bool
}

func (m *message) Data() []byte    { return m.data }
func (m *message) Subject() string { return m.subject }

func (m *message) Ack() error {
	m.settle()
	return nil
}

func (m *message) Term() error {
	m.settle()
	return nil
}

// Nak requeues immediately unless the delivery limit is reached or the
// subscription buffer is full.
func (m *message) Nak() error {
	if !m.prepareRedelivery() {
		return nil
	}
	m.redeliver(false)
	return nil
}

func (m *message) NakWithDelay(delay time.Duration) error {
	if !m.prepareRedelivery() {
		return nil
	}
	time.AfterFunc(delay, func() { m.redeliver(true) })
	return nil
}

func (m *message) Metadata() (pubsub.MessageMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pubsub.MessageMetadata{
		NumDelivered: m.delivered,
		Timestamp:    m.timestamp,
		Subject:      m.subject,
	}, nil
}

func (m *message) settle() {
	m.mu.Lock()
	m.settled = true
	m.mu.Unlock()
}

func (m *message) prepareRedelivery() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return false
	}
	if m.sub.maxDeliver > 0 && m.delivered >= uint64(m.sub.maxDeliver) {
		m.settled = true
		return false
	}
	m.delivered++
	return true
}

func (m *message) redeliver(block bool) {
	// The channel may be closed by a concurrent unsubscribe.
	defer func() { _ = recover() }()
	if block {
		select {
		case m.sub.msgCh <- m:
		case <-m.sub.ctx.Done():
		}
		return
	}
	select {
	case m.sub.msgCh <- m:
	case <-m.sub.ctx.Done():
	default:
	}
}
