// Package pubsub abstracts the message bus used for inbound change
// notifications and outbound domain events.
package pubsub

import (
	"context"
	"io"
	"time"
)

// Message is a received message with acknowledgment controls.
type Message interface {
	Data() []byte
	Subject() string
	// Ack acknowledges successful processing.
	Ack() error
	// Nak requests redelivery.
	Nak() error
	// NakWithDelay requests redelivery after a delay.
	NakWithDelay(delay time.Duration) error
	// Term drops the message without redelivery.
	Term() error
	Metadata() (MessageMetadata, error)
}

// MessageMetadata carries delivery information about a message.
type MessageMetadata struct {
	NumDelivered uint64
	Timestamp    time.Time
	Subject      string
	Stream       string
	Consumer     string
}

// Publisher publishes messages to a stream.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

// Consumer consumes messages from a stream. The returned channel is closed
// when ctx is cancelled. The caller must Ack, Nak or Term every message.
type Consumer interface {
	Subscribe(ctx context.Context) (<-chan Message, error)
}

// Provider creates publishers and consumers over one broker.
type Provider interface {
	io.Closer
	NewPublisher(opts PublisherOptions) (Publisher, error)
	NewConsumer(opts ConsumerOptions) (Consumer, error)
}

// Connectable is implemented by providers that must dial before use.
type Connectable interface {
	Connect(ctx context.Context) error
}

// StorageType selects stream persistence.
type StorageType int

const (
	MemoryStorage StorageType = iota
	FileStorage
)

// PublisherOptions configures a publisher.
type PublisherOptions struct {
	// StreamName is created on demand when set.
	StreamName string
	// SubjectPrefix is prepended to every subject as "<prefix>.<subject>".
	SubjectPrefix string
	Storage       StorageType
	// OnPublish is called after each publish attempt.
	OnPublish func(subject string, err error, latency time.Duration)
}

// ConsumerOptions configures a durable consumer.
type ConsumerOptions struct {
	StreamName    string
	ConsumerName  string
	FilterSubject string
	// MaxDeliver bounds redelivery; 0 means unlimited.
	MaxDeliver     int
	AckWait        time.Duration
	ChannelBufSize int
	Storage        StorageType
}

// DefaultConsumerOptions returns ConsumerOptions with defaults applied.
func DefaultConsumerOptions() ConsumerOptions {
	return ConsumerOptions{
		ChannelBufSize: 100,
		AckWait:        30 * time.Second,
	}
}

// FullSubject joins a prefix and subject.
func FullSubject(prefix, subject string) string {
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}
