package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// QueueConfig configures the background work queue. Backend also selects
// the transport for the event bus and the change listener, which share
// the queue's NATS connection.
type QueueConfig struct {
	Backend    string        `yaml:"backend"` // nats or memory
	NATSURL    string        `yaml:"nats_url"`
	Storage    string        `yaml:"storage"` // memory or file
	Stream     string        `yaml:"stream"`
	DLQStream  string        `yaml:"dlq_stream"`
	Consumer   string        `yaml:"consumer"`
	MaxDeliver int           `yaml:"max_deliver"`
	AckWait    time.Duration `yaml:"ack_wait"`
}

func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Backend:    "nats",
		NATSURL:    "nats://localhost:4222",
		Storage:    "file",
		Stream:     "PRISONER_INDEX",
		DLQStream:  "PRISONER_INDEX_DLQ",
		Consumer:   "prisoner-search-worker",
		MaxDeliver: 5,
		AckWait:    5 * time.Minute,
	}
}

func (c *QueueConfig) ApplyDefaults() {
	d := DefaultQueueConfig()
	if c.Backend == "" {
		c.Backend = d.Backend
	}
	if c.NATSURL == "" {
		c.NATSURL = d.NATSURL
	}
	if c.Storage == "" {
		c.Storage = d.Storage
	}
	if c.Stream == "" {
		c.Stream = d.Stream
	}
	if c.DLQStream == "" {
		c.DLQStream = d.DLQStream
	}
	if c.Consumer == "" {
		c.Consumer = d.Consumer
	}
	if c.MaxDeliver <= 0 {
		c.MaxDeliver = d.MaxDeliver
	}
	if c.AckWait <= 0 {
		c.AckWait = d.AckWait
	}
}

func (c *QueueConfig) ApplyEnvOverrides() {
	if v := os.Getenv("NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("QUEUE_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("QUEUE_MAX_DELIVER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxDeliver = n
		}
	}
}

func (c *QueueConfig) Validate() error {
	switch c.Backend {
	case "nats":
		if c.NATSURL == "" {
			return fmt.Errorf("queue.nats_url is required for the nats backend")
		}
	case "memory":
	default:
		return fmt.Errorf("invalid queue backend: %s (must be nats or memory)", c.Backend)
	}
	if c.Storage != "memory" && c.Storage != "file" {
		return fmt.Errorf("invalid queue storage: %s (must be memory or file)", c.Storage)
	}
	if c.Stream == c.DLQStream {
		return fmt.Errorf("queue.dlq_stream must differ from queue.stream")
	}
	return nil
}

// EventsConfig configures the outbound domain event stream.
type EventsConfig struct {
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

func DefaultEventsConfig() EventsConfig {
	return EventsConfig{
		Stream:        "PRISONER_EVENTS",
		SubjectPrefix: "events",
	}
}

func (c *EventsConfig) ApplyDefaults() {
	d := DefaultEventsConfig()
	if c.Stream == "" {
		c.Stream = d.Stream
	}
	if c.SubjectPrefix == "" {
		c.SubjectPrefix = d.SubjectPrefix
	}
}

func (c *EventsConfig) ApplyEnvOverrides() {
	if v := os.Getenv("EVENTS_STREAM"); v != "" {
		c.Stream = v
	}
}

func (c *EventsConfig) Validate() error {
	if c.Stream == "" {
		return fmt.Errorf("events.stream cannot be empty")
	}
	return nil
}
