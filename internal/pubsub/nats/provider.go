package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/pubsub"
)

type connectFunc func(url string) (*nats.Conn, error)

type jetStreamFactory func(nc *nats.Conn) (JetStream, error)

// Provider implements pubsub.Provider over a single NATS connection.
type Provider struct {
	url     string
	nc      *nats.Conn
	js      JetStream
	connect connectFunc
	newJS   jetStreamFactory
}

var (
	_ pubsub.Provider    = (*Provider)(nil)
	_ pubsub.Connectable = (*Provider)(nil)
)

// NewProvider returns an unconnected provider; call Connect before use.
func NewProvider(url string) *Provider {
	return &Provider{
		url: url,
		connect: func(url string) (*nats.Conn, error) {
			return nats.Connect(url, nats.Name("prisoner-search"))
		},
		newJS: NewJetStream,
	}
}

// NewProviderWithJetStream returns a provider over an existing JetStream.
func NewProviderWithJetStream(js JetStream) *Provider {
	return &Provider{js: js}
}

func (p *Provider) Connect(ctx context.Context) error {
	if p.js != nil {
		return nil
	}
	nc, err := p.connect(p.url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", p.url, err)
	}
	js, err := p.newJS(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream: %w", err)
	}
	p.nc = nc
	p.js = js
	slog.Info("Connected to NATS", "url", p.url)
	return nil
}

// JetStream returns the connected JetStream handle, or nil before Connect.
func (p *Provider) JetStream() JetStream {
	return p.js
}

func (p *Provider) NewPublisher(opts pubsub.PublisherOptions) (pubsub.Publisher, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewPublisher(context.Background(), p.js, opts)
}

func (p *Provider) NewConsumer(opts pubsub.ConsumerOptions) (pubsub.Consumer, error) {
	if p.js == nil {
		return nil, fmt.Errorf("NATS not connected, call Connect first")
	}
	return NewConsumer(p.js, opts)
}

func (p *Provider) Close() error {
	if p.nc != nil {
		slog.Info("Closing NATS connection")
		p.nc.Close()
		p.nc = nil
	}
	p.js = nil
	return nil
}
