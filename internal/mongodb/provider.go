// Package mongodb manages the shared MongoDB connection.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Provider owns one client and its default database.
type Provider struct {
	client *mongo.Client
	dbName string
}

// NewProvider connects and pings the server.
func NewProvider(ctx context.Context, uri string, dbName string) (*Provider, error) {
	clientOpts := options.Client().ApplyURI(uri).SetAppName("prisoner-search")
	if clientOpts.ConnectTimeout == nil {
		clientOpts.SetConnectTimeout(10 * time.Second)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return &Provider{client: client, dbName: dbName}, nil
}

func (p *Provider) Client() *mongo.Client {
	return p.client
}

// Database returns the default database.
func (p *Provider) Database() *mongo.Database {
	return p.client.Database(p.dbName)
}

// Ping checks connectivity for health reporting.
func (p *Provider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}

func (p *Provider) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
