// Package mongo stores each index slot as a MongoDB collection. The read
// alias is a small record naming the serving collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
)

// Config names the collections used by the gateway.
type Config struct {
	// IndexPrefix is suffixed with "-a" or "-b" per slot.
	IndexPrefix           string
	AliasCollection       string
	DifferencesCollection string
}

func (c *Config) applyDefaults() {
	if c.IndexPrefix == "" {
		c.IndexPrefix = "prisoner-search"
	}
	if c.AliasCollection == "" {
		c.AliasCollection = "index-alias"
	}
	if c.DifferencesCollection == "" {
		c.DifferencesCollection = "prisoner-differences"
	}
}

type gateway struct {
	db          *mongo.Database
	cfg         Config
	alias       *mongo.Collection
	differences *mongo.Collection
}

type aliasRecord struct {
	ID         string           `bson:"_id"`
	Slot       indexstatus.Slot `bson:"slot"`
	Collection string           `bson:"collection"`
}

// NewGateway returns a search.Gateway over db.
func NewGateway(db *mongo.Database, cfg Config) search.Gateway {
	cfg.applyDefaults()
	return &gateway{
		db:          db,
		cfg:         cfg,
		alias:       db.Collection(cfg.AliasCollection),
		differences: db.Collection(cfg.DifferencesCollection),
	}
}

// CollectionName returns the collection holding slot.
func CollectionName(prefix string, slot indexstatus.Slot) string {
	return prefix + "-" + strings.ToLower(string(slot))
}

func (g *gateway) CollectionName(slot indexstatus.Slot) string {
	return CollectionName(g.cfg.IndexPrefix, slot)
}

func (g *gateway) collection(slot indexstatus.Slot) *mongo.Collection {
	return g.db.Collection(g.CollectionName(slot))
}

var searchIndexes = []mongo.IndexModel{
	{Keys: bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}},
	{Keys: bson.D{{Key: "pnc_number_canonical_short", Value: 1}}},
	{Keys: bson.D{{Key: "pnc_number_canonical_long", Value: 1}}},
	{Keys: bson.D{{Key: "cro_number", Value: 1}}},
	{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	{Keys: bson.D{{Key: "prison_id", Value: 1}, {Key: "cell_location", Value: 1}}},
	{Keys: bson.D{{Key: "identifiers.type", Value: 1}, {Key: "identifiers.value", Value: 1}}},
}

func (g *gateway) CreateIndex(ctx context.Context, slot indexstatus.Slot) error {
	name := g.CollectionName(slot)
	if err := g.db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		// NamespaceExists
		if !errors.As(err, &cmdErr) || cmdErr.Code != 48 {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	if _, err := g.collection(slot).Indexes().CreateMany(ctx, searchIndexes); err != nil {
		return fmt.Errorf("failed to create indexes on %s: %w", name, err)
	}
	return nil
}

func (g *gateway) DeleteIndex(ctx context.Context, slot indexstatus.Slot) error {
	if err := g.collection(slot).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop %s: %w", g.CollectionName(slot), err)
	}
	return nil
}

func (g *gateway) IndexExists(ctx context.Context, slot indexstatus.Slot) (bool, error) {
	names, err := g.db.ListCollectionNames(ctx, bson.M{"name": g.CollectionName(slot)})
	if err != nil {
		return false, fmt.Errorf("failed to list collections: %w", err)
	}
	return len(names) > 0, nil
}

// Save upserts the whole document. Unlike the in-memory gateway it does
// not reject a missing slot, because MongoDB creates collections lazily.
func (g *gateway) Save(ctx context.Context, p *prisoner.Prisoner, slot indexstatus.Slot) error {
	_, err := g.collection(slot).ReplaceOne(ctx,
		bson.M{"_id": p.PrisonerNumber},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s to %s: %w", p.PrisonerNumber, g.CollectionName(slot), err)
	}
	return nil
}

func (g *gateway) Get(ctx context.Context, prisonerNumber string, slots ...indexstatus.Slot) (*prisoner.Prisoner, error) {
	for _, slot := range slots {
		var p prisoner.Prisoner
		err := g.collection(slot).FindOne(ctx, bson.M{"_id": prisonerNumber}).Decode(&p)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s from %s: %w", prisonerNumber, g.CollectionName(slot), err)
		}
		return &p, nil
	}
	return nil, nil
}

func (g *gateway) Count(ctx context.Context, slot indexstatus.Slot) (int64, error) {
	n, err := g.collection(slot).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", g.CollectionName(slot), err)
	}
	return n, nil
}

func (g *gateway) SwitchAlias(ctx context.Context, slot indexstatus.Slot) error {
	record := aliasRecord{ID: g.cfg.IndexPrefix, Slot: slot, Collection: g.CollectionName(slot)}
	_, err := g.alias.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to switch alias to %s: %w", record.Collection, err)
	}
	return nil
}

func (g *gateway) ClearAlias(ctx context.Context) error {
	if _, err := g.alias.DeleteOne(ctx, bson.M{"_id": g.cfg.IndexPrefix}); err != nil {
		return fmt.Errorf("failed to clear alias: %w", err)
	}
	return nil
}

func (g *gateway) AliasSlot(ctx context.Context) (indexstatus.Slot, bool, error) {
	var record aliasRecord
	err := g.alias.FindOne(ctx, bson.M{"_id": g.cfg.IndexPrefix}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read alias: %w", err)
	}
	return record.Slot, true, nil
}

func (g *gateway) SaveDifferences(ctx context.Context, records []search.DifferenceRecord) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = r
	}
	if _, err := g.differences.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to save differences: %w", err)
	}
	return nil
}

func (g *gateway) GetDifferences(ctx context.Context, prisonerNumber string) ([]search.DifferenceRecord, error) {
	cursor, err := g.differences.Find(ctx,
		bson.M{"prisoner_number": prisonerNumber},
		options.Find().SetSort(bson.D{{Key: "date_time", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query differences: %w", err)
	}
	var out []search.DifferenceRecord
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode differences: %w", err)
	}
	return out, nil
}
