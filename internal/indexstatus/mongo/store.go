// Package mongo persists the index status record in a MongoDB collection
// using optimistic versioning.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
)

// DefaultMaxAttempts bounds compare-and-swap retries in Update.
const DefaultMaxAttempts = 5

type store struct {
	coll        *mongo.Collection
	maxAttempts int
}

// NewStore creates a Store backed by the named collection.
func NewStore(db *mongo.Database, collection string) indexstatus.Store {
	if collection == "" {
		collection = "index-status"
	}
	return &store{
		coll:        db.Collection(collection),
		maxAttempts: DefaultMaxAttempts,
	}
}

func (s *store) Get(ctx context.Context) (indexstatus.IndexStatus, error) {
	var status indexstatus.IndexStatus
	err := s.coll.FindOne(ctx, bson.M{"_id": indexstatus.StatusID}).Decode(&status)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return indexstatus.IndexStatus{}, fmt.Errorf("failed to load index status: %w", err)
	}

	initial := indexstatus.New()
	_, err = s.coll.InsertOne(ctx, initial)
	if err == nil {
		return initial, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return indexstatus.IndexStatus{}, fmt.Errorf("failed to initialize index status: %w", err)
	}

	// Another process created it first
	if err := s.coll.FindOne(ctx, bson.M{"_id": indexstatus.StatusID}).Decode(&status); err != nil {
		return indexstatus.IndexStatus{}, fmt.Errorf("failed to load index status: %w", err)
	}
	return status, nil
}

func (s *store) Update(ctx context.Context, fn indexstatus.UpdateFunc) (indexstatus.IndexStatus, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		current, err := s.Get(ctx)
		if err != nil {
			return indexstatus.IndexStatus{}, err
		}

		next, err := fn(current)
		if err != nil {
			return current, err
		}
		next.ID = indexstatus.StatusID
		next.Version = current.Version + 1

		result, err := s.coll.ReplaceOne(ctx, bson.M{
			"_id":     indexstatus.StatusID,
			"version": current.Version,
		}, next)
		if err != nil {
			return indexstatus.IndexStatus{}, fmt.Errorf("failed to save index status: %w", err)
		}
		if result.MatchedCount == 1 {
			return next, nil
		}
	}
	return indexstatus.IndexStatus{}, indexstatus.ErrConcurrentUpdate
}
