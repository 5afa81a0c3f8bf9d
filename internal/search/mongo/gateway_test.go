package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/prisoner"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/search"
)

func setupDB(t *testing.T) *mongo.Database {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("Skipping test: failed to ping MongoDB: %v", err)
	}

	db := client.Database(fmt.Sprintf("test_search_%d", time.Now().UnixNano()%100000))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func TestCollectionName(t *testing.T) {
	assert.Equal(t, "prisoner-search-a", CollectionName("prisoner-search", indexstatus.SlotA))
	assert.Equal(t, "prisoner-search-b", CollectionName("prisoner-search", indexstatus.SlotB))
}

func TestGateway_IndexLifecycle(t *testing.T) {
	db := setupDB(t)
	g := NewGateway(db, Config{})
	ctx := context.Background()

	exists, err := g.IndexExists(ctx, indexstatus.SlotA)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, g.CreateIndex(ctx, indexstatus.SlotA))
	require.NoError(t, g.CreateIndex(ctx, indexstatus.SlotA))
	exists, err = g.IndexExists(ctx, indexstatus.SlotA)
	require.NoError(t, err)
	assert.True(t, exists)

	recall := true
	doc := &prisoner.Prisoner{PrisonerNumber: "A1234AA", FirstName: "JOHN", LastName: "SMITH", Recall: &recall}
	require.NoError(t, g.Save(ctx, doc, indexstatus.SlotA))
	doc.CellLocation = "1-1-001"
	require.NoError(t, g.Save(ctx, doc, indexstatus.SlotA))

	n, err := g.Count(ctx, indexstatus.SlotA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := g.Get(ctx, "A1234AA", indexstatus.SlotB, indexstatus.SlotA)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	missing, err := g.Get(ctx, "Z9999ZZ", indexstatus.SlotA)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, g.DeleteIndex(ctx, indexstatus.SlotA))
	exists, _ = g.IndexExists(ctx, indexstatus.SlotA)
	assert.False(t, exists)
}

func TestGateway_Alias(t *testing.T) {
	db := setupDB(t)
	g := NewGateway(db, Config{})
	ctx := context.Background()

	_, ok, err := g.AliasSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, g.SwitchAlias(ctx, indexstatus.SlotB))
	require.NoError(t, g.SwitchAlias(ctx, indexstatus.SlotA))
	slot, ok, err := g.AliasSlot(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, indexstatus.SlotA, slot)

	require.NoError(t, g.ClearAlias(ctx))
	_, ok, err = g.AliasSlot(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGateway_Differences(t *testing.T) {
	db := setupDB(t)
	g := NewGateway(db, Config{})
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, g.SaveDifferences(ctx, nil))
	require.NoError(t, g.SaveDifferences(ctx, []search.DifferenceRecord{
		{ID: "2", PrisonerNumber: "A1234AA", Category: prisoner.CategoryLocation, Differences: []string{"cellLocation: 1-1-001 -> 2-1-001"}, DateTime: t0.Add(time.Minute)},
		{ID: "1", PrisonerNumber: "A1234AA", Category: prisoner.CategoryStatus, Differences: []string{"inOutStatus: OUT -> IN"}, DateTime: t0},
	}))

	got, err := g.GetDifferences(ctx, "A1234AA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, prisoner.CategoryLocation, got[1].Category)
}
