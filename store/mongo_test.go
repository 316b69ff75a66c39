package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"PropertySearchSys/models"
	"PropertySearchSys/search"
)

func compile(t *testing.T, f models.SearchFilters) search.CompiledFilters {
	t.Helper()
	cf, err := search.Compile(f)
	require.NoError(t, err)
	return cf
}

func TestBuildFilterPriceRange(t *testing.T) {
	cf := compile(t, models.SearchFilters{PriceMin: 10000, PriceMax: 20000})
	filter := buildFilter(cf)
	assert.Equal(t, bson.M{"$gte": 10000.0, "$lte": 20000.0}, filter["price.amount"])

	cf = compile(t, models.SearchFilters{PriceMin: 10000})
	filter = buildFilter(cf)
	assert.Equal(t, bson.M{"$gte": 10000.0}, filter["price.amount"])

	cf = compile(t, models.SearchFilters{})
	filter = buildFilter(cf)
	_, ok := filter["price.amount"]
	assert.False(t, ok, "no price predicate without a price filter")
}

func TestBuildFilterSets(t *testing.T) {
	cf := compile(t, models.SearchFilters{
		Bedrooms:  []int{2, 3},
		Types:     []string{"apartment"},
		Amenities: []string{"parking", "pool"},
	})
	filter := buildFilter(cf)
	assert.Equal(t, bson.M{"$in": []int{2, 3}}, filter["bedrooms"])
	assert.Equal(t, bson.M{"$in": []string{"apartment"}}, filter["type"])
	assert.Equal(t, bson.M{"$all": []string{"parking", "pool"}}, filter["amenities"])
}

func TestBuildFilterQueryEscapesRegex(t *testing.T) {
	cf := compile(t, models.SearchFilters{Query: "col. (centro)"})
	filter := buildFilter(cf)
	clauses, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, clauses, 4)
	title := clauses[0].(bson.M)["title"].(bson.M)
	assert.Equal(t, `col\. \(centro\)`, title["$regex"])
	assert.Equal(t, "i", title["$options"])
}

func TestSortSpecTiebreaksOnID(t *testing.T) {
	assert.Equal(t,
		bson.D{{Key: "price.amount", Value: 1}, {Key: "_id", Value: 1}},
		sortSpec(models.SortPriceAsc))
	assert.Equal(t,
		bson.D{{Key: "price.amount", Value: -1}, {Key: "_id", Value: -1}},
		sortSpec(models.SortPriceDesc))
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		sortSpec(models.SortRecent))
	assert.Equal(t, sortSpec(models.SortRecent), sortSpec(models.SortRelevance),
		"relevance must stay stable across identical requests")
}

func TestCursorFilterPriceAscending(t *testing.T) {
	id := primitive.NewObjectID()
	filter, ok := cursorFilter(models.SortPriceAsc, search.Cursor{Price: 15000, ID: id.Hex()})
	require.True(t, ok)
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"price.amount": bson.M{"$gt": 15000.0}},
		bson.M{"price.amount": 15000.0, "_id": bson.M{"$gt": id}},
	}}, filter)
}

func TestCursorFilterRecency(t *testing.T) {
	id := primitive.NewObjectID()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	filter, ok := cursorFilter(models.SortRecent, search.Cursor{CreatedAt: created.UnixNano(), ID: id.Hex()})
	require.True(t, ok)
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"createdAt": bson.M{"$lt": created}},
		bson.M{"createdAt": created, "_id": bson.M{"$lt": id}},
	}}, filter)
}

func TestCursorFilterRejectsBadID(t *testing.T) {
	_, ok := cursorFilter(models.SortPriceAsc, search.Cursor{Price: 1, ID: "not-an-object-id"})
	assert.False(t, ok)
}

func TestNextCursorRoundTrips(t *testing.T) {
	last := models.Property{
		ID:        primitive.NewObjectID(),
		Price:     models.PropertyPrice{Amount: 18000},
		CreatedAt: time.Now(),
	}
	cur, ok := search.DecodeCursor(nextCursor(models.SortPriceAsc, last))
	require.True(t, ok)
	assert.Equal(t, models.SortPriceAsc, cur.Sort)
	assert.Equal(t, 18000.0, cur.Price)
	assert.Equal(t, last.ID.Hex(), cur.ID)
}

func TestBoundsPolygonClosesRing(t *testing.T) {
	ring := boundsPolygon(models.MapBounds{North: 15, South: 14, East: -87, West: -88})
	require.Len(t, ring, 1)
	coords := ring[0].(bson.A)
	require.Len(t, coords, 5)
	assert.Equal(t, coords[0], coords[4], "polygon ring must close on its first vertex")
	assert.Equal(t, bson.A{-88.0, 14.0}, coords[0])
	assert.Equal(t, bson.A{-87.0, 15.0}, coords[2])
}
