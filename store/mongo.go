package store

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"PropertySearchSys/config"
	"PropertySearchSys/models"
	"PropertySearchSys/search"
)

// Mongo is the geo-capable property store. It implements search.Querier for
// the discovery read paths and engagement.Store for counters, favorites and
// contact events.
type Mongo struct {
	properties *mongo.Collection
	favorites  *mongo.Collection
	contacts   *mongo.Collection
}

func NewMongo(db *mongo.Database, cfg config.Config) *Mongo {
	return &Mongo{
		properties: db.Collection(cfg.MongoColl.Properties),
		favorites:  db.Collection(cfg.MongoColl.Favorites),
		contacts:   db.Collection(cfg.MongoColl.Contacts),
	}
}

// EnsureIndexes creates the indexes the query shapes rely on: the 2dsphere
// geo index, the unique favorite link and the two sort-key indexes.
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.properties.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location.geo", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "price.amount", Value: 1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "location.neighborhood", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("property indexes: %w", err)
	}

	_, err = m.favorites.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "propertyId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("favorite index: %w", err)
	}

	_, err = m.contacts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "propertyId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("contact index: %w", err)
	}
	return nil
}

// buildFilter translates the non-geo predicates of compiled filters into a
// bson filter document.
func buildFilter(cf search.CompiledFilters) bson.M {
	filter := bson.M{}

	price := bson.M{}
	if cf.PriceMin > 0 {
		price["$gte"] = cf.PriceMin
	}
	if cf.PriceMax > 0 {
		price["$lte"] = cf.PriceMax
	}
	if len(price) > 0 {
		filter["price.amount"] = price
	}

	if len(cf.Bedrooms) > 0 {
		filter["bedrooms"] = bson.M{"$in": cf.Bedrooms}
	}
	if len(cf.Types) > 0 {
		filter["type"] = bson.M{"$in": cf.Types}
	}
	if len(cf.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": cf.Amenities}
	}

	if cf.Query != "" {
		pattern := regexp.QuoteMeta(cf.Query)
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"location.neighborhood": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"location.address": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}

// sortSpec returns the sort document for a listing query. Every mode
// carries _id as a tiebreaker so cursor pagination never skips or repeats
// a record that existed when the first page was fetched.
func sortSpec(sortBy string) bson.D {
	switch sortBy {
	case models.SortPriceAsc:
		return bson.D{{Key: "price.amount", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriceDesc:
		return bson.D{{Key: "price.amount", Value: -1}, {Key: "_id", Value: -1}}
	default:
		// reciente and relevancia both order by creation time descending;
		// this keeps relevancia stable across identical requests.
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
	}
}

// cursorFilter builds the range predicate that resumes a listing query
// after the cursor position: strictly past the last sort key, or equal to
// it with a strictly past id.
func cursorFilter(sortBy string, cur search.Cursor) (bson.M, bool) {
	id, err := primitive.ObjectIDFromHex(cur.ID)
	if err != nil {
		return nil, false
	}
	switch sortBy {
	case models.SortPriceAsc:
		return bson.M{"$or": bson.A{
			bson.M{"price.amount": bson.M{"$gt": cur.Price}},
			bson.M{"price.amount": cur.Price, "_id": bson.M{"$gt": id}},
		}}, true
	case models.SortPriceDesc:
		return bson.M{"$or": bson.A{
			bson.M{"price.amount": bson.M{"$lt": cur.Price}},
			bson.M{"price.amount": cur.Price, "_id": bson.M{"$lt": id}},
		}}, true
	default:
		created := time.Unix(0, cur.CreatedAt).UTC()
		return bson.M{"$or": bson.A{
			bson.M{"createdAt": bson.M{"$lt": created}},
			bson.M{"createdAt": created, "_id": bson.M{"$lt": id}},
		}}, true
	}
}

// nextCursor issues the cursor for the page after last. Only called when a
// page came back full.
func nextCursor(sortBy string, last models.Property) string {
	cur := search.Cursor{Sort: sortBy, ID: last.ID.Hex()}
	switch sortBy {
	case models.SortPriceAsc, models.SortPriceDesc:
		cur.Price = last.Price.Amount
	default:
		cur.CreatedAt = last.CreatedAt.UnixNano()
	}
	return search.EncodeCursor(cur)
}

// Listing runs the plain filtered and sorted query with cursor pagination.
func (m *Mongo) Listing(ctx context.Context, cf search.CompiledFilters) (*models.SearchResults, error) {
	filter := buildFilter(cf)

	total, err := m.properties.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count properties: %w", err)
	}

	// A cursor a client mangled, or one issued under another sort mode,
	// fails closed to the start of the result set.
	if cur, ok := search.DecodeCursor(cf.Cursor); ok && cur.Sort == cf.SortBy {
		if rangeFilter, ok := cursorFilter(cf.SortBy, cur); ok {
			filter = bson.M{"$and": bson.A{filter, rangeFilter}}
		}
	}

	opts := options.Find().SetSort(sortSpec(cf.SortBy)).SetLimit(int64(cf.Limit))
	cursor, err := m.properties.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find properties: %w", err)
	}
	defer cursor.Close(ctx)

	var props []models.Property
	if err := cursor.All(ctx, &props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}

	results := &models.SearchResults{Properties: props, Total: total}
	if len(props) == cf.Limit {
		results.NextCursor = nextCursor(cf.SortBy, props[len(props)-1])
	}
	return results, nil
}

// boundsPolygon closes the viewport rectangle into a GeoJSON ring,
// counterclockwise from the south-west corner.
func boundsPolygon(b models.MapBounds) bson.A {
	return bson.A{bson.A{
		bson.A{b.West, b.South},
		bson.A{b.East, b.South},
		bson.A{b.East, b.North},
		bson.A{b.West, b.North},
		bson.A{b.West, b.South},
	}}
}

// InBounds fetches the properties whose coordinates fall inside the
// viewport, restricted by the non-geo filters. No distance is computed.
func (m *Mongo) InBounds(ctx context.Context, cf search.CompiledFilters) ([]models.Property, error) {
	if cf.Bounds == nil {
		return nil, fmt.Errorf("bounded query without bounds")
	}
	filter := buildFilter(cf)
	filter["location.geo"] = bson.M{"$geoWithin": bson.M{"$geometry": bson.M{
		"type":        "Polygon",
		"coordinates": boundsPolygon(*cf.Bounds),
	}}}

	opts := options.Find().SetSort(sortSpec(cf.SortBy)).SetLimit(int64(cf.Limit))
	cursor, err := m.properties.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("bounds query: %w", err)
	}
	defer cursor.Close(ctx)

	var props []models.Property
	if err := cursor.All(ctx, &props); err != nil {
		return nil, fmt.Errorf("decode bounds results: %w", err)
	}
	return props, nil
}

// WithinRadius fetches the properties within RadiusKm of the center,
// nearest first, with the computed distance mapped onto each result in
// kilometers at one decimal place.
func (m *Mongo) WithinRadius(ctx context.Context, cf search.CompiledFilters) ([]models.Property, error) {
	if cf.Center == nil {
		return nil, fmt.Errorf("radius query without center")
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$geoNear", Value: bson.M{
			"near":               models.NewGeoPoint(cf.Center.Lat, cf.Center.Lng),
			"distanceField":      "distanceKm",
			"maxDistance":        cf.RadiusKm * 1000,
			"distanceMultiplier": 0.001,
			"spherical":          true,
			"query":              buildFilter(cf),
		}}},
		bson.D{{Key: "$limit", Value: int64(cf.Limit)}},
	}

	cursor, err := m.properties.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("radius query: %w", err)
	}
	defer cursor.Close(ctx)

	var props []models.Property
	if err := cursor.All(ctx, &props); err != nil {
		return nil, fmt.Errorf("decode radius results: %w", err)
	}
	for i := range props {
		if props[i].DistanceKm != nil {
			rounded := math.Round(*props[i].DistanceKm*10) / 10
			props[i].DistanceKm = &rounded
		}
	}
	return props, nil
}

// priceBracketBoundaries delimit the facet price brackets, in listing
// currency units per month.
var priceBracketBoundaries = []interface{}{0.0, 5000.0, 10000.0, 20000.0, 40000.0}

// Facets computes the per-dimension counts of the matching set in one
// $facet aggregation.
func (m *Mongo) Facets(ctx context.Context, cf search.CompiledFilters) (*models.FacetSummary, error) {
	countGroup := func(field string) bson.A {
		return bson.A{
			bson.M{"$group": bson.M{"_id": field, "count": bson.M{"$sum": 1}}},
			bson.M{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
			bson.M{"$limit": 20},
		}
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: buildFilter(cf)}},
		bson.D{{Key: "$facet", Value: bson.M{
			"neighborhoods": countGroup("$location.neighborhood"),
			"types":         countGroup("$type"),
			"priceBrackets": bson.A{bson.M{"$bucket": bson.M{
				"groupBy":    "$price.amount",
				"boundaries": priceBracketBoundaries,
				"default":    "40000+",
				"output":     bson.M{"count": bson.M{"$sum": 1}},
			}}},
			"amenities": append(bson.A{bson.M{"$unwind": "$amenities"}}, countGroup("$amenities")...),
		}}},
	}

	cursor, err := m.properties.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("facet query: %w", err)
	}
	defer cursor.Close(ctx)

	var raw []struct {
		Neighborhoods []facetRow `bson:"neighborhoods"`
		Types         []facetRow `bson:"types"`
		PriceBrackets []facetRow `bson:"priceBrackets"`
		Amenities     []facetRow `bson:"amenities"`
	}
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode facets: %w", err)
	}
	if len(raw) == 0 {
		return &models.FacetSummary{}, nil
	}
	return &models.FacetSummary{
		Neighborhoods: facetCounts(raw[0].Neighborhoods),
		Types:         facetCounts(raw[0].Types),
		PriceBrackets: facetCounts(raw[0].PriceBrackets),
		Amenities:     facetCounts(raw[0].Amenities),
	}, nil
}

type facetRow struct {
	Value interface{} `bson:"_id"`
	Count int64       `bson:"count"`
}

func facetCounts(rows []facetRow) []models.FacetCount {
	out := make([]models.FacetCount, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.FacetCount{Value: fmt.Sprintf("%v", r.Value), Count: r.Count})
	}
	return out
}

// GetProperty looks a listing up by hex id. Unknown and malformed ids are
// both ErrNotFound; only infrastructure failures are reported as errors.
func (m *Mongo) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	var prop models.Property
	if err := m.properties.FindOne(ctx, bson.M{"_id": oid}).Decode(&prop); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("fetch property: %w", err)
	}
	return &prop, nil
}

// Neighborhoods matches neighborhood names by case-insensitive substring
// and returns them with their listing counts, most listings first.
func (m *Mongo) Neighborhoods(ctx context.Context, term string, limit int) ([]models.NeighborhoodCount, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"location.neighborhood": bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"},
		}}},
		bson.D{{Key: "$group", Value: bson.M{"_id": "$location.neighborhood", "count": bson.M{"$sum": 1}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
	}
	cursor, err := m.properties.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("neighborhood query: %w", err)
	}
	defer cursor.Close(ctx)

	var hoods []models.NeighborhoodCount
	if err := cursor.All(ctx, &hoods); err != nil {
		return nil, fmt.Errorf("decode neighborhoods: %w", err)
	}
	return hoods, nil
}
