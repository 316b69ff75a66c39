package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"PropertySearchSys/models"
)

// Counter fields addressable by IncrementCounter.
const (
	CounterViews     = "counters.views"
	CounterFavorites = "counters.favorites"
	CounterContacts  = "counters.contacts"
)

// IncrementCounter applies delta to one engagement counter as a single
// atomic $inc, so concurrent events on the same property never lose
// updates. Negative deltas are additionally guarded so the counter cannot
// go below zero.
func (m *Mongo) IncrementCounter(ctx context.Context, propertyID string, field string, delta int) error {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return models.ErrNotFound
	}
	filter := bson.M{"_id": oid}
	if delta < 0 {
		filter[field] = bson.M{"$gte": -delta}
	}
	res, err := m.properties.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return fmt.Errorf("increment %s: %w", field, err)
	}
	if res.MatchedCount == 0 && delta >= 0 {
		return models.ErrNotFound
	}
	return nil
}

// PropertyExists reports whether the property id addresses a real listing.
func (m *Mongo) PropertyExists(ctx context.Context, propertyID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(propertyID)
	if err != nil {
		return false, nil
	}
	count, err := m.properties.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("check property: %w", err)
	}
	return count > 0, nil
}

func (m *Mongo) FavoriteExists(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	count, err := m.favorites.CountDocuments(ctx, bson.M{"userId": userID, "propertyId": propertyID})
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return count > 0, nil
}

// InsertFavorite creates the favorite link. A concurrent duplicate trips
// the unique (userId, propertyId) index and is reported as ErrConflict.
func (m *Mongo) InsertFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) error {
	_, err := m.favorites.InsertOne(ctx, models.Favorite{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		PropertyID: propertyID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

// DeleteFavorite removes the link and reports whether a record was
// actually deleted.
func (m *Mongo) DeleteFavorite(ctx context.Context, userID, propertyID primitive.ObjectID) (bool, error) {
	res, err := m.favorites.DeleteOne(ctx, bson.M{"userId": userID, "propertyId": propertyID})
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (m *Mongo) FavoritesByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Favorite, error) {
	cursor, err := m.favorites.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("fetch favorites: %w", err)
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("decode favorites: %w", err)
	}
	return favorites, nil
}

func (m *Mongo) PropertiesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := m.properties.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("fetch properties: %w", err)
	}
	defer cursor.Close(ctx)

	var props []models.Property
	if err := cursor.All(ctx, &props); err != nil {
		return nil, fmt.Errorf("decode properties: %w", err)
	}
	return props, nil
}

// ContactedPropertyIDs returns, out of the given ids, those the user has a
// successful contact event for. One query for the whole id set, not one
// per favorite.
func (m *Mongo) ContactedPropertyIDs(ctx context.Context, userID string, propertyIDs []string) (map[string]bool, error) {
	if len(propertyIDs) == 0 {
		return map[string]bool{}, nil
	}
	values, err := m.contacts.Distinct(ctx, "propertyId", bson.M{
		"userId":     userID,
		"propertyId": bson.M{"$in": propertyIDs},
		"success":    true,
	})
	if err != nil {
		return nil, fmt.Errorf("contacted lookup: %w", err)
	}
	contacted := make(map[string]bool, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			contacted[id] = true
		}
	}
	return contacted, nil
}

func (m *Mongo) InsertContact(ctx context.Context, event models.ContactEvent) error {
	if _, err := m.contacts.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}
