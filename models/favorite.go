package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Favorite links a user and a property. Existence of the record is the
// favorited state: created on favorite, deleted on unfavorite, never
// updated in place. A unique index on (userId, propertyId) enforces at
// most one record per pair.
type Favorite struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	PropertyID primitive.ObjectID `bson:"propertyId" json:"propertyId"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// FavoriteItem is one entry of a user's favorites page: the property
// snapshot plus whether the user has already contacted the landlord.
type FavoriteItem struct {
	Property    Property  `json:"property"`
	FavoritedAt time.Time `json:"favoritedAt"`
	Contacted   bool      `json:"contacted"`
}
