package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PropertyTypeApartment = "apartment"
	PropertyTypeHouse     = "house"
	PropertyTypeRoom      = "room"
	PropertyTypeOffice    = "office"
)

// PropertyTypes lists every valid listing type, in a fixed order.
var PropertyTypes = []string{
	PropertyTypeApartment,
	PropertyTypeHouse,
	PropertyTypeRoom,
	PropertyTypeOffice,
}

// GeoPoint is a GeoJSON point. Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (g GeoPoint) Lat() float64 {
	if len(g.Coordinates) < 2 {
		return 0
	}
	return g.Coordinates[1]
}

func (g GeoPoint) Lng() float64 {
	if len(g.Coordinates) < 1 {
		return 0
	}
	return g.Coordinates[0]
}

type PropertyLocation struct {
	Address      string   `bson:"address" json:"address"`
	Neighborhood string   `bson:"neighborhood" json:"neighborhood"`
	City         string   `bson:"city" json:"city"`
	Geo          GeoPoint `bson:"geo" json:"geo"`
}

type PropertyPrice struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency" json:"currency"`
	Period   string  `bson:"period" json:"period"` // e.g. "month"
}

type PropertyImage struct {
	URL       string `bson:"url" json:"url"`
	Order     int    `bson:"order" json:"order"`
	IsPrimary bool   `bson:"isPrimary" json:"isPrimary"`
}

// PropertyCounters holds the denormalized engagement counters. They are
// mutated only through atomic increments in the store, never read-modify-write.
type PropertyCounters struct {
	Views     int64 `bson:"views" json:"views"`
	Favorites int64 `bson:"favorites" json:"favorites"`
	Contacts  int64 `bson:"contacts" json:"contacts"`
}

type Property struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Type        string             `bson:"type" json:"type"`
	Location    PropertyLocation   `bson:"location" json:"location"`
	Price       PropertyPrice      `bson:"price" json:"price"`
	Bedrooms    int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms   int                `bson:"bathrooms" json:"bathrooms"`
	AreaSqM     float64            `bson:"areaSqM" json:"areaSqM"`
	Amenities   []string           `bson:"amenities" json:"amenities"`
	Images      []PropertyImage    `bson:"images" json:"images"`
	LandlordID  primitive.ObjectID `bson:"landlordId" json:"landlordId"`
	Counters    PropertyCounters   `bson:"counters" json:"counters"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// DistanceKm is computed by radius queries and is never stored.
	DistanceKm *float64 `bson:"distanceKm,omitempty" json:"distanceKm,omitempty"`
}

// PrimaryImage returns the image marked primary, falling back to the first
// image when none is marked. Nil when the property has no images.
func (p *Property) PrimaryImage() *PropertyImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	if len(p.Images) > 0 {
		return &p.Images[0]
	}
	return nil
}
