package models

// Sort modes accepted by search requests.
const (
	SortRelevance = "relevancia"
	SortPriceAsc  = "precio_asc"
	SortPriceDesc = "precio_desc"
	SortRecent    = "reciente"
	SortDistance  = "distancia"
)

// MapBounds is a rectangular viewport in geographic coordinates.
// North must be greater than south; east/west are treated as opaque numbers.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// LatLng is a plain coordinate pair, used for radius search centers.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SearchFilters is the request-scoped search intent. Bounds and
// center+radius are mutually exclusive query triggers; when neither is set
// the search runs as a plain filtered listing.
type SearchFilters struct {
	Query     string     `json:"query,omitempty"`
	Bounds    *MapBounds `json:"bounds,omitempty"`
	Center    *LatLng    `json:"center,omitempty"`
	RadiusKm  float64    `json:"radiusKm,omitempty"`
	PriceMin  float64    `json:"priceMin,omitempty"`
	PriceMax  float64    `json:"priceMax,omitempty"`
	Bedrooms  []int      `json:"bedrooms,omitempty"`
	Types     []string   `json:"types,omitempty"`
	Amenities []string   `json:"amenities,omitempty"`
	SortBy    string     `json:"sortBy,omitempty"`
	Cursor    string     `json:"cursor,omitempty"`
	Limit     int        `json:"limit,omitempty"`
}

type FacetCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

type FacetSummary struct {
	Neighborhoods []FacetCount `json:"neighborhoods"`
	Types         []FacetCount `json:"types"`
	PriceBrackets []FacetCount `json:"priceBrackets"`
	Amenities     []FacetCount `json:"amenities"`
}

type SearchResults struct {
	Properties []Property    `json:"properties"`
	Total      int64         `json:"total"`
	Facets     *FacetSummary `json:"facets,omitempty"`
	NextCursor string        `json:"nextCursor,omitempty"`
}

// PropertyCluster is one map marker aggregating the properties that fall in
// a single grid cell at a given zoom level. PropertyIDs is a deterministic
// sample of member ids, bounded by configuration.
type PropertyCluster struct {
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Count       int      `json:"count"`
	MinPrice    float64  `json:"minPrice"`
	AvgPrice    float64  `json:"avgPrice"`
	MaxPrice    float64  `json:"maxPrice"`
	PropertyIDs []string `json:"propertyIds"`
}

// Suggestion kinds returned by autocomplete.
const (
	SuggestionLocation = "location"
	SuggestionProperty = "property"
	SuggestionFilter   = "filter"
)

type Suggestion struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
	Value string `json:"value"`
	Count int64  `json:"count,omitempty"`
}

// NeighborhoodCount is a neighborhood name with the number of active
// listings in it, as reported by the store's prefix match.
type NeighborhoodCount struct {
	Name  string `bson:"_id" json:"name"`
	Count int64  `bson:"count" json:"count"`
}
