package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PropertySearchSys/models"
)

func TestCompileCacheKeyStableAcrossFieldOrder(t *testing.T) {
	a, err := Compile(models.SearchFilters{
		Bedrooms:  []int{3, 2, 2},
		Types:     []string{"house", "apartment"},
		Amenities: []string{"parking", "pool"},
		PriceMin:  10000,
		PriceMax:  20000,
	})
	require.NoError(t, err)

	b, err := Compile(models.SearchFilters{
		Bedrooms:  []int{2, 3},
		Types:     []string{"apartment", "house", "apartment"},
		Amenities: []string{"pool", "parking"},
		PriceMin:  10000,
		PriceMax:  20000,
	})
	require.NoError(t, err)

	assert.Equal(t, a.CacheKey, b.CacheKey)
}

func TestCompileKeyChangesWithFilters(t *testing.T) {
	a, err := Compile(models.SearchFilters{Query: "centro"})
	require.NoError(t, err)
	b, err := Compile(models.SearchFilters{Query: "centro", PriceMax: 15000})
	require.NoError(t, err)
	assert.NotEqual(t, a.CacheKey, b.CacheKey)
}

func TestCompileClampsPrices(t *testing.T) {
	cf, err := Compile(models.SearchFilters{PriceMin: 20000, PriceMax: 10000})
	require.NoError(t, err)
	assert.Equal(t, float64(20000), cf.PriceMin)
	assert.Equal(t, float64(20000), cf.PriceMax, "ceiling below floor clamps to floor")

	cf, err = Compile(models.SearchFilters{PriceMin: -5, PriceMax: -1})
	require.NoError(t, err)
	assert.Zero(t, cf.PriceMin)
	assert.Zero(t, cf.PriceMax)
}

func TestCompileClampsLimit(t *testing.T) {
	cf, err := Compile(models.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, cf.Limit)

	cf, err = Compile(models.SearchFilters{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxLimit, cf.Limit)

	cf, err = Compile(models.SearchFilters{Limit: -3})
	require.NoError(t, err)
	assert.Equal(t, MinLimit, cf.Limit)
}

func TestCompileDeduplicatesAndSortsSets(t *testing.T) {
	cf, err := Compile(models.SearchFilters{
		Bedrooms:  []int{3, 1, 3, 2},
		Types:     []string{"house", "apartment", "house"},
		Amenities: []string{" pool ", "", "parking", "pool"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, cf.Bedrooms)
	assert.Equal(t, []string{"apartment", "house"}, cf.Types)
	assert.Equal(t, []string{"parking", "pool"}, cf.Amenities)
}

func TestCompileRoutingModes(t *testing.T) {
	cf, err := Compile(models.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, ModeListing, cf.Mode)

	cf, err = Compile(models.SearchFilters{
		Bounds: &models.MapBounds{North: 15, South: 14, East: -87, West: -88},
	})
	require.NoError(t, err)
	assert.Equal(t, ModeBounded, cf.Mode)

	cf, err = Compile(models.SearchFilters{
		Center:   &models.LatLng{Lat: 14.1, Lng: -87.2},
		RadiusKm: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeRadius, cf.Mode)
}

func TestCompileBoundsWinOverRadius(t *testing.T) {
	cf, err := Compile(models.SearchFilters{
		Bounds:   &models.MapBounds{North: 15, South: 14, East: -87, West: -88},
		Center:   &models.LatLng{Lat: 14.1, Lng: -87.2},
		RadiusKm: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, ModeBounded, cf.Mode)
	assert.Nil(t, cf.Center)
	assert.Zero(t, cf.RadiusKm)
}

func TestCompileSortModes(t *testing.T) {
	cf, err := Compile(models.SearchFilters{})
	require.NoError(t, err)
	assert.Equal(t, models.SortRelevance, cf.SortBy)

	_, err = Compile(models.SearchFilters{SortBy: "cheapest"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidFilters)

	// Distance sort is only meaningful in radius mode.
	cf, err = Compile(models.SearchFilters{SortBy: models.SortDistance})
	require.NoError(t, err)
	assert.Equal(t, models.SortRelevance, cf.SortBy)

	cf, err = Compile(models.SearchFilters{
		Center:   &models.LatLng{Lat: 14.1, Lng: -87.2},
		RadiusKm: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SortDistance, cf.SortBy, "radius mode defaults to distance ordering")
}
