package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"PropertySearchSys/models"
	"PropertySearchSys/search"
)

type SearchController struct {
	svc *search.Service
}

func NewSearchController(svc *search.Service) *SearchController {
	return &SearchController{svc: svc}
}

// parseFilters reads the filter set from query parameters. Set-valued
// filters arrive comma-separated; geo parameters only count when complete.
func parseFilters(c echo.Context) models.SearchFilters {
	var f models.SearchFilters
	f.Query = c.QueryParam("q")
	f.SortBy = c.QueryParam("sort_by")
	f.Cursor = c.QueryParam("cursor")

	if v := c.QueryParam("price_min"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMin = n
		}
	}
	if v := c.QueryParam("price_max"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMax = n
		}
	}
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	for _, part := range splitCSV(c.QueryParam("bedrooms")) {
		if n, err := strconv.Atoi(part); err == nil {
			f.Bedrooms = append(f.Bedrooms, n)
		}
	}
	f.Types = splitCSV(c.QueryParam("types"))
	f.Amenities = splitCSV(c.QueryParam("amenities"))

	if bounds, ok := parseBounds(c); ok {
		f.Bounds = &bounds
	}
	lat, latErr := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.QueryParam("lng"), 64)
	radius, radErr := strconv.ParseFloat(c.QueryParam("radius_km"), 64)
	if latErr == nil && lngErr == nil && radErr == nil && radius > 0 {
		f.Center = &models.LatLng{Lat: lat, Lng: lng}
		f.RadiusKm = radius
	}
	return f
}

func parseBounds(c echo.Context) (models.MapBounds, bool) {
	north, err1 := strconv.ParseFloat(c.QueryParam("north"), 64)
	south, err2 := strconv.ParseFloat(c.QueryParam("south"), 64)
	east, err3 := strconv.ParseFloat(c.QueryParam("east"), 64)
	west, err4 := strconv.ParseFloat(c.QueryParam("west"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.MapBounds{}, false
	}
	return models.MapBounds{North: north, South: south, East: east, West: west}, true
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// searchError maps the error taxonomy onto HTTP statuses. Unavailability is
// a 503 with a retry hint; it is never collapsed into an empty 200, so the
// UI can tell "try again" apart from "broaden your filters".
func searchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidFilters):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, models.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Property not found"})
	case errors.Is(err, models.ErrSearchUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "Search is temporarily unavailable, please retry",
		})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal error"})
	}
}

func (sc *SearchController) Search(c echo.Context) error {
	results, err := sc.svc.Search(c.Request().Context(), parseFilters(c))
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

func (sc *SearchController) PropertiesInBounds(c echo.Context) error {
	filters := parseFilters(c)
	if filters.Bounds == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "north, south, east and west are required",
		})
	}
	props, err := sc.svc.PropertiesInBounds(c.Request().Context(), *filters.Bounds, filters, filters.Limit)
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"properties": props})
}

func (sc *SearchController) ClusterProperties(c echo.Context) error {
	filters := parseFilters(c)
	if filters.Bounds == nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "north, south, east and west are required",
		})
	}
	zoom, err := strconv.Atoi(c.QueryParam("zoom"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "zoom is required"})
	}
	clusters, err := sc.svc.ClusterProperties(c.Request().Context(), *filters.Bounds, zoom, filters)
	if err != nil {
		return searchError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"clusters": clusters})
}

// Autocomplete never reports failure; a misbehaving store degrades to an
// empty suggestion list.
func (sc *SearchController) Autocomplete(c echo.Context) error {
	suggestions := sc.svc.Autocomplete(c.Request().Context(), c.QueryParam("q"))
	return c.JSON(http.StatusOK, map[string]interface{}{"suggestions": suggestions})
}
