package search

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"PropertySearchSys/cache"
	"PropertySearchSys/models"
)

// Query routing modes produced by Compile.
const (
	ModeBounded = "bounded"
	ModeRadius  = "radius"
	ModeListing = "listing"
)

const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 20
)

// CompiledFilters is the normalized, storage-agnostic form of a search
// request: clamped ranges, deduplicated sorted sets, a routing mode and a
// canonical cache key.
type CompiledFilters struct {
	models.SearchFilters
	Mode     string
	CacheKey string
}

var validSorts = map[string]bool{
	models.SortRelevance: true,
	models.SortPriceAsc:  true,
	models.SortPriceDesc: true,
	models.SortRecent:    true,
	models.SortDistance:  true,
}

// Compile normalizes raw filters. It is a pure function: malformed values
// that can be safely corrected are clamped, and only an unknown sort mode is
// rejected. Two field-wise equal inputs always produce the same cache key,
// regardless of the order their sets were assembled in.
func Compile(f models.SearchFilters) (CompiledFilters, error) {
	cf := CompiledFilters{SearchFilters: f}

	if cf.SortBy == "" {
		cf.SortBy = models.SortRelevance
	}
	if !validSorts[cf.SortBy] {
		return CompiledFilters{}, fmt.Errorf("%w: unknown sort mode %q", models.ErrInvalidFilters, f.SortBy)
	}

	if cf.PriceMin < 0 {
		cf.PriceMin = 0
	}
	if cf.PriceMax < 0 {
		cf.PriceMax = 0
	}
	if cf.PriceMax > 0 && cf.PriceMax < cf.PriceMin {
		cf.PriceMax = cf.PriceMin
	}

	cf.Bedrooms = dedupInts(cf.Bedrooms)
	cf.Types = dedupStrings(cf.Types)
	cf.Amenities = dedupStrings(cf.Amenities)
	cf.Query = strings.TrimSpace(cf.Query)

	if cf.Limit == 0 {
		cf.Limit = DefaultLimit
	}
	if cf.Limit < MinLimit {
		cf.Limit = MinLimit
	}
	if cf.Limit > MaxLimit {
		cf.Limit = MaxLimit
	}

	// Bounds and radius are mutually exclusive triggers; when a client sends
	// both, the explicit viewport wins.
	switch {
	case cf.Bounds != nil:
		cf.Mode = ModeBounded
		cf.Center = nil
		cf.RadiusKm = 0
	case cf.Center != nil && cf.RadiusKm > 0:
		cf.Mode = ModeRadius
	default:
		cf.Mode = ModeListing
		cf.Center = nil
		cf.RadiusKm = 0
	}

	if cf.SortBy == models.SortDistance && cf.Mode != ModeRadius {
		cf.SortBy = models.SortRelevance
	}
	if cf.Mode == ModeRadius && cf.SortBy == models.SortRelevance {
		cf.SortBy = models.SortDistance
	}

	cf.CacheKey = cache.QueryKey("search", cf.keyParams())
	return cf, nil
}

// keyParams flattens every filter field into a fixed set of string
// parameters for the canonical cache key.
func (cf CompiledFilters) keyParams() map[string]string {
	params := map[string]string{
		"mode":  cf.Mode,
		"q":     strings.ToLower(cf.Query),
		"pmin":  formatFloat(cf.PriceMin),
		"pmax":  formatFloat(cf.PriceMax),
		"beds":  joinInts(cf.Bedrooms),
		"types": strings.Join(cf.Types, ","),
		"amen":  strings.Join(cf.Amenities, ","),
		"sort":  cf.SortBy,
		"cur":   cf.Cursor,
		"limit": strconv.Itoa(cf.Limit),
	}
	if cf.Bounds != nil {
		params["bounds"] = fmt.Sprintf("%s,%s,%s,%s",
			formatFloat(cf.Bounds.North), formatFloat(cf.Bounds.South),
			formatFloat(cf.Bounds.East), formatFloat(cf.Bounds.West))
	}
	if cf.Center != nil {
		params["center"] = formatFloat(cf.Center.Lat) + "," + formatFloat(cf.Center.Lng)
		params["radius"] = formatFloat(cf.RadiusKm)
	}
	return params
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func dedupInts(ns []int) []int {
	if len(ns) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(ns))
	out := make([]int, 0, len(ns))
	for _, n := range ns {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func dedupStrings(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
