package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"PropertySearchSys/cache"
	"PropertySearchSys/config"
	"PropertySearchSys/models"
)

// Querier is the external geo-capable property store. Implemented by the
// mongo store in production and by fakes in tests.
type Querier interface {
	Listing(ctx context.Context, cf CompiledFilters) (*models.SearchResults, error)
	InBounds(ctx context.Context, cf CompiledFilters) ([]models.Property, error)
	WithinRadius(ctx context.Context, cf CompiledFilters) ([]models.Property, error)
	Facets(ctx context.Context, cf CompiledFilters) (*models.FacetSummary, error)
	GetProperty(ctx context.Context, id string) (*models.Property, error)
	Neighborhoods(ctx context.Context, term string, limit int) ([]models.NeighborhoodCount, error)
}

// ResultCache is the TTL cache in front of the expensive read paths.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service orchestrates property discovery: it compiles filters, consults
// the cache, dispatches one of the three query shapes and post-processes
// map results into clusters.
type Service struct {
	store   Querier
	cache   ResultCache
	ttl     config.CacheTTLs
	timeout time.Duration

	cluster      ClusterConfig
	clusterFetch int64

	acMinLen int
	acMax    int
}

func NewService(store Querier, cache ResultCache, cfg config.Config) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		ttl:     cfg.TTL,
		timeout: cfg.QueryTimeout,
		cluster: ClusterConfig{
			BaseCellDeg:  cfg.ClusterBaseCellDeg,
			MinCellDeg:   cfg.ClusterMinCellDeg,
			MaxSampleIDs: cfg.ClusterMaxSample,
		},
		clusterFetch: cfg.ClusterFetchLimit,
		acMinLen:     cfg.AutocompleteMinLen,
		acMax:        cfg.AutocompleteMax,
	}
}

// Search runs the full discovery pipeline. A store failure surfaces as
// ErrSearchUnavailable and is never masked as an empty result set; facet
// failures degrade to a nil facet summary.
func (s *Service) Search(ctx context.Context, filters models.SearchFilters) (*models.SearchResults, error) {
	cf, err := Compile(filters)
	if err != nil {
		return nil, err
	}

	var cached models.SearchResults
	if hit, err := s.cache.Get(ctx, cf.CacheKey, &cached); err == nil && hit {
		return &cached, nil
	} else if err != nil {
		log.Printf("search: cache read failed for %s: %v", cf.CacheKey, err)
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.dispatch(qctx, cf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchUnavailable, err)
	}

	results.Facets = s.facets(ctx, cf)
	s.put(ctx, cf.CacheKey, results, s.ttl.Search)
	return results, nil
}

func (s *Service) dispatch(ctx context.Context, cf CompiledFilters) (*models.SearchResults, error) {
	switch cf.Mode {
	case ModeBounded:
		props, err := s.store.InBounds(ctx, cf)
		if err != nil {
			return nil, err
		}
		return &models.SearchResults{Properties: props, Total: int64(len(props))}, nil
	case ModeRadius:
		props, err := s.store.WithinRadius(ctx, cf)
		if err != nil {
			return nil, err
		}
		return &models.SearchResults{Properties: props, Total: int64(len(props))}, nil
	default:
		return s.store.Listing(ctx, cf)
	}
}

// facets fetches the facet summary under its own cache and TTL. Facets are
// a non-critical enhancement: any failure degrades to nil.
func (s *Service) facets(ctx context.Context, cf CompiledFilters) *models.FacetSummary {
	// The facet breakdown is page-independent, so the key ignores the cursor.
	base := cf
	base.Cursor = ""
	key := cache.QueryKey("facets", base.keyParams())

	var cached models.FacetSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	facets, err := s.store.Facets(qctx, cf)
	if err != nil {
		log.Printf("search: facet query failed: %v", err)
		return nil
	}
	s.put(ctx, key, facets, s.ttl.Facets)
	return facets
}

// GetProperty fetches a single listing through the detail cache. An unknown
// id is ErrNotFound; a store failure is ErrSearchUnavailable.
func (s *Service) GetProperty(ctx context.Context, id string) (*models.Property, error) {
	key := "property:" + id
	var cached models.Property
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	prop, err := s.store.GetProperty(qctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrSearchUnavailable, err)
	}
	s.put(ctx, key, prop, s.ttl.Detail)
	return prop, nil
}

// PropertiesInBounds returns the geolocated properties inside the viewport,
// further restricted by the optional non-geo filters.
func (s *Service) PropertiesInBounds(ctx context.Context, bounds models.MapBounds, filters models.SearchFilters, limit int) ([]models.Property, error) {
	filters.Bounds = &bounds
	filters.Limit = limit
	cf, err := Compile(filters)
	if err != nil {
		return nil, err
	}
	key := "bounds:" + cf.CacheKey[len("search:"):]

	var cached []models.Property
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	props, err := s.store.InBounds(qctx, cf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchUnavailable, err)
	}
	s.put(ctx, key, props, s.ttl.Bounds)
	return props, nil
}

// ClusterProperties aggregates the viewport's matches into grid clusters
// for the given zoom level.
func (s *Service) ClusterProperties(ctx context.Context, bounds models.MapBounds, zoom int, filters models.SearchFilters) ([]models.PropertyCluster, error) {
	filters.Bounds = &bounds
	filters.Limit = MaxLimit
	cf, err := Compile(filters)
	if err != nil {
		return nil, err
	}
	key := "clusters:" + cf.CacheKey[len("search:"):] + ":z" + strconv.Itoa(zoom)

	var cached []models.PropertyCluster
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	// Clustering wants density, not a page: fetch up to the configured cap.
	cf.Limit = int(s.clusterFetch)

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	props, err := s.store.InBounds(qctx, cf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSearchUnavailable, err)
	}

	clusters := ClusterProperties(props, bounds, zoom, s.cluster)
	s.put(ctx, key, clusters, s.ttl.Clusters)
	return clusters, nil
}

// Static filter shortcuts appended for longer queries, which tend to
// describe the property rather than a location.
var filterShortcuts = []models.Suggestion{
	{Kind: models.SuggestionFilter, Label: "Apartamentos", Value: models.PropertyTypeApartment},
	{Kind: models.SuggestionFilter, Label: "Casas", Value: models.PropertyTypeHouse},
	{Kind: models.SuggestionFilter, Label: "Habitaciones", Value: models.PropertyTypeRoom},
	{Kind: models.SuggestionFilter, Label: "Oficinas", Value: models.PropertyTypeOffice},
}

const filterShortcutMinLen = 8

// Autocomplete returns ranked suggestions for a partial query. It never
// fails: autocomplete must not block typing, so any store error degrades to
// an empty list.
func (s *Service) Autocomplete(ctx context.Context, query string) []models.Suggestion {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < s.acMinLen {
		return []models.Suggestion{}
	}

	key := cache.QueryKey("autocomplete", map[string]string{"q": strings.ToLower(query)})
	var cached []models.Suggestion
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached
	}

	qctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	hoods, err := s.store.Neighborhoods(qctx, query, s.acMax)
	if err != nil {
		log.Printf("search: autocomplete query failed: %v", err)
		return []models.Suggestion{}
	}

	suggestions := make([]models.Suggestion, 0, s.acMax)
	for _, h := range hoods {
		suggestions = append(suggestions, models.Suggestion{
			Kind:  models.SuggestionLocation,
			Label: h.Name,
			Value: h.Name,
			Count: h.Count,
		})
	}
	if len([]rune(query)) >= filterShortcutMinLen {
		suggestions = append(suggestions, filterShortcuts...)
	}
	if len(suggestions) > s.acMax {
		suggestions = suggestions[:s.acMax]
	}

	s.put(ctx, key, suggestions, s.ttl.Autocomplete)
	return suggestions
}

// put writes through the cache. The write is detached from the caller's
// cancellation: a result computed for an abandoned request is still valid
// for the next identical one. Failures are logged, never propagated.
func (s *Service) put(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := s.cache.Set(context.WithoutCancel(ctx), key, value, ttl); err != nil {
		log.Printf("search: cache write failed for %s: %v", key, err)
	}
}
