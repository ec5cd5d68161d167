package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"diamond-catalog-api/internal/cache"
	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/config"
	"diamond-catalog-api/internal/telemetry"
)

// ErrInvalidQuery is returned when a catalog query carries an invalid filter set
var ErrInvalidQuery = errors.New("invalid catalog query")

// Facet names returned by Facets
const (
	FacetShape        = "shape"
	FacetColor        = "color"
	FacetClarity      = "clarity"
	FacetCut          = "cut"
	FacetCertType     = "certType"
	FacetAvailability = "availability"
)

// CatalogService serves catalog reads and memoises query results
type CatalogService struct {
	catalog   *catalog.Catalog
	results   *cache.TTLCache[string, []catalog.Diamond]
	telemetry *telemetry.ApiTelemetry
	logger    *slog.Logger
}

// NewCatalogService wraps cat with a query memo whose lifetime is
// QUERY_CACHE_TTL, holding at most QUERY_CACHE_MAX_ENTRIES filter sets
func NewCatalogService(cat *catalog.Catalog, cfg *config.Config, clk clock.Clock, tel *telemetry.ApiTelemetry) *CatalogService {
	ttl := config.Duration("QUERY_CACHE_TTL", cfg.QueryCacheTTL, 5*time.Minute)
	maxEntries := config.Int("QUERY_CACHE_MAX_ENTRIES", cfg.QueryCacheMaxEntries, 256)

	s := &CatalogService{
		catalog: cat,
		results: cache.New[string, []catalog.Diamond](cache.Config{
			TTL:             ttl,
			CleanupInterval: ttl,
			Clock:           clk,
			Name:            "catalog_queries",
			MaxEntries:      maxEntries,
		}, nil),
		telemetry: tel,
		logger:    slog.Default(),
	}

	slog.Info("Catalog service initialized",
		"diamonds", cat.Len(),
		"certificates", len(cat.Certificates()),
		"query_cache_ttl", ttl.String(),
		"query_cache_max_entries", maxEntries)

	return s
}

// Query returns the diamonds matching f in f.SortBy order
func (s *CatalogService) Query(ctx context.Context, f catalog.FilterSet) ([]catalog.Diamond, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}

	key := f.Key()
	if cached, ok := s.results.Get(key); ok {
		s.telemetry.RecordCatalogQuery(ctx, string(f.SortBy), true, len(cached))
		return slices.Clone(cached), nil
	}

	result := s.catalog.Query(f)
	s.results.Set(key, result)
	s.telemetry.RecordCatalogQuery(ctx, string(f.SortBy), false, len(result))

	s.logger.Debug("Catalog query evaluated", "key", key, "results", len(result))
	return slices.Clone(result), nil
}

// Facets counts the matching diamonds per attribute value
func (s *CatalogService) Facets(ctx context.Context, f catalog.FilterSet) (map[string]map[string]int, int, error) {
	diamonds, err := s.Query(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	facets := map[string]map[string]int{
		FacetShape:        {},
		FacetColor:        {},
		FacetClarity:      {},
		FacetCut:          {},
		FacetCertType:     {},
		FacetAvailability: {},
	}
	for _, d := range diamonds {
		facets[FacetShape][string(d.Shape)]++
		facets[FacetColor][string(d.Color)]++
		facets[FacetClarity][string(d.Clarity)]++
		facets[FacetCut][string(d.Cut)]++
		facets[FacetCertType][string(d.CertType)]++
		facets[FacetAvailability][string(d.Availability)]++
	}
	return facets, len(diamonds), nil
}

func (s *CatalogService) Diamond(id string) (catalog.Diamond, error) {
	return s.catalog.Diamond(id)
}

func (s *CatalogService) Certificates() []catalog.Certificate {
	return s.catalog.Certificates()
}

func (s *CatalogService) Certificate(id int) (catalog.Certificate, error) {
	return s.catalog.Certificate(id)
}

// Len returns the catalog size
func (s *CatalogService) Len() int {
	return s.catalog.Len()
}

// CacheStats reports the query memo
func (s *CatalogService) CacheStats() cache.Stats {
	return s.results.Stats()
}

// Stop ends the memo cleanup
func (s *CatalogService) Stop() {
	s.results.Stop()
}
