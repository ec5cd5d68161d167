package services

import (
	"context"
	"testing"

	"diamond-catalog-api/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCatalogService_QueryMemoised tests that repeated queries hit the memo
func TestCatalogService_QueryMemoised(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f := catalog.DefaultFilters()
	f.Shapes = []catalog.Shape{catalog.ShapeRound}
	f.SortBy = catalog.SortPriceDesc

	first, err := env.catalog.Query(ctx, f)
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, "ED-RND-004", first[0].ID)

	// mutating the returned slice must not leak into the memo
	first[0] = catalog.Diamond{}

	// view mode does not affect the memo key
	g := f.Clone()
	g.ViewMode = catalog.ViewTable
	second, err := env.catalog.Query(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, "ED-RND-004", second[0].ID)
	assert.Equal(t, 1, env.catalog.CacheStats().ActiveEntries)
}

// TestCatalogService_QueryMemoBounded tests that distinct filter sets cannot grow the memo past its cap
func TestCatalogService_QueryMemoBounded(t *testing.T) {
	env := newTestEnv(t)
	cfg := testConfig()
	cfg.QueryCacheMaxEntries = "3"

	cat, err := catalog.Load("../../data/catalog.yaml")
	require.NoError(t, err)
	svc := NewCatalogService(cat, cfg, env.clock, nil)
	t.Cleanup(svc.Stop)

	for priceMin := 0; priceMin < 10; priceMin++ {
		f := catalog.DefaultFilters()
		f.PriceMin = priceMin * 100
		_, err := svc.Query(context.Background(), f)
		require.NoError(t, err)
	}

	stats := svc.CacheStats()
	assert.Equal(t, 3, stats.TotalEntries)
	assert.Equal(t, 3, stats.ActiveEntries)
}

func TestCatalogService_QueryInvalid(t *testing.T) {
	env := newTestEnv(t)

	f := catalog.DefaultFilters()
	f.CaratMin, f.CaratMax = 3, 1

	_, err := env.catalog.Query(context.Background(), f)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCatalogService_Facets(t *testing.T) {
	env := newTestEnv(t)

	facets, total, err := env.catalog.Facets(context.Background(), catalog.DefaultFilters())
	require.NoError(t, err)

	assert.Equal(t, 24, total)
	assert.Equal(t, 4, facets[FacetShape]["Round"])
	assert.Equal(t, 8, facets[FacetAvailability]["Made to Order"])
	assert.Equal(t, 16, facets[FacetAvailability]["In Stock"])

	f := catalog.DefaultFilters()
	f.Availability = []catalog.Availability{catalog.MadeToOrder}
	f.Colors = []catalog.Color{"D"}
	facets, total, err = env.catalog.Facets(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, map[string]int{"D": 2}, facets[FacetColor])
}

func TestCatalogService_Lookups(t *testing.T) {
	env := newTestEnv(t)

	d, err := env.catalog.Diamond("ED-OVL-001")
	require.NoError(t, err)
	assert.Equal(t, catalog.ShapeOval, d.Shape)

	_, err = env.catalog.Diamond("nope")
	assert.ErrorIs(t, err, catalog.ErrDiamondNotFound)

	assert.Len(t, env.catalog.Certificates(), 6)
	_, err = env.catalog.Certificate(99)
	assert.ErrorIs(t, err, catalog.ErrCertificateNotFound)
}
