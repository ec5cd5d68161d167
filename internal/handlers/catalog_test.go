package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t, unlimited())
	srv.newSession(t)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[models.HealthResponse](t, rec)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 24, resp.Diamonds)
	assert.Equal(t, 1, resp.Sessions)
}

func TestListDiamonds(t *testing.T) {
	srv := newTestServer(t, unlimited())

	tests := []struct {
		name    string
		query   string
		status  int
		total   int
		firstID string
	}{
		{name: "all", query: "", status: http.StatusOK, total: 24},
		{name: "round by price", query: "?shapes=Round&sortBy=price-desc", status: http.StatusOK, total: 4, firstID: "ED-RND-004"},
		{name: "made to order D color", query: "?availability=Made%20to%20Order&colors=D", status: http.StatusOK, total: 2},
		{name: "bad number", query: "?caratMin=abc", status: http.StatusBadRequest},
		{name: "unknown shape", query: "?shapes=Hexagon", status: http.StatusBadRequest},
		{name: "inverted carat range", query: "?caratMin=3&caratMax=1", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, "/v1/catalog"+tt.query, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			if tt.status != http.StatusOK {
				assert.Equal(t, models.CodeBadRequest, decode[models.ErrorResponse](t, rec).Code)
				return
			}
			resp := decode[models.CatalogResponse](t, rec)
			assert.Equal(t, tt.total, resp.Total)
			assert.Len(t, resp.Items, tt.total)
			if tt.firstID != "" {
				assert.Equal(t, tt.firstID, resp.Items[0].ID)
			}
		})
	}
}

func TestFacets(t *testing.T) {
	srv := newTestServer(t, unlimited())

	rec := srv.do(t, http.MethodGet, "/v1/catalog/facets", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[models.FacetsResponse](t, rec)
	assert.Equal(t, 24, resp.Total)
	assert.Equal(t, 4, resp.Facets["shape"]["Round"])
	assert.Equal(t, 8, resp.Facets["availability"]["Made to Order"])
}

func TestGetDiamond(t *testing.T) {
	srv := newTestServer(t, unlimited())

	rec := srv.do(t, http.MethodGet, "/v1/catalog/diamonds/ED-OVL-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.ShapeOval, decode[catalog.Diamond](t, rec).Shape)

	rec = srv.do(t, http.MethodGet, "/v1/catalog/diamonds/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, rec).Code)
}

func TestListCertificates(t *testing.T) {
	srv := newTestServer(t, unlimited())

	rec := srv.do(t, http.MethodGet, "/v1/catalog/certificates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.CertificatesResponse](t, rec).Items, 6)
}

func TestParseFilterQuery(t *testing.T) {
	q := url.Values{}
	q.Set("shapes", "Round, Oval,")
	q.Set("priceMax", "9000")
	q.Set("viewMode", "table")

	f, err := parseFilterQuery(q)
	require.NoError(t, err)
	assert.Equal(t, []catalog.Shape{catalog.ShapeRound, catalog.ShapeOval}, f.Shapes)
	assert.Equal(t, []catalog.Color{}, f.Colors)
	assert.Equal(t, 9000, f.PriceMax)
	assert.Equal(t, catalog.DefaultPriceMin, f.PriceMin)
	assert.Equal(t, catalog.ViewTable, f.ViewMode)
	assert.Equal(t, catalog.SortNewest, f.SortBy)

	q.Set("priceMin", "cheap")
	_, err = parseFilterQuery(q)
	assert.EqualError(t, err, "invalid priceMin parameter")
}
