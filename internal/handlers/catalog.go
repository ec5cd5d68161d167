package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/telemetry"

	"github.com/gorilla/mux"
)

// CatalogHandler serves the read-only diamond catalog
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogSvc *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalogSvc}
}

// ListDiamonds handles GET /v1/catalog - filtered and sorted diamonds
func (h *CatalogHandler) ListDiamonds(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilterQuery(r.URL.Query())
	if err != nil {
		slog.Warn("Invalid catalog query", "error", err, "remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, err.Error(), nil)
		return
	}

	items, err := h.catalog.Query(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	telemetry.SetResultCount(r.Context(), len(items))

	writeJSONResponse(w, http.StatusOK, models.CatalogResponse{
		Items:   items,
		Total:   len(items),
		Filters: f,
	})
}

// Facets handles GET /v1/catalog/facets - value counts over the filtered diamonds
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilterQuery(r.URL.Query())
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, err.Error(), nil)
		return
	}

	facets, total, err := h.catalog.Facets(r.Context(), f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.FacetsResponse{Total: total, Facets: facets})
}

// GetDiamond handles GET /v1/catalog/diamonds/{diamondId}
func (h *CatalogHandler) GetDiamond(w http.ResponseWriter, r *http.Request) {
	d, err := h.catalog.Diamond(mux.Vars(r)["diamondId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, d)
}

// ListCertificates handles GET /v1/catalog/certificates
func (h *CatalogHandler) ListCertificates(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.CertificatesResponse{Items: h.catalog.Certificates()})
}

// parseFilterQuery builds a filter set from the query string. Absent
// parameters keep their default; list parameters are comma separated.
func parseFilterQuery(q url.Values) (catalog.FilterSet, error) {
	f := catalog.DefaultFilters()

	f.Shapes = splitList[catalog.Shape](q.Get("shapes"))
	f.Colors = splitList[catalog.Color](q.Get("colors"))
	f.Clarities = splitList[catalog.Clarity](q.Get("clarities"))
	f.Cuts = splitList[catalog.Cut](q.Get("cuts"))
	f.CertTypes = splitList[catalog.CertType](q.Get("certTypes"))
	f.Availability = splitList[catalog.Availability](q.Get("availability"))

	var err error
	if f.CaratMin, err = parseFloatParam(q, "caratMin", f.CaratMin); err != nil {
		return f, err
	}
	if f.CaratMax, err = parseFloatParam(q, "caratMax", f.CaratMax); err != nil {
		return f, err
	}
	if f.PriceMin, err = parseIntParam(q, "priceMin", f.PriceMin); err != nil {
		return f, err
	}
	if f.PriceMax, err = parseIntParam(q, "priceMax", f.PriceMax); err != nil {
		return f, err
	}
	if v := q.Get("sortBy"); v != "" {
		f.SortBy = catalog.SortKey(v)
	}
	if v := q.Get("viewMode"); v != "" {
		f.ViewMode = catalog.ViewMode(v)
	}
	return f, nil
}

func splitList[T ~string](raw string) []T {
	out := []T{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}

func parseFloatParam(q url.Values, name string, def float64) (float64, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

func parseIntParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}
