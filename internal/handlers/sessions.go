package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/format"
	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/telemetry"

	"github.com/gorilla/mux"
)

// Long-poll bounds for the events endpoint
const (
	defaultEventsLimit = 100
	maxEventsLimit     = 1000
	maxWaitSeconds     = 60
)

// SessionHandler exposes the buyer session state and its UI operations
type SessionHandler struct {
	sessions *services.SessionService
	logger   *slog.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *services.SessionService, logger *slog.Logger) *SessionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{sessions: sessionSvc, logger: logger}
}

func sessionID(r *http.Request) string {
	return mux.Vars(r)["sessionId"]
}

// CreateSession handles POST /v1/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.CreateSession(r.Context())
	h.logger.Info("Session created", "session_id", sess.ID, "remote_addr", r.RemoteAddr)

	writeJSONResponse(w, http.StatusCreated, models.SessionResponse{
		SessionID: sess.ID,
		Snapshot:  models.NewSnapshotResponse(sess.Store.Snapshot()),
	})
}

// GetSession handles GET /v1/sessions/{sessionId}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	snap, err := h.sessions.Snapshot(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SessionResponse{
		SessionID: id,
		Snapshot:  models.NewSnapshotResponse(snap),
	})
}

// DeleteSession handles DELETE /v1/sessions/{sessionId}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(sessionID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Results handles GET /v1/sessions/{sessionId}/results
func (h *SessionHandler) Results(w http.ResponseWriter, r *http.Request) {
	items, filters, err := h.sessions.Results(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	telemetry.SetResultCount(r.Context(), len(items))

	writeJSONResponse(w, http.StatusOK, models.CatalogResponse{
		Items:   items,
		Total:   len(items),
		Filters: filters,
	})
}

// GetEvents handles GET /v1/sessions/{sessionId}/events
func (h *SessionHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var offset int64
	if offsetStr := query.Get("offset"); offsetStr != "" {
		parsed, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil || parsed < 0 {
			writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "invalid offset parameter", nil)
			return
		}
		offset = parsed
	}

	limit := defaultEventsLimit
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= maxEventsLimit {
			limit = parsedLimit
		}
	}

	waitSeconds := 0
	if waitStr := query.Get("wait"); waitStr != "" {
		if parsedWait, err := strconv.Atoi(waitStr); err == nil && parsedWait >= 0 && parsedWait <= maxWaitSeconds {
			waitSeconds = parsedWait
		}
	}

	h.logger.Debug("Events request received",
		"session_id", sessionID(r),
		"offset", offset,
		"limit", limit,
		"wait", waitSeconds,
	)

	evts, next, hasMore, err := h.sessions.Events(r.Context(), sessionID(r), offset, limit, time.Duration(waitSeconds)*time.Second)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Debug("Client disconnected during long polling", "session_id", sessionID(r))
			return
		}
		writeServiceError(w, r, err)
		return
	}
	telemetry.SetEventCount(r.Context(), len(evts))

	writeJSONResponse(w, http.StatusOK, models.EventsResponse{
		Events:     evts,
		NextOffset: next,
		HasMore:    hasMore,
	})
}

// AddToRFQ handles POST /v1/sessions/{sessionId}/rfq
func (h *SessionHandler) AddToRFQ(w http.ResponseWriter, r *http.Request) {
	var req models.AddToRFQRequest
	if !decodeJSON(w, r, &req, "add to RFQ") {
		return
	}
	if req.DiamondID == "" {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "diamondId is required", nil)
		return
	}

	res, err := h.sessions.AddToRFQ(r.Context(), sessionID(r), req.DiamondID, req.Quantity, req.Notes)
	h.writeMutation(w, r, res, err)
}

// UpdateRFQQuantity handles PUT /v1/sessions/{sessionId}/rfq/{diamondId}
func (h *SessionHandler) UpdateRFQQuantity(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateQuantityRequest
	if !decodeJSON(w, r, &req, "update quantity") {
		return
	}
	if req.Quantity == nil {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "quantity is required", nil)
		return
	}

	res, err := h.sessions.UpdateRFQQuantity(r.Context(), sessionID(r), mux.Vars(r)["diamondId"], *req.Quantity)
	h.writeMutation(w, r, res, err)
}

// RemoveFromRFQ handles DELETE /v1/sessions/{sessionId}/rfq/{diamondId}
func (h *SessionHandler) RemoveFromRFQ(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.RemoveFromRFQ(r.Context(), sessionID(r), mux.Vars(r)["diamondId"])
	h.writeMutation(w, r, res, err)
}

// ClearRFQ handles DELETE /v1/sessions/{sessionId}/rfq
func (h *SessionHandler) ClearRFQ(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.ClearRFQ(r.Context(), sessionID(r))
	h.writeMutation(w, r, res, err)
}

// AddToCompare handles POST /v1/sessions/{sessionId}/compare
func (h *SessionHandler) AddToCompare(w http.ResponseWriter, r *http.Request) {
	var req models.AddToCompareRequest
	if !decodeJSON(w, r, &req, "add to compare") {
		return
	}
	if req.DiamondID == "" {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "diamondId is required", nil)
		return
	}

	res, err := h.sessions.AddToCompare(r.Context(), sessionID(r), req.DiamondID)
	h.writeMutation(w, r, res, err)
}

// CompareTable handles GET /v1/sessions/{sessionId}/compare
func (h *SessionHandler) CompareTable(w http.ResponseWriter, r *http.Request) {
	rows, err := h.sessions.CompareTable(sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.CompareTableResponse{
		Fields: format.CompareFields,
		Items:  rows,
	})
}

// RemoveFromCompare handles DELETE /v1/sessions/{sessionId}/compare/{diamondId}
func (h *SessionHandler) RemoveFromCompare(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.RemoveFromCompare(r.Context(), sessionID(r), mux.Vars(r)["diamondId"])
	h.writeMutation(w, r, res, err)
}

// ClearCompare handles DELETE /v1/sessions/{sessionId}/compare
func (h *SessionHandler) ClearCompare(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.ClearCompare(r.Context(), sessionID(r))
	h.writeMutation(w, r, res, err)
}

// ConvertCompareToRFQ handles POST /v1/sessions/{sessionId}/compare/rfq
func (h *SessionHandler) ConvertCompareToRFQ(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.ConvertCompareToRFQ(r.Context(), sessionID(r))
	h.writeMutation(w, r, res, err)
}

// ShowToast handles POST /v1/sessions/{sessionId}/toasts
func (h *SessionHandler) ShowToast(w http.ResponseWriter, r *http.Request) {
	var req models.ShowToastRequest
	if !decodeJSON(w, r, &req, "show toast") {
		return
	}
	if req.Message == "" {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "message is required", nil)
		return
	}

	toast, snap, err := h.sessions.ShowToast(sessionID(r), req.Message, req.Severity, time.Duration(req.DurationMs)*time.Millisecond)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.ToastCreatedResponse{
		Toast:    models.NewToastResponse(toast),
		Snapshot: models.NewSnapshotResponse(snap),
	})
}

// DismissToast handles DELETE /v1/sessions/{sessionId}/toasts/{toastId}
func (h *SessionHandler) DismissToast(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.DismissToast(r.Context(), sessionID(r), mux.Vars(r)["toastId"])
	h.writeMutation(w, r, res, err)
}

// OpenModal handles PUT /v1/sessions/{sessionId}/modal
func (h *SessionHandler) OpenModal(w http.ResponseWriter, r *http.Request) {
	var req models.OpenModalRequest
	if !decodeJSON(w, r, &req, "open modal") {
		return
	}

	res, err := h.sessions.OpenModal(r.Context(), sessionID(r), req.Type, services.ModalRef{
		DiamondID:     req.DiamondID,
		CertificateID: req.CertificateID,
		ImageURL:      req.ImageURL,
	})
	h.writeMutation(w, r, res, err)
}

// CloseModal handles DELETE /v1/sessions/{sessionId}/modal
func (h *SessionHandler) CloseModal(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.CloseModal(r.Context(), sessionID(r))
	h.writeMutation(w, r, res, err)
}

// DownloadCertificate handles POST /v1/sessions/{sessionId}/modal/certificate/download
func (h *SessionHandler) DownloadCertificate(w http.ResponseWriter, r *http.Request) {
	cert, res, err := h.sessions.DownloadCertificate(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, models.CertificateDownloadResponse{
		Certificate: cert,
		Outcome:     res.Outcome.String(),
		Snapshot:    models.NewSnapshotResponse(res.Snapshot),
	})
}

// SetFilters handles PATCH /v1/sessions/{sessionId}/filters
func (h *SessionHandler) SetFilters(w http.ResponseWriter, r *http.Request) {
	var patch catalog.FilterPatch
	if !decodeJSON(w, r, &patch, "set filters") {
		return
	}

	res, err := h.sessions.SetFilters(r.Context(), sessionID(r), patch)
	h.writeMutation(w, r, res, err)
}

// ResetFilters handles DELETE /v1/sessions/{sessionId}/filters
func (h *SessionHandler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessions.ResetFilters(r.Context(), sessionID(r))
	h.writeMutation(w, r, res, err)
}

func (h *SessionHandler) writeMutation(w http.ResponseWriter, r *http.Request, res services.MutationResult, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, mutationResponse(res))
}
