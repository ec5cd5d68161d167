package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/store"
)

const monthLayout = "2006-01"

// LeadHandler accepts the buyer lead forms
type LeadHandler struct {
	sessions *services.SessionService
	leads    *leads.Service
	logger   *slog.Logger
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(sessionSvc *services.SessionService, leadSvc *leads.Service, logger *slog.Logger) *LeadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadHandler{sessions: sessionSvc, leads: leadSvc, logger: logger}
}

// SubmitRFQ handles POST /v1/sessions/{sessionId}/leads/rfq
func (h *LeadHandler) SubmitRFQ(w http.ResponseWriter, r *http.Request) {
	var form leads.RFQForm
	if !decodeJSON(w, r, &form, "RFQ") {
		return
	}
	receipt, snap, err := h.sessions.SubmitRFQ(r.Context(), sessionID(r), form)
	h.writeLead(w, r, receipt, snap, err)
}

// ValidateRFQStep handles POST /v1/sessions/{sessionId}/leads/rfq/validate?step=1|2
func (h *LeadHandler) ValidateRFQStep(w http.ResponseWriter, r *http.Request) {
	step, err := strconv.Atoi(r.URL.Query().Get("step"))
	if err != nil || (step != 1 && step != 2) {
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "step must be 1 or 2", nil)
		return
	}

	var form leads.RFQForm
	if !decodeJSON(w, r, &form, "RFQ validation") {
		return
	}
	if _, err := h.sessions.Session(sessionID(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	if step == 1 {
		err = leads.ValidateBuyer(form.BuyerDetails)
	} else {
		err = leads.ValidateRequirements(form.Requirements)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, models.StepValidationResponse{Step: step, Valid: true})
}

// QuickRFQ handles POST /v1/sessions/{sessionId}/leads/quick-rfq
func (h *LeadHandler) QuickRFQ(w http.ResponseWriter, r *http.Request) {
	var req leads.QuickRFQ
	if !decodeJSON(w, r, &req, "quick RFQ") {
		return
	}
	receipt, snap, err := h.sessions.QuickRFQ(r.Context(), sessionID(r), req)
	h.writeLead(w, r, receipt, snap, err)
}

// BookCall handles POST /v1/sessions/{sessionId}/leads/booking
func (h *LeadHandler) BookCall(w http.ResponseWriter, r *http.Request) {
	var req leads.BookingRequest
	if !decodeJSON(w, r, &req, "booking") {
		return
	}
	receipt, snap, err := h.sessions.BookCall(r.Context(), sessionID(r), req)
	h.writeLead(w, r, receipt, snap, err)
}

// AvailableDays handles GET /v1/leads/booking/days?month=YYYY-MM
func (h *LeadHandler) AvailableDays(w http.ResponseWriter, r *http.Request) {
	loc := h.leads.Location()
	month := h.leads.Today()
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation(monthLayout, raw, loc)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "month must be formatted as YYYY-MM", nil)
			return
		}
		month = parsed
	}

	days := h.leads.AvailableDays(month)
	resp := models.AvailableDaysResponse{
		Month: month.Format(monthLayout),
		Days:  make([]string, 0, len(days)),
		Slots: leads.TimeSlots,
	}
	for _, d := range days {
		resp.Days = append(resp.Days, d.Format(leads.DateLayout))
	}
	writeJSONResponse(w, http.StatusOK, resp)
}

// RequestBrochure handles POST /v1/sessions/{sessionId}/leads/brochure
func (h *LeadHandler) RequestBrochure(w http.ResponseWriter, r *http.Request) {
	var req leads.BrochureRequest
	if !decodeJSON(w, r, &req, "brochure") {
		return
	}
	receipt, snap, err := h.sessions.RequestBrochure(r.Context(), sessionID(r), req)
	h.writeLead(w, r, receipt, snap, err)
}

// ComposeWhatsApp handles POST /v1/leads/whatsapp
func (h *LeadHandler) ComposeWhatsApp(w http.ResponseWriter, r *http.Request) {
	var req leads.WhatsAppRequest
	if !decodeJSON(w, r, &req, "WhatsApp") {
		return
	}
	writeJSONResponse(w, http.StatusOK, h.leads.ComposeWhatsApp(req))
}

func (h *LeadHandler) writeLead(w http.ResponseWriter, r *http.Request, receipt leads.Receipt, snap store.Snapshot, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, models.LeadResponse{
		Receipt:  receipt,
		Snapshot: models.NewSnapshotResponse(snap),
	})
}
