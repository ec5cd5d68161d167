package models

import (
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/events"
	"diamond-catalog-api/internal/format"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/store"
)

// Error codes used in ErrorResponse
const (
	CodeBadRequest      = "bad_request"
	CodeValidationError = "validation_error"
	CodeNotFound        = "not_found"
	CodeRateLimited     = "rate_limited"
	CodeInternalError   = "internal_error"
)

// ErrorResponse represents the standard error response format
type ErrorResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// Catalog responses
type CatalogResponse struct {
	Items   []catalog.Diamond `json:"items"`
	Total   int               `json:"total"`
	Filters catalog.FilterSet `json:"filters"`
}

type FacetsResponse struct {
	Total  int                       `json:"total"`
	Facets map[string]map[string]int `json:"facets"`
}

type CertificatesResponse struct {
	Items []catalog.Certificate `json:"items"`
}

// Session state as sent over the wire
type SnapshotResponse struct {
	Version      uint64            `json:"version"`
	RFQItems     []RFQItemResponse `json:"rfqItems"`
	RFQCount     int               `json:"rfqCount"`
	CompareItems []catalog.Diamond `json:"compareItems"`
	Toasts       []ToastResponse   `json:"toasts"`
	Modal        ModalResponse     `json:"modal"`
	Filters      catalog.FilterSet `json:"filters"`
}

type RFQItemResponse struct {
	Diamond  catalog.Diamond `json:"diamond"`
	Quantity int             `json:"quantity"`
	Notes    string          `json:"notes,omitempty"`
}

type ToastResponse struct {
	ID         string         `json:"id"`
	Message    string         `json:"message"`
	Severity   store.Severity `json:"severity"`
	DurationMs int64          `json:"durationMs"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type ModalResponse struct {
	Type        store.ModalKind      `json:"type"`
	Diamond     *catalog.Diamond     `json:"diamond,omitempty"`
	Certificate *catalog.Certificate `json:"certificate,omitempty"`
	ImageURL    string               `json:"imageUrl,omitempty"`
}

type SessionResponse struct {
	SessionID string           `json:"sessionId"`
	Snapshot  SnapshotResponse `json:"snapshot"`
}

// MutationResponse reports what a session operation did and the state after it
type MutationResponse struct {
	Outcome  string           `json:"outcome"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

// CertificateDownloadResponse carries the certificate whose download was confirmed
type CertificateDownloadResponse struct {
	Certificate catalog.Certificate `json:"certificate"`
	Outcome     string              `json:"outcome"`
	Snapshot    SnapshotResponse    `json:"snapshot"`
}

type ToastCreatedResponse struct {
	Toast    ToastResponse    `json:"toast"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

// Session requests
type AddToRFQRequest struct {
	DiamondID string `json:"diamondId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type AddToCompareRequest struct {
	DiamondID string `json:"diamondId"`
}

type ShowToastRequest struct {
	Message    string         `json:"message"`
	Severity   store.Severity `json:"severity"`
	DurationMs int64          `json:"durationMs"`
}

type OpenModalRequest struct {
	Type          store.ModalKind `json:"type"`
	DiamondID     string          `json:"diamondId,omitempty"`
	CertificateID *int            `json:"certificateId,omitempty"`
	ImageURL      string          `json:"imageUrl,omitempty"`
}

type CompareTableResponse struct {
	Fields []string            `json:"fields"`
	Items  []format.CompareRow `json:"items"`
}

type EventsResponse struct {
	Events     []events.Event `json:"events"`
	NextOffset int64          `json:"nextOffset"`
	HasMore    bool           `json:"hasMore"`
}

// Lead responses
type LeadResponse struct {
	Receipt  leads.Receipt    `json:"receipt"`
	Snapshot SnapshotResponse `json:"snapshot"`
}

type StepValidationResponse struct {
	Step  int  `json:"step"`
	Valid bool `json:"valid"`
}

type AvailableDaysResponse struct {
	Month string   `json:"month"`
	Days  []string `json:"days"`
	Slots []string `json:"slots"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Diamonds int    `json:"diamonds"`
	Sessions int    `json:"sessions"`
}

// NewSnapshotResponse converts a store snapshot to its wire form
func NewSnapshotResponse(snap store.Snapshot) SnapshotResponse {
	resp := SnapshotResponse{
		Version:      snap.Version,
		RFQItems:     make([]RFQItemResponse, 0, len(snap.RFQItems)),
		RFQCount:     snap.RFQCount(),
		CompareItems: snap.CompareItems,
		Toasts:       make([]ToastResponse, 0, len(snap.Toasts)),
		Modal:        NewModalResponse(snap.Modal),
		Filters:      snap.Filters,
	}
	if resp.CompareItems == nil {
		resp.CompareItems = []catalog.Diamond{}
	}
	for _, item := range snap.RFQItems {
		resp.RFQItems = append(resp.RFQItems, RFQItemResponse{
			Diamond:  item.Diamond,
			Quantity: item.Quantity,
			Notes:    item.Notes,
		})
	}
	for _, toast := range snap.Toasts {
		resp.Toasts = append(resp.Toasts, NewToastResponse(toast))
	}
	return resp
}

func NewToastResponse(toast store.Toast) ToastResponse {
	return ToastResponse{
		ID:         toast.ID,
		Message:    toast.Message,
		Severity:   toast.Severity,
		DurationMs: toast.Duration.Milliseconds(),
		CreatedAt:  toast.CreatedAt,
	}
}

// NewModalResponse flattens the modal union into {type, payload...}
func NewModalResponse(m store.Modal) ModalResponse {
	if m == nil {
		return ModalResponse{Type: store.KindNone}
	}
	resp := ModalResponse{Type: m.Kind()}
	switch v := m.(type) {
	case store.ProductDetail:
		resp.Diamond = &v.Diamond
	case store.ImageViewer:
		resp.Diamond = &v.Diamond
		resp.ImageURL = v.ImageURL
	case store.CertificateViewer:
		resp.Certificate = &v.Certificate
	}
	return resp
}
