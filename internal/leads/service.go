package leads

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/store"
)

// Toast messages shown by the lead flows
const (
	MsgRFQSubmitted       = "RFQ submitted — we'll reply within 24 hours"
	MsgQuickRFQSubmitted  = "Quick RFQ submitted!"
	MsgEnterEmail         = "Please enter your email"
	MsgBookingScheduled   = "Meeting scheduled successfully!"
	MsgFillRequired       = "Please fill all required fields"
	MsgBrochureDownloaded = "Brochure downloaded successfully!"
)

// DefaultBrochureURL is returned by a successful brochure request
const DefaultBrochureURL = "/brochure/company-brochure.pdf"

// Config holds the dependencies of a Service
type Config struct {
	Submitter      Submitter
	Clock          clock.Clock
	Logger         *slog.Logger
	WhatsAppNumber string
	BrochureURL    string
	Location       *time.Location
}

// Service runs the lead flows against a session store
type Service struct {
	submitter      Submitter
	clock          clock.Clock
	logger         *slog.Logger
	whatsAppNumber string
	brochureURL    string
	location       *time.Location
}

func NewService(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Submitter == nil {
		cfg.Submitter = &SimulatedSubmitter{Clock: cfg.Clock, Logger: cfg.Logger}
	}
	if cfg.BrochureURL == "" {
		cfg.BrochureURL = DefaultBrochureURL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Service{
		submitter:      cfg.Submitter,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		whatsAppNumber: cfg.WhatsAppNumber,
		brochureURL:    cfg.BrochureURL,
		location:       cfg.Location,
	}
}

// SubmitRFQ validates the form, submits it with the session's RFQ lines,
// then clears the RFQ list, confirms with a toast and closes the modal.
// Nothing in the store changes when validation or submission fails.
func (s *Service) SubmitRFQ(ctx context.Context, sessionID string, st *store.Store, form RFQForm) (Receipt, error) {
	form = form.Sanitized()
	if err := form.Validate(); err != nil {
		return Receipt{}, err
	}

	snap := st.Snapshot()
	lead := s.newLead(KindRFQ, sessionID, form.Email, form)
	lead.Items = snap.RFQItems
	if err := s.submitter.Submit(ctx, lead); err != nil {
		return Receipt{}, fmt.Errorf("failed to submit rfq: %w", err)
	}

	st.ShowToast(MsgRFQSubmitted, store.SeveritySuccess, 0)
	st.ClearRFQ()
	st.CloseModal()

	return receiptFor(lead), nil
}

// QuickRFQ adds d to the RFQ list and submits a short request, then swaps
// the product view for the full quote request form.
func (s *Service) QuickRFQ(ctx context.Context, sessionID string, st *store.Store, d catalog.Diamond, req QuickRFQ) (Receipt, error) {
	req.Notes = Sanitize(req.Notes)
	if err := req.Validate(); err != nil {
		if blank(req.Email) {
			st.ShowToast(MsgEnterEmail, store.SeverityError, 0)
		}
		return Receipt{}, err
	}

	qty := req.Quantity
	if qty < 1 {
		qty = 1
	}
	lead := s.newLead(KindQuickRFQ, sessionID, strings.TrimSpace(req.Email), req)
	lead.Items = []store.RFQItem{{Diamond: d, Quantity: qty, Notes: req.Notes}}
	if err := s.submitter.Submit(ctx, lead); err != nil {
		return Receipt{}, fmt.Errorf("failed to submit quick rfq: %w", err)
	}

	st.AddToRFQ(d, qty)
	if req.Notes != "" {
		st.AnnotateRFQ(d.ID, req.Notes)
	}
	st.ShowToast(MsgQuickRFQSubmitted, store.SeveritySuccess, 0)
	st.OpenModal(store.QuoteRequest{})

	return receiptFor(lead), nil
}

// BookCall schedules a call and closes the booking modal
func (s *Service) BookCall(ctx context.Context, sessionID string, st *store.Store, req BookingRequest) (Receipt, error) {
	req.Name = Sanitize(req.Name)
	req.Phone = Sanitize(req.Phone)
	if err := req.Validate(s.clock.Now(), s.location); err != nil {
		if req.MissingFields() {
			st.ShowToast(MsgFillRequired, store.SeverityError, 0)
		}
		return Receipt{}, err
	}

	lead := s.newLead(KindBooking, sessionID, strings.TrimSpace(req.Email), req)
	if err := s.submitter.Submit(ctx, lead); err != nil {
		return Receipt{}, fmt.Errorf("failed to book call: %w", err)
	}

	st.ShowToast(MsgBookingScheduled, store.SeveritySuccess, 0)
	st.CloseModal()

	return receiptFor(lead), nil
}

// RequestBrochure records the request and returns the brochure link
func (s *Service) RequestBrochure(ctx context.Context, sessionID string, st *store.Store, req BrochureRequest) (Receipt, error) {
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}

	lead := s.newLead(KindBrochure, sessionID, strings.TrimSpace(req.Email), req)
	if err := s.submitter.Submit(ctx, lead); err != nil {
		return Receipt{}, fmt.Errorf("failed to request brochure: %w", err)
	}

	st.ShowToast(MsgBrochureDownloaded, store.SeveritySuccess, 0)
	st.CloseModal()

	receipt := receiptFor(lead)
	receipt.DownloadURL = s.brochureURL
	return receipt, nil
}

// ComposeWhatsApp builds the message for the configured company number
func (s *Service) ComposeWhatsApp(req WhatsAppRequest) WhatsAppMessage {
	return ComposeWhatsApp(req, s.whatsAppNumber)
}

// AvailableDays returns the bookable days of the month containing month
func (s *Service) AvailableDays(month time.Time) []time.Time {
	return AvailableDays(month.Year(), month.Month(), s.clock.Now(), s.location)
}

// Today is the current time in the booking time zone
func (s *Service) Today() time.Time {
	return s.clock.Now().In(s.location)
}

// Location is the time zone booking dates are interpreted in
func (s *Service) Location() *time.Location {
	return s.location
}

func (s *Service) newLead(kind Kind, sessionID, email string, payload any) Lead {
	now := s.clock.Now()
	return Lead{
		Reference:   NewReference(now),
		Kind:        kind,
		SessionID:   sessionID,
		Email:       email,
		SubmittedAt: now,
		Payload:     payload,
	}
}

func receiptFor(lead Lead) Receipt {
	return Receipt{
		Reference:   lead.Reference,
		Kind:        lead.Kind,
		SubmittedAt: lead.SubmittedAt,
		Items:       len(lead.Items),
	}
}
