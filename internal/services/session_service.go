package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"diamond-catalog-api/internal/cache"
	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/config"
	"diamond-catalog-api/internal/events"
	"diamond-catalog-api/internal/format"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/store"
	"diamond-catalog-api/internal/telemetry"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrUnknownModal      = errors.New("unknown modal type")
	ErrMissingReference  = errors.New("modal reference missing")
	ErrNoCertificate     = errors.New("diamond has no grading certificate")
	ErrNoCertificateOpen = errors.New("no certificate is open")
)

// Toast messages shown by the session flows
const (
	MsgAddedToCompare   = "Added to comparison"
	MsgAlreadyComparing = "Already in comparison"
	MsgCompareFull      = "Maximum 4 items for comparison"

	MsgCertificateDownloaded = "Certificate downloaded"
)

// Session is one buyer's state store and its change feed
type Session struct {
	ID        string
	CreatedAt time.Time
	Store     *store.Store
	Feed      *events.Feed

	unsubscribe func()
}

// MutationResult is the outcome of a session operation and the state after it
type MutationResult struct {
	Outcome  store.Outcome
	Snapshot store.Snapshot
}

// ModalRef names the payload of a modal to open by kind
type ModalRef struct {
	DiamondID     string
	CertificateID *int
	ImageURL      string
}

// SessionService owns the in-memory sessions and runs the UI flows on them
type SessionService struct {
	sessions  *cache.TTLCache[string, *Session]
	catalog   *CatalogService
	leads     *leads.Service
	formatter *format.Formatter
	telemetry *telemetry.ApiTelemetry
	clock     clock.Clock
	logger    *slog.Logger

	toastDuration time.Duration
	maxEvents     int
}

// NewSessionService creates the session registry. Sessions idle for
// SESSION_TTL are evicted and their stores closed.
func NewSessionService(cfg *config.Config, cat *CatalogService, leadSvc *leads.Service, clk clock.Clock, tel *telemetry.ApiTelemetry) *SessionService {
	if clk == nil {
		clk = clock.Real()
	}

	sessionTTL := config.Duration("SESSION_TTL", cfg.SessionTTL, 30*time.Minute)
	cleanupInterval := config.Duration("SESSION_CLEANUP_INTERVAL", cfg.SessionCleanupInterval, time.Minute)

	formatter, err := format.New(cfg.Locale)
	if err != nil {
		slog.Warn("Invalid locale, using English", "locale", cfg.Locale, "error", err)
		formatter = format.Default
	}

	s := &SessionService{
		catalog:       cat,
		leads:         leadSvc,
		formatter:     formatter,
		telemetry:     tel,
		clock:         clk,
		logger:        slog.Default(),
		toastDuration: config.Duration("TOAST_DEFAULT_DURATION", cfg.ToastDefaultDuration, store.DefaultToastDuration),
		maxEvents:     config.Int("MAX_EVENTS_PER_SESSION", cfg.MaxEventsPerSession, 500),
	}
	s.sessions = cache.New[string, *Session](cache.Config{
		TTL:             sessionTTL,
		CleanupInterval: cleanupInterval,
		Clock:           clk,
		Name:            "sessions",
	}, s.closeSession)

	slog.Info("Session service initialized",
		"session_ttl", sessionTTL.String(),
		"cleanup_interval", cleanupInterval.String(),
		"toast_duration", s.toastDuration.String(),
		"max_events", s.maxEvents)

	return s
}

// CreateSession opens a session with the default state
func (s *SessionService) CreateSession(ctx context.Context) *Session {
	id := uuid.NewString()
	logger := s.logger.With("session_id", id)

	sess := &Session{
		ID:        id,
		CreatedAt: s.clock.Now(),
		Store: store.New(
			store.WithClock(s.clock),
			store.WithLogger(logger),
			store.WithToastDuration(s.toastDuration),
		),
		Feed: events.NewFeed(events.Config{MaxEvents: s.maxEvents, Logger: logger}),
	}
	sess.unsubscribe = sess.Store.Subscribe(func(change store.Change, snap store.Snapshot) {
		sess.Feed.Publish(change.Op, change.Outcome.String(), change.At, models.NewSnapshotResponse(snap))
		s.telemetry.RecordSessionMutation(context.Background(), change.Op, change.Outcome.String())
	})

	s.sessions.Set(id, sess)
	s.telemetry.SessionOpened(ctx)

	logger.Info("Session created")
	return sess
}

// Session returns a live session and restarts its idle timer
func (s *SessionService) Session(id string) (*Session, error) {
	sess, ok := s.sessions.GetAndTouch(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// DeleteSession ends a session immediately
func (s *SessionService) DeleteSession(id string) error {
	if !s.sessions.Delete(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Count returns the number of sessions held, expired ones included until swept
func (s *SessionService) Count() int {
	return s.sessions.Size()
}

// Stop ends every session and the idle sweep
func (s *SessionService) Stop() {
	s.sessions.Stop()
	closed := s.sessions.Purge()
	s.logger.Info("Session service stopped", "closed_sessions", closed)
}

// Reasons a session ends, as recorded on the active sessions gauge
const (
	CloseDeleted  = "deleted"
	CloseExpired  = "expired"
	CloseShutdown = "shutdown"
)

// closeSession is the registry eviction callback
func (s *SessionService) closeSession(id string, sess *Session, reason cache.Reason) {
	closeReason := CloseExpired
	switch reason {
	case cache.ReasonDeleted:
		closeReason = CloseDeleted
	case cache.ReasonPurged:
		closeReason = CloseShutdown
	}

	sess.unsubscribe()
	sess.Store.Close()
	sess.Feed.Close()
	s.telemetry.SessionClosed(context.Background(), closeReason)
	s.logger.Info("Session closed", "session_id", id, "reason", closeReason)
}

// Snapshot returns the current state of a session
func (s *SessionService) Snapshot(id string) (store.Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return store.Snapshot{}, err
	}
	return sess.Store.Snapshot(), nil
}

// mutate runs fn against the session store. Outcomes that leave the state
// alone are counted here; committed ones are counted by the store listener.
func (s *SessionService) mutate(ctx context.Context, id, op string, fn func(*store.Store) store.Outcome) (MutationResult, error) {
	sess, err := s.Session(id)
	if err != nil {
		return MutationResult{}, err
	}
	outcome := fn(sess.Store)
	if !outcome.Changed() {
		s.telemetry.RecordSessionMutation(ctx, op, outcome.String())
	}
	return MutationResult{Outcome: outcome, Snapshot: sess.Store.Snapshot()}, nil
}

// AddToRFQ adds qty of the diamond to the RFQ list and confirms with a
// toast. A zero quantity means one piece.
func (s *SessionService) AddToRFQ(ctx context.Context, id, diamondID string, qty int, notes string) (MutationResult, error) {
	if qty < 0 {
		return MutationResult{}, ErrInvalidQuantity
	}
	if qty == 0 {
		qty = 1
	}
	d, err := s.catalog.Diamond(diamondID)
	if err != nil {
		return MutationResult{}, err
	}
	notes = leads.Sanitize(notes)

	return s.mutate(ctx, id, store.OpAddToRFQ, func(st *store.Store) store.Outcome {
		outcome := st.AddToRFQ(d, qty)
		if notes != "" {
			st.AnnotateRFQ(d.ID, notes)
		}
		st.ShowToast(fmt.Sprintf("%s added to RFQ (%d pcs)", d.ID, qty), store.SeveritySuccess, 0)
		return outcome
	})
}

func (s *SessionService) UpdateRFQQuantity(ctx context.Context, id, diamondID string, qty int) (MutationResult, error) {
	if qty < 1 {
		return MutationResult{}, ErrInvalidQuantity
	}
	return s.mutate(ctx, id, store.OpUpdateRFQQuantity, func(st *store.Store) store.Outcome {
		return st.UpdateRFQQuantity(diamondID, qty)
	})
}

func (s *SessionService) RemoveFromRFQ(ctx context.Context, id, diamondID string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpRemoveFromRFQ, func(st *store.Store) store.Outcome {
		return st.RemoveFromRFQ(diamondID)
	})
}

func (s *SessionService) ClearRFQ(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpClearRFQ, (*store.Store).ClearRFQ)
}

// AddToCompare adds the diamond to the compare set with a toast per outcome
func (s *SessionService) AddToCompare(ctx context.Context, id, diamondID string) (MutationResult, error) {
	d, err := s.catalog.Diamond(diamondID)
	if err != nil {
		return MutationResult{}, err
	}
	return s.mutate(ctx, id, store.OpAddToCompare, func(st *store.Store) store.Outcome {
		outcome := st.AddToCompare(d)
		switch outcome {
		case store.Added:
			st.ShowToast(MsgAddedToCompare, store.SeveritySuccess, 0)
		case store.AlreadyPresent:
			st.ShowToast(MsgAlreadyComparing, store.SeverityInfo, 0)
		case store.CapacityExceeded:
			st.ShowToast(MsgCompareFull, store.SeverityWarning, 0)
		}
		return outcome
	})
}

func (s *SessionService) RemoveFromCompare(ctx context.Context, id, diamondID string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpRemoveFromCompare, func(st *store.Store) store.Outcome {
		return st.RemoveFromCompare(diamondID)
	})
}

func (s *SessionService) ClearCompare(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpClearCompare, (*store.Store).ClearCompare)
}

// CompareTable renders the compare set for display
func (s *SessionService) CompareTable(id string) ([]format.CompareRow, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return s.formatter.CompareTable(snap.CompareItems), nil
}

// ConvertCompareToRFQ moves every compared diamond into the RFQ list with
// quantity 1, clears the compare set and opens the quote request form
func (s *SessionService) ConvertCompareToRFQ(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, "convert_compare_to_rfq", func(st *store.Store) store.Outcome {
		items := st.Snapshot().CompareItems
		if len(items) == 0 {
			return store.Unchanged
		}
		for _, d := range items {
			st.AddToRFQ(d, 1)
		}
		st.ShowToast(fmt.Sprintf("%d items added to RFQ", len(items)), store.SeveritySuccess, 0)
		st.ClearCompare()
		st.OpenModal(store.QuoteRequest{})
		return store.Added
	})
}

// ShowToast adds a toast with the given lifetime
func (s *SessionService) ShowToast(id, message string, severity store.Severity, d time.Duration) (store.Toast, store.Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return store.Toast{}, store.Snapshot{}, err
	}
	toast := sess.Store.ShowToast(message, severity, d)
	return toast, sess.Store.Snapshot(), nil
}

func (s *SessionService) DismissToast(ctx context.Context, id, toastID string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpDismissToast, func(st *store.Store) store.Outcome {
		return st.DismissToast(toastID)
	})
}

// OpenModal resolves ref against the catalog and opens the modal of kind.
// Kind none closes the active modal.
func (s *SessionService) OpenModal(ctx context.Context, id string, kind store.ModalKind, ref ModalRef) (MutationResult, error) {
	modal, err := s.resolveModal(kind, ref)
	if err != nil {
		return MutationResult{}, err
	}
	if modal.Kind() == store.KindNone {
		return s.CloseModal(ctx, id)
	}
	return s.mutate(ctx, id, store.OpOpenModal, func(st *store.Store) store.Outcome {
		return st.OpenModal(modal)
	})
}

func (s *SessionService) resolveModal(kind store.ModalKind, ref ModalRef) (store.Modal, error) {
	switch kind {
	case store.KindNone:
		return store.NoModal{}, nil
	case store.KindQuoteRequest:
		return store.QuoteRequest{}, nil
	case store.KindBrochureDownload:
		return store.BrochureDownload{}, nil
	case store.KindCompareViewer:
		return store.CompareViewer{}, nil
	case store.KindCallBooking:
		return store.CallBooking{}, nil
	case store.KindWhatsAppComposer:
		return store.WhatsAppComposer{}, nil
	case store.KindProductDetail, store.KindImageViewer:
		if ref.DiamondID == "" {
			return nil, fmt.Errorf("%w: %s needs diamondId", ErrMissingReference, kind)
		}
		d, err := s.catalog.Diamond(ref.DiamondID)
		if err != nil {
			return nil, err
		}
		if kind == store.KindProductDetail {
			return store.ProductDetail{Diamond: d}, nil
		}
		imageURL := ref.ImageURL
		if imageURL == "" {
			imageURL = d.Image
		}
		return store.ImageViewer{Diamond: d, ImageURL: imageURL}, nil
	case store.KindCertificateViewer:
		if ref.CertificateID != nil {
			cert, err := s.catalog.Certificate(*ref.CertificateID)
			if err != nil {
				return nil, err
			}
			return store.CertificateViewer{Certificate: cert}, nil
		}
		if ref.DiamondID == "" {
			return nil, fmt.Errorf("%w: %s needs certificateId or diamondId", ErrMissingReference, kind)
		}
		d, err := s.catalog.Diamond(ref.DiamondID)
		if err != nil {
			return nil, err
		}
		cert, ok := d.GradingCertificate()
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoCertificate, d.ID)
		}
		return store.CertificateViewer{Certificate: cert}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModal, kind)
	}
}

// DownloadCertificate confirms the download of the certificate in the open
// viewer with a toast
func (s *SessionService) DownloadCertificate(ctx context.Context, id string) (catalog.Certificate, MutationResult, error) {
	var cert catalog.Certificate
	res, err := s.mutate(ctx, id, "download_certificate", func(st *store.Store) store.Outcome {
		viewer, ok := st.Snapshot().Modal.(store.CertificateViewer)
		if !ok {
			return store.NotPresent
		}
		cert = viewer.Certificate
		st.ShowToast(MsgCertificateDownloaded, store.SeveritySuccess, 0)
		return store.Added
	})
	if err != nil {
		return catalog.Certificate{}, MutationResult{}, err
	}
	if res.Outcome == store.NotPresent {
		return catalog.Certificate{}, MutationResult{}, ErrNoCertificateOpen
	}
	return cert, res, nil
}

func (s *SessionService) CloseModal(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpCloseModal, (*store.Store).CloseModal)
}

// SetFilters merges patch into the session filter set
func (s *SessionService) SetFilters(ctx context.Context, id string, patch catalog.FilterPatch) (MutationResult, error) {
	var setErr error
	result, err := s.mutate(ctx, id, store.OpSetFilters, func(st *store.Store) store.Outcome {
		var outcome store.Outcome
		outcome, setErr = st.SetFilters(patch)
		return outcome
	})
	if err != nil {
		return MutationResult{}, err
	}
	if setErr != nil {
		return MutationResult{}, setErr
	}
	return result, nil
}

func (s *SessionService) ResetFilters(ctx context.Context, id string) (MutationResult, error) {
	return s.mutate(ctx, id, store.OpResetFilters, (*store.Store).ResetFilters)
}

// Results runs the catalog query for the session's current filters
func (s *SessionService) Results(ctx context.Context, id string) ([]catalog.Diamond, catalog.FilterSet, error) {
	snap, err := s.Snapshot(id)
	if err != nil {
		return nil, catalog.FilterSet{}, err
	}
	diamonds, err := s.catalog.Query(ctx, snap.Filters)
	return diamonds, snap.Filters, err
}

// Events returns the session's change events from offset. With wait > 0 it
// long-polls until an event arrives, the wait elapses or ctx is done.
func (s *SessionService) Events(ctx context.Context, id string, from int64, limit int, wait time.Duration) ([]events.Event, int64, bool, error) {
	sess, err := s.Session(id)
	if err != nil {
		return nil, 0, false, err
	}

	if wait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, wait)
		err := sess.Feed.Wait(waitCtx, from)
		cancel()
		if err != nil && ctx.Err() != nil {
			return nil, 0, false, ctx.Err()
		}
	}

	evts, next, hasMore := sess.Feed.Events(from, limit)
	return evts, next, hasMore, nil
}

// SubmitRFQ runs the quote request flow for the session
func (s *SessionService) SubmitRFQ(ctx context.Context, id string, form leads.RFQForm) (leads.Receipt, store.Snapshot, error) {
	return s.runLead(ctx, id, leads.KindRFQ, func(sess *Session) (leads.Receipt, error) {
		return s.leads.SubmitRFQ(ctx, sess.ID, sess.Store, form)
	})
}

// QuickRFQ runs the product-detail quick request for the session
func (s *SessionService) QuickRFQ(ctx context.Context, id string, req leads.QuickRFQ) (leads.Receipt, store.Snapshot, error) {
	return s.runLead(ctx, id, leads.KindQuickRFQ, func(sess *Session) (leads.Receipt, error) {
		var d catalog.Diamond
		if req.DiamondID != "" {
			var err error
			if d, err = s.catalog.Diamond(req.DiamondID); err != nil {
				return leads.Receipt{}, err
			}
		}
		return s.leads.QuickRFQ(ctx, sess.ID, sess.Store, d, req)
	})
}

func (s *SessionService) BookCall(ctx context.Context, id string, req leads.BookingRequest) (leads.Receipt, store.Snapshot, error) {
	return s.runLead(ctx, id, leads.KindBooking, func(sess *Session) (leads.Receipt, error) {
		return s.leads.BookCall(ctx, sess.ID, sess.Store, req)
	})
}

func (s *SessionService) RequestBrochure(ctx context.Context, id string, req leads.BrochureRequest) (leads.Receipt, store.Snapshot, error) {
	return s.runLead(ctx, id, leads.KindBrochure, func(sess *Session) (leads.Receipt, error) {
		return s.leads.RequestBrochure(ctx, sess.ID, sess.Store, req)
	})
}

func (s *SessionService) runLead(ctx context.Context, id string, kind leads.Kind, fn func(*Session) (leads.Receipt, error)) (leads.Receipt, store.Snapshot, error) {
	sess, err := s.Session(id)
	if err != nil {
		return leads.Receipt{}, store.Snapshot{}, err
	}

	receipt, err := fn(sess)
	status := "submitted"
	switch {
	case errors.Is(err, leads.ErrValidation):
		status = "invalid"
	case err != nil:
		status = "failed"
	}
	s.telemetry.RecordLead(ctx, string(kind), status)

	if err != nil {
		if status == "failed" {
			s.logger.Warn("Lead submission failed", "session_id", id, "kind", kind, "error", err)
		}
		return leads.Receipt{}, sess.Store.Snapshot(), err
	}

	s.logger.Info("Lead accepted", "session_id", id, "kind", kind, "reference", receipt.Reference)
	return receipt, sess.Store.Snapshot(), nil
}
