// Package store holds the per-session application state: the RFQ list, the
// compare set, toasts, the active modal and the catalog filter set. Every
// mutation replaces the state wholesale and is announced to subscribers in
// the order it was applied.
package store

import (
	crand "crypto/rand"
	"log/slog"
	"slices"
	"sync"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"

	"github.com/oklog/ulid/v2"
)

// Operation names reported in Change.Op
const (
	OpAddToRFQ          = "add_to_rfq"
	OpRemoveFromRFQ     = "remove_from_rfq"
	OpUpdateRFQQuantity = "update_rfq_quantity"
	OpAnnotateRFQ       = "annotate_rfq"
	OpClearRFQ          = "clear_rfq"
	OpAddToCompare      = "add_to_compare"
	OpRemoveFromCompare = "remove_from_compare"
	OpClearCompare      = "clear_compare"
	OpShowToast         = "show_toast"
	OpDismissToast      = "dismiss_toast"
	OpExpireToast       = "expire_toast"
	OpOpenModal         = "open_modal"
	OpCloseModal        = "close_modal"
	OpSetFilters        = "set_filters"
	OpResetFilters      = "reset_filters"
)

// Store is the single source of truth for one browsing session
type Store struct {
	mu        sync.Mutex
	st        state
	clock     clock.Clock
	logger    *slog.Logger
	toastTTL  time.Duration
	newID     func(time.Time) string
	timers    map[string]clock.Timer
	listeners []subscription
	nextSubID int
	closed    bool
}

type subscription struct {
	id int
	fn Listener
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for toast timestamps and expiry
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithToastDuration overrides DefaultToastDuration. Non-positive values are ignored.
func WithToastDuration(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.toastTTL = d
		}
	}
}

// WithIDGenerator replaces the ULID toast ID generator
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *Store) { s.newID = gen }
}

// New creates a store holding the default state
func New(opts ...Option) *Store {
	s := &Store{
		st: state{
			modal:   NoModal{},
			filters: catalog.DefaultFilters(),
		},
		clock:    clock.Real(),
		logger:   slog.Default(),
		toastTTL: DefaultToastDuration,
		timers:   make(map[string]clock.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newID == nil {
		entropy := ulid.Monotonic(crand.Reader, 0)
		s.newID = func(t time.Time) string {
			return ulid.MustNew(ulid.Timestamp(t), entropy).String()
		}
	}
	return s
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.snapshot()
}

// Subscribe registers fn for every subsequent change and returns a function
// that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSubID++
	id := s.nextSubID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}

// Close cancels pending toast timers and drops subscribers. The state stays
// readable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.listeners = nil
}

// commit installs next as the current state and notifies subscribers.
// Callers hold s.mu.
func (s *Store) commit(op string, outcome Outcome, next state) {
	next.version = s.st.version + 1
	s.st = next

	s.logger.Debug("Session state updated",
		"op", op,
		"outcome", outcome.String(),
		"version", next.version,
	)

	if len(s.listeners) == 0 {
		return
	}
	change := Change{Op: op, Outcome: outcome, At: s.clock.Now()}
	for _, sub := range s.listeners {
		sub.fn(change, next.snapshot())
	}
}

// AddToRFQ appends d with qty, or adds qty to the existing line for d.ID.
// Quantities below 1 are treated as 1.
func (s *Store) AddToRFQ(d catalog.Diamond, qty int) Outcome {
	if qty < 1 {
		qty = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st
	next.rfq = slices.Clone(s.st.rfq)
	if i := indexRFQ(next.rfq, d.ID); i >= 0 {
		next.rfq[i].Quantity += qty
		s.commit(OpAddToRFQ, Merged, next)
		return Merged
	}
	next.rfq = append(next.rfq, RFQItem{Diamond: d, Quantity: qty})
	s.commit(OpAddToRFQ, Added, next)
	return Added
}

// RemoveFromRFQ drops the line for id if present
func (s *Store) RemoveFromRFQ(id string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexRFQ(s.st.rfq, id)
	if i < 0 {
		return NotPresent
	}
	next := s.st
	next.rfq = slices.Delete(slices.Clone(s.st.rfq), i, i+1)
	s.commit(OpRemoveFromRFQ, Removed, next)
	return Removed
}

// UpdateRFQQuantity overwrites the quantity of the line for id. The value is
// stored as given; callers validate it.
func (s *Store) UpdateRFQQuantity(id string, qty int) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexRFQ(s.st.rfq, id)
	if i < 0 {
		return NotPresent
	}
	next := s.st
	next.rfq = slices.Clone(s.st.rfq)
	next.rfq[i].Quantity = qty
	s.commit(OpUpdateRFQQuantity, Updated, next)
	return Updated
}

// AnnotateRFQ sets the free-text note of the line for id
func (s *Store) AnnotateRFQ(id, notes string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexRFQ(s.st.rfq, id)
	if i < 0 {
		return NotPresent
	}
	next := s.st
	next.rfq = slices.Clone(s.st.rfq)
	next.rfq[i].Notes = notes
	s.commit(OpAnnotateRFQ, Updated, next)
	return Updated
}

// ClearRFQ empties the RFQ list
func (s *Store) ClearRFQ() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.st.rfq) == 0 {
		return Unchanged
	}
	next := s.st
	next.rfq = nil
	s.commit(OpClearRFQ, Removed, next)
	return Removed
}

// AddToCompare appends d unless the set is full or already holds d.ID. A
// full set reports CapacityExceeded even for a duplicate. Rejections leave
// the state untouched.
func (s *Store) AddToCompare(d catalog.Diamond) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.st.compare) >= MaxCompareItems {
		return CapacityExceeded
	}
	if indexCompare(s.st.compare, d.ID) >= 0 {
		return AlreadyPresent
	}
	next := s.st
	next.compare = append(slices.Clone(s.st.compare), d)
	s.commit(OpAddToCompare, Added, next)
	return Added
}

func (s *Store) RemoveFromCompare(id string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexCompare(s.st.compare, id)
	if i < 0 {
		return NotPresent
	}
	next := s.st
	next.compare = slices.Delete(slices.Clone(s.st.compare), i, i+1)
	s.commit(OpRemoveFromCompare, Removed, next)
	return Removed
}

func (s *Store) ClearCompare() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.st.compare) == 0 {
		return Unchanged
	}
	next := s.st
	next.compare = nil
	s.commit(OpClearCompare, Removed, next)
	return Removed
}

// OpenModal replaces whatever modal is active. A nil modal closes it.
func (s *Store) OpenModal(m Modal) Outcome {
	if m == nil {
		m = NoModal{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st
	next.modal = m
	s.commit(OpOpenModal, Updated, next)
	return Updated
}

func (s *Store) CloseModal() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st.modal.Kind() == KindNone {
		return Unchanged
	}
	next := s.st
	next.modal = NoModal{}
	s.commit(OpCloseModal, Updated, next)
	return Updated
}

func indexRFQ(items []RFQItem, id string) int {
	return slices.IndexFunc(items, func(item RFQItem) bool { return item.Diamond.ID == id })
}

func indexCompare(items []catalog.Diamond, id string) int {
	return slices.IndexFunc(items, func(d catalog.Diamond) bool { return d.ID == id })
}
