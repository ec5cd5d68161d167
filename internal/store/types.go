package store

import (
	"errors"
	"slices"
	"time"

	"diamond-catalog-api/internal/catalog"
)

// MaxCompareItems caps the compare set
const MaxCompareItems = 4

// DefaultToastDuration is used when ShowToast is given no positive duration
const DefaultToastDuration = 4 * time.Second

// ErrInvalidFilters is returned by SetFilters when the merged filter set
// breaks a range or enum invariant
var ErrInvalidFilters = errors.New("invalid filters")

// Severity classifies a toast
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Outcome reports what a mutator did to the state
type Outcome int

const (
	Unchanged Outcome = iota
	Added
	Merged
	AlreadyPresent
	CapacityExceeded
	Removed
	Updated
	NotPresent
)

func (o Outcome) String() string {
	switch o {
	case Added:
		return "added"
	case Merged:
		return "merged"
	case AlreadyPresent:
		return "already_present"
	case CapacityExceeded:
		return "capacity_exceeded"
	case Removed:
		return "removed"
	case Updated:
		return "updated"
	case NotPresent:
		return "not_present"
	default:
		return "unchanged"
	}
}

// Changed reports whether the outcome altered the state
func (o Outcome) Changed() bool {
	switch o {
	case Added, Merged, Removed, Updated:
		return true
	}
	return false
}

// RFQItem is one line of the quote request list
type RFQItem struct {
	Diamond  catalog.Diamond
	Quantity int
	Notes    string
}

// Toast is a transient notification
type Toast struct {
	ID        string
	Message   string
	Severity  Severity
	Duration  time.Duration
	CreatedAt time.Time
}

// Snapshot is a read-only copy of the store state
type Snapshot struct {
	Version      uint64
	RFQItems     []RFQItem
	CompareItems []catalog.Diamond
	Toasts       []Toast
	Modal        Modal
	Filters      catalog.FilterSet
}

// RFQCount returns the total quantity across RFQ lines
func (s Snapshot) RFQCount() int {
	n := 0
	for _, item := range s.RFQItems {
		n += item.Quantity
	}
	return n
}

// Change describes the mutation that produced a snapshot
type Change struct {
	Op      string
	Outcome Outcome
	At      time.Time
}

// Listener receives every state change in mutation order. Listeners run
// while the store is locked and must not call back into the store.
type Listener func(Change, Snapshot)

// state is replaced wholesale on every write
type state struct {
	version uint64
	rfq     []RFQItem
	compare []catalog.Diamond
	toasts  []Toast
	modal   Modal
	filters catalog.FilterSet
}

func (st state) snapshot() Snapshot {
	return Snapshot{
		Version:      st.version,
		RFQItems:     slices.Clone(st.rfq),
		CompareItems: slices.Clone(st.compare),
		Toasts:       slices.Clone(st.toasts),
		Modal:        st.modal,
		Filters:      st.filters.Clone(),
	}
}
