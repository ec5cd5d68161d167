package leads

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/store"

	"github.com/oklog/ulid/v2"
)

// Kind identifies a lead flow
type Kind string

const (
	KindRFQ      Kind = "rfq"
	KindQuickRFQ Kind = "quick-rfq"
	KindBooking  Kind = "booking"
	KindBrochure Kind = "brochure"
)

// Lead is a captured buyer request handed to a Submitter
type Lead struct {
	Reference   string
	Kind        Kind
	SessionID   string
	Email       string
	SubmittedAt time.Time
	Items       []store.RFQItem
	Payload     any
}

// Receipt acknowledges an accepted lead
type Receipt struct {
	Reference   string    `json:"reference"`
	Kind        Kind      `json:"kind"`
	SubmittedAt time.Time `json:"submittedAt"`
	Items       int       `json:"items"`
	DownloadURL string    `json:"downloadUrl,omitempty"`
}

// Submitter delivers leads to the sales team
type Submitter interface {
	Submit(ctx context.Context, lead Lead) error
}

// SimulatedSubmitter stands in for the sales backend: it waits Delay on the
// clock and logs the lead
type SimulatedSubmitter struct {
	Clock  clock.Clock
	Delay  time.Duration
	Logger *slog.Logger
}

func (s *SimulatedSubmitter) Submit(ctx context.Context, lead Lead) error {
	clk := s.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := clock.Sleep(ctx, clk, s.Delay); err != nil {
		return fmt.Errorf("lead %s not submitted: %w", lead.Reference, err)
	}

	logger.Info("Lead submitted",
		"reference", lead.Reference,
		"kind", lead.Kind,
		"session_id", lead.SessionID,
		"items", len(lead.Items),
	)
	return nil
}

// NewReference returns a time-ordered lead reference
func NewReference(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}
