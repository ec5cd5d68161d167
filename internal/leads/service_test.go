package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	leads []Lead
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, lead Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.leads = append(r.leads, lead)
	return nil
}

func testDiamond() catalog.Diamond {
	return catalog.Diamond{
		ID: "ED-RND-001", Shape: catalog.ShapeRound, Carat: 0.72, Color: "D", Clarity: "VVS2",
		Cut: catalog.CutExcellent, CertType: catalog.CertGIA, PriceMin: 1850, PriceMax: 2120,
		Availability: catalog.InStock,
	}
}

func newTestService(t *testing.T) (*Service, *recordingSubmitter, *store.Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(monday)
	sub := &recordingSubmitter{}
	svc := NewService(Config{Submitter: sub, Clock: clk, WhatsAppNumber: "+919876543210"})
	st := store.New(store.WithClock(clk))
	t.Cleanup(st.Close)
	return svc, sub, st, clk
}

func toastMessages(st *store.Store) []string {
	var out []string
	for _, toast := range st.Snapshot().Toasts {
		out = append(out, toast.Message)
	}
	return out
}

// TestService_SubmitRFQ tests the full quote request flow
func TestService_SubmitRFQ(t *testing.T) {
	svc, sub, st, _ := newTestService(t)
	st.AddToRFQ(testDiamond(), 3)
	st.OpenModal(store.QuoteRequest{})

	receipt, err := svc.SubmitRFQ(context.Background(), "s-1", st, validForm())
	require.NoError(t, err)

	assert.Equal(t, KindRFQ, receipt.Kind)
	assert.Equal(t, 1, receipt.Items)
	assert.Len(t, receipt.Reference, 26)
	require.Len(t, sub.leads, 1)
	assert.Equal(t, "s-1", sub.leads[0].SessionID)
	assert.Equal(t, 3, sub.leads[0].Items[0].Quantity)

	snap := st.Snapshot()
	assert.Empty(t, snap.RFQItems)
	assert.Equal(t, store.KindNone, snap.Modal.Kind())
	assert.Equal(t, []string{MsgRFQSubmitted}, toastMessages(st))
}

func TestService_SubmitRFQ_InvalidLeavesStateAlone(t *testing.T) {
	svc, sub, st, _ := newTestService(t)
	st.AddToRFQ(testDiamond(), 1)

	form := validForm()
	form.Email = "bad"
	_, err := svc.SubmitRFQ(context.Background(), "s-1", st, form)

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, sub.leads)
	assert.Len(t, st.Snapshot().RFQItems, 1)
	assert.Empty(t, st.Snapshot().Toasts)
}

func TestService_SubmitRFQ_SubmitterFailure(t *testing.T) {
	svc, sub, st, _ := newTestService(t)
	sub.err = errors.New("crm unavailable")
	st.AddToRFQ(testDiamond(), 1)

	_, err := svc.SubmitRFQ(context.Background(), "s-1", st, validForm())

	assert.ErrorContains(t, err, "crm unavailable")
	assert.Len(t, st.Snapshot().RFQItems, 1)
}

// TestService_QuickRFQ tests the product detail shortcut
func TestService_QuickRFQ(t *testing.T) {
	svc, _, st, _ := newTestService(t)
	st.OpenModal(store.ProductDetail{Diamond: testDiamond()})

	_, err := svc.QuickRFQ(context.Background(), "s-1", st, testDiamond(), QuickRFQ{
		DiamondID: "ED-RND-001", Quantity: 2, Email: "buyer@example.com", Notes: "<b>rush</b>",
	})
	require.NoError(t, err)

	snap := st.Snapshot()
	require.Len(t, snap.RFQItems, 1)
	assert.Equal(t, 2, snap.RFQItems[0].Quantity)
	assert.Equal(t, "rush", snap.RFQItems[0].Notes)
	assert.Equal(t, store.KindQuoteRequest, snap.Modal.Kind())
	assert.Equal(t, []string{MsgQuickRFQSubmitted}, toastMessages(st))
}

func TestService_QuickRFQ_MissingEmail(t *testing.T) {
	svc, _, st, _ := newTestService(t)

	_, err := svc.QuickRFQ(context.Background(), "s-1", st, testDiamond(), QuickRFQ{DiamondID: "ED-RND-001"})

	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, st.Snapshot().RFQItems)
	assert.Equal(t, []string{MsgEnterEmail}, toastMessages(st))
	assert.Equal(t, store.SeverityError, st.Snapshot().Toasts[0].Severity)
}

func TestService_BookCall(t *testing.T) {
	svc, sub, st, _ := newTestService(t)
	st.OpenModal(store.CallBooking{})

	_, err := svc.BookCall(context.Background(), "s-1", st, BookingRequest{
		Date: "2026-10-06", Slot: "02:00 PM", Name: "Li Wei", Email: "li@hk.example", Phone: "5555",
	})
	require.NoError(t, err)
	require.Len(t, sub.leads, 1)
	assert.Equal(t, KindBooking, sub.leads[0].Kind)
	assert.Equal(t, []string{MsgBookingScheduled}, toastMessages(st))
	assert.Equal(t, store.KindNone, st.Snapshot().Modal.Kind())

	_, err = svc.BookCall(context.Background(), "s-1", st, BookingRequest{Date: "2026-10-06"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, toastMessages(st), MsgFillRequired)
}

func TestService_RequestBrochure(t *testing.T) {
	svc, _, st, _ := newTestService(t)
	st.OpenModal(store.BrochureDownload{})

	receipt, err := svc.RequestBrochure(context.Background(), "s-1", st, BrochureRequest{Email: "buyer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBrochureURL, receipt.DownloadURL)
	assert.Equal(t, []string{MsgBrochureDownloaded}, toastMessages(st))
	assert.Equal(t, store.KindNone, st.Snapshot().Modal.Kind())
}

func TestService_AvailableDays(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	days := svc.AvailableDays(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	require.NotEmpty(t, days)
	assert.Equal(t, 5, days[0].Day())

	msg := svc.ComposeWhatsApp(WhatsAppRequest{})
	assert.Contains(t, msg.URL, "wa.me/919876543210")
}

// TestSimulatedSubmitter_WaitsOnClock tests the simulated latency
func TestSimulatedSubmitter_WaitsOnClock(t *testing.T) {
	clk := clock.NewFake(monday)
	sub := &SimulatedSubmitter{Clock: clk, Delay: 1500 * time.Millisecond}

	done := make(chan error, 1)
	go func() { done <- sub.Submit(context.Background(), Lead{Reference: "r", Kind: KindRFQ}) }()

	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("submit returned before the delay elapsed")
	default:
	}

	clk.Advance(1500 * time.Millisecond)
	assert.NoError(t, <-done)
}

func TestSimulatedSubmitter_Cancelled(t *testing.T) {
	clk := clock.NewFake(monday)
	sub := &SimulatedSubmitter{Clock: clk, Delay: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Submit(ctx, Lead{Reference: "r"}) }()

	require.Eventually(t, func() bool { return clk.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 0, clk.Pending())
}
