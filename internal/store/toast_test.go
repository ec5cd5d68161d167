package store_test

import (
	"testing"
	"time"

	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/store"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStore_ToastExpiry tests that a toast lives exactly its duration
func TestStore_ToastExpiry(t *testing.T) {
	s, clk := newStore(t)

	toast := s.ShowToast("Added to comparison", store.SeveritySuccess, 3*time.Second)
	require.Len(t, s.Snapshot().Toasts, 1)
	assert.Equal(t, epoch, toast.CreatedAt)

	clk.Advance(3*time.Second - time.Millisecond)
	assert.Len(t, s.Snapshot().Toasts, 1)

	clk.Advance(time.Millisecond)
	assert.Empty(t, s.Snapshot().Toasts)
	assert.Equal(t, 0, s.PendingToastTimers())
}

func TestStore_ToastDefaultDuration(t *testing.T) {
	s, clk := newStore(t)

	toast := s.ShowToast("hello", store.SeverityInfo, 0)
	assert.Equal(t, store.DefaultToastDuration, toast.Duration)

	clk.Advance(store.DefaultToastDuration)
	assert.Empty(t, s.Snapshot().Toasts)
}

func TestStore_ToastCustomDefault(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := store.New(store.WithClock(clk), store.WithToastDuration(time.Second))
	defer s.Close()

	toast := s.ShowToast("hello", "bogus", -1)
	assert.Equal(t, time.Second, toast.Duration)
	assert.Equal(t, store.SeverityInfo, toast.Severity)
}

// TestStore_ToastsCoexist tests that identical messages are not deduplicated
// and expire independently
func TestStore_ToastsCoexist(t *testing.T) {
	s, clk := newStore(t)

	first := s.ShowToast("Saved", store.SeveritySuccess, 2*time.Second)
	clk.Advance(time.Second)
	second := s.ShowToast("Saved", store.SeveritySuccess, 2*time.Second)

	require.NotEqual(t, first.ID, second.ID)
	assert.Len(t, s.Snapshot().Toasts, 2)

	clk.Advance(time.Second)
	toasts := s.Snapshot().Toasts
	require.Len(t, toasts, 1)
	assert.Equal(t, second.ID, toasts[0].ID)

	clk.Advance(time.Second)
	assert.Empty(t, s.Snapshot().Toasts)
}

// TestStore_DismissToast tests early removal and the later timer being inert
func TestStore_DismissToast(t *testing.T) {
	s, clk := newStore(t)

	var ops []string
	s.Subscribe(func(c store.Change, _ store.Snapshot) { ops = append(ops, c.Op) })

	toast := s.ShowToast("Brochure downloaded successfully!", store.SeveritySuccess, 0)
	assert.Equal(t, store.Removed, s.DismissToast(toast.ID))
	assert.Equal(t, store.NotPresent, s.DismissToast(toast.ID))
	assert.Empty(t, s.Snapshot().Toasts)

	clk.Advance(store.DefaultToastDuration)
	assert.Equal(t, []string{store.OpShowToast, store.OpDismissToast}, ops)
	assert.Equal(t, 0, clk.Pending())
}

func TestStore_CloseStopsTimers(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := store.New(store.WithClock(clk))

	s.ShowToast("a", store.SeverityInfo, time.Second)
	s.ShowToast("b", store.SeverityInfo, time.Second)
	require.Equal(t, 2, clk.Pending())

	s.Close()
	assert.Equal(t, 0, clk.Pending())
	assert.Equal(t, 0, s.PendingToastTimers())

	// state stays readable
	assert.Len(t, s.Snapshot().Toasts, 2)
}

func TestStore_DefaultToastIDsAreULIDs(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := store.New(store.WithClock(clk))
	defer s.Close()

	a := s.ShowToast("a", store.SeverityInfo, 0)
	b := s.ShowToast("b", store.SeverityInfo, 0)

	id, err := ulid.ParseStrict(a.ID)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(epoch), id.Time())
	assert.Less(t, a.ID, b.ID)
}

func TestStore_RealClockExpiry(t *testing.T) {
	s := store.New()
	defer s.Close()

	s.ShowToast("quick", store.SeverityInfo, 20*time.Millisecond)
	assert.Eventually(t, func() bool {
		return len(s.Snapshot().Toasts) == 0
	}, time.Second, 5*time.Millisecond)
}
