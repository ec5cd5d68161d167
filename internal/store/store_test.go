package store_test

import (
	"fmt"
	"testing"
	"time"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/clock"
	"diamond-catalog-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var epoch = time.Date(2026, 10, 5, 9, 0, 0, 0, time.UTC)

func diamond(id string) catalog.Diamond {
	return catalog.Diamond{
		ID: id, Shape: catalog.ShapeRound, Carat: 1, Color: "E", Clarity: "VS1",
		Cut: catalog.CutExcellent, CertType: catalog.CertGIA, PriceMin: 1000, PriceMax: 1200,
		Availability: catalog.InStock,
	}
}

func newStore(t *testing.T) (*store.Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	seq := 0
	s := store.New(
		store.WithClock(clk),
		store.WithIDGenerator(func(time.Time) string {
			seq++
			return fmt.Sprintf("toast-%d", seq)
		}),
	)
	t.Cleanup(s.Close)
	return s, clk
}

// TestStore_InitialState tests the empty default state
func TestStore_InitialState(t *testing.T) {
	s, _ := newStore(t)

	snap := s.Snapshot()
	assert.Empty(t, snap.RFQItems)
	assert.Empty(t, snap.CompareItems)
	assert.Empty(t, snap.Toasts)
	assert.Equal(t, store.KindNone, snap.Modal.Kind())
	assert.Equal(t, catalog.DefaultFilters(), snap.Filters)
	assert.Equal(t, uint64(0), snap.Version)
}

// TestStore_AddToRFQ_MergesByID tests that re-adding a diamond increments quantity
func TestStore_AddToRFQ_MergesByID(t *testing.T) {
	s, _ := newStore(t)
	p := diamond("ED-RND-001")

	assert.Equal(t, store.Added, s.AddToRFQ(p, 2))
	assert.Equal(t, store.Merged, s.AddToRFQ(p, 3))

	snap := s.Snapshot()
	require.Len(t, snap.RFQItems, 1)
	assert.Equal(t, 5, snap.RFQItems[0].Quantity)
	assert.Equal(t, 5, snap.RFQCount())
}

func TestStore_AddToRFQ_ClampsQuantity(t *testing.T) {
	s, _ := newStore(t)

	s.AddToRFQ(diamond("a"), 0)
	s.AddToRFQ(diamond("b"), -4)

	snap := s.Snapshot()
	require.Len(t, snap.RFQItems, 2)
	assert.Equal(t, 1, snap.RFQItems[0].Quantity)
	assert.Equal(t, 1, snap.RFQItems[1].Quantity)
}

func TestStore_RFQMutations(t *testing.T) {
	s, _ := newStore(t)
	s.AddToRFQ(diamond("a"), 1)
	s.AddToRFQ(diamond("b"), 1)

	assert.Equal(t, store.Updated, s.UpdateRFQQuantity("a", 7))
	assert.Equal(t, store.NotPresent, s.UpdateRFQQuantity("zzz", 7))

	// the store does not police quantities it is given
	assert.Equal(t, store.Updated, s.UpdateRFQQuantity("b", 0))

	assert.Equal(t, store.Updated, s.AnnotateRFQ("a", "matched pair"))
	assert.Equal(t, store.NotPresent, s.AnnotateRFQ("zzz", "x"))

	snap := s.Snapshot()
	assert.Equal(t, 7, snap.RFQItems[0].Quantity)
	assert.Equal(t, "matched pair", snap.RFQItems[0].Notes)
	assert.Equal(t, 0, snap.RFQItems[1].Quantity)

	assert.Equal(t, store.Removed, s.RemoveFromRFQ("a"))
	assert.Equal(t, store.NotPresent, s.RemoveFromRFQ("a"))
	require.Len(t, s.Snapshot().RFQItems, 1)

	assert.Equal(t, store.Removed, s.ClearRFQ())
	assert.Equal(t, store.Unchanged, s.ClearRFQ())
	assert.Empty(t, s.Snapshot().RFQItems)
}

// TestStore_AddToCompare_Cap tests that a fifth diamond is rejected
func TestStore_AddToCompare_Cap(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.Equal(t, store.Added, s.AddToCompare(diamond(id)))
	}
	before := s.Snapshot()

	assert.Equal(t, store.CapacityExceeded, s.AddToCompare(diamond("e")))

	after := s.Snapshot()
	assert.Equal(t, before.CompareItems, after.CompareItems)
	assert.Equal(t, before.Version, after.Version)
}

// TestStore_AddToCompare_Duplicate tests that duplicates neither add nor reorder
func TestStore_AddToCompare_Duplicate(t *testing.T) {
	s, _ := newStore(t)
	s.AddToCompare(diamond("a"))
	s.AddToCompare(diamond("b"))

	assert.Equal(t, store.AlreadyPresent, s.AddToCompare(diamond("a")))

	snap := s.Snapshot()
	require.Len(t, snap.CompareItems, 2)
	assert.Equal(t, "a", snap.CompareItems[0].ID)
	assert.Equal(t, "b", snap.CompareItems[1].ID)
}

func TestStore_AddToCompare_DuplicateWhenFull(t *testing.T) {
	s, _ := newStore(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		s.AddToCompare(diamond(id))
	}

	assert.Equal(t, store.CapacityExceeded, s.AddToCompare(diamond("c")))
}

func TestStore_CompareRemoval(t *testing.T) {
	s, _ := newStore(t)
	s.AddToCompare(diamond("a"))
	s.AddToCompare(diamond("b"))

	assert.Equal(t, store.Removed, s.RemoveFromCompare("a"))
	assert.Equal(t, store.NotPresent, s.RemoveFromCompare("a"))
	assert.Equal(t, store.Removed, s.ClearCompare())
	assert.Equal(t, store.Unchanged, s.ClearCompare())
	assert.Empty(t, s.Snapshot().CompareItems)
}

// TestStore_OpenModal_Replaces tests that a new modal discards the previous payload
func TestStore_OpenModal_Replaces(t *testing.T) {
	s, _ := newStore(t)

	s.OpenModal(store.ProductDetail{Diamond: diamond("a")})
	s.OpenModal(store.CertificateViewer{Certificate: catalog.Certificate{ID: 2, Name: "IGI"}})

	m := s.Snapshot().Modal
	cert, ok := m.(store.CertificateViewer)
	require.True(t, ok, "expected certificate viewer, got %T", m)
	assert.Equal(t, 2, cert.Certificate.ID)

	assert.Equal(t, store.Updated, s.CloseModal())
	assert.Equal(t, store.KindNone, s.Snapshot().Modal.Kind())
	assert.Equal(t, store.Unchanged, s.CloseModal())

	s.OpenModal(nil)
	assert.Equal(t, store.KindNone, s.Snapshot().Modal.Kind())
}

// TestStore_SetFilters_Merges tests that patches accumulate instead of replacing
func TestStore_SetFilters_Merges(t *testing.T) {
	s, _ := newStore(t)

	colors := []catalog.Color{"D"}
	clarities := []catalog.Clarity{"VVS1"}
	_, err := s.SetFilters(catalog.FilterPatch{Colors: &colors})
	require.NoError(t, err)
	out, err := s.SetFilters(catalog.FilterPatch{Clarities: &clarities})
	require.NoError(t, err)
	assert.Equal(t, store.Updated, out)

	f := s.Snapshot().Filters
	assert.Equal(t, []catalog.Color{"D"}, f.Colors)
	assert.Equal(t, []catalog.Clarity{"VVS1"}, f.Clarities)

	assert.Equal(t, store.Updated, s.ResetFilters())
	assert.Equal(t, catalog.DefaultFilters(), s.Snapshot().Filters)
}

func TestStore_SetFilters_RejectsInvalid(t *testing.T) {
	s, _ := newStore(t)
	caratMin := 4.0
	caratMax := 2.0

	_, err := s.SetFilters(catalog.FilterPatch{CaratMin: &caratMin})
	require.NoError(t, err)

	out, err := s.SetFilters(catalog.FilterPatch{CaratMax: &caratMax})
	assert.ErrorIs(t, err, store.ErrInvalidFilters)
	assert.Equal(t, store.Unchanged, out)
	assert.Equal(t, 4.0, s.Snapshot().Filters.CaratMin)
	assert.Equal(t, float64(catalog.DefaultCaratMax), s.Snapshot().Filters.CaratMax)

	out, err = s.SetFilters(catalog.FilterPatch{})
	assert.NoError(t, err)
	assert.Equal(t, store.Unchanged, out)
}

// TestStore_SnapshotIsolation tests that callers cannot reach into live state
func TestStore_SnapshotIsolation(t *testing.T) {
	s, _ := newStore(t)
	s.AddToRFQ(diamond("a"), 1)
	shapes := []catalog.Shape{catalog.ShapeOval}
	_, err := s.SetFilters(catalog.FilterPatch{Shapes: &shapes})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap.RFQItems[0].Quantity = 99
	snap.Filters.Shapes[0] = catalog.ShapeHeart

	fresh := s.Snapshot()
	assert.Equal(t, 1, fresh.RFQItems[0].Quantity)
	assert.Equal(t, catalog.ShapeOval, fresh.Filters.Shapes[0])
}

// TestStore_Subscribe tests ordered notification and unsubscribe
func TestStore_Subscribe(t *testing.T) {
	s, _ := newStore(t)

	var ops []string
	var versions []uint64
	unsubscribe := s.Subscribe(func(c store.Change, snap store.Snapshot) {
		ops = append(ops, c.Op)
		versions = append(versions, snap.Version)
	})

	s.AddToRFQ(diamond("a"), 1)
	s.AddToCompare(diamond("a"))
	s.RemoveFromRFQ("missing")
	s.OpenModal(store.QuoteRequest{})

	assert.Equal(t, []string{store.OpAddToRFQ, store.OpAddToCompare, store.OpOpenModal}, ops)
	assert.Equal(t, []uint64{1, 2, 3}, versions)

	unsubscribe()
	s.CloseModal()
	assert.Len(t, ops, 3)
}
