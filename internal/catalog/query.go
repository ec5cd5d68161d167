package catalog

import (
	"cmp"
	"slices"
)

// Query returns the diamonds satisfying every clause of f, ordered by
// f.SortBy. Equal sort keys keep their input order. The input slice is not
// modified.
func Query(diamonds []Diamond, f FilterSet) []Diamond {
	out := make([]Diamond, 0, len(diamonds))
	for _, d := range diamonds {
		if Matches(d, f) {
			out = append(out, d)
		}
	}

	switch f.SortBy {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b Diamond) int { return cmp.Compare(a.PriceMin, b.PriceMin) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b Diamond) int { return cmp.Compare(b.PriceMin, a.PriceMin) })
	case SortCaratAsc:
		slices.SortStableFunc(out, func(a, b Diamond) int { return cmp.Compare(a.Carat, b.Carat) })
	case SortCaratDesc:
		slices.SortStableFunc(out, func(a, b Diamond) int { return cmp.Compare(b.Carat, a.Carat) })
	}
	return out
}

// Matches reports whether d satisfies every clause of f. The price clause
// requires the diamond's whole price range to lie inside the filter window.
func Matches(d Diamond, f FilterSet) bool {
	if !member(f.Shapes, d.Shape) ||
		!member(f.Clarities, d.Clarity) ||
		!member(f.Colors, d.Color) ||
		!member(f.Cuts, d.Cut) ||
		!member(f.CertTypes, d.CertType) ||
		!member(f.Availability, d.Availability) {
		return false
	}
	if d.Carat < f.CaratMin || d.Carat > f.CaratMax {
		return false
	}
	return d.PriceMin >= f.PriceMin && d.PriceMax <= f.PriceMax
}

// member treats an empty selection as no restriction
func member[T comparable](selected []T, v T) bool {
	return len(selected) == 0 || slices.Contains(selected, v)
}
