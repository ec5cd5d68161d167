package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SortKey selects the ordering applied after filtering
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortCaratAsc  SortKey = "carat-asc"
	SortCaratDesc SortKey = "carat-desc"
)

// SortKeys lists the supported sort keys
var SortKeys = []SortKey{SortNewest, SortPriceAsc, SortPriceDesc, SortCaratAsc, SortCaratDesc}

func (k SortKey) Valid() bool { return slices.Contains(SortKeys, k) }

// ViewMode is the catalog layout preference
type ViewMode string

const (
	ViewGrid  ViewMode = "grid"
	ViewTable ViewMode = "table"
)

func (m ViewMode) Valid() bool { return m == ViewGrid || m == ViewTable }

// Default bounds of the numeric filter ranges
const (
	DefaultCaratMin = 0
	DefaultCaratMax = 5
	DefaultPriceMin = 0
	DefaultPriceMax = 50000
)

// FilterSet is the set of constraints narrowing the visible catalog.
// An empty multi-select set places no restriction on its dimension.
type FilterSet struct {
	Shapes       []Shape        `json:"shapes"`
	Colors       []Color        `json:"colors"`
	Clarities    []Clarity      `json:"clarities"`
	Cuts         []Cut          `json:"cuts"`
	CertTypes    []CertType     `json:"certTypes"`
	Availability []Availability `json:"availability"`
	CaratMin     float64        `json:"caratMin"`
	CaratMax     float64        `json:"caratMax"`
	PriceMin     int            `json:"priceMin"`
	PriceMax     int            `json:"priceMax"`
	SortBy       SortKey        `json:"sortBy"`
	ViewMode     ViewMode       `json:"viewMode"`
}

// DefaultFilters returns the all-inclusive filter set
func DefaultFilters() FilterSet {
	return FilterSet{
		Shapes:       []Shape{},
		Colors:       []Color{},
		Clarities:    []Clarity{},
		Cuts:         []Cut{},
		CertTypes:    []CertType{},
		Availability: []Availability{},
		CaratMin:     DefaultCaratMin,
		CaratMax:     DefaultCaratMax,
		PriceMin:     DefaultPriceMin,
		PriceMax:     DefaultPriceMax,
		SortBy:       SortNewest,
		ViewMode:     ViewGrid,
	}
}

// Clone returns a deep copy
func (f FilterSet) Clone() FilterSet {
	out := f
	out.Shapes = cloneSet(f.Shapes)
	out.Colors = cloneSet(f.Colors)
	out.Clarities = cloneSet(f.Clarities)
	out.Cuts = cloneSet(f.Cuts)
	out.CertTypes = cloneSet(f.CertTypes)
	out.Availability = cloneSet(f.Availability)
	return out
}

// Validate checks the range and membership invariants
func (f FilterSet) Validate() error {
	var errs []error
	errs = append(errs, invalidMembers("shapes", f.Shapes)...)
	errs = append(errs, invalidMembers("colors", f.Colors)...)
	errs = append(errs, invalidMembers("clarities", f.Clarities)...)
	errs = append(errs, invalidMembers("cuts", f.Cuts)...)
	errs = append(errs, invalidMembers("certTypes", f.CertTypes)...)
	errs = append(errs, invalidMembers("availability", f.Availability)...)
	if f.CaratMin < 0 || f.CaratMin > f.CaratMax {
		errs = append(errs, fmt.Errorf("carat range [%v, %v] is invalid", f.CaratMin, f.CaratMax))
	}
	if f.PriceMin < 0 || f.PriceMin > f.PriceMax {
		errs = append(errs, fmt.Errorf("price range [%d, %d] is invalid", f.PriceMin, f.PriceMax))
	}
	if !f.SortBy.Valid() {
		errs = append(errs, fmt.Errorf("unknown sort key %q", f.SortBy))
	}
	if !f.ViewMode.Valid() {
		errs = append(errs, fmt.Errorf("unknown view mode %q", f.ViewMode))
	}
	return errors.Join(errs...)
}

// Key returns a canonical string for the parts of the filter set that affect
// query results. Set order and view mode do not change the key.
func (f FilterSet) Key() string {
	var b strings.Builder
	writeSet(&b, f.Shapes)
	writeSet(&b, f.Colors)
	writeSet(&b, f.Clarities)
	writeSet(&b, f.Cuts)
	writeSet(&b, f.CertTypes)
	writeSet(&b, f.Availability)
	b.WriteString(strconv.FormatFloat(f.CaratMin, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(f.CaratMax, 'g', -1, 64))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(f.PriceMin))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(f.PriceMax))
	b.WriteByte('|')
	b.WriteString(string(f.SortBy))
	return b.String()
}

// FilterPatch is a partial filter set; nil fields are left untouched by Apply
type FilterPatch struct {
	Shapes       *[]Shape        `json:"shapes,omitempty"`
	Colors       *[]Color        `json:"colors,omitempty"`
	Clarities    *[]Clarity      `json:"clarities,omitempty"`
	Cuts         *[]Cut          `json:"cuts,omitempty"`
	CertTypes    *[]CertType     `json:"certTypes,omitempty"`
	Availability *[]Availability `json:"availability,omitempty"`
	CaratMin     *float64        `json:"caratMin,omitempty"`
	CaratMax     *float64        `json:"caratMax,omitempty"`
	PriceMin     *int            `json:"priceMin,omitempty"`
	PriceMax     *int            `json:"priceMax,omitempty"`
	SortBy       *SortKey        `json:"sortBy,omitempty"`
	ViewMode     *ViewMode       `json:"viewMode,omitempty"`
}

// Apply shallow-merges the patch into f and returns the result
func (p FilterPatch) Apply(f FilterSet) FilterSet {
	out := f.Clone()
	if p.Shapes != nil {
		out.Shapes = cloneSet(*p.Shapes)
	}
	if p.Colors != nil {
		out.Colors = cloneSet(*p.Colors)
	}
	if p.Clarities != nil {
		out.Clarities = cloneSet(*p.Clarities)
	}
	if p.Cuts != nil {
		out.Cuts = cloneSet(*p.Cuts)
	}
	if p.CertTypes != nil {
		out.CertTypes = cloneSet(*p.CertTypes)
	}
	if p.Availability != nil {
		out.Availability = cloneSet(*p.Availability)
	}
	if p.CaratMin != nil {
		out.CaratMin = *p.CaratMin
	}
	if p.CaratMax != nil {
		out.CaratMax = *p.CaratMax
	}
	if p.PriceMin != nil {
		out.PriceMin = *p.PriceMin
	}
	if p.PriceMax != nil {
		out.PriceMax = *p.PriceMax
	}
	if p.SortBy != nil {
		out.SortBy = *p.SortBy
	}
	if p.ViewMode != nil {
		out.ViewMode = *p.ViewMode
	}
	return out
}

// IsEmpty reports whether the patch sets no field
func (p FilterPatch) IsEmpty() bool {
	return p == FilterPatch{}
}

type validator interface {
	~string
	Valid() bool
}

func invalidMembers[T validator](field string, values []T) []error {
	var errs []error
	for _, v := range values {
		if !v.Valid() {
			errs = append(errs, fmt.Errorf("%s: unknown value %q", field, v))
		}
	}
	return errs
}

func cloneSet[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return slices.Clone(values)
}

func writeSet[T ~string](b *strings.Builder, values []T) {
	sorted := make([]string, len(values))
	for i, v := range values {
		sorted[i] = string(v)
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	b.WriteString(strings.Join(sorted, ","))
	b.WriteByte('|')
}
