// Package format renders catalog values for display
package format

import (
	"errors"
	"strings"

	"diamond-catalog-api/internal/catalog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var errInvalidLocale = errors.New("invalid locale")

// Formatter renders prices and weights for one locale
type Formatter struct {
	printer *message.Printer
}

// New creates a Formatter for the given BCP 47 tag. An empty tag means English.
func New(locale string) (*Formatter, error) {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	tag := language.English
	if locale != "" {
		parsed, err := language.Parse(locale)
		if err != nil {
			return nil, errors.Join(errInvalidLocale, err)
		}
		tag = parsed
	}
	return &Formatter{printer: message.NewPrinter(tag)}, nil
}

// Default is the English formatter
var Default = &Formatter{printer: message.NewPrinter(language.English)}

// Price renders whole currency units, e.g. "$1,850"
func (f *Formatter) Price(amount int) string {
	return f.printer.Sprintf("$%d", amount)
}

// PriceRange renders "$1,850 - $2,120"
func (f *Formatter) PriceRange(lo, hi int) string {
	return f.Price(lo) + " - " + f.Price(hi)
}

// Carat renders "0.72 ct"
func (f *Formatter) Carat(w float64) string {
	return f.printer.Sprintf("%.2f ct", w)
}

// CompareRow is one diamond rendered as compare table cells
type CompareRow struct {
	ID     string            `json:"id"`
	Image  string            `json:"image"`
	Fields map[string]string `json:"fields"`
}

// CompareFields lists the compare table rows in display order
var CompareFields = []string{
	"Shape", "Carat", "Color", "Clarity", "Cut", "Certificate", "Price Range", "Availability",
}

// CompareTable renders diamonds as compare table columns
func (f *Formatter) CompareTable(diamonds []catalog.Diamond) []CompareRow {
	rows := make([]CompareRow, 0, len(diamonds))
	for _, d := range diamonds {
		rows = append(rows, CompareRow{
			ID:    d.ID,
			Image: d.Image,
			Fields: map[string]string{
				"Shape":        string(d.Shape),
				"Carat":        f.Carat(d.Carat),
				"Color":        string(d.Color),
				"Clarity":      string(d.Clarity),
				"Cut":          string(d.Cut),
				"Certificate":  string(d.CertType),
				"Price Range":  f.PriceRange(d.PriceMin, d.PriceMax),
				"Availability": string(d.Availability),
			},
		})
	}
	return rows
}
