package catalog

import (
	"errors"
	"fmt"
	"slices"
)

// Shape is the cut outline of a stone
type Shape string

const (
	ShapeRound    Shape = "Round"
	ShapePrincess Shape = "Princess"
	ShapeOval     Shape = "Oval"
	ShapeEmerald  Shape = "Emerald"
	ShapeCushion  Shape = "Cushion"
	ShapeMarquise Shape = "Marquise"
	ShapePear     Shape = "Pear"
	ShapeRadiant  Shape = "Radiant"
	ShapeAsscher  Shape = "Asscher"
	ShapeHeart    Shape = "Heart"
)

// Shapes lists every shape in display order
var Shapes = []Shape{
	ShapeRound, ShapePrincess, ShapeOval, ShapeEmerald, ShapeCushion,
	ShapeMarquise, ShapePear, ShapeRadiant, ShapeAsscher, ShapeHeart,
}

// Color is a GIA color grade, D (best) to M
type Color string

// Colors lists color grades from best to worst
var Colors = []Color{"D", "E", "F", "G", "H", "I", "J", "K", "L", "M"}

// Clarity is a clarity grade, IF (best) to I2
type Clarity string

// Clarities lists clarity grades from best to worst
var Clarities = []Clarity{"IF", "VVS1", "VVS2", "VS1", "VS2", "SI1", "SI2", "I1", "I2"}

// Cut is the cut quality grade
type Cut string

const (
	CutExcellent Cut = "Excellent"
	CutVeryGood  Cut = "Very Good"
	CutGood      Cut = "Good"
)

// Cuts lists cut grades from best to worst
var Cuts = []Cut{CutExcellent, CutVeryGood, CutGood}

// CertType is the grading laboratory that certified the stone
type CertType string

const (
	CertGIA  CertType = "GIA"
	CertIGI  CertType = "IGI"
	CertHRD  CertType = "HRD"
	CertGCAL CertType = "GCAL"
)

// CertTypes lists the supported grading laboratories
var CertTypes = []CertType{CertGIA, CertIGI, CertHRD, CertGCAL}

// Availability is the stock status of a stone
type Availability string

const (
	InStock     Availability = "In Stock"
	MadeToOrder Availability = "Made to Order"
)

// Availabilities lists every availability status
var Availabilities = []Availability{InStock, MadeToOrder}

func (s Shape) Valid() bool        { return slices.Contains(Shapes, s) }
func (c Color) Valid() bool        { return slices.Contains(Colors, c) }
func (c Clarity) Valid() bool      { return slices.Contains(Clarities, c) }
func (c Cut) Valid() bool          { return slices.Contains(Cuts, c) }
func (c CertType) Valid() bool     { return slices.Contains(CertTypes, c) }
func (a Availability) Valid() bool { return slices.Contains(Availabilities, a) }

// Rank returns the position of the grade in best-to-worst order, or -1
func (c Color) Rank() int { return slices.Index(Colors, c) }

// Rank returns the position of the grade in best-to-worst order, or -1
func (c Clarity) Rank() int { return slices.Index(Clarities, c) }

// Rank returns the position of the grade in best-to-worst order, or -1
func (c Cut) Rank() int { return slices.Index(Cuts, c) }

// Diamond is an immutable catalog entry
type Diamond struct {
	ID           string       `json:"id" yaml:"id"`
	Shape        Shape        `json:"shape" yaml:"shape"`
	Carat        float64      `json:"carat" yaml:"carat"`
	Color        Color        `json:"color" yaml:"color"`
	Clarity      Clarity      `json:"clarity" yaml:"clarity"`
	Cut          Cut          `json:"cut" yaml:"cut"`
	CertType     CertType     `json:"certType" yaml:"certType"`
	PriceMin     int          `json:"priceMin" yaml:"priceMin"`
	PriceMax     int          `json:"priceMax" yaml:"priceMax"`
	Availability Availability `json:"availability" yaml:"availability"`
	Image        string       `json:"image" yaml:"image"`
	CertNumber   string       `json:"certNumber,omitempty" yaml:"certNumber,omitempty"`
}

// GradingCertificate returns the lab report issued for the stone, or false
// when the diamond carries no certificate number
func (d Diamond) GradingCertificate() (Certificate, bool) {
	if d.CertNumber == "" {
		return Certificate{}, false
	}
	return Certificate{
		Name:        fmt.Sprintf("%s Certificate", d.CertType),
		Type:        string(d.CertType),
		Number:      d.CertNumber,
		Description: fmt.Sprintf("%s grading report %s for %s", d.CertType, d.CertNumber, d.ID),
	}, true
}

// Validate checks the record against the catalog schema
func (d Diamond) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if !d.Shape.Valid() {
		errs = append(errs, fmt.Errorf("unknown shape %q", d.Shape))
	}
	if !(d.Carat > 0) {
		errs = append(errs, fmt.Errorf("carat must be positive, got %v", d.Carat))
	}
	if !d.Color.Valid() {
		errs = append(errs, fmt.Errorf("unknown color %q", d.Color))
	}
	if !d.Clarity.Valid() {
		errs = append(errs, fmt.Errorf("unknown clarity %q", d.Clarity))
	}
	if !d.Cut.Valid() {
		errs = append(errs, fmt.Errorf("unknown cut %q", d.Cut))
	}
	if !d.CertType.Valid() {
		errs = append(errs, fmt.Errorf("unknown cert type %q", d.CertType))
	}
	if d.PriceMin < 0 || d.PriceMin > d.PriceMax {
		errs = append(errs, fmt.Errorf("invalid price range [%d, %d]", d.PriceMin, d.PriceMax))
	}
	if !d.Availability.Valid() {
		errs = append(errs, fmt.Errorf("unknown availability %q", d.Availability))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("diamond %q: %w", d.ID, err)
	}
	return nil
}

// Certificate is a document shown in the certificate viewer: a company
// accreditation from the seed, or a diamond's own grading report
type Certificate struct {
	ID          int    `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Number      string `json:"number,omitempty" yaml:"number,omitempty"`
	Description string `json:"description" yaml:"description"`
	Image       string `json:"image,omitempty" yaml:"image,omitempty"`
	DownloadURL string `json:"downloadUrl" yaml:"downloadUrl"`
}
