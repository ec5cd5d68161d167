package leads

import (
	"path"
	"slices"
	"strings"
)

// Option is a selectable value with its display label
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// BuyerTypes lists the buyer categories offered in step one of the RFQ form
var BuyerTypes = []Option{
	{"jeweler", "Jeweler"},
	{"wholesaler", "Wholesaler"},
	{"retailChain", "Retail Chain"},
	{"brand", "Brand / Designer"},
	{"manufacturer", "Manufacturer"},
}

// Countries lists the selectable countries. Unknown values are shown verbatim.
var Countries = []Option{
	{"ae", "United Arab Emirates"},
	{"us", "United States"},
	{"uk", "United Kingdom"},
	{"de", "Germany"},
	{"hk", "Hong Kong"},
	{"sg", "Singapore"},
	{"in", "India"},
	{"be", "Belgium"},
	{"it", "Italy"},
	{"other", "Other"},
}

var (
	BudgetRanges  = []string{"$1,000 - $5,000", "$5,000 - $25,000", "$25,000 - $100,000", "$100,000 - $500,000", "$500,000+"}
	Timelines     = []string{"ASAP", "1-2 weeks", "2-4 weeks", "1-2 months", "Flexible"}
	InterestAreas = []string{"Loose Diamonds", "Melee Diamonds", "Calibrated Stones", "Custom Specifications", "Bulk Wholesale", "Lab-Grown"}
)

// CountryLabel returns the display label for a country value
func CountryLabel(value string) string {
	for _, c := range Countries {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func hasOption(options []Option, value string) bool {
	return slices.ContainsFunc(options, func(o Option) bool { return o.Value == value })
}

// BuyerDetails is step one of the RFQ form
type BuyerDetails struct {
	BuyerType   string `json:"buyerType"`
	Name        string `json:"name"`
	CompanyName string `json:"companyName,omitempty"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Country     string `json:"country"`
}

// Requirements is step two of the RFQ form
type Requirements struct {
	Interests   []string `json:"interests"`
	Quantity    string   `json:"quantity,omitempty"`
	BudgetRange string   `json:"budgetRange,omitempty"`
	Timeline    string   `json:"timeline"`
	Notes       string   `json:"notes,omitempty"`

	Attachment *Attachment `json:"attachment,omitempty"`
}

// MaxAttachmentSize is the largest accepted RFQ attachment, in bytes
const MaxAttachmentSize = 10 << 20

// AttachmentExtensions lists the accepted attachment file types
var AttachmentExtensions = []string{".pdf", ".xlsx", ".xls", ".doc", ".docx", ".jpg", ".png"}

// Attachment describes a file sent along with an RFQ
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (a Attachment) validate(errs *fieldErrors) {
	if blank(a.Name) {
		errs.add("attachment", "File name is required")
	} else if !slices.Contains(AttachmentExtensions, strings.ToLower(path.Ext(strings.TrimSpace(a.Name)))) {
		errs.add("attachment", "Unsupported file type")
	}
	switch {
	case a.Size <= 0:
		errs.add("attachment", "File is empty")
	case a.Size > MaxAttachmentSize:
		errs.add("attachment", "File size must be less than 10MB")
	}
}

// RFQForm is the full quote request
type RFQForm struct {
	BuyerDetails
	Requirements
}

// ValidateBuyer checks step one
func ValidateBuyer(b BuyerDetails) error {
	var errs fieldErrors
	switch {
	case blank(b.BuyerType):
		errs.add("buyerType", "Please select buyer type")
	case !hasOption(BuyerTypes, b.BuyerType):
		errs.add("buyerType", "Unknown buyer type")
	}
	if blank(b.Name) {
		errs.add("name", "Name is required")
	}
	switch {
	case blank(b.Email):
		errs.add("email", "Email is required")
	case !ValidEmail(b.Email):
		errs.add("email", "Invalid email format")
	}
	if blank(b.Phone) {
		errs.add("phone", "Phone/WhatsApp is required")
	}
	if blank(b.Country) {
		errs.add("country", "Please select country")
	}
	return errs.err()
}

// ValidateRequirements checks step two
func ValidateRequirements(r Requirements) error {
	var errs fieldErrors
	if len(r.Interests) == 0 {
		errs.add("interests", "Please select at least one interest")
	}
	for _, interest := range r.Interests {
		if !slices.Contains(InterestAreas, interest) {
			errs.add("interests", "Unknown interest "+interest)
		}
	}
	switch {
	case blank(r.Timeline):
		errs.add("timeline", "Please select timeline")
	case !slices.Contains(Timelines, r.Timeline):
		errs.add("timeline", "Unknown timeline")
	}
	if r.BudgetRange != "" && !slices.Contains(BudgetRanges, r.BudgetRange) {
		errs.add("budgetRange", "Unknown budget range")
	}
	if r.Attachment != nil {
		r.Attachment.validate(&errs)
	}
	return errs.err()
}

// Validate checks both steps and reports every field error at once
func (f RFQForm) Validate() error {
	var errs fieldErrors
	for _, err := range []error{ValidateBuyer(f.BuyerDetails), ValidateRequirements(f.Requirements)} {
		if ve, ok := err.(*ValidationError); ok {
			errs = append(errs, ve.Fields...)
		}
	}
	return errs.err()
}

// Sanitized returns a copy with markup stripped from every free-text field
func (f RFQForm) Sanitized() RFQForm {
	out := f
	out.Name = Sanitize(f.Name)
	out.CompanyName = Sanitize(f.CompanyName)
	out.Email = strings.TrimSpace(f.Email)
	out.Phone = Sanitize(f.Phone)
	out.Country = strings.TrimSpace(f.Country)
	out.Quantity = Sanitize(f.Quantity)
	out.Notes = Sanitize(f.Notes)
	out.Interests = slices.Clone(f.Interests)
	if f.Attachment != nil {
		a := *f.Attachment
		a.Name = Sanitize(a.Name)
		out.Attachment = &a
	}
	return out
}

// QuickRFQ is the short request sent from the product detail view
type QuickRFQ struct {
	DiamondID string `json:"diamondId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes,omitempty"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Country   string `json:"country,omitempty"`
}

func (q QuickRFQ) Validate() error {
	var errs fieldErrors
	if blank(q.DiamondID) {
		errs.add("diamondId", "Diamond is required")
	}
	switch {
	case blank(q.Email):
		errs.add("email", "Please enter your email")
	case !ValidEmail(strings.TrimSpace(q.Email)):
		errs.add("email", "Please enter a valid email")
	}
	if q.Quantity < 0 {
		errs.add("quantity", "Quantity must be positive")
	}
	return errs.err()
}

// BrochureRequest is the brochure download form
type BrochureRequest struct {
	Email            string `json:"email"`
	SubscribeUpdates bool   `json:"subscribeUpdates"`
}

func (b BrochureRequest) Validate() error {
	var errs fieldErrors
	switch {
	case blank(b.Email):
		errs.add("email", "Email is required")
	case !ValidEmail(strings.TrimSpace(b.Email)):
		errs.add("email", "Please enter a valid email")
	}
	return errs.err()
}
