package store

import "diamond-catalog-api/internal/catalog"

// ModalKind tags the active modal
type ModalKind string

const (
	KindNone              ModalKind = "none"
	KindQuoteRequest      ModalKind = "quote-request"
	KindBrochureDownload  ModalKind = "brochure-download"
	KindCertificateViewer ModalKind = "certificate-viewer"
	KindCompareViewer     ModalKind = "compare-viewer"
	KindCallBooking       ModalKind = "call-booking"
	KindWhatsAppComposer  ModalKind = "whatsapp-composer"
	KindProductDetail     ModalKind = "product-detail"
	KindImageViewer       ModalKind = "image-viewer"
)

// ModalKinds lists every kind, none included
var ModalKinds = []ModalKind{
	KindNone, KindQuoteRequest, KindBrochureDownload, KindCertificateViewer, KindCompareViewer,
	KindCallBooking, KindWhatsAppComposer, KindProductDetail, KindImageViewer,
}

// Modal is the active overlay. Each kind is its own type carrying its own
// payload; switch on the concrete type to read it.
type Modal interface {
	Kind() ModalKind
	modal()
}

type NoModal struct{}

type QuoteRequest struct{}

type BrochureDownload struct{}

type CertificateViewer struct {
	Certificate catalog.Certificate
}

type CompareViewer struct{}

type CallBooking struct{}

type WhatsAppComposer struct{}

type ProductDetail struct {
	Diamond catalog.Diamond
}

type ImageViewer struct {
	Diamond  catalog.Diamond
	ImageURL string
}

func (NoModal) Kind() ModalKind           { return KindNone }
func (QuoteRequest) Kind() ModalKind      { return KindQuoteRequest }
func (BrochureDownload) Kind() ModalKind  { return KindBrochureDownload }
func (CertificateViewer) Kind() ModalKind { return KindCertificateViewer }
func (CompareViewer) Kind() ModalKind     { return KindCompareViewer }
func (CallBooking) Kind() ModalKind       { return KindCallBooking }
func (WhatsAppComposer) Kind() ModalKind  { return KindWhatsAppComposer }
func (ProductDetail) Kind() ModalKind     { return KindProductDetail }
func (ImageViewer) Kind() ModalKind       { return KindImageViewer }

func (NoModal) modal()           {}
func (QuoteRequest) modal()      {}
func (BrochureDownload) modal()  {}
func (CertificateViewer) modal() {}
func (CompareViewer) modal()     {}
func (CallBooking) modal()       {}
func (WhatsAppComposer) modal()  {}
func (ProductDetail) modal()     {}
func (ImageViewer) modal()       {}
