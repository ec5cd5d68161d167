package leads

import (
	"net/url"
	"strings"
	"unicode"
)

// WhatsAppRequest is the composer form. Every field is optional.
type WhatsAppRequest struct {
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	Requirement string `json:"requirement,omitempty"`
}

// WhatsAppMessage is the composed text and its click-to-chat link
type WhatsAppMessage struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// ComposeWhatsApp builds the greeting for req and a wa.me link to number
func ComposeWhatsApp(req WhatsAppRequest, number string) WhatsAppMessage {
	var b strings.Builder
	b.WriteString("Hi, I'm interested in diamond supply.")
	if city := Sanitize(req.City); city != "" {
		b.WriteString(" City: " + city)
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		b.WriteString(" Country: " + CountryLabel(country))
	}
	if requirement := Sanitize(req.Requirement); requirement != "" {
		b.WriteString(" Requirement: " + requirement)
	}

	message := b.String()
	return WhatsAppMessage{
		Message: message,
		URL:     "https://wa.me/" + digitsOnly(number) + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20"),
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
