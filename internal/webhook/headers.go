package webhook

import "net/http"

// PayPal transmission header names.
const (
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
)

// Headers holds the transmission headers PayPal sends with each webhook.
type Headers struct {
	TransmissionID   string
	TransmissionTime string
	TransmissionSig  string
	CertURL          string
	AuthAlgo         string
	ContentType      string
	UserAgent        string
}

// HeadersFrom extracts the transmission headers from an inbound request.
func HeadersFrom(h http.Header) Headers {
	return Headers{
		TransmissionID:   h.Get(HeaderTransmissionID),
		TransmissionTime: h.Get(HeaderTransmissionTime),
		TransmissionSig:  h.Get(HeaderTransmissionSig),
		CertURL:          h.Get(HeaderCertURL),
		AuthAlgo:         h.Get(HeaderAuthAlgo),
		ContentType:      h.Get("Content-Type"),
		UserAgent:        h.Get("User-Agent"),
	}
}

// Signed reports whether every header needed for signature verification is present.
func (h Headers) Signed() bool {
	return h.TransmissionID != "" &&
		h.TransmissionTime != "" &&
		h.TransmissionSig != "" &&
		h.CertURL != "" &&
		h.AuthAlgo != ""
}

// SetHeaders applies transmission headers to an outbound request.
// Used by tests and tooling that replay captured events.
func SetHeaders(req *http.Request, h Headers) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTransmissionID, h.TransmissionID)
	req.Header.Set(HeaderTransmissionTime, h.TransmissionTime)
	req.Header.Set(HeaderTransmissionSig, h.TransmissionSig)
	req.Header.Set(HeaderCertURL, h.CertURL)
	req.Header.Set(HeaderAuthAlgo, h.AuthAlgo)
}
