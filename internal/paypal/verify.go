package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/premiumgate/premiumgate/internal/webhook"
)

// ErrWebhookIDMissing is returned when verification is attempted without a webhook id.
var ErrWebhookIDMissing = errors.New("paypal webhook id not configured")

const verificationSuccess = "SUCCESS"

type verifySignatureRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type verifySignatureResponse struct {
	VerificationStatus string `json:"verification_status"`
}

// VerifyWebhookSignature asks PayPal whether body was signed for this webhook.
// Missing headers or a non-JSON body report false without calling PayPal.
func (c *Client) VerifyWebhookSignature(ctx context.Context, h webhook.Headers, body []byte) (bool, error) {
	if c.webhookID == "" {
		return false, ErrWebhookIDMissing
	}
	if !h.Signed() || !json.Valid(body) {
		return false, nil
	}

	var resp verifySignatureResponse
	if err := c.do(ctx, request{
		operation: "verify webhook signature",
		method:    http.MethodPost,
		path:      "/v1/notifications/verify-webhook-signature",
		body: verifySignatureRequest{
			AuthAlgo:         h.AuthAlgo,
			CertURL:          h.CertURL,
			TransmissionID:   h.TransmissionID,
			TransmissionSig:  h.TransmissionSig,
			TransmissionTime: h.TransmissionTime,
			WebhookID:        c.webhookID,
			WebhookEvent:     json.RawMessage(body),
		},
	}, &resp); err != nil {
		return false, err
	}

	return resp.VerificationStatus == verificationSuccess, nil
}
