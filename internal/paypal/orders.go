package paypal

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

type orderResponse struct {
	ID    string `json:"id"`
	Payer struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

// ResolvePayerEmail returns the payer email of an order.
// ErrOrderNotFound is returned when the order is unknown or carries no payer email.
func (c *Client) ResolvePayerEmail(ctx context.Context, orderID string) (string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return "", ErrOrderNotFound
	}

	var order orderResponse
	err := c.do(ctx, request{
		operation: "get order",
		method:    http.MethodGet,
		path:      "/v2/checkout/orders/" + url.PathEscape(orderID),
	}, &order)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", ErrOrderNotFound
		}
		return "", err
	}

	email := strings.TrimSpace(order.Payer.EmailAddress)
	if email == "" {
		return "", ErrOrderNotFound
	}
	return email, nil
}
