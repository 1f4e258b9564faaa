package paypal

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/premiumgate/premiumgate/internal/model"
)

// ReportingTimeLayout is the timestamp format the reporting API requires:
// local civil time with a colon-free offset.
const ReportingTimeLayout = "2006-01-02T15:04:05-0700"

type transactionSearchResponse struct {
	TransactionDetails []transactionDetail `json:"transaction_details"`
	TotalItems         int                 `json:"total_items"`
	TotalPages         int                 `json:"total_pages"`
}

type transactionDetail struct {
	TransactionInfo struct {
		TransactionID             string `json:"transaction_id"`
		TransactionInitiationDate string `json:"transaction_initiation_date"`
		TransactionUpdatedDate    string `json:"transaction_updated_date"`
		TransactionAmount         *struct {
			CurrencyCode string `json:"currency_code"`
			Value        string `json:"value"`
		} `json:"transaction_amount"`
	} `json:"transaction_info"`
	PayerInfo struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer_info"`
}

// FormatReportingTime renders t in loc with second precision.
func FormatReportingTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Truncate(time.Second).Format(ReportingTimeLayout)
}

// SearchTransactions lists transactions between start and end, flattened to
// {date, email, amount}.
func (c *Client) SearchTransactions(ctx context.Context, start, end time.Time) ([]model.Transaction, error) {
	query := url.Values{}
	query.Set("start_date", FormatReportingTime(start, c.location))
	query.Set("end_date", FormatReportingTime(end, c.location))
	query.Set("fields", "all")
	query.Set("page_size", strconv.Itoa(c.pageSize))

	var resp transactionSearchResponse
	if err := c.do(ctx, request{
		operation: "transaction search",
		method:    http.MethodGet,
		path:      "/v1/reporting/transactions",
		query:     query,
		reporting: true,
	}, &resp); err != nil {
		return nil, err
	}

	if resp.TotalPages > 1 {
		c.logger.Warn("transaction search truncated to first page",
			"total_items", resp.TotalItems,
			"total_pages", resp.TotalPages,
			"page_size", c.pageSize,
		)
	}

	txns := make([]model.Transaction, 0, len(resp.TransactionDetails))
	for _, d := range resp.TransactionDetails {
		txns = append(txns, normalizeTransaction(d))
	}
	return txns, nil
}

// SearchTransactionsLastDay searches the trailing 24 hours.
func (c *Client) SearchTransactionsLastDay(ctx context.Context) ([]model.Transaction, error) {
	return c.SearchTransactionsSince(ctx, 24*time.Hour)
}

// SearchTransactionsSince searches the window (now-d, now].
func (c *Client) SearchTransactionsSince(ctx context.Context, d time.Duration) ([]model.Transaction, error) {
	end := c.now()
	return c.SearchTransactions(ctx, end.Add(-d), end)
}

func normalizeTransaction(d transactionDetail) model.Transaction {
	info := d.TransactionInfo

	var amount string
	if a := info.TransactionAmount; a != nil && a.Value != "" {
		amount = strings.TrimSpace(a.Value + " " + a.CurrencyCode)
	}

	date := info.TransactionInitiationDate
	if date == "" {
		date = info.TransactionUpdatedDate
	}

	return model.Transaction{
		Date:   date,
		Email:  d.PayerInfo.EmailAddress,
		Amount: amount,
	}
}
