package paypal

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/premiumgate/premiumgate/internal/metrics"
)

// fakePayPal is an httptest-backed stand-in for the PayPal REST API.
type fakePayPal struct {
	t      *testing.T
	server *httptest.Server

	tokenCalls atomic.Int32
	tokenDelay time.Duration
	tokenBody  map[string]any
	tokenCode  int

	mu         sync.Mutex
	orders     map[string]map[string]any
	lastAuth   string
	queries    []map[string][]string
	verify     string
	verified   []map[string]any
	search     any
	searchCode int
}

func newFakePayPal(t *testing.T) *fakePayPal {
	t.Helper()
	f := &fakePayPal{
		t:          t,
		tokenBody:  map[string]any{"access_token": "A21AA-token", "expires_in": 32400, "scope": "https://uri.paypal.com/services/reporting/search/read openid"},
		tokenCode:  http.StatusOK,
		orders:     map[string]map[string]any{},
		verify:     "SUCCESS",
		search:     map[string]any{"transaction_details": []any{}},
		searchCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", f.handleToken)
	mux.HandleFunc("/v2/checkout/orders/", f.handleOrder)
	mux.HandleFunc("/v1/reporting/transactions", f.handleSearch)
	mux.HandleFunc("/v1/notifications/verify-webhook-signature", f.handleVerify)

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakePayPal) client(t *testing.T) *Client {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return NewClient(Config{
		BaseURL:           f.server.URL + "/",
		ClientID:          "client-id",
		ClientSecret:      "client-secret",
		ReportingLocation: loc,
		PageSize:          100,
		WebhookID:         "WH-ID",
		HTTPClient:        f.server.Client(),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewNoop())
}

func (f *fakePayPal) handleToken(w http.ResponseWriter, r *http.Request) {
	f.tokenCalls.Add(1)
	if f.tokenDelay > 0 {
		time.Sleep(f.tokenDelay)
	}

	user, pass, ok := r.BasicAuth()
	if !ok || user != "client-id" || pass != "client-secret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "client_credentials" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.tokenCode)
	_ = json.NewEncoder(w).Encode(f.tokenBody)
}

func (f *fakePayPal) recordAuth(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.Header.Get("Authorization")
}

func (f *fakePayPal) handleOrder(w http.ResponseWriter, r *http.Request) {
	f.recordAuth(r)
	id := r.URL.Path[len("/v2/checkout/orders/"):]

	f.mu.Lock()
	order, ok := f.orders[id]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"name":"RESOURCE_NOT_FOUND","message":"The specified resource does not exist."}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(order)
}

func (f *fakePayPal) handleSearch(w http.ResponseWriter, r *http.Request) {
	f.recordAuth(r)
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query())
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(f.searchCode)
	_ = json.NewEncoder(w).Encode(f.search)
}

func (f *fakePayPal) handleVerify(w http.ResponseWriter, r *http.Request) {
	f.recordAuth(r)
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.verified = append(f.verified, body)
	status := f.verify
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"verification_status": status})
}
