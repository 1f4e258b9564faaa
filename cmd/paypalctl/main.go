// Command paypalctl exercises the PayPal integration from a shell:
//
//	paypalctl token                   force a token refresh and print it masked
//	paypalctl transactions [-hours N] print recent transactions as JSON
//	paypalctl replay -url URL [-file event.json | -order ID -email E]
//	                                  post a webhook event to a running server
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/paypal"
	"github.com/premiumgate/premiumgate/internal/poller"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

// cliConfig is the PayPal subset of the server configuration.
type cliConfig struct {
	ClientID         string        `env:"PAYPAL_CLIENT_ID,required"`
	ClientSecret     string        `env:"PAYPAL_CLIENT_SECRET,required"`
	BaseURL          string        `env:"PAYPAL_BASE_URL" envDefault:"https://api-m.sandbox.paypal.com"`
	Timeout          time.Duration `env:"PAYPAL_TIMEOUT" envDefault:"20s"`
	ReportingTimeout time.Duration `env:"PAYPAL_REPORTING_TIMEOUT" envDefault:"30s"`
	ReportingTZ      string        `env:"PAYPAL_REPORTING_TZ" envDefault:"America/New_York"`
	PageSize         int           `env:"PAYPAL_PAGE_SIZE" envDefault:"100"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"warn"`
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "paypalctl:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}

	// replay talks to our own server and needs no PayPal credentials.
	if args[0] == "replay" {
		return runReplay(ctx, args[1:], stdout)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	switch args[0] {
	case "token":
		return runToken(ctx, client, stdout)
	case "transactions":
		return runTransactions(ctx, client, args[1:], logger, stdout)
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: paypalctl token | transactions [-hours N] | replay -url URL [-file F | -order ID -email E]")
}

func loadConfig() (*cliConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	cfg := &cliConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func newClient(cfg *cliConfig, logger *slog.Logger) (*paypal.Client, error) {
	loc, err := time.LoadLocation(cfg.ReportingTZ)
	if err != nil {
		return nil, fmt.Errorf("load reporting zone %q: %w", cfg.ReportingTZ, err)
	}
	return paypal.NewClient(paypal.Config{
		BaseURL:           cfg.BaseURL,
		ClientID:          cfg.ClientID,
		ClientSecret:      cfg.ClientSecret,
		Timeout:           cfg.Timeout,
		ReportingTimeout:  cfg.ReportingTimeout,
		ReportingLocation: loc,
		PageSize:          cfg.PageSize,
	}, logger, metrics.NewNoop()), nil
}

type tokenOutput struct {
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func runToken(ctx context.Context, client *paypal.Client, stdout io.Writer) error {
	if _, err := client.Tokens().Token(ctx, true); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	tok, ok := client.Tokens().Current()
	if !ok {
		return errors.New("no token after refresh")
	}
	return writeJSON(stdout, tokenOutput{
		AccessToken: maskToken(tok.AccessToken),
		Scope:       tok.Scope,
		ExpiresAt:   tok.Expiry.UTC(),
	})
}

func runTransactions(ctx context.Context, client *paypal.Client, args []string, logger *slog.Logger, stdout io.Writer) error {
	fs := flag.NewFlagSet("transactions", flag.ContinueOnError)
	hours := fs.Int("hours", 1, "search window in hours")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *hours <= 0 {
		return errors.New("-hours must be positive")
	}

	p, err := poller.New(client, nil, poller.Config{
		Location: client.ReportingLocation(),
		Window:   time.Duration(*hours) * time.Hour,
	}, logger, metrics.NewNoop())
	if err != nil {
		return err
	}

	result, err := p.RunOnce(ctx)
	if err != nil {
		return err
	}
	return writeJSON(stdout, result.Transactions)
}

func runReplay(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	target := fs.String("url", "http://localhost:8080/v1/webhooks/paypal", "webhook endpoint")
	file := fs.String("file", "", "captured event JSON; overrides -order and -email")
	orderID := fs.String("order", "", "order id for a sample CHECKOUT.ORDER.APPROVED event")
	email := fs.String("email", "", "payer email for a sample event")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var body []byte
	switch {
	case *file != "":
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		body = data
	case *orderID != "" || *email != "":
		data, err := json.Marshal(sampleEvent(*orderID, *email, time.Now()))
		if err != nil {
			return err
		}
		body = data
	default:
		return errors.New("replay needs -file, -order or -email")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, *target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	webhook.SetHeaders(req, webhook.Headers{
		TransmissionID:   uuid.NewString(),
		TransmissionTime: time.Now().UTC().Format(time.RFC3339),
	})

	resp, err := paypal.NewHTTPClient(paypal.DefaultTimeout).Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, out)
	}
	_, err = stdout.Write(out)
	return err
}

// sampleEvent builds a minimal capture-completed notification.
func sampleEvent(orderID, email string, now time.Time) map[string]any {
	resource := map[string]any{
		"create_time": now.UTC().Format(time.RFC3339),
	}
	if orderID != "" {
		resource["supplementary_data"] = map[string]any{
			"related_ids": map[string]any{"order_id": orderID},
		}
	}
	if email != "" {
		resource["payer"] = map[string]any{"email_address": email}
	}
	return map[string]any{
		"id":         "WH-" + uuid.NewString(),
		"event_type": "PAYMENT.CAPTURE.COMPLETED",
		"resource":   resource,
	}
}

// maskToken keeps the first and last four characters.
func maskToken(tok string) string {
	if len(tok) <= 12 {
		return "****"
	}
	return tok[:4] + "..." + tok[len(tok)-4:]
}

func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelWarn
	}
	return l
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
