// Package poller periodically pulls recent PayPal transactions and, when
// enabled, replays them through the reconciler to catch missed webhooks.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/model"
	"github.com/premiumgate/premiumgate/internal/webhook"
)

// DefaultWindow is how far back each run searches.
const DefaultWindow = 24 * time.Hour

// ErrAlreadyRunning is returned by RunOnce when another run is in progress.
var ErrAlreadyRunning = errors.New("poll already running")

// TransactionSearcher lists transactions in a trailing window.
type TransactionSearcher interface {
	SearchTransactionsSince(ctx context.Context, window time.Duration) ([]model.Transaction, error)
}

// Applier records a payment for an email.
type Applier interface {
	Apply(ctx context.Context, email, date string) (model.ReconcileAction, error)
}

// Config configures a Poller.
type Config struct {
	// Schedule is a standard cron expression or descriptor such as "@hourly".
	Schedule string
	Location *time.Location
	Window   time.Duration
	// Apply replays each transaction with a payer email through the Applier.
	Apply bool
}

// RunResult summarizes one poll.
type RunResult struct {
	StartedAt    time.Time           `json:"started_at"`
	Transactions []model.Transaction `json:"transactions"`
	Created      int                 `json:"created"`
	Updated      int                 `json:"updated"`
	Skipped      int                 `json:"skipped"`
	Failed       int                 `json:"failed"`
}

// Poller runs transaction searches on a cron schedule.
type Poller struct {
	searcher TransactionSearcher
	applier  Applier
	cfg      Config
	logger   *slog.Logger
	metrics  metrics.Recorder

	cron    *cron.Cron
	running sync.Mutex

	baseCtx context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

// New creates a Poller. applier may be nil when cfg.Apply is false.
func New(searcher TransactionSearcher, applier Applier, cfg Config, logger *slog.Logger, recorder metrics.Recorder) (*Poller, error) {
	if cfg.Apply && applier == nil {
		return nil, errors.New("poller: apply enabled without an applier")
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	logger = logger.With("component", "poller")
	ctx, cancel := context.WithCancel(context.Background())

	p := &Poller{
		searcher: searcher,
		applier:  applier,
		cfg:      cfg,
		logger:   logger,
		metrics:  recorder,
		cron:     cron.New(cron.WithLocation(cfg.Location), cron.WithLogger(cronLogger{logger})),
		baseCtx:  ctx,
		cancel:   cancel,
		now:      time.Now,
	}

	if cfg.Schedule != "" {
		if _, err := p.cron.AddFunc(cfg.Schedule, p.runScheduled); err != nil {
			cancel()
			return nil, fmt.Errorf("poller: invalid schedule %q: %w", cfg.Schedule, err)
		}
	}

	return p, nil
}

// Start begins running scheduled polls in the background.
func (p *Poller) Start() {
	p.logger.Info("poller started", "schedule", p.cfg.Schedule, "apply", p.cfg.Apply)
	p.cron.Start()
}

// Shutdown stops the schedule and waits for a running poll to finish.
func (p *Poller) Shutdown(ctx context.Context) error {
	done := p.cron.Stop()
	select {
	case <-done.Done():
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}

func (p *Poller) runScheduled() {
	if _, err := p.RunOnce(p.baseCtx); err != nil {
		p.logger.Error("scheduled poll failed", "error", err)
	}
}

// RunOnce performs a single search and, when configured, applies the results.
// Search errors are returned unchanged; no retry is attempted.
func (p *Poller) RunOnce(ctx context.Context) (*RunResult, error) {
	if !p.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer p.running.Unlock()

	result := &RunResult{StartedAt: p.now().UTC()}

	txns, err := p.searcher.SearchTransactionsSince(ctx, p.cfg.Window)
	if err != nil {
		p.metrics.IncPollerRun(metrics.StatusFailed)
		return nil, fmt.Errorf("search transactions: %w", err)
	}
	result.Transactions = txns
	p.metrics.AddTransactionsPolled(len(txns))

	if p.cfg.Apply {
		p.apply(ctx, txns, result)
	}

	p.metrics.IncPollerRun(metrics.StatusSuccess)
	p.logger.Info("poll completed",
		"transactions", len(txns),
		"created", result.Created,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}

func (p *Poller) apply(ctx context.Context, txns []model.Transaction, result *RunResult) {
	for _, txn := range txns {
		email := model.NormalizeEmail(txn.Email)
		if email == "" {
			result.Skipped++
			continue
		}

		action, err := p.applier.Apply(ctx, email, transactionDate(txn, p.now()))
		if err != nil {
			result.Failed++
			p.logger.Warn("apply transaction failed", "date", txn.Date, "error", err)
			continue
		}

		switch action {
		case model.ActionCreated:
			result.Created++
		case model.ActionUpdated:
			result.Updated++
		}
	}
}

// transactionDate returns the UTC calendar date of a transaction, falling back
// to the date of now.
func transactionDate(txn model.Transaction, now time.Time) string {
	if t, ok := webhook.ParseCreateTime(txn.Date); ok {
		return model.FormatDate(t)
	}
	return model.FormatDate(now)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
