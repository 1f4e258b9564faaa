// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/premiumgate/premiumgate/internal/metrics"
	"github.com/premiumgate/premiumgate/internal/model"
)

// ErrStoreUnavailable is returned when the authoritative store cannot answer.
// Callers should treat it as retryable.
var ErrStoreUnavailable = errors.New("membership store unavailable")

// DefaultStoreTimeout bounds a single store call.
const DefaultStoreTimeout = 3 * time.Second

// PremiumCache is the best-effort premium flag cache.
type PremiumCache interface {
	GetPremium(ctx context.Context, email string) (model.PremiumState, error)
	SetPremium(ctx context.Context, email string, premium bool) error
}

// PremiumReader answers premium status from the durable store.
type PremiumReader interface {
	IsPremium(ctx context.Context, email string) (bool, error)
}

// PremiumService resolves premium status cache-aside: cache, then store, then
// a best-effort cache refill.
type PremiumService struct {
	cache        PremiumCache
	store        PremiumReader
	storeTimeout time.Duration
	logger       *slog.Logger
	metrics      metrics.Recorder
}

// NewPremiumService creates a new PremiumService. cache may be nil.
func NewPremiumService(cache PremiumCache, store PremiumReader, storeTimeout time.Duration, logger *slog.Logger, recorder metrics.Recorder) *PremiumService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &PremiumService{
		cache:        cache,
		store:        store,
		storeTimeout: storeTimeout,
		logger:       logger.With("component", "premium_service"),
		metrics:      recorder,
	}
}

// Check returns the premium status for email.
// A store failure yields ErrStoreUnavailable, never a default false.
func (s *PremiumService) Check(ctx context.Context, email string) (*model.PremiumStatus, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePremiumLookupDuration(time.Since(start))
	}()

	if s.cache != nil {
		state, err := s.cache.GetPremium(ctx, email)
		if err != nil {
			s.logger.Warn("premium cache read failed", "error", err)
		}
		if state.Known() {
			s.metrics.IncPremiumCacheHit()
			return &model.PremiumStatus{Email: email, Premium: state.Bool(), Source: model.SourceCache}, nil
		}
		s.metrics.IncPremiumCacheMiss()
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	premium, err := s.store.IsPremium(storeCtx, email)
	cancel()
	if err != nil {
		s.metrics.IncPremiumStoreUnavailable()
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if s.cache != nil {
		if err := s.cache.SetPremium(ctx, email, premium); err != nil {
			s.logger.Warn("premium cache write failed", "error", err)
		}
	}

	return &model.PremiumStatus{Email: email, Premium: premium, Source: model.SourceStore}, nil
}
