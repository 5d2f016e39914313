// Package publish turns a validated corpus into a stored catalog. A corpus
// with validation errors is never written.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/callumalpass/study-program/internal/curriculum"
	"github.com/callumalpass/study-program/internal/notify"
	"github.com/callumalpass/study-program/internal/schema"
	"github.com/callumalpass/study-program/internal/storage"
	"github.com/callumalpass/study-program/internal/validate"
)

// Sink receives published catalogs.
type Sink interface {
	Name() string
	WriteCatalog(ctx context.Context, snap *storage.Snapshot) error
}

// Notifier announces a published catalog.
type Notifier interface {
	PublishCatalog(ctx context.Context, event *notify.CatalogPublished) error
}

// BlockedError is returned when validation found errors.
type BlockedError struct {
	Report *validate.Report
}

func (e *BlockedError) Error() string {
	return "publication blocked: " + e.Report.Summary()
}

func (e *BlockedError) Unwrap() error { return validate.ErrInvalidCorpus }

// RetryConfig controls how often a failing sink is retried.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns the retry policy used for sinks and the notifier.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     10 * time.Second,
	}
}

// Options configures a Service.
type Options struct {
	Strict   bool
	Retry    RetryConfig
	Notifier Notifier
	Logger   *slog.Logger
}

// Service validates and publishes corpora.
type Service struct {
	sinks     []Sink
	notifier  Notifier
	validator *validate.Validator
	retrier   retry.Retry[struct{}]
	logger    *slog.Logger
	now       func() time.Time
}

// Result describes a finished publication.
type Result struct {
	Report   *validate.Report
	Snapshot *storage.Snapshot
	Sinks    []string
	Event    *notify.CatalogPublished
	// NotifyErr is set when the catalog was written but the announcement failed.
	NotifyErr error
}

// NewService creates a publisher writing to sinks in order.
func NewService(sinks []Sink, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rc := opts.Retry
	if rc.MaxAttempts <= 0 {
		rc = DefaultRetryConfig()
	}

	return &Service{
		sinks:     sinks,
		notifier:  opts.Notifier,
		validator: validate.NewValidator(validate.Options{Strict: opts.Strict}),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   rc.MaxAttempts,
			InitialDelay:  rc.InitialDelay,
			MaxDelay:      rc.MaxDelay,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
		logger: logger,
		now:    time.Now,
	}
}

// Publish validates corpus and, when it has no errors, writes it to every
// sink and announces it. The report is returned in both cases. Sinks are
// written in order; a failing sink stops the run and earlier sinks keep
// the new catalog.
func (s *Service) Publish(ctx context.Context, corpus *curriculum.Corpus, rejected ...schema.Rejection) (*Result, error) {
	report := s.validator.Validate(corpus, rejected...)
	result := &Result{Report: report}

	if !report.Valid() {
		s.logger.Warn("publication blocked", "run_id", report.RunID, "summary", report.Summary())
		return result, &BlockedError{Report: report}
	}

	snap, err := storage.NewSnapshot(corpus, s.now())
	if err != nil {
		return result, fmt.Errorf("build snapshot: %w", err)
	}
	for _, w := range report.Warnings() {
		snap.Warnings = append(snap.Warnings, w.String())
	}
	result.Snapshot = snap

	for _, sink := range s.sinks {
		start := time.Now()
		_, err := s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, sink.WriteCatalog(ctx, snap)
		})
		if err != nil {
			return result, fmt.Errorf("write catalog to %s: %w", sink.Name(), err)
		}
		result.Sinks = append(result.Sinks, sink.Name())
		s.logger.Info("catalog written",
			"sink", sink.Name(),
			"digest", snap.Digest,
			"exercises", len(snap.Exercises),
			"duration", time.Since(start),
		)
	}

	if s.notifier != nil {
		event := notify.NewCatalogPublished(snap, result.Sinks)
		_, err := s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.notifier.PublishCatalog(ctx, event)
		})
		if err != nil {
			s.logger.Error("catalog notification failed", "digest", snap.Digest, "error", err)
			result.NotifyErr = err
		} else {
			result.Event = event
		}
	}

	return result, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
