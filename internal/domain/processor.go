package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"example.com/stravahook/internal/observability"
)

// Outcome labels how a processing attempt ended.
type Outcome string

const (
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeRejected         Outcome = "rejected"
	OutcomePrivatized       Outcome = "privatized"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeStoreFailed      Outcome = "store_failed"
	OutcomeFetchFailed      Outcome = "fetch_failed"
	OutcomeMalformed        Outcome = "malformed"
	OutcomeUpdateFailed     Outcome = "update_failed"
)

// Result describes a finished processing attempt.
type Result struct {
	ActivityID int64
	Outcome    Outcome
	Reason     RejectReason
}

// ProcessorOption configures optional behaviour for the Processor.
type ProcessorOption func(*Processor)

// WithLogger overrides the logger used to report outcomes.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithNotifier publishes a notification after each successful update.
func WithNotifier(notifier Notifier) ProcessorOption {
	return func(p *Processor) {
		if notifier != nil {
			p.notifier = notifier
		}
	}
}

// WithRules replaces DefaultRules.
func WithRules(rules Rules) ProcessorOption {
	return func(p *Processor) {
		p.rules = rules
	}
}

// Processor runs the fetch, filter, update and record pipeline for one activity.
type Processor struct {
	store    ProcessedStore
	client   ActivityClient
	notifier Notifier
	rules    Rules
	logger   *slog.Logger
}

// NewProcessor constructs a Processor.
func NewProcessor(store ProcessedStore, client ActivityClient, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:    store,
		client:   client,
		notifier: noopNotifier{},
		rules:    DefaultRules,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process handles a single activity. Errors are terminal for the attempt; nothing is retried.
func (p *Processor) Process(ctx context.Context, activityID int64) (Result, error) {
	start := time.Now()
	result, err := p.process(ctx, activityID)
	observability.ObserveProcessing(string(result.Outcome), time.Since(start))

	logger := p.logger.With("activity_id", activityID, "outcome", result.Outcome)
	switch {
	case err != nil:
		logger.ErrorContext(ctx, "activity processing failed", "err", err)
	case result.Outcome == OutcomeRejected:
		logger.InfoContext(ctx, "activity did not match", "reason", result.Reason)
	default:
		logger.InfoContext(ctx, "activity processed")
	}
	return result, err
}

func (p *Processor) process(ctx context.Context, activityID int64) (Result, error) {
	result := Result{ActivityID: activityID}

	// The unique constraint is authoritative; this check only saves an upstream round trip.
	done, err := p.store.HasProcessed(ctx, activityID)
	if err != nil {
		result.Outcome = OutcomeStoreFailed
		return result, fmt.Errorf("check processed: %w", err)
	}
	if done {
		result.Outcome = OutcomeAlreadyProcessed
		return result, nil
	}

	activity, err := p.client.GetActivity(ctx, activityID)
	if err != nil {
		result.Outcome = OutcomeFetchFailed
		return result, fmt.Errorf("fetch activity: %w", err)
	}

	decision, err := Evaluate(*activity, p.rules)
	if err != nil {
		result.Outcome = OutcomeMalformed
		return result, err
	}
	if !decision.Accept {
		result.Outcome = OutcomeRejected
		result.Reason = decision.Reason
		return result, nil
	}

	if err := p.client.UpdateActivity(ctx, activityID, p.rules.Update); err != nil {
		result.Outcome = OutcomeUpdateFailed
		return result, fmt.Errorf("update activity: %w", err)
	}

	if err := p.store.MarkProcessed(ctx, activityID); err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			result.Outcome = OutcomeDuplicate
			return result, nil
		}
		result.Outcome = OutcomeStoreFailed
		return result, fmt.Errorf("mark processed: %w", err)
	}
	observability.RecordActivityProcessed(time.Now())

	if err := p.notifier.NotifyPrivatized(ctx, *activity, p.rules.Update); err != nil {
		p.logger.WarnContext(ctx, "privatized notification failed", "activity_id", activityID, "err", err)
	}

	result.Outcome = OutcomePrivatized
	return result, nil
}

// Preview fetches an activity and evaluates the filters without changing anything.
func (p *Processor) Preview(ctx context.Context, activityID int64) (*Activity, Decision, error) {
	activity, err := p.client.GetActivity(ctx, activityID)
	if err != nil {
		return nil, Decision{}, fmt.Errorf("fetch activity: %w", err)
	}
	decision, err := Evaluate(*activity, p.rules)
	if err != nil {
		return activity, Decision{}, err
	}
	return activity, decision, nil
}
