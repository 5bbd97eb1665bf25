// Package worker processes queued window advance requests.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pdroll/internal/amqp"
	"pdroll/internal/core"
	applog "pdroll/internal/log"
	"pdroll/internal/services"
)

// RollWorker handles advance requests consumed from AMQP by running the
// roll-forward service and publishing the outcome.
type RollWorker struct {
	service *services.RollForwardService
	results ResultPublisher
}

// ResultPublisher publishes roll results; satisfied by *amqp.Client.
type ResultPublisher interface {
	PublishRollResult(ctx context.Context, msg *amqp.RollResultMessage) error
}

func NewRollWorker(service *services.RollForwardService, results ResultPublisher) *RollWorker {
	return &RollWorker{
		service: service,
		results: results,
	}
}

// HandleAdvanceRequest processes a single advance request. Only
// retryable failures (segment persistence) return an error so the
// delivery is requeued; bad requests and fatal configuration problems
// are logged and acknowledged to keep the queue from looping.
func (w *RollWorker) HandleAdvanceRequest(ctx context.Context, msg *amqp.AdvanceRequestMessage) error {
	endMonth, err := core.ParseMonthDate(msg.EndMonth)
	if err != nil {
		slog.ErrorContext(ctx, "Advance request has invalid end month, dropping",
			applog.FieldEndMonth, msg.EndMonth,
			applog.FieldRequestID, msg.RequestID,
			applog.FieldError, err)
		return nil
	}

	result, err := w.service.Advance(ctx, endMonth)
	switch {
	case err == nil:
		return w.publishResult(ctx, msg.RequestID, &amqp.RollResultMessage{
			RequestID:      msg.RequestID,
			Anchor:         result.Anchor.String(),
			MonthsIngested: result.MonthsIngested,
			Clamped:        result.Clamped,
			OlderRows:      result.OlderRows,
			LatestRows:     result.LatestRows,
			Timestamp:      time.Now(),
		})

	case errors.Is(err, core.ErrNoForwardProgress):
		slog.InfoContext(ctx, "Advance request is a no-op",
			applog.FieldEndMonth, msg.EndMonth,
			applog.FieldRequestID, msg.RequestID)
		// The anchor did not move and may sit past the requested month,
		// so the no-op result carries no anchor value.
		return w.publishResult(ctx, msg.RequestID, &amqp.RollResultMessage{
			RequestID: msg.RequestID,
			NoOp:      true,
			Timestamp: time.Now(),
		})

	case errors.Is(err, core.ErrPersistenceFailure):
		// Anchor was not advanced; the same request can be retried.
		return fmt.Errorf("advance to %s: %w", msg.EndMonth, err)

	default:
		slog.ErrorContext(ctx, "Advance request failed, dropping",
			applog.FieldEndMonth, msg.EndMonth,
			applog.FieldRequestID, msg.RequestID,
			applog.FieldError, err)
		return nil
	}
}

func (w *RollWorker) publishResult(ctx context.Context, requestID string, msg *amqp.RollResultMessage) error {
	if w.results == nil {
		return nil
	}
	if err := w.results.PublishRollResult(ctx, msg); err != nil {
		// The roll itself succeeded; a lost result message is not worth
		// requeueing the request for.
		slog.WarnContext(ctx, "Failed to publish roll result",
			applog.FieldRequestID, requestID,
			applog.FieldError, err)
	}
	return nil
}
