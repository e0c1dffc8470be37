// Package service holds the engines behind the API: interactions on posts,
// feed queries, the follow graph, identity, profiles, search, administration
// and media storage. Engines take plain values and return plain values or a
// *models.AppError.
package service

import (
	"context"
	"log/slog"
	"time"

	"peopleconnects/internal/middleware"
	"peopleconnects/internal/models"
	"peopleconnects/internal/observability"
	"peopleconnects/internal/validation"
)

// Notifier delivers live notifications. Delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// MediaStore persists uploaded image bytes and returns an opaque reference.
type MediaStore interface {
	Store(ctx context.Context, namespace string, data []byte) (string, error)
}

// Clock returns the current time; engines take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func requireActor(actor models.Actor) error {
	if actor.IsAnonymous() {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// observe records the outcome of an engine operation.
func observe(op string, err error) {
	if err != nil {
		observability.RejectionsTotal.WithLabelValues(op, models.ErrorCode(err)).Inc()
		return
	}
	observability.InteractionsTotal.WithLabelValues(op).Inc()
}

// notify sends n unless the actor is acting on their own content.
func notify(ctx context.Context, notifier Notifier, n models.Notification) {
	if notifier == nil || n.Recipient == "" || n.Recipient == n.Actor {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "notification not delivered",
			slog.String("type", n.Type),
			slog.String("recipient", n.Recipient),
			slog.String("error", err.Error()),
		)
	}
}

// cleanText trims s and enforces its length bound as a validation error.
func cleanText(field, s string, max int) (string, error) {
	out, err := validation.ValidateText(field, s, max)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return out, nil
}
