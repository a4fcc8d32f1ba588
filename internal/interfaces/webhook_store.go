package interfaces

import (
	"context"
	"errors"

	"github.com/proxyhive/proxyhive/internal/models"
)

// ErrWebhookNotFound is returned when a webhook id is unknown.
var ErrWebhookNotFound = errors.New("webhook not found")

// WebhookStore is the durable set of registered webhook subscribers.
type WebhookStore interface {
	Register(ctx context.Context, url string, events []string, secretKey string) (*models.Webhook, error)
	List(ctx context.Context, skip, limit int) (rows []*models.Webhook, total int, err error)
	Delete(ctx context.Context, id string) (*models.Webhook, error)

	// SubscribersFor returns active webhooks subscribed to event.
	SubscribersFor(ctx context.Context, event string) ([]*models.Webhook, error)

	// RecordSuccess/RecordFailure update delivery counters; they must never
	// block or error out fan-out to other subscribers.
	RecordSuccess(ctx context.Context, id string) error
	RecordFailure(ctx context.Context, id string) error
}
