package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// WebhookStorage implements interfaces.WebhookStore on Badger/badgerhold.
type WebhookStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewWebhookStorage creates a new WebhookStorage instance.
func NewWebhookStorage(db *BadgerDB, logger arbor.ILogger) interfaces.WebhookStore {
	return &WebhookStorage{db: db, logger: logger}
}

func (s *WebhookStorage) Register(ctx context.Context, url string, events []string, secretKey string) (*models.Webhook, error) {
	webhook := &models.Webhook{
		ID:        common.NewWebhookID(),
		URL:       url,
		Events:    events,
		SecretKey: secretKey,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.db.Store().Insert(webhook.ID, webhook); err != nil {
		return nil, fmt.Errorf("failed to register webhook: %w", err)
	}
	return webhook, nil
}

func (s *WebhookStorage) List(ctx context.Context, skip, limit int) ([]*models.Webhook, int, error) {
	var all []*models.Webhook
	if err := s.db.Store().Find(&all, badgerhold.Where("ID").Ne("").SortBy("CreatedAt")); err != nil {
		return nil, 0, fmt.Errorf("failed to list webhooks: %w", err)
	}

	total := len(all)
	if skip >= total {
		return []*models.Webhook{}, total, nil
	}
	end := skip + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (s *WebhookStorage) Delete(ctx context.Context, id string) (*models.Webhook, error) {
	var webhook models.Webhook
	if err := s.db.Store().Get(id, &webhook); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrWebhookNotFound
		}
		return nil, fmt.Errorf("failed to get webhook %s: %w", id, err)
	}
	if err := s.db.Store().Delete(id, &models.Webhook{}); err != nil {
		return nil, fmt.Errorf("failed to delete webhook %s: %w", id, err)
	}
	return &webhook, nil
}

func (s *WebhookStorage) SubscribersFor(ctx context.Context, event string) ([]*models.Webhook, error) {
	var active []*models.Webhook
	if err := s.db.Store().Find(&active, badgerhold.Where("Active").Eq(true)); err != nil {
		return nil, fmt.Errorf("failed to query active webhooks: %w", err)
	}

	var subscribed []*models.Webhook
	for _, w := range active {
		if w.Subscribes(event) {
			subscribed = append(subscribed, w)
		}
	}
	return subscribed, nil
}

func (s *WebhookStorage) RecordSuccess(ctx context.Context, id string) error {
	var webhook models.Webhook
	if err := s.db.Store().Get(id, &webhook); err != nil {
		s.logger.Warn().Err(err).Str("webhook_id", id).Msg("Failed to load webhook for success recording")
		return nil
	}
	now := time.Now()
	webhook.LastTriggeredAt = &now
	webhook.Failures = 0
	if err := s.db.Store().Update(id, &webhook); err != nil {
		s.logger.Warn().Err(err).Str("webhook_id", id).Msg("Failed to record webhook success")
	}
	return nil
}

func (s *WebhookStorage) RecordFailure(ctx context.Context, id string) error {
	var webhook models.Webhook
	if err := s.db.Store().Get(id, &webhook); err != nil {
		s.logger.Warn().Err(err).Str("webhook_id", id).Msg("Failed to load webhook for failure recording")
		return nil
	}
	now := time.Now()
	webhook.LastTriggeredAt = &now
	webhook.Failures++
	if err := s.db.Store().Update(id, &webhook); err != nil {
		s.logger.Warn().Err(err).Str("webhook_id", id).Msg("Failed to record webhook failure")
	}
	return nil
}
