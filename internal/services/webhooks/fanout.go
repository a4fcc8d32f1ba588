// Package webhooks implements the Webhook Fan-out: for a triggered event,
// posts a signed JSON payload to every active subscriber (spec.md §4.7).
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// Fanout delivers event payloads to registered subscribers.
type Fanout struct {
	store   interfaces.WebhookStore
	timeout time.Duration
	logger  arbor.ILogger
	client  *http.Client
}

// New builds a Fanout bound to the webhook store it reads subscribers from
// and records delivery counters into.
func New(store interfaces.WebhookStore, timeout time.Duration, logger arbor.ILogger) *Fanout {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fanout{
		store:   store,
		timeout: timeout,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
	}
}

// Trigger looks up active subscribers of event and delivers payload to each
// concurrently. It never blocks the caller's operation on delivery outcome.
func (f *Fanout) Trigger(ctx context.Context, event string, payload map[string]interface{}) {
	subscribers, err := f.store.SubscribersFor(ctx, event)
	if err != nil {
		f.logger.Warn().Err(err).Str("event", event).Msg("Failed to look up webhook subscribers")
		return
	}
	if len(subscribers) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal webhook payload")
		return
	}

	for _, wh := range subscribers {
		wh := wh
		common.SafeGo(f.logger, "webhook-deliver", func() {
			f.deliver(context.Background(), wh.ID, wh.URL, wh.SecretKey, event, body)
		})
	}
}

// TriggerAndWait is Trigger but blocks until every subscriber has been
// attempted; used by tests and by callers that need delivery ordering
// guarantees against a subsequent assertion.
func (f *Fanout) TriggerAndWait(ctx context.Context, event string, payload map[string]interface{}) {
	subscribers, err := f.store.SubscribersFor(ctx, event)
	if err != nil || len(subscribers) == 0 {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	done := make(chan struct{}, len(subscribers))
	for _, wh := range subscribers {
		wh := wh
		common.SafeGo(f.logger, "webhook-deliver", func() {
			defer func() { done <- struct{}{} }()
			f.deliver(ctx, wh.ID, wh.URL, wh.SecretKey, event, body)
		})
	}
	for range subscribers {
		<-done
	}
}

func (f *Fanout) deliver(ctx context.Context, id, url, secretKey, event string, body []byte) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		f.recordFailure(id)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event)
	if secretKey != "" {
		req.Header.Set("X-Webhook-Signature", sign(secretKey, body))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug().Err(err).Str("webhook", id).Msg("Webhook delivery failed")
		f.recordFailure(id)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		f.recordSuccess(id)
		return
	}
	f.recordFailure(id)
}

func (f *Fanout) recordSuccess(id string) {
	if err := f.store.RecordSuccess(context.Background(), id); err != nil {
		f.logger.Warn().Err(err).Str("webhook", id).Msg("Failed to record webhook success")
	}
}

func (f *Fanout) recordFailure(id string) {
	if err := f.store.RecordFailure(context.Background(), id); err != nil {
		f.logger.Warn().Err(err).Str("webhook", id).Msg("Failed to record webhook failure")
	}
}

func sign(secretKey string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
