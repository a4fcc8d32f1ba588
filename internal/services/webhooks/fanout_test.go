package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/proxyhive/proxyhive/internal/models"
)

// fakeWebhookStore is an in-memory stand-in for the durable webhook store.
type fakeWebhookStore struct {
	mu        sync.Mutex
	webhooks  []*models.Webhook
	successes map[string]int
	failures  map[string]int
}

func newFakeWebhookStore(webhooks ...*models.Webhook) *fakeWebhookStore {
	return &fakeWebhookStore{
		webhooks:  webhooks,
		successes: map[string]int{},
		failures:  map[string]int{},
	}
}

func (s *fakeWebhookStore) Register(ctx context.Context, url string, events []string, secretKey string) (*models.Webhook, error) {
	panic("not used in these tests")
}

func (s *fakeWebhookStore) List(ctx context.Context, skip, limit int) ([]*models.Webhook, int, error) {
	panic("not used in these tests")
}

func (s *fakeWebhookStore) Delete(ctx context.Context, id string) (*models.Webhook, error) {
	panic("not used in these tests")
}

func (s *fakeWebhookStore) SubscribersFor(ctx context.Context, event string) ([]*models.Webhook, error) {
	var out []*models.Webhook
	for _, w := range s.webhooks {
		if w.Subscribes(event) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *fakeWebhookStore) RecordSuccess(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.successes[id]++
	return nil
}

func (s *fakeWebhookStore) RecordFailure(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[id]++
	return nil
}

func (s *fakeWebhookStore) successCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successes[id]
}

func (s *fakeWebhookStore) failureCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[id]
}

func TestFanout_TriggerAndWait_DeliversSignedPayload(t *testing.T) {
	var received struct {
		body      []byte
		signature string
		event     string
	}
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		received.body = body
		received.signature = r.Header.Get("X-Webhook-Signature")
		received.event = r.Header.Get("X-Webhook-Event")
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	secret := "s3cr3t"
	wh := &models.Webhook{ID: "wh-1", URL: server.URL, Events: []string{"scrape.completed"}, SecretKey: secret, Active: true}
	store := newFakeWebhookStore(wh)

	f := New(store, 2*time.Second, arbor.NewLogger())
	payload := map[string]interface{}{"total_found": 5}
	f.TriggerAndWait(context.Background(), "scrape.completed", payload)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, received.body)
	assert.Equal(t, "scrape.completed", received.event)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(received.body, &decoded))
	assert.Equal(t, float64(5), decoded["total_found"])

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(received.body)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), received.signature)

	assert.Equal(t, 1, store.successCount("wh-1"))
}

func TestFanout_TriggerAndWait_SkipsUnsubscribedEvent(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	wh := &models.Webhook{ID: "wh-1", URL: server.URL, Events: []string{"validate.completed"}, Active: true}
	store := newFakeWebhookStore(wh)

	f := New(store, 2*time.Second, arbor.NewLogger())
	f.TriggerAndWait(context.Background(), "scrape.completed", map[string]interface{}{})

	assert.False(t, hit, "webhook not subscribed to the event must not be called")
}

func TestFanout_TriggerAndWait_InactiveWebhookSkipped(t *testing.T) {
	hit := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer server.Close()

	wh := &models.Webhook{ID: "wh-1", URL: server.URL, Events: []string{"scrape.completed"}, Active: false}
	store := newFakeWebhookStore(wh)

	f := New(store, 2*time.Second, arbor.NewLogger())
	f.TriggerAndWait(context.Background(), "scrape.completed", map[string]interface{}{})

	assert.False(t, hit)
}

func TestFanout_TriggerAndWait_RecordsFailureOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	wh := &models.Webhook{ID: "wh-1", URL: server.URL, Events: []string{"scrape.completed"}, Active: true}
	store := newFakeWebhookStore(wh)

	f := New(store, 2*time.Second, arbor.NewLogger())
	f.TriggerAndWait(context.Background(), "scrape.completed", map[string]interface{}{})

	assert.Equal(t, 1, store.failureCount("wh-1"))
	assert.Equal(t, 0, store.successCount("wh-1"))
}

func TestFanout_Trigger_NoSubscribersIsNoop(t *testing.T) {
	store := newFakeWebhookStore()
	f := New(store, time.Second, arbor.NewLogger())

	assert.NotPanics(t, func() {
		f.Trigger(context.Background(), "scrape.completed", map[string]interface{}{})
	})
}
