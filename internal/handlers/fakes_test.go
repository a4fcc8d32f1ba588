package handlers

import (
	"context"
	"sync"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

// fakeCatalogStore is a minimal in-memory interfaces.CatalogStore for
// handler tests; List/Stats/PickRandom/Delete return whatever was stubbed in
// rather than implementing real query semantics (those are exercised in the
// storage package's own tests).
type fakeCatalogStore struct {
	mu          sync.Mutex
	records     map[string]*models.ProxyRecord
	listRows    []*models.ProxyRecord
	listTotal   int
	listErr     error
	randomRow   *models.ProxyRecord
	randomErr   error
	statsResult *models.CatalogStats
	statsErr    error
	deleteCount int
	deleteErr   error
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{records: map[string]*models.ProxyRecord{}}
}

func (f *fakeCatalogStore) Upsert(ctx context.Context, ip string, port uint16, protocol models.Protocol, country, source string) (*models.ProxyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := models.ProxyKey(ip, port, protocol)
	record := &models.ProxyRecord{ID: key, IP: ip, Port: port, Protocol: protocol, Country: country, Source: source}
	f.records[key] = record
	return record, nil
}

func (f *fakeCatalogStore) SetValidation(ctx context.Context, id string, valid bool, anonymity models.Anonymity, avgResponseTimeMs *float64) (*models.ProxyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, interfaces.ErrProxyNotFound
	}
	record.Valid = valid
	return record, nil
}

func (f *fakeCatalogStore) Get(ctx context.Context, id string) (*models.ProxyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, interfaces.ErrProxyNotFound
	}
	return record, nil
}

func (f *fakeCatalogStore) Update(ctx context.Context, id string, country *string, anonymity *models.Anonymity) (*models.ProxyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[id]
	if !ok {
		return nil, interfaces.ErrProxyNotFound
	}
	if country != nil {
		record.Country = *country
	}
	if anonymity != nil {
		record.Anonymity = *anonymity
	}
	return record, nil
}

func (f *fakeCatalogStore) List(ctx context.Context, q interfaces.ListQuery) ([]*models.ProxyRecord, int, error) {
	return f.listRows, f.listTotal, f.listErr
}

func (f *fakeCatalogStore) PickRandom(ctx context.Context, filters models.ProxyFilters) (*models.ProxyRecord, error) {
	return f.randomRow, f.randomErr
}

func (f *fakeCatalogStore) Delete(ctx context.Context, invalidOnly bool) (int, error) {
	return f.deleteCount, f.deleteErr
}

func (f *fakeCatalogStore) Stats(ctx context.Context) (*models.CatalogStats, error) {
	return f.statsResult, f.statsErr
}

func (f *fakeCatalogStore) SelectForValidation(ctx context.Context, limit int, validOnly bool, protocols []models.Protocol) ([]*models.ProxyRecord, error) {
	return nil, nil
}

// fakeJobRegistry is a minimal in-memory interfaces.JobRegistry.
type fakeJobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
	next int
}

func newFakeJobRegistry() *fakeJobRegistry {
	return &fakeJobRegistry{jobs: map[string]*models.Job{}}
}

func (r *fakeJobRegistry) Create(kind models.JobKind) *models.Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	job := &models.Job{ID: "job-" + string(kind) + "-1", Kind: kind, Status: models.JobStatusProcessing}
	r.jobs[job.ID] = job
	return job
}

func (r *fakeJobRegistry) Get(id string) (*models.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return job, nil
}

func (r *fakeJobRegistry) SetProgress(id string, progress float64) {}

func (r *fakeJobRegistry) Complete(id string, result map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = models.JobStatusCompleted
		job.Result = result
	}
}

func (r *fakeJobRegistry) Fail(id string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[id]; ok {
		job.Status = models.JobStatusFailed
		job.Error = err.Error()
	}
}

// fakeWebhookStore is a minimal in-memory interfaces.WebhookStore.
type fakeWebhookStore struct {
	mu        sync.Mutex
	webhooks  map[string]*models.Webhook
	deleteErr error
}

func newFakeWebhookStore() *fakeWebhookStore {
	return &fakeWebhookStore{webhooks: map[string]*models.Webhook{}}
}

func (f *fakeWebhookStore) Register(ctx context.Context, url string, events []string, secretKey string) (*models.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wh := &models.Webhook{ID: "wh-1", URL: url, Events: events, SecretKey: secretKey, Active: true}
	f.webhooks[wh.ID] = wh
	return wh, nil
}

func (f *fakeWebhookStore) List(ctx context.Context, skip, limit int) ([]*models.Webhook, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]*models.Webhook, 0, len(f.webhooks))
	for _, wh := range f.webhooks {
		rows = append(rows, wh)
	}
	return rows, len(rows), nil
}

func (f *fakeWebhookStore) Delete(ctx context.Context, id string) (*models.Webhook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	wh, ok := f.webhooks[id]
	if !ok {
		return nil, interfaces.ErrWebhookNotFound
	}
	delete(f.webhooks, id)
	return wh, nil
}

func (f *fakeWebhookStore) SubscribersFor(ctx context.Context, event string) ([]*models.Webhook, error) {
	return nil, nil
}

func (f *fakeWebhookStore) RecordSuccess(ctx context.Context, id string) error { return nil }
func (f *fakeWebhookStore) RecordFailure(ctx context.Context, id string) error { return nil }

// fakeKVForScheduler is a minimal in-memory interfaces.KeyValueStorage,
// sufficient for the Scheduler engine's config persistence in handler tests.
type fakeKVForScheduler struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeKVForScheduler() *fakeKVForScheduler {
	return &fakeKVForScheduler{values: map[string]string{}}
}

func (f *fakeKVForScheduler) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (f *fakeKVForScheduler) GetPair(ctx context.Context, key string) (*interfaces.KeyValuePair, error) {
	panic("not used in these tests")
}

func (f *fakeKVForScheduler) Set(ctx context.Context, key, value, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeKVForScheduler) Upsert(ctx context.Context, key, value, description string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.values[key]
	f.values[key] = value
	return !existed, nil
}

func (f *fakeKVForScheduler) Delete(ctx context.Context, key string) error { panic("not used in these tests") }
func (f *fakeKVForScheduler) DeleteAll(ctx context.Context) error          { panic("not used in these tests") }
func (f *fakeKVForScheduler) List(ctx context.Context) ([]interfaces.KeyValuePair, error) {
	panic("not used in these tests")
}
func (f *fakeKVForScheduler) GetAll(ctx context.Context) (map[string]string, error) {
	panic("not used in these tests")
}
