package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
)

func setupWebhookTestDB(t *testing.T) (interfaces.WebhookStore, func()) {
	tempDir := t.TempDir()
	config := &common.BadgerConfig{Path: tempDir}
	logger := arbor.NewLogger()

	db, err := NewBadgerDB(logger, config)
	require.NoError(t, err)

	store := NewWebhookStorage(db, logger)
	return store, func() { db.Close() }
}

func TestWebhookStorage_RegisterAndList(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	wh, err := store.Register(ctx, "https://example.com/hook", []string{"scrape.completed"}, "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, wh.ID)
	assert.True(t, wh.Active)

	rows, total, err := store.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, rows, 1)
	assert.Equal(t, wh.ID, rows[0].ID)
}

func TestWebhookStorage_List_SkipAndLimit(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Register(ctx, "https://example.com/hook", []string{"scrape.completed"}, "")
		require.NoError(t, err)
	}

	rows, total, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 1)
}

func TestWebhookStorage_Delete(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	wh, err := store.Register(ctx, "https://example.com/hook", []string{"scrape.completed"}, "")
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, wh.ID)
	require.NoError(t, err)
	assert.Equal(t, wh.ID, deleted.ID)

	_, err = store.Delete(ctx, wh.ID)
	assert.ErrorIs(t, err, interfaces.ErrWebhookNotFound)
}

func TestWebhookStorage_SubscribersFor(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	subscribed, err := store.Register(ctx, "https://example.com/a", []string{"scrape.completed"}, "")
	require.NoError(t, err)
	_, err = store.Register(ctx, "https://example.com/b", []string{"validate.completed"}, "")
	require.NoError(t, err)

	subs, err := store.SubscribersFor(ctx, "scrape.completed")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, subscribed.ID, subs[0].ID)
}

func TestWebhookStorage_SubscribersFor_ExcludesDeleted(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	wh, err := store.Register(ctx, "https://example.com/a", []string{"scrape.completed"}, "")
	require.NoError(t, err)

	_, err = store.Delete(ctx, wh.ID)
	require.NoError(t, err)

	subs, err := store.SubscribersFor(ctx, "scrape.completed")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestWebhookStorage_RecordSuccessResetsFailures(t *testing.T) {
	store, cleanup := setupWebhookTestDB(t)
	defer cleanup()
	ctx := context.Background()

	wh, err := store.Register(ctx, "https://example.com/a", []string{"scrape.completed"}, "")
	require.NoError(t, err)

	require.NoError(t, store.RecordFailure(ctx, wh.ID))
	require.NoError(t, store.RecordFailure(ctx, wh.ID))
	require.NoError(t, store.RecordSuccess(ctx, wh.ID))

	rows, _, err := store.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].Failures)
	assert.NotNil(t, rows[0].LastTriggeredAt)
}
