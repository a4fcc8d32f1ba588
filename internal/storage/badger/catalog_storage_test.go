package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
)

func setupCatalogTestDB(t *testing.T) (interfaces.CatalogStore, func()) {
	tempDir := t.TempDir()

	config := &common.BadgerConfig{Path: tempDir}
	logger := arbor.NewLogger()

	db, err := NewBadgerDB(logger, config)
	require.NoError(t, err)

	store := NewCatalogStorage(db, logger)
	return store, func() { db.Close() }
}

func TestCatalogStorage_Upsert_InsertThenUpdate(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolHTTP, "US", "source-a")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "US", created.Country)
	assert.False(t, created.Valid)

	// Re-upsert same identity with an empty country: must not erase it.
	updated, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolHTTP, "", "source-b")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "upsert by (ip,port,protocol) identity must match the existing row")
	assert.Equal(t, "US", updated.Country, "empty country on re-upsert must not erase the previous value")
	assert.Equal(t, "source-b", updated.Source, "non-empty source on re-upsert must overwrite")
}

func TestCatalogStorage_Upsert_DifferentProtocolIsDistinctRow(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	a, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	b, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolSOCKS5, "", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestCatalogStorage_SetValidation(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	record, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolHTTP, "", "")
	require.NoError(t, err)

	latency := 123.5
	updated, err := store.SetValidation(ctx, record.ID, true, models.AnonymityElite, &latency)
	require.NoError(t, err)
	assert.True(t, updated.Valid)
	assert.Equal(t, models.AnonymityElite, updated.Anonymity)
	require.NotNil(t, updated.AvgResponseTimeMs)
	assert.Equal(t, latency, *updated.AvgResponseTimeMs)
	require.NotNil(t, updated.LastChecked)
}

func TestCatalogStorage_SetValidation_UnknownID(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()

	_, err := store.SetValidation(context.Background(), "nope", true, models.AnonymityElite, nil)
	assert.ErrorIs(t, err, interfaces.ErrProxyNotFound)
}

func TestCatalogStorage_Get_UnknownID(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, interfaces.ErrProxyNotFound)
}

func TestCatalogStorage_Update_PartialEdit(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	record, err := store.Upsert(ctx, "1.2.3.4", 8080, models.ProtocolHTTP, "US", "")
	require.NoError(t, err)

	newCountry := "DE"
	updated, err := store.Update(ctx, record.ID, &newCountry, nil)
	require.NoError(t, err)
	assert.Equal(t, "DE", updated.Country)

	anon := models.AnonymityAnonymous
	updated, err = store.Update(ctx, record.ID, nil, &anon)
	require.NoError(t, err)
	assert.Equal(t, "DE", updated.Country, "country must be unchanged when not supplied")
	assert.Equal(t, models.AnonymityAnonymous, updated.Anonymity)
}

func TestCatalogStorage_List_FiltersAndPaginates(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r, err := store.Upsert(ctx, "1.2.3."+string(rune('0'+i)), uint16(8000+i), models.ProtocolHTTP, "US", "src")
		require.NoError(t, err)
		if i%2 == 0 {
			_, err := store.SetValidation(ctx, r.ID, true, models.AnonymityElite, nil)
			require.NoError(t, err)
		}
	}

	rows, total, err := store.List(ctx, interfaces.ListQuery{Page: 1, PerPage: 100, Filters: models.ProxyFilters{ValidOnly: true}})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rows, 3)

	page1, total, err := store.List(ctx, interfaces.ListQuery{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page1, 2)

	page3, _, err := store.List(ctx, interfaces.ListQuery{Page: 3, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page3, 1, "last page should hold the remainder")
}

func TestCatalogStorage_List_OrderByAvgResponseTimeNullsLast(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	withLatency, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	latency := 50.0
	_, err = store.SetValidation(ctx, withLatency.ID, true, models.AnonymityElite, &latency)
	require.NoError(t, err)

	_, err = store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)

	rows, _, err := store.List(ctx, interfaces.ListQuery{
		Page: 1, PerPage: 10, OrderBy: interfaces.OrderByAvgResponseTime, Order: interfaces.OrderDesc,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1.1.1.1", rows[0].IP, "row with a latency value sorts before a null on descending order")
	assert.Nil(t, rows[1].AvgResponseTimeMs)
}

func TestCatalogStorage_PickRandom_OnlyValidRows(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	invalid, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_ = invalid

	valid, err := store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_, err = store.SetValidation(ctx, valid.ID, true, models.AnonymityElite, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		picked, err := store.PickRandom(ctx, models.ProxyFilters{})
		require.NoError(t, err)
		require.NotNil(t, picked)
		assert.Equal(t, "2.2.2.2", picked.IP)
	}
}

func TestCatalogStorage_PickRandom_NoneMatch(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()

	picked, err := store.PickRandom(context.Background(), models.ProxyFilters{})
	require.NoError(t, err)
	assert.Nil(t, picked)
}

func TestCatalogStorage_Delete_InvalidOnly(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	invalid, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_ = invalid

	valid, err := store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_, err = store.SetValidation(ctx, valid.ID, true, models.AnonymityElite, nil)
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, total, err := store.List(ctx, interfaces.ListQuery{Page: 1, PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, total, "only the invalid row should be removed")
}

func TestCatalogStorage_Delete_All(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, total, err := store.List(ctx, interfaces.ListQuery{Page: 1, PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestCatalogStorage_Stats(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	valid, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "US", "src-a")
	require.NoError(t, err)
	latency := 100.0
	_, err = store.SetValidation(ctx, valid.ID, true, models.AnonymityElite, &latency)
	require.NoError(t, err)

	_, err = store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolSOCKS5, "DE", "src-b")
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Invalid)
	assert.Equal(t, 0.5, stats.SuccessRate)
	assert.Equal(t, 1, stats.ByProtocol[string(models.ProtocolHTTP)])
	require.NotNil(t, stats.AvgResponseTimeMs)
	assert.Equal(t, 100.0, *stats.AvgResponseTimeMs)
	require.Len(t, stats.BySource, 2)
}

func TestCatalogStorage_SelectForValidation_NeverCheckedFirst(t *testing.T) {
	store, cleanup := setupCatalogTestDB(t)
	defer cleanup()
	ctx := context.Background()

	checked, err := store.Upsert(ctx, "1.1.1.1", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)
	_, err = store.SetValidation(ctx, checked.ID, true, models.AnonymityElite, nil)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	neverChecked, err := store.Upsert(ctx, "2.2.2.2", 80, models.ProtocolHTTP, "", "")
	require.NoError(t, err)

	rows, err := store.SelectForValidation(ctx, 10, false, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, neverChecked.ID, rows[0].ID, "never-checked rows must come first")
}
