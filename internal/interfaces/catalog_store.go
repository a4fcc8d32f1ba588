package interfaces

import (
	"context"
	"errors"

	"github.com/proxyhive/proxyhive/internal/models"
)

// ErrProxyNotFound is returned when a proxy id is unknown to the catalog.
var ErrProxyNotFound = errors.New("proxy not found")

// OrderBy is the column a list/export query may sort on.
type OrderBy string

const (
	OrderByAvgResponseTime OrderBy = "avg_response_time_ms"
	OrderByLastChecked     OrderBy = "last_checked"
	OrderByCreatedAt       OrderBy = "created_at"
)

// OrderDirection is ascending or descending.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// ListQuery is the page-based list/export request (spec.md §4.1 list()).
type ListQuery struct {
	Page     int
	PerPage  int
	Filters  models.ProxyFilters
	OrderBy  OrderBy
	Order    OrderDirection
}

// CatalogStore is the durable set of proxy records (spec.md §4.1).
type CatalogStore interface {
	// Upsert inserts or updates by (ip, port, protocol) identity. A provided
	// empty country/source never erases a previously observed value.
	Upsert(ctx context.Context, ip string, port uint16, protocol models.Protocol, country, source string) (*models.ProxyRecord, error)

	// SetValidation always refreshes last_checked/last_updated and
	// overwrites anonymity/latency even with zero values, since these are
	// per-run measurements.
	SetValidation(ctx context.Context, id string, valid bool, anonymity models.Anonymity, avgResponseTimeMs *float64) (*models.ProxyRecord, error)

	Get(ctx context.Context, id string) (*models.ProxyRecord, error)

	// Update applies a partial edit of country/anonymity only (PATCH /proxies/{id}).
	Update(ctx context.Context, id string, country *string, anonymity *models.Anonymity) (*models.ProxyRecord, error)

	List(ctx context.Context, q ListQuery) (rows []*models.ProxyRecord, total int, err error)

	// PickRandom returns a uniformly random valid row matching filters, or
	// nil if none match.
	PickRandom(ctx context.Context, filters models.ProxyFilters) (*models.ProxyRecord, error)

	// Delete removes rows; when invalidOnly is set, only valid=false rows.
	Delete(ctx context.Context, invalidOnly bool) (deletedCount int, err error)

	Stats(ctx context.Context) (*models.CatalogStats, error)

	// SelectForValidation returns up to limit rows, never-checked first then
	// oldest last_checked, optionally narrowed to valid-only/protocols.
	SelectForValidation(ctx context.Context, limit int, validOnly bool, protocols []models.Protocol) ([]*models.ProxyRecord, error)
}
