package badger

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// CatalogStorage implements interfaces.CatalogStore on Badger/badgerhold.
type CatalogStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewCatalogStorage creates a new CatalogStorage instance.
func NewCatalogStorage(db *BadgerDB, logger arbor.ILogger) interfaces.CatalogStore {
	return &CatalogStorage{db: db, logger: logger}
}

// Upsert matches operations.py's upsert_proxy: a provided empty
// country/source never erases a previously observed value, and
// last_updated is always refreshed.
func (s *CatalogStorage) Upsert(ctx context.Context, ip string, port uint16, protocol models.Protocol, country, source string) (*models.ProxyRecord, error) {
	key := models.ProxyKey(ip, port, protocol)
	now := time.Now()

	var existing models.ProxyRecord
	err := s.db.Store().FindOne(&existing, badgerhold.Where("IP").Eq(ip).And("Port").Eq(port).And("Protocol").Eq(protocol))
	if err != nil && err != badgerhold.ErrNotFound {
		return nil, fmt.Errorf("failed to look up proxy: %w", err)
	}

	if err == badgerhold.ErrNotFound {
		record := &models.ProxyRecord{
			ID:          common.NewProxyID(),
			IP:          ip,
			Port:        port,
			Protocol:    protocol,
			Country:     country,
			Source:      source,
			Valid:       false,
			CreatedAt:   now,
			LastUpdated: now,
		}
		if err := s.db.Store().Insert(record.ID, record); err != nil {
			return nil, fmt.Errorf("failed to insert proxy %s: %w", key, err)
		}
		return record, nil
	}

	if country != "" {
		existing.Country = country
	}
	if source != "" {
		existing.Source = source
	}
	existing.LastUpdated = now

	if err := s.db.Store().Update(existing.ID, &existing); err != nil {
		return nil, fmt.Errorf("failed to update proxy %s: %w", key, err)
	}
	return &existing, nil
}

// SetValidation always overwrites anonymity/latency even when zero, since
// they are per-run measurements (spec.md §4.1).
func (s *CatalogStorage) SetValidation(ctx context.Context, id string, valid bool, anonymity models.Anonymity, avgResponseTimeMs *float64) (*models.ProxyRecord, error) {
	var record models.ProxyRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrProxyNotFound
		}
		return nil, fmt.Errorf("failed to get proxy %s: %w", id, err)
	}

	now := time.Now()
	record.Valid = valid
	record.Anonymity = anonymity
	record.AvgResponseTimeMs = avgResponseTimeMs
	record.LastChecked = &now
	record.LastUpdated = now

	if err := s.db.Store().Update(id, &record); err != nil {
		return nil, fmt.Errorf("failed to persist validation for proxy %s: %w", id, err)
	}
	return &record, nil
}

func (s *CatalogStorage) Get(ctx context.Context, id string) (*models.ProxyRecord, error) {
	var record models.ProxyRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrProxyNotFound
		}
		return nil, fmt.Errorf("failed to get proxy %s: %w", id, err)
	}
	return &record, nil
}

func (s *CatalogStorage) Update(ctx context.Context, id string, country *string, anonymity *models.Anonymity) (*models.ProxyRecord, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if country != nil {
		record.Country = *country
	}
	if anonymity != nil {
		record.Anonymity = *anonymity
	}
	record.LastUpdated = time.Now()
	if err := s.db.Store().Update(id, record); err != nil {
		return nil, fmt.Errorf("failed to update proxy %s: %w", id, err)
	}
	return record, nil
}

func buildFilterQuery(f models.ProxyFilters) *badgerhold.Query {
	q := badgerhold.Where("IP").Ne("")
	if f.ValidOnly {
		q = q.And("Valid").Eq(true)
	}
	if f.Country != "" {
		q = q.And("Country").Eq(f.Country)
	}
	if f.Protocol != "" {
		q = q.And("Protocol").Eq(f.Protocol)
	}
	if f.Anonymity != "" {
		q = q.And("Anonymity").Eq(f.Anonymity)
	}
	return q
}

// List applies page-based pagination. For avg_response_time_ms and
// last_checked, nulls sort last in descending order and first in ascending
// order (spec.md §4.1); this same orderRows rule is reused by Export,
// resolving spec.md §9's open question (a).
func (s *CatalogStorage) List(ctx context.Context, q interfaces.ListQuery) ([]*models.ProxyRecord, int, error) {
	query := buildFilterQuery(q.Filters)

	var all []*models.ProxyRecord
	if err := s.db.Store().Find(&all, query); err != nil {
		return nil, 0, fmt.Errorf("failed to list proxies: %w", err)
	}

	total := len(all)
	orderRows(all, q.OrderBy, q.Order)

	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = 1
	}

	start := (page - 1) * perPage
	if start >= total {
		return []*models.ProxyRecord{}, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

// orderRows sorts rows in place per spec.md §4.1's ordering contract.
// Unrecognized order_by leaves the store's natural (unspecified) order,
// per spec.md §7 "Unrecognized order_by ... ordering is the store's default".
func orderRows(rows []*models.ProxyRecord, orderBy interfaces.OrderBy, order interfaces.OrderDirection) {
	desc := order == interfaces.OrderDesc

	switch orderBy {
	case interfaces.OrderByAvgResponseTime:
		sort.SliceStable(rows, func(i, j int) bool {
			return lessWithNulls(rows[i].AvgResponseTimeMs == nil, rows[j].AvgResponseTimeMs == nil,
				derefOrZero(rows[i].AvgResponseTimeMs), derefOrZero(rows[j].AvgResponseTimeMs), desc)
		})
	case interfaces.OrderByLastChecked:
		sort.SliceStable(rows, func(i, j int) bool {
			iv, jv := timeOrZero(rows[i].LastChecked), timeOrZero(rows[j].LastChecked)
			return lessWithNulls(rows[i].LastChecked == nil, rows[j].LastChecked == nil, float64(iv.UnixNano()), float64(jv.UnixNano()), desc)
		})
	case interfaces.OrderByCreatedAt:
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return rows[i].CreatedAt.After(rows[j].CreatedAt)
			}
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
}

// lessWithNulls implements "nulls_last desc / nulls_first asc": a null
// value sorts after all values when desc, before all values when asc.
func lessWithNulls(iNull, jNull bool, iVal, jVal float64, desc bool) bool {
	if iNull && jNull {
		return false
	}
	if iNull {
		return !desc
	}
	if jNull {
		return desc
	}
	if desc {
		return iVal > jVal
	}
	return iVal < jVal
}

func derefOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// PickRandom returns a uniform random choice among valid candidates.
func (s *CatalogStorage) PickRandom(ctx context.Context, filters models.ProxyFilters) (*models.ProxyRecord, error) {
	filters.ValidOnly = true
	query := buildFilterQuery(filters)

	var rows []*models.ProxyRecord
	if err := s.db.Store().Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to query proxies for random pick: %w", err)
	}

	if filters.MaxResponseTimeMs != nil {
		filtered := rows[:0]
		for _, r := range rows {
			if r.AvgResponseTimeMs != nil && *r.AvgResponseTimeMs <= *filters.MaxResponseTimeMs {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return rows[rand.Intn(len(rows))], nil
}

// Delete removes rows; when invalidOnly is set, only valid=false rows.
func (s *CatalogStorage) Delete(ctx context.Context, invalidOnly bool) (int, error) {
	var query *badgerhold.Query
	if invalidOnly {
		query = badgerhold.Where("Valid").Eq(false)
	} else {
		query = badgerhold.Where("IP").Ne("")
	}

	var rows []*models.ProxyRecord
	if err := s.db.Store().Find(&rows, query); err != nil {
		return 0, fmt.Errorf("failed to query proxies for deletion: %w", err)
	}

	if err := s.db.Store().Delete(query, &models.ProxyRecord{}); err != nil && err != badgerhold.ErrNotFound {
		return 0, fmt.Errorf("failed to delete proxies: %w", err)
	}
	return len(rows), nil
}

// Stats computes the aggregate payload of spec.md §4.1.
func (s *CatalogStorage) Stats(ctx context.Context) (*models.CatalogStats, error) {
	var all []*models.ProxyRecord
	if err := s.db.Store().Find(&all, nil); err != nil {
		return nil, fmt.Errorf("failed to query proxies for stats: %w", err)
	}

	stats := &models.CatalogStats{
		Total:      len(all),
		ByProtocol: map[string]int{},
	}

	countryCounts := map[string]int{}
	bySource := map[string]*models.SourceStats{}
	sourceLatencySum := map[string]float64{}
	sourceLatencyCount := map[string]int{}
	var latencySum float64
	var latencyCount int

	for _, r := range all {
		if r.Valid {
			stats.Valid++
		} else {
			stats.Invalid++
		}
		stats.ByProtocol[string(r.Protocol)]++

		if r.Country != "" {
			countryCounts[r.Country]++
		}
		if r.Valid && r.AvgResponseTimeMs != nil {
			latencySum += *r.AvgResponseTimeMs
			latencyCount++
		}

		src := r.Source
		if src == "" {
			continue
		}
		ss, ok := bySource[src]
		if !ok {
			ss = &models.SourceStats{Source: src}
			bySource[src] = ss
		}
		ss.Total++
		if r.Valid {
			ss.Valid++
		} else {
			ss.Invalid++
		}
		if r.Valid && r.AvgResponseTimeMs != nil {
			sourceLatencySum[src] += *r.AvgResponseTimeMs
			sourceLatencyCount[src]++
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Valid) / float64(stats.Total)
	}
	if latencyCount > 0 {
		avg := latencySum / float64(latencyCount)
		stats.AvgResponseTimeMs = &avg
	}

	stats.ByCountry = topCountries(countryCounts, 10)

	for _, ss := range bySource {
		if ss.Total > 0 {
			ss.SuccessRate = float64(ss.Valid) / float64(ss.Total)
		}
		if count := sourceLatencyCount[ss.Source]; count > 0 {
			avg := sourceLatencySum[ss.Source] / float64(count)
			ss.AvgResponseTimeMs = &avg
		}
		stats.BySource = append(stats.BySource, *ss)
	}
	sort.Slice(stats.BySource, func(i, j int) bool { return stats.BySource[i].Source < stats.BySource[j].Source })

	return stats, nil
}

func topCountries(counts map[string]int, limit int) []models.CountryCount {
	rows := make([]models.CountryCount, 0, len(counts))
	for country, count := range counts {
		rows = append(rows, models.CountryCount{Country: country, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Country < rows[j].Country
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// SelectForValidation orders never-checked rows first, then oldest
// last_checked first, matching operations.py's
// last_checked.asc().nullsfirst() rule.
func (s *CatalogStorage) SelectForValidation(ctx context.Context, limit int, validOnly bool, protocols []models.Protocol) ([]*models.ProxyRecord, error) {
	query := badgerhold.Where("IP").Ne("")
	if validOnly {
		query = query.And("Valid").Eq(true)
	}
	if len(protocols) > 0 {
		values := make([]interface{}, len(protocols))
		for i, p := range protocols {
			values[i] = p
		}
		query = query.And("Protocol").In(values...)
	}

	var rows []*models.ProxyRecord
	if err := s.db.Store().Find(&rows, query); err != nil {
		return nil, fmt.Errorf("failed to query proxies for validation selection: %w", err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		iNil, jNil := rows[i].LastChecked == nil, rows[j].LastChecked == nil
		if iNil != jNil {
			return iNil
		}
		if iNil && jNil {
			return false
		}
		return rows[i].LastChecked.Before(*rows[j].LastChecked)
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
