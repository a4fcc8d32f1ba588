// Package coordinator implements the Scraping Coordinator: per-source TTL
// caching and rate limiting in front of the Source Adapters (spec.md §4.3).
package coordinator

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
)

// Request is the Scraping Coordinator's input (spec.md §4.3).
type Request struct {
	Country   string
	Protocols []models.Protocol
	Sources   []string
	Quantity  int
	Timeout   time.Duration
	Retries   int
}

type cacheEntry struct {
	candidates []models.ProxyCandidate
	expiresAt  time.Time
}

// Coordinator fans out to adapters in parallel, enforcing a per-source TTL
// cache and a per-source token-bucket rate limiter (burst of rateLimitPerMin,
// refilled at rateLimitPerMin tokens per minute).
type Coordinator struct {
	adapters map[string]interfaces.SourceAdapter
	order    []string

	cacheTTL time.Duration
	cacheMu  sync.Mutex
	cache    map[string]cacheEntry

	rateLimitPerMin int
	limiterMu       sync.Mutex
	limiters        map[string]*rate.Limiter

	logger arbor.ILogger
}

// New builds a Coordinator over adapters, preserving their given order as
// the default source list and the iteration order for deduplication.
func New(adapters []interfaces.SourceAdapter, cacheTTL time.Duration, rateLimitPerMin int, logger arbor.ILogger) *Coordinator {
	byID := make(map[string]interfaces.SourceAdapter, len(adapters))
	order := make([]string, 0, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
		order = append(order, a.ID())
	}

	return &Coordinator{
		adapters:        byID,
		order:           order,
		cacheTTL:        cacheTTL,
		cache:           make(map[string]cacheEntry),
		rateLimitPerMin: rateLimitPerMin,
		limiters:        make(map[string]*rate.Limiter),
		logger:          logger,
	}
}

// Scrape executes the coordinator algorithm of spec.md §4.3 and returns a
// deduplicated, quantity-capped set of candidates.
func (c *Coordinator) Scrape(ctx context.Context, req Request) []models.ProxyCandidate {
	sourceIDs := req.Sources
	if len(sourceIDs) == 0 {
		sourceIDs = c.order
	}

	type sourceResult struct {
		index      int
		candidates []models.ProxyCandidate
	}

	results := make([]sourceResult, 0, len(sourceIDs))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for i, id := range sourceIDs {
		adapter, ok := c.adapters[id]
		if !ok {
			continue
		}

		cacheKey := c.cacheKey(id, req.Country, req.Protocols)
		if cached, hit := c.lookupCache(cacheKey); hit {
			resultsMu.Lock()
			results = append(results, sourceResult{index: i, candidates: truncate(cached, req.Quantity)})
			resultsMu.Unlock()
			continue
		}

		if !c.limiterFor(id).Allow() {
			c.logger.Debug().Str("source", id).Msg("Source skipped: rate limit exceeded for this cycle")
			continue
		}

		wg.Add(1)
		go func(i int, id string, adapter interfaces.SourceAdapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.logger.Warn().Str("source", id).Interface("panic", r).Msg("Source adapter panicked; treated as empty")
				}
			}()

			candidates := adapter.Fetch(ctx, interfaces.FetchParams{
				Country:   req.Country,
				Protocols: req.Protocols,
				Quantity:  req.Quantity,
				Timeout:   req.Timeout,
				Retries:   req.Retries,
			})

			c.storeCache(cacheKey, candidates)

			resultsMu.Lock()
			results = append(results, sourceResult{index: i, candidates: candidates})
			resultsMu.Unlock()
		}(i, id, adapter)
	}

	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })

	var merged []models.ProxyCandidate
	for _, r := range results {
		merged = append(merged, r.candidates...)
	}

	deduped := dedupe(merged)
	return truncate(deduped, req.Quantity)
}

func (c *Coordinator) cacheKey(sourceID, country string, protocols []models.Protocol) string {
	sorted := make([]string, len(protocols))
	for i, p := range protocols {
		sorted[i] = string(p)
	}
	sort.Strings(sorted)
	return sourceID + "|" + country + "|" + strings.Join(sorted, ",")
}

const maxCacheEntrySize = 1000

func (c *Coordinator) lookupCache(key string) ([]models.ProxyCandidate, bool) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	entry, ok := c.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.candidates, true
}

func (c *Coordinator) storeCache(key string, candidates []models.ProxyCandidate) {
	if len(candidates) > maxCacheEntrySize {
		candidates = candidates[:maxCacheEntrySize]
	}

	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()
	c.cache[key] = cacheEntry{candidates: candidates, expiresAt: time.Now().Add(c.cacheTTL)}
}

func (c *Coordinator) limiterFor(sourceID string) *rate.Limiter {
	c.limiterMu.Lock()
	defer c.limiterMu.Unlock()

	limiter, ok := c.limiters[sourceID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(c.rateLimitPerMin)), c.rateLimitPerMin)
		c.limiters[sourceID] = limiter
	}
	return limiter
}

func dedupe(candidates []models.ProxyCandidate) []models.ProxyCandidate {
	seen := make(map[string]struct{}, len(candidates))
	deduped := make([]models.ProxyCandidate, 0, len(candidates))
	for _, c := range candidates {
		key := models.ProxyKey(c.IP, c.Port, c.Protocol)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, c)
	}
	return deduped
}

func truncate(candidates []models.ProxyCandidate, quantity int) []models.ProxyCandidate {
	if quantity > 0 && len(candidates) > quantity {
		return candidates[:quantity]
	}
	return candidates
}
