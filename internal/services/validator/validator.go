// Package validator implements the Proxy Validator: routes test traffic
// through a candidate proxy, aggregates outcomes, and optionally classifies
// anonymity and geolocation (spec.md §4.4).
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/proxyhive/proxyhive/internal/common"
	"github.com/proxyhive/proxyhive/internal/interfaces"
	"github.com/proxyhive/proxyhive/internal/models"
	"github.com/proxyhive/proxyhive/internal/proxyline"
	"github.com/ternarybob/arbor"
)

// Config mirrors common.ValidatorConfig with durations already resolved.
type Config struct {
	GeoProvider     string
	AnonymityMode   string
	ConcurrentTests int
	Timeout         time.Duration
	ReflectionURL   string
}

// Validator routes test traffic through candidate proxies and persists the
// observed outcome back to the Catalog Store.
type Validator struct {
	catalog interfaces.CatalogStore
	cfg     Config
	logger  arbor.ILogger
}

// New builds a Validator bound to the catalog it persists into.
func New(catalog interfaces.CatalogStore, cfg Config, logger arbor.ILogger) *Validator {
	if cfg.ConcurrentTests <= 0 {
		cfg.ConcurrentTests = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ReflectionURL == "" {
		cfg.ReflectionURL = "https://httpbin.org/headers"
	}
	if cfg.AnonymityMode == "" {
		cfg.AnonymityMode = "basic"
	}
	return &Validator{catalog: catalog, cfg: cfg, logger: logger}
}

// BatchOptions configures one ValidateBatch call (the body of
// POST /proxies/validate and the scheduler's validate tick).
type BatchOptions struct {
	TestURLs        []string
	Timeout         time.Duration
	TestAllURLs     bool
	CheckAnonymity  bool
	CheckGeo        bool
	ConcurrentTests int
}

// ValidateBatch validates every parseable proxy line concurrently, bounded
// by a semaphore sized to ConcurrentTests, and persists each outcome.
// Unparseable lines are silently dropped per spec.md §6.
func (v *Validator) ValidateBatch(ctx context.Context, lines []string, opts BatchOptions) []models.ValidationResult {
	concurrency := opts.ConcurrentTests
	if concurrency <= 0 {
		concurrency = v.cfg.ConcurrentTests
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = v.cfg.Timeout
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var results []models.ValidationResult

	for _, line := range lines {
		parsed, ok := proxyline.Parse(line)
		if !ok {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		common.SafeGo(v.logger, "validateOne", func() {
			defer wg.Done()
			defer func() { <-sem }()

			result := v.validateOne(ctx, parsed, opts.TestURLs, timeout, opts.TestAllURLs, opts.CheckAnonymity, opts.CheckGeo)
			v.persist(ctx, parsed, result)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}

	wg.Wait()
	return results
}

func (v *Validator) validateOne(ctx context.Context, p proxyline.Parsed, testURLs []string, timeout time.Duration, testAllURLs, checkAnonymity, checkGeo bool) models.ValidationResult {
	result := models.ValidationResult{
		Proxy:       proxyline.Format(p.IP, p.Port, p.Protocol),
		Protocol:    p.Protocol,
		TestResults: make(map[string]models.URLTestResult, len(testURLs)),
	}

	transport, err := buildTransport(p.Protocol, p.IP, p.Port, p.Credentials)
	if err != nil {
		result.Valid = false
		result.Error = err.Error()
		return result
	}
	client := httpClientFor(transport, timeout)

	type probe struct {
		url string
		res models.URLTestResult
	}
	probes := make([]probe, len(testURLs))
	var wg sync.WaitGroup
	for i, u := range testURLs {
		wg.Add(1)
		common.SafeGo(v.logger, "validateOne.probe", func() {
			defer wg.Done()
			probes[i] = probe{url: u, res: timedGet(ctx, client, u, timeout)}
		})
	}
	wg.Wait()

	var latencySum int64
	var latencyCount int
	successCount := 0
	for _, pr := range probes {
		result.TestResults[pr.url] = pr.res
		if pr.res.Success {
			successCount++
		}
		if pr.res.ResponseTimeMs != nil {
			latencySum += *pr.res.ResponseTimeMs
			latencyCount++
		}
	}

	if latencyCount > 0 {
		avg := latencySum / int64(latencyCount)
		result.AvgResponseTimeMs = &avg
	}

	if len(testURLs) == 0 {
		result.Valid = false
	} else if testAllURLs {
		result.Valid = successCount == len(testURLs)
	} else {
		result.Valid = successCount > 0
	}

	if checkAnonymity {
		anon, err := v.probeAnonymity(ctx, client, timeout)
		if err == nil {
			result.Anonymity = anon
		}
	}

	if checkGeo {
		if geo := v.probeGeolocation(ctx, p.IP); geo != nil {
			result.Geolocation = geo
		}
	}

	return result
}

func timedGet(ctx context.Context, client *http.Client, url string, timeout time.Duration) models.URLTestResult {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		elapsed := time.Since(start).Milliseconds()
		return models.URLTestResult{Success: false, ResponseTimeMs: &elapsed}
	}

	resp, err := client.Do(req)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return models.URLTestResult{Success: false, ResponseTimeMs: &elapsed}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	status := resp.StatusCode
	return models.URLTestResult{
		Success:        status == http.StatusOK,
		StatusCode:     &status,
		ResponseTimeMs: &elapsed,
	}
}

type reflectionBody struct {
	Headers map[string]string `json:"headers"`
}

// probeAnonymity issues one GET to the reflection endpoint through the
// proxy and classifies the candidate by which client-identifying headers
// the upstream observed (spec.md §4.4 step 4).
func (v *Validator) probeAnonymity(ctx context.Context, client *http.Client, timeout time.Duration) (models.Anonymity, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, v.cfg.ReflectionURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed reflectionBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}

	has := func(name string) bool {
		for k := range parsed.Headers {
			if strings.EqualFold(k, name) {
				return true
			}
		}
		return false
	}

	if has("X-Forwarded-For") {
		return models.AnonymityTransparent, nil
	}
	if strings.EqualFold(v.cfg.AnonymityMode, "enhanced") {
		if has("Forwarded") || has("X-Real-IP") {
			return models.AnonymityTransparent, nil
		}
		if has("Via") || has("Proxy-Connection") {
			return models.AnonymityAnonymous, nil
		}
		return models.AnonymityElite, nil
	}

	if has("Via") {
		return models.AnonymityAnonymous, nil
	}
	return models.AnonymityElite, nil
}

// geoProviderOrder returns [configured, ip-api, ipinfo] deduplicated,
// preserving the configured provider's first-mention position.
func (v *Validator) geoProviderOrder() []string {
	order := []string{}
	seen := map[string]bool{}
	for _, name := range []string{v.cfg.GeoProvider, "ip-api", "ipinfo"} {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		order = append(order, name)
	}
	return order
}

func (v *Validator) probeGeolocation(ctx context.Context, ip string) *models.Geolocation {
	client := &http.Client{Timeout: 5 * time.Second}
	for _, provider := range v.geoProviderOrder() {
		country, err := queryGeoProvider(ctx, client, provider, ip)
		if err != nil || country == "" {
			continue
		}
		return &models.Geolocation{Country: country}
	}
	return nil
}

func queryGeoProvider(ctx context.Context, client *http.Client, provider, ip string) (string, error) {
	var url string
	switch provider {
	case "ip-api":
		url = fmt.Sprintf("http://ip-api.com/json/%s?fields=status,countryCode", ip)
	case "ipinfo":
		url = fmt.Sprintf("https://ipinfo.io/%s/json", ip)
	default:
		return "", fmt.Errorf("unknown geolocation provider %q", provider)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	switch provider {
	case "ip-api":
		var parsed struct {
			Status      string `json:"status"`
			CountryCode string `json:"countryCode"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", err
		}
		if parsed.Status != "success" {
			return "", fmt.Errorf("ip-api lookup failed for %s", ip)
		}
		return parsed.CountryCode, nil

	case "ipinfo":
		var parsed struct {
			Country string `json:"country"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", err
		}
		if parsed.Country == "" {
			return "", fmt.Errorf("ipinfo lookup failed for %s", ip)
		}
		return parsed.Country, nil
	}
	return "", nil
}

// persist upserts the candidate into the catalog and records the
// validation outcome (spec.md §4.4 "Persistence").
func (v *Validator) persist(ctx context.Context, p proxyline.Parsed, result models.ValidationResult) {
	record, err := v.catalog.Upsert(ctx, p.IP, p.Port, p.Protocol, "", "")
	if err != nil {
		v.logger.Error().Err(err).Str("proxy", result.Proxy).Msg("Failed to upsert candidate during validation")
		return
	}

	if _, err := v.catalog.SetValidation(ctx, record.ID, result.Valid, result.Anonymity, floatPtr(result.AvgResponseTimeMs)); err != nil {
		v.logger.Error().Err(err).Str("proxy", result.Proxy).Msg("Failed to record validation result")
		return
	}

	if result.Geolocation != nil && result.Geolocation.Country != "" {
		country := result.Geolocation.Country
		if _, err := v.catalog.Update(ctx, record.ID, &country, nil); err != nil {
			v.logger.Warn().Err(err).Str("proxy", result.Proxy).Msg("Failed to update country after geolocation probe")
		}
	}
}

func floatPtr(ms *int64) *float64 {
	if ms == nil {
		return nil
	}
	f := float64(*ms)
	return &f
}
