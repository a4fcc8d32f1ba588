package interfaces

import (
	"context"
	"time"

	"github.com/proxyhive/proxyhive/internal/models"
)

// FetchParams is the input to a Source Adapter's Fetch call (spec.md §4.2).
type FetchParams struct {
	Country   string
	Protocols []models.Protocol
	Quantity  int
	Timeout   time.Duration
	Retries   int
}

// SourceAdapter fetches candidate proxies from one upstream source. An
// adapter must yield at most Quantity candidates, tag every candidate with
// its own source id, apply the protocol/country filters it is able to, and
// retry transient HTTP failures rather than propagate them (an empty slice
// on exhaustion, never an error).
type SourceAdapter interface {
	// ID is the adapter identifier used to tag candidates and to select
	// sources by name in the Scraping Coordinator's input.
	ID() string
	Fetch(ctx context.Context, params FetchParams) []models.ProxyCandidate
}
