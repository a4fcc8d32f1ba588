package sources

import "github.com/proxyhive/proxyhive/internal/interfaces"

// DefaultAdapters returns one instance per entry in the adapter catalog
// (spec.md §4.2), in the fixed order the Scraping Coordinator iterates
// when the caller does not restrict the source list.
func DefaultAdapters() []interfaces.SourceAdapter {
	return []interfaces.SourceAdapter{
		NewProxyScrapeAdapter(),
		NewFreeProxyListAdapter(),
		NewSSLProxiesAdapter(),
		NewUSProxyAdapter(),
		NewPubProxyAdapter(),
		NewGatherProxyAdapter(),
		NewSpysOneAdapter(),
		NewProxyListDownloadAdapter(),
		NewProxyScanAdapter(),
		NewGitHubSpeedXAdapter(),
		NewGitHubShiftyTRAdapter(),
		NewGitHubMonosansAdapter(),
		NewGitHubJetKAIAdapter(),
	}
}
