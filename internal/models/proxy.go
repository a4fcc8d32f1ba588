package models

import (
	"strconv"
	"time"
)

// Protocol is the transport a proxy endpoint speaks.
type Protocol string

const (
	ProtocolHTTP   Protocol = "http"
	ProtocolHTTPS  Protocol = "https"
	ProtocolSOCKS4 Protocol = "socks4"
	ProtocolSOCKS5 Protocol = "socks5"
)

// Anonymity is the classification of how much client information a proxy forwards.
type Anonymity string

const (
	AnonymityTransparent Anonymity = "transparent"
	AnonymityAnonymous   Anonymity = "anonymous"
	AnonymityElite       Anonymity = "elite"
)

// ProxyRecord is the durable catalog entry for one proxy endpoint.
// (IP, Port, Protocol) is unique; LastChecked is set if and only if
// validation has ever run for this record.
type ProxyRecord struct {
	ID                 string     `json:"id" boltholdKey:"ID"`
	IP                 string     `json:"ip" boltholdIndex:"IP"`
	Port               uint16     `json:"port"`
	Protocol           Protocol   `json:"protocol" boltholdIndex:"Protocol"`
	Country            string     `json:"country,omitempty" boltholdIndex:"Country"`
	Source             string     `json:"source,omitempty" boltholdIndex:"Source"`
	Valid              bool       `json:"valid" boltholdIndex:"Valid"`
	Anonymity          Anonymity  `json:"anonymity,omitempty" boltholdIndex:"Anonymity"`
	LastChecked        *time.Time `json:"last_checked,omitempty" boltholdIndex:"LastChecked"`
	AvgResponseTimeMs  *float64   `json:"avg_response_time_ms,omitempty" boltholdIndex:"AvgResponseTimeMs"`
	CreatedAt          time.Time  `json:"created_at" boltholdIndex:"CreatedAt"`
	LastUpdated        time.Time  `json:"last_updated"`
}

// Key returns the identity tuple used for upsert matching.
func (p *ProxyRecord) Key() string {
	return ProxyKey(p.IP, p.Port, p.Protocol)
}

// ProxyKey computes the (ip, port, protocol) identity used for deduplication
// and upsert matching throughout the catalog and scraping coordinator.
func ProxyKey(ip string, port uint16, protocol Protocol) string {
	return string(protocol) + "://" + ip + ":" + strconv.Itoa(int(port))
}

// ProxyCandidate is the transient tuple a Source Adapter produces. Credentials
// are used only during validation and are never persisted to the catalog.
type ProxyCandidate struct {
	IP          string
	Port        uint16
	Protocol    Protocol
	Country     string
	Source      string
	Credentials *ProxyCredentials
}

// ProxyCredentials carries optional basic-auth for a proxy under test.
type ProxyCredentials struct {
	Username string
	Password string
}

// ProxyItem is the external JSON projection of a ProxyRecord for the
// control plane (spec: ProxyItem projection).
type ProxyItem struct {
	ID                string  `json:"id,omitempty"`
	IP                string  `json:"ip"`
	Port              uint16  `json:"port"`
	Protocol          string  `json:"protocol"`
	Country           string  `json:"country,omitempty"`
	Source            string  `json:"source,omitempty"`
	Valid             *bool   `json:"valid,omitempty"`
	Anonymity         string  `json:"anonymity,omitempty"`
	LastChecked       string  `json:"last_checked,omitempty"`
	AvgResponseTimeMs *int64  `json:"avg_response_time_ms,omitempty"`
}

// ToProxyItem converts a persisted record to its external projection.
func ToProxyItem(r *ProxyRecord) ProxyItem {
	item := ProxyItem{
		ID:       r.ID,
		IP:       r.IP,
		Port:     r.Port,
		Protocol: string(r.Protocol),
		Country:  r.Country,
		Source:   r.Source,
		Valid:    &r.Valid,
	}
	if r.Anonymity != "" {
		item.Anonymity = string(r.Anonymity)
	}
	if r.LastChecked != nil {
		item.LastChecked = r.LastChecked.UTC().Format(time.RFC3339)
	}
	if r.AvgResponseTimeMs != nil {
		rounded := int64(*r.AvgResponseTimeMs + 0.5)
		item.AvgResponseTimeMs = &rounded
	}
	return item
}

// ProxyFilters narrows catalog list/random/export queries.
type ProxyFilters struct {
	ValidOnly        bool
	Country          string
	Protocol         Protocol
	Anonymity        Anonymity
	MaxResponseTimeMs *float64
}

// SourceStats is the per-source breakdown returned by Stats().
type SourceStats struct {
	Source            string   `json:"source"`
	Total             int      `json:"total"`
	Valid             int      `json:"valid"`
	Invalid           int      `json:"invalid"`
	SuccessRate       float64  `json:"success_rate"`
	AvgResponseTimeMs *float64 `json:"avg_response_time_ms,omitempty"`
}

// CatalogStats is the aggregate stats() payload (spec.md §4.1).
type CatalogStats struct {
	Total             int                `json:"total"`
	Valid             int                `json:"valid"`
	Invalid           int                `json:"invalid"`
	ByProtocol        map[string]int     `json:"by_protocol"`
	ByCountry         []CountryCount     `json:"by_country"`
	AvgResponseTimeMs *float64           `json:"avg_response_time_ms,omitempty"`
	SuccessRate       float64            `json:"success_rate"`
	BySource          []SourceStats      `json:"by_source"`
}

// CountryCount is one entry of the top-10 by_country breakdown.
type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}
