package models

// JurisdictionSummary describes a registered jurisdiction for discovery
// endpoints.
type JurisdictionSummary struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Domains []Domain `json:"domains"`
}
