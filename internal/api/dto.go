package api

import "github.com/starford/othala/internal/modservice"

// ModSummary is a lightweight item in a mod list response (aliased from
// the domain layer).
type ModSummary = modservice.ModSummary

// ModDetail is the full mod response type (aliased from the domain layer).
type ModDetail = modservice.ModDetail

// ModListResponse wraps mod listings.
type ModListResponse struct {
	Mods  []ModSummary `json:"mods"`
	Total int          `json:"total"`
}

// LoadOrderResponse wraps the resolved load order.
type LoadOrderResponse struct {
	Order []string `json:"order"`
}

// DocumentKeysResponse wraps the list of content keys.
type DocumentKeysResponse struct {
	Keys  []string `json:"keys"`
	Total int      `json:"total"`
}

// SearchResult is a single content search hit in the API response.
type SearchResult struct {
	Key     string `json:"key"`
	Snippet string `json:"snippet"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
