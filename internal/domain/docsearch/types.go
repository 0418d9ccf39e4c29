// Package docsearch defines the documentation-search collaborator contract
// and the tools built on top of it.
package docsearch

import "context"

// SearchRequest is a query against the documentation backend.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResult is one documentation hit.
type SearchResult struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// SearchResponse contains the hits for a query.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Page is a full documentation page.
type Page struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
	Body  string `json:"body"`
}

// Client abstracts the documentation backend.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	GetPage(ctx context.Context, id string) (*Page, error)
	RecentUpdates(ctx context.Context, limit int) ([]SearchResult, error)
}
