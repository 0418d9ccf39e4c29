// Package docsearch implements the documentation backend client.
package docsearch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	domain "docbot/internal/domain/docsearch"
)

// Client is a Resty-backed client for the documentation search API.
type Client struct {
	httpClient *resty.Client
}

var _ domain.Client = (*Client)(nil)

// NewClient creates a documentation backend client.
func NewClient(baseURL, apiKey string) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "docbot/1.0").
		SetTimeout(15 * time.Second)
	if apiKey != "" {
		httpClient.SetHeader("X-API-Key", apiKey)
	}
	return &Client{httpClient: httpClient}
}

// Search queries the documentation index.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	var result domain.SearchResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/search")
	if err != nil {
		return nil, fmt.Errorf("query docs search API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("docs search API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return &result, nil
}

// GetPage fetches one documentation page.
func (c *Client) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	var page domain.Page
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&page).
		Get(fmt.Sprintf("/v1/pages/%s", id))
	if err != nil {
		return nil, fmt.Errorf("fetch doc page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("docs page API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return &page, nil
}

// RecentUpdates lists recently updated pages, newest first.
func (c *Client) RecentUpdates(ctx context.Context, limit int) ([]domain.SearchResult, error) {
	var result struct {
		Updates []domain.SearchResult `json:"updates"`
	}
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&result).
		Get("/v1/updates")
	if err != nil {
		return nil, fmt.Errorf("fetch recent updates: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("docs updates API error (status %d): %s", resp.StatusCode(), resp.String())
	}
	return result.Updates, nil
}
