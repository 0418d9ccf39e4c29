package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"docbot/internal/domain/run"
	"docbot/internal/domain/tool"
)

// Tool names as advertised to the assistant.
const (
	ToolSearchDocs    = "search_docs"
	ToolGetDocPage    = "get_doc_page"
	ToolRecentUpdates = "recent_updates"
)

const defaultSearchLimit = 5

// SearchDocsInput are the parameters of the search_docs tool.
type SearchDocsInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Search phrase to look up in the documentation."`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results to return (default 5)."`
}

// GetDocPageInput are the parameters of the get_doc_page tool.
type GetDocPageInput struct {
	PageID string `json:"page_id" jsonschema:"required" jsonschema_description:"Identifier of the documentation page to fetch."`
}

// RecentUpdatesInput are the parameters of the recent_updates tool.
type RecentUpdatesInput struct {
	Limit int `json:"limit,omitempty" jsonschema_description:"Maximum number of recently updated pages to return (default 5)."`
}

// Tools builds the documentation tool definitions over the given client.
func Tools(client Client) []tool.Definition {
	return []tool.Definition{
		{
			Name:        ToolSearchDocs,
			Description: "Search the documentation and return the most relevant pages with snippets.",
			Parameters:  tool.GenerateSchema[SearchDocsInput](),
			Invoke:      searchDocs(client),
		},
		{
			Name:        ToolGetDocPage,
			Description: "Fetch the full content of a documentation page by its identifier.",
			Parameters:  tool.GenerateSchema[GetDocPageInput](),
			Invoke:      getDocPage(client),
		},
		{
			Name:        ToolRecentUpdates,
			Description: "List the most recently updated documentation pages.",
			Parameters:  tool.GenerateSchema[RecentUpdatesInput](),
			Invoke:      recentUpdates(client),
		},
	}
}

// RecoveryRules maps search intent in failed turns onto the documentation
// tools, for the orchestrator's direct-tool fallback.
func RecoveryRules() []run.RecoveryRule {
	return []run.RecoveryRule{
		{
			Keywords: []string{"latest", "recent", "what's new", "whats new", "changelog", "update"},
			Tool:     ToolRecentUpdates,
			Arguments: func(string) json.RawMessage {
				args, _ := json.Marshal(RecentUpdatesInput{Limit: defaultSearchLimit})
				return args
			},
		},
		{
			Keywords: []string{"doc", "documentation", "how do i", "how to", "search", "guide", "where"},
			Tool:     ToolSearchDocs,
			Arguments: func(term string) json.RawMessage {
				args, _ := json.Marshal(SearchDocsInput{Query: term, Limit: defaultSearchLimit})
				return args
			},
		},
	}
}

func searchDocs(client Client) tool.InvokeFunc {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var in SearchDocsInput
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("parse search_docs arguments: %w", err)
		}
		if strings.TrimSpace(in.Query) == "" {
			return "", fmt.Errorf("search_docs requires a non-empty query")
		}
		if in.Limit <= 0 {
			in.Limit = defaultSearchLimit
		}

		resp, err := client.Search(ctx, SearchRequest{Query: in.Query, Limit: in.Limit})
		if err != nil {
			return "", err
		}
		return FormatResults(in.Query, resp.Results), nil
	}
}

func getDocPage(client Client) tool.InvokeFunc {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var in GetDocPageInput
		if err := json.Unmarshal(args, &in); err != nil {
			return "", fmt.Errorf("parse get_doc_page arguments: %w", err)
		}
		if strings.TrimSpace(in.PageID) == "" {
			return "", fmt.Errorf("get_doc_page requires a page_id")
		}

		page, err := client.GetPage(ctx, in.PageID)
		if err != nil {
			return "", err
		}
		return FormatPage(page), nil
	}
}

func recentUpdates(client Client) tool.InvokeFunc {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		var in RecentUpdatesInput
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("parse recent_updates arguments: %w", err)
			}
		}
		if in.Limit <= 0 {
			in.Limit = defaultSearchLimit
		}

		results, err := client.RecentUpdates(ctx, in.Limit)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "No recently updated documentation pages found.", nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Recently updated pages (%d):\n", len(results))
		writeResults(&sb, results)
		return sb.String(), nil
	}
}

// FormatResults renders search hits as assistant-readable text.
func FormatResults(query string, results []SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No documentation results for %q.", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d result(s) for %q:\n", len(results), query)
	writeResults(&sb, results)
	return sb.String()
}

// FormatPage renders one page as assistant-readable text.
func FormatPage(page *Page) string {
	var sb strings.Builder
	sb.WriteString(page.Title)
	if page.URL != "" {
		fmt.Fprintf(&sb, " (%s)", page.URL)
	}
	sb.WriteString("\n\n")
	sb.WriteString(page.Body)
	return sb.String()
}

func writeResults(sb *strings.Builder, results []SearchResult) {
	for i, res := range results {
		fmt.Fprintf(sb, "%d. %s", i+1, res.Title)
		if res.URL != "" {
			fmt.Fprintf(sb, " <%s>", res.URL)
		}
		if res.UpdatedAt != "" {
			fmt.Fprintf(sb, " (updated %s)", res.UpdatedAt)
		}
		sb.WriteString("\n")
		if res.Snippet != "" {
			fmt.Fprintf(sb, "   %s\n", res.Snippet)
		}
	}
}
