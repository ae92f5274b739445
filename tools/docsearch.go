package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docsearch/documenter-mcp/internal/docsearch"
	"github.com/docsearch/documenter-mcp/internal/searchindex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

// FragmentResult is a record as returned to MCP clients
type FragmentResult struct {
	Location string `json:"location"`
	Page     string `json:"page"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Snippet  string `json:"snippet"`
	URL      string `json:"url,omitempty"`
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Text to look for in fragment titles and text (case-insensitive)"`
	Mode       string `json:"mode,omitempty" jsonschema:"substring (default) or keyword"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, max 50)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results   []FragmentResult `json:"results"`
	Query     string           `json:"query"`
	Mode      string           `json:"mode"`
	TotalHits int              `json:"total_hits"`
}

// GetFragmentInput defines input for get_fragment tool
type GetFragmentInput struct {
	Location string `json:"location" jsonschema:"Exact location, e.g. methods/#SpecialMatrices.Cauchy"`
}

// GetFragmentOutput defines output for get_fragment tool
type GetFragmentOutput struct {
	Fragments []FragmentResult `json:"fragments"`
}

// ListPagesInput defines input for list_pages tool
type ListPagesInput struct{}

// ListPagesOutput defines output for list_pages tool
type ListPagesOutput struct {
	Pages []searchindex.Page `json:"pages"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Force re-download and re-indexing (optional, defaults to false)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated        bool      `json:"updated"`
	Changed        bool      `json:"changed"`
	LastUpdate     time.Time `json:"last_update"`
	RecordsIndexed int       `json:"records_indexed"`
	Message        string    `json:"message"`
}

// DocSearch serves the documentation tools from a docsearch.Service
type DocSearch struct {
	service *docsearch.Service
	logger  *zerolog.Logger
}

func NewDocSearch(service *docsearch.Service, logger *zerolog.Logger) *DocSearch {
	return &DocSearch{service: service, logger: logger}
}

func toFragmentResults(hits []docsearch.Hit) []FragmentResult {
	out := make([]FragmentResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, FragmentResult{
			Location: h.Location,
			Page:     h.Page,
			Title:    h.Title,
			Category: string(h.Category),
			Snippet:  h.Snippet,
			URL:      h.URL,
		})
	}
	return out
}

// SearchDocumentation looks up fragments by substring or keyword
func (d *DocSearch) SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	mode, err := docsearch.ParseMode(input.Mode)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	results, err := d.service.Lookup(ctx, mode, input.Query, input.MaxResults)
	if err != nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("search failed: %w", err)
	}

	d.logger.Debug().
		Str("query", input.Query).
		Str("mode", string(mode)).
		Int("hits", results.Total).
		Msg("search_documentation")

	return nil, SearchDocumentationOutput{
		Results:   toFragmentResults(results.Hits),
		Query:     results.Query,
		Mode:      string(results.Mode),
		TotalHits: results.Total,
	}, nil
}

// GetFragment returns every fragment stored at an exact location
func (d *DocSearch) GetFragment(ctx context.Context, req *mcp.CallToolRequest, input GetFragmentInput) (*mcp.CallToolResult, GetFragmentOutput, error) {
	hits, err := d.service.Fragments(ctx, input.Location)
	if err != nil {
		if errors.Is(err, searchindex.ErrNotFound) {
			return nil, GetFragmentOutput{}, fmt.Errorf("no fragment at location %q", input.Location)
		}
		return nil, GetFragmentOutput{}, fmt.Errorf("lookup failed: %w", err)
	}
	return nil, GetFragmentOutput{Fragments: toFragmentResults(hits)}, nil
}

// ListPages lists documentation pages in order of first appearance
func (d *DocSearch) ListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	pages, err := d.service.Pages(ctx)
	if err != nil {
		return nil, ListPagesOutput{}, fmt.Errorf("failed to list pages: %w", err)
	}
	return nil, ListPagesOutput{Pages: pages}, nil
}

// RefreshDocumentationIndex re-fetches the search index when stale or forced
func (d *DocSearch) RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	result, err := d.service.Refresh(ctx, input.Force)
	if err != nil {
		return nil, RefreshDocumentationIndexOutput{}, fmt.Errorf("refresh failed: %w", err)
	}

	return nil, RefreshDocumentationIndexOutput{
		Updated:        result.Updated,
		Changed:        result.Changed,
		LastUpdate:     result.LastUpdate,
		RecordsIndexed: result.RecordsIndexed,
		Message:        result.Message,
	}, nil
}

// RegisterDocSearchTools initializes the service and registers the
// documentation tools. A failed initialization is retried on first use.
func RegisterDocSearchTools(ctx context.Context, server *mcp.Server, d *DocSearch) {
	if err := d.service.Initialize(ctx); err != nil {
		d.logger.Warn().Err(err).Msg("Warning: Documentation search initialization failed")
		d.logger.Warn().Msg("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search the documentation fragments by case-insensitive substring (default) or keyword. Results keep documentation order.",
		},
		d.SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_fragment",
			Description: "Get the documentation fragments stored at an exact location such as methods/#SpecialMatrices.Cauchy",
		},
		d.GetFragment,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pages",
			Description: "List documentation pages with their paths and fragment counts",
		},
		d.ListPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Re-fetch and re-index the documentation search index. Skipped while the cache is fresh unless forced",
		},
		d.RefreshDocumentationIndex,
	)
}
