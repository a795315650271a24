// Package catalog provides a client for the Open Library search API, used to
// pre-fill book metadata from a free-text title/author query.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// SearchLimit caps how many results a search returns, in the relevance order
// the service ranked them.
const SearchLimit = 12

// DefaultEndpoint is the public Open Library search endpoint.
const DefaultEndpoint = "https://openlibrary.org/search.json"

const coverURLTemplate = "https://covers.openlibrary.org/b/id/%d-M.jpg"

// Result is one candidate record from a catalog search. It is transient:
// used only to seed a book draft, never stored.
type Result struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	AuthorName []string `json:"author_name"`
	CoverID    int      `json:"cover_i"`
	ISBN       []string `json:"isbn"`
}

// CoverURL returns the image-host URL for the result's cover, or "" when the
// catalog reported no cover id (callers substitute a placeholder).
func (r Result) CoverURL() string {
	if r.CoverID == 0 {
		return ""
	}
	return fmt.Sprintf(coverURLTemplate, r.CoverID)
}

type searchResponse struct {
	Docs []Result `json:"docs"`
}

// Client queries the Open Library search API.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient initializes a Client against the given search endpoint.
func NewClient(endpoint string) *Client {
	return &Client{endpoint: endpoint, http: http.DefaultClient}
}

// Search returns up to SearchLimit candidate records for a free-text query.
// An empty or whitespace-only query issues no call and returns no results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	reqURL := c.endpoint + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build catalog request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not GET catalog search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("error response %d from catalog: %s", resp.StatusCode, string(body))
	}

	var data searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("could not unmarshal catalog response: %w", err)
	}

	docs := data.Docs
	if len(docs) > SearchLimit {
		docs = docs[:SearchLimit]
	}
	return docs, nil
}
