// Package itunes is the search collaborator backing podtext's `search`
// command: a plain net/http GET against the iTunes Search API, decoded
// with encoding/json into the fields PodcastSearchResult needs.
package itunes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"podtext/internal/model"
)

// BaseURL is the iTunes Search API endpoint.
const BaseURL = "https://itunes.apple.com"

// DefaultTimeout bounds the search request the way every other network
// port in this codebase is timeout-bound.
const DefaultTimeout = 15 * time.Second

// Client queries the iTunes Search API for podcasts.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New builds a Client with a bounded-timeout http.Client.
func New() *Client {
	return &Client{httpClient: &http.Client{Timeout: DefaultTimeout}, baseURL: BaseURL}
}

type response struct {
	Results     []singleResult `json:"results"`
	ResultCount int            `json:"resultCount"`
}

type singleResult struct {
	CollectionName string `json:"collectionName"`
	ArtistName     string `json:"artistName"`
	FeedURL        string `json:"feedUrl"`
	ArtworkURL600  string `json:"artworkUrl600"`
	TrackCount     int    `json:"trackCount"`
}

// Search queries the iTunes podcast directory for q, returning up to limit
// results (0 selects the API's own default page size).
func (c *Client) Search(ctx context.Context, q string, limit int) ([]model.PodcastSearchResult, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}

	searchURL := fmt.Sprintf("%s/search?term=%s&entity=podcast", c.baseURL, url.QueryEscape(q))
	if limit > 0 {
		searchURL += fmt.Sprintf("&limit=%d", limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("itunes search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("itunes search: unexpected status %s", resp.Status)
	}

	var decoded response
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode itunes search response: %w", err)
	}

	out := make([]model.PodcastSearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.FeedURL == "" {
			continue
		}
		out = append(out, model.PodcastSearchResult{
			CollectionName: r.CollectionName,
			ArtistName:     r.ArtistName,
			FeedURL:        r.FeedURL,
			ArtworkURL:     r.ArtworkURL600,
			TrackCount:     r.TrackCount,
		})
	}
	return out, nil
}
