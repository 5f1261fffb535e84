package itunes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_ParsesResultsAndSkipsMissingFeedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "term=")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCount":2,"results":[
			{"collectionName":"Show A","artistName":"Alice","feedUrl":"https://a.example/feed.xml","trackCount":10},
			{"collectionName":"Show B","artistName":"Bob","trackCount":5}
		]}`))
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL

	results, err := c.Search(context.Background(), "test query", 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Show A", results[0].CollectionName)
	assert.Equal(t, "https://a.example/feed.xml", results[0].FeedURL)
}

func TestSearch_EmptyQueryErrors(t *testing.T) {
	c := New()
	_, err := c.Search(context.Background(), "   ", 0)
	assert.Error(t, err)
}

func TestSearch_NonOKStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New()
	c.baseURL = srv.URL
	_, err := c.Search(context.Background(), "query", 0)
	assert.Error(t, err)
}
