// Package feed parses an RSS/Atom byte stream into an ordered, indexed
// sequence of model.EpisodeRecord, using a timeout-bound http.Client and
// github.com/mmcdole/gofeed for the parse itself.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"podtext/internal/model"
)

// ErrFeedUnreachable is returned when the upstream byte stream for a feed
// could not be obtained at all.
var ErrFeedUnreachable = errors.New("feed unreachable")

// ErrFeedUnparseable is returned when the stream was read but yielded zero
// usable entries.
var ErrFeedUnparseable = errors.New("feed unparseable")

// DefaultLimit is used by Ingester.List when the caller passes limit <= 0.
const DefaultLimit = 10

// Ingester parses feeds into ordered episode listings.
type Ingester struct {
	client *http.Client
	parser *gofeed.Parser
}

// NewIngester builds an Ingester with a timeout-bound HTTP client.
func NewIngester(timeout time.Duration) *Ingester {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	cli := &http.Client{Timeout: timeout}
	p := gofeed.NewParser()
	p.Client = cli
	return &Ingester{client: cli, parser: p}
}

// List fetches feedURL and returns up to limit EpisodeRecords, most recent
// first, 1-based index. Malformed entries (missing title or media URL) are
// skipped rather than erroring the whole listing.
func (ing *Ingester) List(ctx context.Context, feedURL string, limit int) ([]model.EpisodeRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	f, err := ing.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil || f == nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFeedUnreachable, feedURL, err)
	}
	return recordsFromFeed(f, feedURL, limit)
}

// PodcastName fetches feedURL and returns the feed's own title, i.e. the
// podcast's name rather than any one episode's. Used by CLI callers to
// resolve FeedDescriptor.PodcastName before handing a batch to the
// orchestrator, since the transcribe command's positional arguments never
// supply a podcast name directly.
func (ing *Ingester) PodcastName(ctx context.Context, feedURL string) (string, error) {
	f, err := ing.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil || f == nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFeedUnreachable, feedURL, err)
	}
	return strings.TrimSpace(f.Title), nil
}

// ListFromBytes parses a feed already read into memory (e.g. in tests, or
// when the caller owns the HTTP fetch itself).
func ListFromBytes(data []byte, feedURL string, limit int) ([]model.EpisodeRecord, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	f, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil || f == nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnparseable, err)
	}
	return recordsFromFeed(f, feedURL, limit)
}

func recordsFromFeed(f *gofeed.Feed, feedURL string, limit int) ([]model.EpisodeRecord, error) {
	out := make([]model.EpisodeRecord, 0, limit)
	idx := 0
	for _, item := range f.Items {
		if idx >= limit {
			break
		}
		if item == nil {
			continue
		}
		title := strings.TrimSpace(item.Title)
		mediaURL := firstEnclosureURL(item)
		if title == "" || mediaURL == "" {
			continue // malformed entry: skipped, not errored
		}

		idx++
		out = append(out, model.EpisodeRecord{
			Index:     idx,
			Title:     title,
			PubDate:   pubDate(item),
			MediaURL:  mediaURL,
			ShowNotes: showNotes(item),
			FeedURL:   feedURL,
		})
	}
	if len(out) == 0 {
		return nil, ErrFeedUnparseable
	}
	return out, nil
}

func firstEnclosureURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if u := strings.TrimSpace(enc.URL); u != "" {
			return u
		}
	}
	return ""
}

func pubDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}

// showNotes resolves a content[0].value -> summary -> description
// priority. gofeed folds Atom's <summary> and RSS's <description> into the
// single Item.Description field and <content:encoded>/Atom <content> into
// Item.Content, so the three-way priority collapses to trying Content
// first, then Description.
func showNotes(item *gofeed.Item) string {
	if v := strings.TrimSpace(item.Content); v != "" {
		return item.Content
	}
	if v := strings.TrimSpace(item.Description); v != "" {
		return item.Description
	}
	return ""
}
