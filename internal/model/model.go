// Package model holds the value objects shared across podtext's pipeline:
// feed descriptors, episode records, transcription and analysis results,
// and the documents the orchestrator renders and persists.
package model

import "time"

// FeedDescriptor identifies the podcast feed a batch operates against.
type FeedDescriptor struct {
	FeedURL     string
	PodcastName string
}

// EpisodeRecord is one entry resolved from an RSS/Atom feed. Index is
// 1-based and only unique within one fetched listing.
type EpisodeRecord struct {
	Index     int
	Title     string
	PubDate   time.Time
	MediaURL  string
	ShowNotes string
	FeedURL   string
}

// Segment is one timed span of a transcript.
type Segment struct {
	StartS float64
	EndS   float64
	Text   string
}

// TranscriptionResult is the output of the Transcriber port.
type TranscriptionResult struct {
	Text     string
	Segments []Segment
	Language string
}

// AdSpan is a half-open character interval into transcript text flagged as
// advertisement, with the engine's confidence in that judgment.
type AdSpan struct {
	StartChar  int
	EndChar    int
	Confidence float64
}

// AnalysisResult is produced once per episode by the AnalysisEngine. Any
// field may be empty if its sub-call failed or the AI backend was
// unreachable; degradation of one field does not invalidate the rest.
type AnalysisResult struct {
	Summary string
	Topics  []string
	Keywords []string
	AdSpans []AdSpan
}

// Empty reports whether every enrichment field is unset, i.e. the AI
// backend never produced any usable output for this episode.
func (r AnalysisResult) Empty() bool {
	return r.Summary == "" && len(r.Topics) == 0 && len(r.Keywords) == 0 && len(r.AdSpans) == 0
}

// FrontMatterField is one ordered key/value pair in an OutputDocument's
// YAML front matter. A plain map would lose the field order callers
// expect on the rendered document.
type FrontMatterField struct {
	Key   string
	Value any
}

// OutputDocument is the rendered, not-yet-persisted result of one episode.
type OutputDocument struct {
	FrontMatter []FrontMatterField
	Body        string
}

// BatchResult records the outcome of one episode within a batch run.
// Exactly one of OutputPath / Err is set.
type BatchResult struct {
	Index      int
	Success    bool
	OutputPath string
	Err        error
}

// PodcastSearchResult is one hit from the iTunes podcast search adapter.
type PodcastSearchResult struct {
	CollectionName string
	ArtistName     string
	FeedURL        string
	ArtworkURL     string
	TrackCount     int
}
