package orchestrate

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"podtext/internal/analysis"
	"podtext/internal/diag"
	"podtext/internal/model"
	"podtext/internal/pathsafe"
	"podtext/internal/ports"
	"podtext/internal/render"
)

// FeedIngester is the narrow slice of feed.Ingester the orchestrator
// depends on, so tests can substitute a fake listing without touching the
// network.
type FeedIngester interface {
	List(ctx context.Context, feedURL string, limit int) ([]model.EpisodeRecord, error)
}

// AnalysisEngine is the narrow slice of analysis.Engine the orchestrator
// depends on.
type AnalysisEngine interface {
	Analyze(ctx context.Context, transcriptText string) model.AnalysisResult
}

// LanguageDetector is an optional capability a Transcriber implementation
// may advertise: detect the spoken language and let the orchestrator warn
// on non-English audio rather than fail outright, without widening the
// required ports.Transcriber contract. The orchestrator type-asserts for
// this the way http.Flusher is detected against an http.ResponseWriter: a
// capability check, not a required port.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, audioPath string) (string, error)
}

// unknownEpisodeFallback is the sanitize() target for an episode title
// that sanitizes to empty.
func unknownEpisodeFallback(index int) string {
	return fmt.Sprintf("episode_%d", index)
}

const unknownPodcastFallback = "unknown-podcast"

// defaultDirPerm / defaultFilePerm are the permission bits used for
// directories and files the orchestrator creates.
const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

// Params carries the resolved configuration values the orchestrator needs
// per run, sourced from config.Config plus any CLI flag overrides.
type Params struct {
	MediaDir              string
	OutputDir             string
	WhisperModel          string
	SkipLanguageCheck     bool
	Overwrite             bool
	TempStorage           bool
	AdConfidenceThreshold float64
	SilenceGapThreshold   float64
	EpisodeLimit          int
}

// Orchestrator drives one episode (or a batch) through a fixed state
// machine: RESOLVED -> DOWNLOADED -> TRANSCRIBED -> ANALYZED -> RENDERED
// -> PERSISTED -> CLEANED. It owns no mutable state across calls;
// per-episode state lives on the stack of runOne.
type Orchestrator struct {
	feed        FeedIngester
	fetcher     ports.MediaFetcher
	transcriber ports.Transcriber
	engine      AnalysisEngine
	clock       ports.Clock
	fs          ports.FileSystem
	log         *diag.Logger
	params      Params
}

// New constructs an Orchestrator from its ports and resolved parameters.
func New(feedIngester FeedIngester, fetcher ports.MediaFetcher, transcriber ports.Transcriber, engine AnalysisEngine, clock ports.Clock, fs ports.FileSystem, log *diag.Logger, params Params) *Orchestrator {
	if log == nil {
		log = diag.NewNop()
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if params.AdConfidenceThreshold <= 0 {
		params.AdConfidenceThreshold = analysis.DefaultAdConfidenceThreshold
	}
	if params.SilenceGapThreshold <= 0 {
		params.SilenceGapThreshold = render.DefaultSilenceGapThreshold
	}
	if params.EpisodeLimit <= 0 {
		params.EpisodeLimit = 10
	}
	return &Orchestrator{
		feed:        feedIngester,
		fetcher:     fetcher,
		transcriber: transcriber,
		engine:      engine,
		clock:       clock,
		fs:          fs,
		log:         log,
		params:      params,
	}
}

// RunBatch processes indices strictly sequentially, one episode at a time,
// after deduplicating while preserving first occurrence. A per-entry
// failure never prevents subsequent entries from running; the returned
// slice is in the same (deduplicated) order as the input.
func (o *Orchestrator) RunBatch(ctx context.Context, descriptor model.FeedDescriptor, indices []int) []model.BatchResult {
	deduped := dedupePreserveOrder(indices)
	results := make([]model.BatchResult, 0, len(deduped))
	for _, idx := range deduped {
		select {
		case <-ctx.Done():
			// External interrupt: terminate the batch at the next step
			// boundary; entries not yet started are not emitted at all.
			return results
		default:
		}
		results = append(results, o.RunOne(ctx, descriptor, idx))
	}
	return results
}

func dedupePreserveOrder(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

// RunOne threads a single episode index through every transition. It never
// panics: every fatal error is captured in the returned BatchResult instead
// of propagated, so a caller driving a batch never needs a recover().
func (o *Orchestrator) RunOne(ctx context.Context, descriptor model.FeedDescriptor, index int) model.BatchResult {
	log := o.log.ForEpisode(index)

	episode, err := o.resolve(ctx, descriptor, index)
	if err != nil {
		log.Error("resolve failed", "error", err)
		return model.BatchResult{Index: index, Success: false, Err: err}
	}

	tmpPath, err := o.download(ctx, episode)
	if err != nil {
		log.Error("download failed", "error", err)
		return model.BatchResult{Index: index, Success: false, Err: err}
	}

	transcript, err := o.transcribe(ctx, log, index, tmpPath)
	if err != nil {
		log.Error("transcription failed", "error", err)
		return model.BatchResult{Index: index, Success: false, Err: err}
	}

	body := render.AssembleTranscriptBody(transcript.Segments, o.params.SilenceGapThreshold)
	analysisResult := o.analyze(ctx, log, body)
	edited := analysis.ApplyAdExcision(body, analysisResult.AdSpans, o.params.AdConfidenceThreshold)

	doc := render.Build(episode, descriptor.PodcastName, edited, analysisResult)
	rendered, err := render.Render(doc)
	if err != nil {
		log.Error("render failed", "error", err)
		return model.BatchResult{Index: index, Success: false, Err: fail(KindWriteError, index, err)}
	}

	outPath, err := o.persist(index, descriptor.PodcastName, episode, rendered)
	if err != nil {
		log.Error("persist failed", "error", err)
		return model.BatchResult{Index: index, Success: false, Err: err}
	}

	o.cleanup(log, tmpPath)

	log.Info("episode complete", "output_path", outPath)
	return model.BatchResult{Index: index, Success: true, OutputPath: outPath}
}

// resolve implements start -> RESOLVED: list at least `index` entries and
// select the one at that 1-based position.
func (o *Orchestrator) resolve(ctx context.Context, descriptor model.FeedDescriptor, index int) (model.EpisodeRecord, error) {
	if index < 1 {
		return model.EpisodeRecord{}, fail(KindIndexOutOfRange, index, fmt.Errorf("index must be >= 1, got %d", index))
	}
	limit := o.params.EpisodeLimit
	if index > limit {
		limit = index
	}
	episodes, err := o.feed.List(ctx, descriptor.FeedURL, limit)
	if err != nil {
		kind := KindFeedUnreachable
		if strings.Contains(err.Error(), "unparseable") {
			kind = KindFeedUnparseable
		}
		return model.EpisodeRecord{}, fail(kind, index, err)
	}
	for _, ep := range episodes {
		if ep.Index == index {
			return ep, nil
		}
	}
	return model.EpisodeRecord{}, fail(KindIndexOutOfRange, index,
		fmt.Errorf("episode index %d out of range (listing has %d entries)", index, len(episodes)))
}

// download implements RESOLVED -> DOWNLOADED: fetch the episode's media to
// a temp path under MediaDir. The basename is derived from the URL path's
// last segment run through pathsafe.Sanitize (Open Question #3, resolved
// in SPEC_FULL.md).
func (o *Orchestrator) download(ctx context.Context, episode model.EpisodeRecord) (string, error) {
	if err := o.fs.MkdirAll(o.params.MediaDir, defaultDirPerm); err != nil {
		return "", fail(KindDownloadError, episode.Index, fmt.Errorf("create media dir: %w", err))
	}
	basename := mediaBasename(episode.MediaURL, episode.Index)
	tmpPath := filepath.Join(o.params.MediaDir, basename)
	if err := o.fetcher.Fetch(ctx, episode.MediaURL, tmpPath); err != nil {
		return "", fail(KindDownloadError, episode.Index, err)
	}
	return tmpPath, nil
}

func mediaBasename(mediaURL string, index int) string {
	last := mediaURL
	if i := strings.LastIndexByte(mediaURL, '/'); i >= 0 && i+1 < len(mediaURL) {
		last = mediaURL[i+1:]
	}
	safe := pathsafe.Sanitize(last, 80, "")
	if safe == "" {
		// Empty sanitized basename: break the tie with a short uuid
		// suffix rather than deriving a hash from the URL.
		safe = fmt.Sprintf("episode-%d-%s.media", index, uuid.NewString())
	}
	return safe
}

// transcribe implements DOWNLOADED -> TRANSCRIBED: an optional language
// check (skipped if SkipLanguageCheck, or if the configured Transcriber
// doesn't implement LanguageDetector) followed by the mandatory
// transcription call.
func (o *Orchestrator) transcribe(ctx context.Context, log *diag.Logger, index int, tmpPath string) (model.TranscriptionResult, error) {
	if !o.params.SkipLanguageCheck {
		if detector, ok := o.transcriber.(LanguageDetector); ok {
			if lang, err := detector.DetectLanguage(ctx, tmpPath); err != nil {
				log.Warn("language detection unavailable", "error", err)
			} else if lang != "" && lang != "en" {
				log.Warn("non-English episode detected, continuing anyway", "language", lang)
			}
		}
	}

	result, err := o.transcriber.Transcribe(ctx, tmpPath, o.params.WhisperModel)
	if err != nil {
		return model.TranscriptionResult{}, fail(KindTranscriptionError, index, err)
	}
	return result, nil
}

// analyze implements TRANSCRIBED -> ANALYZED. AnalysisUnavailable is
// recovered entirely inside analysis.Engine.Analyze: every sub-call
// failure there only leaves its own field empty and logs a warning, so
// this call can never fail the episode.
func (o *Orchestrator) analyze(ctx context.Context, log *diag.Logger, body string) model.AnalysisResult {
	result := o.engine.Analyze(ctx, body)
	if result.Empty() {
		log.Warn("analysis produced no enrichment, rendering degraded output")
	}
	return result
}

// persist implements RENDERED -> PERSISTED: compute the sanitized output
// path, refuse to overwrite an existing file unless configured to, mkdir
// the parent, and write. A write failure removes any partial file.
func (o *Orchestrator) persist(index int, podcastName string, episode model.EpisodeRecord, rendered string) (string, error) {
	dir := filepath.Join(o.params.OutputDir, pathsafe.Sanitize(podcastName, pathsafe.DefaultMaxLength, unknownPodcastFallback))
	name := pathsafe.Sanitize(episode.Title, pathsafe.DefaultMaxLength, unknownEpisodeFallback(index)) + ".md"
	outPath := filepath.Join(dir, name)

	if !o.params.Overwrite && o.fs.Exists(outPath) {
		return "", fail(KindWriteError, index, fmt.Errorf("output file already exists: %s (use overwrite to replace)", outPath))
	}
	if err := o.fs.MkdirAll(dir, defaultDirPerm); err != nil {
		return "", fail(KindWriteError, index, fmt.Errorf("create output dir: %w", err))
	}
	if err := o.fs.WriteFile(outPath, []byte(rendered), defaultFilePerm); err != nil {
		_ = o.fs.Remove(outPath)
		return "", fail(KindWriteError, index, fmt.Errorf("write output file: %w", err))
	}
	return outPath, nil
}

// cleanup implements PERSISTED -> CLEANED: delete the downloaded media
// file when TempStorage is enabled. Failure here is recovered -- logged,
// never returned, never fails the episode.
func (o *Orchestrator) cleanup(log *diag.Logger, tmpPath string) {
	if !o.params.TempStorage {
		return
	}
	if err := o.fs.Remove(tmpPath); err != nil {
		log.Warn("cleanup failed", "path", tmpPath, "error", err)
	}
}
