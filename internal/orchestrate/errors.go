// Package orchestrate implements the pipeline's per-episode state machine:
// resolve -> download -> transcribe -> analyze -> render -> persist ->
// cleanup, one episode at a time, with a per-step failure policy, a
// logger-threaded and context-cancelable run loop.
package orchestrate

import "fmt"

// ErrKind names one of the fatal-for-an-episode error kinds. Recoverable
// kinds (analysis degradation, a missing prompt file, a cleanup failure)
// never surface as an ErrKind here because the code that raises them
// (analysis.Engine for the first two, Orchestrator.cleanup for the last)
// consumes them locally and only logs a warning;
// only the kinds that are fatal for an episode or command reach this
// type.
type ErrKind string

const (
	KindIndexOutOfRange    ErrKind = "index_out_of_range"
	KindFeedUnreachable    ErrKind = "feed_unreachable"
	KindFeedUnparseable    ErrKind = "feed_unparseable"
	KindDownloadError      ErrKind = "download_error"
	KindTranscriptionError ErrKind = "transcription_error"
	KindWriteError         ErrKind = "write_error"
	KindConfigInvalid      ErrKind = "config_invalid"
)

// PipelineError is the typed error every fatal-for-this-episode failure is
// wrapped in, so callers can errors.As to the Kind instead of matching
// strings.
type PipelineError struct {
	Kind         ErrKind
	EpisodeIndex int
	Err          error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("episode %d: %s: %v", e.EpisodeIndex, e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

func fail(kind ErrKind, index int, err error) error {
	return &PipelineError{Kind: kind, EpisodeIndex: index, Err: err}
}
