// Package transcribe implements ports.Transcriber, the pluggable ASR
// binding the core orchestrator never imports directly. It is a concrete
// adapter so the repository is runnable end to end, using the same
// openai.NewClient(option.WithBaseURL(...)) construction as this module's
// own analysis.NewOpenAIClient, pointed at the OpenAI-compatible audio
// transcription endpoint instead of chat completions.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"podtext/internal/model"
	"podtext/internal/ports"
)

// DefaultTimeout bounds one transcription call.
const DefaultTimeout = 5 * time.Minute

// Client implements ports.Transcriber against an OpenAI-compatible
// /audio/transcriptions endpoint (whisper.cpp server, a local inference
// proxy, or the hosted API), requesting the verbose_json response format
// so segment timing is available for render.AssembleTranscriptBody's
// silence-gap paragraph heuristic.
type Client struct {
	client  openai.Client
	timeout time.Duration
}

// New builds a transcribe.Client pointed at baseURL with apiKey, the same
// way analysis.NewOpenAIClient is constructed.
func New(baseURL, apiKey string) ports.Transcriber {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Client{client: openai.NewClient(opts...), timeout: DefaultTimeout}
}

// Transcribe implements ports.Transcriber: it opens audioPath, requests a
// verbose_json transcription at modelID, and maps the response onto
// model.TranscriptionResult (segments carry start/end timing, text is the
// full transcript, language is whisper's own ISO-639-1 detection).
func (c *Client) Transcribe(ctx context.Context, audioPath string, modelID string) (model.TranscriptionResult, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	file, err := os.Open(audioPath)
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("open audio file %s: %w", audioPath, err)
	}
	defer file.Close()

	// The typed return of Transcriptions.New is *openai.Transcription,
	// which only carries Text/Logprobs/Usage -- the verbose_json fields
	// (Language, Segments) live on openai.TranscriptionVerbose instead.
	// WithResponseBodyInto decodes the raw response body into that wider
	// type directly, bypassing the narrower typed helper return.
	var verbose openai.TranscriptionVerbose
	_, err = c.client.Audio.Transcriptions.New(timeoutCtx, openai.AudioTranscriptionNewParams{
		File:           file,
		Model:          openai.AudioModel(modelID),
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
	}, option.WithResponseBodyInto(&verbose))
	if err != nil {
		return model.TranscriptionResult{}, fmt.Errorf("transcription request failed: %w", err)
	}

	return mapResponse(&verbose), nil
}

func mapResponse(resp *openai.TranscriptionVerbose) model.TranscriptionResult {
	result := model.TranscriptionResult{
		Text:     resp.Text,
		Language: normalizeLanguage(resp.Language),
	}
	for _, seg := range resp.Segments {
		result.Segments = append(result.Segments, model.Segment{
			StartS: seg.Start,
			EndS:   seg.End,
			Text:   seg.Text,
		})
	}
	if len(result.Segments) == 0 && result.Text != "" {
		// Some backends omit segments entirely; fall back to a single
		// whole-transcript segment so AssembleTranscriptBody still has
		// something to paragraph on.
		result.Segments = []model.Segment{{StartS: 0, EndS: 0, Text: result.Text}}
	}
	return result
}

func normalizeLanguage(lang string) string {
	if lang == "" {
		return "en"
	}
	return lang
}
