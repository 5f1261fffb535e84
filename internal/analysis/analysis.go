// Package analysis drives the external LLM port through four independent
// prompt templates (summary, topics, keywords, advertisement detection)
// and applies ad excision to a transcript. Each prompt is hydrated with
// text/template (template.New(name).Parse(...).Execute) and fails
// independently of the other three.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"podtext/internal/diag"
	"podtext/internal/model"
	"podtext/internal/ports"
)

// AdExcisionMarker is the exact literal inserted in place of an excised ad
// span; tests assert on this exact constant.
const AdExcisionMarker = "[ADVERTISEMENT WAS REMOVED]"

// DefaultAdConfidenceThreshold is the ad-detection confidence floor used
// when a caller doesn't configure one.
const DefaultAdConfidenceThreshold = 0.9

var errPromptMalformed = errors.New("prompt file missing a required heading")

// Engine drives analysis through an ports.LLMClient. It never imports a
// concrete LLM implementation; callers construct one (e.g. openaiLLMClient
// in this package) and pass it in.
type Engine struct {
	client  ports.LLMClient
	prompts promptSet
	log     *diag.Logger
}

// New constructs an Engine. If promptFilePath is empty, unreadable, or
// missing a required heading, the engine falls back to the built-in
// defaults and logs a warning rather than failing.
func New(client ports.LLMClient, promptFilePath string, log *diag.Logger) *Engine {
	if log == nil {
		log = diag.NewNop()
	}
	prompts := defaultPrompts()
	if promptFilePath != "" {
		if loaded, err := loadPromptFile(promptFilePath); err == nil {
			prompts = loaded
		} else {
			log.Warn("prompt file missing or malformed, using built-in defaults",
				"path", promptFilePath, "error", err)
		}
	}
	return &Engine{client: client, prompts: prompts, log: log}
}

// Analyze performs the four sub-calls in order. Each is independent: a
// failure in one (LLM unreachable, rate-limited, or unparsable response)
// leaves only that field empty and records a warning; it never aborts the
// remaining sub-calls.
func (e *Engine) Analyze(ctx context.Context, transcriptText string) model.AnalysisResult {
	var result model.AnalysisResult

	if summary, err := e.runSummary(ctx, transcriptText); err != nil {
		e.log.Warn("summary analysis unavailable", "error", err)
	} else {
		result.Summary = summary
	}

	if topics, err := e.runTopics(ctx, transcriptText); err != nil {
		e.log.Warn("topic extraction unavailable", "error", err)
	} else {
		result.Topics = topics
	}

	if keywords, err := e.runKeywords(ctx, transcriptText); err != nil {
		e.log.Warn("keyword extraction unavailable", "error", err)
	} else {
		result.Keywords = keywords
	}

	if ads, err := e.runAdDetection(ctx, transcriptText); err != nil {
		e.log.Warn("advertisement detection unavailable", "error", err)
	} else {
		result.AdSpans = ads
	}

	return result
}

func (e *Engine) runSummary(ctx context.Context, transcript string) (string, error) {
	prompt, err := hydrate(e.prompts.summary, transcript)
	if err != nil {
		return "", err
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("empty summary response")
	}
	return out, nil
}

func (e *Engine) runTopics(ctx context.Context, transcript string) ([]string, error) {
	prompt, err := hydrate(e.prompts.topics, transcript)
	if err != nil {
		return nil, err
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var topics []string
	if err := json.Unmarshal([]byte(extractJSON(out)), &topics); err != nil {
		return nil, err
	}
	return nonEmptyStrings(topics), nil
}

func (e *Engine) runKeywords(ctx context.Context, transcript string) ([]string, error) {
	prompt, err := hydrate(e.prompts.keywords, transcript)
	if err != nil {
		return nil, err
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var keywords []string
	if err := json.Unmarshal([]byte(extractJSON(out)), &keywords); err != nil {
		return nil, err
	}
	return dedupe(nonEmptyStrings(keywords)), nil
}

type adSpanWire struct {
	StartChar  int     `json:"start_char"`
	EndChar    int     `json:"end_char"`
	Confidence float64 `json:"confidence"`
}

func (e *Engine) runAdDetection(ctx context.Context, transcript string) ([]model.AdSpan, error) {
	prompt, err := hydrate(e.prompts.ads, transcript)
	if err != nil {
		return nil, err
	}
	out, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var wire []adSpanWire
	if err := json.Unmarshal([]byte(extractJSON(out)), &wire); err != nil {
		return nil, err
	}
	spans := make([]model.AdSpan, 0, len(wire))
	textLen := len([]rune(transcript))
	for _, w := range wire {
		if w.StartChar < 0 || w.EndChar <= w.StartChar || w.EndChar > textLen {
			continue // drop spans that don't satisfy the data model invariant
		}
		spans = append(spans, model.AdSpan{
			StartChar:  w.StartChar,
			EndChar:    w.EndChar,
			Confidence: w.Confidence,
		})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].StartChar < spans[j].StartChar })
	return spans, nil
}

// extractJSON trims a response down to its outermost [ ... ] or { ... }
// span, tolerating a model that wraps JSON in prose or code fences.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	open, close := s[start], byte(']')
	if open == '{' {
		close = '}'
	}
	end := strings.LastIndexByte(s, close)
	if end < start {
		return s
	}
	return s[start : end+1]
}

func nonEmptyStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ApplyAdExcision drops low-confidence spans, merges overlaps, then
// replaces end-to-start so earlier offsets stay valid across edits.
func ApplyAdExcision(text string, spans []model.AdSpan, threshold float64) string {
	surviving := make([]model.AdSpan, 0, len(spans))
	for _, s := range spans {
		if s.Confidence >= threshold {
			surviving = append(surviving, s)
		}
	}
	if len(surviving) == 0 {
		return text
	}

	sort.Slice(surviving, func(i, j int) bool { return surviving[i].StartChar < surviving[j].StartChar })
	merged := mergeSpans(surviving)

	// Span offsets count characters (runes), not bytes.
	out := []rune(text)
	for i := len(merged) - 1; i >= 0; i-- {
		s := merged[i]
		if s.StartChar < 0 || s.EndChar > len(out) || s.StartChar >= s.EndChar {
			continue
		}
		out = append(append(out[:s.StartChar:s.StartChar], []rune(AdExcisionMarker)...), out[s.EndChar:]...)
	}
	return string(out)
}

func mergeSpans(sorted []model.AdSpan) []model.AdSpan {
	out := make([]model.AdSpan, 0, len(sorted))
	for _, s := range sorted {
		if len(out) > 0 && s.StartChar <= out[len(out)-1].EndChar {
			last := &out[len(out)-1]
			if s.EndChar > last.EndChar {
				last.EndChar = s.EndChar
			}
			continue
		}
		out = append(out, s)
	}
	return out
}
