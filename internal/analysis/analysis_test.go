package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podtext/internal/model"
)

// fakeLLM returns canned responses keyed by a substring match against the
// hydrated prompt, or an error for every call when failEverything is set.
type fakeLLM struct {
	failEverything bool
	summary        string
	topicsJSON     string
	keywordsJSON   string
	adsJSON        string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if f.failEverything {
		return "", errors.New("backend unreachable")
	}
	switch {
	case indexOf(prompt, "main topics") >= 0:
		return f.topicsJSON, nil
	case indexOf(prompt, "relevant keywords") >= 0:
		return f.keywordsJSON, nil
	case indexOf(prompt, "advertisement or sponsor") >= 0:
		return f.adsJSON, nil
	default:
		return f.summary, nil
	}
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestAnalyze_AllSucceed(t *testing.T) {
	llm := &fakeLLM{
		summary:      "A short summary.",
		topicsJSON:   `["Philosophy", "Science"]`,
		keywordsJSON: `["meaning", "universe"]`,
		adsJSON:      `[]`,
	}
	engine := New(llm, "", nil)
	result := engine.Analyze(context.Background(), "the transcript text")

	assert.Equal(t, "A short summary.", result.Summary)
	assert.Equal(t, []string{"Philosophy", "Science"}, result.Topics)
	assert.Equal(t, []string{"meaning", "universe"}, result.Keywords)
	assert.Empty(t, result.AdSpans)
}

// TestAnalyze_GracefulDegradation covers property #5 / scenario S5: when
// the LLM port fails on every sub-call, AnalysisResult comes back entirely
// empty rather than propagating an error.
func TestAnalyze_GracefulDegradation(t *testing.T) {
	llm := &fakeLLM{failEverything: true}
	engine := New(llm, "", nil)
	result := engine.Analyze(context.Background(), "the transcript text")

	assert.True(t, result.Empty())
}

func TestAnalyze_PartialFailureDoesNotAbortOthers(t *testing.T) {
	llm := &fakeLLM{
		summary:      "",
		topicsJSON:   `["Topic A"]`,
		keywordsJSON: `not json`,
		adsJSON:      `[]`,
	}
	engine := New(llm, "", nil)
	result := engine.Analyze(context.Background(), "the transcript text")

	assert.Empty(t, result.Summary)            // empty response -> degrade
	assert.Equal(t, []string{"Topic A"}, result.Topics) // still succeeds
	assert.Empty(t, result.Keywords)           // malformed JSON -> degrade
}

func TestExtractJSON_StripsCodeFence(t *testing.T) {
	raw := "```json\n[\"a\", \"b\"]\n```"
	assert.Equal(t, `["a", "b"]`, extractJSON(raw))
}

func TestExtractJSON_StripsSurroundingProse(t *testing.T) {
	raw := "Sure, here are the topics: [\"a\"] — hope that helps!"
	assert.Equal(t, `["a"]`, extractJSON(raw))
}

// TestApplyAdExcision_ThresholdFiltersLowConfidenceSpan asserts that a
// span below the confidence threshold survives untouched while a span at
// or above it is excised.
func TestApplyAdExcision_ThresholdFiltersLowConfidenceSpan(t *testing.T) {
	text := "A B C D E"
	spans := []model.AdSpan{
		{StartChar: 0, EndChar: 3, Confidence: 0.95},
		{StartChar: 6, EndChar: 9, Confidence: 0.80},
	}
	out := ApplyAdExcision(text, spans, 0.9)
	assert.Equal(t, AdExcisionMarker+" C D E", out)
}

func TestApplyAdExcision_MarkerCountMatchesSurvivingSpans(t *testing.T) {
	text := "0123456789"
	spans := []model.AdSpan{
		{StartChar: 0, EndChar: 2, Confidence: 0.99},
		{StartChar: 5, EndChar: 7, Confidence: 0.99},
	}
	out := ApplyAdExcision(text, spans, 0.9)
	count := 0
	rest := out
	for {
		idx := indexOf(rest, AdExcisionMarker)
		if idx < 0 {
			break
		}
		count++
		rest = rest[idx+len(AdExcisionMarker):]
	}
	assert.Equal(t, 2, count)
}

func TestApplyAdExcision_OriginalAdTextAbsent(t *testing.T) {
	text := "intro AD_CONTENT_HERE outro"
	spans := []model.AdSpan{{StartChar: 6, EndChar: 21, Confidence: 0.95}}
	out := ApplyAdExcision(text, spans, 0.9)
	assert.NotContains(t, out, "AD_CONTENT_HERE")
	assert.Contains(t, out, AdExcisionMarker)
}

func TestApplyAdExcision_MergesOverlappingSpans(t *testing.T) {
	text := "0123456789"
	spans := []model.AdSpan{
		{StartChar: 0, EndChar: 5, Confidence: 0.95},
		{StartChar: 3, EndChar: 8, Confidence: 0.95},
	}
	out := ApplyAdExcision(text, spans, 0.9)
	require.Equal(t, AdExcisionMarker+"89", out)
}

func TestApplyAdExcision_NoSurvivingSpansReturnsUnchanged(t *testing.T) {
	text := "nothing to see here"
	spans := []model.AdSpan{{StartChar: 0, EndChar: 7, Confidence: 0.1}}
	out := ApplyAdExcision(text, spans, 0.9)
	assert.Equal(t, text, out)
}

func TestNew_FallsBackToDefaultsWhenPromptFileMissing(t *testing.T) {
	llm := &fakeLLM{summary: "ok", topicsJSON: "[]", keywordsJSON: "[]", adsJSON: "[]"}
	engine := New(llm, "/nonexistent/prompts.md", nil)
	result := engine.Analyze(context.Background(), "x")
	assert.Equal(t, "ok", result.Summary)
}
