package transcribe

import (
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
)

func TestMapResponse_CopiesSegmentsAndLanguage(t *testing.T) {
	resp := &openai.TranscriptionVerbose{
		Text:     "Hello world.",
		Language: "en",
		Segments: []openai.TranscriptionSegment{
			{Start: 0, End: 1.5, Text: "Hello"},
			{Start: 1.5, End: 3, Text: "world."},
		},
	}
	result := mapResponse(resp)
	assert.Equal(t, "Hello world.", result.Text)
	assert.Equal(t, "en", result.Language)
	assert.Len(t, result.Segments, 2)
	assert.Equal(t, 1.5, result.Segments[0].EndS)
}

func TestMapResponse_FallsBackToSingleSegmentWhenMissing(t *testing.T) {
	resp := &openai.TranscriptionVerbose{Text: "Just text.", Language: ""}
	result := mapResponse(resp)
	assert.Len(t, result.Segments, 1)
	assert.Equal(t, "en", result.Language)
}

func TestNormalizeLanguage_DefaultsToEnglish(t *testing.T) {
	assert.Equal(t, "en", normalizeLanguage(""))
	assert.Equal(t, "fr", normalizeLanguage("fr"))
}
