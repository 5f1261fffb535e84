package analysis

import (
	"bytes"
	"os"
	"regexp"
	"strings"
	"text/template"
)

// promptHeading names the four sections the prompt markdown file is split
// on.
type promptHeading string

const (
	headingSummary  promptHeading = "# Content Summary"
	headingTopics   promptHeading = "# Topic Extraction"
	headingKeywords promptHeading = "# Keyword Extraction"
	headingAds      promptHeading = "# Advertisement Detection"
)

var headingPattern = regexp.MustCompile(`(?m)^(#\s+.+)$`)

// promptSet holds the four hydrated-on-demand templates loaded from one
// markdown prompt file.
type promptSet struct {
	summary  *template.Template
	topics   *template.Template
	keywords *template.Template
	ads      *template.Template
}

// defaultPrompts is the built-in fallback used when no prompt file is
// configured, or the configured file is missing or malformed.
func defaultPrompts() promptSet {
	ps, err := parsePromptMarkdown(builtinPromptMarkdown)
	if err != nil {
		// The built-in text is a compile-time constant; a parse failure
		// here would be a programming error, not a runtime condition.
		panic(err)
	}
	return ps
}

// loadPromptFile reads and parses a user-editable prompt markdown file. A
// missing file, unreadable file, or one lacking any of the four headings is
// reported as an error so the caller can recover to defaults and warn.
func loadPromptFile(path string) (promptSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return promptSet{}, err
	}
	return parsePromptMarkdown(string(data))
}

func parsePromptMarkdown(content string) (promptSet, error) {
	sections := splitSections(content)

	summary, err := sectionOrErr(sections, string(headingSummary))
	if err != nil {
		return promptSet{}, err
	}
	topics, err := sectionOrErr(sections, string(headingTopics))
	if err != nil {
		return promptSet{}, err
	}
	keywords, err := sectionOrErr(sections, string(headingKeywords))
	if err != nil {
		return promptSet{}, err
	}
	ads, err := sectionOrErr(sections, string(headingAds))
	if err != nil {
		return promptSet{}, err
	}

	ps := promptSet{}
	if ps.summary, err = template.New("summary").Parse(summary); err != nil {
		return promptSet{}, err
	}
	if ps.topics, err = template.New("topics").Parse(topics); err != nil {
		return promptSet{}, err
	}
	if ps.keywords, err = template.New("keywords").Parse(keywords); err != nil {
		return promptSet{}, err
	}
	if ps.ads, err = template.New("ads").Parse(ads); err != nil {
		return promptSet{}, err
	}
	return ps, nil
}

func sectionOrErr(sections map[string]string, heading string) (string, error) {
	body, ok := sections[heading]
	if !ok || strings.TrimSpace(body) == "" {
		return "", errPromptMalformed
	}
	return body, nil
}

// splitSections breaks a markdown file into heading -> body, keyed by the
// exact "# Heading" line.
func splitSections(content string) map[string]string {
	locs := headingPattern.FindAllStringSubmatchIndex(content, -1)
	out := make(map[string]string, len(locs))
	for i, loc := range locs {
		headingStart, headingEnd := loc[2], loc[3]
		heading := strings.TrimSpace(content[headingStart:headingEnd])

		bodyStart := loc[1]
		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		out[heading] = strings.TrimSpace(content[bodyStart:bodyEnd])
	}
	return out
}

func hydrate(t *template.Template, transcript string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Transcript string }{Transcript: transcript}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const builtinPromptMarkdown = `# Content Summary

Summarize the following podcast transcript in two to three sentences, written
for someone who has not listened to the episode. Respond with plain text
only, no heading, no preamble.

Transcript:
{{.Transcript}}

# Topic Extraction

List the main topics discussed in the following podcast transcript. Respond
with a JSON array of short topic strings, ordered by prominence. Respond
with the JSON array only.

Transcript:
{{.Transcript}}

# Keyword Extraction

Extract the most relevant keywords from the following podcast transcript.
Respond with a JSON array of lowercase keyword strings, deduplicated.
Respond with the JSON array only.

Transcript:
{{.Transcript}}

# Advertisement Detection

Identify advertisement or sponsor-read segments in the following podcast
transcript. Respond with a JSON array of objects
{"start_char": N, "end_char": N, "confidence": 0.0-1.0}. Respond with the
JSON array only; use [] if there are none.

Transcript:
{{.Transcript}}
`
