// Package render turns a transcription + analysis result into an
// OutputDocument: an ordered YAML front matter block followed by a
// paragraph-segmented, ad-excised transcript body and an optional Show
// Notes section. Front matter is marshaled with gopkg.in/yaml.v3; it is
// held as a []model.FrontMatterField slice, not a map, specifically so field
// order survives (yaml.v3 marshals map keys sorted, which would lose the
// insertion order the rendered document needs).
package render

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"podtext/internal/markup"
	"podtext/internal/model"
)

// DefaultSilenceGapThreshold is the paragraph-break heuristic's default:
// a silence gap over fixed segment batching, since Transcriber segments
// already carry timing.
const DefaultSilenceGapThreshold = 2.0

// MaxShowNotesChars truncates rendered show notes to keep the document a
// reasonable size.
const MaxShowNotesChars = 50000

const truncationMarker = "\n\n[Content truncated]"

// AssembleTranscriptBody joins segment text into paragraphs: a new
// paragraph begins whenever the gap between consecutive segments exceeds
// thresholdSeconds (0 selects DefaultSilenceGapThreshold), segments within
// a paragraph are joined by a single space, paragraphs are joined by a
// blank line. The AnalysisEngine is handed exactly this string (not the
// transcriber's raw .Text) so that ad-span character offsets it returns
// are already valid against the body podtext ultimately renders — no
// offset remapping is needed after excision.
func AssembleTranscriptBody(segments []model.Segment, thresholdSeconds float64) string {
	if len(segments) == 0 {
		return ""
	}
	if thresholdSeconds <= 0 {
		thresholdSeconds = DefaultSilenceGapThreshold
	}

	var paragraphs []string
	var current []string
	for i, seg := range segments {
		current = append(current, strings.TrimSpace(seg.Text))
		if i == len(segments)-1 {
			continue
		}
		gap := segments[i+1].StartS - seg.EndS
		if gap > thresholdSeconds {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = nil
		}
	}
	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

// Build assembles the OutputDocument for one episode. body is the
// paragraph-segmented, already ad-excised transcript text (see
// AssembleTranscriptBody and analysis.ApplyAdExcision).
func Build(episode model.EpisodeRecord, podcastName string, body string, analysis model.AnalysisResult) model.OutputDocument {
	fm := frontMatter(episode, podcastName, analysis)

	out := body
	if notes := strings.TrimSpace(episode.ShowNotes); notes != "" {
		out = strings.TrimRight(out, "\n") + "\n\n" + showNotesSection(notes)
	}

	return model.OutputDocument{FrontMatter: fm, Body: out}
}

// frontMatter builds the ordered field list: title, pub_date, podcast,
// feed_url, media_url, summary, topics, keywords. Optional fields are
// omitted when empty.
func frontMatter(episode model.EpisodeRecord, podcastName string, analysis model.AnalysisResult) []model.FrontMatterField {
	fields := []model.FrontMatterField{
		{Key: "title", Value: episode.Title},
	}
	if !episode.PubDate.IsZero() {
		fields = append(fields, model.FrontMatterField{Key: "pub_date", Value: episode.PubDate.Format("2006-01-02")})
	}
	if podcastName != "" {
		fields = append(fields, model.FrontMatterField{Key: "podcast", Value: podcastName})
	}
	if episode.FeedURL != "" {
		fields = append(fields, model.FrontMatterField{Key: "feed_url", Value: episode.FeedURL})
	}
	if episode.MediaURL != "" {
		fields = append(fields, model.FrontMatterField{Key: "media_url", Value: episode.MediaURL})
	}
	if analysis.Summary != "" {
		fields = append(fields, model.FrontMatterField{Key: "summary", Value: analysis.Summary})
	}
	if len(analysis.Topics) > 0 {
		fields = append(fields, model.FrontMatterField{Key: "topics", Value: analysis.Topics})
	}
	if len(analysis.Keywords) > 0 {
		fields = append(fields, model.FrontMatterField{Key: "keywords", Value: analysis.Keywords})
	}
	return fields
}

// MarshalFrontMatter renders the ordered field list as a "---"-delimited
// YAML block, preserving field order by building a yaml.Node sequence
// rather than a Go map (maps marshal with sorted keys in yaml.v3).
func MarshalFrontMatter(fields []model.FrontMatterField) (string, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: f.Key}
		valNode := &yaml.Node{}
		if err := valNode.Encode(f.Value); err != nil {
			return "", fmt.Errorf("encode front matter field %q: %w", f.Key, err)
		}
		doc.Content = append(doc.Content, keyNode, valNode)
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return "---\n" + string(out) + "---\n", nil
}

// Render produces the final Markdown document text: front matter fences
// followed by a blank line and the body.
func Render(doc model.OutputDocument) (string, error) {
	fm, err := MarshalFrontMatter(doc.FrontMatter)
	if err != nil {
		return "", err
	}
	return fm + "\n" + doc.Body, nil
}

func showNotesSection(notesHTML string) string {
	converted := markup.ConvertHTMLString(notesHTML)
	if r := []rune(converted); len(r) > MaxShowNotesChars {
		converted = string(r[:MaxShowNotesChars]) + truncationMarker
	}
	return "## Show Notes\n\n" + converted
}
