package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertHTMLString_Table(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"link", `<a href="https://x.test">T</a>`, "[T](https://x.test)"},
		{"link empty href", `<a href="">T</a>`, "T"},
		{"paragraph", "<p>hi</p>", "hi"},
		{"br", "a<br>b", "a\nb"},
		{"strong", "<strong>b</strong>", "**b**"},
		{"b", "<b>b</b>", "**b**"},
		{"em", "<em>i</em>", "*i*"},
		{"i", "<i>i</i>", "*i*"},
		{"h1", "<h1>T</h1>", "# T"},
		{"h6", "<h6>T</h6>", "###### T"},
		{"code", "<code>x</code>", "`x`"},
		{"unknown tag stripped", "<marquee>hi</marquee>", "hi"},
		{"entity amp", "a &amp; b", "a & b"},
		{"entity lt gt", "&lt;tag&gt;", "<tag>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConvertHTMLString(tt.in))
		})
	}
}

func TestConvertHTMLString_OrderedList(t *testing.T) {
	got := ConvertHTMLString("<ol><li>one</li><li>two</li></ol>")
	assert.Contains(t, got, "1. one")
	assert.Contains(t, got, "2. two")
}

func TestConvertHTMLString_UnorderedList(t *testing.T) {
	got := ConvertHTMLString("<ul><li>one</li><li>two</li></ul>")
	assert.Contains(t, got, "- one")
	assert.Contains(t, got, "- two")
}

func TestConvertHTMLString_NoTagsReturnsVerbatim(t *testing.T) {
	in := "just plain text, no markup here"
	assert.Equal(t, in, ConvertHTMLString(in))
}

func TestConvertHTMLString_NoTagsPreservesWhitespace(t *testing.T) {
	in := "  \n\n\nplain\n\n\ntext  "
	assert.Equal(t, in, ConvertHTMLString(in))
}

func TestConvertHTMLString_MalformedNeverPanics(t *testing.T) {
	inputs := []string{
		"<p>unclosed",
		"<div><span>nested<p>illegal</span></div>",
		"<<<>>>",
		"<a href='no close",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { ConvertHTMLString(in) })
	}
}

func TestConvertHTMLString_CollapsesBlankLines(t *testing.T) {
	got := ConvertHTMLString("<p>a</p><p>b</p><p>c</p>")
	assert.NotContains(t, got, "\n\n\n")
}

func TestConvertHTMLString_PreservesUnicode(t *testing.T) {
	got := ConvertHTMLString("<p>日本語テキスト</p>")
	assert.Equal(t, "日本語テキスト", got)
}
