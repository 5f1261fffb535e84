// Package markup converts HTML-bearing strings (show notes, episode
// descriptions) into a canonical Markdown subset. The node-walking
// converter writes directly into a shared strings.Builder rather than
// concatenating per-tag return values, tracks ordered-list counters, and
// collapses runs of blank lines so the output reads as clean Markdown
// rather than a literal tag-for-tag transcription.
package markup

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Converter walks a parsed HTML tree and renders a fixed subset of
// Markdown. Unknown tags are stripped; their inner text is preserved.
type Converter struct{}

// NewConverter constructs a Converter. There is no per-instance state
// today, but callers have a stable place to thread future options
// through.
func NewConverter() *Converter {
	return &Converter{}
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// ConvertHTMLString converts an HTML string to Markdown. It never panics
// on malformed input — golang.org/x/net/html's parser tolerates unclosed
// tags and illegal nesting the way any browser-grade parser does, and HTML
// entities are decoded as part of that same parse.
//
// When htmlStr carries no markup at all (no element beyond the implicit
// html/head/body wrapper the parser always inserts), htmlStr itself is
// returned with only its HTML entities decoded, so whitespace-only or
// already-plain input survives byte for byte.
func ConvertHTMLString(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil || doc == nil {
		return htmlStr
	}

	var b strings.Builder
	c := NewConverter()
	if body := findBody(doc); body != nil {
		c.writeNode(&b, body)
	} else {
		c.writeNode(&b, doc)
	}
	out := b.String()

	if !containsMarkupElement(doc) {
		// The tree builder drops leading whitespace, so the rendered
		// text can't be used here; decode the original string instead.
		return html.UnescapeString(htmlStr)
	}

	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// containsMarkupElement reports whether the parsed tree has any element
// beyond the html/head/body wrapper x/net/html always inserts, i.e.
// whether htmlStr actually carried tags rather than bare (possibly
// entity-bearing) text.
func containsMarkupElement(n *html.Node) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html", "head", "body":
		default:
			return true
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if containsMarkupElement(child) {
			return true
		}
	}
	return false
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

// writeNode dispatches on node type, appending node's rendering to b.
func (c *Converter) writeNode(b *strings.Builder, node *html.Node) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		b.WriteString(node.Data)
	case html.ElementNode:
		c.writeElement(b, node)
	case html.DocumentNode:
		c.writeChildren(b, node)
	}
}

func (c *Converter) writeElement(b *strings.Builder, node *html.Node) {
	switch strings.ToLower(node.Data) {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		c.writeHeading(b, node)
	case "p":
		c.writeBlock(b, node, "\n\n", "\n\n")
	case "strong", "b":
		c.writeInline(b, node, "**", "**")
	case "em", "i":
		c.writeInline(b, node, "*", "*")
	case "a":
		c.writeLink(b, node)
	case "br":
		b.WriteByte('\n')
	case "ul", "ol":
		c.writeList(b, node)
	case "li":
		c.writeBullet(b, node)
	case "code":
		c.writeInline(b, node, "`", "`")
	case "pre":
		c.writeBlock(b, node, "\n\n```\n", "\n```\n\n")
	case "blockquote":
		c.writeBlockquote(b, node)
	case "hr":
		b.WriteString("\n---\n")
	default:
		// Unknown/container elements: strip the tag, keep the text.
		c.writeChildren(b, node)
	}
}

// writeInline renders node's children inline, wrapped in prefix/suffix.
// Used for **strong**, *em*, and `code` spans. Nothing is written when
// the children render to nothing.
func (c *Converter) writeInline(b *strings.Builder, node *html.Node, prefix, suffix string) {
	var inner strings.Builder
	c.writeChildren(&inner, node)
	if inner.Len() == 0 {
		return
	}
	b.WriteString(prefix)
	b.WriteString(inner.String())
	b.WriteString(suffix)
}

// writeBlock renders node's children as a trimmed block, wrapped in
// prefix/suffix. Used for paragraphs and fenced code blocks. Nothing is
// written when the trimmed content is empty.
func (c *Converter) writeBlock(b *strings.Builder, node *html.Node, prefix, suffix string) {
	var inner strings.Builder
	c.writeChildren(&inner, node)
	content := strings.TrimSpace(inner.String())
	if content == "" {
		return
	}
	b.WriteString(prefix)
	b.WriteString(content)
	b.WriteString(suffix)
}

func (c *Converter) writeHeading(b *strings.Builder, node *html.Node) {
	c.writeBlock(b, node, "\n"+strings.Repeat("#", headingLevel(node.Data))+" ", "\n\n")
}

func headingLevel(tag string) int {
	switch strings.ToLower(tag) {
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	default:
		return 1
	}
}

func (c *Converter) writeLink(b *strings.Builder, node *html.Node) {
	var inner strings.Builder
	c.writeChildren(&inner, node)
	content := inner.String()
	if content == "" {
		return
	}
	href := attrValue(node, "href")
	if href == "" {
		b.WriteString(content)
		return
	}
	b.WriteString("[")
	b.WriteString(content)
	b.WriteString("](")
	b.WriteString(href)
	b.WriteString(")")
}

func attrValue(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

func (c *Converter) writeList(b *strings.Builder, node *html.Node) {
	ordered := strings.EqualFold(node.Data, "ol")
	var items strings.Builder
	n := 1
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || !strings.EqualFold(child.Data, "li") {
			continue
		}
		var item strings.Builder
		c.writeChildren(&item, child)
		content := strings.TrimSpace(item.String())
		if content == "" {
			continue
		}
		if ordered {
			items.WriteString(strconv.Itoa(n) + ". " + content + "\n")
			n++
		} else {
			items.WriteString("- " + content + "\n")
		}
	}
	if items.Len() == 0 {
		return
	}
	b.WriteString("\n\n")
	b.WriteString(items.String())
	b.WriteString("\n")
}

// writeBullet handles an <li> encountered outside writeList's direct walk
// (e.g. nested in an unexpected position); it falls back to an unordered
// bullet since there's no reliable numbering context here.
func (c *Converter) writeBullet(b *strings.Builder, node *html.Node) {
	var inner strings.Builder
	c.writeChildren(&inner, node)
	content := strings.TrimSpace(inner.String())
	if content == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(content)
	b.WriteString("\n")
}

func (c *Converter) writeBlockquote(b *strings.Builder, node *html.Node) {
	var inner strings.Builder
	c.writeChildren(&inner, node)
	content := inner.String()
	if content == "" {
		return
	}
	b.WriteString("\n\n")
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if strings.TrimSpace(line) == "" {
			b.WriteByte('>')
		} else {
			b.WriteString("> ")
			b.WriteString(strings.TrimSpace(line))
		}
	}
	b.WriteString("\n\n")
}

func (c *Converter) writeChildren(b *strings.Builder, node *html.Node) {
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		c.writeNode(b, child)
	}
}
