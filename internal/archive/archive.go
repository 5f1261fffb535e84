// Package archive exposes podtext's already-rendered transcript archive
// (a tree of "<output_dir>/<podcast>/<episode>.md" files) over an MCP
// stdio server, so an editor or agent can query it without re-running the
// pipeline. Tools mirror a database-cache MCP server's shape -- list and
// get, with a friendly not-found payload instead of a raw error -- but
// walk a directory of Markdown documents instead of running SQL queries.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

// ServerName/Version identify this MCP server to clients over stdio.
const (
	ServerName = "podtext-archive"
	Version    = "v1.0.0"
)

// Server indexes outputDir's rendered transcripts for the MCP tool
// surface below.
type Server struct {
	outputDir string
}

// NewServer builds an archive Server rooted at the configured output
// directory.
func NewServer(outputDir string) *Server {
	return &Server{outputDir: outputDir}
}

// ListTranscriptsParams carries optional filters and a capped limit for
// listing archived transcripts.
type ListTranscriptsParams struct {
	Podcast *string `json:"podcast,omitempty"`
	Limit   *int    `json:"limit,omitempty"`
}

// GetTranscriptParams locates one transcript either by its exact relative
// path or by a case-insensitive substring match on its title.
type GetTranscriptParams struct {
	Path           string `json:"path,omitempty"`
	TitleContains  string `json:"title_contains,omitempty"`
	IncludeContent bool   `json:"include_content"`
}

type transcriptSummary struct {
	Path    string `json:"path"`
	Podcast string `json:"podcast"`
	Title   string `json:"title"`
	PubDate string `json:"pub_date,omitempty"`
}

// Run starts the stdio MCP server, registering the two archive tools.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{Name: "list_transcripts", Description: "List rendered podcast transcripts in the archive"}, s.handleList)
	mcp.AddTool(server, &mcp.Tool{Name: "get_transcript", Description: "Get one rendered transcript by path or title"}, s.handleGet)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleList(ctx context.Context, req *mcp.CallToolRequest, p ListTranscriptsParams) (*mcp.CallToolResult, any, error) {
	if !dirExists(s.outputDir) {
		return nil, map[string]any{
			"ok":      false,
			"message": fmt.Sprintf("output directory not found at %s", s.outputDir),
			"hint":    "Run './podtext transcribe ...' at least once to populate the archive.",
		}, nil
	}

	lim := 50
	if p.Limit != nil && *p.Limit > 0 {
		lim = *p.Limit
	}
	podcastFilter := ""
	if p.Podcast != nil {
		podcastFilter = strings.ToLower(strings.TrimSpace(*p.Podcast))
	}

	var items []transcriptSummary
	err := filepath.WalkDir(s.outputDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // skip unreadable entries rather than aborting the whole listing
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		if len(items) >= lim {
			return filepath.SkipAll
		}
		rel, _ := filepath.Rel(s.outputDir, path)
		podcast := filepath.Base(filepath.Dir(path))
		if podcastFilter != "" && !strings.Contains(strings.ToLower(podcast), podcastFilter) {
			return nil
		}
		fm, _ := readFrontMatter(path)
		items = append(items, transcriptSummary{
			Path:    rel,
			Podcast: podcast,
			Title:   stringField(fm, "title"),
			PubDate: stringField(fm, "pub_date"),
		})
		return nil
	})
	if err != nil {
		return nil, map[string]any{"ok": false, "message": "error walking archive", "error": err.Error()}, nil
	}

	return nil, map[string]any{"count": len(items), "items": items}, nil
}

func (s *Server) handleGet(ctx context.Context, req *mcp.CallToolRequest, p GetTranscriptParams) (*mcp.CallToolResult, any, error) {
	if !dirExists(s.outputDir) {
		return nil, map[string]any{
			"ok":      false,
			"message": fmt.Sprintf("output directory not found at %s", s.outputDir),
		}, nil
	}

	var match string
	if p.Path != "" {
		candidate := filepath.Join(s.outputDir, filepath.Clean("/"+p.Path))
		if fileExists(candidate) {
			match = candidate
		}
	} else if p.TitleContains != "" {
		needle := strings.ToLower(p.TitleContains)
		_ = filepath.WalkDir(s.outputDir, func(path string, d os.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() || !strings.HasSuffix(path, ".md") || match != "" {
				return nil
			}
			fm, _ := readFrontMatter(path)
			if strings.Contains(strings.ToLower(stringField(fm, "title")), needle) {
				match = path
			}
			return nil
		})
	}

	if match == "" {
		return nil, map[string]any{"ok": false, "message": "no matching transcript found"}, nil
	}

	data, err := os.ReadFile(match)
	if err != nil {
		return nil, map[string]any{"ok": false, "message": "failed reading transcript", "error": err.Error()}, nil
	}

	rel, _ := filepath.Rel(s.outputDir, match)
	fm, _ := readFrontMatter(match)
	resp := map[string]any{
		"path":     rel,
		"podcast":  filepath.Base(filepath.Dir(match)),
		"title":    stringField(fm, "title"),
		"pub_date": stringField(fm, "pub_date"),
	}
	if p.IncludeContent {
		resp["content"] = string(data)
	} else {
		body := string(data)
		if len(body) > 1000 {
			body = body[:1000] + "..."
		}
		resp["preview"] = body
	}
	return nil, resp, nil
}

// readFrontMatter extracts and decodes the "---"-delimited YAML block at
// the top of a rendered transcript file.
func readFrontMatter(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		return nil, fmt.Errorf("no front matter fence in %s", path)
	}
	rest := text[4:]
	end := strings.Index(rest, "---\n")
	if end < 0 {
		return nil, fmt.Errorf("unterminated front matter in %s", path)
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return nil, err
	}
	return fm, nil
}

func stringField(fm map[string]any, key string) string {
	if fm == nil {
		return ""
	}
	if v, ok := fm[key].(string); ok {
		return v
	}
	return ""
}

func dirExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
