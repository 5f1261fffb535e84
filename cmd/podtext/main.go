// Command podtext is the CLI entrypoint. The command table covers
// search, episodes, and transcribe, plus an additive archive-server
// command for querying already-rendered transcripts over MCP.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"podtext/internal/analysis"
	"podtext/internal/archive"
	"podtext/internal/config"
	"podtext/internal/diag"
	"podtext/internal/feed"
	"podtext/internal/itunes"
	"podtext/internal/mediafetch"
	"podtext/internal/model"
	"podtext/internal/orchestrate"
	"podtext/internal/ports"
	"podtext/internal/transcribe"
	"podtext/internal/version"
)

func main() {
	logger := diag.Default()
	defer logger.Sync()

	app := &cli.Command{
		Name:    "podtext",
		Usage:   "Discover podcasts, transcribe episodes, and enrich them with an LLM",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			searchCommand(logger),
			episodesCommand(logger),
			transcribeCommand(logger),
			archiveServerCommand(logger),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func searchCommand(logger *diag.Logger) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search for a podcast by name",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "query"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 10},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.StringArg("query")
			if query == "" {
				return cli.Exit("search requires a query argument", 2)
			}
			client := itunes.New()
			results, err := client.Search(ctx, query, c.Int("limit"))
			if err != nil {
				logger.Error("search failed", "error", err)
				return cli.Exit(err, 1)
			}
			for _, r := range results {
				fmt.Printf("%s — %s\n  feed: %s\n", r.CollectionName, r.ArtistName, r.FeedURL)
			}
			return nil
		},
	}
}

func episodesCommand(logger *diag.Logger) *cli.Command {
	return &cli.Command{
		Name:  "episodes",
		Usage: "List episodes from a podcast feed",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "feed_url"},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of episodes", Value: feed.DefaultLimit},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			feedURL := c.StringArg("feed_url")
			if feedURL == "" {
				return cli.Exit("episodes requires a feed_url argument", 2)
			}
			ing := feed.NewIngester(0)
			episodes, err := ing.List(ctx, feedURL, c.Int("limit"))
			if err != nil {
				logger.Error("episode listing failed", "error", err)
				return cli.Exit(err, 1)
			}
			for _, ep := range episodes {
				fmt.Printf("%d. %s (%s)\n", ep.Index, ep.Title, ep.PubDate.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func transcribeCommand(logger *diag.Logger) *cli.Command {
	return &cli.Command{
		Name:      "transcribe",
		Usage:     "Download, transcribe, and analyze one or more episodes",
		UsageText: "podtext transcribe <feed_url> <index> [index...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "model", Usage: "Whisper model id to use"},
			&cli.StringFlag{Name: "output-dir", Usage: "Override the configured output directory"},
			&cli.BoolFlag{Name: "skip-language-check", Usage: "Skip the non-English warning check"},
			&cli.BoolFlag{Name: "overwrite", Usage: "Overwrite an existing output file"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			positional := c.Args().Slice()
			if len(positional) < 2 {
				return cli.Exit("transcribe requires a feed_url and at least one episode index", 2)
			}
			feedURL := positional[0]
			rawIndices := positional[1:]
			indices, err := parseIndices(rawIndices)
			if err != nil {
				return cli.Exit(err, 2)
			}

			var overrides config.Overrides
			if v := c.String("model"); v != "" {
				overrides.WhisperModel = &v
			}
			if v := c.String("output-dir"); v != "" {
				overrides.OutputDir = &v
			}
			cfg, err := config.Load(overrides)
			if err != nil {
				logger.Error("config load failed", "error", err)
				return cli.Exit(err, 2)
			}

			orch := buildOrchestrator(cfg, logger, c.Bool("skip-language-check"), c.Bool("overwrite"))

			ing := feed.NewIngester(0)
			podcastName, err := ing.PodcastName(ctx, feedURL)
			if err != nil {
				logger.Warn("could not resolve podcast name, output will use the unknown-podcast fallback", "error", err)
			}
			descriptor := model.FeedDescriptor{FeedURL: feedURL, PodcastName: podcastName}

			results := orch.RunBatch(ctx, descriptor, indices)
			failures := 0
			for _, r := range results {
				if r.Success {
					fmt.Printf("episode %d: ok -> %s\n", r.Index, r.OutputPath)
				} else {
					failures++
					fmt.Printf("episode %d: failed: %v\n", r.Index, r.Err)
				}
			}
			if failures > 0 {
				return cli.Exit(fmt.Sprintf("%d of %d episodes failed", failures, len(results)), 1)
			}
			return nil
		},
	}
}

func archiveServerCommand(logger *diag.Logger) *cli.Command {
	return &cli.Command{
		Name:  "archive-server",
		Usage: "Run an MCP stdio server over already-rendered transcripts",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := config.Load(config.Overrides{})
			if err != nil {
				return cli.Exit(err, 2)
			}
			return archive.NewServer(cfg.Storage.OutputDir).Run(ctx)
		},
	}
}

func buildOrchestrator(cfg config.Config, logger *diag.Logger, skipLanguageCheck, overwrite bool) *orchestrate.Orchestrator {
	ing := feed.NewIngester(0)
	fetcher := mediafetch.New(0)
	transcriber := transcribe.New(analysisBaseURL(), cfg.API.AnthropicKey)
	engine := analysis.New(analysis.NewOpenAIClient(analysisBaseURL(), cfg.API.AnthropicKey, cfg.Analysis.ClaudeModel), "prompts/default.md", logger)

	return orchestrate.New(ing, fetcher, transcriber, engine, ports.SystemClock{}, ports.OSFileSystem{}, logger, orchestrate.Params{
		MediaDir:              cfg.Storage.MediaDir,
		OutputDir:             cfg.Storage.OutputDir,
		WhisperModel:          cfg.Whisper.Model,
		SkipLanguageCheck:     skipLanguageCheck,
		Overwrite:             overwrite,
		TempStorage:           cfg.Storage.TempStorage,
		AdConfidenceThreshold: cfg.Analysis.AdConfidenceThreshold,
		EpisodeLimit:          cfg.Defaults.EpisodeLimit,
	})
}

// analysisBaseURL resolves the Anthropic-compatible endpoint podtext's LLM
// and transcription adapters both target. It is not a config file key;
// podtext reads it from PODTEXT_LLM_BASE_URL and otherwise uses the hosted
// Anthropic API endpoint.
func analysisBaseURL() string {
	if v := os.Getenv("PODTEXT_LLM_BASE_URL"); v != "" {
		return v
	}
	return "https://api.anthropic.com/v1"
}

func parseIndices(raw []string) ([]int, error) {
	out := make([]int, 0, len(raw))
	for _, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid episode index %q: must be a positive integer", s)
		}
		out = append(out, n)
	}
	return out, nil
}
