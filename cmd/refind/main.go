// Copyright 2025 Textflock
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/textflock/refind"
	"github.com/textflock/refind/ai"
	"github.com/textflock/refind/core"
	"github.com/textflock/refind/feedback"
	"github.com/textflock/refind/search"
)

func main() {
	app := &cli.App{
		Name:  "refind",
		Usage: "Retrieval and ranking engine with community feedback",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "all-minilm",
			},
			&cli.StringFlag{
				Name:  "audit-log",
				Usage: "Path to the blocked-query audit log (JSONL)",
			},
			&cli.StringFlag{
				Name:  "feedback-backup",
				Usage: "Path to the feedback backup log (JSONL)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the corpus for a query",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of hits to return",
						Value: search.DefaultTopK,
					},
					&cli.Float64Flag{
						Name:  "min-score",
						Usage: "Minimum adjusted score for a hit",
						Value: float64(search.DefaultMinScore),
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Restrict hits to one category",
					},
					&cli.StringFlag{
						Name:  "submitter",
						Usage: "Identifier recorded if the query is blocked",
					},
				},
			},
			{
				Name:      "feedback",
				Usage:     "Record a vote on a previously returned document",
				ArgsUsage: "<up|down>",
				Action:    feedbackCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "query",
						Usage:    "The query the document was returned for",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "text",
						Usage:    "The document text being voted on",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "submitter",
						Usage: "Identifier of the voter",
					},
				},
			},
			{
				Name:  "denylist",
				Usage: "Manage blocked query phrases",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a blocked phrase",
						ArgsUsage: "<phrase>",
						Action:    denylistAddCommand,
					},
					{
						Name:      "remove",
						Usage:     "Remove a blocked phrase",
						ArgsUsage: "<phrase>",
						Action:    denylistRemoveCommand,
					},
					{
						Name:   "list",
						Usage:  "List all blocked phrases",
						Action: denylistListCommand,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show corpus and feedback statistics",
				Action: statsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-penalized",
						Usage: "Number of most-penalized texts to show",
						Value: 10,
					},
				},
			},
			{
				Name:   "reconcile",
				Usage:  "Replay feedback backup records missing from the primary store",
				Action: reconcileCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func openService(c *cli.Context) (*refind.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []refind.ServiceOption{refind.WithAIConfig(aiConfig)}
	if path := c.String("audit-log"); path != "" {
		opts = append(opts, refind.WithAuditLog(path))
	}
	if path := c.String("feedback-backup"); path != "" {
		opts = append(opts, refind.WithFeedbackBackup(path))
	}

	service, err := refind.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}
	return service, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	opts := search.Options{
		TopK:     c.Int("top-k"),
		MinScore: float32(c.Float64("min-score")),
	}
	if name := c.String("category"); name != "" {
		category, err := core.ParseCategory(name)
		if err != nil {
			return fmt.Errorf("invalid category %q: %w", name, err)
		}
		opts.Category = &category
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	outcome, err := service.Query(context.Background(), c.String("submitter"), query, opts)
	if err != nil {
		return err
	}

	if outcome.Blocked {
		fmt.Printf("Query blocked by rule %q\n", outcome.Rule)
		return nil
	}

	response := outcome.Response
	if response.Degraded != nil {
		fmt.Printf("Search degraded, no results available: %v\n", response.Degraded)
		return nil
	}

	fmt.Printf("Found %d hits", len(response.Hits))
	if response.Skipped > 0 {
		fmt.Printf(" (%d malformed candidates skipped)", response.Skipped)
	}
	fmt.Println()

	for _, hit := range response.Hits {
		fmt.Printf("%d. [%s] %s (score %.3f)\n", hit.Rank, hit.Document.Category,
			hit.Document.Source, hit.Score)
		fmt.Println(indent(search.CleanText(hit.Document.Text), "   "))
	}
	return nil
}

func feedbackCommand(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one argument: up or down")
	}
	vote, err := core.ParseVote(c.Args().First())
	if err != nil {
		return err
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	record, err := service.Feedback(context.Background(),
		c.String("query"), c.String("text"), vote, c.String("submitter"))
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %s vote %s for text hash %s\n", vote, record.Id, record.TextHash)
	return nil
}

func denylistAddCommand(c *cli.Context) error {
	phrase := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(phrase) == "" {
		return fmt.Errorf("phrase is required")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	if err := service.DenylistRepository().AddPhrase(ctx, phrase); err != nil {
		return err
	}
	if err := service.RefreshDenylist(ctx); err != nil {
		return err
	}

	fmt.Printf("Added %q to the denylist\n", phrase)
	return nil
}

func denylistRemoveCommand(c *cli.Context) error {
	phrase := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(phrase) == "" {
		return fmt.Errorf("phrase is required")
	}

	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	removed, err := service.DenylistRepository().RemovePhrase(ctx, phrase)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("Phrase %q was not on the denylist\n", phrase)
		return nil
	}
	if err := service.RefreshDenylist(ctx); err != nil {
		return err
	}

	fmt.Printf("Removed %q from the denylist\n", phrase)
	return nil
}

func denylistListCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	phrases, err := service.DenylistRepository().Phrases(context.Background())
	if err != nil {
		return err
	}

	if len(phrases) == 0 {
		fmt.Println("Denylist is empty")
		return nil
	}
	for _, phrase := range phrases {
		fmt.Println(phrase)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	ctx := context.Background()
	stats, err := service.DocumentRepository().Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Documents: %d\n", stats.TotalDocuments)
	for _, category := range core.Categories {
		if cs, ok := stats.Categories[category]; ok {
			fmt.Printf("  %-15s %6d (avg length %d)\n", category, cs.Count, cs.AvgTextLength)
		}
	}

	analytics, err := feedback.AnalyzeFeedback(ctx, service.FeedbackRepository(), c.Int("top-penalized"))
	if err != nil {
		return err
	}

	fmt.Printf("\nFeedback: %d records (%d up, %d down) across %d texts\n",
		analytics.TotalRecords, analytics.Upvotes, analytics.Downvotes, analytics.UniqueTexts)
	for _, p := range analytics.TopPenalized {
		fmt.Printf("  %s  penalty %.2f (%d down, %d up)\n",
			p.TextHash[:12], p.Penalty, p.Downvotes, p.Upvotes)
	}
	return nil
}

func reconcileCommand(c *cli.Context) error {
	service, err := openService(c)
	if err != nil {
		return err
	}
	defer service.Close()

	report, err := service.Reconcile(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Backup records: %d, replayed: %d, already present: %d, failed: %d\n",
		report.BackupRecords, report.Replayed, report.AlreadyPresent, report.Failed)
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
