// Copyright 2025 Lodeworks
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
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lodeworks/lodestone"
	"github.com/lodeworks/lodestone/ai"
	"github.com/lodeworks/lodestone/connector/feed"
	"github.com/lodeworks/lodestone/core"
	"github.com/lodeworks/lodestone/ingestion"
)

func main() {
	app := &cli.App{
		Name:  "lodestone",
		Usage: "Ingestion and search engine for engineering knowledge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the sync scheduler until interrupted",
				Action: serveCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.DurationFlag{
						Name:  "tick",
						Usage: "How often to scan for due sources",
						Value: 30 * time.Second,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent sync workers (0 = one per two CPUs)",
					},
					&cli.DurationFlag{
						Name:  "max-job-age",
						Usage: "Force-fail jobs running longer than this",
						Value: time.Hour,
					},
					&cli.BoolFlag{
						Name:  "infer-tags",
						Usage: "Enable LLM tag inference for ingested items",
					},
					&cli.StringFlag{
						Name:  "ai-host",
						Usage: "OpenAI-compatible service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "ai-model",
						Usage: "Model name for tag inference",
						Value: "qwen2.5:3b",
					},
					&cli.Float64Flag{
						Name:  "min-confidence",
						Usage: "Minimum confidence for inferred tags",
						Value: 0.5,
					},
				},
			},
			{
				Name:  "source",
				Usage: "Manage knowledge sources",
				Subcommands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Register a new knowledge source",
						Action: sourceAddCommand,
						Flags: []cli.Flag{
							dbFlag(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Display name for the source",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "kind",
								Usage:    "Source kind (github, tracker, chat, feed)",
								Required: true,
							},
							&cli.DurationFlag{
								Name:  "interval",
								Usage: "Minimum time between scheduled syncs",
								Value: time.Hour,
							},
							&cli.StringFlag{
								Name:  "owner",
								Usage: "Repository owner (github)",
							},
							&cli.StringFlag{
								Name:  "repo",
								Usage: "Repository name (github)",
							},
							&cli.StringFlag{
								Name:  "base-url",
								Usage: "Tracker base URL (tracker)",
							},
							&cli.StringFlag{
								Name:  "project",
								Usage: "Tracker project key (tracker)",
							},
							&cli.StringFlag{
								Name:  "workspace",
								Usage: "Chat workspace (chat)",
							},
							&cli.StringFlag{
								Name:  "channel",
								Usage: "Chat channel (chat)",
							},
							&cli.StringFlag{
								Name:  "token",
								Usage: "API token (github, tracker, chat)",
							},
							&cli.StringFlag{
								Name:  "path",
								Usage: "JSONL drop file path (feed)",
							},
						},
					},
					{
						Name:   "list",
						Usage:  "List registered sources",
						Action: sourceListCommand,
						Flags:  []cli.Flag{dbFlag()},
					},
					{
						Name:   "deactivate",
						Usage:  "Stop scheduling a source without deleting its items",
						Action: sourceDeactivateCommand,
						Flags:  []cli.Flag{dbFlag(), idFlag()},
					},
					{
						Name:   "delete",
						Usage:  "Delete a source and everything it owns",
						Action: sourceDeleteCommand,
						Flags:  []cli.Flag{dbFlag(), idFlag()},
					},
				},
			},
			{
				Name:   "sync",
				Usage:  "Run a sync for one source immediately",
				Action: syncCommand,
				Flags:  []cli.Flag{dbFlag(), idFlag()},
			},
			{
				Name:      "search",
				Usage:     "Search ingested items",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "jobs",
				Usage:  "Show a source's sync job history, newest first",
				Action: jobsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					idFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of jobs to show (0 = all)",
						Value: 10,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func idFlag() *cli.Uint64Flag {
	return &cli.Uint64Flag{
		Name:     "id",
		Usage:    "Source ID",
		Required: true,
	}
}

func openDatabase(c *cli.Context, opts ...lodestone.DatabaseOption) (*lodestone.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	opts = append(opts, lodestone.WithConnectors(feed.New()))
	db, err := lodestone.NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func serveCommand(c *cli.Context) error {
	var opts []lodestone.DatabaseOption
	if c.Bool("infer-tags") {
		aiConfig := ai.NewConfig(
			ai.WithHost(c.String("ai-host")),
			ai.WithModel(c.String("ai-model")),
			ai.WithMinConfidence(c.Float64("min-confidence")),
		)
		if err := aiConfig.Validate(); err != nil {
			return fmt.Errorf("invalid AI configuration: %w", err)
		}
		opts = append(opts, lodestone.WithAIConfig(aiConfig))
	}

	db, err := openDatabase(c, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	schedulerOpts := []ingestion.SchedulerOption{
		ingestion.WithTickInterval(c.Duration("tick")),
		ingestion.WithMaxJobAge(c.Duration("max-job-age")),
	}
	if size := c.Int("pool-size"); size > 0 {
		schedulerOpts = append(schedulerOpts, ingestion.WithPoolSize(size))
	}

	scheduler, err := db.NewScheduler(schedulerOpts...)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	slog.Info("scheduler running", "db", c.String("db"), "tick", c.Duration("tick"))

	<-ctx.Done()
	slog.Info("shutting down")
	scheduler.Stop()
	return nil
}

func sourceAddCommand(c *cli.Context) error {
	kind, err := core.ParseSourceKind(c.String("kind"))
	if err != nil {
		return fmt.Errorf("invalid source kind %q", c.String("kind"))
	}

	config, err := buildSourceConfig(kind, c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	source, err := db.RegisterSource(c.Context, &core.KnowledgeSource{
		Name:     c.String("name"),
		Kind:     kind,
		Config:   config,
		Interval: c.Duration("interval"),
		Active:   true,
	})
	if err != nil {
		return fmt.Errorf("failed to register source: %w", err)
	}

	fmt.Printf("registered source %d (%s, %s)\n", source.Id, source.Name, source.Kind)
	return nil
}

func buildSourceConfig(kind core.SourceKind, c *cli.Context) (core.SourceConfig, error) {
	switch kind {
	case core.SourceKindGitHub:
		return &core.GitHubConfig{
			Owner: c.String("owner"),
			Repo:  c.String("repo"),
			Token: c.String("token"),
		}, nil
	case core.SourceKindTracker:
		return &core.TrackerConfig{
			BaseURL: c.String("base-url"),
			Project: c.String("project"),
			Token:   c.String("token"),
		}, nil
	case core.SourceKindChat:
		return &core.ChatConfig{
			Workspace: c.String("workspace"),
			Channel:   c.String("channel"),
			Token:     c.String("token"),
		}, nil
	case core.SourceKindFeed:
		return &core.FeedConfig{
			Path: c.String("path"),
		}, nil
	default:
		return nil, fmt.Errorf("invalid source kind %q", kind)
	}
}

func sourceListCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	sources, err := db.ListSources(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}

	for _, s := range sources {
		state := "active"
		if !s.Active {
			state = "inactive"
		}
		lastSync := "never"
		if !s.LastSync.IsZero() {
			lastSync = s.LastSync.Format(time.RFC3339)
		}
		fmt.Printf("%d\t%s\t%s\t%s\tevery %s\tlast sync %s\n",
			s.Id, s.Name, s.Kind, state, s.Interval, lastSync)
	}
	return nil
}

func sourceDeactivateCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.ID(c.Uint64("id"))
	if err := db.DeactivateSource(c.Context, id); err != nil {
		return fmt.Errorf("failed to deactivate source %d: %w", id, err)
	}
	fmt.Printf("deactivated source %d\n", id)
	return nil
}

func sourceDeleteCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.ID(c.Uint64("id"))
	if err := db.DeleteSource(c.Context, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	fmt.Printf("deleted source %d\n", id)
	return nil
}

func syncCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.ID(c.Uint64("id"))
	job, err := db.TriggerSync(c.Context, id)
	if err != nil {
		if job != nil {
			fmt.Printf("job %d %s: %s\n", job.Id, job.Status, job.Error)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("job %d %s: %d processed, %d created, %d updated\n",
		job.Id, job.Status, job.Processed, job.Created, job.Updated)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if query == "" {
		return fmt.Errorf("query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := db.Search(c.Context, query, c.Int("max-hits"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%d)[%0.3f]\n", i, hit.Item.Title, hit.Item.Id, hit.Score)
	}
	return nil
}

func jobsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	id := core.ID(c.Uint64("id"))
	jobs, err := db.JobHistory(c.Context, id, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	for _, job := range jobs {
		line := fmt.Sprintf("%d\t%s\tstarted %s\t%d processed",
			job.Id, job.Status, job.StartedAt.Format(time.RFC3339), job.Processed)
		if job.Error != "" {
			line += "\terror: " + job.Error
		}
		fmt.Println(line)
	}
	return nil
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
