package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Yev-ux/newsggl/db"
	"github.com/Yev-ux/newsggl/internal/config"
	"github.com/Yev-ux/newsggl/internal/digest"
	"github.com/Yev-ux/newsggl/internal/pipeline"
	"github.com/Yev-ux/newsggl/internal/repository"
	"github.com/Yev-ux/newsggl/internal/retry"
	"github.com/Yev-ux/newsggl/pkg/feed"
	"github.com/Yev-ux/newsggl/pkg/llm"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	configPath := flag.String("config", "config.yaml", "path to config file")
	offset := flag.Int("offset", 0, "first feed query index for this pass")
	limit := flag.Int("limit", 0, "number of feed queries to fetch (0 = no fetching)")
	final := flag.Bool("final", false, "aggregate and summarize today's accumulation")
	full := flag.Bool("full", false, "run a whole day's processing: all pages, then the final pass")
	daemon := flag.Bool("daemon", false, "keep running, executing the full pass on the configured cron schedule")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := db.Connect(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("error applying schema: %v", err)
	}

	useLock := os.Getenv("REDIS_URL") != ""
	if useLock {
		if err := db.ConnectRedis(); err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer db.CloseRedis()
	}

	p := buildPipeline(cfg)

	if *daemon {
		runDaemon(cfg, p, useLock)
		return
	}

	if *full {
		if err := runFull(cfg, p, useLock); err != nil {
			log.Fatalf("full pass failed: %v", err)
		}
		return
	}

	runOnce(cfg, p, pipeline.Params{Offset: *offset, Limit: *limit, Final: *final})
}

func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	var client llm.Client
	switch cfg.Summarizer.Provider {
	case "anthropic":
		client = llm.NewAnthropicClient(cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	default:
		client = llm.NewOpenAIClient(cfg.Summarizer.APIKey, cfg.Summarizer.Model)
	}

	summaryRepo := repository.NewSummaryRepository(db.DB)
	generator := digest.NewGenerator(client, summaryRepo, digest.GeneratorConfig{
		Retry: retry.Config{
			MaxAttempts: cfg.Summarizer.RetryAttempts,
			BaseDelay:   time.Duration(cfg.Summarizer.RetryBaseMillis) * time.Millisecond,
		},
		Throttle:      time.Duration(cfg.Pipeline.ThrottleMillis) * time.Millisecond,
		MaxGroupItems: cfg.Pipeline.MaxGroupItems,
		CharBudget:    cfg.Pipeline.CharBudget,
	})

	fetcher := feed.NewFetcher(cfg.Pipeline.FetchWorkers, time.Duration(cfg.Pipeline.FetchTimeoutSeconds)*time.Second)

	return pipeline.New(
		cfg,
		repository.NewPreferencesRepository(db.DB),
		repository.NewAccumulationRepository(db.DB),
		fetcher,
		generator,
	)
}

func runOnce(cfg *config.Config, p *pipeline.Pipeline, params pipeline.Params) {
	runID := uuid.NewString()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Pipeline.RunBudgetSeconds)*time.Second)
	defer cancel()

	result, err := p.Run(ctx, params)
	if err != nil {
		log.Fatalf("pipeline run failed: %v", err)
	}

	slog.Info("invocation complete",
		"run_id", runID,
		"day", result.Day,
		"offset", params.Offset, "limit", params.Limit, "final", params.Final,
		"queries", result.Queries, "fetched", result.Fetched,
		"inserted", result.Inserted, "accumulated", result.Accumulated,
		"generated", result.Gen.Generated, "empty", result.Gen.Empty,
		"failed", result.Gen.Failed, "skipped", result.Gen.Skipped)
}

// runFull composes a whole day's processing: offset-advancing non-final
// passes over every feed query, then exactly one final pass with limit 0.
func runFull(cfg *config.Config, p *pipeline.Pipeline, useLock bool) error {
	runID := uuid.NewString()
	day := time.Now().In(cfg.Location()).Format("2006-01-02")

	if useLock {
		ok, err := db.AcquireRunLock(day, time.Duration(cfg.Pipeline.RunBudgetSeconds)*time.Second*4)
		if err != nil {
			return fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			slog.Warn("another pass holds the run lock, exiting", "run_id", runID, "day", day)
			return nil
		}
		defer db.ReleaseRunLock(day)
	}

	pageSize := cfg.Pipeline.PageSize
	for offset := 0; ; offset += pageSize {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Pipeline.RunBudgetSeconds)*time.Second)
		result, err := p.Run(ctx, pipeline.Params{Offset: offset, Limit: pageSize})
		cancel()
		if err != nil {
			return fmt.Errorf("page at offset %d: %w", offset, err)
		}
		slog.Info("page complete", "run_id", runID, "day", result.Day,
			"offset", offset, "fetched", result.Fetched, "accumulated", result.Accumulated)
		if offset+pageSize >= result.Queries {
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Pipeline.RunBudgetSeconds)*time.Second)
	defer cancel()
	result, err := p.Run(ctx, pipeline.Params{Final: true})
	if err != nil {
		return fmt.Errorf("final pass: %w", err)
	}

	slog.Info("full pass complete", "run_id", runID, "day", result.Day,
		"accumulated", result.Accumulated,
		"generated", result.Gen.Generated, "empty", result.Gen.Empty,
		"failed", result.Gen.Failed, "skipped", result.Gen.Skipped)
	return nil
}

func runDaemon(cfg *config.Config, p *pipeline.Pipeline, useLock bool) {
	c := cron.New(cron.WithLocation(cfg.Location()))
	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := runFull(cfg, p, useLock); err != nil {
			slog.Error("scheduled pass failed", "error", err)
		}
	})
	if err != nil {
		log.Fatalf("invalid cron schedule %q: %v", cfg.Schedule, err)
	}

	slog.Info("scheduler started", "schedule", cfg.Schedule, "timezone", cfg.Timezone)
	c.Start()
	defer c.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down")
}
