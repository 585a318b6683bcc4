package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"articlesum/internal/config"
	"articlesum/internal/digest"
	"articlesum/internal/domain"
	"articlesum/internal/extractor"
	"articlesum/internal/jobs"
	"articlesum/internal/llm"
	"articlesum/internal/render"
	"articlesum/internal/scheduler"
	"articlesum/internal/server"
	"articlesum/internal/tasks"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

type app struct {
	cfg       config.Config
	log       *slog.Logger
	extractor *extractor.Extractor
	generator llm.Generator
	close     func() error
}

// newApp loads the configuration and builds the shared collaborators. Logs go
// to logOut so command output on stdout stays clean.
func newApp(ctx context.Context, logOut io.Writer) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := cfg.NewLogger(logOut)

	if err = cfg.Validate(); err != nil {
		log.ErrorContext(ctx, "Configuration is invalid",
			"error", err)

		return nil, fmt.Errorf("validate config: %w", err)
	}

	generator, closeGenerator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize model client",
			"error", err,
			"provider", cfg.ModelProvider)

		return nil, err
	}
	log.InfoContext(ctx, "Model client is initialized",
		"provider", cfg.ModelProvider)

	ext := extractor.New(log,
		extractor.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		extractor.WithUserAgent(cfg.UserAgent))

	return &app{
		cfg:       cfg,
		log:       log,
		extractor: ext,
		generator: generator,
		close:     closeGenerator,
	}, nil
}

func (a *app) Close(ctx context.Context) {
	if err := a.close(); err != nil {
		a.log.ErrorContext(ctx, "Failed to close model client",
			"error", err,
			"provider", a.cfg.ModelProvider)
	}
}

func newGenerator(ctx context.Context, cfg config.Config, log *slog.Logger) (llm.Generator, func() error, error) {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		g, err := llm.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, log)
		if err != nil {
			return nil, nil, fmt.Errorf("create openai generator: %w", err)
		}
		return g, func() error { return nil }, nil
	case config.ProviderGemini:
		g, err := llm.NewGeminiGenerator(ctx, llm.GeminiConfig{
			ProjectID:       cfg.GCPProject,
			Region:          cfg.GCPRegion,
			Model:           cfg.GeminiModel,
			SafetyThreshold: cfg.GeminiSafetyThreshold,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("create gemini generator: %w", err)
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func serveAction(ctx context.Context, _ *cli.Command) error {
	start := time.Now()

	a, err := newApp(ctx, os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	log := a.log
	cache := jobs.NewCache(a.cfg.ResponseTTL, jobs.WithMaxEntries(a.cfg.ResultCacheMaxEntries))
	dispatcher := jobs.NewDispatcher(ctx, cache, log, jobs.WithJobTimeout(a.cfg.JobTimeout))
	pipeline := tasks.NewPipeline(a.extractor, a.generator, render.NewRenderer(), log)

	sched := scheduler.New(ctx, cache, a.cfg.ResultCacheSweepSpec, log)
	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"spec", sched.Spec())

		return err
	}
	log.InfoContext(ctx, "Scheduler is started",
		"spec", sched.Spec(),
		"responseTTL", a.cfg.ResponseTTL.String())

	srv := server.New(a.cfg.Addr(), dispatcher, server.Handlers{
		Summarize:   pipeline.Summarize,
		Calendarize: pipeline.Calendarize,
	}, log, server.WithMaxBodyBytes(a.cfg.MaxBodyBytes))

	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return srv.Run(gctx)
	})
	eg.Go(func() error {
		<-gctx.Done()
		sched.Stop()
		log.InfoContext(ctx, "Scheduler is stopped")
		return nil
	})

	err = eg.Wait()

	dispatcher.Wait()
	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds(),
		"pendingResults", cache.Len())

	return err
}

func summarizeAction(ctx context.Context, cmd *cli.Command) error {
	targetURL := strings.TrimSpace(cmd.Args().First())
	if targetURL == "" {
		return errors.New("summarize: url argument is required")
	}

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	jobCtx, cancel := context.WithTimeout(ctx, a.cfg.JobTimeout)
	defer cancel()

	pipeline := tasks.NewPipeline(a.extractor, a.generator, render.NewRenderer(), a.log)

	md, err := pipeline.Markdown(jobCtx, domain.Request{URL: targetURL})
	if err != nil {
		a.log.ErrorContext(ctx, "Failed to summarize article",
			"error", err,
			"url", targetURL)

		return err
	}

	_, err = io.WriteString(os.Stdout, md)
	return err
}

func digestAction(ctx context.Context, cmd *cli.Command) error {
	urls, err := digestURLs(cmd.Args().Slice(), cmd.String("from"), os.Stdin)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("digest: at least one url is required")
	}

	a, err := newApp(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	res, err := digest.New(a.extractor, a.generator, a.log).Fold(ctx, urls)
	for _, skipped := range res.Skipped {
		a.log.WarnContext(ctx, "Article is not in the notes",
			"error", skipped.Err,
			"url", skipped.URL)
	}
	if err != nil {
		return fmt.Errorf("digest articles: %w", err)
	}

	out := strings.TrimSpace(cmd.String("out"))
	if out == "" {
		_, err = io.WriteString(os.Stdout, res.Notes+"\n")
		return err
	}

	if err = os.WriteFile(out, []byte(res.Notes+"\n"), 0o644); err != nil {
		return fmt.Errorf("write notes (path = %s): %w", out, err)
	}

	a.log.InfoContext(ctx, "Notes are written",
		"path", out,
		"merged", len(res.Merged),
		"skipped", len(res.Skipped))

	return nil
}

// digestURLs joins positional URLs with the ones found in the --from source.
func digestURLs(args []string, from string, stdin io.Reader) ([]string, error) {
	text := strings.Join(args, "\n")

	switch from = strings.TrimSpace(from); from {
	case "":
	case "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		text += "\n" + string(b)
	default:
		b, err := os.ReadFile(from)
		if err != nil {
			return nil, fmt.Errorf("read url list (path = %s): %w", from, err)
		}
		text += "\n" + string(b)
	}

	return extractor.FindURLs(text)
}
