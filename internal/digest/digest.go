package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"articlesum/internal/domain"
	"articlesum/internal/llm"
	"articlesum/internal/prompt"

	"golang.org/x/sync/errgroup"
)

const DefaultFetchConcurrency = 4

var ErrNothingDigested = errors.New("no article could be digested")

type Extractor interface {
	Extract(ctx context.Context, targetURL string, rawHTML string) (domain.ParsedDocument, error)
}

// Skipped is a URL that did not contribute to the notes.
type Skipped struct {
	URL string
	Err error
}

type Result struct {
	Notes   string
	Merged  []string
	Skipped []Skipped
}

// Digester folds several articles, in order, into one Markdown notes document.
type Digester struct {
	extractor   Extractor
	generator   llm.Generator
	concurrency int
	log         *slog.Logger
}

type Option func(*Digester)

func WithFetchConcurrency(n int) Option {
	return func(d *Digester) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func New(extractor Extractor, generator llm.Generator, log *slog.Logger, opts ...Option) *Digester {
	d := &Digester{
		extractor:   extractor,
		generator:   generator,
		concurrency: DefaultFetchConcurrency,
		log:         log,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Fold extracts every URL concurrently and then merges the documents into the
// notes one by one. Failed URLs are skipped and reported in the result.
func (d *Digester) Fold(ctx context.Context, urls []string) (Result, error) {
	docs, extractErrs, err := d.extractAll(ctx, urls)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for i, targetURL := range urls {
		if extractErrs[i] != nil {
			res.Skipped = append(res.Skipped, Skipped{URL: targetURL, Err: extractErrs[i]})
			continue
		}

		notes, mergeErr := d.merge(ctx, res.Notes, docs[i])
		if mergeErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, fmt.Errorf("merge %s: %w", targetURL, ctxErr)
			}

			d.log.WarnContext(ctx, "Article is skipped",
				"error", mergeErr,
				"url", targetURL)

			res.Skipped = append(res.Skipped, Skipped{URL: targetURL, Err: mergeErr})
			continue
		}

		res.Notes = notes
		res.Merged = append(res.Merged, targetURL)

		d.log.InfoContext(ctx, "Article is merged into notes",
			"url", targetURL,
			"merged", len(res.Merged),
			"total", len(urls))
	}

	if len(res.Merged) == 0 {
		return res, ErrNothingDigested
	}

	return res, nil
}

func (d *Digester) extractAll(ctx context.Context, urls []string) ([]domain.ParsedDocument, []error, error) {
	docs := make([]domain.ParsedDocument, len(urls))
	errs := make([]error, len(urls))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(d.concurrency)

	for i, targetURL := range urls {
		eg.Go(func() error {
			doc, err := d.extractor.Extract(gctx, targetURL, "")
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}

				d.log.WarnContext(gctx, "Failed to extract article",
					"error", err,
					"url", targetURL)

				errs[i] = err
				return nil
			}

			docs[i] = doc
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, nil, fmt.Errorf("extract articles: %w", err)
	}

	return docs, errs, nil
}

func (d *Digester) merge(ctx context.Context, notes string, doc domain.ParsedDocument) (string, error) {
	pr := prompt.BuildMerge(notes, doc)

	result, err := d.generator.Generate(ctx, llm.Request{Prompt: pr.Text, Fields: pr.Fields})
	if err != nil {
		return "", fmt.Errorf("generate notes: %w", err)
	}

	switch res := result.(type) {
	case llm.Raw:
		text := llm.StripCodeFence(res.Text)
		if strings.TrimSpace(text) == "" {
			return "", errors.New("model returned empty notes")
		}
		return text, nil
	case llm.Structured:
		return "", &llm.SchemaError{Fields: pr.Fields, Text: fmt.Sprint(res.Fields)}
	case llm.Blocked:
		return "", fmt.Errorf("model blocked the article: %s", res.Reason)
	default:
		return "", fmt.Errorf("unsupported model result %T", result)
	}
}
