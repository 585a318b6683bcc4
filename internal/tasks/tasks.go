package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"articlesum/internal/domain"
	"articlesum/internal/llm"
	"articlesum/internal/prompt"
	"articlesum/internal/render"
)

// Extractor turns a request into a parsed document.
type Extractor interface {
	Extract(ctx context.Context, targetURL string, rawHTML string) (domain.ParsedDocument, error)
}

// Pipeline runs the summarize and calendarize tasks.
type Pipeline struct {
	extractor Extractor
	generator llm.Generator
	renderer  *render.Renderer
	log       *slog.Logger
}

func NewPipeline(
	extractor Extractor,
	generator llm.Generator,
	renderer *render.Renderer,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		generator: generator,
		renderer:  renderer,
		log:       log,
	}
}

// Summarize renders the article summary as an HTML page.
func (p *Pipeline) Summarize(ctx context.Context, req domain.Request) (render.Action, error) {
	doc, result, err := p.generate(ctx, req, domain.TaskSummarize)
	if err != nil {
		return nil, err
	}

	if _, ok := result.(llm.Raw); ok {
		p.log.WarnContext(ctx, "Model response is not structured, passing raw text through",
			"task", domain.TaskSummarize.String(),
			"url", doc.SourceURL)
	}

	page, err := p.renderer.SummaryPage(doc, result)
	if err != nil {
		return nil, fmt.Errorf("render summary: %w", err)
	}

	return page, nil
}

// Calendarize redirects to a calendar event template derived from the article.
func (p *Pipeline) Calendarize(ctx context.Context, req domain.Request) (render.Action, error) {
	doc, result, err := p.generate(ctx, req, domain.TaskCalendarize)
	if err != nil {
		return nil, err
	}

	switch res := result.(type) {
	case llm.Structured:
		return render.CalendarRedirect(domain.CalendarEventFromFields(res.Fields)), nil
	case llm.Raw:
		return nil, &llm.SchemaError{Fields: domain.TaskCalendarize.Fields(), Text: res.Text}
	case llm.Blocked:
		page, renderErr := p.renderer.SummaryPage(doc, res)
		if renderErr != nil {
			return nil, fmt.Errorf("render blocked event: %w", renderErr)
		}
		return page, nil
	default:
		return nil, fmt.Errorf("unsupported model result %T", result)
	}
}

// Markdown returns the summary document as Markdown, for command line use.
func (p *Pipeline) Markdown(ctx context.Context, req domain.Request) (string, error) {
	doc, result, err := p.generate(ctx, req, domain.TaskSummarize)
	if err != nil {
		return "", err
	}

	md, _, err := render.SummaryMarkdown(doc, result)
	if err != nil {
		return "", fmt.Errorf("render summary: %w", err)
	}

	return md, nil
}

func (p *Pipeline) generate(
	ctx context.Context,
	req domain.Request,
	task domain.Task,
) (domain.ParsedDocument, llm.Result, error) {
	doc, err := p.extractor.Extract(ctx, req.URL, req.RawHTML)
	if err != nil {
		return domain.ParsedDocument{}, nil, fmt.Errorf("extract document: %w", err)
	}

	pr, err := prompt.Build(doc, task)
	if err != nil {
		return domain.ParsedDocument{}, nil, fmt.Errorf("build prompt: %w", err)
	}

	result, err := p.generator.Generate(ctx, llm.Request{Prompt: pr.Text, Fields: pr.Fields})
	if err != nil {
		return domain.ParsedDocument{}, nil, fmt.Errorf("generate %s: %w", task, err)
	}

	p.log.DebugContext(ctx, "Model response is received",
		"task", task.String(),
		"url", doc.SourceURL,
		"result", fmt.Sprintf("%T", result))

	return doc, result, nil
}
