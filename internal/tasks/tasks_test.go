package tasks_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"articlesum/internal/domain"
	"articlesum/internal/extractor"
	"articlesum/internal/llm"
	"articlesum/internal/render"
	"articlesum/internal/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	doc domain.ParsedDocument
	err error
}

func (s stubExtractor) Extract(_ context.Context, targetURL string, _ string) (domain.ParsedDocument, error) {
	if s.err != nil {
		return domain.ParsedDocument{}, s.err
	}
	doc := s.doc
	doc.SourceURL = targetURL
	return doc, nil
}

type stubGenerator struct {
	result  llm.Result
	err     error
	prompts []llm.Request
}

func (s *stubGenerator) Generate(_ context.Context, req llm.Request) (llm.Result, error) {
	s.prompts = append(s.prompts, req)
	return s.result, s.err
}

var (
	testDoc = domain.ParsedDocument{Title: "Source title", PlainText: "Body text"}
	testReq = domain.Request{URL: "https://example.com/post"}
)

func newPipeline(ext tasks.Extractor, gen llm.Generator) *tasks.Pipeline {
	return tasks.NewPipeline(ext, gen, render.NewRenderer(), slog.Default())
}

func TestSummarizeRendersPage(t *testing.T) {
	gen := &stubGenerator{result: llm.Structured{Fields: map[string]string{
		"title":   "Model title",
		"summary": "- point",
	}}}
	p := newPipeline(stubExtractor{doc: testDoc}, gen)

	action, err := p.Summarize(context.Background(), testReq)
	require.NoError(t, err)

	page, ok := action.(render.Page)
	require.True(t, ok, "expected render.Page, got %T", action)
	assert.Contains(t, page.HTML, `<h1><a href="https://example.com/post">Model title</a></h1>`)
	assert.Contains(t, page.HTML, "<li>point</li>")

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, []string{"title", "summary"}, gen.prompts[0].Fields)
	assert.Contains(t, gen.prompts[0].Prompt, "content: Body text")
}

func TestSummarizeRawFallsBackToSourceTitle(t *testing.T) {
	p := newPipeline(stubExtractor{doc: testDoc}, &stubGenerator{result: llm.Raw{Text: "free text"}})

	action, err := p.Summarize(context.Background(), testReq)
	require.NoError(t, err)

	page := action.(render.Page)
	assert.Contains(t, page.HTML, ">Source title</a></h1>")
	assert.Contains(t, page.HTML, "free text")
}

func TestSummarizeExtractionError(t *testing.T) {
	extractErr := &extractor.ExtractionError{URL: testReq.URL, Err: errors.New("unreachable")}
	gen := &stubGenerator{}
	p := newPipeline(stubExtractor{err: extractErr}, gen)

	_, err := p.Summarize(context.Background(), testReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, extractor.ErrExtraction)
	assert.Empty(t, gen.prompts, "expected no model call after extraction failure")
}

func TestSummarizeModelError(t *testing.T) {
	modelErr := &llm.ModelError{Provider: "stub", Err: errors.New("quota")}
	p := newPipeline(stubExtractor{doc: testDoc}, &stubGenerator{err: modelErr})

	_, err := p.Summarize(context.Background(), testReq)
	assert.ErrorIs(t, err, llm.ErrModel)
}

func TestCalendarizeRedirects(t *testing.T) {
	gen := &stubGenerator{result: llm.Structured{Fields: map[string]string{
		"title":    "Meetup",
		"start":    "2024-03-01T10:00:00Z",
		"end":      "2024-03-01T11:00:00Z",
		"location": "Hall",
		"details":  "Talks",
	}}}
	p := newPipeline(stubExtractor{doc: testDoc}, gen)

	action, err := p.Calendarize(context.Background(), testReq)
	require.NoError(t, err)

	redirect, ok := action.(render.Redirect)
	require.True(t, ok, "expected render.Redirect, got %T", action)
	assert.True(t, strings.HasPrefix(redirect.URL, "https://calendar.google.com/calendar/render?action=TEMPLATE"))
	assert.Contains(t, redirect.URL, "dates=20240301T100000/20240301T110000")
	assert.Equal(t, domain.TaskCalendarize.Fields(), gen.prompts[0].Fields)
}

func TestCalendarizeRawIsSchemaError(t *testing.T) {
	p := newPipeline(stubExtractor{doc: testDoc}, &stubGenerator{result: llm.Raw{Text: "no event here"}})

	_, err := p.Calendarize(context.Background(), testReq)
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrSchema)

	var schemaErr *llm.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "no event here", schemaErr.Text)
}

func TestCalendarizeBlockedRendersPlaceholder(t *testing.T) {
	p := newPipeline(stubExtractor{doc: testDoc}, &stubGenerator{result: llm.Blocked{Reason: "SAFETY"}})

	action, err := p.Calendarize(context.Background(), testReq)
	require.NoError(t, err)

	page, ok := action.(render.Page)
	require.True(t, ok, "expected render.Page, got %T", action)
	assert.Contains(t, page.HTML, "Blocked:")
}

func TestMarkdown(t *testing.T) {
	gen := &stubGenerator{result: llm.Structured{Fields: map[string]string{
		"title":   "Model title",
		"summary": "- point",
	}}}
	p := newPipeline(stubExtractor{doc: testDoc}, gen)

	md, err := p.Markdown(context.Background(), testReq)
	require.NoError(t, err)
	assert.Equal(t, "# [Model title](<https://example.com/post>)\n\n- point\n", md)
}
