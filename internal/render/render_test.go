package render

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"articlesum/internal/domain"
	"articlesum/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var testDoc = domain.ParsedDocument{
	SourceURL:   "https://example.com/post?a=1&b=2",
	Title:       "Source title",
	Description: "Source description",
	PlainText:   "text",
}

func TestSummaryPageStructured(t *testing.T) {
	r := NewRenderer()

	page, err := r.SummaryPage(testDoc, llm.Structured{Fields: map[string]string{
		"title":   "Model [title]",
		"summary": "## Section\n\n- point one\n- point two",
	}})
	require.NoError(t, err)

	assert.Equal(t, "Model [title]", page.Title)
	assert.Contains(t, page.HTML, `<h1><a href="https://example.com/post?a=1&amp;b=2">Model [title]</a></h1>`)
	assert.Contains(t, page.HTML, "<h2>Section</h2>")
	assert.Contains(t, page.HTML, "<li>point one</li>")
	assert.Contains(t, page.HTML, "<title>Model [title]</title>")
}

func TestSummaryPageKeepsMultibyteTitle(t *testing.T) {
	r := NewRenderer()

	page, err := r.SummaryPage(testDoc, llm.Structured{Fields: map[string]string{
		"title":   "Café crème (recette).",
		"summary": "- a",
	}})
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(page.HTML), "page is not valid UTF-8")
	assert.Contains(t, page.HTML, ">Café crème (recette).</a></h1>")
}

func TestSummaryMarkdownEscapesAngleBracketsInURL(t *testing.T) {
	doc := testDoc
	doc.SourceURL = "https://example.com/a?q=<x>&r=1"

	md, _, err := SummaryMarkdown(doc, llm.Raw{Text: "body"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# [Source title](<https://example.com/a?q=%3Cx%3E&r=1>)\n\n"), md)

	page, err := NewRenderer().SummaryPage(doc, llm.Raw{Text: "body"})
	require.NoError(t, err)
	assert.Contains(t, page.HTML, `<h1><a href="https://example.com/a?q=%3Cx%3E&amp;r=1">Source title</a></h1>`)
}

func TestSummaryTitleFallbackOrder(t *testing.T) {
	assert.Equal(t, "model", SummaryTitle(" model ", testDoc))
	assert.Equal(t, "Source title", SummaryTitle("", testDoc))

	noTitle := testDoc
	noTitle.Title = " "
	assert.Equal(t, "Source description", SummaryTitle("", noTitle))

	noTitle.Description = ""
	assert.Equal(t, testDoc.SourceURL, SummaryTitle("", noTitle))
}

func TestSummaryPageRawPassesThrough(t *testing.T) {
	r := NewRenderer()

	page, err := r.SummaryPage(testDoc, llm.Raw{Text: "Plain **bold** answer"})
	require.NoError(t, err)

	assert.Contains(t, page.HTML, ">Source title</a></h1>")
	assert.Contains(t, page.HTML, "<strong>bold</strong>")
}

func TestSummaryPageBlockedPlaceholder(t *testing.T) {
	r := NewRenderer()

	page, err := r.SummaryPage(testDoc, llm.Blocked{Reason: "SAFETY"})
	require.NoError(t, err)

	assert.Contains(t, page.HTML, "<blockquote>")
	assert.Contains(t, page.HTML, "<strong>Blocked:</strong>")
	assert.Contains(t, page.HTML, "SAFETY")
}

func TestMarkdownOmitsRawHTML(t *testing.T) {
	r := NewRenderer()

	html, err := r.Markdown("hello <script>alert(1)</script>")
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
}

func TestPageAndRedirectRender(t *testing.T) {
	rec := httptest.NewRecorder()
	Page{HTML: "<p>x</p>"}.Render(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<p>x</p>", rec.Body.String())

	rec = httptest.NewRecorder()
	Redirect{URL: "/"}.Render(rec, httptest.NewRequest(http.MethodGet, "/summarize", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestFormatCalendarDate(t *testing.T) {
	assert.Equal(t, "20240301T100000", FormatCalendarDate("2024-03-01T10:00:00Z"))
	assert.Equal(t, "20240301", FormatCalendarDate(" 2024-03-01 "))
}

func TestCalendarURL(t *testing.T) {
	got := CalendarURL(domain.CalendarEvent{
		Title:    "Go meetup",
		Start:    "2024-03-01T10:00:00Z",
		End:      "2024-03-01T11:00:00Z",
		Location: "Main St & 5th",
		Details:  "Talks",
	})

	want := "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=Go+meetup" +
		"&dates=20240301T100000/20240301T110000" +
		"&location=Main+St+%26+5th" +
		"&details=Talks"
	assert.Equal(t, want, got)

	assert.True(t, strings.HasPrefix(CalendarRedirect(domain.CalendarEvent{}).URL, calendarBaseURL))
}

func TestPropertyFormatCalendarDateStripsSeparators(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		year := rapid.IntRange(1970, 2999).Draw(rt, "year")
		month := rapid.IntRange(1, 12).Draw(rt, "month")
		day := rapid.IntRange(1, 28).Draw(rt, "day")
		hour := rapid.IntRange(0, 23).Draw(rt, "hour")
		minute := rapid.IntRange(0, 59).Draw(rt, "minute")
		second := rapid.IntRange(0, 59).Draw(rt, "second")

		input := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:%02dZ", year, month, day, hour, minute, second)
		want := fmt.Sprintf("%04d%02d%02dT%02d%02d%02d", year, month, day, hour, minute, second)

		if got := FormatCalendarDate(input); got != want {
			rt.Fatalf("FormatCalendarDate(%q) = %q, want %q", input, got, want)
		}
	})
}
