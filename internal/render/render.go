package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"articlesum/internal/domain"
	"articlesum/internal/llm"
	"articlesum/internal/markdown"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Action writes a terminal transport response.
type Action interface {
	Render(w http.ResponseWriter, r *http.Request)
}

// Page is a complete HTML document served with status 200.
type Page struct {
	Title string
	HTML  string
}

func (p Page) Render(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(p.HTML))
}

// Redirect sends the client to URL with 302 Found.
type Redirect struct {
	URL string
}

func (rd Redirect) Render(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, rd.URL, http.StatusFound)
}

var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}</body>
</html>
`))

type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Markdown converts a Markdown document to an HTML fragment. Raw HTML in the
// source is omitted.
func (r *Renderer) Markdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	return buf.String(), nil
}

// Document wraps a Markdown document into a full HTML page.
func (r *Renderer) Document(title string, source string) (Page, error) {
	body, err := r.Markdown(source)
	if err != nil {
		return Page{}, err
	}

	var buf bytes.Buffer
	if err = pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(body), //nolint:gosec // produced by goldmark without raw HTML
	}); err != nil {
		return Page{}, fmt.Errorf("execute page template: %w", err)
	}

	return Page{Title: title, HTML: buf.String()}, nil
}

// SummaryPage renders the summarize task result for doc.
func (r *Renderer) SummaryPage(doc domain.ParsedDocument, result llm.Result) (Page, error) {
	md, title, err := SummaryMarkdown(doc, result)
	if err != nil {
		return Page{}, err
	}

	return r.Document(title, md)
}

// SummaryMarkdown returns the Markdown document and its title. The title
// comes from the model, then the source title, description and URL.
func SummaryMarkdown(doc domain.ParsedDocument, result llm.Result) (string, string, error) {
	var (
		modelTitle string
		body       string
	)

	switch res := result.(type) {
	case llm.Structured:
		summary := domain.SummaryFromFields(res.Fields)
		modelTitle = summary.Title
		body = strings.TrimSpace(summary.Summary)
	case llm.Raw:
		body = strings.TrimSpace(res.Text)
	case llm.Blocked:
		body = BlockedSection(res.Reason)
	default:
		return "", "", fmt.Errorf("unsupported model result %T", result)
	}

	title := SummaryTitle(modelTitle, doc)

	return heading(title, doc.SourceURL) + body + "\n", title, nil
}

func SummaryTitle(modelTitle string, doc domain.ParsedDocument) string {
	for _, candidate := range []string{modelTitle, doc.Title, doc.Description, doc.SourceURL} {
		if title := markdown.SingleLine(candidate); title != "" {
			return title
		}
	}

	return "Untitled"
}

func BlockedSection(reason string) string {
	reason = markdown.SingleLine(reason)
	if reason == "" {
		reason = "unspecified"
	}

	return "> **Blocked:** the model provider withheld this content (reason: " +
		markdown.EscapeText(reason) + ")\n"
}

// Angle brackets would end a <...> link destination early.
var destinationEscaper = strings.NewReplacer("<", "%3C", ">", "%3E")

func heading(title string, sourceURL string) string {
	return fmt.Sprintf("# [%s](<%s>)\n\n",
		markdown.EscapeText(title),
		destinationEscaper.Replace(strings.TrimSpace(sourceURL)))
}
