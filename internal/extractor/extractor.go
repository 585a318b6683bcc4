package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"articlesum/internal/domain"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultTimeout = 20 * time.Second

	maxDocumentBytes = 10 << 20

	noiseSelector = "script, style, noscript, template, nav, header, footer, aside, form, iframe, svg, button"
	blockSelector = "p, div, section, li, ul, ol, h1, h2, h3, h4, h5, h6, pre, blockquote, tr, table, dd, dt, figcaption"
)

var ErrExtraction = errors.New("extraction failed")

// ExtractionError reports that a source could not be fetched or turned into
// readable text.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

type Extractor struct {
	client    *http.Client
	userAgent string
	log       *slog.Logger
}

type Option func(*Extractor)

func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		if client != nil {
			e.client = client
		}
	}
}

func WithUserAgent(userAgent string) Option {
	return func(e *Extractor) {
		if ua := strings.TrimSpace(userAgent); ua != "" {
			e.userAgent = ua
		}
	}
}

func New(log *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: "articlesum/1.0",
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Extract parses rawHTML when it is provided and fetches targetURL otherwise.
func (e *Extractor) Extract(
	ctx context.Context,
	targetURL string,
	rawHTML string,
) (domain.ParsedDocument, error) {
	normalizedURL, err := ValidateURL(targetURL)
	if err != nil {
		return domain.ParsedDocument{}, &ExtractionError{URL: targetURL, Err: err}
	}

	var doc *goquery.Document
	if strings.TrimSpace(rawHTML) != "" {
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
		if err != nil {
			return domain.ParsedDocument{}, &ExtractionError{
				URL: normalizedURL,
				Err: fmt.Errorf("create document from reader: %w", err),
			}
		}
	} else {
		doc, err = e.fetch(ctx, normalizedURL)
		if err != nil {
			return domain.ParsedDocument{}, &ExtractionError{URL: normalizedURL, Err: err}
		}
	}

	parsed := parseDocument(normalizedURL, doc)
	if parsed.PlainText == "" {
		return domain.ParsedDocument{}, &ExtractionError{
			URL: normalizedURL,
			Err: errors.New("no article content"),
		}
	}

	e.log.DebugContext(ctx, "Document is extracted",
		"url", normalizedURL,
		"title", parsed.Title,
		"fromBody", rawHTML != "",
		"textLen", len(parsed.PlainText))

	return parsed, nil
}

// ValidateURL trims raw and requires an absolute http(s) URL with a host that
// the strict URL matcher recognises in full.
func ValidateURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errors.New("URL is empty")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("URL host is empty")
	}

	re, err := strictHTTPURL()
	if err != nil {
		return "", fmt.Errorf("create regexp: %w", err)
	}
	if re.FindString(trimmed) != trimmed {
		return "", fmt.Errorf("malformed URL %q", trimmed)
	}

	return u.String(), nil
}

func (e *Extractor) fetch(ctx context.Context, targetURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := e.client.Do(req) //nolint:gosec // URL is validated by the caller
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			e.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"url", targetURL,
				"operation", "fetch")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("do request: unexpected status: %d", resp.StatusCode)
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		mediaType, _, parseErr := mime.ParseMediaType(contentType)
		if parseErr == nil && !isHTMLMediaType(mediaType) {
			return nil, fmt.Errorf("unsupported content type %q", mediaType)
		}
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("create document from reader: %w", err)
	}

	return doc, nil
}

func isHTMLMediaType(mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	default:
		return false
	}
}

func parseDocument(sourceURL string, doc *goquery.Document) domain.ParsedDocument {
	return domain.ParsedDocument{
		SourceURL:   sourceURL,
		Title:       documentTitle(doc),
		Description: documentDescription(doc),
		PlainText:   documentText(doc),
	}
}

func documentTitle(doc *goquery.Document) string {
	if content, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		if title := collapseSpaces(content); title != "" {
			return title
		}
	}

	if title := collapseSpaces(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return collapseSpaces(doc.Find("h1").First().Text())
}

func documentDescription(doc *goquery.Document) string {
	for _, selector := range []string{
		"meta[property='og:description']",
		"meta[name='description']",
	} {
		if content, ok := doc.Find(selector).Attr("content"); ok {
			if description := collapseSpaces(content); description != "" {
				return description
			}
		}
	}

	return ""
}

func documentText(doc *goquery.Document) string {
	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	root.Find(noiseSelector).Remove()
	root.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	root.Find(blockSelector).Each(func(_ int, block *goquery.Selection) {
		block.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(root.Text(), "\n") {
		if normalized := collapseSpaces(line); normalized != "" {
			lines = append(lines, normalized)
		}
	}

	return strings.Join(lines, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
