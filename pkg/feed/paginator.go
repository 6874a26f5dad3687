package feed

import (
	"context"
	"iter"
	"strings"

	"fbscraper/pkg/connector"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"

	"github.com/goccy/go-json"
)

// Paginator walks a feed page by page. The next page URL is only known after
// the current page has been consumed, so fetches are strictly sequential.
//
//	p := feed.NewPostFeed(client, facebook.BaseURL, "nintendo")
//	for p.Next(ctx) {
//	    handle(p.Document())
//	}
//	if err := p.Err(); err != nil { ... }
type Paginator struct {
	getter   connector.Getter
	patterns facebook.CursorPatterns
	base     string
	name     string

	next     string
	doc      *Document
	pages    int
	maxPages int
	err      error

	logger   logger.Logger
	recorder metrics.Recorder
}

// Option configures a Paginator
type Option func(*Paginator)

// WithMaxPages stops after n pages; 0 means no limit
func WithMaxPages(n int) Option {
	return func(p *Paginator) { p.maxPages = n }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(p *Paginator) { p.logger = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Paginator) { p.recorder = metrics.OrNoop(r) }
}

// NewPaginator starts at base/slug/suffix and follows tokens matched by patterns
func NewPaginator(getter connector.Getter, base, slug, suffix string, patterns facebook.CursorPatterns, opts ...Option) *Paginator {
	p := &Paginator{
		getter:   getter,
		patterns: patterns,
		base:     base,
		name:     strings.TrimSuffix(suffix, "/"),
		next:     facebook.FeedURL(base, slug, suffix),
		logger:   logger.GetLogger(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPostFeed creates a paginator over the content feed
func NewPostFeed(getter connector.Getter, base, slug string, opts ...Option) *Paginator {
	return NewPaginator(getter, base, slug, facebook.PostsSuffix, facebook.PostCursors, opts...)
}

// NewVideoFeed creates a paginator over the video grid
func NewVideoFeed(getter connector.Getter, base, slug string, opts ...Option) *Paginator {
	return NewPaginator(getter, base, slug, facebook.VideoGridSuffix, facebook.VideoCursors, opts...)
}

// Next fetches the following page. It returns false when the feed is
// exhausted, the page cap is reached, or an error occurred.
func (p *Paginator) Next(ctx context.Context) bool {
	if p.err != nil {
		return false
	}
	if p.doc != nil {
		p.advance()
	}
	if p.next == "" {
		return false
	}
	if p.maxPages > 0 && p.pages >= p.maxPages {
		p.logger.InfoWithFields("Page limit reached", map[string]interface{}{
			"feed":      p.name,
			"max_pages": p.maxPages,
		})
		p.next = ""
		return false
	}

	url := p.next
	p.next = ""

	resp, err := p.getter.Get(ctx, url)
	if err != nil {
		p.err = err
		p.doc = nil
		return false
	}

	doc, err := Normalize(resp, p.base)
	if err != nil {
		p.logger.WithError(err).ErrorWithFields("Failed to normalize page", map[string]interface{}{
			"url": url,
		})
		p.err = err
		p.doc = nil
		return false
	}

	p.doc = doc
	p.pages++
	p.recorder.IncPages(p.name)
	p.logger.DebugWithFields("Fetched feed page", map[string]interface{}{
		"feed": p.name,
		"page": p.pages,
		"url":  url,
	})
	return true
}

// advance searches the current page for the continuation token
func (p *Paginator) advance() {
	token, ok := NextToken(p.doc.CursorSource, p.patterns)
	if !ok {
		p.logger.DebugWithFields("No next page found", map[string]interface{}{
			"feed":  p.name,
			"pages": p.pages,
		})
		return
	}
	p.next = facebook.Resolve(p.base, token)
}

// Document returns the page fetched by the last successful Next
func (p *Paginator) Document() *Document {
	return p.doc
}

// Pages returns the number of pages fetched so far
func (p *Paginator) Pages() int {
	return p.pages
}

// Err returns the error that stopped pagination, if any
func (p *Paginator) Err() error {
	return p.err
}

// All adapts the paginator to a range-over-func sequence
func (p *Paginator) All(ctx context.Context) iter.Seq2[*Document, error] {
	return func(yield func(*Document, error) bool) {
		for p.Next(ctx) {
			if !yield(p.Document(), nil) {
				return
			}
		}
		if err := p.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// NextToken finds the continuation token in source. The plain pattern is
// tried first; an escaped match is un-escaped into a clean relative URL.
func NextToken(source string, patterns facebook.CursorPatterns) (string, bool) {
	if m := patterns.Plain.FindStringSubmatch(source); m != nil {
		return m[1], true
	}
	if m := patterns.Escaped.FindStringSubmatch(source); m != nil {
		return unescapeToken(m[1]), true
	}
	return "", false
}

// unescapeToken decodes a JSON-escaped path such as \/page_content\/?cursor=A
func unescapeToken(raw string) string {
	var decoded string
	if err := json.Unmarshal([]byte(`"`+raw+`"`), &decoded); err == nil {
		return decoded
	}
	return strings.ReplaceAll(raw, `\/`, "/")
}
