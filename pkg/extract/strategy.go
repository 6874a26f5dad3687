package extract

import (
	"context"
	"iter"

	"fbscraper/pkg/feed"
	"fbscraper/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

// Session carries state shared by every page of one extraction run.
type Session struct {
	// PageID is the numeric id of the feed owner, resolved on first sight
	PageID string
}

// NewSession creates an empty session
func NewSession() *Session {
	return &Session{}
}

// Strategy turns a normalized page into records of type R.
type Strategy[R any] interface {
	// Candidates returns the genuine content nodes of doc, decoys removed
	Candidates(doc *feed.Document, session *Session) []*goquery.Selection
	// Record maps one candidate to a record. Recoverable problems are
	// logged and defaulted; a returned error aborts the run.
	Record(ctx context.Context, doc *feed.Document, session *Session, tag *goquery.Selection) (R, error)
}

// Extract lazily yields the records of one page in document order
func Extract[R any](ctx context.Context, strategy Strategy[R], doc *feed.Document, session *Session, log logger.Logger) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		tags := strategy.Candidates(doc, session)
		if len(tags) == 0 {
			log.WarnWithFields("No candidate nodes found on page", map[string]interface{}{
				"url": doc.BaseURL,
			})
			if log.Enabled("debug") {
				log.DebugWithFields("Page content", map[string]interface{}{
					"text": doc.Text(),
				})
			}
			return
		}
		logger.LogPage(log, doc.BaseURL, len(tags))

		for _, tag := range tags {
			if err := ctx.Err(); err != nil {
				var zero R
				yield(zero, err)
				return
			}
			record, err := strategy.Record(ctx, doc, session, tag)
			if err != nil {
				var zero R
				yield(zero, err)
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}

// selections flattens a goquery selection into per-node selections
func selections(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}
