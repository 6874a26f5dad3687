package extract

import (
	"context"
	"strings"

	"fbscraper/pkg/connector"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/feed"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// PostRecord is one feed entry. Body is nil when the entry has no text nodes.
type PostRecord struct {
	// PostID is empty when the tracking attribute could not be read
	PostID string `json:"post_id"`
	*Body
}

// MarshalJSON writes an empty PostID as null
func (p PostRecord) MarshalJSON() ([]byte, error) {
	type wire struct {
		PostID *string `json:"post_id"`
		*Body
	}
	out := wire{Body: p.Body}
	if p.PostID != "" {
		out.PostID = &p.PostID
	}
	return json.Marshal(out)
}

// PostStrategy extracts entries of the content feed
type PostStrategy struct {
	getter   connector.Getter
	base     string
	logger   logger.Logger
	recorder metrics.Recorder
}

var _ Strategy[PostRecord] = (*PostStrategy)(nil)

// NewPostStrategy creates a post strategy that refetches truncated entries through getter
func NewPostStrategy(getter connector.Getter, base string, log logger.Logger, rec metrics.Recorder) *PostStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &PostStrategy{
		getter:   getter,
		base:     base,
		logger:   log.WithField("strategy", "posts"),
		recorder: metrics.OrNoop(rec),
	}
}

// Candidates returns entry containers that carry the tracking attribute and
// are not nested inside another tracked entry
func (s *PostStrategy) Candidates(doc *feed.Document, _ *Session) []*goquery.Selection {
	nested := "[" + facebook.TrackingAttr + "]"
	tracked := doc.Root.Find(facebook.PostSelector).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		if _, ok := sel.Attr(facebook.TrackingAttr); !ok {
			return false
		}
		return sel.ParentsFiltered(facebook.PostSelector+nested).Length() == 0
	})
	return selections(tracked)
}

// Record maps an entry container to a PostRecord
func (s *PostStrategy) Record(ctx context.Context, doc *feed.Document, _ *Session, tag *goquery.Selection) (PostRecord, error) {
	record := PostRecord{PostID: s.postID(tag)}

	element, err := s.fullEntry(ctx, tag)
	if err != nil {
		return record, err
	}

	record.Body = SplitText(element.Find(facebook.TextNodesSelector))
	return record, nil
}

func (s *PostStrategy) postID(tag *goquery.Selection) string {
	var ft struct {
		StoryKey json.RawMessage `json:"mf_story_key"`
	}
	if err := decodeAttr(tag, facebook.TrackingAttr, &ft); err != nil {
		s.recorder.IncDecodeErrors(facebook.TrackingAttr)
		s.logger.WithError(err).Error("Error parsing tracking attribute")
		return ""
	}
	return rawString(ft.StoryKey)
}

// fullEntry returns the permalink's content container when the entry is
// truncated, falling back to tag itself
func (s *PostStrategy) fullEntry(ctx context.Context, tag *goquery.Selection) (*goquery.Selection, error) {
	markup, err := tag.Html()
	if err != nil {
		return tag, nil
	}

	truncated, err := facebook.TruncationMarker.MatchString(markup)
	if err != nil || !truncated {
		return tag, nil
	}
	m := facebook.StoryLink.FindStringSubmatch(markup)
	if m == nil {
		return tag, nil
	}

	link := facebook.Resolve(s.base, strings.ReplaceAll(m[1], facebook.EscapedAmpersand, facebook.UnescapedAmpersand))
	s.logger.DebugWithFields("Fetching full entry", map[string]interface{}{"url": link})

	resp, err := s.getter.Get(ctx, link)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.WithError(err).WarnWithFields("Full entry unavailable, using feed excerpt", map[string]interface{}{"url": link})
		return tag, nil
	}

	page, err := feed.Normalize(resp, s.base)
	if err != nil {
		s.logger.WithError(err).WarnWithFields("Full entry unreadable, using feed excerpt", map[string]interface{}{"url": link})
		return tag, nil
	}

	container := page.Root.Find(facebook.StoryBodySelector).First()
	if container.Length() == 0 {
		s.logger.WarnWithFields("Full entry has no content container, using feed excerpt", map[string]interface{}{"url": link})
		return tag, nil
	}
	return container, nil
}
