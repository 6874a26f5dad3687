package extract

import (
	"context"
	"time"

	"fbscraper/pkg/facebook"
	"fbscraper/pkg/feed"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// VideoDetails is the enrichment read from a video's permalink page
type VideoDetails struct {
	PublishTime *time.Time `json:"publish_time"`
	Text        string     `json:"text"`
	PostText    string     `json:"post_text"`
	SharedText  string     `json:"shared_text"`
}

// VideoRecord is one inline-playable video. VideoDetails is nil unless
// details were requested.
type VideoRecord struct {
	PageID    string `json:"page_id"`
	VideoID   string `json:"video_id"`
	Src       string `json:"src"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
	*VideoDetails
}

// VideoRef addresses a video for deferred detail enrichment
type VideoRef struct {
	PageID  string
	VideoID string
}

// VideoStrategy extracts videos from the video grid
type VideoStrategy struct {
	base     string
	details  *DetailFetcher
	logger   logger.Logger
	recorder metrics.Recorder
}

var _ Strategy[VideoRecord] = (*VideoStrategy)(nil)

// NewVideoStrategy creates a video strategy. A nil details fetcher selects
// the id-only path, which issues no secondary requests.
func NewVideoStrategy(base string, details *DetailFetcher, log logger.Logger, rec metrics.Recorder) *VideoStrategy {
	if log == nil {
		log = logger.GetLogger()
	}
	return &VideoStrategy{
		base:     base,
		details:  details,
		logger:   log.WithField("strategy", "videos"),
		recorder: metrics.OrNoop(rec),
	}
}

// Candidates returns the inline video icons of doc. The owner's page id is
// resolved into session the first time it can be found.
func (s *VideoStrategy) Candidates(doc *feed.Document, session *Session) []*goquery.Selection {
	if session.PageID == "" {
		session.PageID = s.pageID(doc)
	}

	icons := doc.Root.Find(facebook.VideoIconSelector).FilterFunction(func(_ int, sel *goquery.Selection) bool {
		sigil, _ := sel.Attr(facebook.VideoSigilAttr)
		return sigil == facebook.VideoSigilValue
	})
	return selections(icons)
}

func (s *VideoStrategy) pageID(doc *feed.Document) string {
	for _, source := range []string{doc.Root.Text(), doc.CursorSource} {
		if m := facebook.PageID.FindStringSubmatch(source); m != nil {
			s.logger.DebugWithFields("Found page id", map[string]interface{}{"page_id": m[1]})
			return m[1]
		}
	}
	s.logger.WarnWithFields("Could not find page id", map[string]interface{}{"url": doc.BaseURL})
	return ""
}

// Record maps a video icon to a VideoRecord
func (s *VideoStrategy) Record(ctx context.Context, _ *feed.Document, session *Session, tag *goquery.Selection) (VideoRecord, error) {
	var store struct {
		VideoID json.RawMessage `json:"videoID"`
		Src     string          `json:"src"`
	}
	holder := tag.ParentsFiltered("[" + facebook.VideoStoreAttr + "]").First()
	if err := decodeAttr(holder, facebook.VideoStoreAttr, &store); err != nil {
		s.recorder.IncDecodeErrors(facebook.VideoStoreAttr)
		s.logger.WithError(err).Error("Error parsing video metadata attribute")
	}

	record := VideoRecord{
		PageID:    session.PageID,
		VideoID:   rawString(store.VideoID),
		Src:       store.Src,
		Thumbnail: s.thumbnail(tag),
	}
	record.URL = facebook.PermalinkURL(s.base, record.VideoID, record.PageID)

	if s.details != nil {
		details, err := s.details.FetchURL(ctx, record.URL, record.PageID)
		if err != nil {
			return record, err
		}
		record.VideoDetails = details
	}
	return record, nil
}

func (s *VideoStrategy) thumbnail(tag *goquery.Selection) string {
	style, _ := tag.Attr(facebook.StyleAttr)
	m := facebook.Thumbnail.FindStringSubmatch(style)
	if m == nil {
		return ""
	}
	return DecodeCSSURL(m[1])
}
