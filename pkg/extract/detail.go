package extract

import (
	"context"
	"strings"
	"time"

	"fbscraper/pkg/connector"
	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/feed"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"

	"github.com/PuerkitoBio/goquery"
)

// Renderer loads a URL in a client-side renderer and returns the final markup
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// DetailFetcher reads publish time and text from a video's permalink page
type DetailFetcher struct {
	getter   connector.Getter
	renderer Renderer
	base     string
	logger   logger.Logger
	recorder metrics.Recorder
}

// NewDetailFetcher creates a detail fetcher. renderer may be nil, in which
// case placeholder pages are reported as unavailable.
func NewDetailFetcher(getter connector.Getter, renderer Renderer, base string, log logger.Logger, rec metrics.Recorder) *DetailFetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &DetailFetcher{
		getter:   getter,
		renderer: renderer,
		base:     base,
		logger:   log.WithField("component", "details"),
		recorder: metrics.OrNoop(rec),
	}
}

// Fetch enriches a video addressed by owner and video id
func (f *DetailFetcher) Fetch(ctx context.Context, ref VideoRef) (*VideoDetails, error) {
	return f.FetchURL(ctx, facebook.PermalinkURL(f.base, ref.VideoID, ref.PageID), ref.PageID)
}

// FetchURL enriches the video at permalink. Failures leave every field
// empty; only context cancellation is returned as an error.
func (f *DetailFetcher) FetchURL(ctx context.Context, permalink, pageID string) (*VideoDetails, error) {
	log := f.logger.WithField("url", permalink)
	log.Debug("Fetching video details")

	resp, err := f.getter.Get(ctx, permalink)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return f.unavailable(log, err, "detail fetch failed"), nil
	}

	page, err := feed.Normalize(resp, f.base)
	if err != nil {
		return f.unavailable(log, err, "detail page unreadable"), nil
	}

	outcome := metrics.DetailFetched
	container := page.Root.Find(facebook.DetailSelector).First()
	if container.Length() == 0 && f.renderer != nil {
		log.Debug("Content container missing, rendering page")
		container, err = f.rendered(ctx, permalink)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return f.unavailable(log, err, "render failed"), nil
		}
		outcome = metrics.DetailRendered
	}
	if container.Length() == 0 {
		return f.unavailable(log, nil, "content container not found"), nil
	}

	details := &VideoDetails{PublishTime: f.publishTime(container, pageID, log)}
	if body := SplitText(container.Find(facebook.TextNodesSelector)); body != nil {
		details.Text = body.Text
		details.PostText = body.PostText
		details.SharedText = body.SharedText
	}
	f.recorder.IncDetail(outcome)
	return details, nil
}

func (f *DetailFetcher) rendered(ctx context.Context, permalink string) (*goquery.Selection, error) {
	markup, err := f.renderer.Render(ctx, permalink)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	return doc.Find(facebook.DetailSelector).First(), nil
}

// publishTime reads page_insights[pageID].post_context.publish_time from
// the nearest tracked ancestor of container
func (f *DetailFetcher) publishTime(container *goquery.Selection, pageID string, log logger.Logger) *time.Time {
	var ft struct {
		PageInsights map[string]struct {
			PostContext struct {
				PublishTime int64 `json:"publish_time"`
			} `json:"post_context"`
		} `json:"page_insights"`
	}

	holder := container.ParentsFiltered("[" + facebook.TrackingAttr + "]").First()
	if err := decodeAttr(holder, facebook.TrackingAttr, &ft); err != nil {
		f.recorder.IncDecodeErrors(facebook.TrackingAttr)
		log.WithError(err).Error("Error parsing tracking attribute")
		return nil
	}

	insight, ok := ft.PageInsights[pageID]
	if !ok || insight.PostContext.PublishTime == 0 {
		log.WarnWithFields("Publish time not found", map[string]interface{}{"page_id": pageID})
		return nil
	}
	ts := time.Unix(insight.PostContext.PublishTime, 0).UTC()
	return &ts
}

// unavailable records a detail_unavailable failure and returns empty details
func (f *DetailFetcher) unavailable(log logger.Logger, cause error, msg string) *VideoDetails {
	f.recorder.IncDetail(metrics.DetailUnavailable)
	log.WithError(errs.Wrap(cause, errs.ErrorTypeDetailUnavailable, msg)).Warn("Video details unavailable")
	return &VideoDetails{}
}
