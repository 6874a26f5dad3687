package scraper

import (
	"context"
	"iter"
	"time"

	"fbscraper/internal/detailpool"
	"fbscraper/pkg/config"
	"fbscraper/pkg/connector"
	"fbscraper/pkg/extract"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/feed"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"
	"fbscraper/pkg/ratelimit"
)

// Options configures a Scraper
type Options struct {
	// BaseURL defaults to facebook.BaseURL
	BaseURL string
	// Delay is paused after every yielded record
	Delay time.Duration
	// MaxPages caps pagination; 0 means no cap
	MaxPages int
	// DetailWorkers bounds concurrent fetches in ExtractVideoDetails
	DetailWorkers int
	// Renderer is used when a permalink page needs client-side rendering
	Renderer extract.Renderer
	Logger   logger.Logger
	Recorder metrics.Recorder
}

// Scraper composes the feed paginator with an extraction strategy
type Scraper struct {
	getter   connector.Getter
	base     string
	pacer    *ratelimit.Pacer
	maxPages int
	workers  int
	renderer extract.Renderer
	logger   logger.Logger
	recorder metrics.Recorder
}

// New creates a Scraper fetching through getter
func New(getter connector.Getter, opts Options) *Scraper {
	if opts.BaseURL == "" {
		opts.BaseURL = facebook.BaseURL
	}
	if opts.DetailWorkers < 1 {
		opts.DetailWorkers = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	return &Scraper{
		getter:   getter,
		base:     opts.BaseURL,
		pacer:    ratelimit.NewPacer(opts.Delay),
		maxPages: opts.MaxPages,
		workers:  opts.DetailWorkers,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		recorder: metrics.OrNoop(opts.Recorder),
	}
}

// NewFromConfig creates a Scraper from the scrape and facebook sections
func NewFromConfig(cfg *config.Config, getter connector.Getter, renderer extract.Renderer, log logger.Logger, rec metrics.Recorder) *Scraper {
	return New(getter, Options{
		BaseURL:       cfg.Facebook.BaseURL,
		Delay:         cfg.Scrape.Delay,
		MaxPages:      cfg.Scrape.MaxPages,
		DetailWorkers: cfg.Scrape.DetailWorkers,
		Renderer:      renderer,
		Logger:        log,
		Recorder:      rec,
	})
}

// ExtractPosts yields every post of the page feed for slug
func (s *Scraper) ExtractPosts(ctx context.Context, slug string) iter.Seq2[extract.PostRecord, error] {
	log := logger.WithRunID(s.logger).WithFields(map[string]interface{}{"slug": slug, "kind": "posts"})
	strategy := extract.NewPostStrategy(s.getter, s.base, log, s.recorder)
	pages := feed.NewPostFeed(s.getter, s.base, slug, s.feedOptions(log)...)
	return run(ctx, s, "posts", slug, pages, strategy, log)
}

// ExtractVideos yields every video of the video grid for slug. When
// wantDetails is false no permalink pages are fetched.
func (s *Scraper) ExtractVideos(ctx context.Context, slug string, wantDetails bool) iter.Seq2[extract.VideoRecord, error] {
	log := logger.WithRunID(s.logger).WithFields(map[string]interface{}{"slug": slug, "kind": "videos"})

	var details *extract.DetailFetcher
	if wantDetails {
		details = extract.NewDetailFetcher(s.getter, s.renderer, s.base, log, s.recorder)
	}
	strategy := extract.NewVideoStrategy(s.base, details, log, s.recorder)
	pages := feed.NewVideoFeed(s.getter, s.base, slug, s.feedOptions(log)...)
	return run(ctx, s, "videos", slug, pages, strategy, log)
}

// ExtractVideoDetails enriches previously collected videos, yielding one
// record per ref in the order given. With more than one detail worker the
// fetches overlap and the delay becomes a minimum spacing between them.
func (s *Scraper) ExtractVideoDetails(ctx context.Context, refs []extract.VideoRef) iter.Seq2[extract.VideoRecord, error] {
	return func(yield func(extract.VideoRecord, error) bool) {
		log := logger.WithRunID(s.logger).WithFields(map[string]interface{}{"kind": "details"})
		fetcher := extract.NewDetailFetcher(s.getter, s.renderer, s.base, log, s.recorder)

		start := time.Now()
		records := 0
		defer func() {
			logger.LogRunSummary(log, "details", "", records, 0, time.Since(start))
		}()

		emit := func(ref extract.VideoRef, details *extract.VideoDetails) bool {
			records++
			s.recorder.IncRecords("details")
			return yield(extract.VideoRecord{
				PageID:       ref.PageID,
				VideoID:      ref.VideoID,
				URL:          facebook.PermalinkURL(s.base, ref.VideoID, ref.PageID),
				VideoDetails: details,
			}, nil)
		}

		if s.workers == 1 {
			for _, ref := range refs {
				details, err := fetcher.Fetch(ctx, ref)
				if err != nil {
					yield(extract.VideoRecord{}, err)
					return
				}
				if !emit(ref, details) {
					return
				}
				if err := s.pacer.Pause(ctx); err != nil {
					yield(extract.VideoRecord{}, err)
					return
				}
			}
			return
		}

		var limiter ratelimit.Limiter
		if s.pacer.Delay() > 0 {
			limiter = ratelimit.NewInterval(s.pacer.Delay())
		}
		pool := detailpool.NewWorkerPool(s.workers, fetcher, limiter, log)
		for res := range pool.Run(ctx, refs) {
			if res.Err != nil {
				yield(extract.VideoRecord{}, res.Err)
				return
			}
			if !emit(res.Job.Ref, res.Details) {
				return
			}
		}
	}
}

func (s *Scraper) feedOptions(log logger.Logger) []feed.Option {
	return []feed.Option{
		feed.WithMaxPages(s.maxPages),
		feed.WithLogger(log),
		feed.WithRecorder(s.recorder),
	}
}

// run drives pages through strategy, pacing after each record. The first
// error ends the sequence.
func run[R any](ctx context.Context, s *Scraper, kind, slug string, pages *feed.Paginator, strategy extract.Strategy[R], log logger.Logger) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		var zero R
		session := extract.NewSession()
		start := time.Now()
		records := 0

		log.Info("Starting extraction")
		defer func() {
			logger.LogRunSummary(log, kind, slug, records, pages.Pages(), time.Since(start))
		}()

		for doc, err := range pages.All(ctx) {
			if err != nil {
				yield(zero, err)
				return
			}
			for record, err := range extract.Extract(ctx, strategy, doc, session, log) {
				if err != nil {
					yield(zero, err)
					return
				}
				records++
				s.recorder.IncRecords(kind)
				if !yield(record, nil) {
					return
				}
				if err := s.pacer.Pause(ctx); err != nil {
					yield(zero, err)
					return
				}
			}
		}
	}
}
