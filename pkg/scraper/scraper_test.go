package scraper

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fbscraper/pkg/connector"
	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/extract"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/metrics"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://m.facebook.com"

// fakeGetter serves canned bodies keyed by URL and records every request
type fakeGetter struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string
}

func (f *fakeGetter) Get(ctx context.Context, url string) (*connector.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, errs.FromStatus(404, url)
	}
	return &connector.Response{Status: 200, Body: []byte(body), URL: url}, nil
}

func (f *fakeGetter) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func wrappedPage(t *testing.T, html, script string) string {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{
		"payload": map[string]interface{}{
			"actions": []map[string]string{
				{"cmd": facebook.ActionReplace, "html": html},
				{"cmd": facebook.ActionScript, "code": script},
			},
		},
	})
	require.NoError(t, err)
	return facebook.JSONPrefix + string(data)
}

func postFeed(t *testing.T) map[string]string {
	return map[string]string{
		base + "/nintendo/posts/": `<html><body>
<article data-ft='{"mf_story_key":"1"}'><header>Nintendo</header><p>first</p></article>
<article data-ft='{"mf_story_key":"2"}'><header>Nintendo</header><p>second</p></article>
<script>{href:"/page_content/?cursor=A"}</script>
</body></html>`,
		base + "/page_content/?cursor=A": wrappedPage(t,
			`<div><article data-ft='{"mf_story_key":"3"}'><header>Nintendo</header><p>third</p></article></div>`,
			`nothing further`),
	}
}

func newTestScraper(getter connector.Getter, opts Options) *Scraper {
	if opts.Logger == nil {
		opts.Logger = logger.NewTestLogger()
	}
	return New(getter, opts)
}

func TestExtractPostsAcrossPages(t *testing.T) {
	getter := &fakeGetter{pages: postFeed(t)}
	reg := prometheus.NewRegistry()
	s := newTestScraper(getter, Options{Recorder: metrics.NewPrometheusRecorder(reg)})

	var ids, texts []string
	for post, err := range s.ExtractPosts(context.Background(), "nintendo") {
		require.NoError(t, err)
		ids = append(ids, post.PostID)
		texts = append(texts, post.PostText)
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, []string{"first", "second", "third"}, texts)
	assert.Equal(t, []string{base + "/nintendo/posts/", base + "/page_content/?cursor=A"}, getter.Requests())

	expected := `
# HELP fbscraper_records_total Records emitted
# TYPE fbscraper_records_total counter
fbscraper_records_total{kind="posts"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fbscraper_records_total"))
}

func TestExtractPostsStopEarlyFetchesNothingMore(t *testing.T) {
	getter := &fakeGetter{pages: postFeed(t)}
	s := newTestScraper(getter, Options{})

	for post, err := range s.ExtractPosts(context.Background(), "nintendo") {
		require.NoError(t, err)
		assert.Equal(t, "1", post.PostID)
		break
	}

	assert.Len(t, getter.Requests(), 1)
}

func TestExtractPostsMaxPages(t *testing.T) {
	getter := &fakeGetter{pages: postFeed(t)}
	s := newTestScraper(getter, Options{MaxPages: 1})

	count := 0
	for _, err := range s.ExtractPosts(context.Background(), "nintendo") {
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 2, count)
	assert.Len(t, getter.Requests(), 1)
}

func TestExtractPostsFetchFailureIsFatal(t *testing.T) {
	s := newTestScraper(&fakeGetter{}, Options{})

	var gotErr error
	count := 0
	for _, err := range s.ExtractPosts(context.Background(), "missing") {
		if err != nil {
			gotErr = err
			continue
		}
		count++
	}

	assert.Zero(t, count)
	require.Error(t, gotErr)
	assert.True(t, errs.IsType(gotErr, errs.ErrorTypeNotFound))
}

func TestExtractPostsLogsRunSummary(t *testing.T) {
	tl := logger.NewTestLogger()
	s := newTestScraper(&fakeGetter{pages: postFeed(t)}, Options{Logger: tl})

	for _, err := range s.ExtractPosts(context.Background(), "nintendo") {
		require.NoError(t, err)
	}

	require.True(t, tl.HasMessage("Extraction finished"))
	for _, msg := range tl.GetMessages() {
		if msg.Message == "Extraction finished" {
			assert.Equal(t, 3, msg.Fields["records"])
			assert.Equal(t, 2, msg.Fields["pages"])
			assert.NotEmpty(t, msg.Fields["run_id"])
		}
	}
}

func TestPacingDelayBetweenRecords(t *testing.T) {
	s := newTestScraper(&fakeGetter{pages: postFeed(t)}, Options{Delay: 15 * time.Millisecond})

	start := time.Now()
	count := 0
	for _, err := range s.ExtractPosts(context.Background(), "nintendo") {
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 3, count)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestPacingHonoursCancellation(t *testing.T) {
	s := newTestScraper(&fakeGetter{pages: postFeed(t)}, Options{Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var records int
	var gotErr error
	for _, err := range s.ExtractPosts(ctx, "nintendo") {
		if err != nil {
			gotErr = err
			continue
		}
		records++
	}

	assert.Equal(t, 1, records)
	assert.ErrorIs(t, gotErr, context.DeadlineExceeded)
}

const videoGrid = `<html><body>
<script>require("CurrentPage").init({pageID:"999",pageName:"Nintendo"});</script>
<div data-store='{"videoID":"42","src":"https://video.example/42.mp4"}'><i data-sigil="playInlineVideo"></i></div>
<div data-store='{"videoID":"43","src":"https://video.example/43.mp4"}'><i data-sigil="playInlineVideo"></i></div>
</body></html>`

func detailPage(text string) string {
	return fmt.Sprintf(`<html><body>
<div data-ft='{"page_insights":{"999":{"post_context":{"publish_time":1600000000}}}}'>
  <div class="story_body_container"><header>Nintendo</header><p>%s</p></div>
</div></body></html>`, text)
}

func TestExtractVideosIDOnly(t *testing.T) {
	getter := &fakeGetter{pages: map[string]string{base + "/nintendo/video_grid/": videoGrid}}
	s := newTestScraper(getter, Options{})

	var videos []extract.VideoRecord
	for v, err := range s.ExtractVideos(context.Background(), "nintendo", false) {
		require.NoError(t, err)
		videos = append(videos, v)
	}

	require.Len(t, videos, 2)
	assert.Equal(t, "42", videos[0].VideoID)
	assert.Equal(t, "999", videos[1].PageID)
	assert.Nil(t, videos[0].VideoDetails)
	assert.Len(t, getter.Requests(), 1)
}

func TestExtractVideosWithDetails(t *testing.T) {
	getter := &fakeGetter{pages: map[string]string{
		base + "/nintendo/video_grid/":           videoGrid,
		facebook.PermalinkURL(base, "42", "999"): detailPage("forty two"),
		facebook.PermalinkURL(base, "43", "999"): detailPage("forty three"),
	}}
	s := newTestScraper(getter, Options{})

	var texts []string
	for v, err := range s.ExtractVideos(context.Background(), "nintendo", true) {
		require.NoError(t, err)
		require.NotNil(t, v.VideoDetails)
		require.NotNil(t, v.PublishTime)
		texts = append(texts, v.Text)
	}

	assert.Equal(t, []string{"forty two", "forty three"}, texts)
	assert.Len(t, getter.Requests(), 3)
}

func detailRefs(n int) ([]extract.VideoRef, map[string]string) {
	refs := make([]extract.VideoRef, n)
	pages := make(map[string]string, n)
	for i := range refs {
		id := fmt.Sprintf("%d", 100+i)
		refs[i] = extract.VideoRef{PageID: "999", VideoID: id}
		pages[facebook.PermalinkURL(base, id, "999")] = detailPage("video " + id)
	}
	return refs, pages
}

func TestExtractVideoDetails(t *testing.T) {
	for _, workers := range []int{1, 3} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			refs, pages := detailRefs(6)
			getter := &fakeGetter{pages: pages}
			s := newTestScraper(getter, Options{DetailWorkers: workers})

			var got []string
			for v, err := range s.ExtractVideoDetails(context.Background(), refs) {
				require.NoError(t, err)
				assert.Equal(t, facebook.PermalinkURL(base, v.VideoID, "999"), v.URL)
				require.NotNil(t, v.VideoDetails)
				assert.Equal(t, "video "+v.VideoID, v.Text)
				got = append(got, v.VideoID)
			}

			assert.Equal(t, []string{"100", "101", "102", "103", "104", "105"}, got)
			assert.Len(t, getter.Requests(), 6)
		})
	}
}

func TestExtractVideoDetailsUnavailable(t *testing.T) {
	s := newTestScraper(&fakeGetter{}, Options{})

	var records []extract.VideoRecord
	for v, err := range s.ExtractVideoDetails(context.Background(), []extract.VideoRef{{PageID: "1", VideoID: "2"}}) {
		require.NoError(t, err)
		records = append(records, v)
	}

	require.Len(t, records, 1)
	require.NotNil(t, records[0].VideoDetails)
	assert.Nil(t, records[0].PublishTime)
	assert.Empty(t, records[0].Text)
}

func TestExtractVideoDetailsPoolRateCeiling(t *testing.T) {
	refs, pages := detailRefs(4)
	s := newTestScraper(&fakeGetter{pages: pages}, Options{DetailWorkers: 4, Delay: 15 * time.Millisecond})

	start := time.Now()
	count := 0
	for _, err := range s.ExtractVideoDetails(context.Background(), refs) {
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 4, count)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
