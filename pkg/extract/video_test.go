package extract

import (
	"context"
	"testing"
	"time"

	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/facebook"
	"fbscraper/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoGridPage = `<html><body>
<script>require("CurrentPage").init({pageID:"999",pageName:"Nintendo"});</script>
<div data-store='{"videoID":"42","src":"https://video.example/42.mp4"}'>
  <i data-sigil="playInlineVideo" style="background-image: url('https://img.example/t%20h.jpg');"></i>
</div>
<div data-store='{"videoID":43,"src":"https://video.example/43.mp4"}'>
  <i data-sigil="playInlineVideo"></i>
</div>
<i data-sigil="touchable"></i>
</body></html>`

const videoDetailPage = `<html><body>
<div data-ft='{"page_insights":{"999":{"post_context":{"publish_time":1600000000}}}}'>
  <div class="story_body_container"><header>Nintendo</header><p>Watch this</p></div>
</div>
</body></html>`

func permalink(videoID string) string {
	return facebook.PermalinkURL(base, videoID, "999")
}

func TestVideoIDOnlyIssuesNoSecondaryFetches(t *testing.T) {
	getter := newFakeGetter(nil)
	s := NewVideoStrategy(base, nil, logger.NewTestLogger(), nil)

	records := collect(t, Extract[VideoRecord](context.Background(), s, htmlDoc(t, videoGridPage), NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 2)
	assert.Empty(t, getter.Requests())

	first := records[0]
	assert.Equal(t, "999", first.PageID)
	assert.Equal(t, "42", first.VideoID)
	assert.Equal(t, "https://video.example/42.mp4", first.Src)
	assert.Equal(t, "https://img.example/t h.jpg", first.Thumbnail)
	assert.Equal(t, "https://m.facebook.com/story.php?story_fbid=42&id=999", first.URL)
	assert.Nil(t, first.VideoDetails)

	assert.Equal(t, "43", records[1].VideoID)
	assert.Empty(t, records[1].Thumbnail)
}

func TestVideoDetailsOneFetchPerVideo(t *testing.T) {
	getter := newFakeGetter(map[string]string{
		permalink("42"): videoDetailPage,
	})
	details := NewDetailFetcher(getter, nil, base, logger.NewTestLogger(), nil)
	s := NewVideoStrategy(base, details, logger.NewTestLogger(), nil)

	records := collect(t, Extract[VideoRecord](context.Background(), s, htmlDoc(t, videoGridPage), NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 2)
	assert.Equal(t, []string{permalink("42"), permalink("43")}, getter.Requests())

	enriched := records[0].VideoDetails
	require.NotNil(t, enriched)
	require.NotNil(t, enriched.PublishTime)
	assert.Equal(t, time.Unix(1600000000, 0).UTC(), *enriched.PublishTime)
	assert.Equal(t, "Watch this", enriched.PostText)
	assert.Equal(t, "Watch this", enriched.Text)

	// the second permalink 404s: the record survives with empty details
	missing := records[1].VideoDetails
	require.NotNil(t, missing)
	assert.Nil(t, missing.PublishTime)
	assert.Empty(t, missing.Text)
}

func TestVideoPageIDReusedAcrossPages(t *testing.T) {
	s := NewVideoStrategy(base, nil, logger.NewTestLogger(), nil)
	session := NewSession()

	collect(t, Extract[VideoRecord](context.Background(), s, htmlDoc(t, videoGridPage), session, logger.NewTestLogger()))
	require.Equal(t, "999", session.PageID)

	later := `<div data-store='{"videoID":"77","src":"s"}'><i data-sigil="playInlineVideo"></i></div>`
	records := collect(t, Extract[VideoRecord](context.Background(), s, htmlDoc(t, later), session, logger.NewTestLogger()))
	require.Len(t, records, 1)
	assert.Equal(t, "999", records[0].PageID)
}

func TestVideoPageIDFromCursorSource(t *testing.T) {
	s := NewVideoStrategy(base, nil, logger.NewTestLogger(), nil)
	doc := htmlDoc(t, `<div data-store='{"videoID":"1","src":"s"}'><i data-sigil="playInlineVideo"></i></div>`)
	doc.CursorSource = `CurrentPage",{pageID:"555",pageName:"x"}`

	session := NewSession()
	s.Candidates(doc, session)
	assert.Equal(t, "555", session.PageID)
}

func TestVideoMissingPageIDIsLogged(t *testing.T) {
	tl := logger.NewTestLogger()
	s := NewVideoStrategy(base, nil, tl, nil)
	session := NewSession()

	s.Candidates(htmlDoc(t, `<i data-sigil="playInlineVideo"></i>`), session)
	assert.Empty(t, session.PageID)
	assert.True(t, tl.HasMessage("Could not find page id"))
}

func TestVideoMalformedMetadata(t *testing.T) {
	tl := logger.NewTestLogger()
	s := NewVideoStrategy(base, nil, tl, nil)
	doc := htmlDoc(t, `<div data-store="{nope"><i data-sigil="playInlineVideo"></i></div>`)

	records := collect(t, Extract[VideoRecord](context.Background(), s, doc, NewSession(), tl))
	require.Len(t, records, 1)
	assert.Empty(t, records[0].VideoID)
	assert.True(t, tl.HasMessage("Error parsing video metadata attribute"))
}

func TestDetailFetcherRendersPlaceholder(t *testing.T) {
	getter := newFakeGetter(map[string]string{
		permalink("42"): `<html><body><div id="placeholder">Loading…</div></body></html>`,
	})
	renderer := &fakeRenderer{markup: videoDetailPage}
	f := NewDetailFetcher(getter, renderer, base, logger.NewTestLogger(), nil)

	details, err := f.Fetch(context.Background(), VideoRef{PageID: "999", VideoID: "42"})
	require.NoError(t, err)
	require.NotNil(t, details.PublishTime)
	assert.Equal(t, "Watch this", details.PostText)
	assert.Equal(t, []string{permalink("42")}, getter.Requests())
	assert.Equal(t, []string{permalink("42")}, renderer.calls)
}

func TestDetailFetcherPlaceholderWithoutRenderer(t *testing.T) {
	getter := newFakeGetter(map[string]string{
		permalink("42"): `<html><body><div id="placeholder"></div></body></html>`,
	})
	f := NewDetailFetcher(getter, nil, base, logger.NewTestLogger(), nil)

	details, err := f.Fetch(context.Background(), VideoRef{PageID: "999", VideoID: "42"})
	require.NoError(t, err)
	assert.Equal(t, &VideoDetails{}, details)
}

func TestDetailFetcherLogsTypedUnavailable(t *testing.T) {
	tests := []struct {
		name  string
		pages map[string]string
		cause bool
	}{
		{"fetch failure", map[string]string{}, true},
		{"container missing", map[string]string{permalink("42"): `<html><body></body></html>`}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tl := logger.NewTestLogger()
			f := NewDetailFetcher(newFakeGetter(tt.pages), nil, base, tl, nil)

			details, err := f.Fetch(context.Background(), VideoRef{PageID: "999", VideoID: "42"})
			require.NoError(t, err)
			assert.Equal(t, &VideoDetails{}, details)

			warnings := tl.GetMessagesByLevel("WARN")
			require.Len(t, warnings, 1)
			assert.Equal(t, "Video details unavailable", warnings[0].Message)
			assert.True(t, errs.IsType(warnings[0].Error, errs.ErrorTypeDetailUnavailable))
			assert.Equal(t, tt.cause, errs.IsType(warnings[0].Error, errs.ErrorTypeNotFound))
		})
	}
}

func TestDetailFetcherRenderStillMissing(t *testing.T) {
	getter := newFakeGetter(map[string]string{
		permalink("42"): `<html><body></body></html>`,
	})
	renderer := &fakeRenderer{markup: `<html><body><p>still nothing</p></body></html>`}
	f := NewDetailFetcher(getter, renderer, base, logger.NewTestLogger(), nil)

	details, err := f.Fetch(context.Background(), VideoRef{PageID: "999", VideoID: "42"})
	require.NoError(t, err)
	assert.Equal(t, &VideoDetails{}, details)
	assert.Len(t, renderer.calls, 1)
}

func TestDetailFetcherUnknownPageInsight(t *testing.T) {
	getter := newFakeGetter(map[string]string{
		facebook.PermalinkURL(base, "42", "123"): videoDetailPage,
	})
	f := NewDetailFetcher(getter, nil, base, logger.NewTestLogger(), nil)

	details, err := f.Fetch(context.Background(), VideoRef{PageID: "123", VideoID: "42"})
	require.NoError(t, err)
	assert.Nil(t, details.PublishTime)
	assert.Equal(t, "Watch this", details.PostText)
}
