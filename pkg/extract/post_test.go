package extract

import (
	"context"
	"testing"

	"fbscraper/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resharePage = `<html><body>
<article data-ft='{"mf_story_key":"111","top_level_post_id":"1"}'>
  <header>Nintendo</header>
  <p>Look at this</p>
  <article data-ft='{"mf_story_key":"222"}'>
    <header>Nintendo of Europe</header>
    <p>Original announcement</p>
  </article>
</article>
<article><p>untracked decoy</p></article>
</body></html>`

func TestPostCandidatesExcludeReshares(t *testing.T) {
	s := NewPostStrategy(newFakeGetter(nil), base, logger.NewTestLogger(), nil)
	doc := htmlDoc(t, resharePage)

	records := collect(t, Extract[PostRecord](context.Background(), s, doc, NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 1)
	assert.Equal(t, "111", records[0].PostID)
	require.NotNil(t, records[0].Body)
	assert.Equal(t, "Look at this", records[0].PostText)
	assert.Equal(t, "Original announcement", records[0].SharedText)
}

func TestPostRecordMalformedTrackingAttribute(t *testing.T) {
	tl := logger.NewTestLogger()
	s := NewPostStrategy(newFakeGetter(nil), base, tl, nil)
	doc := htmlDoc(t, `<article data-ft="{broken"><header>a</header><p>text</p></article>`)

	records := collect(t, Extract[PostRecord](context.Background(), s, doc, NewSession(), tl))
	require.Len(t, records, 1)
	assert.Empty(t, records[0].PostID)
	assert.Equal(t, "text", records[0].PostText)
	assert.NotEmpty(t, tl.GetMessagesByLevel("ERROR"))
}

func TestPostRecordNumericStoryKey(t *testing.T) {
	s := NewPostStrategy(newFakeGetter(nil), base, logger.NewTestLogger(), nil)
	doc := htmlDoc(t, `<article data-ft='{"mf_story_key":12345}'><header>a</header></article>`)

	records := collect(t, Extract[PostRecord](context.Background(), s, doc, NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 1)
	assert.Equal(t, "12345", records[0].PostID)
}

func TestPostRecordWithoutTextNodes(t *testing.T) {
	s := NewPostStrategy(newFakeGetter(nil), base, logger.NewTestLogger(), nil)
	doc := htmlDoc(t, `<article data-ft='{"mf_story_key":"7"}'><div>photo only</div></article>`)

	records := collect(t, Extract[PostRecord](context.Background(), s, doc, NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 1)
	assert.Nil(t, records[0].Body)

	data, err := json.Marshal(records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"post_id":"7"}`, string(data))
}

func TestPostRecordJSONNullID(t *testing.T) {
	data, err := json.Marshal(PostRecord{Body: &Body{Text: "a", PostText: "a"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"post_id":null,"text":"a","post_text":"a","shared_text":""}`, string(data))
}

const truncatedEntry = `<article data-ft='{"mf_story_key":"5"}'>
<header>Nintendo</header>
<p>The beginning of a long story… <a href="/story.php?story_fbid=5&amp;id=9" aria-label="More">More</a></p>
</article>`

func TestPostTruncatedEntryIsRefetched(t *testing.T) {
	permalink := base + "/story.php?story_fbid=5&id=9"
	getter := newFakeGetter(map[string]string{
		permalink: `<html><body><div class="story_body_container">
<header>Nintendo</header><p>The beginning of a long story and its end.</p>
</div></body></html>`,
	})
	s := NewPostStrategy(getter, base, logger.NewTestLogger(), nil)

	records := collect(t, Extract[PostRecord](context.Background(), s, htmlDoc(t, truncatedEntry), NewSession(), logger.NewTestLogger()))
	require.Len(t, records, 1)
	assert.Equal(t, "The beginning of a long story and its end.", squash(records[0].PostText))
	assert.Equal(t, []string{permalink}, getter.Requests())
}

func TestPostTruncatedEntryRefetchFails(t *testing.T) {
	getter := newFakeGetter(nil)
	tl := logger.NewTestLogger()
	s := NewPostStrategy(getter, base, tl, nil)

	records := collect(t, Extract[PostRecord](context.Background(), s, htmlDoc(t, truncatedEntry), NewSession(), tl))
	require.Len(t, records, 1)
	assert.Equal(t, "The beginning of a long story", records[0].PostText)
	assert.Len(t, getter.Requests(), 1)
	assert.NotEmpty(t, tl.GetMessagesByLevel("WARN"))
}

func TestExtractNoCandidates(t *testing.T) {
	tl := logger.NewTestLogger()
	s := NewPostStrategy(newFakeGetter(nil), base, tl, nil)

	records := collect(t, Extract[PostRecord](context.Background(), s, htmlDoc(t, `<div>empty page</div>`), NewSession(), tl))
	assert.Empty(t, records)
	assert.True(t, tl.HasMessage("No candidate nodes found on page"))
	assert.True(t, tl.HasMessage("Page content"))
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewPostStrategy(newFakeGetter(nil), base, logger.NewTestLogger(), nil)

	for _, err := range Extract[PostRecord](ctx, s, htmlDoc(t, resharePage), NewSession(), logger.NewTestLogger()) {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
