package facebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCursors(t *testing.T) {
	plain := `{href:"/page_content_list_view/more/?page_id=1&cursor=A"}`
	m := PostCursors.Plain.FindStringSubmatch(plain)
	require.Len(t, m, 2)
	assert.Equal(t, "/page_content_list_view/more/?page_id=1&cursor=A", m[1])

	escaped := `"href":"\/page_content\/?cursor=ABC"`
	assert.Nil(t, PostCursors.Plain.FindStringSubmatch(escaped))
	m = PostCursors.Escaped.FindStringSubmatch(escaped)
	require.Len(t, m, 2)
	assert.Equal(t, `\/page_content\/?cursor=ABC`, m[1])
}

func TestVideoCursors(t *testing.T) {
	plain := `href:"/nintendo/videos/more/?cursor=XYZ"`
	m := VideoCursors.Plain.FindStringSubmatch(plain)
	require.Len(t, m, 2)
	assert.Equal(t, "/nintendo/videos/more/?cursor=XYZ", m[1])

	escaped := `"href":"\/nintendo\/videos\/more\/?cursor=XYZ"`
	m = VideoCursors.Escaped.FindStringSubmatch(escaped)
	require.Len(t, m, 2)
	assert.Equal(t, `\/nintendo\/videos\/more\/?cursor=XYZ`, m[1])
}

func TestTruncationMarker(t *testing.T) {
	html := `<p>Long story… <a href="/story.php?story_fbid=1&amp;id=2">More</a></p>`
	ok, err := TruncationMarker.MatchString(html)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TruncationMarker.MatchString(`<p>Short <a href="/x">link</a></p>`)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMoreAffordance(t *testing.T) {
	tests := []struct {
		name  string
		html  string
		match bool
	}{
		{"affordance", `long story… <a href="/story.php?id=1">More</a>`, true},
		{"no space", `long story…<a>More</a>`, true},
		{"ellipsis before other tag", `Wait… <b>really</b>`, false},
		{"ellipsis before other link", `Wait… <a href="/x">here</a>`, false},
		{"label without ellipsis", `Tell me <a>More</a>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, MoreAffordance.MatchString(tt.html))
		})
	}
}

func TestStoryLink(t *testing.T) {
	html := `<a href="/story.php?story_fbid=1&amp;id=2" aria-label="Open">`
	m := StoryLink.FindStringSubmatch(html)
	require.Len(t, m, 2)
	assert.Equal(t, "/story.php?story_fbid=1&amp;id=2", m[1])
}

func TestPageIDAndThumbnail(t *testing.T) {
	script := `require("CurrentPage").init({pageID:"1234567",pageName:"Nintendo"})`
	m := PageID.FindStringSubmatch(script)
	require.Len(t, m, 2)
	assert.Equal(t, "1234567", m[1])

	style := `background: #000; background-image: url('https://scontent.example/v.jpg?a=1'); width: 100px`
	m = Thumbnail.FindStringSubmatch(style)
	require.Len(t, m, 2)
	assert.Equal(t, "https://scontent.example/v.jpg?a=1", m[1])
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "https://m.facebook.com/nintendo/posts/", FeedURL(BaseURL+"/", "/nintendo/", PostsSuffix))
	assert.Equal(t, "https://m.facebook.com/story.php?story_fbid=42&id=99", PermalinkURL(BaseURL, "42", "99"))
	assert.Equal(t, "https://m.facebook.com/page_content/?cursor=ABC", Resolve(BaseURL+"/nintendo/posts/", "/page_content/?cursor=ABC"))
}
