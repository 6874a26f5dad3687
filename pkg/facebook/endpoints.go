package facebook

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the mobile site every feed is served from
	BaseURL = "https://m.facebook.com"

	// PostsSuffix is appended to the slug for the content feed
	PostsSuffix = "posts/"

	// VideoGridSuffix is appended to the slug for the video grid
	VideoGridSuffix = "video_grid/"
)

// FeedURL builds the first-page URL for a feed: base + slug + suffix
func FeedURL(base, slug, suffix string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Trim(slug, "/") + "/" + suffix
}

// PermalinkURL builds the single-item URL for a video owned by pageID
func PermalinkURL(base, videoID, pageID string) string {
	return fmt.Sprintf("%s/story.php?story_fbid=%s&id=%s",
		strings.TrimRight(base, "/"), url.QueryEscape(videoID), url.QueryEscape(pageID))
}

// Resolve resolves ref against base; ref is returned unchanged if either fails to parse
func Resolve(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
