package facebook

import (
	"regexp"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html/atom"
)

// Every literal tied to the mobile markup lives here so upstream drift
// touches one file.

// JSONPrefix marks a JSON-wrapped incremental response
const JSONPrefix = "for (;;);"

// Deferred-content comment markers stripped from plain HTML responses
const (
	CommentOpen  = "<!--"
	CommentClose = "-->"
)

// Action commands inside a JSON-wrapped payload
const (
	ActionReplace = "replace"
	ActionScript  = "script"
)

// CursorPatterns is the ordered pair of continuation-token patterns for one
// feed type. Plain matches the first-page encoding; Escaped matches the
// incremental encoding and its capture needs un-escaping.
type CursorPatterns struct {
	Plain   *regexp.Regexp
	Escaped *regexp.Regexp
}

// PostCursors finds the next content-feed page
var PostCursors = CursorPatterns{
	Plain:   regexp.MustCompile(`href:"(/page_content[^"]+)"`),
	Escaped: regexp.MustCompile(`href":"(\\/page_content[^"]+)"`),
}

// VideoCursors finds the next video-grid page
var VideoCursors = CursorPatterns{
	Plain:   regexp.MustCompile(`href:"(/[^"]+/videos/more/\?cursor=[^"]+)"`),
	Escaped: regexp.MustCompile(`href":"(\\/[^"]+\\/videos\\/more\\/\?cursor=[^"]+)"`),
}

// Post markup
const (
	PostSelector       = "article"
	TrackingAttr       = "data-ft"
	TrackingStoryKey   = "mf_story_key"
	StoryBodySelector  = ".story_body_container"
	TextNodesSelector  = "p, header"
	EscapedAmpersand   = "&amp;"
	UnescapedAmpersand = "&"
)

// HeaderAtom is the element that separates own text from shared text
const HeaderAtom = atom.Header

// TruncationMarker matches an ellipsis followed by whitespace and the
// expansion anchor. The lookbehind needs regexp2.
var TruncationMarker = regexp2.MustCompile(`(?<=…\s)<a href="([^"]+)`, regexp2.None)

// StoryLink captures the full-entry permalink inside a truncated entry
var StoryLink = regexp.MustCompile(`href="(/story[^"]+)" aria`)

// MoreAffordance matches the "… More" expansion link of a truncated
// paragraph. Group 1 and 2 are the anchor tags kept after stripping.
var MoreAffordance = regexp.MustCompile(`…\s*(<a\b[^>]*>)\s*More\s*(</a>)`)

// Video markup
const (
	VideoIconSelector = "i"
	VideoSigilAttr    = "data-sigil"
	VideoSigilValue   = "playInlineVideo"
	VideoStoreAttr    = "data-store"
	VideoStoreID      = "videoID"
	VideoStoreSrc     = "src"
	StyleAttr         = "style"
	DetailSelector    = "div.story_body_container"
)

// PageID captures the numeric id of the feed owner from the page text
var PageID = regexp.MustCompile(`CurrentPage.+pageID:"([^"]+)",pageName`)

// Thumbnail captures the background-image url from an inline style
var Thumbnail = regexp.MustCompile(`background-image: url\('(https[^']+)'\)`)
