package feed

import (
	"bytes"
	"net/url"
	"strings"

	"fbscraper/pkg/connector"
	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/facebook"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// Document is one normalized feed page. Root is never nil.
type Document struct {
	Root *goquery.Document
	// CursorSource is the text searched for the continuation token
	CursorSource string
	BaseURL      string
}

// wrappedPage is the JSON body that follows the anti-hijacking prefix
type wrappedPage struct {
	Payload struct {
		Actions []struct {
			Cmd  string `json:"cmd"`
			HTML string `json:"html"`
			Code string `json:"code"`
		} `json:"actions"`
	} `json:"payload"`
}

// Normalize turns a fetched response into a Document. JSON-wrapped
// responses resolve against base; plain HTML resolves against the
// response URL.
func Normalize(resp *connector.Response, base string) (*Document, error) {
	if bytes.HasPrefix(resp.Body, []byte(facebook.JSONPrefix)) {
		return normalizeWrapped(resp.Body[len(facebook.JSONPrefix):], base)
	}
	return normalizeHTML(resp.Text(), resp.URL)
}

func normalizeHTML(body, pageURL string) (*Document, error) {
	// Deferred content is shipped inside comments; unwrapping exposes it to the parser.
	// TODO: scope this to the deferred-content wrapper once a stricter marker is known.
	revealed := strings.ReplaceAll(body, facebook.CommentOpen, "")
	revealed = strings.ReplaceAll(revealed, facebook.CommentClose, "")

	root, err := parseHTML(revealed, pageURL)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root, CursorSource: body, BaseURL: pageURL}, nil
}

func normalizeWrapped(data []byte, base string) (*Document, error) {
	var page wrappedPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, "decode wrapped page")
	}

	var html, script []string
	for _, action := range page.Payload.Actions {
		switch action.Cmd {
		case facebook.ActionReplace:
			html = append(html, action.HTML)
		case facebook.ActionScript:
			script = append(script, action.Code)
		}
	}
	if len(html) != 1 {
		return nil, errs.Newf(errs.ErrorTypeParsing, "wrapped page has %d replace actions, want 1", len(html))
	}
	if len(script) != 1 {
		return nil, errs.Newf(errs.ErrorTypeParsing, "wrapped page has %d script actions, want 1", len(script))
	}

	root, err := parseHTML(html[0], base)
	if err != nil {
		return nil, err
	}
	return &Document{Root: root, CursorSource: script[0], BaseURL: base}, nil
}

func parseHTML(markup, pageURL string) (*goquery.Document, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeParsing, "parse page markup")
	}
	if u, err := url.Parse(pageURL); err == nil {
		root.Url = u
	}
	return root, nil
}

// Text returns the visible text of the page with whitespace collapsed
func (d *Document) Text() string {
	return strings.Join(strings.Fields(d.Root.Text()), " ")
}

// Resolve resolves ref against the document's base URL
func (d *Document) Resolve(ref string) string {
	return facebook.Resolve(d.BaseURL, ref)
}
