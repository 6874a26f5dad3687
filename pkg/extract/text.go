package extract

import (
	"strings"

	"fbscraper/pkg/facebook"

	"github.com/PuerkitoBio/goquery"
)

// Body is the reconstructed text of an entry
type Body struct {
	Text       string `json:"text"`
	PostText   string `json:"post_text"`
	SharedText string `json:"shared_text"`
}

// SplitText splits a run of paragraph and header nodes into own and shared
// text. The first node is the author header and is skipped. The first
// header after it is the only boundary; headers contribute no text.
// It returns nil when there are no nodes.
func SplitText(nodes *goquery.Selection) *Body {
	if nodes.Length() == 0 {
		return nil
	}

	var own, shared []string
	ended := false
	for _, node := range selections(nodes)[1:] {
		if node.Get(0).DataAtom == facebook.HeaderAtom {
			ended = true
			continue
		}
		text := paragraphText(node)
		if ended {
			shared = append(shared, text)
		} else {
			own = append(own, text)
		}
	}

	return &Body{
		Text:       strings.Join(append(append([]string{}, own...), shared...), "\n"),
		PostText:   strings.Join(own, "\n"),
		SharedText: strings.Join(shared, "\n"),
	}
}

// paragraphText returns the text of a paragraph with the first "… More"
// expansion affordance removed
func paragraphText(node *goquery.Selection) string {
	markup, err := goquery.OuterHtml(node)
	if err != nil {
		return strings.TrimSpace(node.Text())
	}

	if m := facebook.MoreAffordance.FindStringSubmatchIndex(markup); m != nil {
		markup = markup[:m[0]] + markup[m[2]:m[3]] + markup[m[4]:m[5]] + markup[m[1]:]
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(node.Text())
	}
	return strings.TrimSpace(doc.Text())
}
