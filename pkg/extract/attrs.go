package extract

import (
	"strings"

	errs "fbscraper/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/goccy/go-json"
)

// decodeAttr unmarshals the JSON held in attribute name of sel into v
func decodeAttr(sel *goquery.Selection, name string, v interface{}) error {
	raw, ok := sel.Attr(name)
	if !ok {
		return errs.Newf(errs.ErrorTypeAttributeDecode, "%s attribute not found", name)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errs.Wrap(err, errs.ErrorTypeAttributeDecode, "parse "+name+" JSON")
	}
	return nil
}

// rawString renders a JSON scalar as a string: strings are unquoted and
// numbers keep their literal form
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
