package extract

import (
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// DecodeCSSURL turns a CSS url() value into a plain URL. It accepts either
// the bare value or the full url('...') form, undoes CSS backslash escapes
// and then percent-encoding.
func DecodeCSSURL(value string) string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "url(") && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[len("url(") : len(value)-1])
	}
	if len(value) >= 2 && (value[0] == '\'' || value[0] == '"') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}

	value = unescapeCSS(value)
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// unescapeCSS resolves \XX hex escapes (with one optional trailing space)
// and \c character escapes
func unescapeCSS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i == len(runes)-1 {
			b.WriteRune(runes[i])
			continue
		}

		j := i + 1
		for j < len(runes) && j-i <= 6 && isHex(runes[j]) {
			j++
		}
		if j == i+1 {
			b.WriteRune(runes[j])
			i = j
			continue
		}

		code, err := strconv.ParseUint(string(runes[i+1:j]), 16, 32)
		if err != nil || code == 0 || code > unicode.MaxRune {
			b.WriteRune(unicode.ReplacementChar)
		} else {
			b.WriteRune(rune(code))
		}
		if j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		i = j - 1
	}
	return b.String()
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
