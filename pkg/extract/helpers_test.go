package extract

import (
	"context"
	"iter"
	"strings"
	"sync"
	"testing"

	"fbscraper/pkg/connector"
	errs "fbscraper/pkg/errors"
	"fbscraper/pkg/feed"

	"github.com/stretchr/testify/require"
)

const base = "https://m.facebook.com"

// fakeGetter serves canned bodies keyed by URL and records every request
type fakeGetter struct {
	mu       sync.Mutex
	pages    map[string]string
	requests []string
}

func newFakeGetter(pages map[string]string) *fakeGetter {
	if pages == nil {
		pages = map[string]string{}
	}
	return &fakeGetter{pages: pages}
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

type fakeRenderer struct {
	markup string
	calls  []string
}

func (r *fakeRenderer) Render(ctx context.Context, url string) (string, error) {
	r.calls = append(r.calls, url)
	return r.markup, nil
}

func htmlDoc(t *testing.T, markup string) *feed.Document {
	t.Helper()
	doc, err := feed.Normalize(&connector.Response{Status: 200, Body: []byte(markup), URL: base + "/nintendo/"}, base)
	require.NoError(t, err)
	return doc
}

func collect[R any](t *testing.T, seq iter.Seq2[R, error]) []R {
	t.Helper()
	var out []R
	for r, err := range seq {
		require.NoError(t, err)
		out = append(out, r)
	}
	return out
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
