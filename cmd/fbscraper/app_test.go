package main

import (
	"bytes"
	"errors"
	"iter"
	"testing"
	"time"

	"fbscraper/pkg/extract"
	"fbscraper/pkg/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqOf[R any](records []R, tail error) iter.Seq2[R, error] {
	return func(yield func(R, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
		if tail != nil {
			var zero R
			yield(zero, tail)
		}
	}
}

func TestWriteRecordsJSONLines(t *testing.T) {
	var out, status bytes.Buffer
	progress := ui.NewWriterTerminal(&status, true).NewProgress("posts", "nintendo")

	records := []extract.PostRecord{
		{PostID: "1", Body: &extract.Body{Text: "a", PostText: "a"}},
		{PostID: ""},
	}
	require.NoError(t, writeRecords(&out, progress, seqOf(records, nil)))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"post_id":"1","text":"a","post_text":"a","shared_text":""}`, string(lines[0]))
	assert.Contains(t, string(lines[1]), `"post_id":null`)
	assert.Equal(t, 2, progress.Records())
}

func TestWriteRecordsStopsOnError(t *testing.T) {
	var out, status bytes.Buffer
	progress := ui.NewWriterTerminal(&status, true).NewProgress("videos", "nintendo")

	boom := errors.New("boom")
	records := []extract.VideoRecord{{PageID: "1", VideoID: "2"}}
	err := writeRecords(&out, progress, seqOf(records, boom))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, progress.Records())
	assert.Contains(t, out.String(), `"video_id":"2"`)
}

func TestGlobalFlagsOnlyChanged(t *testing.T) {
	cmd := postsCmd
	require.NoError(t, cmd.ParseFlags([]string{"--delay", "1.5", "--max-pages", "2"}))
	t.Cleanup(func() {
		delaySeconds, maxPages = 0, 0
		cmd.Flags().Lookup("delay").Changed = false
		cmd.Flags().Lookup("max-pages").Changed = false
	})

	flags := globalFlags(cmd)
	assert.Equal(t, 1500*time.Millisecond, flags["delay"])
	assert.Equal(t, 2, flags["max-pages"])
	assert.NotContains(t, flags, "log-level")
	assert.NotContains(t, flags, "metrics-textfile")
}
