package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorder(t *testing.T) {
	r := OrNoop(nil)
	assert.IsType(t, NoopRecorder{}, r)
	r.ObserveFetch(200, time.Second)
	r.IncDetail(DetailUnavailable)
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveFetch(200, 150*time.Millisecond)
	pr.IncPages("posts")
	pr.IncPages("posts")
	pr.IncRecords("video")
	pr.IncDetail(DetailRendered)
	pr.IncDecodeErrors("data-ft")

	assert.Equal(t, 2.0, testutil.ToFloat64(pr.pages.WithLabelValues("posts")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pr.details.WithLabelValues("rendered")))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.Len(t, mfs, 5)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncRecords("post")

	path := filepath.Join(t.TempDir(), "fbscraper.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `fbscraper_records_total{kind="post"} 1`)
}
