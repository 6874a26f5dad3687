package detailpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fbscraper/pkg/extract"
	"fbscraper/pkg/logger"
	"fbscraper/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFetcher records calls and echoes the video id as text
type mockFetcher struct {
	delay    func(ref extract.VideoRef) time.Duration
	calls    int32
	inFlight int32
	peak     int32
	mu       sync.Mutex
	started  []time.Time
}

func (m *mockFetcher) Fetch(ctx context.Context, ref extract.VideoRef) (*extract.VideoDetails, error) {
	atomic.AddInt32(&m.calls, 1)
	cur := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if cur <= p || atomic.CompareAndSwapInt32(&m.peak, p, cur) {
			break
		}
	}

	m.mu.Lock()
	m.started = append(m.started, time.Now())
	m.mu.Unlock()

	if m.delay != nil {
		if err := ratelimit.Sleep(ctx, m.delay(ref)); err != nil {
			return nil, err
		}
	}
	return &extract.VideoDetails{Text: ref.VideoID}, nil
}

func refs(n int) []extract.VideoRef {
	out := make([]extract.VideoRef, n)
	for i := range out {
		out[i] = extract.VideoRef{PageID: "1", VideoID: fmt.Sprintf("v%d", i)}
	}
	return out
}

func TestRunYieldsInInputOrder(t *testing.T) {
	fetcher := &mockFetcher{
		// later jobs finish first
		delay: func(ref extract.VideoRef) time.Duration {
			var i int
			fmt.Sscanf(ref.VideoID, "v%d", &i)
			return time.Duration(10-i) * 5 * time.Millisecond
		},
	}
	pool := NewWorkerPool(4, fetcher, nil, logger.NewNopLogger())

	var got []string
	for res := range pool.Run(context.Background(), refs(10)) {
		require.NoError(t, res.Err)
		got = append(got, res.Details.Text)
	}

	want := make([]string, 10)
	for i := range want {
		want[i] = fmt.Sprintf("v%d", i)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, int32(10), atomic.LoadInt32(&fetcher.calls))
	assert.LessOrEqual(t, atomic.LoadInt32(&fetcher.peak), int32(4))
	assert.Greater(t, atomic.LoadInt32(&fetcher.peak), int32(1))
}

func TestRunSingleWorkerIsSequential(t *testing.T) {
	fetcher := &mockFetcher{delay: func(extract.VideoRef) time.Duration { return time.Millisecond }}
	pool := NewWorkerPool(1, fetcher, nil, logger.NewNopLogger())

	count := 0
	for res := range pool.Run(context.Background(), refs(5)) {
		assert.Equal(t, count, res.Job.Index)
		count++
	}
	assert.Equal(t, 5, count)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fetcher.peak))
}

func TestRunEmpty(t *testing.T) {
	pool := NewWorkerPool(3, &mockFetcher{}, nil, nil)
	for range pool.Run(context.Background(), nil) {
		t.Fatal("expected no results")
	}
}

func TestRunRespectsRateLimit(t *testing.T) {
	fetcher := &mockFetcher{}
	limiter := ratelimit.NewInterval(20 * time.Millisecond)
	pool := NewWorkerPool(4, fetcher, limiter, logger.NewNopLogger())

	start := time.Now()
	for res := range pool.Run(context.Background(), refs(4)) {
		require.NoError(t, res.Err)
	}

	// three gaps of 20ms between four grants
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestRunStopsOnBreak(t *testing.T) {
	fetcher := &mockFetcher{delay: func(extract.VideoRef) time.Duration { return 5 * time.Millisecond }}
	pool := NewWorkerPool(2, fetcher, nil, logger.NewNopLogger())

	seen := 0
	for range pool.Run(context.Background(), refs(50)) {
		seen++
		if seen == 3 {
			break
		}
	}

	assert.Equal(t, 3, seen)
	assert.Less(t, atomic.LoadInt32(&fetcher.calls), int32(50))
}

func TestRunContextCancelled(t *testing.T) {
	fetcher := &mockFetcher{delay: func(extract.VideoRef) time.Duration { return time.Second }}
	pool := NewWorkerPool(2, fetcher, nil, logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var results []Result
	for res := range pool.Run(ctx, refs(4)) {
		results = append(results, res)
	}

	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].Job.Index)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}
