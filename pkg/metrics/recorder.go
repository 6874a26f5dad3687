package metrics

import "time"

// DetailOutcome enumerates how a secondary detail fetch ended.
type DetailOutcome string

const (
	DetailFetched     DetailOutcome = "fetched"
	DetailRendered    DetailOutcome = "rendered"
	DetailUnavailable DetailOutcome = "unavailable"
)

// Recorder defines observability hooks for a scrape run.
type Recorder interface {
	// ObserveFetch records one connector round trip
	ObserveFetch(status int, d time.Duration)
	// IncPages counts a normalized feed page
	IncPages(feed string)
	// IncRecords counts an emitted record
	IncRecords(kind string)
	// IncDetail counts a detail fetch by outcome
	IncDetail(outcome DetailOutcome)
	// IncDecodeErrors counts a recovered attribute decode failure
	IncDecodeErrors(attribute string)
}

// NoopRecorder is the default recorder and does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetch(int, time.Duration) {}
func (NoopRecorder) IncPages(string)                 {}
func (NoopRecorder) IncRecords(string)               {}
func (NoopRecorder) IncDetail(DetailOutcome)         {}
func (NoopRecorder) IncDecodeErrors(string)          {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
