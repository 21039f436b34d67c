package metrics

import "time"

// ResultLabel enumerates page outcomes for counters.
type ResultLabel string

const (
	ResultPublished ResultLabel = "published"
	ResultSkipped   ResultLabel = "skipped"
	ResultFailed    ResultLabel = "failed"
)

// Recorder defines observability hooks for generation and publishing.
type Recorder interface {
	IncPagesGenerated(kind string, n int)
	ObservePageUpload(target string, d time.Duration, result ResultLabel)
	IncUploadRetry(target string)
	ObserveRunDuration(target string, d time.Duration)
	IncRunOutcome(outcome string) // outcome: success|partial|failed
	SetUnmatchedLinks(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPagesGenerated(string, int)                          {}
func (NoopRecorder) ObservePageUpload(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncUploadRetry(string)                                  {}
func (NoopRecorder) ObserveRunDuration(string, time.Duration)               {}
func (NoopRecorder) IncRunOutcome(string)                                   {}
func (NoopRecorder) SetUnmatchedLinks(int)                                  {}
