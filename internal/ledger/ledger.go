// Package ledger records publish runs and the pages they uploaded.
//
// The ledger lets a publish skip pages whose rendered content is unchanged since
// their last successful upload, and keeps a history for the history command.
package ledger

import (
	"context"
	"time"
)

// Status is the outcome of one page upload.
type Status string

const (
	StatusPublished Status = "published"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Entry is one page outcome within a run.
type Entry struct {
	RunID       string
	Code        string
	URL         string
	PageID      int
	Fingerprint string
	Status      Status
	Error       string
	At          time.Time
}

// Run summarizes one publish invocation.
type Run struct {
	ID         string
	Target     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
	Published  int
	Skipped    int
	Failed     int
}

// Store persists runs and entries.
type Store interface {
	// StartRun registers a new run.
	StartRun(ctx context.Context, runID, target string) error
	// Record appends a page outcome to its run.
	Record(ctx context.Context, e Entry) error
	// FinishRun stamps the run's end time and tallies its entries.
	FinishRun(ctx context.Context, runID string) (Run, error)
	// Latest returns the most recent successful entry of every code.
	Latest(ctx context.Context) (map[string]Entry, error)
	// History returns the entries of one code, newest first.
	History(ctx context.Context, code string) ([]Entry, error)
	// Runs returns up to limit runs, newest first.
	Runs(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
