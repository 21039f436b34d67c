// Package notify announces published pages and finished publish runs.
package notify

import (
	"context"
	"time"
)

// PageEvent is emitted for every page uploaded during a run.
type PageEvent struct {
	RunID     string    `json:"run_id"`
	Code      string    `json:"code"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	PageID    int       `json:"page_id,omitempty"`
	Target    string    `json:"target"`
	Timestamp time.Time `json:"timestamp"`
}

// RunEvent is emitted once a publish run completes.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Target    string    `json:"target"`
	Published int       `json:"published"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier delivers publish events.
type Notifier interface {
	PagePublished(ctx context.Context, ev PageEvent) error
	RunFinished(ctx context.Context, ev RunEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) PagePublished(context.Context, PageEvent) error { return nil }
func (Nop) RunFinished(context.Context, RunEvent) error    { return nil }
func (Nop) Close() error                                   { return nil }
