package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/ledger"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/metrics"
	"git.home.luguber.info/inful/syllabi/internal/notify"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

// IndexKey is the ledger code of the program index page.
const IndexKey = "@index"

// PageResult is the outcome of one page.
type PageResult struct {
	Code        string
	Title       string
	URL         string
	PageID      int
	Status      ledger.Status
	Fingerprint string
	Created     bool
	Err         error
	Duration    time.Duration
}

// Report summarizes a publish run. Results follow the order of the input pages.
type Report struct {
	RunID    string
	Target   string
	Results  []PageResult
	Duration time.Duration
}

// Counts tallies the results by status.
func (r *Report) Counts() (published, skipped, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case ledger.StatusPublished:
			published++
		case ledger.StatusSkipped:
			skipped++
		case ledger.StatusFailed:
			failed++
		}
	}
	return published, skipped, failed
}

// Links maps every discipline code that has a URL to that URL.
func (r *Report) Links() map[string]string {
	out := make(map[string]string, len(r.Results))
	for _, res := range r.Results {
		if res.Code == "" || res.URL == "" || res.Status == ledger.StatusFailed {
			continue
		}
		out[res.Code] = res.URL
	}
	return out
}

// Outcome is "success", "partial" (some pages failed) or "failed" (all failed).
func (r *Report) Outcome() string {
	published, skipped, failed := r.Counts()
	switch {
	case failed == 0:
		return "success"
	case published+skipped == 0:
		return "failed"
	default:
		return "partial"
	}
}

// Err summarizes page failures, nil when every page succeeded.
func (r *Report) Err() error {
	var first *PageResult
	failed := 0
	for i := range r.Results {
		if r.Results[i].Status == ledger.StatusFailed {
			if first == nil {
				first = &r.Results[i]
			}
			failed++
		}
	}
	if first == nil {
		return nil
	}
	return errors.WrapError(first.Err, errors.CategoryPublish,
		fmt.Sprintf("%d of %d pages failed to publish", failed, len(r.Results))).
		WithContext("run_id", r.RunID).
		WithContext("code", first.Code).
		Build()
}

// Runner publishes pages concurrently with retries, skipping unchanged pages and
// recording every outcome.
type Runner struct {
	Publisher     Publisher
	Ledger        ledger.Store    // optional
	Notifier      notify.Notifier // optional
	Recorder      metrics.Recorder
	Policy        retry.Policy
	Concurrency   int
	SkipUnchanged bool

	newRunID func() string
	now      func() time.Time
}

// NewRunner returns a runner with default policy, no-op notifier and recorder.
func NewRunner(p Publisher) *Runner {
	return &Runner{
		Publisher:   p,
		Notifier:    notify.Nop{},
		Recorder:    metrics.NoopRecorder{},
		Policy:      retry.DefaultPolicy(),
		Concurrency: 4,
	}
}

// withDefaults returns a copy of r with unset collaborators filled in. r itself is
// never written, so overlapping runs may share it.
func (r *Runner) withDefaults() *Runner {
	c := *r
	r = &c
	if r.Notifier == nil {
		r.Notifier = notify.Nop{}
	}
	if r.Recorder == nil {
		r.Recorder = metrics.NoopRecorder{}
	}
	if r.Concurrency < 1 {
		r.Concurrency = 1
	}
	if r.newRunID == nil {
		r.newRunID = uuid.NewString
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

func ledgerKey(p Page) string {
	if p.IsIndex() {
		return IndexKey
	}
	return p.Code
}

// Run publishes pages. Page failures are reported in the Report; the returned
// error is reserved for failures of the run itself (ledger, cancellation).
func (r *Runner) Run(ctx context.Context, pages []Page) (*Report, error) {
	return r.withDefaults().run(ctx, pages)
}

func (r *Runner) run(ctx context.Context, pages []Page) (*Report, error) {
	start := r.now()
	target := r.Publisher.Name()
	report := &Report{RunID: r.newRunID(), Target: target, Results: make([]PageResult, len(pages))}
	log := slog.With(logfields.RunID(report.RunID), logfields.Target(target))

	latest := map[string]ledger.Entry{}
	if r.Ledger != nil {
		if err := r.Ledger.StartRun(ctx, report.RunID, target); err != nil {
			return nil, err
		}
		if r.SkipUnchanged {
			var err error
			if latest, err = r.Ledger.Latest(ctx); err != nil {
				return nil, err
			}
		}
	}

	log.Info("Publishing pages", logfields.Count(len(pages)), slog.Int("concurrency", r.Concurrency))

	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for i, p := range pages {
		g.Go(func() error {
			report.Results[i] = r.publishOne(ctx, log, report.RunID, p, latest)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = r.now().Sub(start)
	published, skipped, failed := report.Counts()

	if r.Ledger != nil {
		// Runs are finished even after cancellation.
		if _, err := r.Ledger.FinishRun(context.WithoutCancel(ctx), report.RunID); err != nil {
			log.Warn("Failed to finish ledger run", logfields.Error(err))
		}
	}
	r.Recorder.ObserveRunDuration(target, report.Duration)
	r.Recorder.IncRunOutcome(report.Outcome())
	if err := r.Notifier.RunFinished(ctx, notify.RunEvent{
		RunID: report.RunID, Target: target, Published: published, Skipped: skipped, Failed: failed,
	}); err != nil {
		log.Warn("Failed to send run notification", logfields.Error(err))
	}

	log.Info("Publish finished",
		slog.Int("published", published), slog.Int("skipped", skipped), slog.Int("failed", failed),
		logfields.DurationMS(float64(report.Duration.Milliseconds())))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) publishOne(ctx context.Context, log *slog.Logger, runID string, p Page, latest map[string]ledger.Entry) PageResult {
	key := ledgerKey(p)
	res := PageResult{Code: p.Code, Title: p.Title, Fingerprint: Fingerprint(p)}
	log = log.With(logfields.Code(key))
	started := r.now()

	if prev, ok := latest[key]; ok && r.SkipUnchanged && prev.Fingerprint == res.Fingerprint && prev.URL != "" {
		res.Status, res.URL, res.PageID = ledger.StatusSkipped, prev.URL, prev.PageID
		log.Debug("Page unchanged, skipping upload", logfields.URL(prev.URL))
	} else {
		var out Published
		err := r.Policy.Do(ctx, func(ctx context.Context) error {
			var err error
			out, err = r.Publisher.Publish(ctx, p)
			return err
		}, func(attempt int, delay time.Duration, err error) {
			r.Recorder.IncUploadRetry(r.Publisher.Name())
			log.Warn("Retrying upload", slog.Int("attempt", attempt), slog.Duration("delay", delay), logfields.Error(err))
		})
		if err != nil {
			res.Status, res.Err = ledger.StatusFailed, err
			log.Error("Upload failed", logfields.Error(err))
		} else {
			res.Status, res.URL, res.PageID, res.Created = ledger.StatusPublished, out.URL, out.PageID, out.Created
			log.Info("Page published", logfields.URL(out.URL), logfields.PageID(out.PageID))
		}
	}
	res.Duration = r.now().Sub(started)

	r.Recorder.ObservePageUpload(r.Publisher.Name(), res.Duration, resultLabel(res.Status))
	r.record(ctx, log, runID, key, res)
	if res.Status == ledger.StatusPublished {
		if err := r.Notifier.PagePublished(ctx, notify.PageEvent{
			RunID: runID, Code: p.Code, Title: p.Title, URL: res.URL, PageID: res.PageID, Target: r.Publisher.Name(),
		}); err != nil {
			log.Warn("Failed to send page notification", logfields.Error(err))
		}
	}
	return res
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, runID, key string, res PageResult) {
	if r.Ledger == nil {
		return
	}
	e := ledger.Entry{
		RunID:       runID,
		Code:        key,
		URL:         res.URL,
		PageID:      res.PageID,
		Fingerprint: res.Fingerprint,
		Status:      res.Status,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	if err := r.Ledger.Record(context.WithoutCancel(ctx), e); err != nil {
		log.Warn("Failed to record ledger entry", logfields.Error(err))
	}
}

func resultLabel(s ledger.Status) metrics.ResultLabel {
	switch s {
	case ledger.StatusPublished:
		return metrics.ResultPublished
	case ledger.StatusSkipped:
		return metrics.ResultSkipped
	default:
		return metrics.ResultFailed
	}
}
