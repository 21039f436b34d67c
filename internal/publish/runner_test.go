package publish

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/ledger"
	"git.home.luguber.info/inful/syllabi/internal/notify"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

type fakePublisher struct {
	mu       sync.Mutex
	uploads  map[string]int
	flaky    map[string]int // code -> transient failures left
	broken   map[string]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{uploads: map[string]int{}, flaky: map[string]int{}, broken: map[string]bool{}}
}

func (f *fakePublisher) Name() string { return "fake" }
func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) Publish(_ context.Context, p Page) (Published, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	key := ledgerKey(p)
	if f.broken[key] {
		return Published{}, errors.PublishError("rejected").Build()
	}
	if f.flaky[key] > 0 {
		f.flaky[key]--
		return Published{}, errors.NetworkError("timeout").Build()
	}
	f.uploads[key]++
	return Published{URL: "https://phys.example/" + Slugify(key) + "/", PageID: len(f.uploads)}, nil
}

type captureNotifier struct {
	mu    sync.Mutex
	pages []notify.PageEvent
	runs  []notify.RunEvent
}

func (c *captureNotifier) PagePublished(_ context.Context, ev notify.PageEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, ev)
	return nil
}

func (c *captureNotifier) RunFinished(_ context.Context, ev notify.RunEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, ev)
	return nil
}

func (c *captureNotifier) Close() error { return nil }

func testPages(n int) []Page {
	pages := make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		code := fmt.Sprintf("ПО %02d", i)
		pages = append(pages, Page{Code: code, Title: code + ": t", Slug: Slugify(code), FileName: code + ".html", Content: "v1"})
	}
	return pages
}

func newTestRunner(t *testing.T, pub Publisher) (*Runner, *ledger.SQLiteStore, *captureNotifier) {
	t.Helper()
	store, err := ledger.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	n := &captureNotifier{}
	r := NewRunner(pub)
	r.Ledger = store
	r.Notifier = n
	r.Policy = retry.NewPolicy(retry.ModeFixed, time.Millisecond, time.Millisecond, 2)
	r.Concurrency = 3
	r.SkipUnchanged = true
	ids := 0
	r.newRunID = func() string {
		ids++
		return fmt.Sprintf("run-%d", ids)
	}
	return r, store, n
}

func TestRunner_PublishesInInputOrder(t *testing.T) {
	pub := newFakePublisher()
	r, _, n := newTestRunner(t, pub)
	pages := testPages(8)

	report, err := r.Run(t.Context(), pages)
	require.NoError(t, err)
	require.Len(t, report.Results, 8)
	for i, res := range report.Results {
		assert.Equal(t, pages[i].Code, res.Code)
		assert.Equal(t, ledger.StatusPublished, res.Status)
	}
	assert.LessOrEqual(t, pub.peak.Load(), int32(3), "concurrency is bounded")
	assert.Equal(t, "success", report.Outcome())
	assert.NoError(t, report.Err())
	assert.Len(t, report.Links(), 8)
	assert.Len(t, n.pages, 8)
	require.Len(t, n.runs, 1)
	assert.Equal(t, 8, n.runs[0].Published)
}

func TestRunner_SkipsUnchangedPages(t *testing.T) {
	pub := newFakePublisher()
	r, store, _ := newTestRunner(t, pub)
	pages := testPages(3)

	_, err := r.Run(t.Context(), pages)
	require.NoError(t, err)

	pages[1].Content = "v2"
	report, err := r.Run(t.Context(), pages)
	require.NoError(t, err)

	published, skipped, failed := report.Counts()
	assert.Equal(t, 1, published)
	assert.Equal(t, 2, skipped)
	assert.Zero(t, failed)
	assert.Equal(t, 2, pub.uploads["ПО 02"])
	assert.Equal(t, 1, pub.uploads["ПО 01"])
	assert.Equal(t, "https://phys.example/po-01/", report.Results[0].URL, "skipped pages keep their URL")
	assert.Len(t, report.Links(), 3)

	runs, err := store.Runs(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 2, runs[0].Skipped)
}

func TestRunner_RetriesAndReportsFailures(t *testing.T) {
	pub := newFakePublisher()
	pub.flaky["ПО 01"] = 2
	pub.broken["ПО 02"] = true
	r, store, n := newTestRunner(t, pub)

	report, err := r.Run(t.Context(), testPages(3))
	require.NoError(t, err)

	assert.Equal(t, ledger.StatusPublished, report.Results[0].Status)
	assert.Equal(t, ledger.StatusFailed, report.Results[1].Status)
	assert.Equal(t, "partial", report.Outcome())
	assert.NotContains(t, report.Links(), "ПО 02")

	err = report.Err()
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryPublish))
	assert.Contains(t, err.Error(), "1 of 3 pages failed")

	history, err := store.History(t.Context(), "ПО 02")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ledger.StatusFailed, history[0].Status)
	assert.Contains(t, history[0].Error, "rejected")
	assert.Equal(t, 1, n.runs[0].Failed)
}

func TestRunner_IndexPageUsesIndexKey(t *testing.T) {
	pub := newFakePublisher()
	r, store, _ := newTestRunner(t, pub)

	report, err := r.Run(t.Context(), []Page{{Title: "Освітні компоненти", FileName: "index.html", Content: "<table/>"}})
	require.NoError(t, err)
	assert.Empty(t, report.Links())

	latest, err := store.Latest(t.Context())
	require.NoError(t, err)
	assert.Contains(t, latest, IndexKey)
}

func TestRunner_WithoutLedger(t *testing.T) {
	defer goleak.VerifyNone(t)
	pub := newFakePublisher()
	r := NewRunner(pub)
	r.SkipUnchanged = true

	for range 2 {
		_, err := r.Run(t.Context(), testPages(2))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, pub.uploads["ПО 01"], "nothing is skipped without a ledger")
}

func TestRunner_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := NewRunner(newFakePublisher())
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	report, err := r.Run(ctx, testPages(2))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
}

func TestRunner_OverlappingRunsLeaveRunnerUntouched(t *testing.T) {
	defer goleak.VerifyNone(t)
	pub := newFakePublisher()
	r := &Runner{Publisher: pub, Policy: retry.DefaultPolicy()}

	var wg sync.WaitGroup
	reports := make([]*Report, 2)
	for i := range reports {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := r.Run(t.Context(), testPages(3))
			assert.NoError(t, err)
			reports[i] = report
		}()
	}
	wg.Wait()

	for _, report := range reports {
		require.NotNil(t, report)
		assert.Equal(t, "success", report.Outcome())
	}
	assert.NotEqual(t, reports[0].RunID, reports[1].RunID)
	assert.Nil(t, r.Notifier)
	assert.Nil(t, r.Recorder)
	assert.Zero(t, r.Concurrency)
	assert.Nil(t, r.newRunID)
	assert.Equal(t, 2, pub.uploads["ПО 01"])
}
