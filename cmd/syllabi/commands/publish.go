package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/build"
	"git.home.luguber.info/inful/syllabi/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Code      string `help:"Upload only the discipline with this code"`
	SkipIndex bool   `name:"skip-index" help:"Do not upload the program index page"`
}

func (p *PublishCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.Publish(ctx, build.PublishRequest{Config: cfg, Code: p.Code, SkipIndex: p.SkipIndex})
	if res != nil {
		printPublish(global.out(), res)
	}
	return err
}

// PublishIndexCmd implements the 'publish-index' command.
type PublishIndexCmd struct{}

func (p *PublishIndexCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.PublishIndex(ctx, cfg)
	if res != nil {
		printPublish(global.out(), res)
	}
	return err
}

func printPublish(w io.Writer, res *build.PublishResult) {
	printReport(w, "Pages", res.Pages)
	printReport(w, "Index", res.Index)
	if res.Reconcile != nil {
		printReconcile(w, res.Reconcile, false)
	}
	_, _ = fmt.Fprintf(w, "Publish %s in %s\n", res.Status(), res.Duration.Round(time.Millisecond))
}

func printReport(w io.Writer, label string, rep *publish.Report) {
	if rep == nil {
		return
	}
	published, skipped, failed := rep.Counts()
	_, _ = fmt.Fprintf(w, "%s: %d published, %d skipped, %d failed (%s)\n", label, published, skipped, failed, rep.Target)
	for _, r := range rep.Results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "  ✗ %s: %v\n", displayCode(r.Code), r.Err)
		}
	}
}

func displayCode(code string) string {
	if code == "" {
		return "index"
	}
	return code
}
