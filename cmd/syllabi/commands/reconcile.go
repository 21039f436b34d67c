package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/build"
	"git.home.luguber.info/inful/syllabi/internal/reconcile"
)

// ReconcileCmd implements the 'reconcile' command.
type ReconcileCmd struct {
	Strict bool `help:"Fail when a published code has no anchor in the index"`
	DryRun bool `name:"dry-run" help:"Report changes without writing the index"`
}

func (r *ReconcileCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.Reconcile(ctx, build.ReconcileRequest{Config: cfg, Strict: r.Strict, DryRun: r.DryRun})
	if res != nil {
		printReconcile(global.out(), res, r.DryRun)
	}
	return err
}

func printReconcile(w io.Writer, res *reconcile.Result, dryRun bool) {
	verb := "updated"
	if dryRun {
		verb = "would update"
	}
	_, _ = fmt.Fprintf(w, "Index %s: %d anchors, %s %d\n", res.Status, len(res.Anchors), verb, len(res.Updated))
	if len(res.Unmatched) > 0 {
		_, _ = fmt.Fprintf(w, "  no anchor for: %s\n", strings.Join(res.Unmatched, ", "))
	}
	if len(res.Pending) > 0 {
		_, _ = fmt.Fprintf(w, "  not published yet: %s\n", strings.Join(res.Pending, ", "))
	}
}
