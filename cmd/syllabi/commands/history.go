package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/build"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Code  string `arg:"" optional:"" help:"Show the uploads of one discipline (or 'index') instead of runs"`
	Limit int    `short:"n" default:"10" help:"Maximum number of rows"`
}

func (h *HistoryCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, _ := newService(cfg)

	res, err := svc.History(ctx, build.HistoryRequest{Config: cfg, Code: h.Code, Limit: h.Limit})
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(global.out(), 0, 4, 2, ' ', 0)
	if h.Code != "" {
		printEntries(tw, res)
	} else {
		printRuns(tw, res)
	}
	return tw.Flush()
}

func printRuns(w io.Writer, res *build.HistoryResult) {
	_, _ = fmt.Fprintln(w, "RUN\tTARGET\tSTARTED\tPUBLISHED\tSKIPPED\tFAILED")
	for _, r := range res.Runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			shortID(r.ID), r.Target, r.StartedAt.Local().Format(time.DateTime), r.Published, r.Skipped, r.Failed)
	}
}

func printEntries(w io.Writer, res *build.HistoryResult) {
	_, _ = fmt.Fprintln(w, "RUN\tAT\tSTATUS\tURL")
	for _, e := range res.Entries {
		detail := e.URL
		if e.Error != "" {
			detail = e.Error
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(e.RunID), e.At.Local().Format(time.DateTime), e.Status, detail)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
