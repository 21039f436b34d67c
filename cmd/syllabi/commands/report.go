package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/build"
)

// ReportCmd implements the 'report' command.
type ReportCmd struct {
	Format string `short:"f" default:"html" help:"Report format (html or csv)" enum:"html,csv"`
	Table  string `short:"t" default:"competencies" help:"Table exported as CSV (competencies, program_results or summary)" enum:"competencies,program_results,summary"`
	Output string `short:"o" help:"Output file (html defaults to output.report, csv to stdout)" type:"path"`
}

func (r *ReportCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.Report(ctx, build.ReportRequest{
		Config: cfg,
		Format: build.ReportFormat(r.Format),
		Table:  build.ReportTable(r.Table),
		Output: r.Output,
		Writer: global.out(),
	})
	if err != nil {
		return err
	}
	if res.Path != "" {
		_, _ = fmt.Fprintf(global.out(), "Report written to %s: %d of %d disciplines mapped\n",
			res.Path, res.Stats.Mapped, res.Stats.Disciplines)
	}
	return nil
}

// ImportMappingsCmd implements the 'import-mappings' command.
type ImportMappingsCmd struct {
	Sheet   string `arg:"" help:"CSV sheet with code, title, competency and program-result columns" type:"existingfile"`
	Output  string `short:"o" help:"Curriculum file to write (defaults to the configured curriculum)" type:"path"`
	Replace bool   `help:"Drop mappings of disciplines missing from the sheet"`
	DryRun  bool   `name:"dry-run" help:"Check the sheet without writing the curriculum"`
}

func (i *ImportMappingsCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, _ := newService(cfg)

	res, err := svc.ImportMappings(ctx, build.ImportRequest{
		Config:  cfg,
		Sheet:   i.Sheet,
		Output:  i.Output,
		Replace: i.Replace,
		DryRun:  i.DryRun,
	})
	if err != nil {
		return err
	}
	printImport(global.out(), res)
	return nil
}

func printImport(w io.Writer, res *build.ImportResult) {
	verb := "Imported"
	if !res.Written {
		verb = "Would import"
	}
	_, _ = fmt.Fprintf(w, "%s %d mappings into %s\n", verb, len(res.Imported), res.Path)
	if len(res.Unknown) > 0 {
		_, _ = fmt.Fprintf(w, "  unknown disciplines: %s\n", strings.Join(res.Unknown, ", "))
	}
	for _, warning := range res.Warnings {
		_, _ = fmt.Fprintf(w, "  ⚠ %s\n", warning)
	}
}
