package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

// StatsCmd implements the 'stats' command.
type StatsCmd struct {
	Format string `short:"f" default:"text" help:"Output format (text or json)" enum:"text,json"`
}

func (s *StatsCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, _ := newService(cfg)

	st, err := svc.Stats(ctx, cfg)
	if err != nil {
		return err
	}
	if s.Format == "json" {
		enc := json.NewEncoder(global.out())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	return printStats(global.out(), st)
}

func printStats(w io.Writer, st catalog.Stats) error {
	_, _ = fmt.Fprintf(w, "Disciplines:     %d (%d mapped)\n", st.Disciplines, st.Mapped)
	_, _ = fmt.Fprintf(w, "Lecturers:       %d\n", st.Lecturers)
	_, _ = fmt.Fprintf(w, "Competencies:    %d\n", st.Competencies)
	_, _ = fmt.Fprintf(w, "Program results: %d\n", st.ProgramResults)
	for _, code := range st.Unmapped {
		_, _ = fmt.Fprintf(w, "  ⚠ %s has no mapping\n", code)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	printUsage(tw, "COMPETENCY", st.CompetencyUsage)
	printUsage(tw, "RESULT", st.ProgramResultUsage)
	return tw.Flush()
}

func printUsage(w io.Writer, header string, usage []catalog.Usage) {
	if len(usage) == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "\n%s\tDISCIPLINES\n", header)
	for _, u := range usage {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", u.ID, u.Count)
	}
}
