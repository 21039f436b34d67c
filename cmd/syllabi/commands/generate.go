package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/build"
)

// GenerateCmd implements the 'generate' command.
type GenerateCmd struct {
	Clean bool   `help:"Remove previously generated pages first"`
	Code  string `help:"Render only the discipline with this code"`
}

func (g *GenerateCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.Generate(ctx, build.GenerateRequest{
		Config: cfg,
		Code:   g.Code,
		Clean:  g.Clean || cfg.Output.Clean,
	})
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		_, _ = fmt.Fprintf(global.out(), "  %s\n", f)
	}
	_, _ = fmt.Fprintf(global.out(), "Generated %d pages in %s\n", len(res.Files), res.Duration.Round(time.Millisecond))
	return nil
}
