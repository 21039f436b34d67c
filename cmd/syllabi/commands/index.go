package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/syllabi/internal/build"
)

// IndexCmd implements the 'index' command.
type IndexCmd struct {
	Force bool `help:"Replace an existing index document"`
}

func (i *IndexCmd) Run(ctx context.Context, global *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)
	defer flushMetrics(cfg, rec)

	res, err := svc.Index(ctx, build.IndexRequest{Config: cfg, Force: i.Force})
	if err != nil {
		return err
	}
	if !res.Written {
		_, _ = fmt.Fprintf(global.out(), "Index %s already exists (use --force to replace it)\n", res.Path)
		return nil
	}
	_, _ = fmt.Fprintf(global.out(), "Index written to %s\n", res.Path)
	return nil
}
