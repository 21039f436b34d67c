package commands

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/syllabi/internal/build"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/source"
	"git.home.luguber.info/inful/syllabi/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Republish bool `help:"Publish on the configured republish interval while watching" default:"true" negatable:""`
	Report    bool `help:"Rewrite the mapping report after every regeneration"`
}

func (w *WatchCmd) Run(ctx context.Context, _ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	svc, rec := newService(cfg)

	paths, err := source.Sync(ctx, cfg.Data)
	if err != nil {
		return err
	}
	opts := watchOptions(cfg, svc, paths, w.Report)
	if rec != nil {
		opts.MetricsAddr = cfg.Metrics.Listen
		opts.MetricsHandler = rec.Handler()
		inner := opts.Regenerate
		opts.Regenerate = func(ctx context.Context) error {
			defer flushMetrics(cfg, rec)
			return inner(ctx)
		}
		if opts.Republish != nil {
			publish := opts.Republish
			opts.Republish = func(ctx context.Context) error {
				defer flushMetrics(cfg, rec)
				return publish(ctx)
			}
		}
	}
	if !w.Republish {
		opts.Republish = nil
	}

	slog.Info("Watching for changes", logfields.Count(len(opts.Paths)), slog.Duration("debounce", opts.Debounce))
	return watch.Run(ctx, opts)
}

func watchOptions(cfg *config.Config, svc *build.Service, paths source.Paths, report bool) watch.Options {
	files := []string{paths.Curriculum}
	if paths.Lecturers != "" {
		files = append(files, paths.Lecturers)
	}
	for _, t := range []string{cfg.Templates.Discipline, cfg.Templates.Index, cfg.Templates.Report} {
		if t != "" {
			files = append(files, t)
		}
	}

	opts := watch.Options{
		Paths:    files,
		Debounce: cfg.Watch.Debounce,
		Regenerate: func(ctx context.Context) error {
			if _, err := svc.Generate(ctx, build.GenerateRequest{Config: cfg}); err != nil {
				return err
			}
			if _, err := svc.Index(ctx, build.IndexRequest{Config: cfg}); err != nil || !report {
				return err
			}
			_, err := svc.Report(ctx, build.ReportRequest{Config: cfg})
			return err
		},
		RepublishInterval: cfg.Watch.RepublishInterval,
	}
	if cfg.Publish.Target != config.TargetNone {
		opts.Republish = func(ctx context.Context) error {
			_, err := svc.Publish(ctx, build.PublishRequest{Config: cfg})
			return err
		}
	}
	return opts
}
