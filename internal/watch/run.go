package watch

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// Options configures Run.
type Options struct {
	// Paths are the data and template files to watch.
	Paths    []string
	Debounce time.Duration
	// Regenerate runs once at start and after every settled change.
	Regenerate func(ctx context.Context) error

	// RepublishInterval enables scheduled publishing when positive and Republish is set.
	RepublishInterval time.Duration
	Republish         func(ctx context.Context) error

	// MetricsAddr, when set, serves MetricsHandler at /metrics.
	MetricsAddr    string
	MetricsHandler http.Handler
}

// Run regenerates on changes until ctx is done.
func Run(ctx context.Context, opts Options) error {
	w, err := NewWatcher(opts.Paths, opts.Debounce, opts.Regenerate)
	if err != nil {
		return err
	}

	if err := opts.Regenerate(ctx); err != nil {
		slog.Error("Initial generation failed", logfields.Error(err))
	}

	if opts.RepublishInterval > 0 && opts.Republish != nil {
		sched, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := sched.SchedulePublish(ctx, opts.RepublishInterval, opts.Republish); err != nil {
			return err
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	if opts.MetricsAddr != "" && opts.MetricsHandler != nil {
		srv := metricsServer(opts.MetricsAddr, opts.MetricsHandler)
		go func() {
			slog.Info("Serving metrics", slog.String("addr", opts.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Warn("Failed to stop metrics server", logfields.Error(err))
			}
		}()
	}

	return w.Run(ctx)
}

func metricsServer(addr string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
