// Package commands implements the syllabi command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/syllabi/internal/build"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/metrics"
)

// Global is shared by every command.
type Global struct {
	Logger *slog.Logger
	// Out receives command output meant for the user.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"syllabi.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Generate       GenerateCmd       `cmd:"" help:"Render discipline pages into the output directory"`
	Index          IndexCmd          `cmd:"" help:"Render the program index document"`
	Reconcile      ReconcileCmd      `cmd:"" help:"Point index anchors at the published discipline URLs"`
	Publish        PublishCmd        `cmd:"" help:"Render, upload and link all discipline pages"`
	PublishIndex   PublishIndexCmd   `cmd:"" name:"publish-index" help:"Reconcile and upload the program index only"`
	Validate       ValidateCmd       `cmd:"" help:"Check curriculum data, templates, index and links"`
	Stats          StatsCmd          `cmd:"" help:"Show mapping coverage statistics"`
	Report         ReportCmd         `cmd:"" help:"Render the competency and program-result matrices"`
	ImportMappings ImportMappingsCmd `cmd:"" name:"import-mappings" help:"Merge a CSV mapping sheet into the curriculum"`
	Watch          WatchCmd          `cmd:"" help:"Regenerate pages when data or templates change"`
	History        HistoryCmd        `cmd:"" help:"Show publish runs recorded in the ledger"`
	Init           InitCmd           `cmd:"" help:"Write a default configuration file"`
	ShowVersion    VersionCmd        `cmd:"" name:"version" help:"Show version information"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration. The default path may be absent, in which
// case the built-in defaults are used; an explicitly named file must exist.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.LoadOrDefault(c.Config, c.Config != config.DefaultPath)
}

// newService returns a build service, with a Prometheus recorder when metrics
// output is configured.
func newService(cfg *config.Config) (*build.Service, *metrics.PrometheusRecorder) {
	svc := build.NewService()
	if cfg.Metrics.Textfile == "" && cfg.Metrics.Listen == "" {
		return svc, nil
	}
	rec := metrics.NewPrometheusRecorder(nil)
	return svc.WithRecorder(rec), rec
}

// flushMetrics writes the textfile when one is configured.
func flushMetrics(cfg *config.Config, rec *metrics.PrometheusRecorder) {
	if rec == nil || cfg.Metrics.Textfile == "" {
		return
	}
	if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.File(cfg.Metrics.Textfile), logfields.Error(err))
	}
}
