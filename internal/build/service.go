package build

import (
	"time"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/dataset"
	"git.home.luguber.info/inful/syllabi/internal/publish"
	"git.home.luguber.info/inful/syllabi/internal/reconcile"
	"git.home.luguber.info/inful/syllabi/internal/render"
	"git.home.luguber.info/inful/syllabi/internal/source"
)

// Project is a loaded curriculum with its templates.
type Project struct {
	Config   *config.Config
	Paths    source.Paths
	Document *dataset.Document
	Catalog  *catalog.Catalog

	DisciplineTemplate *render.Template
	IndexTemplate      *render.Template
	ReportTemplate     *render.Template
}

// IndexPath is where the index page lives inside the output directory.
func (p *Project) IndexPath() string {
	return indexPath(p.Config)
}

// GenerateRequest selects what Generate renders.
type GenerateRequest struct {
	Config *config.Config
	// Code restricts generation to one top-level discipline.
	Code string
	// Clean removes the output directory before writing. Ignored when Code is set.
	Clean bool
}

// GenerateResult describes the rendered pages.
type GenerateResult struct {
	Project *Project
	// Pages are the rendered discipline pages in catalog order, ready for upload.
	Pages []publish.Page
	// Files are the written paths, in the order of Pages.
	Files    []string
	Duration time.Duration
}

// IndexRequest controls index rendering.
type IndexRequest struct {
	Config *config.Config
	// Force replaces an existing index document.
	Force bool
}

// IndexResult describes the rendered index.
type IndexResult struct {
	Path    string
	Written bool
}

// ReconcileRequest controls reconciliation of the index with the links file.
type ReconcileRequest struct {
	Config *config.Config
	// Strict fails when a linked code has no anchor in the index.
	Strict bool
	// DryRun reports the result without writing the index.
	DryRun bool
}

// PublishRequest controls a publish.
type PublishRequest struct {
	Config *config.Config
	// Code restricts the upload to one discipline; the index is still reconciled.
	Code string
	// SkipIndex leaves the remote index page untouched.
	SkipIndex bool
}

// PublishResult collects the outcome of every publishing step.
type PublishResult struct {
	Pages     *publish.Report
	Index     *publish.Report
	Reconcile *reconcile.Result
	Links     *publish.LinkSet
	Duration  time.Duration
}

// Status is the overall outcome of a publish.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Status summarizes the page and index runs.
func (r *PublishResult) Status() Status {
	var published, skipped, failed int
	for _, rep := range []*publish.Report{r.Pages, r.Index} {
		if rep == nil {
			continue
		}
		p, s, f := rep.Counts()
		published, skipped, failed = published+p, skipped+s, failed+f
	}
	switch {
	case failed == 0:
		return StatusSuccess
	case published+skipped == 0:
		return StatusFailed
	default:
		return StatusPartial
	}
}
