package build

import (
	"context"
	stderrors "errors"
	"log/slog"
	"maps"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/ledger"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/publish"
	"git.home.luguber.info/inful/syllabi/internal/reconcile"
)

// session holds the collaborators of one publish.
type session struct {
	publisher publish.Publisher
	ledger    ledger.Store
	runner    *publish.Runner
}

func (s *Service) openSession(cfg *config.Config) (*session, error) {
	pub, err := s.publisherFactory(cfg)
	if err != nil {
		return nil, err
	}
	store, err := openLedger(cfg)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}

	runner := publish.NewRunner(pub)
	if store != nil {
		runner.Ledger = store
	}
	runner.Notifier = s.notifierFactory(cfg)
	runner.Recorder = s.recorder
	runner.Policy = cfg.Publish.Retry.Policy()
	runner.Concurrency = cfg.Publish.Concurrency
	runner.SkipUnchanged = cfg.Publish.SkipUnchanged && store != nil
	return &session{publisher: pub, ledger: store, runner: runner}, nil
}

func (ss *session) close() {
	if err := ss.publisher.Close(); err != nil {
		slog.Warn("Failed to close publish target", logfields.Error(err))
	}
	if err := ss.runner.Notifier.Close(); err != nil {
		slog.Warn("Failed to close notifier", logfields.Error(err))
	}
	if ss.ledger != nil {
		if err := ss.ledger.Close(); err != nil {
			slog.Warn("Failed to close ledger", logfields.Error(err))
		}
	}
}

// Publish renders and uploads the discipline pages, stores their URLs in the links
// file, reconciles the index with every known link and uploads the index.
//
// Page failures do not stop the run: the URLs that were obtained are still saved
// and reconciled, and the returned error summarizes the failures.
func (s *Service) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	start := s.now()
	proj, err := s.Load(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	gen, err := s.generate(ctx, proj, GenerateRequest{Config: req.Config, Code: req.Code}, start)
	if err != nil {
		return nil, err
	}
	if _, err := s.index(proj, false); err != nil {
		return nil, err
	}

	ss, err := s.openSession(req.Config)
	if err != nil {
		return nil, err
	}
	defer ss.close()

	res := &PublishResult{}
	res.Pages, err = ss.runner.Run(ctx, gen.Pages)
	if err != nil {
		return res, err
	}

	links, err := publish.LoadLinks(req.Config.Publish.LinksFile)
	if err != nil {
		return res, err
	}
	program := proj.Catalog.Program()
	links.Year, links.Degree = program.Year, program.Degree
	previous := maps.Clone(links.Links)
	links.Merge(res.Pages.Links())
	if err := links.Save(req.Config.Publish.LinksFile); err != nil {
		return res, err
	}
	res.Links = links

	if res.Reconcile, err = s.reconcileIndex(proj.IndexPath(), links.Links, previous, false, false); err != nil {
		return res, err
	}

	if !req.SkipIndex {
		if res.Index, err = s.publishIndex(ctx, ss, proj.IndexPath(), req.Config, program); err != nil {
			return res, err
		}
	}
	res.Duration = s.now().Sub(start)

	return res, joinErrs(res.Pages.Err(), indexErr(res.Index))
}

// PublishIndex reconciles the existing index with the links file and uploads it.
func (s *Service) PublishIndex(ctx context.Context, cfg *config.Config) (*PublishResult, error) {
	start := s.now()
	proj, err := s.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.index(proj, false); err != nil {
		return nil, err
	}
	links, err := publish.LoadLinks(cfg.Publish.LinksFile)
	if err != nil {
		return nil, err
	}

	res := &PublishResult{Links: links}
	if res.Reconcile, err = s.reconcileIndex(proj.IndexPath(), links.Links, nil, false, false); err != nil {
		return nil, err
	}

	ss, err := s.openSession(cfg)
	if err != nil {
		return nil, err
	}
	defer ss.close()

	if res.Index, err = s.publishIndex(ctx, ss, proj.IndexPath(), cfg, proj.Catalog.Program()); err != nil {
		return res, err
	}
	res.Duration = s.now().Sub(start)
	return res, indexErr(res.Index)
}

func (s *Service) publishIndex(ctx context.Context, ss *session, path string, cfg *config.Config, program catalog.Program) (*publish.Report, error) {
	doc, err := readFile(path)
	if err != nil {
		return nil, err
	}
	page := publish.IndexPage(program, cfg.Output.Index, string(doc), cfg.Publish.WordPress.IndexParentID)
	return ss.runner.Run(ctx, []publish.Page{page})
}

// Reconcile points the index document's anchors at the URLs of the links file.
func (s *Service) Reconcile(_ context.Context, req ReconcileRequest) (*reconcile.Result, error) {
	links, err := publish.LoadLinks(req.Config.Publish.LinksFile)
	if err != nil {
		return nil, err
	}
	return s.reconcileIndex(indexPath(req.Config), links.Links, nil, req.Strict, req.DryRun)
}

// reconcileIndex rewrites the index at path. previous, when set, holds the links the
// index was last reconciled with so anchors found only by an older URL are kept.
func (s *Service) reconcileIndex(path string, links, previous map[string]string, strict, dryRun bool) (*reconcile.Result, error) {
	doc, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res, err := reconcile.ReconcileWith(doc, links, reconcile.Options{Previous: previous})
	if err != nil {
		return nil, err
	}
	s.recorder.SetUnmatchedLinks(len(res.Unmatched))

	log := slog.With(logfields.File(path))
	if len(res.Unmatched) > 0 {
		log.Warn("Published codes have no anchor in the index", slog.String("codes", strings.Join(res.Unmatched, ", ")))
	}
	if len(res.Pending) > 0 {
		log.Info("Index anchors without a published URL", logfields.Count(len(res.Pending)))
	}
	if strict && !res.Reconciled() {
		return res, errors.ValidationError("index is missing anchors for published codes").
			WithContext("file", path).
			WithContext("unmatched", strings.Join(res.Unmatched, ", ")).
			Build()
	}
	if !res.Changed() || dryRun {
		log.Info("Index reconciled", logfields.Status(string(res.Status)), slog.Int("updated", len(res.Updated)), slog.Bool("written", false))
		return res, nil
	}
	if err := writeFile(path, res.Document); err != nil {
		return nil, err
	}
	log.Info("Index reconciled", logfields.Status(string(res.Status)), slog.Int("updated", len(res.Updated)), slog.Bool("written", true))
	return res, nil
}

func indexErr(rep *publish.Report) error {
	if rep == nil {
		return nil
	}
	return rep.Err()
}

func joinErrs(errs ...error) error {
	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return stderrors.Join(out...)
	}
}
