package build

import (
	"context"
	stderrors "errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/dataset"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/metrics"
	"git.home.luguber.info/inful/syllabi/internal/notify"
	"git.home.luguber.info/inful/syllabi/internal/publish"
	"git.home.luguber.info/inful/syllabi/internal/render"
	"git.home.luguber.info/inful/syllabi/internal/source"
)

// PublisherFactory creates the upload target for a configuration.
type PublisherFactory func(cfg *config.Config) (publish.Publisher, error)

// NotifierFactory creates the notifier for a configuration.
type NotifierFactory func(cfg *config.Config) notify.Notifier

// Service is the standard pipeline implementation.
type Service struct {
	recorder         metrics.Recorder
	publisherFactory PublisherFactory
	notifierFactory  NotifierFactory
	now              func() time.Time
}

// NewService creates a Service with the default target, notifier and a no-op recorder.
func NewService() *Service {
	return &Service{
		recorder:         metrics.NoopRecorder{},
		publisherFactory: NewPublisher,
		notifierFactory:  NewNotifier,
		now:              time.Now,
	}
}

// WithRecorder sets the metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithPublisherFactory allows injecting a custom upload target (for testing).
func (s *Service) WithPublisherFactory(f PublisherFactory) *Service {
	s.publisherFactory = f
	return s
}

// WithNotifierFactory allows injecting a custom notifier (for testing).
func (s *Service) WithNotifierFactory(f NotifierFactory) *Service {
	s.notifierFactory = f
	return s
}

// WithClock sets the clock used for generation timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Load syncs the data source and loads the catalog and templates.
func (s *Service) Load(ctx context.Context, cfg *config.Config) (*Project, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config required").Build()
	}
	paths, err := source.Sync(ctx, cfg.Data)
	if err != nil {
		return nil, err
	}

	files := dataset.Files{Curriculum: paths.Curriculum, Lecturers: paths.Lecturers}
	if files.Lecturers != "" {
		if _, err := os.Stat(files.Lecturers); stderrors.Is(err, fs.ErrNotExist) {
			slog.Debug("Lecturers file not found, using inline lecturers", logfields.File(files.Lecturers))
			files.Lecturers = ""
		}
	}
	doc, err := dataset.Load(files)
	if err != nil {
		return nil, err
	}
	for _, key := range doc.Unknown {
		slog.Warn("Ignoring unknown curriculum section", slog.String("key", key), logfields.File(files.Curriculum))
	}
	cat, err := doc.Catalog()
	if err != nil {
		return nil, err
	}

	proj := &Project{Config: cfg, Paths: paths, Document: doc, Catalog: cat}
	if proj.DisciplineTemplate, err = render.Load(cfg.Templates.Discipline, render.KindDiscipline); err != nil {
		return nil, err
	}
	if proj.IndexTemplate, err = render.Load(cfg.Templates.Index, render.KindIndex); err != nil {
		return nil, err
	}
	if proj.ReportTemplate, err = render.Load(cfg.Templates.Report, render.KindReport); err != nil {
		return nil, err
	}
	slog.Debug("Catalog loaded", logfields.Count(cat.Len()), logfields.File(files.Curriculum))
	return proj, nil
}

// Generate renders discipline pages into the output directory.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	start := s.now()
	proj, err := s.Load(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, proj, req, start)
}

func (s *Service) generate(ctx context.Context, proj *Project, req GenerateRequest, start time.Time) (*GenerateResult, error) {
	cfg := proj.Config
	disciplines := proj.Catalog.All()
	if req.Code != "" {
		d, err := proj.Catalog.Get(req.Code)
		if err != nil {
			return nil, err
		}
		disciplines = []catalog.Discipline{d}
	} else if req.Clean || cfg.Output.Clean {
		if err := cleanOutput(cfg); err != nil {
			return nil, err
		}
	}

	opts := render.Options{GeneratedAt: s.now()}
	parent := disciplineParent(cfg, proj.Catalog.Program())
	res := &GenerateResult{Project: proj}
	for _, d := range disciplines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		html, err := render.RenderDiscipline(proj.Catalog, d, proj.DisciplineTemplate, opts)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(cfg.Output.Dir, d.FileName())
		if err := writeFile(path, []byte(html)); err != nil {
			return nil, err
		}
		res.Pages = append(res.Pages, publish.DisciplinePage(d, html, parent))
		res.Files = append(res.Files, path)
	}
	s.recorder.IncPagesGenerated(render.KindDiscipline, len(res.Pages))
	res.Duration = s.now().Sub(start)

	slog.Info("Generated discipline pages",
		logfields.Count(len(res.Pages)),
		slog.String("dir", cfg.Output.Dir),
		logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return res, nil
}

// Index renders the index page into the output directory. An existing index is kept
// unless Force is set, so hand edits and reconciled links survive.
func (s *Service) Index(ctx context.Context, req IndexRequest) (*IndexResult, error) {
	proj, err := s.Load(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	return s.index(proj, req.Force)
}

func (s *Service) index(proj *Project, force bool) (*IndexResult, error) {
	path := proj.IndexPath()
	res := &IndexResult{Path: path}
	if _, err := os.Stat(path); err == nil && !force {
		slog.Debug("Keeping existing index", logfields.File(path))
		return res, nil
	}
	html, err := render.RenderIndex(proj.Catalog, proj.IndexTemplate, render.Options{GeneratedAt: s.now()})
	if err != nil {
		return nil, err
	}
	if err := writeFile(path, []byte(html)); err != nil {
		return nil, err
	}
	s.recorder.IncPagesGenerated(render.KindIndex, 1)
	res.Written = true
	slog.Info("Generated index page", logfields.File(path), logfields.Count(proj.Catalog.Len()))
	return res, nil
}

// disciplineParent is the configured parent page, else the program's index page.
func disciplineParent(cfg *config.Config, p catalog.Program) int {
	if cfg.Publish.WordPress.ParentID != 0 {
		return cfg.Publish.WordPress.ParentID
	}
	return p.PageID
}

func indexPath(cfg *config.Config) string {
	return filepath.Join(cfg.Output.Dir, cfg.Output.Index)
}

// cleanOutput removes previously generated pages. The index and report documents are kept.
func cleanOutput(cfg *config.Config) error {
	entries, err := os.ReadDir(cfg.Output.Dir)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read output directory").
			WithContext("dir", cfg.Output.Dir).
			Build()
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() || e.Name() == cfg.Output.Index || e.Name() == cfg.Output.Report || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		if err := os.Remove(filepath.Join(cfg.Output.Dir, e.Name())); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove generated page").
				WithContext("file", e.Name()).
				Build()
		}
		removed++
	}
	slog.Debug("Cleaned output directory", slog.String("dir", cfg.Output.Dir), logfields.Count(removed))
	return nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			WithContext("file", path).
			Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").
			WithContext("file", path).
			Build()
	}
	return nil
}

func readFile(path string) ([]byte, error) {
	// #nosec G304 -- paths come from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFoundError("file not found").
				WithContext("file", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read file").
			WithContext("file", path).
			Build()
	}
	return data, nil
}
