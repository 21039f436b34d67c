package build

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/lint"
	"git.home.luguber.info/inful/syllabi/internal/publish"
	"git.home.luguber.info/inful/syllabi/internal/render"
)

// Validate loads the curriculum and lints it together with the templates, the
// current index document and the links file. Load failures are returned as errors;
// everything else is reported as issues.
func (s *Service) Validate(ctx context.Context, cfg *config.Config, lcfg *lint.Config) (*lint.Result, error) {
	proj, err := s.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}

	in := &lint.Input{
		Catalog:     proj.Catalog,
		UnknownKeys: proj.Document.Unknown,
		Templates:   []*render.Template{proj.DisciplineTemplate, proj.IndexTemplate, proj.ReportTemplate},
		IndexFile:   proj.IndexPath(),
	}
	if in.Index, err = readOptional(in.IndexFile); err != nil {
		return nil, err
	}
	links, err := publish.LoadLinks(cfg.Publish.LinksFile)
	if err != nil {
		return nil, err
	}
	in.Links = links.Links

	return lint.NewLinter(lcfg).Lint(in)
}

// Stats loads the curriculum and computes mapping statistics.
func (s *Service) Stats(ctx context.Context, cfg *config.Config) (catalog.Stats, error) {
	proj, err := s.Load(ctx, cfg)
	if err != nil {
		return catalog.Stats{}, err
	}
	return proj.Catalog.Stats(), nil
}

// readOptional reads path, returning nil for a missing file.
func readOptional(path string) ([]byte, error) {
	// #nosec G304 -- path comes from operator configuration.
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read file").
			WithContext("file", path).
			Build()
	}
	return data, nil
}
