package render

import (
	"embed"
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
)

// Template kinds with an embedded default.
const (
	KindDiscipline = "discipline"
	KindIndex      = "index"
	KindReport     = "report"
)

//go:embed templates_defaults/*.html
var embeddedTemplates embed.FS

// Default returns the embedded template of the given kind.
func Default(kind string) (*Template, error) {
	name := fmt.Sprintf("templates_defaults/%s.html", kind)
	b, err := embeddedTemplates.ReadFile(name)
	if err != nil {
		return nil, errors.NotFoundError("no embedded template of this kind").
			WithContext("template", kind).
			Build()
	}
	return Parse(kind, b)
}

// Load parses the template at path, or the embedded default of kind when path is empty.
func Load(path, kind string) (*Template, error) {
	if path == "" {
		slog.Debug("Using embedded template", logfields.Template(kind))
		return Default(kind)
	}
	// #nosec G304 -- template path comes from operator configuration.
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryTemplate, "template cannot be read").
			WithContext("template", path).
			Build()
	}
	slog.Debug("Loaded template override", logfields.Template(kind), logfields.File(path))
	return Parse(path, b)
}
