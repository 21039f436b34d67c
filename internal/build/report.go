package build

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/config"
	"git.home.luguber.info/inful/syllabi/internal/dataset"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/mappingcsv"
	"git.home.luguber.info/inful/syllabi/internal/render"
)

// ReportFormat selects the report encoding.
type ReportFormat string

const (
	ReportHTML ReportFormat = "html"
	ReportCSV  ReportFormat = "csv"
)

// ReportTable selects the table exported as CSV.
type ReportTable string

const (
	TableCompetencies   ReportTable = "competencies"
	TableProgramResults ReportTable = "program_results"
	TableSummary        ReportTable = "summary"
)

// ReportRequest controls the mapping report.
type ReportRequest struct {
	Config *config.Config
	Format ReportFormat
	// Table is the exported table of a CSV report.
	Table ReportTable
	// Output is the destination file. An empty Output writes HTML to the configured
	// report file and CSV to Writer.
	Output string
	Writer io.Writer
}

// ReportResult describes a written report.
type ReportResult struct {
	// Path is the written file, empty when the report went to Writer.
	Path  string
	Stats catalog.Stats
}

// Report renders the competency and program-result matrices of the curriculum.
func (s *Service) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	proj, err := s.Load(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	return s.report(proj, req)
}

func (s *Service) report(proj *Project, req ReportRequest) (*ReportResult, error) {
	res := &ReportResult{Path: req.Output, Stats: proj.Catalog.Stats()}

	var data []byte
	switch req.Format {
	case ReportHTML, "":
		html, err := render.RenderReport(proj.Catalog, proj.ReportTemplate, render.Options{GeneratedAt: s.now()})
		if err != nil {
			return nil, err
		}
		data = []byte(html)
		if res.Path == "" {
			res.Path = filepath.Join(proj.Config.Output.Dir, proj.Config.Output.Report)
		}
		s.recorder.IncPagesGenerated(render.KindReport, 1)
	case ReportCSV:
		var buf bytes.Buffer
		if err := writeTable(&buf, proj.Catalog, req.Table); err != nil {
			return nil, err
		}
		data = buf.Bytes()
	default:
		return nil, errors.ValidationError("unknown report format").
			WithContext("format", string(req.Format)).
			Build()
	}

	if res.Path == "" {
		if req.Writer == nil {
			return nil, errors.InternalError("report has no destination").Build()
		}
		if _, err := req.Writer.Write(data); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to write report").Build()
		}
		return res, nil
	}
	if err := writeFile(res.Path, data); err != nil {
		return nil, err
	}
	slog.Info("Generated mapping report",
		logfields.File(res.Path),
		slog.String("format", string(req.Format)),
		slog.Int("mapped", res.Stats.Mapped),
		slog.Int("unmapped", len(res.Stats.Unmapped)))
	return res, nil
}

func writeTable(w io.Writer, cat *catalog.Catalog, table ReportTable) error {
	switch table {
	case TableCompetencies, "":
		return mappingcsv.WriteMatrix(w, cat.CompetencyMatrix())
	case TableProgramResults:
		return mappingcsv.WriteMatrix(w, cat.ProgramResultMatrix())
	case TableSummary:
		return mappingcsv.WriteSummary(w, cat.Summaries())
	default:
		return errors.ValidationError("unknown report table").
			WithContext("table", string(table)).
			Build()
	}
}

// ImportRequest controls merging a mapping sheet into the curriculum file.
type ImportRequest struct {
	Config *config.Config
	// Sheet is the CSV file to import.
	Sheet string
	// Output is the curriculum file to write; empty rewrites the loaded curriculum.
	Output string
	// Replace drops mappings for codes absent from the sheet.
	Replace bool
	DryRun  bool
}

// ImportResult describes an import.
type ImportResult struct {
	Path string
	// Imported lists the codes whose mapping was taken from the sheet, in sheet order.
	Imported []string
	// Unknown lists sheet codes with no discipline in the catalog.
	Unknown  []string
	Warnings []string
	Written  bool
}

// ImportMappings reads a mapping sheet and writes its rows into the mappings
// section of the curriculum. Rows for codes the catalog does not know are
// skipped. The merged curriculum must load as a catalog before it is written.
func (s *Service) ImportMappings(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	proj, err := s.Load(ctx, req.Config)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Path: req.Output}
	if res.Path == "" {
		if req.Config.Data.Repository != nil {
			return nil, errors.ConfigError("an output file is required when data comes from a repository").
				UserAction().
				Build()
		}
		res.Path = proj.Paths.Curriculum
	}

	raw, err := readFile(req.Sheet)
	if err != nil {
		return nil, err
	}
	sheet, err := mappingcsv.Read(raw)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryOf(err), "failed to read mapping sheet").
			WithContext("file", req.Sheet).
			Build()
	}
	res.Warnings = sheet.Warnings

	var mappings []catalog.Mapping
	for _, m := range sheet.Mappings {
		if _, err := proj.Catalog.Get(m.Code); err != nil {
			res.Unknown = append(res.Unknown, m.Code)
			slog.Warn("Skipping mapping for unknown discipline", logfields.Code(m.Code), logfields.File(req.Sheet))
			continue
		}
		mappings = append(mappings, m)
		res.Imported = append(res.Imported, m.Code)
	}

	curriculum, err := readFile(proj.Paths.Curriculum)
	if err != nil {
		return nil, err
	}
	merged, err := dataset.SetMappings(curriculum, mappings, req.Replace)
	if err != nil {
		return nil, err
	}
	doc, err := dataset.Decode(merged, nil)
	if err != nil {
		return nil, err
	}
	in := proj.Document.Input
	in.Mappings = doc.Input.Mappings
	if _, err := catalog.LoadInput(in); err != nil {
		return nil, err
	}

	if req.DryRun {
		slog.Info("Dry run: curriculum not written", logfields.File(res.Path), logfields.Count(len(res.Imported)))
		return res, nil
	}
	if err := writeFile(res.Path, merged); err != nil {
		return nil, err
	}
	res.Written = true
	slog.Info("Imported discipline mappings",
		logfields.File(res.Path),
		logfields.Count(len(res.Imported)),
		slog.Int("unknown", len(res.Unknown)))
	return res, nil
}
