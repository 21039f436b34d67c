package mappingcsv

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Mark is the cell value of a mapped outcome/discipline pair.
const Mark = "+"

// WriteMatrix writes one row per outcome: identifier, description, one cell per
// discipline column and the number of mapped disciplines.
func WriteMatrix(w io.Writer, m catalog.Matrix) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(m.Columns)+3)
	header = append(header, "id", "description")
	for _, c := range m.Columns {
		header = append(header, c.Code)
	}
	header = append(header, "count")
	records := [][]string{header}

	for _, r := range m.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.Outcome.ID, r.Outcome.Description)
		for _, marked := range r.Marks {
			if marked {
				rec = append(rec, Mark)
			} else {
				rec = append(rec, "")
			}
		}
		records = append(records, append(rec, strconv.Itoa(r.Count())))
	}
	return flush(cw, records)
}

// WriteSummary writes one row per discipline with its outcome lists and counts.
// The layout reads back through Read.
func WriteSummary(w io.Writer, summaries []catalog.Summary) error {
	cw := csv.NewWriter(w)
	records := [][]string{{"code", "name", "competencies", "program_results", "competency_count", "program_result_count"}}
	for _, s := range summaries {
		records = append(records, []string{
			s.Code,
			s.Title,
			strings.Join(s.Competencies, ", "),
			strings.Join(s.ProgramResults, ", "),
			strconv.Itoa(len(s.Competencies)),
			strconv.Itoa(len(s.ProgramResults)),
		})
	}
	return flush(cw, records)
}

func flush(cw *csv.Writer, records [][]string) error {
	if err := cw.WriteAll(records); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write csv").Build()
	}
	return nil
}
