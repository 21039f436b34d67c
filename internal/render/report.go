package render

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// RenderReport renders the coverage report: outcome/discipline matrices, the
// per-discipline summary and the disciplines still lacking a mapping.
func RenderReport(cat *catalog.Catalog, tpl *Template, opts Options) (string, error) {
	if tpl == nil {
		return "", errors.TemplateError("template is nil").Build()
	}
	if cat == nil {
		return "", errors.InternalError("catalog is nil").Build()
	}
	s := &scope{cat: cat, opts: opts, report: true}
	var b strings.Builder
	if err := s.exec(&b, tpl, tpl.nodes); err != nil {
		return "", err
	}
	return b.String(), nil
}

// reportSlots are available at the top level of a report template.
var reportSlots = map[string]slotFunc{
	"competency_matrix":     text(func(s *scope) string { return matrixTable("competency-matrix", s.cat.CompetencyMatrix()) }),
	"program_result_matrix": text(func(s *scope) string { return matrixTable("program-result-matrix", s.cat.ProgramResultMatrix()) }),
	"competency_legend":     text(func(s *scope) string { return legend("competencies", s.cat.CompetencyMatrix()) }),
	"program_result_legend": text(func(s *scope) string { return legend("program-results", s.cat.ProgramResultMatrix()) }),
	"discipline_summary":    text(func(s *scope) string { return summaryTable(s.cat.Summaries()) }),
	"unmapped_disciplines":  text(func(s *scope) string { return unmappedList(s.cat.Summaries()) }),

	"discipline_count": text(func(s *scope) string { return strconv.Itoa(s.cat.Stats().Disciplines) }),
	"mapped_count":     text(func(s *scope) string { return strconv.Itoa(s.cat.Stats().Mapped) }),
	"unmapped_count": text(func(s *scope) string {
		if n := len(s.cat.Stats().Unmapped); n > 0 {
			return strconv.Itoa(n)
		}
		return ""
	}),
}

// matrixTable renders a matrix with disciplines as columns. Mapped cells hold a
// "+" and the last column counts them.
func matrixTable(class string, m catalog.Matrix) string {
	if len(m.Rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<table class="matrix ` + class + `">` + "\n<thead><tr><th></th>")
	for _, c := range m.Columns {
		b.WriteString(`<th title="` + esc(c.Title) + `">` + esc(c.Code) + "</th>")
	}
	b.WriteString("<th>Σ</th></tr></thead>\n<tbody>\n")
	for _, r := range m.Rows {
		b.WriteString("<tr><th")
		if r.Outcome.Description != "" {
			b.WriteString(` title="` + esc(r.Outcome.Description) + `"`)
		}
		b.WriteString(">" + esc(r.Outcome.ID) + "</th>")
		for _, marked := range r.Marks {
			if marked {
				b.WriteString(`<td class="filled">+</td>`)
			} else {
				b.WriteString(`<td class="empty"></td>`)
			}
		}
		b.WriteString(`<td class="count">` + strconv.Itoa(r.Count()) + "</td></tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

func legend(class string, m catalog.Matrix) string {
	items := make([]catalog.Outcome, 0, len(m.Rows))
	for _, r := range m.Rows {
		items = append(items, r.Outcome)
	}
	return outcomeList(class, items)
}

func summaryTable(items []catalog.Summary) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<table class="summary">` + "\n<thead><tr><th>Код</th><th>Назва</th><th>Компетентності</th><th>Результати навчання</th></tr></thead>\n<tbody>\n")
	for _, s := range items {
		b.WriteString("<tr")
		if !s.Mapped {
			b.WriteString(` class="unmapped"`)
		}
		b.WriteString("><td>" + esc(s.Code) + "</td><td>" + esc(s.Title) + "</td>")
		b.WriteString("<td>" + outcomeCell(s.Competencies) + "</td>")
		b.WriteString("<td>" + outcomeCell(s.ProgramResults) + "</td></tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

// outcomeCell lists identifiers followed by their count in parentheses.
func outcomeCell(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	return esc(strings.Join(ids, ", ")) + ` <span class="count">(` + strconv.Itoa(len(ids)) + ")</span>"
}

func unmappedList(items []catalog.Summary) string {
	var b strings.Builder
	for _, s := range items {
		if s.Mapped {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(`<ul class="unmapped">` + "\n")
		}
		b.WriteString(`<li><span class="code">` + esc(s.Code) + `</span> <span class="title">` + esc(s.Title) + "</span></li>\n")
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteString("</ul>")
	return b.String()
}
