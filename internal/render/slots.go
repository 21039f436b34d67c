package render

import (
	"sort"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

const (
	classSubdisciplines = "subdisciplines"
	classElectives      = "electives"

	dateLayout = "02.01.2006"
)

// Index group names.
const (
	GroupDisciplines  = "disciplines"
	GroupGeneral      = "general"
	GroupProfessional = "professional"
	GroupElective     = "elective"
)

// scope is the data visible to a slot: the program and, inside a page or an index
// group, one discipline.
type scope struct {
	cat  *catalog.Catalog
	d    *catalog.Discipline
	opts Options
	// index is set while rendering an index template.
	index bool
	// report is set while rendering a report template.
	report bool
}

type slotFunc func(s *scope) (string, error)

func text(f func(s *scope) string) slotFunc {
	return func(s *scope) (string, error) { return f(s), nil }
}

func lecturerField(f func(l *catalog.Lecturer) string) slotFunc {
	return text(func(s *scope) string {
		if s.d.Lecturer == nil {
			return ""
		}
		return esc(f(s.d.Lecturer))
	})
}

// disciplineSlots require a discipline in scope. Each returns an empty string when
// its data is absent, which is what conditional sections test for.
var disciplineSlots = map[string]slotFunc{
	"code":          text(func(s *scope) string { return esc(s.d.Code) }),
	"title":         text(func(s *scope) string { return esc(s.d.Title) }),
	"control":       text(func(s *scope) string { return esc(s.d.Control) }),
	"category":      text(func(s *scope) string { return esc(string(s.d.Category)) }),
	"credits":       text(func(s *scope) string { return formatNumber(s.d.Credits) }),
	"total_credits": text(func(s *scope) string { return formatNumber(s.d.TotalCredits()) }),
	"all_controls":  text(func(s *scope) string { return esc(s.d.AllControls()) }),
	"lecturer_id":   text(func(s *scope) string { return esc(s.d.LecturerID) }),

	"lecturer_name":        lecturerField(func(l *catalog.Lecturer) string { return l.Name }),
	"lecturer_title":       lecturerField(func(l *catalog.Lecturer) string { return l.Title }),
	"lecturer_affiliation": lecturerField(func(l *catalog.Lecturer) string { return l.Affiliation }),
	"lecturer_bio":         lecturerField(func(l *catalog.Lecturer) string { return l.Bio }),
	"lecturer_email":       lecturerField(func(l *catalog.Lecturer) string { return l.Email }),
	"lecturer_url":         lecturerField(func(l *catalog.Lecturer) string { return l.URL }),

	"description":  func(s *scope) (string, error) { return renderMarkdown(s.d.Description) },
	"syllabus_url": text(func(s *scope) string { return esc(s.d.SyllabusURL) }),

	"subdisciplines": text(func(s *scope) string { return disciplineList(classSubdisciplines, s.d.Subdisciplines) }),
	"electives":      text(func(s *scope) string { return disciplineList(classElectives, s.d.Electives) }),

	"competencies": text(func(s *scope) string {
		if s.cat == nil {
			return ""
		}
		return outcomeList("competencies", s.cat.Competencies(s.d.Code))
	}),
	"general_competencies": text(func(s *scope) string {
		if s.cat == nil {
			return ""
		}
		general, _ := s.cat.SplitCompetencies(s.d.Code)
		return outcomeList("competencies general", general)
	}),
	"professional_competencies": text(func(s *scope) string {
		if s.cat == nil {
			return ""
		}
		_, professional := s.cat.SplitCompetencies(s.d.Code)
		return outcomeList("competencies professional", professional)
	}),
	"program_results": text(func(s *scope) string {
		if s.cat == nil {
			return ""
		}
		return outcomeList("program-results", s.cat.ProgramResults(s.d.Code))
	}),

	"page_href": text(func(s *scope) string { return esc(s.d.FileName()) }),
	"anchor":    text(func(s *scope) string { return Anchor(*s.d) }),
}

// programSlots are available in every template.
var programSlots = map[string]slotFunc{
	"program_title":  text(func(s *scope) string { return esc(s.program().Title) }),
	"program_degree": text(func(s *scope) string { return esc(s.program().Degree) }),
	"program_year":   text(func(s *scope) string { return esc(s.program().Year) }),
	"generated_at": text(func(s *scope) string {
		if s.opts.GeneratedAt.IsZero() {
			return ""
		}
		return s.opts.GeneratedAt.Format(dateLayout)
	}),
}

// indexSlots are available at the top level of an index template.
var indexSlots = map[string]slotFunc{
	"index_rows": text(func(s *scope) string { return indexRows(s.cat.All()) }),
}

func (s *scope) program() catalog.Program {
	if s.cat == nil {
		return catalog.Program{}
	}
	return s.cat.Program()
}

// lookup resolves a slot name in the current scope.
func (s *scope) lookup(name string) (slotFunc, bool) {
	if f, ok := programSlots[name]; ok {
		return f, true
	}
	if s.d != nil {
		if f, ok := disciplineSlots[name]; ok {
			return f, true
		}
		return nil, false
	}
	switch {
	case s.index:
		f, ok := indexSlots[name]
		return f, ok
	case s.report:
		f, ok := reportSlots[name]
		return f, ok
	}
	return nil, false
}

// groupMembers returns the disciplines of an index group, or false for unknown names.
func groupMembers(cat *catalog.Catalog, name string) ([]catalog.Discipline, bool) {
	all := cat.All()
	var want catalog.Category
	switch name {
	case GroupDisciplines:
		return all, true
	case GroupGeneral:
		want = catalog.CategoryGeneral
	case GroupProfessional:
		want = catalog.CategoryProfessional
	case GroupElective:
		want = catalog.CategoryElective
	default:
		return nil, false
	}
	out := make([]catalog.Discipline, 0, len(all))
	for _, d := range all {
		if d.Category == want {
			out = append(out, d)
		}
	}
	return out, true
}

// SlotNames lists every recognized slot name, sorted. Used by template validation.
func SlotNames() []string {
	names := make([]string, 0, len(disciplineSlots)+len(programSlots)+len(indexSlots)+len(reportSlots))
	for _, m := range []map[string]slotFunc{disciplineSlots, programSlots, indexSlots, reportSlots} {
		for k := range m {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}
