package catalog

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Category groups disciplines on the index page.
type Category string

const (
	CategoryGeneral      Category = "general"
	CategoryProfessional Category = "professional"
	CategoryElective     Category = "elective"
	CategoryOther        Category = "other"
)

// Code prefixes used by the curriculum numbering scheme.
const (
	prefixGeneral      = "ЗО"
	prefixProfessional = "ПО"
	prefixElective     = "ПВ"

	prefixGeneralCompetency      = "ЗК"
	prefixProfessionalCompetency = "ФК"
)

// CategoryForCode derives the category from the code prefix, falling back to def.
func CategoryForCode(code string, def Category) Category {
	switch {
	case strings.HasPrefix(code, prefixGeneral):
		return CategoryGeneral
	case strings.HasPrefix(code, prefixProfessional):
		return CategoryProfessional
	case strings.HasPrefix(code, prefixElective):
		return CategoryElective
	default:
		return def
	}
}

// Lecturer is referenced by disciplines through its ID.
type Lecturer struct {
	ID          string
	Name        string
	Title       string
	Affiliation string
	Bio         string
	Email       string
	URL         string
}

// Discipline is a catalog entry. Sub-disciplines and electives share the same shape
// but are owned by their parent and never appear in the top-level index.
type Discipline struct {
	Code        string
	Title       string
	Credits     float64
	Control     string
	LecturerID  string
	Description string
	SyllabusURL string
	Category    Category

	// Lecturer is the resolved LecturerID (inherited from the parent for sub-disciplines
	// that do not name their own).
	Lecturer *Lecturer

	Subdisciplines []Discipline
	Electives      []Discipline
}

// TotalCredits sums sub-discipline credits, or returns Credits when there are none.
func (d Discipline) TotalCredits() float64 {
	if len(d.Subdisciplines) == 0 {
		return d.Credits
	}
	var total float64
	for _, sub := range d.Subdisciplines {
		total += sub.Credits
	}
	return total
}

// AllControls joins the distinct sub-discipline control types in first-seen order.
func (d Discipline) AllControls() string {
	if len(d.Subdisciplines) == 0 {
		return d.Control
	}
	seen := make(map[string]struct{}, len(d.Subdisciplines))
	controls := make([]string, 0, len(d.Subdisciplines))
	for _, sub := range d.Subdisciplines {
		if sub.Control == "" {
			continue
		}
		if _, dup := seen[sub.Control]; dup {
			continue
		}
		seen[sub.Control] = struct{}{}
		controls = append(controls, sub.Control)
	}
	return strings.Join(controls, ", ")
}

// clone copies d together with its lecturer and nested disciplines.
func (d Discipline) clone() Discipline {
	if d.Lecturer != nil {
		l := *d.Lecturer
		d.Lecturer = &l
	}
	d.Subdisciplines = cloneAll(d.Subdisciplines)
	d.Electives = cloneAll(d.Electives)
	return d
}

func cloneAll(ds []Discipline) []Discipline {
	if ds == nil {
		return nil
	}
	out := make([]Discipline, len(ds))
	for i, d := range ds {
		out[i] = d.clone()
	}
	return out
}

// FileName is the page file name for a discipline code ("ПО 01" -> "ПО_01.html").
func FileName(code string) string {
	return SafeName(code) + ".html"
}

// SafeName replaces path-hostile characters of a code with underscores.
func SafeName(code string) string {
	return strings.NewReplacer(" ", "_", "/", "_").Replace(code)
}

// FileName is the page file name for the discipline.
func (d Discipline) FileName() string {
	return FileName(d.Code)
}

// Outcome is a competency or program result with its description.
type Outcome struct {
	ID          string
	Description string
}

// Mapping associates a discipline with competency and program-result identifiers.
type Mapping struct {
	Code           string
	Competencies   []string
	ProgramResults []string
}

// Program is the curriculum metadata block.
type Program struct {
	Title  string
	Degree string
	Year   string
	// PageID is the remote page holding the index, zero when unknown.
	PageID int
}

// Catalog is the aggregate root for one generation run.
type Catalog struct {
	disciplines []Discipline
	byCode      map[string]int

	lecturers     []Lecturer
	lecturerIndex map[string]int

	mappings map[string]Mapping

	competencies       []Outcome
	competencyIndex    map[string]int
	programResults     []Outcome
	programResultIndex map[string]int

	program Program
}

// Get returns a copy of the top-level discipline with the exact code.
func (c *Catalog) Get(code string) (Discipline, error) {
	i, ok := c.byCode[code]
	if !ok {
		return Discipline{}, errors.NotFoundError("discipline not found").
			WithContext("code", code).
			Build()
	}
	return c.disciplines[i].clone(), nil
}

// All returns copies of the top-level disciplines in declaration order.
func (c *Catalog) All() []Discipline {
	return cloneAll(c.disciplines)
}

// Codes returns top-level discipline codes in declaration order.
func (c *Catalog) Codes() []string {
	out := make([]string, len(c.disciplines))
	for i, d := range c.disciplines {
		out[i] = d.Code
	}
	return out
}

// Len is the number of top-level disciplines.
func (c *Catalog) Len() int {
	return len(c.disciplines)
}

// Lecturer looks up a lecturer by ID.
func (c *Catalog) Lecturer(id string) (Lecturer, error) {
	i, ok := c.lecturerIndex[id]
	if !ok {
		return Lecturer{}, errors.NotFoundError("lecturer not found").
			WithContext("lecturer_id", id).
			Build()
	}
	return c.lecturers[i], nil
}

// Lecturers returns all lecturers in declaration order.
func (c *Catalog) Lecturers() []Lecturer {
	out := make([]Lecturer, len(c.lecturers))
	copy(out, c.lecturers)
	return out
}

// MappingFor returns the competency mapping of a discipline, if any.
func (c *Catalog) MappingFor(code string) (Mapping, bool) {
	m, ok := c.mappings[code]
	if !ok {
		return Mapping{}, false
	}
	m.Competencies = slices.Clone(m.Competencies)
	m.ProgramResults = slices.Clone(m.ProgramResults)
	return m, true
}

// Competencies resolves the mapped competencies of a discipline in mapping order.
func (c *Catalog) Competencies(code string) []Outcome {
	m, ok := c.mappings[code]
	if !ok {
		return nil
	}
	return resolveOutcomes(m.Competencies, c.competencies, c.competencyIndex)
}

// SplitCompetencies divides the mapped competencies into general (ЗК) and professional (ФК).
// Competencies with other prefixes appear in neither list.
func (c *Catalog) SplitCompetencies(code string) (general, professional []Outcome) {
	for _, o := range c.Competencies(code) {
		switch {
		case strings.HasPrefix(o.ID, prefixGeneralCompetency):
			general = append(general, o)
		case strings.HasPrefix(o.ID, prefixProfessionalCompetency):
			professional = append(professional, o)
		}
	}
	return general, professional
}

// ProgramResults resolves the mapped program results of a discipline in mapping order.
func (c *Catalog) ProgramResults(code string) []Outcome {
	m, ok := c.mappings[code]
	if !ok {
		return nil
	}
	return resolveOutcomes(m.ProgramResults, c.programResults, c.programResultIndex)
}

// Program returns the curriculum metadata.
func (c *Catalog) Program() Program {
	return c.program
}

func resolveOutcomes(ids []string, table []Outcome, index map[string]int) []Outcome {
	out := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		if i, ok := index[id]; ok {
			out = append(out, table[i])
			continue
		}
		out = append(out, Outcome{ID: id})
	}
	return out
}
