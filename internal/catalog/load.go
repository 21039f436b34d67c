package catalog

import (
	"fmt"
	"strconv"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Input carries every raw section of a curriculum.
type Input struct {
	Disciplines    Entries
	Electives      Entries
	Lecturers      Entries
	Mappings       Entries
	Competencies   Entries
	ProgramResults Entries
	Program        Record
}

// Load builds a catalog from raw disciplines, lecturers and optional mappings.
func Load(disciplines, lecturers, mappings Entries) (*Catalog, error) {
	return LoadInput(Input{Disciplines: disciplines, Lecturers: lecturers, Mappings: mappings})
}

// LoadInput builds a catalog from a full raw input.
//
// Lecturers are loaded first, then disciplines in the given order (mandatory section
// followed by the elective section), then outcome tables and mappings.
func LoadInput(in Input) (*Catalog, error) {
	c := &Catalog{
		byCode:             make(map[string]int),
		lecturerIndex:      make(map[string]int),
		mappings:           make(map[string]Mapping),
		competencyIndex:    make(map[string]int),
		programResultIndex: make(map[string]int),
	}

	if err := c.loadLecturers(in.Lecturers); err != nil {
		return nil, err
	}
	if err := c.loadSection(in.Disciplines, "disciplines", CategoryOther); err != nil {
		return nil, err
	}
	if err := c.loadSection(in.Electives, "elective_disciplines", CategoryElective); err != nil {
		return nil, err
	}

	var err error
	if c.competencies, c.competencyIndex, err = loadOutcomes(in.Competencies, "competencies"); err != nil {
		return nil, err
	}
	if c.programResults, c.programResultIndex, err = loadOutcomes(in.ProgramResults, "program_results"); err != nil {
		return nil, err
	}
	if err := c.loadMappings(in.Mappings); err != nil {
		return nil, err
	}
	if c.program, err = loadProgram(in.Program); err != nil {
		return nil, err
	}
	return c, nil
}

func schemaErr(path, msg string) *errors.ErrorBuilder {
	return errors.SchemaError(msg).WithContext("path", path)
}

func (c *Catalog) loadLecturers(entries Entries) error {
	for i, e := range entries {
		path := entryPath("lecturers", i, e.Key)
		rec, ok := asRecord(e.Value)
		if !ok {
			return schemaErr(path, "lecturer must be a mapping").Build()
		}

		id := e.Key
		fieldID, err := rec.firstString("lecturer_id", "id")
		if err != nil {
			return schemaErr(path, err.Error()).Build()
		}
		if id == "" {
			id = fieldID
		} else if fieldID != "" && fieldID != id {
			return schemaErr(path, "lecturer_id does not match its key").
				WithContext("lecturer_id", fieldID).
				Build()
		}
		if blank(id) {
			return schemaErr(path, "lecturer is missing required field lecturer_id").Build()
		}
		if _, dup := c.lecturerIndex[id]; dup {
			return schemaErr(path, "duplicate lecturer_id").WithContext("lecturer_id", id).Build()
		}

		l := Lecturer{ID: id}
		fields := []struct {
			dst  *string
			keys []string
		}{
			{&l.Name, []string{"name", "full_name"}},
			{&l.Title, []string{"title", "position"}},
			{&l.Affiliation, []string{"affiliation", "department"}},
			{&l.Bio, []string{"bio"}},
			{&l.Email, []string{"email"}},
			{&l.URL, []string{"url"}},
		}
		for _, f := range fields {
			if *f.dst, err = rec.firstString(f.keys...); err != nil {
				return schemaErr(path, err.Error()).WithContext("lecturer_id", id).Build()
			}
		}
		if blank(l.Name) {
			return schemaErr(path, "lecturer is missing required field name").
				WithContext("lecturer_id", id).
				Build()
		}

		c.lecturerIndex[id] = len(c.lecturers)
		c.lecturers = append(c.lecturers, l)
	}
	return nil
}

func (c *Catalog) loadSection(entries Entries, section string, def Category) error {
	for i, e := range entries {
		path := entryPath(section, i, e.Key)
		d, err := c.parseDiscipline(e, path, def, nil)
		if err != nil {
			return err
		}
		if _, dup := c.byCode[d.Code]; dup {
			return schemaErr(path, "duplicate discipline code").WithContext("code", d.Code).Build()
		}
		c.byCode[d.Code] = len(c.disciplines)
		c.disciplines = append(c.disciplines, d)
	}
	return nil
}

// parseDiscipline parses one discipline record. inherit is the owning discipline of a
// sub-discipline, which may omit lecturer_id and then takes the owner's lecturer.
func (c *Catalog) parseDiscipline(e Entry, path string, def Category, inherit *Discipline) (Discipline, error) {
	rec, ok := asRecord(e.Value)
	if !ok {
		return Discipline{}, schemaErr(path, "discipline must be a mapping").Build()
	}

	code := e.Key
	fieldCode, err := rec.firstString("code")
	if err != nil {
		return Discipline{}, schemaErr(path, err.Error()).Build()
	}
	if code == "" {
		code = fieldCode
	} else if fieldCode != "" && fieldCode != code {
		return Discipline{}, schemaErr(path, "code does not match its key").WithContext("code", fieldCode).Build()
	}
	if blank(code) {
		return Discipline{}, schemaErr(path, "discipline is missing required field code").Build()
	}

	fail := func(msg string) error {
		return schemaErr(path, msg).WithContext("code", code).Build()
	}

	d := Discipline{Code: code, Category: CategoryForCode(code, def)}

	if d.Title, err = rec.firstString("name", "title"); err != nil {
		return Discipline{}, fail(err.Error())
	}
	if blank(d.Title) {
		return Discipline{}, fail("discipline is missing required field name")
	}
	if d.Control, err = rec.firstString("control"); err != nil {
		return Discipline{}, fail(err.Error())
	}
	if d.Description, err = rec.firstString("description"); err != nil {
		return Discipline{}, fail(err.Error())
	}
	if d.SyllabusURL, err = rec.firstString("syllabus_url"); err != nil {
		return Discipline{}, fail(err.Error())
	}
	if d.LecturerID, err = rec.firstString("lecturer_id"); err != nil {
		return Discipline{}, fail(err.Error())
	}

	switch {
	case !blank(d.LecturerID):
		i, ok := c.lecturerIndex[d.LecturerID]
		if !ok {
			return Discipline{}, errors.ReferenceError("lecturer_id does not resolve").
				WithContext("path", path).
				WithContext("code", code).
				WithContext("lecturer_id", d.LecturerID).
				Build()
		}
		d.Lecturer = &c.lecturers[i]
	case inherit != nil:
		d.LecturerID = inherit.LecturerID
		d.Lecturer = inherit.Lecturer
	default:
		return Discipline{}, fail("discipline is missing required field lecturer_id")
	}

	subs, err := c.parseChildren(rec, "subdisciplines", path, d.Category, &d, true)
	if err != nil {
		return Discipline{}, err
	}
	d.Subdisciplines = subs

	electives, err := c.parseChildren(rec, "electives", path, CategoryElective, &d, false)
	if err != nil {
		return Discipline{}, err
	}
	d.Electives = electives

	credits, hasCredits := rec["credits"]
	switch {
	case hasCredits && credits != nil:
		n, ok := number(credits)
		if !ok {
			return Discipline{}, fail(fmt.Sprintf("field \"credits\" must be a number, got %T", credits))
		}
		if n <= 0 {
			return Discipline{}, fail("field \"credits\" must be positive")
		}
		d.Credits = n
	case len(d.Subdisciplines) > 0:
		d.Credits = d.TotalCredits()
	default:
		return Discipline{}, fail("discipline is missing required field credits")
	}
	if d.Control == "" && len(d.Subdisciplines) > 0 {
		d.Control = d.AllControls()
	}

	return d, nil
}

func (c *Catalog) parseChildren(rec Record, key, path string, def Category, parent *Discipline, inherit bool) ([]Discipline, error) {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return nil, nil
	}
	entries, ok := asEntries(raw)
	if !ok {
		return nil, schemaErr(path, fmt.Sprintf("field %q must be a mapping or a list", key)).
			WithContext("code", parent.Code).
			Build()
	}

	out := make([]Discipline, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		childPath := entryPath(path+"."+key, i, e.Key)
		var owner *Discipline
		if inherit {
			owner = parent
		}
		child, err := c.parseDiscipline(e, childPath, def, owner)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[child.Code]; dup {
			return nil, schemaErr(childPath, "duplicate code within parent").WithContext("code", child.Code).Build()
		}
		seen[child.Code] = struct{}{}
		out = append(out, child)
	}
	return out, nil
}

func loadOutcomes(entries Entries, section string) ([]Outcome, map[string]int, error) {
	out := make([]Outcome, 0, len(entries))
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		path := entryPath(section, i, e.Key)
		o := Outcome{ID: e.Key}
		switch v := e.Value.(type) {
		case string:
			o.Description = v
		default:
			rec, ok := asRecord(v)
			if !ok {
				return nil, nil, schemaErr(path, "outcome must be a string or a mapping").Build()
			}
			id, err := rec.firstString("id", "code")
			if err != nil {
				return nil, nil, schemaErr(path, err.Error()).Build()
			}
			if o.ID == "" {
				o.ID = id
			}
			if o.Description, err = rec.firstString("description", "name"); err != nil {
				return nil, nil, schemaErr(path, err.Error()).Build()
			}
		}
		if blank(o.ID) {
			return nil, nil, schemaErr(path, "outcome is missing its identifier").Build()
		}
		if _, dup := index[o.ID]; dup {
			return nil, nil, schemaErr(path, "duplicate outcome identifier").WithContext("id", o.ID).Build()
		}
		index[o.ID] = len(out)
		out = append(out, o)
	}
	return out, index, nil
}

func (c *Catalog) loadMappings(entries Entries) error {
	for i, e := range entries {
		path := entryPath("mappings", i, e.Key)
		m := Mapping{Code: e.Key}

		var err error
		switch v := e.Value.(type) {
		case []any, []string, string:
			m.Competencies, err = stringList(v)
		default:
			rec, ok := asRecord(v)
			if !ok {
				return schemaErr(path, "mapping must be a mapping or a list").Build()
			}
			if m.Code == "" {
				if m.Code, err = rec.firstString("code"); err != nil {
					return schemaErr(path, err.Error()).Build()
				}
			}
			if m.Competencies, err = stringList(rec["competencies"]); err != nil {
				return schemaErr(path, "competencies: "+err.Error()).Build()
			}
			m.ProgramResults, err = stringList(rec["program_results"])
		}
		if err != nil {
			return schemaErr(path, err.Error()).Build()
		}
		if blank(m.Code) {
			return schemaErr(path, "mapping is missing its discipline code").Build()
		}
		if _, ok := c.byCode[m.Code]; !ok {
			return errors.ReferenceError("mapping refers to an unknown discipline").
				WithContext("path", path).
				WithContext("code", m.Code).
				Build()
		}
		if _, dup := c.mappings[m.Code]; dup {
			return schemaErr(path, "duplicate mapping").WithContext("code", m.Code).Build()
		}
		if err := checkOutcomeRefs(path, m.Code, "competency", m.Competencies, c.competencyIndex); err != nil {
			return err
		}
		if err := checkOutcomeRefs(path, m.Code, "program_result", m.ProgramResults, c.programResultIndex); err != nil {
			return err
		}
		c.mappings[m.Code] = m
	}
	return nil
}

// checkOutcomeRefs validates ids against a description table; an empty table accepts any id.
func checkOutcomeRefs(path, code, kind string, ids []string, index map[string]int) error {
	if len(index) == 0 {
		return nil
	}
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			return errors.ReferenceError("mapping refers to an unknown "+kind).
				WithContext("path", path).
				WithContext("code", code).
				WithContext(kind, id).
				Build()
		}
	}
	return nil
}

func loadProgram(rec Record) (Program, error) {
	var p Program
	if rec == nil {
		return p, nil
	}
	fields := []struct {
		key string
		dst *string
	}{{"title", &p.Title}, {"degree", &p.Degree}, {"year", &p.Year}}
	for _, f := range fields {
		if v, ok := rec[f.key]; ok && v != nil {
			s, ok := scalarString(v)
			if !ok {
				return Program{}, schemaErr("metadata."+f.key, "metadata value must be a scalar").Build()
			}
			*f.dst = s
		}
	}
	if v, ok := rec["page_id"]; ok && v != nil {
		switch t := v.(type) {
		case int:
			p.PageID = t
		case string:
			id, err := strconv.Atoi(t)
			if err != nil {
				return Program{}, schemaErr("metadata.page_id", "page_id must be an integer").Build()
			}
			p.PageID = id
		default:
			return Program{}, schemaErr("metadata.page_id", "page_id must be an integer").Build()
		}
	}
	return p, nil
}

func entryPath(section string, i int, key string) string {
	if key != "" {
		return section + "[" + key + "]"
	}
	return section + "[" + strconv.Itoa(i) + "]"
}
