package catalog

// MatrixColumn is a discipline column of a Matrix.
type MatrixColumn struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// MatrixRow is one outcome. Marks is aligned with the matrix columns and is set
// where the discipline maps to the outcome.
type MatrixRow struct {
	Outcome Outcome `json:"outcome"`
	Marks   []bool  `json:"marks"`
}

// Count is the number of disciplines mapped to the row's outcome.
func (r MatrixRow) Count() int {
	n := 0
	for _, m := range r.Marks {
		if m {
			n++
		}
	}
	return n
}

// Matrix crosses outcomes (rows) with top-level disciplines (columns).
type Matrix struct {
	Columns []MatrixColumn `json:"columns"`
	Rows    []MatrixRow    `json:"rows"`
}

// Marked reports whether the discipline in column col maps to the outcome in row.
func (m Matrix) Marked(row, col int) bool {
	return m.Rows[row].Marks[col]
}

// CompetencyMatrix maps competencies to disciplines. Rows follow the competency
// table; identifiers mapped without a table entry follow in first-seen order.
// Columns follow All.
func (c *Catalog) CompetencyMatrix() Matrix {
	return c.matrix(c.competencies, func(m Mapping) []string { return m.Competencies })
}

// ProgramResultMatrix maps program results to disciplines, ordered like CompetencyMatrix.
func (c *Catalog) ProgramResultMatrix() Matrix {
	return c.matrix(c.programResults, func(m Mapping) []string { return m.ProgramResults })
}

func (c *Catalog) matrix(table []Outcome, ids func(Mapping) []string) Matrix {
	m := Matrix{Columns: make([]MatrixColumn, len(c.disciplines))}
	row := make(map[string]int, len(table))
	addRow := func(o Outcome) int {
		row[o.ID] = len(m.Rows)
		m.Rows = append(m.Rows, MatrixRow{Outcome: o, Marks: make([]bool, len(c.disciplines))})
		return row[o.ID]
	}
	for _, o := range table {
		if _, dup := row[o.ID]; !dup {
			addRow(o)
		}
	}

	for col, d := range c.disciplines {
		m.Columns[col] = MatrixColumn{Code: d.Code, Title: d.Title}
		mapping, ok := c.mappings[d.Code]
		if !ok {
			continue
		}
		for _, id := range ids(mapping) {
			i, ok := row[id]
			if !ok {
				i = addRow(Outcome{ID: id})
			}
			m.Rows[i].Marks[col] = true
		}
	}
	return m
}

// Summary lists the mapped outcomes of one discipline.
type Summary struct {
	Code           string   `json:"code"`
	Title          string   `json:"title"`
	Mapped         bool     `json:"mapped"`
	Competencies   []string `json:"competencies"`
	ProgramResults []string `json:"program_results"`
}

// Summaries returns one entry per top-level discipline in catalog order.
func (c *Catalog) Summaries() []Summary {
	out := make([]Summary, len(c.disciplines))
	for i, d := range c.disciplines {
		s := Summary{Code: d.Code, Title: d.Title}
		if m, ok := c.MappingFor(d.Code); ok {
			s.Mapped = true
			s.Competencies, s.ProgramResults = m.Competencies, m.ProgramResults
		}
		out[i] = s
	}
	return out
}
