package catalog

// Usage counts how many disciplines map to an outcome.
type Usage struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

// Stats summarizes mapping coverage of a catalog.
type Stats struct {
	Disciplines    int `json:"disciplines"`
	Lecturers      int `json:"lecturers"`
	Competencies   int `json:"competencies"`
	ProgramResults int `json:"program_results"`
	Mapped         int `json:"mapped"`

	// Unmapped lists disciplines without a mapping, in catalog order.
	Unmapped []string `json:"unmapped,omitempty"`

	CompetencyUsage    []Usage `json:"competency_usage"`
	ProgramResultUsage []Usage `json:"program_result_usage"`
}

// Stats computes coverage statistics. Usage lists follow the description tables' order;
// identifiers mapped without a table entry are appended in first-seen order.
func (c *Catalog) Stats() Stats {
	s := Stats{
		Disciplines:    len(c.disciplines),
		Lecturers:      len(c.lecturers),
		Competencies:   len(c.competencies),
		ProgramResults: len(c.programResults),
		Mapped:         len(c.mappings),
	}

	var competencyIDs, resultIDs []string
	for _, d := range c.disciplines {
		m, ok := c.mappings[d.Code]
		if !ok {
			s.Unmapped = append(s.Unmapped, d.Code)
			continue
		}
		competencyIDs = append(competencyIDs, m.Competencies...)
		resultIDs = append(resultIDs, m.ProgramResults...)
	}

	s.CompetencyUsage = countUsage(c.competencies, competencyIDs)
	s.ProgramResultUsage = countUsage(c.programResults, resultIDs)
	return s
}

func countUsage(table []Outcome, ids []string) []Usage {
	out := make([]Usage, 0, len(table))
	pos := make(map[string]int, len(table))
	for _, o := range table {
		pos[o.ID] = len(out)
		out = append(out, Usage{ID: o.ID})
	}
	for _, id := range ids {
		i, ok := pos[id]
		if !ok {
			pos[id] = len(out)
			out = append(out, Usage{ID: id})
			i = pos[id]
		}
		out[i].Count++
	}
	return out
}
