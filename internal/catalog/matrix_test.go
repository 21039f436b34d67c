package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadMatrixTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadInput(Input{
		Disciplines: testDisciplines(),
		Lecturers:   testLecturers(),
		Competencies: Entries{
			{Key: "ЗК 1", Value: "Здатність до абстрактного мислення"},
			{Key: "ЗК 2", Value: "Знання предметної області"},
			{Key: "ФК 1", Value: "Програмування"},
		},
		Mappings: Entries{
			{Key: "ПО 01", Value: Record{"competencies": []any{"ФК 1", "ЗК 1"}, "program_results": []any{"ПРН 3"}}},
			{Key: "ЗО 01", Value: Record{"competencies": []any{"ЗК 1"}, "program_results": []any{"ПРН 1", "ПРН 3"}}},
		},
	})
	require.NoError(t, err)
	return c
}

func TestCompetencyMatrix(t *testing.T) {
	m := loadMatrixTest(t).CompetencyMatrix()

	require.Len(t, m.Columns, 3)
	assert.Equal(t, MatrixColumn{Code: "ЗО 01", Title: "Математичний аналіз"}, m.Columns[0])
	assert.Equal(t, "ПО 02", m.Columns[2].Code)

	require.Len(t, m.Rows, 3)
	assert.Equal(t, "ЗК 1", m.Rows[0].Outcome.ID)
	assert.Equal(t, "Здатність до абстрактного мислення", m.Rows[0].Outcome.Description)
	assert.Equal(t, []bool{true, true, false}, m.Rows[0].Marks)
	assert.Equal(t, 2, m.Rows[0].Count())

	// A described competency nothing maps to still gets an empty row.
	assert.Equal(t, "ЗК 2", m.Rows[1].Outcome.ID)
	assert.Zero(t, m.Rows[1].Count())

	assert.True(t, m.Marked(2, 1))
	assert.False(t, m.Marked(2, 0))
}

func TestProgramResultMatrix_RowsWithoutTableFollowFirstUse(t *testing.T) {
	m := loadMatrixTest(t).ProgramResultMatrix()

	require.Len(t, m.Rows, 2)
	// ПО 01 is declared after ЗО 01, so ЗО 01's ids are seen first.
	assert.Equal(t, "ПРН 1", m.Rows[0].Outcome.ID)
	assert.Empty(t, m.Rows[0].Outcome.Description)
	assert.Equal(t, []bool{true, false, false}, m.Rows[0].Marks)
	assert.Equal(t, "ПРН 3", m.Rows[1].Outcome.ID)
	assert.Equal(t, []bool{true, true, false}, m.Rows[1].Marks)
}

func TestMatrix_EmptyCatalogMappings(t *testing.T) {
	m := loadTest(t).CompetencyMatrix()
	assert.Len(t, m.Columns, 3)
	assert.Empty(t, m.Rows)
}

func TestSummaries(t *testing.T) {
	s := loadMatrixTest(t).Summaries()

	require.Len(t, s, 3)
	assert.Equal(t, Summary{
		Code:           "ЗО 01",
		Title:          "Математичний аналіз",
		Mapped:         true,
		Competencies:   []string{"ЗК 1"},
		ProgramResults: []string{"ПРН 1", "ПРН 3"},
	}, s[0])
	assert.Equal(t, []string{"ФК 1", "ЗК 1"}, s[1].Competencies)
	assert.False(t, s[2].Mapped)
	assert.Empty(t, s[2].Competencies)
}
