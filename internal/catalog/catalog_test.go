package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

func testLecturers() Entries {
	return Entries{
		{Key: "L1", Value: Record{"name": "Іван Петренко", "title": "доцент", "department": "ПМА"}},
		{Key: "L2", Value: Record{"name": "Олена Коваль", "bio": "Works on optics."}},
	}
}

func testDisciplines() Entries {
	return Entries{
		{Key: "ЗО 01", Value: Record{"name": "Математичний аналіз", "credits": 6, "control": "Іспит", "lecturer_id": "L1"}},
		{Key: "ПО 01", Value: Record{
			"name":        "Програмування",
			"credits":     4.5,
			"control":     "Залік",
			"lecturer_id": "L2",
			"description": "Intro to **Go**.",
		}},
		{Key: "ПО 02", Value: Record{
			"name":        "Лабораторний практикум",
			"lecturer_id": "L1",
			"subdisciplines": Entries{
				{Key: "ПО 02.1", Value: Record{"name": "Механіка", "credits": 2, "control": "Залік"}},
				{Key: "ПО 02.2", Value: Record{"name": "Оптика", "credits": 3, "control": "Іспит", "lecturer_id": "L2"}},
				{Key: "ПО 02.3", Value: Record{"name": "Атомна фізика", "credits": 1, "control": "Залік"}},
			},
		}},
	}
}

func loadTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Load(testDisciplines(), testLecturers(), nil)
	require.NoError(t, err)
	return c
}

func requireCategory(t *testing.T, err error, category errors.ErrorCategory) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, category), "expected %s, got %v", category, err)
}

func TestLoad_RoundTrip(t *testing.T) {
	c := loadTest(t)

	d, err := c.Get("ЗО 01")
	require.NoError(t, err)
	assert.Equal(t, "ЗО 01", d.Code)
	assert.Equal(t, "Математичний аналіз", d.Title)
	assert.Equal(t, 6.0, d.Credits)
	assert.Equal(t, "Іспит", d.Control)
	assert.Equal(t, "L1", d.LecturerID)
	require.NotNil(t, d.Lecturer)
	assert.Equal(t, "Іван Петренко", d.Lecturer.Name)
	assert.Equal(t, "ПМА", d.Lecturer.Affiliation)
	assert.Equal(t, CategoryGeneral, d.Category)

	d, err = c.Get("ПО 01")
	require.NoError(t, err)
	assert.Equal(t, 4.5, d.Credits)
	assert.Equal(t, "Intro to **Go**.", d.Description)
	assert.Equal(t, CategoryProfessional, d.Category)
}

func TestLoad_EveryCodeResolves(t *testing.T) {
	c := loadTest(t)
	for _, e := range testDisciplines() {
		d, err := c.Get(e.Key)
		require.NoError(t, err, e.Key)
		assert.Equal(t, e.Key, d.Code)
		assert.Equal(t, e.Value.(Record)["name"], d.Title)
	}
}

func TestLoad_AllPreservesDeclarationOrder(t *testing.T) {
	c := loadTest(t)
	assert.Equal(t, []string{"ЗО 01", "ПО 01", "ПО 02"}, c.Codes())

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, "ПО 02", all[2].Code)

	// Mutating the returned slice must not affect the catalog.
	all[0].Title = "changed"
	d, err := c.Get("ЗО 01")
	require.NoError(t, err)
	assert.Equal(t, "Математичний аналіз", d.Title)
}

func TestCatalog_ReturnedDisciplinesAreCopies(t *testing.T) {
	c := loadTest(t)

	d, err := c.Get("ПО 02")
	require.NoError(t, err)
	d.Subdisciplines[0].Title = "changed"
	d.Subdisciplines[1].Lecturer.Name = "changed"
	d.Lecturer.Name = "changed"

	all := c.All()
	all[2].Subdisciplines[2].Credits = 99
	all[0].Lecturer.Bio = "changed"

	again, err := c.Get("ПО 02")
	require.NoError(t, err)
	assert.Equal(t, "Механіка", again.Subdisciplines[0].Title)
	assert.Equal(t, "Олена Коваль", again.Subdisciplines[1].Lecturer.Name)
	assert.Equal(t, "Іван Петренко", again.Lecturer.Name)
	assert.Equal(t, 1.0, again.Subdisciplines[2].Credits)
	assert.Equal(t, 6.0, again.TotalCredits())

	l, err := c.Lecturer("L1")
	require.NoError(t, err)
	assert.Equal(t, "Іван Петренко", l.Name)
	assert.Empty(t, l.Bio)
}

func TestCatalog_MappingForIsACopy(t *testing.T) {
	c, err := LoadInput(Input{
		Disciplines:  testDisciplines(),
		Lecturers:    testLecturers(),
		Competencies: Entries{{Key: "ЗК 1", Value: "Знання"}},
		Mappings:     Entries{{Key: "ЗО 01", Value: Record{"competencies": []any{"ЗК 1"}}}},
	})
	require.NoError(t, err)

	m, ok := c.MappingFor("ЗО 01")
	require.True(t, ok)
	m.Competencies[0] = "changed"

	m, _ = c.MappingFor("ЗО 01")
	assert.Equal(t, []string{"ЗК 1"}, m.Competencies)
}

func TestLoad_DanglingLecturer(t *testing.T) {
	disciplines := Entries{{Key: "ПО 01", Value: Record{"name": "Програмування", "credits": 4, "lecturer_id": "L99"}}}
	_, err := Load(disciplines, testLecturers(), nil)
	requireCategory(t, err, errors.CategoryReference)

	classified, ok := errors.AsClassified(err)
	require.True(t, ok)
	id, _ := classified.Context().GetString("lecturer_id")
	assert.Equal(t, "L99", id)
}

func TestLoad_SchemaErrors(t *testing.T) {
	tests := []struct {
		name        string
		disciplines Entries
		lecturers   Entries
	}{
		{
			name:        "missing discipline name",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"credits": 4, "lecturer_id": "L1"}}},
		},
		{
			name:        "missing credits",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"name": "X", "lecturer_id": "L1"}}},
		},
		{
			name:        "credits as string",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"name": "X", "credits": "4", "lecturer_id": "L1"}}},
		},
		{
			name:        "non-positive credits",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"name": "X", "credits": 0, "lecturer_id": "L1"}}},
		},
		{
			name:        "missing lecturer_id",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"name": "X", "credits": 4}}},
		},
		{
			name: "duplicate code",
			disciplines: Entries{
				{Key: "ПО 01", Value: Record{"name": "X", "credits": 4, "lecturer_id": "L1"}},
				{Value: Record{"code": "ПО 01", "name": "Y", "credits": 4, "lecturer_id": "L1"}},
			},
		},
		{
			name:        "code field disagrees with key",
			disciplines: Entries{{Key: "ПО 01", Value: Record{"code": "ПО 02", "name": "X", "credits": 4, "lecturer_id": "L1"}}},
		},
		{
			name:        "discipline is a scalar",
			disciplines: Entries{{Key: "ПО 01", Value: "Програмування"}},
		},
		{
			name:      "lecturer missing name",
			lecturers: Entries{{Key: "L1", Value: Record{"title": "доцент"}}},
		},
		{
			name: "duplicate lecturer",
			lecturers: Entries{
				{Key: "L1", Value: Record{"name": "A"}},
				{Value: Record{"lecturer_id": "L1", "name": "B"}},
			},
		},
		{
			name: "duplicate sub-discipline code",
			disciplines: Entries{{Key: "ПО 02", Value: Record{
				"name": "X", "lecturer_id": "L1",
				"subdisciplines": []any{
					Record{"code": "A", "name": "a", "credits": 1},
					Record{"code": "A", "name": "b", "credits": 1},
				},
			}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lecturers := tt.lecturers
			if lecturers == nil {
				lecturers = testLecturers()
			}
			_, err := Load(tt.disciplines, lecturers, nil)
			requireCategory(t, err, errors.CategorySchema)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	c := loadTest(t)
	_, err := c.Get("ПО 99")
	requireCategory(t, err, errors.CategoryNotFound)

	_, err = c.Get("ПО 02.1")
	requireCategory(t, err, errors.CategoryNotFound)

	_, err = c.Lecturer("nobody")
	requireCategory(t, err, errors.CategoryNotFound)
}

func TestLoad_Subdisciplines(t *testing.T) {
	c := loadTest(t)
	d, err := c.Get("ПО 02")
	require.NoError(t, err)

	require.Len(t, d.Subdisciplines, 3)
	assert.Equal(t, []string{"ПО 02.1", "ПО 02.2", "ПО 02.3"},
		[]string{d.Subdisciplines[0].Code, d.Subdisciplines[1].Code, d.Subdisciplines[2].Code})

	// Inherited and explicit lecturers.
	assert.Equal(t, "L1", d.Subdisciplines[0].LecturerID)
	assert.Equal(t, "Іван Петренко", d.Subdisciplines[0].Lecturer.Name)
	assert.Equal(t, "L2", d.Subdisciplines[1].LecturerID)

	// Derived totals.
	assert.Equal(t, 6.0, d.Credits)
	assert.Equal(t, 6.0, d.TotalCredits())
	assert.Equal(t, "Залік, Іспит", d.AllControls())
	assert.Equal(t, "Залік, Іспит", d.Control)
}

func TestLoad_SubdisciplinesAsPlainMapAreSorted(t *testing.T) {
	disciplines := Entries{{Key: "ПО 03", Value: map[string]any{
		"name": "X", "credits": 5, "lecturer_id": "L1",
		"subdisciplines": map[string]any{
			"b": map[string]any{"name": "B", "credits": 2},
			"a": map[string]any{"name": "A", "credits": 3},
		},
	}}}
	c, err := Load(disciplines, testLecturers(), nil)
	require.NoError(t, err)
	d, err := c.Get("ПО 03")
	require.NoError(t, err)
	require.Len(t, d.Subdisciplines, 2)
	assert.Equal(t, "a", d.Subdisciplines[0].Code)
	assert.Equal(t, 5.0, d.Credits, "explicit credits are kept")
	assert.Equal(t, 5.0, d.TotalCredits())
}

func TestLoad_NestedElectivesRequireLecturer(t *testing.T) {
	disciplines := Entries{{Key: "ПВ 01", Value: Record{
		"name": "Дисципліна вільного вибору", "credits": 4, "lecturer_id": "L1",
		"electives": []any{
			Record{"code": "ПВ 01.1", "name": "Фотоніка", "credits": 4, "lecturer_id": "L2"},
		},
	}}}
	c, err := Load(disciplines, testLecturers(), nil)
	require.NoError(t, err)
	d, err := c.Get("ПВ 01")
	require.NoError(t, err)
	require.Len(t, d.Electives, 1)
	assert.Equal(t, CategoryElective, d.Electives[0].Category)
	assert.Equal(t, "Олена Коваль", d.Electives[0].Lecturer.Name)
	assert.Equal(t, 1, c.Len(), "electives are not indexed")

	disciplines[0].Value.(Record)["electives"] = []any{Record{"code": "ПВ 01.1", "name": "Фотоніка", "credits": 4}}
	_, err = Load(disciplines, testLecturers(), nil)
	requireCategory(t, err, errors.CategorySchema)
}

func TestLoadInput_ElectiveSectionAndMappings(t *testing.T) {
	in := Input{
		Disciplines: testDisciplines(),
		Electives: Entries{
			{Key: "ПВ 01", Value: Record{"name": "Фотоніка", "credits": 4, "control": "Залік", "lecturer_id": "L2"}},
			{Key: "Вибір 2", Value: Record{"name": "Інше", "credits": 4, "lecturer_id": "L2"}},
		},
		Lecturers: testLecturers(),
		Competencies: Entries{
			{Key: "ЗК 1", Value: "Здатність застосовувати знання"},
			{Key: "ФК 6", Value: "Використання сучасних теоретичних уявлень"},
			{Key: "ІК", Value: Record{"description": "Інтегральна"}},
		},
		ProgramResults: Entries{
			{Key: "ПРН 1", Value: "Знати сучасну фізику"},
			{Key: "ПРН 2", Value: "Застосовувати математичні методи"},
		},
		Mappings: Entries{
			{Key: "ЗО 01", Value: Record{"competencies": []any{"ФК 6", "ЗК 1", "ІК"}, "program_results": []any{"ПРН 2"}}},
			{Key: "ПВ 01", Value: "ЗК 1, ФК 6"},
		},
		Program: Record{"degree": "Бакалавр", "year": 2024, "page_id": 123, "title": "Прикладна фізика"},
	}

	c, err := LoadInput(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"ЗО 01", "ПО 01", "ПО 02", "ПВ 01", "Вибір 2"}, c.Codes())
	el, err := c.Get("Вибір 2")
	require.NoError(t, err)
	assert.Equal(t, CategoryElective, el.Category)

	general, professional := c.SplitCompetencies("ЗО 01")
	assert.Equal(t, []Outcome{{ID: "ЗК 1", Description: "Здатність застосовувати знання"}}, general)
	assert.Equal(t, []Outcome{{ID: "ФК 6", Description: "Використання сучасних теоретичних уявлень"}}, professional)
	assert.Len(t, c.Competencies("ЗО 01"), 3)
	assert.Equal(t, []Outcome{{ID: "ПРН 2", Description: "Застосовувати математичні методи"}}, c.ProgramResults("ЗО 01"))

	m, ok := c.MappingFor("ПВ 01")
	require.True(t, ok)
	assert.Equal(t, []string{"ЗК 1", "ФК 6"}, m.Competencies)
	assert.Nil(t, c.Competencies("ПО 01"))

	p := c.Program()
	assert.Equal(t, Program{Title: "Прикладна фізика", Degree: "Бакалавр", Year: "2024", PageID: 123}, p)
}

func TestLoadInput_MappingReferences(t *testing.T) {
	base := func() Input {
		return Input{
			Disciplines:  testDisciplines(),
			Lecturers:    testLecturers(),
			Competencies: Entries{{Key: "ЗК 1", Value: "x"}},
		}
	}

	in := base()
	in.Mappings = Entries{{Key: "ПО 77", Value: Record{"competencies": []any{"ЗК 1"}}}}
	_, err := LoadInput(in)
	requireCategory(t, err, errors.CategoryReference)

	in = base()
	in.Mappings = Entries{{Key: "ПО 01", Value: Record{"competencies": []any{"ЗК 9"}}}}
	_, err = LoadInput(in)
	requireCategory(t, err, errors.CategoryReference)

	in = base()
	in.Mappings = Entries{{Key: "ПО 01", Value: Record{"competencies": []any{1}}}}
	_, err = LoadInput(in)
	requireCategory(t, err, errors.CategorySchema)

	// Without a description table any identifier is accepted.
	in = base()
	in.Competencies = nil
	in.Mappings = Entries{{Key: "ПО 01", Value: Record{"competencies": []any{"ЗК 9"}}}}
	c, err := LoadInput(in)
	require.NoError(t, err)
	assert.Equal(t, []Outcome{{ID: "ЗК 9"}}, c.Competencies("ПО 01"))
}

func TestStats(t *testing.T) {
	c, err := LoadInput(Input{
		Disciplines:  testDisciplines(),
		Lecturers:    testLecturers(),
		Competencies: Entries{{Key: "ЗК 1", Value: "a"}, {Key: "ЗК 2", Value: "b"}},
		Mappings: Entries{
			{Key: "ЗО 01", Value: Record{"competencies": []any{"ЗК 1"}}},
			{Key: "ПО 02", Value: Record{"competencies": []any{"ЗК 1"}}},
		},
	})
	require.NoError(t, err)

	s := c.Stats()
	assert.Equal(t, 3, s.Disciplines)
	assert.Equal(t, 2, s.Lecturers)
	assert.Equal(t, 2, s.Mapped)
	assert.Equal(t, []string{"ПО 01"}, s.Unmapped)
	assert.Equal(t, []Usage{{ID: "ЗК 1", Count: 2}, {ID: "ЗК 2", Count: 0}}, s.CompetencyUsage)
	assert.Empty(t, s.ProgramResultUsage)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "ПО_01.html", FileName("ПО 01"))
	assert.Equal(t, "ПО_01_02.html", FileName("ПО 01/02"))
}
