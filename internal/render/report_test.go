package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReport_Matrices(t *testing.T) {
	out, err := RenderReport(testCatalog(t), MustParse("report", "{{ competency_matrix }}"), Options{})
	require.NoError(t, err)

	assert.Contains(t, out, `<table class="matrix competency-matrix">`)
	assert.Contains(t, out, `<th title="Фізика &amp; практикум">ПО 02</th><th title="Філософія">ЗО 01</th>`)
	assert.Contains(t, out,
		`<tr><th title="Здатність до абстрактного мислення">ЗК 1</th><td class="filled">+</td><td class="empty"></td><td class="empty"></td><td class="empty"></td><td class="count">1</td></tr>`)
	assert.Contains(t, out, `<th title="Знання &lt;фізики&gt;">ФК 2</th>`)

	out, err = RenderReport(testCatalog(t), MustParse("report", "{{ program_result_matrix }}"), Options{})
	require.NoError(t, err)
	assert.Contains(t, out, `<table class="matrix program-result-matrix">`)
	assert.Contains(t, out, `>ПРН 1</th><td class="filled">+</td>`)
}

func TestRenderReport_SummaryAndUnmapped(t *testing.T) {
	src := "{{ discipline_count }}/{{ mapped_count }}/{{ unmapped_count }}\n{{ discipline_summary }}\n{{ unmapped_disciplines }}"
	out, err := RenderReport(testCatalog(t), MustParse("report", src), Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "4/1/3\n")
	assert.Contains(t, out, `<tr><td>ПО 02</td><td>Фізика &amp; практикум</td><td>ФК 2, ЗК 1 <span class="count">(2)</span></td>`)
	assert.Contains(t, out, `<tr class="unmapped"><td>ЗО 01</td><td>Філософія</td><td></td><td></td></tr>`)
	assert.Contains(t, out, `<ul class="unmapped">`)
	assert.Contains(t, out, `<li><span class="code">ПВ 01</span> <span class="title">Фотоніка</span></li>`)
	assert.NotContains(t, out, `<span class="code">ПО 02</span>`)
}

func TestRenderReport_DefaultTemplate(t *testing.T) {
	tpl, err := Default(KindReport)
	require.NoError(t, err)
	at := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	out, err := RenderReport(testCatalog(t), tpl, Options{GeneratedAt: at})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>Матриця відповідності: Бакалавр 2024</title>")
	assert.Contains(t, out, "<h2>Компетентності</h2>")
	assert.Contains(t, out, `<ul class="competencies">`)
	assert.Contains(t, out, "без відповідностей: 3")
	assert.Contains(t, out, "Згенеровано 01.09.2024")
	assert.NotContains(t, out, "{{")
}

func TestRenderReport_DisciplineSlotsAreNotInScope(t *testing.T) {
	out, err := RenderReport(testCatalog(t), MustParse("report", "{{ code }}{{ index_rows }}"), Options{})
	require.NoError(t, err)
	assert.Equal(t, "{{ code }}{{ index_rows }}", out)

	_, err = RenderReport(nil, MustParse("report", ""), Options{})
	require.Error(t, err)
	_, err = RenderReport(testCatalog(t), nil, Options{})
	require.Error(t, err)
}
