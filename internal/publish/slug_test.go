package publish

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ПО 01: Програмування", "po-01-programuvannia"},
		{"op_Бакалавр-2024", "op-bakalavr-2024"},
		{"Їжак і ґанок", "yizhak-i-ganok"},
		{"Щастя", "shchastia"},
		{"Сільське господарство", "sil-s-ke-gospodarstvo"},
		{"ЗО 02.1: Об'єктно-орієнтоване", "zo-02-1-ob-iektno-oriientovane"},
		{"Café  Ünïcode!", "cafe-unicode"},
		{"  --  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestTitlesAndSlugs(t *testing.T) {
	d := catalog.Discipline{Code: "ПО 01", Title: "Фізика"}
	assert.Equal(t, "ПО 01: Фізика", DisciplineTitle(d))
	assert.Equal(t, "po-01-fizika", DisciplineSlug(d))

	p := catalog.Program{Degree: "Магістр", Year: "2024", PageID: 42}
	assert.Equal(t, "Освітні компоненти: Магістр 2024", IndexTitle(p))
	assert.Equal(t, "op-magistr-2024", IndexSlug(p))

	idx := IndexPage(p, "index.html", "<p/>", 16)
	assert.True(t, idx.IsIndex())
	assert.Equal(t, 42, idx.PageID)
	assert.Equal(t, 16, idx.ParentID)

	page := DisciplinePage(d, "<p/>", 42)
	assert.False(t, page.IsIndex())
	assert.Equal(t, "ПО_01.html", page.FileName)
}

func TestFingerprint(t *testing.T) {
	a := Page{Code: "X", Title: "X: t", Slug: "x-t", FileName: "X.html", Content: "<p>1</p>"}
	b := a
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b.Content = "<p>2</p>"
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))

	c := a
	c.ParentID = 5
	assert.NotEqual(t, Fingerprint(a), Fingerprint(c))
}
