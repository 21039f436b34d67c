package reconcile

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

const indexDoc = `<!DOCTYPE html>
<html><body>
<!-- hand-authored notes: <a href="ignored.html">not a tag</a> -->
<table>
<tr><td>ПО 01</td><td><a href="ПО_01.html" data-discipline-code="ПО 01">Програмування</a></td></tr>
<tr><td>ПО 02</td><td><a   data-discipline-code='ПО 02'
    class="link"  href = '#' >Фізика</a></td></tr>
<tr><td>ЗО 01</td><td><a data-discipline-code="ЗО 01" title="no href">Філософія</a></td></tr>
<tr><td>ПВ 01</td><td><a href=ПВ_01.html>Фотоніка</a></td></tr>
<tr><td>ext</td><td><a href="https://example.org/about">About</a></td></tr>
</table>
<script>var s = '<a data-discipline-code="ПО 01" href="#">';</script>
</body></html>
`

func reconcile(t *testing.T, doc string, links map[string]string) *Result {
	t.Helper()
	res, err := Reconcile([]byte(doc), links)
	require.NoError(t, err)
	return res
}

var hrefAttr = regexp.MustCompile(`\s*href(\s*=\s*("[^"]*"|'[^']*'|[^\s>]+))?`)

// maskHrefs removes every href attribute so that documents can be compared outside
// the spans the reconciler is allowed to touch.
func maskHrefs(doc []byte) string {
	return hrefAttr.ReplaceAllString(string(doc), "")
}

func TestScan_FindsAnchorsInDocumentOrder(t *testing.T) {
	anchors, err := Scan([]byte(indexDoc), nil)
	require.NoError(t, err)
	require.Len(t, anchors, 4)

	assert.Equal(t, "ПО 01", anchors[0].Code)
	assert.Equal(t, SourceMarker, anchors[0].Source)
	assert.Equal(t, "ПО_01.html", anchors[0].Href)
	assert.Equal(t, "ПО 02", anchors[1].Code)
	assert.Equal(t, "#", anchors[1].Href)
	assert.Equal(t, "ЗО 01", anchors[2].Code)
	assert.Empty(t, anchors[2].Href)
	assert.Equal(t, "ПВ 01", anchors[3].Code)
	assert.Equal(t, SourceLegacy, anchors[3].Source)
}

func TestReconcile_RewritesOnlyHrefValues(t *testing.T) {
	links := map[string]string{
		"ПО 01": "https://phys.example/po-01-programuvannia/",
		"ПО 02": "https://phys.example/po-02/?a=1&b=2",
		"ЗО 01": "https://phys.example/zo-01/",
		"ПВ 01": "https://phys.example/pv-01/",
	}
	res := reconcile(t, indexDoc, links)

	assert.Equal(t, StatusReconciled, res.Status)
	assert.True(t, res.Reconciled())
	assert.Empty(t, res.Unmatched)
	assert.Empty(t, res.Pending)
	assert.Equal(t, []string{"ПО 01", "ПО 02", "ЗО 01", "ПВ 01"}, res.Updated)

	out := string(res.Document)
	assert.Contains(t, out, `<a href="https://phys.example/po-01-programuvannia/" data-discipline-code="ПО 01">`)
	assert.Contains(t, out, "href = 'https://phys.example/po-02/?a=1&amp;b=2' >")
	assert.Contains(t, out, `<a href="https://phys.example/zo-01/" data-discipline-code="ЗО 01" title="no href">`)
	assert.Contains(t, out, `<a href="https://phys.example/pv-01/">Фотоніка</a>`)
	assert.Contains(t, out, `var s = '<a data-discipline-code="ПО 01" href="#">';`, "script content is not markup")
	assert.Contains(t, out, `<a href="ignored.html">not a tag</a> -->`)
	assert.Contains(t, out, `<a href="https://example.org/about">`)

	assert.Equal(t, maskHrefs([]byte(indexDoc)), maskHrefs(res.Document))
}

func TestReconcile_Idempotent(t *testing.T) {
	links := map[string]string{
		"ПО 01": "https://phys.example/a/",
		"ПО 02": "https://phys.example/b/",
		"ПВ 01": "https://phys.example/c/",
		"ЗО 01": "https://phys.example/d/",
	}
	first := reconcile(t, indexDoc, links)
	second := reconcile(t, string(first.Document), links)

	assert.Equal(t, string(first.Document), string(second.Document))
	assert.False(t, second.Changed())
	assert.Equal(t, StatusReconciled, second.Status)
	require.Len(t, second.Anchors, 4)
	assert.Equal(t, SourceURL, second.Anchors[3].Source, "legacy anchors are recognized by their published URL")
}

func TestReconcile_SupersetMapping(t *testing.T) {
	doc0 := `<ul>
<li><a href="#" data-discipline-code="A">A</a></li>
<li><a href="#" data-discipline-code="B">B</a></li>
<li><a href="#" data-discipline-code="C">C</a></li>
</ul>`
	step1 := reconcile(t, doc0, map[string]string{"A": "urlA"})
	assert.Equal(t, []string{"B", "C"}, step1.Pending)

	step2 := reconcile(t, string(step1.Document), map[string]string{"A": "urlA", "B": "urlB"})
	assert.Equal(t, []string{"B"}, step2.Updated)
	assert.Equal(t, `<ul>
<li><a href="urlA" data-discipline-code="A">A</a></li>
<li><a href="urlB" data-discipline-code="B">B</a></li>
<li><a href="#" data-discipline-code="C">C</a></li>
</ul>`, string(step2.Document))

	step3 := reconcile(t, string(step2.Document), map[string]string{"A": "urlA2", "B": "urlB"})
	assert.Equal(t, []string{"A"}, step3.Updated)
	assert.Contains(t, string(step3.Document), `href="urlA2"`)
}

func TestReconcileWith_LegacyAnchorFollowsChangedURL(t *testing.T) {
	doc := `<ul><li><a href="ПО_01.html">Програмування</a></li></ul>`
	old := map[string]string{"ПО 01": "https://x/old/"}

	first := reconcile(t, doc, old)
	assert.Equal(t, StatusReconciled, first.Status)
	assert.Contains(t, string(first.Document), `href="https://x/old/"`)

	current := map[string]string{"ПО 01": "https://x/new/", "ПО 02": "https://x/po-02/"}

	// Without the earlier mapping the anchor is no longer recognizable.
	stale := reconcile(t, string(first.Document), current)
	assert.Equal(t, []string{"ПО 01", "ПО 02"}, stale.Unmatched)

	second, err := ReconcileWith(first.Document, current, Options{Previous: old})
	require.NoError(t, err)
	assert.Equal(t, `<ul><li><a href="https://x/new/">Програмування</a></li></ul>`, string(second.Document))
	assert.Equal(t, []string{"ПО 01"}, second.Updated)
	assert.Equal(t, []string{"ПО 02"}, second.Unmatched)
	require.Len(t, second.Anchors, 1)
	assert.Equal(t, SourceURL, second.Anchors[0].Source)

	third, err := ReconcileWith(second.Document, current, Options{Previous: old})
	require.NoError(t, err)
	assert.False(t, third.Changed())
}

func TestReconcileWith_CurrentURLWinsOverPrevious(t *testing.T) {
	doc := `<a href="https://x/shared/">x</a>`
	res, err := ReconcileWith([]byte(doc), map[string]string{"B": "https://x/shared/"},
		Options{Previous: map[string]string{"A": "https://x/shared/"}})
	require.NoError(t, err)
	require.Len(t, res.Anchors, 1)
	assert.Equal(t, "B", res.Anchors[0].Code)
	assert.False(t, res.Changed())
}

func TestReconcile_UnmatchedCodes(t *testing.T) {
	res := reconcile(t, indexDoc, map[string]string{"Z": "urlZ", "Y": "urlY"})
	assert.Equal(t, StatusPartial, res.Status)
	assert.False(t, res.Reconciled())
	assert.Equal(t, []string{"Y", "Z"}, res.Unmatched)
	assert.Equal(t, indexDoc, string(res.Document))
}

func TestReconcile_AttributeVariants(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unquoted", `<a data-discipline-code=X href=#>x</a>`, `<a data-discipline-code=X href="u&amp;v">x</a>`},
		{"valueless href", `<a href data-discipline-code="X">x</a>`, `<a href="u&amp;v" data-discipline-code="X">x</a>`},
		{"missing href", `<A DATA-DISCIPLINE-CODE="X">x</A>`, `<A href="u&amp;v" DATA-DISCIPLINE-CODE="X">x</A>`},
		{"uppercase attribute", `<a HREF="#" data-discipline-code="X">`, `<a HREF="u&amp;v" data-discipline-code="X">`},
		{"self closing", `<p><a data-discipline-code="X" href="#"/></p>`, `<p><a data-discipline-code="X" href="u&amp;v"/></p>`},
		{"duplicate href", `<a href="#" href="other" data-discipline-code="X">`, `<a href="u&amp;v" href="other" data-discipline-code="X">`},
		{"whitespace", "<a\n\tdata-discipline-code = \"X\"\n\thref\t=\t\"#\"\n>", "<a\n\tdata-discipline-code = \"X\"\n\thref\t=\t\"u&amp;v\"\n>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcile(t, tt.doc, map[string]string{"X": "u&v"})
			assert.Equal(t, tt.want, string(res.Document))
			assert.Equal(t, StatusReconciled, res.Status)

			again := reconcile(t, string(res.Document), map[string]string{"X": "u&v"})
			assert.Equal(t, string(res.Document), string(again.Document))
		})
	}
}

func TestReconcile_EscapedMarkerIsMatchedLiterally(t *testing.T) {
	doc := `<a data-discipline-code="A&amp;B" href="#">x</a>`
	res := reconcile(t, doc, map[string]string{"A&B": "url"})
	assert.Equal(t, []string{"A&B"}, res.Unmatched)
	assert.Equal(t, []string{"A&amp;B"}, res.Pending)
	assert.Equal(t, doc, string(res.Document))
}

func TestReconcile_AmbiguousPublishedURLIsNotUsed(t *testing.T) {
	doc := `<a href="shared">x</a>`
	res := reconcile(t, doc, map[string]string{"A": "shared", "B": "shared"})
	assert.Empty(t, res.Anchors)
	assert.Equal(t, []string{"A", "B"}, res.Unmatched)
}

func TestReconcile_InputNotModified(t *testing.T) {
	doc := []byte(`<a data-discipline-code="X" href="#">x</a>`)
	orig := string(doc)
	_, err := Reconcile(doc, map[string]string{"X": "https://example.org/x"})
	require.NoError(t, err)
	assert.Equal(t, orig, string(doc))
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      []byte
		links    map[string]string
		category errors.ErrorCategory
	}{
		{"empty", nil, nil, errors.CategoryParse},
		{"whitespace", []byte(" \n\t"), nil, errors.CategoryParse},
		{"binary", []byte{0x89, 'P', 'N', 'G', 0, 0}, nil, errors.CategoryParse},
		{"nul", []byte("<a>\x00</a>"), nil, errors.CategoryParse},
		{"no tags", []byte("just some text"), nil, errors.CategoryParse},
		{"empty url", []byte("<p></p>"), map[string]string{"X": " "}, errors.CategoryValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Reconcile(tt.doc, tt.links)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, tt.category), "got %v", err)
		})
	}
}

func TestApplyPatches(t *testing.T) {
	src := []byte("0123456789")
	out, err := applyPatches(src, []patch{
		{start: 1, end: 3, replacement: []byte("ab")},
		{start: 8, end: 8, replacement: []byte("X")},
		{start: 5, end: 7, replacement: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "0ab347X89", string(out))
	assert.Equal(t, "0123456789", string(src))

	_, err = applyPatches(src, []patch{{start: 1, end: 4}, {start: 3, end: 5}})
	require.Error(t, err)
	_, err = applyPatches(src, []patch{{start: 9, end: 11}})
	require.Error(t, err)
}
