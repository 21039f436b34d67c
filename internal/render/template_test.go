package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
	}{
		{"invalid utf8", []byte{'a', 0xff, 0xfe}},
		{"nul byte", []byte("a\x00b")},
		{"unclosed section", []byte("{{?code}}x")},
		{"stray close", []byte("x{{/code}}")},
		{"mismatched close", []byte("{{?code}}{{#disciplines}}{{/code}}{{/disciplines}}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("t", tt.src)
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryTemplate), "got %v", err)
		})
	}
}

func TestParse_ReportsLine(t *testing.T) {
	_, err := Parse("t", []byte("a\nb\n{{/title}}"))
	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	line, _ := ce.Context().Get("line")
	assert.Equal(t, 3, line)
}

func TestUnknownTokens(t *testing.T) {
	tpl := MustParse("t", "{{ code }}{{ foo }}{{?bar}}{{ foo }}{{/bar}}{{#disciplines}}{{/disciplines}}")
	assert.Equal(t, []string{"foo", "bar"}, tpl.UnknownTokens())
}

func TestDefaults(t *testing.T) {
	for _, kind := range []string{KindDiscipline, KindIndex, KindReport} {
		tpl, err := Default(kind)
		require.NoError(t, err, kind)
		assert.Empty(t, tpl.UnknownTokens(), kind)
	}
	_, err := Default("nope")
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestLoad_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<p>{{ title }}</p>"), 0o600))

	tpl, err := Load(path, KindDiscipline)
	require.NoError(t, err)
	assert.Equal(t, path, tpl.Name())

	_, err = Load(filepath.Join(t.TempDir(), "missing.html"), KindDiscipline)
	assert.True(t, errors.HasCategory(err, errors.CategoryTemplate))

	tpl, err = Load("", KindIndex)
	require.NoError(t, err)
	assert.Equal(t, KindIndex, tpl.Name())
}
