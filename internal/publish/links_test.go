package publish

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

func TestLinkSet_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wp_links", "links.yaml")

	ls := NewLinkSet(catalog.Program{Year: "2024", Degree: "Бакалавр"})
	ls.Set("ПО 02", "https://phys.example/po-02/")
	ls.Merge(map[string]string{"ЗО 01": "https://phys.example/zo-01/", "ПО 02": "https://phys.example/po-02-v2/"})
	require.NoError(t, ls.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `year: "2024"
degree: Бакалавр
links:
  ЗО 01: https://phys.example/zo-01/
  ПО 02: https://phys.example/po-02-v2/
`, string(data))

	loaded, err := LoadLinks(path)
	require.NoError(t, err)
	assert.Equal(t, ls, loaded)
	assert.Equal(t, []string{"ЗО 01", "ПО 02"}, loaded.Codes())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestLoadLinks_Missing(t *testing.T) {
	ls, err := LoadLinks(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, ls.Links)
}

func TestLoadLinks_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("links: [unclosed"), 0o600))
	_, err := LoadLinks(bad)
	assert.True(t, errors.HasCategory(err, errors.CategoryParse), "got %v", err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("links:\n  ПО 01: \"\"\n"), 0o600))
	_, err = LoadLinks(empty)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation), "got %v", err)
}
