package dataset

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Top-level keys of the curriculum file.
const (
	KeyDisciplines    = "disciplines"
	KeyElectives      = "elective_disciplines"
	KeyLecturers      = "lecturers"
	KeyMappings       = "mappings"
	KeyCompetencies   = "competencies"
	KeyProgramResults = "program_results"
	KeyMetadata       = "metadata"

	// legacyElectivesKey is the misspelled section name used by older curriculum files.
	legacyElectivesKey = "elevative_disciplines"
)

// Files names the data files of one curriculum. Lecturers is optional when the
// curriculum declares them inline.
type Files struct {
	Curriculum string
	Lecturers  string
}

// Document is a decoded curriculum ready for catalog.LoadInput.
type Document struct {
	Input catalog.Input
	// Unknown lists top-level curriculum keys that were ignored, in file order.
	Unknown []string
}

// Load reads and decodes the curriculum and lecturer files.
func Load(files Files) (*Document, error) {
	curriculum, err := readFile(files.Curriculum)
	if err != nil {
		return nil, err
	}
	var lecturers []byte
	if files.Lecturers != "" {
		if lecturers, err = readFile(files.Lecturers); err != nil {
			return nil, err
		}
	}
	return decode(curriculum, lecturers, files)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read data file").
			WithContext("file", path).
			Build()
	}
	return data, nil
}

// Decode parses curriculum and (optional) lecturer YAML documents. Mapping order is
// preserved so the catalog keeps declaration order.
func Decode(curriculum, lecturers []byte) (*Document, error) {
	return decode(curriculum, lecturers, Files{})
}

func decode(curriculum, lecturers []byte, files Files) (*Document, error) {
	root, err := parseMapping(curriculum, "curriculum", files.Curriculum)
	if err != nil {
		return nil, err
	}

	doc := &Document{}
	in := &doc.Input
	for _, e := range root {
		switch e.Key {
		case KeyDisciplines:
			in.Disciplines, err = sectionEntries(e, in.Disciplines)
		case KeyElectives, legacyElectivesKey:
			in.Electives, err = sectionEntries(e, in.Electives)
		case KeyLecturers:
			in.Lecturers, err = sectionEntries(e, in.Lecturers)
		case KeyMappings:
			in.Mappings, err = sectionEntries(e, in.Mappings)
		case KeyCompetencies:
			in.Competencies, err = sectionEntries(e, in.Competencies)
		case KeyProgramResults:
			in.ProgramResults, err = sectionEntries(e, in.ProgramResults)
		case KeyMetadata:
			in.Program, err = metadataRecord(e)
		default:
			doc.Unknown = append(doc.Unknown, e.Key)
		}
		if err != nil {
			return nil, err
		}
	}

	if len(bytes.TrimSpace(lecturers)) > 0 {
		extra, err := decodeLecturers(lecturers, files.Lecturers)
		if err != nil {
			return nil, err
		}
		in.Lecturers = append(in.Lecturers, extra...)
	}
	return doc, nil
}

// decodeLecturers accepts either a bare id-to-record mapping or one wrapped in a
// "lecturers" key.
func decodeLecturers(data []byte, file string) (catalog.Entries, error) {
	root, err := parseMapping(data, "lecturers", file)
	if err != nil {
		return nil, err
	}
	if len(root) == 1 && root[0].Key == KeyLecturers {
		return sectionEntries(root[0], nil)
	}
	return root, nil
}

func parseMapping(data []byte, what, file string) (catalog.Entries, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "invalid "+what+" yaml").
			WithContext("file", file).
			Build()
	}
	if node.Kind == 0 || (node.Kind == yaml.DocumentNode && len(node.Content) == 0) {
		return nil, nil
	}
	v, err := valueFromNode(&node)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "invalid "+what+" yaml").
			WithContext("file", file).
			Build()
	}
	if v == nil {
		return nil, nil
	}
	entries, ok := v.(catalog.Entries)
	if !ok {
		return nil, errors.SchemaError(what+" file must contain a mapping at the top level").
			WithContext("file", file).
			Build()
	}
	return entries, nil
}

// sectionEntries normalizes a section value and appends it to prev. Sequences become
// keyless entries; the catalog takes their code from the "code" field.
func sectionEntries(e catalog.Entry, prev catalog.Entries) (catalog.Entries, error) {
	switch v := e.Value.(type) {
	case nil:
		return prev, nil
	case catalog.Entries:
		return append(prev, v...), nil
	case []any:
		for _, item := range v {
			prev = append(prev, catalog.Entry{Value: item})
		}
		return prev, nil
	default:
		return nil, errors.SchemaError("section must be a mapping or a list").
			WithContext("path", e.Key).
			Build()
	}
}

func metadataRecord(e catalog.Entry) (catalog.Record, error) {
	switch v := e.Value.(type) {
	case nil:
		return nil, nil
	case catalog.Entries:
		rec := make(catalog.Record, len(v))
		for _, f := range v {
			rec[f.Key] = f.Value
		}
		return rec, nil
	default:
		return nil, errors.SchemaError("metadata must be a mapping").WithContext("path", e.Key).Build()
	}
}

// Catalog builds the validated catalog from the decoded document.
func (d *Document) Catalog() (*catalog.Catalog, error) {
	return catalog.LoadInput(d.Input)
}
