// Package mappingcsv converts discipline-to-outcome mappings between CSV sheets
// and the catalog.
package mappingcsv

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Column header candidates, matched case-insensitively: exact names first, then
// substrings in either direction.
var (
	codeHeaders    = []string{"шифр", "код", "code", "шифр дисципліни"}
	titleHeaders   = []string{"назва", "дисципліна", "назва дисципліни", "name", "discipline"}
	compHeaders    = []string{"компетентності", "компетенції", "competencies"}
	resultsHeaders = []string{"результати", "програмні результати", "прн", "program_results", "results"}
)

// Sheet is a decoded mapping sheet.
type Sheet struct {
	// Mappings holds rows that name at least one outcome, in sheet order.
	Mappings []catalog.Mapping
	// Titles maps every code in the sheet to its title cell.
	Titles map[string]string
	// Warnings lists unreadable and repeated rows.
	Warnings []string
}

// Read decodes a mapping sheet with a header row naming the code, title,
// competency and program-result columns. UTF-8 (with or without BOM), UTF-16
// with BOM and Windows-1251 input are accepted.
func Read(data []byte) (*Sheet, error) {
	text, err := decode(data)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, errors.SchemaError("mapping sheet has no header row").Build()
		}
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to read mapping sheet header").Build()
	}
	cols, err := findColumns(header)
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Titles: make(map[string]string)}
	index := make(map[string]int)
	for {
		row, err := r.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			sheet.Warnings = append(sheet.Warnings, err.Error())
			continue
		}
		line, _ := r.FieldPos(0)

		code := strings.TrimSpace(cell(row, cols.code))
		if code == "" {
			continue
		}
		if title := strings.TrimSpace(cell(row, cols.title)); title != "" {
			sheet.Titles[code] = title
		}
		m := catalog.Mapping{
			Code:           code,
			Competencies:   ParseItems(cell(row, cols.competencies)),
			ProgramResults: ParseItems(cell(row, cols.results)),
		}
		if len(m.Competencies) == 0 && len(m.ProgramResults) == 0 {
			continue
		}
		if i, dup := index[code]; dup {
			sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("line %d: %s repeated, later row wins", line, code))
			sheet.Mappings[i] = m
			continue
		}
		index[code] = len(sheet.Mappings)
		sheet.Mappings = append(sheet.Mappings, m)
	}
	return sheet, nil
}

var (
	itemSeparators = strings.NewReplacer(";", ",", "\n", ",")
	codeNumber     = regexp.MustCompile(`(\p{Lu}+)(\d)`)
)

// ParseItems splits an outcome cell on commas, semicolons and newlines. Dashes
// and "немає" are dropped and a missing space between letters and number is
// restored ("ЗК1" -> "ЗК 1").
func ParseItems(s string) []string {
	var items []string
	for _, item := range strings.Split(itemSeparators.Replace(s), ",") {
		item = strings.TrimSpace(item)
		if item == "" || item == "-" || strings.EqualFold(item, "немає") {
			continue
		}
		items = append(items, codeNumber.ReplaceAllString(item, "$1 $2"))
	}
	return items
}

type columns struct {
	code, title, competencies, results int
}

func findColumns(header []string) (columns, error) {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	taken := make(map[int]bool, 4)
	var missing []string
	find := func(label string, names []string) int {
		if i := matchColumn(lower, names, taken); i >= 0 {
			taken[i] = true
			return i
		}
		missing = append(missing, label)
		return -1
	}

	cols := columns{
		code:         find("code", codeHeaders),
		competencies: find("competencies", compHeaders),
		results:      find("program results", resultsHeaders),
		title:        find("title", titleHeaders),
	}
	if len(missing) > 0 {
		return cols, errors.SchemaError("mapping sheet is missing columns").
			WithContext("missing", strings.Join(missing, ", ")).
			WithContext("available", strings.Join(header, ", ")).
			Build()
	}
	return cols, nil
}

func matchColumn(lower, names []string, taken map[int]bool) int {
	for _, name := range names {
		for i, col := range lower {
			if !taken[i] && col == name {
				return i
			}
		}
	}
	for _, name := range names {
		for i, col := range lower {
			if !taken[i] && col != "" && (strings.Contains(col, name) || strings.Contains(name, col)) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

var bomUTF8 = []byte{0xEF, 0xBB, 0xBF}

func decode(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}), bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		out, _, err := transform.Bytes(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder(), data)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryParse, "invalid UTF-16 mapping sheet").Build()
		}
		return out, nil
	case utf8.Valid(data):
		return data, nil
	default:
		out, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), data)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryParse, "undecodable mapping sheet").Build()
		}
		return out, nil
	}
}
