package publish

import (
	"bytes"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// LinkSet is the persisted mapping from discipline code to published URL.
type LinkSet struct {
	Year   string            `yaml:"year"`
	Degree string            `yaml:"degree"`
	Links  map[string]string `yaml:"links"`
}

// NewLinkSet returns an empty set for a program.
func NewLinkSet(p catalog.Program) *LinkSet {
	return &LinkSet{Year: p.Year, Degree: p.Degree, Links: map[string]string{}}
}

// LoadLinks reads a links file. A missing file yields an empty set.
func LoadLinks(path string) (*LinkSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return &LinkSet{Links: map[string]string{}}, nil
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read links file").
			WithContext("file", path).
			Build()
	}
	var ls LinkSet
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return nil, errors.WrapError(err, errors.CategoryParse, "failed to parse links file").
			WithContext("file", path).
			Build()
	}
	if ls.Links == nil {
		ls.Links = map[string]string{}
	}
	for code, u := range ls.Links {
		if strings.TrimSpace(u) == "" {
			return nil, errors.ValidationError("links file has an empty URL").
				WithContext("file", path).
				WithContext("code", code).
				Build()
		}
	}
	return &ls, nil
}

// Set records the URL of a code.
func (l *LinkSet) Set(code, url string) {
	if l.Links == nil {
		l.Links = map[string]string{}
	}
	l.Links[code] = url
}

// Merge copies every link of other into l, overwriting existing codes.
func (l *LinkSet) Merge(other map[string]string) {
	for code, u := range other {
		l.Set(code, u)
	}
}

// Codes returns the linked codes, sorted.
func (l *LinkSet) Codes() []string {
	codes := make([]string, 0, len(l.Links))
	for code := range l.Links {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Marshal encodes the set with a stable key order.
func (l *LinkSet) Marshal() ([]byte, error) {
	str := func(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v} }

	links := &yaml.Node{Kind: yaml.MappingNode}
	for _, code := range l.Codes() {
		links.Content = append(links.Content, str(code), str(l.Links[code]))
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		str("year"), str(l.Year),
		str("degree"), str(l.Degree),
		str("links"), links,
	}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the set to path atomically, creating parent directories.
func (l *LinkSet) Save(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode links").Build()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to create links directory").
				WithContext("file", path).
				Build()
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write links file").
			WithContext("file", tmp).
			Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to replace links file").
			WithContext("file", path).
			Build()
	}
	return nil
}
