package reconcile

import (
	"bytes"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

const (
	// AttrCode is the marker attribute carrying the discipline code of an anchor.
	AttrCode = "data-discipline-code"
	attrHref = "href"

	legacySuffix = ".html"
)

// legacyCode matches the placeholder file names of indexes written before anchors
// carried a marker attribute, e.g. "ПО_01.html" or "ЗО 02.1.html".
var legacyCode = regexp.MustCompile(`^(ЗО|ПО|ПВ)[ _]\d{2}(?:\.\d+)?$`)

// Source tells how an anchor was associated with its discipline code.
type Source string

const (
	SourceMarker Source = "marker"
	SourceLegacy Source = "legacy_href"
	SourceURL    Source = "published_url"
)

// attr is one attribute of a start tag with byte offsets into the document.
type attr struct {
	name string
	// nameEnd is the offset just past the attribute name.
	nameEnd int
	// valueStart and valueEnd delimit the value without its quotes.
	valueStart, valueEnd int
	quote                byte
	hasValue             bool
}

// Anchor is a discipline link found in an index document.
type Anchor struct {
	Code   string
	Source Source
	// Href is the decoded current href value, empty when absent.
	Href string
	// Start and End delimit the start tag in the document.
	Start, End int

	tagNameEnd int
	href       *attr
}

// Scan locates the discipline anchors of doc in document order. links is used only
// to recognize anchors by their published URL and may be nil.
func Scan(doc []byte, links map[string]string) ([]Anchor, error) {
	return scan(doc, links, nil)
}

// scan also recognizes anchors whose href is still a URL of previous.
func scan(doc []byte, links, previous map[string]string) ([]Anchor, error) {
	if err := checkDocument(doc); err != nil {
		return nil, err
	}
	byURL := urlCodes(links, previous)

	z := html.NewTokenizer(bytes.NewReader(doc))
	var (
		anchors []Anchor
		offset  int
		tags    int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, errors.WrapError(err, errors.CategoryParse, "index document cannot be tokenized").
					WithContext("offset", offset).
					Build()
			}
			break
		}
		raw := z.Raw()
		start := offset
		offset += len(raw)

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tags++
			name, _ := z.TagName()
			if string(name) != "a" {
				continue
			}
			a := scanAnchor(doc, start, offset)
			if a.identify(links, byURL) {
				anchors = append(anchors, a)
			}
		case html.EndTagToken:
			tags++
		}
	}

	if tags == 0 {
		return nil, errors.ParseError("index document contains no HTML tags").Build()
	}
	return anchors, nil
}

func checkDocument(doc []byte) error {
	if len(bytes.TrimSpace(doc)) == 0 {
		return errors.ParseError("index document is empty").Build()
	}
	if !utf8.Valid(doc) {
		return errors.ParseError("index document is not valid UTF-8 text").Build()
	}
	if i := bytes.IndexByte(doc, 0); i >= 0 {
		return errors.ParseError("index document contains binary data").WithContext("offset", i).Build()
	}
	return nil
}

// scanAnchor reads the attribute spans of the start tag doc[start:end].
func scanAnchor(doc []byte, start, end int) Anchor {
	a := Anchor{Start: start, End: end}
	i := start + 1
	for i < end && !isSpace(doc[i]) && doc[i] != '>' && doc[i] != '/' {
		i++
	}
	a.tagNameEnd = i

	var attrs []attr
	for i < end {
		for i < end && (isSpace(doc[i]) || doc[i] == '/') {
			i++
		}
		if i >= end || doc[i] == '>' {
			break
		}

		nameStart := i
		i++ // a name may start with '=' in tolerant parsing
		for i < end && !isSpace(doc[i]) && doc[i] != '=' && doc[i] != '>' && doc[i] != '/' {
			i++
		}
		at := attr{name: strings.ToLower(string(doc[nameStart:i])), nameEnd: i}

		j := i
		for j < end && isSpace(doc[j]) {
			j++
		}
		if j < end && doc[j] == '=' {
			j++
			for j < end && isSpace(doc[j]) {
				j++
			}
			at.hasValue = true
			switch {
			case j < end && (doc[j] == '"' || doc[j] == '\''):
				at.quote = doc[j]
				at.valueStart = j + 1
				k := bytes.IndexByte(doc[at.valueStart:end], at.quote)
				if k < 0 {
					at.valueEnd = end - 1
					j = end
				} else {
					at.valueEnd = at.valueStart + k
					j = at.valueEnd + 1
				}
			default:
				at.valueStart = j
				for j < end && !isSpace(doc[j]) && doc[j] != '>' {
					j++
				}
				at.valueEnd = j
			}
			i = j
		}
		attrs = append(attrs, at)
	}

	// The first occurrence of an attribute wins, as in browsers.
	seen := make(map[string]bool, len(attrs))
	for k := range attrs {
		at := &attrs[k]
		if seen[at.name] {
			continue
		}
		seen[at.name] = true
		switch at.name {
		case attrHref:
			a.href = at
			if at.hasValue {
				a.Href = html.UnescapeString(string(doc[at.valueStart:at.valueEnd]))
			}
		case AttrCode:
			if at.hasValue {
				a.Code = string(doc[at.valueStart:at.valueEnd])
				a.Source = SourceMarker
			}
		}
	}
	return a
}

// identify assigns a code to an anchor without a marker attribute. It reports
// whether the anchor belongs to a discipline.
func (a *Anchor) identify(links map[string]string, byURL map[string]string) bool {
	if a.Code != "" {
		return true
	}
	if a.Href == "" {
		return false
	}
	if code, ok := legacyHrefCode(a.Href, links); ok {
		a.Code, a.Source = code, SourceLegacy
		return true
	}
	if code, ok := byURL[a.Href]; ok {
		a.Code, a.Source = code, SourceURL
		return true
	}
	return false
}

// legacyHrefCode extracts the code from a placeholder href such as "ПО_01.html".
func legacyHrefCode(href string, links map[string]string) (string, bool) {
	base := href
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	if !strings.HasSuffix(base, legacySuffix) {
		return "", false
	}
	stem := strings.TrimSuffix(base, legacySuffix)
	if unescaped, err := url.PathUnescape(stem); err == nil {
		stem = unescaped
	}
	if _, ok := links[stem]; ok {
		return stem, true
	}
	spaced := strings.ReplaceAll(stem, "_", " ")
	if _, ok := links[spaced]; ok {
		return spaced, true
	}
	if legacyCode.MatchString(stem) {
		return spaced, true
	}
	return "", false
}

// uniqueURLs maps each URL assigned to exactly one code back to that code.
func uniqueURLs(links map[string]string) map[string]string {
	out := make(map[string]string, len(links))
	dups := make(map[string]bool)
	for code, u := range links {
		if u == "" {
			continue
		}
		if _, ok := out[u]; ok {
			dups[u] = true
			continue
		}
		out[u] = code
	}
	for u := range dups {
		delete(out, u)
	}
	return out
}

// urlCodes is uniqueURLs of links extended with the URLs of previous that links
// no longer uses.
func urlCodes(links, previous map[string]string) map[string]string {
	out := uniqueURLs(links)
	current := make(map[string]bool, len(links))
	for _, u := range links {
		current[u] = true
	}
	for u, code := range uniqueURLs(previous) {
		if !current[u] {
			out[u] = code
		}
	}
	return out
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
