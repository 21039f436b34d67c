package render

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"

	markCond  = '?'
	markGroup = '#'
	markClose = '/'
)

type nodeKind int

const (
	textNode nodeKind = iota
	slotNode
	condNode
	groupNode
)

// node is one parsed template element. raw holds the exact source of a token (or the
// opening marker of a section) so unrecognized tokens can be emitted verbatim.
type node struct {
	kind     nodeKind
	name     string
	raw      string
	closeRaw string
	children []node
}

// Template is a parsed page or index template. It is immutable and safe for
// concurrent use.
type Template struct {
	name  string
	nodes []node
}

// Name returns the name the template was parsed with.
func (t *Template) Name() string { return t.name }

type frame struct {
	node  node
	start int
}

// Parse parses template text. Tokens are {{ name }} slots, {{?name}}...{{/name}}
// conditional sections and {{#group}}...{{/group}} index groups. Anything else
// between delimiters is kept as text.
func Parse(name string, src []byte) (*Template, error) {
	if !utf8.Valid(src) {
		return nil, templateErr(name, "template is not valid UTF-8 text").Build()
	}
	if i := bytes.IndexByte(src, 0); i >= 0 {
		return nil, templateErr(name, "template contains a NUL byte").
			WithContext("line", lineAt(src, i)).
			Build()
	}

	text := string(src)
	stack := []frame{{}}
	appendNode := func(n node) {
		top := &stack[len(stack)-1].node
		if n.kind == textNode {
			if k := len(top.children); k > 0 && top.children[k-1].kind == textNode {
				top.children[k-1].raw += n.raw
				return
			}
		}
		top.children = append(top.children, n)
	}

	pos := 0
	for pos < len(text) {
		i := strings.Index(text[pos:], openDelim)
		if i < 0 {
			appendNode(node{kind: textNode, raw: text[pos:]})
			break
		}
		start := pos + i
		j := strings.Index(text[start+len(openDelim):], closeDelim)
		if j < 0 {
			appendNode(node{kind: textNode, raw: text[pos:]})
			break
		}
		end := start + len(openDelim) + j + len(closeDelim)
		if start > pos {
			appendNode(node{kind: textNode, raw: text[pos:start]})
		}
		raw := text[start:end]
		inner := strings.TrimSpace(text[start+len(openDelim) : end-len(closeDelim)])
		pos = end

		mark, ident := splitToken(inner)
		switch {
		case ident == "":
			appendNode(node{kind: textNode, raw: raw})
		case mark == 0:
			appendNode(node{kind: slotNode, name: ident, raw: raw})
		case mark == markCond || mark == markGroup:
			kind := condNode
			if mark == markGroup {
				kind = groupNode
			}
			stack = append(stack, frame{node: node{kind: kind, name: ident, raw: raw}, start: start})
		case mark == markClose:
			if len(stack) == 1 {
				return nil, templateErr(name, "closing tag without an open section").
					WithContext("section", ident).
					WithContext("line", lineAt(src, start)).
					Build()
			}
			top := stack[len(stack)-1]
			if top.node.name != ident {
				return nil, templateErr(name, "closing tag does not match the open section").
					WithContext("section", top.node.name).
					WithContext("closing", ident).
					WithContext("line", lineAt(src, start)).
					Build()
			}
			stack = stack[:len(stack)-1]
			top.node.closeRaw = raw
			appendNode(top.node)
		}
	}

	if len(stack) > 1 {
		top := stack[len(stack)-1]
		return nil, templateErr(name, "section is not closed").
			WithContext("section", top.node.name).
			WithContext("line", lineAt(src, top.start)).
			Build()
	}
	return &Template{name: name, nodes: stack[0].node.children}, nil
}

// MustParse is like Parse but panics on error. Intended for built-in templates.
func MustParse(name string, src string) *Template {
	t, err := Parse(name, []byte(src))
	if err != nil {
		panic(err)
	}
	return t
}

// splitToken returns the section marker (0 for a plain slot) and the identifier, or an
// empty identifier when inner is not a token.
func splitToken(inner string) (byte, string) {
	if inner == "" {
		return 0, ""
	}
	var mark byte
	switch inner[0] {
	case markCond, markGroup, markClose:
		mark = inner[0]
		inner = strings.TrimSpace(inner[1:])
	}
	if !isIdent(inner) {
		return 0, ""
	}
	return mark, inner
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func lineAt(src []byte, offset int) int {
	return bytes.Count(src[:offset], []byte("\n")) + 1
}

func templateErr(name, msg string) *errors.ErrorBuilder {
	return errors.TemplateError(msg).WithContext("template", name)
}
