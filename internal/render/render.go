package render

import (
	"strings"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Options carries run-level values. Rendering depends only on its arguments, so the
// generation timestamp is passed in rather than read from the clock.
type Options struct {
	GeneratedAt time.Time
}

// RenderDiscipline renders the page of one discipline. cat supplies mappings and
// program metadata and may be nil.
func RenderDiscipline(cat *catalog.Catalog, d catalog.Discipline, tpl *Template, opts Options) (string, error) {
	if tpl == nil {
		return "", errors.TemplateError("template is nil").Build()
	}
	s := &scope{cat: cat, d: &d, opts: opts}
	var b strings.Builder
	if err := s.exec(&b, tpl, tpl.nodes); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderCode renders the page of the top-level discipline with the given code.
func RenderCode(cat *catalog.Catalog, code string, tpl *Template, opts Options) (string, error) {
	d, err := cat.Get(code)
	if err != nil {
		return "", err
	}
	return RenderDiscipline(cat, d, tpl, opts)
}

// RenderIndex renders the index page. Group sections repeat once per discipline in
// catalog order.
func RenderIndex(cat *catalog.Catalog, tpl *Template, opts Options) (string, error) {
	if tpl == nil {
		return "", errors.TemplateError("template is nil").Build()
	}
	if cat == nil {
		return "", errors.InternalError("catalog is nil").Build()
	}
	s := &scope{cat: cat, opts: opts, index: true}
	var b strings.Builder
	if err := s.exec(&b, tpl, tpl.nodes); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *scope) exec(b *strings.Builder, tpl *Template, nodes []node) error {
	for _, n := range nodes {
		switch n.kind {
		case textNode:
			b.WriteString(n.raw)
		case slotNode:
			f, ok := s.lookup(n.name)
			if !ok {
				b.WriteString(n.raw)
				continue
			}
			v, err := s.eval(tpl, n.name, f)
			if err != nil {
				return err
			}
			b.WriteString(v)
		case condNode:
			f, ok := s.lookup(n.name)
			if !ok {
				if err := s.verbatim(b, tpl, n); err != nil {
					return err
				}
				continue
			}
			v, err := s.eval(tpl, n.name, f)
			if err != nil {
				return err
			}
			if v == "" {
				continue
			}
			if err := s.exec(b, tpl, n.children); err != nil {
				return err
			}
		case groupNode:
			if err := s.group(b, tpl, n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *scope) group(b *strings.Builder, tpl *Template, n node) error {
	if !s.index {
		return s.verbatim(b, tpl, n)
	}
	members, ok := groupMembers(s.cat, n.name)
	if !ok {
		return s.verbatim(b, tpl, n)
	}
	if s.d != nil {
		return templateErr(tpl.name, "index groups cannot be nested").
			WithContext("section", n.name).
			Build()
	}
	for i := range members {
		inner := &scope{cat: s.cat, d: &members[i], opts: s.opts, index: true}
		if err := inner.exec(b, tpl, n.children); err != nil {
			return err
		}
	}
	return nil
}

// verbatim emits an unrecognized section's markers unchanged around its rendered body.
func (s *scope) verbatim(b *strings.Builder, tpl *Template, n node) error {
	b.WriteString(n.raw)
	if err := s.exec(b, tpl, n.children); err != nil {
		return err
	}
	b.WriteString(n.closeRaw)
	return nil
}

func (s *scope) eval(tpl *Template, name string, f slotFunc) (string, error) {
	v, err := f(s)
	if err != nil {
		b := errors.WrapError(err, errors.CategoryTemplate, "failed to render slot").
			WithContext("template", tpl.name).
			WithContext("slot", name)
		if s.d != nil {
			b = b.WithContext("code", s.d.Code)
		}
		return "", b.Build()
	}
	return v, nil
}

// UnknownTokens lists the names of slot and section tokens that no template scope
// recognizes, in order of first appearance. They render verbatim.
func (t *Template) UnknownTokens() []string {
	known := make(map[string]struct{})
	for _, n := range SlotNames() {
		known[n] = struct{}{}
	}
	for _, g := range []string{GroupDisciplines, GroupGeneral, GroupProfessional, GroupElective} {
		known[g] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{})
	var walk func(nodes []node)
	walk = func(nodes []node) {
		for _, n := range nodes {
			if n.kind == textNode {
				continue
			}
			if _, ok := known[n.name]; !ok {
				if _, dup := seen[n.name]; !dup {
					seen[n.name] = struct{}{}
					out = append(out, n.name)
				}
			}
			walk(n.children)
		}
	}
	walk(t.nodes)
	return out
}
