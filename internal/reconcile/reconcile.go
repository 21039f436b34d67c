package reconcile

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// Status summarizes a reconciliation.
type Status string

const (
	// StatusReconciled means every code of the link mapping was found in the document.
	StatusReconciled Status = "reconciled"
	// StatusPartial means some codes of the link mapping were not found.
	StatusPartial Status = "partial"
)

// Result is the outcome of Reconcile.
type Result struct {
	Document []byte
	Status   Status
	// Unmatched lists mapping codes absent from the document, sorted.
	Unmatched []string
	// Pending lists document codes absent from the mapping, in document order.
	Pending []string
	// Updated lists codes whose href changed, in document order.
	Updated []string
	// Anchors are the discipline anchors found in the input document.
	Anchors []Anchor
}

// Reconciled reports whether every mapped code was found.
func (r *Result) Reconciled() bool {
	return r.Status == StatusReconciled
}

// Changed reports whether the document differs from the input.
func (r *Result) Changed() bool {
	return len(r.Updated) > 0
}

// Options tune Reconcile.
type Options struct {
	// Previous is the link mapping an earlier run wrote into doc. Anchors without a
	// marker attribute whose href is still one of these URLs keep their code, so a
	// changed URL is rewritten rather than left stale.
	Previous map[string]string
}

// Reconcile points every discipline anchor whose code is in links at its published
// URL. Only href values are rewritten, and an href attribute is added to anchors
// that have none; every other byte of doc is preserved. Reconciling the result again
// with the same links returns an identical document.
func Reconcile(doc []byte, links map[string]string) (*Result, error) {
	return ReconcileWith(doc, links, Options{})
}

// ReconcileWith is Reconcile with options.
func ReconcileWith(doc []byte, links map[string]string, opts Options) (*Result, error) {
	for code, u := range links {
		if strings.TrimSpace(u) == "" {
			return nil, errors.ValidationError("published URL is empty").WithContext("code", code).Build()
		}
	}

	anchors, err := scan(doc, links, opts.Previous)
	if err != nil {
		return nil, err
	}

	res := &Result{Anchors: anchors}
	found := make(map[string]bool, len(anchors))
	pending := make(map[string]bool)
	updated := make(map[string]bool)
	var patches []patch

	for i := range anchors {
		a := &anchors[i]
		found[a.Code] = true
		u, ok := links[a.Code]
		if !ok {
			if !pending[a.Code] {
				pending[a.Code] = true
				res.Pending = append(res.Pending, a.Code)
			}
			continue
		}
		p, change := hrefPatch(a, u)
		if !change {
			continue
		}
		patches = append(patches, p)
		if !updated[a.Code] {
			updated[a.Code] = true
			res.Updated = append(res.Updated, a.Code)
		}
	}

	for code := range links {
		if !found[code] {
			res.Unmatched = append(res.Unmatched, code)
		}
	}
	sort.Strings(res.Unmatched)

	res.Status = StatusReconciled
	if len(res.Unmatched) > 0 {
		res.Status = StatusPartial
	}

	if res.Document, err = applyPatches(doc, patches); err != nil {
		return nil, err
	}
	return res, nil
}

// hrefPatch builds the edit that sets the anchor's href to u. It reports false when
// the current value already decodes to u.
func hrefPatch(a *Anchor, u string) (patch, bool) {
	escaped := html.EscapeString(u)
	h := a.href
	switch {
	case h == nil:
		return patch{start: a.tagNameEnd, end: a.tagNameEnd, replacement: []byte(` href="` + escaped + `"`)}, true
	case !h.hasValue:
		return patch{start: h.nameEnd, end: h.nameEnd, replacement: []byte(`="` + escaped + `"`)}, true
	case a.Href == u:
		return patch{}, false
	case h.quote != 0:
		return patch{start: h.valueStart, end: h.valueEnd, replacement: []byte(escaped)}, true
	default:
		return patch{start: h.valueStart, end: h.valueEnd, replacement: []byte(`"` + escaped + `"`)}, true
	}
}
