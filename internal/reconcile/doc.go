// Package reconcile rewrites the discipline links of an index page to their
// published URLs.
//
// The document is tokenized only to locate <a> start tags; edits are byte-range
// patches of href values, so markup outside those values is returned unchanged.
// Anchors are matched by their data-discipline-code attribute, by a legacy
// "CODE.html" placeholder href, or by an href that already equals a published URL.
package reconcile
