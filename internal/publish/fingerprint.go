package publish

import (
	"strconv"
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint identifies the uploaded form of a page: its content together with
// the metadata sent alongside it. Pages with equal fingerprints need no upload.
func Fingerprint(p Page) string {
	meta := strings.Join([]string{
		"title: " + strconv.Quote(p.Title),
		"slug: " + strconv.Quote(p.Slug),
		"file: " + strconv.Quote(p.FileName),
		"parent: " + strconv.Itoa(p.ParentID),
	}, "\n")
	return mdfp.CalculateFingerprintFromParts(meta, p.Content)
}
