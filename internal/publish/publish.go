// Package publish uploads rendered pages to a remote target and tracks the URLs
// they are published under.
package publish

import (
	"context"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

// Page is a rendered page ready for upload.
type Page struct {
	// Code is the discipline code, empty for the index page.
	Code     string
	Title    string
	Slug     string
	FileName string
	Content  string
	// ParentID is the remote parent page, zero for none.
	ParentID int
	// PageID addresses an existing remote page directly, skipping the slug lookup.
	PageID int
}

// IsIndex reports whether the page is the program index.
func (p Page) IsIndex() bool {
	return p.Code == ""
}

// Published describes where a page ended up.
type Published struct {
	URL     string
	PageID  int
	Created bool
}

// Publisher uploads pages to one target. Implementations must be safe for
// concurrent use.
type Publisher interface {
	// Name identifies the target in logs, metrics and the ledger.
	Name() string
	Publish(ctx context.Context, p Page) (Published, error)
	Close() error
}

// DisciplinePage builds the upload for a rendered discipline page.
func DisciplinePage(d catalog.Discipline, content string, parentID int) Page {
	return Page{
		Code:     d.Code,
		Title:    DisciplineTitle(d),
		Slug:     DisciplineSlug(d),
		FileName: d.FileName(),
		Content:  content,
		ParentID: parentID,
	}
}

// IndexPage builds the upload for the program index. The program's PageID, when
// known, addresses the existing remote page.
func IndexPage(p catalog.Program, fileName, content string, parentID int) Page {
	return Page{
		Title:    IndexTitle(p),
		Slug:     IndexSlug(p),
		FileName: fileName,
		Content:  content,
		ParentID: parentID,
		PageID:   p.PageID,
	}
}
