package render

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/syllabi/internal/catalog"
)

func esc(s string) string {
	return html.EscapeString(s)
}

// formatNumber prints credits without trailing zeros ("3", "3.5").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// renderMarkdown converts a description to HTML. Raw HTML inside the description is
// not passed through.
func renderMarkdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Anchor returns the link element used for a discipline on index pages. The
// data-discipline-code attribute is the marker the reconciler matches on.
func Anchor(d catalog.Discipline) string {
	return `<a href="` + esc(d.FileName()) + `" data-discipline-code="` + esc(d.Code) + `">` + esc(d.Title) + `</a>`
}

func disciplineList(class string, items []catalog.Discipline) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="` + class + `">` + "\n")
	for _, d := range items {
		b.WriteString(`<li><span class="code">`)
		b.WriteString(esc(d.Code))
		b.WriteString(`</span> <span class="title">`)
		b.WriteString(esc(d.Title))
		b.WriteString(`</span> <span class="credits">`)
		b.WriteString(formatNumber(d.TotalCredits()))
		b.WriteString(`</span>`)
		if c := d.AllControls(); c != "" {
			b.WriteString(` <span class="control">`)
			b.WriteString(esc(c))
			b.WriteString(`</span>`)
		}
		if d.Lecturer != nil && class == classElectives {
			b.WriteString(` <span class="lecturer">`)
			b.WriteString(esc(d.Lecturer.Name))
			b.WriteString(`</span>`)
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}

func outcomeList(class string, items []catalog.Outcome) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(`<ul class="` + class + `">` + "\n")
	for _, o := range items {
		b.WriteString("<li><strong>")
		b.WriteString(esc(o.ID))
		b.WriteString("</strong>")
		if o.Description != "" {
			b.WriteString(" — ")
			b.WriteString(esc(o.Description))
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return b.String()
}

// indexRows renders the default table rows of the index page.
func indexRows(items []catalog.Discipline) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(`<tr class="`)
		b.WriteString(esc(string(d.Category)))
		b.WriteString(`"><td>`)
		b.WriteString(esc(d.Code))
		b.WriteString("</td><td>")
		b.WriteString(Anchor(d))
		b.WriteString("</td><td>")
		b.WriteString(formatNumber(d.TotalCredits()))
		b.WriteString("</td><td>")
		b.WriteString(esc(d.AllControls()))
		b.WriteString("</td></tr>")
	}
	return b.String()
}
