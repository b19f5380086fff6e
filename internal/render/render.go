// Package render turns study records into the fixed-layout plain-text
// document the remote function consumes. Rendering is total: it never fails,
// and absent values appear as empty strings, never as a "null" token.
package render

import (
	"strings"

	"github.com/codex-stevenh/clinmatch-AACT/internal/study"
)

// Separator terminates each record block.
const Separator = "----------------------------------------"

// timeLayout is how updated-at timestamps appear in the document.
const timeLayout = "2006-01-02 15:04:05"

// Document is the rendered export. RecordCount is derived from the input
// sequence at render time and is the only count the dispatcher ever sends.
type Document struct {
	Text        string
	RecordCount int
}

// Render produces the text block for one record: one labeled line per field
// in fixed order, then the separator line. Mesh terms are joined with ", " in
// store order; duplicates are kept.
func Render(rec study.Record) string {
	updated := ""
	if rec.UpdatedAt != nil {
		updated = rec.UpdatedAt.UTC().Format(timeLayout)
	}

	var b strings.Builder
	writeField(&b, "NCT ID", rec.NCTID)
	writeField(&b, "Official Title", rec.OfficialTitle)
	writeField(&b, "Brief Title", rec.BriefTitle)
	writeField(&b, "Updated At", updated)
	writeField(&b, "Detailed Description", rec.DetailedDescription)
	writeField(&b, "Brief Summary", rec.BriefSummary)
	writeField(&b, "Eligibility Criteria", rec.Criteria)
	writeField(&b, "Mesh Terms", strings.Join(presentTerms(rec.MeshTerms), ", "))
	b.WriteString(Separator)
	b.WriteString("\n")
	return b.String()
}

// presentTerms drops empty entries while keeping store order and duplicates.
func presentTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	return out
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

// RenderAll concatenates the block for every record in input order.
func RenderAll(records []study.Record) Document {
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(Render(rec))
	}
	return Document{
		Text:        b.String(),
		RecordCount: len(records),
	}
}
