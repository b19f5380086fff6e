// Package study reads clinical-study records from an AACT-style PostgreSQL
// database. One Reader owns one connection, runs one fixed aggregation query,
// and is closed; there is no pooling and no write path.
package study

import (
	"time"
)

// Record is one clinical study assembled from the ctgov relations.
// Narrative fields are empty strings (never a "null" token) when the study
// has no matching row in the joined relation. MeshTerms keeps store order and
// duplicates; whether duplicates should collapse is an open product question,
// so the pipeline does not touch them.
type Record struct {
	NCTID               string
	OfficialTitle       string
	BriefTitle          string
	UpdatedAt           *time.Time
	DetailedDescription string
	BriefSummary        string
	Criteria            string
	MeshTerms           []string
}

// newRecord builds a Record from raw scan targets, coalescing nulls to empty
// strings and dropping null/empty term entries while preserving order.
func newRecord(nctID string, official, brief *string, updated *time.Time, detailed, summary, criteria *string, terms []*string) Record {
	rec := Record{
		NCTID:               nctID,
		OfficialTitle:       deref(official),
		BriefTitle:          deref(brief),
		UpdatedAt:           updated,
		DetailedDescription: deref(detailed),
		BriefSummary:        deref(summary),
		Criteria:            deref(criteria),
		MeshTerms:           make([]string, 0, len(terms)),
	}
	// array_agg over a left join yields [NULL] for studies with no terms
	for _, t := range terms {
		if t == nil || *t == "" {
			continue
		}
		rec.MeshTerms = append(rec.MeshTerms, *t)
	}
	return rec
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
