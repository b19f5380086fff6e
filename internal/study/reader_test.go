package study

import (
	"strings"
	"testing"
)

// The export query's join and ordering semantics are load-bearing: every
// study must appear exactly once even with no joined matches, and the result
// must be sorted ascending by NCT ID. Guard the query text against
// accidental tightening of the joins.
func TestExportQueryShape(t *testing.T) {
	joined := []string{
		"LEFT JOIN ctgov.detailed_descriptions",
		"LEFT JOIN ctgov.brief_summaries",
		"LEFT JOIN ctgov.eligibilities",
		"LEFT JOIN ctgov.browse_conditions",
	}
	for _, j := range joined {
		if !strings.Contains(exportQuery, j) {
			t.Errorf("export query lost outer join: %s", j)
		}
	}
	if strings.Contains(exportQuery, "INNER JOIN") {
		t.Error("export query contains a non-left join")
	}
	if !strings.Contains(exportQuery, "ORDER BY s.nct_id ASC") {
		t.Error("export query lost ascending NCT ID ordering")
	}
	if !strings.Contains(exportQuery, "array_agg(bc.mesh_term)") {
		t.Error("export query lost mesh term aggregation")
	}
}
