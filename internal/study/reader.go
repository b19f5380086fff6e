package study

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codex-stevenh/clinmatch-AACT/internal/config"
	"github.com/codex-stevenh/clinmatch-AACT/internal/errors"
)

// exportQuery is the one query the Reader runs. For every nct_id in the
// primary studies relation it left-joins at most one narrative description,
// one summary and one eligibility-criteria value, and aggregates every
// associated mesh term. Studies with no match in any joined relation still
// appear exactly once, with null narratives and a null-only term aggregate.
const exportQuery = `
SELECT s.nct_id,
       s.official_title,
       s.brief_title,
       s.updated_at,
       dd.description AS detailed_description,
       bs.description AS brief_summary,
       e.criteria,
       array_agg(bc.mesh_term) AS mesh_terms
FROM ctgov.studies s
LEFT JOIN ctgov.detailed_descriptions dd ON dd.nct_id = s.nct_id
LEFT JOIN ctgov.brief_summaries bs ON bs.nct_id = s.nct_id
LEFT JOIN ctgov.eligibilities e ON e.nct_id = s.nct_id
LEFT JOIN ctgov.browse_conditions bc ON bc.nct_id = s.nct_id
GROUP BY s.nct_id, s.official_title, s.brief_title, s.updated_at,
         dd.description, bs.description, e.criteria
ORDER BY s.nct_id ASC`

// Reader holds the single database connection for one export run.
type Reader struct {
	conn *pgx.Conn
}

// Connect opens a connection to the study store described by cfg.
// There is no retry; an unreachable store or rejected credentials fail the run.
func Connect(ctx context.Context, cfg config.DBConfig) (*Reader, error) {
	connString, err := cfg.ResolveDSN()
	if err != nil {
		return nil, errors.Wrap(errors.ConnectionFailed, "resolve connection string", err)
	}
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, errors.Wrap(errors.ConnectionFailed, "connect to study store", err)
	}
	return &Reader{conn: conn}, nil
}

// Fetch runs the export query and materializes the full ordered result.
// The sequence is sorted strictly ascending by NCT ID, one record per study.
func (r *Reader) Fetch(ctx context.Context) ([]Record, error) {
	rows, err := r.conn.Query(ctx, exportQuery)
	if err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "execute export query", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			nctID                       string
			official, brief             *string
			updated                     *time.Time
			detailed, summary, criteria *string
			terms                       []*string
		)
		if err := rows.Scan(&nctID, &official, &brief, &updated, &detailed, &summary, &criteria, &terms); err != nil {
			return nil, errors.Wrap(errors.QueryFailed, "decode study row", err)
		}
		records = append(records, newRecord(nctID, official, brief, updated, detailed, summary, criteria, terms))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.QueryFailed, "read export rows", err)
	}
	return records, nil
}

// Close releases the connection. Safe to call once per Reader; the pipeline
// defers it immediately after Connect so every exit path releases it.
func (r *Reader) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}
