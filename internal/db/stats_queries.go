package db

import (
	"context"
	"fmt"
	"time"
)

// CatalogStats summarizes the catalog for the stats CLI command and endpoint.
type CatalogStats struct {
	Companies           int64            `json:"companies"`
	Locations           int64            `json:"locations"`
	Categories          int64            `json:"categories"`
	Postings            int64            `json:"postings"`
	PostingSources      int64            `json:"posting_sources"`
	RunningBatches      int64            `json:"running_batches"`
	LastBatchFinishedAt *time.Time       `json:"last_batch_finished_at,omitempty"`
	LastPostingSeenAt   *time.Time       `json:"last_posting_seen_at,omitempty"`
	PostingsByStatus    map[string]int64 `json:"postings_by_status"`
	Decisions           map[string]int64 `json:"decisions"`
}

// QueryCatalogStats gathers catalog-wide counts.
func (p *Pool) QueryCatalogStats(ctx context.Context) (*CatalogStats, error) {
	const q = `
SELECT
	(SELECT COUNT(*) FROM jobs.companies) AS companies,
	(SELECT COUNT(*) FROM jobs.locations) AS locations,
	(SELECT COUNT(*) FROM jobs.job_categories) AS categories,
	(SELECT COUNT(*) FROM jobs.postings) AS postings,
	(SELECT COUNT(*) FROM jobs.posting_sources) AS posting_sources,
	(SELECT COUNT(*) FROM jobs.ingest_batches WHERE status = 'running') AS running_batches,
	(SELECT MAX(finished_at) FROM jobs.ingest_batches) AS last_batch_finished_at,
	(SELECT MAX(last_seen_at) FROM jobs.postings) AS last_posting_seen_at
`

	var stats CatalogStats
	if err := p.QueryRow(ctx, q).Scan(
		&stats.Companies,
		&stats.Locations,
		&stats.Categories,
		&stats.Postings,
		&stats.PostingSources,
		&stats.RunningBatches,
		&stats.LastBatchFinishedAt,
		&stats.LastPostingSeenAt,
	); err != nil {
		return nil, fmt.Errorf("query catalog stats: %w", err)
	}

	stats.PostingsByStatus = map[string]int64{}
	if err := p.scanCountsInto(ctx, stats.PostingsByStatus, `
SELECT status::text, COUNT(*)::BIGINT
FROM jobs.postings
GROUP BY status
ORDER BY status
`); err != nil {
		return nil, fmt.Errorf("query postings by status: %w", err)
	}

	stats.Decisions = map[string]int64{}
	if err := p.scanCountsInto(ctx, stats.Decisions, `
SELECT decision::text, COUNT(*)::BIGINT
FROM jobs.resolution_events
GROUP BY decision
ORDER BY decision
`); err != nil {
		return nil, fmt.Errorf("query resolution decisions: %w", err)
	}

	return &stats, nil
}

func (p *Pool) scanCountsInto(ctx context.Context, dest map[string]int64, query string) error {
	rows, err := p.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		dest[key] = count
	}
	return rows.Err()
}
