package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hound.fit/jobhound/internal/db"
	"hound.fit/jobhound/internal/normalize"
)

// querier is the subset of the catalog-store handle the retrieval and merge
// paths need. Both *db.Pool and db.Tx satisfy it, so the same queries run
// inside and outside a posting transaction.
type querier interface {
	QueryRow(ctx context.Context, query string, args ...any) *db.Row
	Query(ctx context.Context, query string, args ...any) (*db.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (db.CommandTag, error)
}

// Candidate is a canonical posting pulled in for similarity scoring.
type Candidate struct {
	PostingID       int64
	NormalizedTitle string
	CompanyName     string
	JobType         string
	Description     string
	Remote          bool
	City            string
	State           string
	Country         string
}

// Profile rebuilds the comparison view of a candidate from its stored
// columns. Location and snippet are derived with the same normalization the
// ingest path uses, so both sides of a comparison went through identical
// transforms.
func (c *Candidate) Profile() Profile {
	parts := make([]string, 0, 3)
	for _, part := range []string{c.City, c.State, c.Country} {
		if part != "" {
			parts = append(parts, part)
		}
	}

	return Profile{
		Title:    c.NormalizedTitle,
		Company:  c.CompanyName,
		Location: strings.Join(parts, ", "),
		JobType:  strings.ToLower(strings.TrimSpace(c.JobType)),
		Snippet:  normalize.DescriptionSnippet(c.Description, normalize.DefaultSnippetLength),
	}
}

type candidateFilter struct {
	NormalizedCompany string
	KeyTerms          map[string]struct{}
	MaxAgeDays        int
	Limit             int
}

// The SQL pass over-fetches by this factor so the in-process key-term filter
// still has enough rows to fill the limit.
const candidateScanFactor = 3

// findCandidates returns recent canonical postings worth scoring against a
// raw posting. Recency and company overlap are pushed into SQL; the key-term
// filter runs in process. The result is capped, so a missed duplicate is
// possible but scan cost is bounded.
func findCandidates(ctx context.Context, q querier, now time.Time, f candidateFilter) ([]Candidate, error) {
	if f.Limit <= 0 {
		f.Limit = 100
	}
	if f.MaxAgeDays <= 0 {
		f.MaxAgeDays = 90
	}

	cutoff := now.AddDate(0, 0, -f.MaxAgeDays)

	const query = `
SELECT
	p.posting_id,
	p.normalized_title,
	c.normalized_name,
	p.job_type,
	p.description,
	p.remote,
	COALESCE(l.city, ''),
	COALESCE(l.state, ''),
	COALESCE(l.country, '')
FROM jobs.postings p
JOIN jobs.companies c ON c.company_id = p.company_id
LEFT JOIN jobs.locations l ON l.location_id = p.location_id
WHERE p.first_seen_at >= $1
	AND (
		$2 = ''
		OR c.normalized_name LIKE '%' || $2 || '%'
		OR $2 LIKE '%' || c.normalized_name || '%'
	)
ORDER BY p.first_seen_at DESC, p.posting_id ASC
LIMIT $3
`

	rows, err := q.Query(ctx, query,
		cutoff,
		f.NormalizedCompany,
		f.Limit*candidateScanFactor,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	candidates := make([]Candidate, 0, f.Limit)
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(
			&c.PostingID,
			&c.NormalizedTitle,
			&c.CompanyName,
			&c.JobType,
			&c.Description,
			&c.Remote,
			&c.City,
			&c.State,
			&c.Country,
		); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if !matchesKeyTerms(c.NormalizedTitle, f.KeyTerms) {
			continue
		}
		candidates = append(candidates, c)
		if len(candidates) >= f.Limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return candidates, nil
}

func matchesKeyTerms(normalizedTitle string, terms map[string]struct{}) bool {
	if len(terms) == 0 {
		return true
	}
	for term := range terms {
		if strings.Contains(normalizedTitle, term) {
			return true
		}
	}
	return false
}
