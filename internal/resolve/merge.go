package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"hound.fit/jobhound/internal/db"
	"hound.fit/jobhound/internal/globaltime"
	"hound.fit/jobhound/internal/normalize"
)

type createInput struct {
	batchID       int64
	sourceSite    string
	derived       derivedPosting
	now           time.Time
	bestCandidate *int64
	bestScore     *float64
	bestSubScores *SubScores
}

// createPostingTx materializes a brand new canonical posting: reference
// entities, the posting row, its first source sighting, and initial metrics.
// A fingerprint unique violation here means a concurrent batch won the race;
// the caller retries as a merge.
func createPostingTx(ctx context.Context, tx db.Tx, in createInput) (int64, error) {
	d := in.derived

	companyID, err := resolveCompanyTx(ctx, tx, d.raw.Company, d.profile.Company, d.raw.CompanyDomain, in.now)
	if err != nil {
		return 0, err
	}

	var locationID *int64
	if !d.remote && d.loc.City != "" {
		id, err := resolveLocationTx(ctx, tx, d.loc)
		if err != nil {
			return 0, err
		}
		locationID = &id
	}

	categoryID, err := resolveCategoryTx(ctx, tx, d.category.Name, d.category.Parent)
	if err != nil {
		return 0, err
	}

	var postingID int64
	err = tx.QueryRow(ctx, `
INSERT INTO jobs.postings (
	fingerprint,
	title,
	normalized_title,
	company_id,
	location_id,
	category_id,
	job_type,
	experience_level,
	remote,
	description,
	requirements_excerpt,
	salary_min,
	salary_max,
	salary_currency,
	salary_interval,
	language,
	first_seen_at,
	last_seen_at,
	status,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17, 'active', $17, $17)
RETURNING posting_id
`,
		d.fp,
		strings.TrimSpace(d.raw.Title),
		d.profile.Title,
		companyID,
		locationID,
		categoryID,
		d.profile.JobType,
		nullableString(d.raw.ExperienceLevel),
		d.remote,
		d.cleanDescription,
		d.requirements,
		d.salaryMin,
		d.salaryMax,
		nullableString(d.raw.SalaryCurrency),
		nullableString(d.raw.SalaryInterval),
		d.language,
		in.now,
	).Scan(&postingID)
	if err != nil {
		return 0, fmt.Errorf("insert posting: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO jobs.posting_sources (
	posting_id, source_site, external_id, url, apply_url, posted_at, easy_apply, first_seen_at, last_seen_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
`,
		postingID,
		in.sourceSite,
		strings.TrimSpace(d.raw.ExternalID),
		nullableString(d.raw.URL),
		nullableString(d.raw.ApplyURL),
		d.raw.PostedAt,
		d.raw.EasyApply,
		in.now,
	); err != nil {
		return 0, fmt.Errorf("insert posting source: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO jobs.posting_metrics (
	posting_id, total_seen_count, sites_posted_count, days_active, repost_count, last_activity_date, updated_at
)
VALUES ($1, 1, 1, 0, 0, $2::date, $2)
`, postingID, in.now); err != nil {
		return 0, fmt.Errorf("insert posting metrics: %w", err)
	}

	if err := insertResolutionEventTx(ctx, tx, resolutionEventRecord{
		BatchID:         in.batchID,
		SourceSite:      in.sourceSite,
		ExternalID:      strings.TrimSpace(d.raw.ExternalID),
		Decision:        DecisionCreated,
		PostingID:       &postingID,
		BestCandidateID: in.bestCandidate,
		BestScore:       in.bestScore,
		SubScores:       in.bestSubScores,
		CreatedAt:       in.now,
	}); err != nil {
		return 0, err
	}

	return postingID, nil
}

type mergeInput struct {
	batchID    int64
	sourceSite string
	postingID  int64
	signal     string
	score      *float64
	subScores  *SubScores
	derived    derivedPosting
	now        time.Time
}

// mergePostingTx folds one sighting into an existing canonical posting.
// Returns DecisionUpdated when this site already had a source row for the
// posting, DecisionMerged when the sighting adds a new site.
func mergePostingTx(ctx context.Context, tx db.Tx, in mergeInput) (string, error) {
	d := in.derived

	var firstSeenAt time.Time
	var status string
	err := tx.QueryRow(ctx, `
SELECT first_seen_at, status::text
FROM jobs.postings
WHERE posting_id = $1
FOR UPDATE
`, in.postingID).Scan(&firstSeenAt, &status)
	if err != nil {
		return "", fmt.Errorf("lock posting %d: %w", in.postingID, err)
	}

	var sourceID int64
	var priorPostedAt *time.Time
	err = tx.QueryRow(ctx, `
SELECT source_id, posted_at
FROM jobs.posting_sources
WHERE posting_id = $1 AND source_site = $2
FOR UPDATE
`, in.postingID, in.sourceSite).Scan(&sourceID, &priorPostedAt)

	sourceExists := err == nil
	if err != nil && !db.IsNoRows(err) {
		return "", fmt.Errorf("lookup posting source: %w", err)
	}

	decision := DecisionMerged
	repostDelta := 0

	if sourceExists {
		decision = DecisionUpdated
		if d.raw.PostedAt != nil && (priorPostedAt == nil || d.raw.PostedAt.After(*priorPostedAt)) {
			// Same site, newer post date: the job was taken down and put up
			// again.
			repostDelta = 1
		}
		if _, err := tx.Exec(ctx, `
UPDATE jobs.posting_sources
SET external_id = $2,
	url = COALESCE($3, url),
	apply_url = COALESCE($4, apply_url),
	posted_at = COALESCE($5, posted_at),
	easy_apply = $6,
	last_seen_at = $7
WHERE source_id = $1
`,
			sourceID,
			strings.TrimSpace(d.raw.ExternalID),
			nullableString(d.raw.URL),
			nullableString(d.raw.ApplyURL),
			d.raw.PostedAt,
			d.raw.EasyApply,
			in.now,
		); err != nil {
			return "", fmt.Errorf("update posting source: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx, `
INSERT INTO jobs.posting_sources (
	posting_id, source_site, external_id, url, apply_url, posted_at, easy_apply, first_seen_at, last_seen_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
`,
			in.postingID,
			in.sourceSite,
			strings.TrimSpace(d.raw.ExternalID),
			nullableString(d.raw.URL),
			nullableString(d.raw.ApplyURL),
			d.raw.PostedAt,
			d.raw.EasyApply,
			in.now,
		); err != nil {
			return "", fmt.Errorf("insert posting source: %w", err)
		}
	}

	if status == "expired" {
		// An expired job seen again is back on the market.
		repostDelta = 1
	}

	if _, err := tx.Exec(ctx, `
UPDATE jobs.postings
SET last_seen_at = GREATEST(last_seen_at, $2),
	status = CASE WHEN status = 'expired' THEN 'active'::jobs.posting_status ELSE status END,
	description = CASE WHEN description = '' AND $3 <> '' THEN $3 ELSE description END,
	requirements_excerpt = COALESCE(requirements_excerpt, $4),
	language = COALESCE(language, $5),
	salary_min = COALESCE(salary_min, $6),
	salary_max = COALESCE(salary_max, $7),
	salary_currency = COALESCE(salary_currency, $8),
	salary_interval = COALESCE(salary_interval, $9),
	updated_at = $2
WHERE posting_id = $1
`,
		in.postingID,
		in.now,
		d.cleanDescription,
		d.requirements,
		d.language,
		d.salaryMin,
		d.salaryMax,
		nullableString(d.raw.SalaryCurrency),
		nullableString(d.raw.SalaryInterval),
	); err != nil {
		return "", fmt.Errorf("update posting: %w", err)
	}

	if _, err := tx.Exec(ctx, `
UPDATE jobs.posting_metrics
SET total_seen_count = total_seen_count + 1,
	sites_posted_count = (SELECT COUNT(*) FROM jobs.posting_sources WHERE posting_id = $1),
	days_active = $2,
	repost_count = repost_count + $3,
	last_activity_date = $4::date,
	updated_at = $4
WHERE posting_id = $1
`,
		in.postingID,
		globaltime.DaysBetween(firstSeenAt, in.now),
		repostDelta,
		in.now,
	); err != nil {
		return "", fmt.Errorf("update posting metrics: %w", err)
	}

	if err := insertResolutionEventTx(ctx, tx, resolutionEventRecord{
		BatchID:         in.batchID,
		SourceSite:      in.sourceSite,
		ExternalID:      strings.TrimSpace(d.raw.ExternalID),
		Decision:        decision,
		MatchSignal:     &in.signal,
		PostingID:       &in.postingID,
		BestCandidateID: &in.postingID,
		BestScore:       in.score,
		SubScores:       in.subScores,
		CreatedAt:       in.now,
	}); err != nil {
		return "", err
	}

	return decision, nil
}

// resolveCompanyTx is an idempotent lookup-or-create. The insert is guarded
// by ON CONFLICT DO NOTHING against the identity index, then re-read, so a
// concurrent resolution of the same employer converges on one row.
func resolveCompanyTx(ctx context.Context, tx db.Tx, rawName, normalizedName, domain string, now time.Time) (int64, error) {
	name := strings.TrimSpace(rawName)
	dom := strings.ToLower(strings.TrimSpace(domain))

	var companyID int64
	err := tx.QueryRow(ctx, `
SELECT company_id FROM jobs.companies
WHERE normalized_name = $1 AND COALESCE(domain, '') = $2
`, normalizedName, dom).Scan(&companyID)
	if err == nil {
		return companyID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("lookup company %q: %w", normalizedName, err)
	}

	err = tx.QueryRow(ctx, `
INSERT INTO jobs.companies (name, normalized_name, domain, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (normalized_name, COALESCE(domain, '')) DO NOTHING
RETURNING company_id
`, name, normalizedName, nullableString(dom), now).Scan(&companyID)
	if err == nil {
		return companyID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("insert company %q: %w", normalizedName, err)
	}

	// Lost the race; the winner's row exists now.
	err = tx.QueryRow(ctx, `
SELECT company_id FROM jobs.companies
WHERE normalized_name = $1 AND COALESCE(domain, '') = $2
`, normalizedName, dom).Scan(&companyID)
	if err != nil {
		return 0, fmt.Errorf("re-read company %q after conflict: %w", normalizedName, err)
	}
	return companyID, nil
}

func resolveLocationTx(ctx context.Context, tx db.Tx, loc normalize.ParsedLocation) (int64, error) {
	var locationID int64
	err := tx.QueryRow(ctx, `
SELECT location_id FROM jobs.locations
WHERE LOWER(city) = LOWER($1) AND LOWER(state) = LOWER($2) AND LOWER(country) = LOWER($3)
`, loc.City, loc.State, loc.Country).Scan(&locationID)
	if err == nil {
		return locationID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("lookup location %q: %w", loc.City, err)
	}

	err = tx.QueryRow(ctx, `
INSERT INTO jobs.locations (city, state, country, created_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (LOWER(city), LOWER(state), LOWER(country)) DO NOTHING
RETURNING location_id
`, loc.City, loc.State, loc.Country).Scan(&locationID)
	if err == nil {
		return locationID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("insert location %q: %w", loc.City, err)
	}

	err = tx.QueryRow(ctx, `
SELECT location_id FROM jobs.locations
WHERE LOWER(city) = LOWER($1) AND LOWER(state) = LOWER($2) AND LOWER(country) = LOWER($3)
`, loc.City, loc.State, loc.Country).Scan(&locationID)
	if err != nil {
		return 0, fmt.Errorf("re-read location %q after conflict: %w", loc.City, err)
	}
	return locationID, nil
}

func resolveCategoryTx(ctx context.Context, tx db.Tx, name, parent string) (int64, error) {
	var parentID *int64
	if parent != "" {
		id, err := upsertCategoryTx(ctx, tx, parent, nil)
		if err != nil {
			return 0, err
		}
		parentID = &id
	}
	return upsertCategoryTx(ctx, tx, name, parentID)
}

func upsertCategoryTx(ctx context.Context, tx db.Tx, name string, parentID *int64) (int64, error) {
	var categoryID int64
	err := tx.QueryRow(ctx, `
SELECT category_id FROM jobs.job_categories WHERE name = $1
`, name).Scan(&categoryID)
	if err == nil {
		return categoryID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("lookup category %q: %w", name, err)
	}

	err = tx.QueryRow(ctx, `
INSERT INTO jobs.job_categories (name, parent_id, created_at)
VALUES ($1, $2, now())
ON CONFLICT (name) DO NOTHING
RETURNING category_id
`, name, parentID).Scan(&categoryID)
	if err == nil {
		return categoryID, nil
	}
	if !db.IsNoRows(err) {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}

	err = tx.QueryRow(ctx, `
SELECT category_id FROM jobs.job_categories WHERE name = $1
`, name).Scan(&categoryID)
	if err != nil {
		return 0, fmt.Errorf("re-read category %q after conflict: %w", name, err)
	}
	return categoryID, nil
}

type resolutionEventRecord struct {
	BatchID         int64
	SourceSite      string
	ExternalID      string
	Decision        string
	MatchSignal     *string
	PostingID       *int64
	BestCandidateID *int64
	BestScore       *float64
	SubScores       *SubScores
	CreatedAt       time.Time
}

func insertResolutionEventTx(ctx context.Context, tx db.Tx, record resolutionEventRecord) error {
	var subJSON *string
	if record.SubScores != nil {
		encoded, err := json.Marshal(record.SubScores)
		if err != nil {
			return fmt.Errorf("marshal sub-scores: %w", err)
		}
		s := string(encoded)
		subJSON = &s
	}

	_, err := tx.Exec(ctx, `
INSERT INTO jobs.resolution_events (
	batch_id, source_site, external_id, decision, match_signal,
	posting_id, best_candidate_id, best_score, sub_scores, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10)
`,
		record.BatchID,
		record.SourceSite,
		record.ExternalID,
		record.Decision,
		record.MatchSignal,
		record.PostingID,
		record.BestCandidateID,
		record.BestScore,
		subJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert resolution event external_id=%q: %w", record.ExternalID, err)
	}
	return nil
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
