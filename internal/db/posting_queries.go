package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrPostingNotFound is returned by GetPostingDetail for unknown UUIDs.
var ErrPostingNotFound = errors.New("posting not found")

// PostingListFilter controls canonical posting listing queries.
type PostingListFilter struct {
	Status     string
	SourceSite string
	Query      string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

type CompanyInfo struct {
	CompanyUUID  string  `json:"company_uuid"`
	Name         string  `json:"name"`
	Domain       *string `json:"domain,omitempty"`
	Industry     *string `json:"industry,omitempty"`
	SizeBracket  *string `json:"size_bracket,omitempty"`
	Headquarters *string `json:"headquarters,omitempty"`
}

type LocationInfo struct {
	LocationUUID string  `json:"location_uuid"`
	City         string  `json:"city"`
	State        string  `json:"state,omitempty"`
	Country      string  `json:"country,omitempty"`
	Region       *string `json:"region,omitempty"`
}

type CategoryInfo struct {
	CategoryUUID string  `json:"category_uuid"`
	Name         string  `json:"name"`
	Parent       *string `json:"parent,omitempty"`
}

type SourceInfo struct {
	SourceUUID  string     `json:"source_uuid"`
	SourceSite  string     `json:"source_site"`
	ExternalID  string     `json:"external_id"`
	URL         *string    `json:"url,omitempty"`
	ApplyURL    *string    `json:"apply_url,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
	EasyApply   bool       `json:"easy_apply"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
}

type MetricsInfo struct {
	TotalSeenCount   int       `json:"total_seen_count"`
	SitesPostedCount int       `json:"sites_posted_count"`
	DaysActive       int       `json:"days_active"`
	RepostCount      int       `json:"repost_count"`
	LastActivityDate time.Time `json:"last_activity_date"`
}

// PostingListItem is one row of the canonical posting list.
type PostingListItem struct {
	PostingUUID string    `json:"posting_uuid"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    *string   `json:"location,omitempty"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	Remote      bool      `json:"remote"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
	SiteCount   int       `json:"site_count"`
	SeenCount   int       `json:"seen_count"`
}

// PostingDetail is the resolved canonical posting with nested reference data,
// source sightings, and metrics, in the shape the external query layer reads.
type PostingDetail struct {
	PostingUUID         string        `json:"posting_uuid"`
	Fingerprint         string        `json:"fingerprint"`
	Title               string        `json:"title"`
	NormalizedTitle     string        `json:"normalized_title"`
	JobType             string        `json:"job_type,omitempty"`
	ExperienceLevel     *string       `json:"experience_level,omitempty"`
	Remote              bool          `json:"remote"`
	Description         string        `json:"description,omitempty"`
	RequirementsExcerpt *string       `json:"requirements_excerpt,omitempty"`
	SalaryMin           *float64      `json:"salary_min,omitempty"`
	SalaryMax           *float64      `json:"salary_max,omitempty"`
	SalaryCurrency      *string       `json:"salary_currency,omitempty"`
	SalaryInterval      *string       `json:"salary_interval,omitempty"`
	Language            *string       `json:"language,omitempty"`
	Status              string        `json:"status"`
	FirstSeenAt         time.Time     `json:"first_seen_at"`
	LastSeenAt          time.Time     `json:"last_seen_at"`
	Company             CompanyInfo   `json:"company"`
	Location            *LocationInfo `json:"location,omitempty"`
	Category            CategoryInfo  `json:"category"`
	Sources             []SourceInfo  `json:"sources"`
	Metrics             *MetricsInfo  `json:"metrics,omitempty"`
}

// ListPostings returns a page of canonical postings plus the total count.
func (p *Pool) ListPostings(ctx context.Context, filter PostingListFilter) (int64, []PostingListItem, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 25
	}

	search := ""
	if strings.TrimSpace(filter.Query) != "" {
		search = "%" + strings.TrimSpace(filter.Query) + "%"
	}
	site := strings.TrimSpace(strings.ToLower(filter.SourceSite))
	status := strings.TrimSpace(strings.ToLower(filter.Status))

	const countQuery = `
SELECT COUNT(*)
FROM jobs.postings jp
JOIN jobs.companies c ON c.company_id = jp.company_id
WHERE ($1 = '' OR jp.status::text = $1)
  AND ($2 = '' OR jp.title ILIKE $2 OR c.name ILIKE $2)
  AND ($3 = '' OR EXISTS (
		SELECT 1 FROM jobs.posting_sources ps
		WHERE ps.posting_id = jp.posting_id AND LOWER(ps.source_site) = $3
  ))
  AND ($4::timestamptz IS NULL OR jp.last_seen_at >= $4)
  AND ($5::timestamptz IS NULL OR jp.last_seen_at <= $5)
`

	var total int64
	if err := p.QueryRow(ctx, countQuery, status, search, site, filter.From, filter.To).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("count postings: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize

	const rowsQuery = `
SELECT
	jp.posting_uuid::text,
	jp.title,
	c.name,
	CASE WHEN l.location_id IS NULL THEN NULL
	     ELSE TRIM(BOTH ', ' FROM CONCAT_WS(', ', l.city, NULLIF(l.state, ''), NULLIF(l.country, '')))
	END,
	cat.name,
	jp.status::text,
	jp.remote,
	jp.first_seen_at,
	jp.last_seen_at,
	COALESCE(m.sites_posted_count, 0),
	COALESCE(m.total_seen_count, 0)
FROM jobs.postings jp
JOIN jobs.companies c ON c.company_id = jp.company_id
LEFT JOIN jobs.locations l ON l.location_id = jp.location_id
JOIN jobs.job_categories cat ON cat.category_id = jp.category_id
LEFT JOIN jobs.posting_metrics m ON m.posting_id = jp.posting_id
WHERE ($1 = '' OR jp.status::text = $1)
  AND ($2 = '' OR jp.title ILIKE $2 OR c.name ILIKE $2)
  AND ($3 = '' OR EXISTS (
		SELECT 1 FROM jobs.posting_sources ps
		WHERE ps.posting_id = jp.posting_id AND LOWER(ps.source_site) = $3
  ))
  AND ($4::timestamptz IS NULL OR jp.last_seen_at >= $4)
  AND ($5::timestamptz IS NULL OR jp.last_seen_at <= $5)
ORDER BY jp.last_seen_at DESC, jp.posting_id DESC
LIMIT $6
OFFSET $7
`

	rows, err := p.Query(ctx, rowsQuery, status, search, site, filter.From, filter.To, filter.PageSize, offset)
	if err != nil {
		return 0, nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	items := make([]PostingListItem, 0, filter.PageSize)
	for rows.Next() {
		var row PostingListItem
		if err := rows.Scan(
			&row.PostingUUID,
			&row.Title,
			&row.Company,
			&row.Location,
			&row.Category,
			&row.Status,
			&row.Remote,
			&row.FirstSeenAt,
			&row.LastSeenAt,
			&row.SiteCount,
			&row.SeenCount,
		); err != nil {
			return 0, nil, fmt.Errorf("scan posting row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return 0, nil, fmt.Errorf("iterate posting rows: %w", err)
	}

	return total, items, nil
}

// GetPostingDetail loads one canonical posting with its nested company,
// location, category, source sightings, and metrics.
func (p *Pool) GetPostingDetail(ctx context.Context, postingUUID string) (*PostingDetail, error) {
	const postingQuery = `
SELECT
	jp.posting_id,
	jp.posting_uuid::text,
	jp.fingerprint,
	jp.title,
	jp.normalized_title,
	jp.job_type,
	jp.experience_level,
	jp.remote,
	jp.description,
	jp.requirements_excerpt,
	jp.salary_min,
	jp.salary_max,
	jp.salary_currency,
	jp.salary_interval,
	jp.language,
	jp.status::text,
	jp.first_seen_at,
	jp.last_seen_at,
	c.company_uuid::text,
	c.name,
	c.domain,
	c.industry,
	c.size_bracket,
	c.headquarters,
	l.location_uuid::text,
	l.city,
	l.state,
	l.country,
	l.region,
	cat.category_uuid::text,
	cat.name,
	parent.name,
	m.total_seen_count,
	m.sites_posted_count,
	m.days_active,
	m.repost_count,
	m.last_activity_date
FROM jobs.postings jp
JOIN jobs.companies c ON c.company_id = jp.company_id
LEFT JOIN jobs.locations l ON l.location_id = jp.location_id
JOIN jobs.job_categories cat ON cat.category_id = jp.category_id
LEFT JOIN jobs.job_categories parent ON parent.category_id = cat.parent_id
LEFT JOIN jobs.posting_metrics m ON m.posting_id = jp.posting_id
WHERE jp.posting_uuid = $1::uuid
`

	var (
		detail           PostingDetail
		postingID        int64
		locationUUID     *string
		locationCity     *string
		locationState    *string
		locationCountry  *string
		locationRegion   *string
		totalSeen        *int
		sitesPosted      *int
		daysActive       *int
		repostCount      *int
		lastActivityDate *time.Time
	)
	if err := p.QueryRow(ctx, postingQuery, postingUUID).Scan(
		&postingID,
		&detail.PostingUUID,
		&detail.Fingerprint,
		&detail.Title,
		&detail.NormalizedTitle,
		&detail.JobType,
		&detail.ExperienceLevel,
		&detail.Remote,
		&detail.Description,
		&detail.RequirementsExcerpt,
		&detail.SalaryMin,
		&detail.SalaryMax,
		&detail.SalaryCurrency,
		&detail.SalaryInterval,
		&detail.Language,
		&detail.Status,
		&detail.FirstSeenAt,
		&detail.LastSeenAt,
		&detail.Company.CompanyUUID,
		&detail.Company.Name,
		&detail.Company.Domain,
		&detail.Company.Industry,
		&detail.Company.SizeBracket,
		&detail.Company.Headquarters,
		&locationUUID,
		&locationCity,
		&locationState,
		&locationCountry,
		&locationRegion,
		&detail.Category.CategoryUUID,
		&detail.Category.Name,
		&detail.Category.Parent,
		&totalSeen,
		&sitesPosted,
		&daysActive,
		&repostCount,
		&lastActivityDate,
	); err != nil {
		if IsNoRows(err) {
			return nil, ErrPostingNotFound
		}
		return nil, fmt.Errorf("query posting: %w", err)
	}

	if locationUUID != nil && locationCity != nil {
		detail.Location = &LocationInfo{
			LocationUUID: *locationUUID,
			City:         *locationCity,
			Region:       locationRegion,
		}
		if locationState != nil {
			detail.Location.State = *locationState
		}
		if locationCountry != nil {
			detail.Location.Country = *locationCountry
		}
	}
	if totalSeen != nil && sitesPosted != nil && daysActive != nil && repostCount != nil && lastActivityDate != nil {
		detail.Metrics = &MetricsInfo{
			TotalSeenCount:   *totalSeen,
			SitesPostedCount: *sitesPosted,
			DaysActive:       *daysActive,
			RepostCount:      *repostCount,
			LastActivityDate: *lastActivityDate,
		}
	}

	const sourcesQuery = `
SELECT
	ps.source_uuid::text,
	ps.source_site,
	ps.external_id,
	ps.url,
	ps.apply_url,
	ps.posted_at,
	ps.easy_apply,
	ps.first_seen_at,
	ps.last_seen_at
FROM jobs.posting_sources ps
WHERE ps.posting_id = $1
ORDER BY ps.first_seen_at ASC, ps.source_id ASC
`

	rows, err := p.Query(ctx, sourcesQuery, postingID)
	if err != nil {
		return nil, fmt.Errorf("query posting sources: %w", err)
	}
	defer rows.Close()

	sources := make([]SourceInfo, 0, 4)
	for rows.Next() {
		var source SourceInfo
		if err := rows.Scan(
			&source.SourceUUID,
			&source.SourceSite,
			&source.ExternalID,
			&source.URL,
			&source.ApplyURL,
			&source.PostedAt,
			&source.EasyApply,
			&source.FirstSeenAt,
			&source.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan posting source: %w", err)
		}
		sources = append(sources, source)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posting sources: %w", err)
	}

	detail.Sources = sources
	return &detail, nil
}
