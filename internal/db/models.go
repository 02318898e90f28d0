package db

import (
	"encoding/json"
	"time"
)

// Company maps jobs.companies. Shared reference data: created lazily on first
// sighting, never deleted, descriptive fields backfilled on later sightings.
type Company struct {
	CompanyID      int64     `gorm:"column:company_id;primaryKey;autoIncrement"`
	CompanyUUID    string    `gorm:"column:company_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name           string    `gorm:"column:name;type:text;not null"`
	NormalizedName string    `gorm:"column:normalized_name;type:text;not null"`
	Domain         *string   `gorm:"column:domain;type:text"`
	Industry       *string   `gorm:"column:industry;type:text"`
	SizeBracket    *string   `gorm:"column:size_bracket;type:text"`
	Headquarters   *string   `gorm:"column:headquarters;type:text"`
	Description    *string   `gorm:"column:description;type:text"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (Company) TableName() string { return "jobs.companies" }

// Location maps jobs.locations. Remote postings carry no location row.
// State and region may be empty; the (city, state, country) triple is unique.
type Location struct {
	LocationID   int64     `gorm:"column:location_id;primaryKey;autoIncrement"`
	LocationUUID string    `gorm:"column:location_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	City         string    `gorm:"column:city;type:text;not null"`
	State        string    `gorm:"column:state;type:text;not null;default:''"`
	Country      string    `gorm:"column:country;type:text;not null;default:''"`
	Region       *string   `gorm:"column:region;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (Location) TableName() string { return "jobs.locations" }

// JobCategory maps jobs.job_categories. Hierarchical via ParentID.
type JobCategory struct {
	CategoryID   int64     `gorm:"column:category_id;primaryKey;autoIncrement"`
	CategoryUUID string    `gorm:"column:category_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Name         string    `gorm:"column:name;type:text;not null;unique"`
	ParentID     *int64    `gorm:"column:parent_id;type:bigint"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (JobCategory) TableName() string { return "jobs.job_categories" }

// JobPosting maps jobs.postings, the canonical deduplicated record. Never
// deleted by the engine; expiry is a status transition.
type JobPosting struct {
	PostingID           int64      `gorm:"column:posting_id;primaryKey;autoIncrement"`
	PostingUUID         string     `gorm:"column:posting_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	Fingerprint         string     `gorm:"column:fingerprint;type:char(64);not null;unique"`
	Title               string     `gorm:"column:title;type:text;not null"`
	NormalizedTitle     string     `gorm:"column:normalized_title;type:text;not null"`
	CompanyID           int64      `gorm:"column:company_id;type:bigint;not null;index"`
	LocationID          *int64     `gorm:"column:location_id;type:bigint"`
	CategoryID          int64      `gorm:"column:category_id;type:bigint;not null"`
	JobType             string     `gorm:"column:job_type;type:text;not null;default:''"`
	ExperienceLevel     *string    `gorm:"column:experience_level;type:text"`
	Remote              bool       `gorm:"column:remote;type:boolean;not null;default:false"`
	Description         string     `gorm:"column:description;type:text;not null;default:''"`
	RequirementsExcerpt *string    `gorm:"column:requirements_excerpt;type:text"`
	SalaryMin           *float64   `gorm:"column:salary_min;type:numeric"`
	SalaryMax           *float64   `gorm:"column:salary_max;type:numeric"`
	SalaryCurrency      *string    `gorm:"column:salary_currency;type:text"`
	SalaryInterval      *string    `gorm:"column:salary_interval;type:text"`
	Language            *string    `gorm:"column:language;type:text"`
	FirstSeenAt         time.Time  `gorm:"column:first_seen_at;type:timestamptz;not null;index"`
	LastSeenAt          time.Time  `gorm:"column:last_seen_at;type:timestamptz;not null;index"`
	Status              string     `gorm:"column:status;type:jobs.posting_status;not null;default:active"`
	CreatedAt           time.Time  `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (JobPosting) TableName() string { return "jobs.postings" }

// JobSource maps jobs.posting_sources: one sighting of a canonical posting on
// one external site. Reposts on the same site update the existing row.
type JobSource struct {
	SourceID    int64      `gorm:"column:source_id;primaryKey;autoIncrement"`
	SourceUUID  string     `gorm:"column:source_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	PostingID   int64      `gorm:"column:posting_id;type:bigint;not null"`
	SourceSite  string     `gorm:"column:source_site;type:text;not null"`
	ExternalID  string     `gorm:"column:external_id;type:text;not null"`
	URL         *string    `gorm:"column:url;type:text"`
	ApplyURL    *string    `gorm:"column:apply_url;type:text"`
	PostedAt    *time.Time `gorm:"column:posted_at;type:timestamptz"`
	EasyApply   bool       `gorm:"column:easy_apply;type:boolean;not null;default:false"`
	FirstSeenAt time.Time  `gorm:"column:first_seen_at;type:timestamptz;not null"`
	LastSeenAt  time.Time  `gorm:"column:last_seen_at;type:timestamptz;not null"`
}

func (JobSource) TableName() string { return "jobs.posting_sources" }

// JobMetrics maps jobs.posting_metrics, one row per posting. Counters are
// append-only accumulators; days_active is recomputed on each sighting.
type JobMetrics struct {
	PostingID        int64     `gorm:"column:posting_id;type:bigint;primaryKey"`
	MetricsUUID      string    `gorm:"column:metrics_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	TotalSeenCount   int       `gorm:"column:total_seen_count;type:integer;not null;default:0"`
	SitesPostedCount int       `gorm:"column:sites_posted_count;type:integer;not null;default:0"`
	DaysActive       int       `gorm:"column:days_active;type:integer;not null;default:0"`
	RepostCount      int       `gorm:"column:repost_count;type:integer;not null;default:0"`
	LastActivityDate time.Time `gorm:"column:last_activity_date;type:date;not null"`
	UpdatedAt        time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (JobMetrics) TableName() string { return "jobs.posting_metrics" }

// IngestBatch maps jobs.ingest_batches: provenance and summary for one scrape
// batch from one source site.
type IngestBatch struct {
	BatchID      int64           `gorm:"column:batch_id;primaryKey;autoIncrement"`
	BatchUUID    string          `gorm:"column:batch_uuid;type:uuid;not null;unique"`
	SourceSite   string          `gorm:"column:source_site;type:text;not null"`
	SearchParams json.RawMessage `gorm:"column:search_params;type:jsonb"`
	StartedAt    time.Time       `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt   *time.Time      `gorm:"column:finished_at;type:timestamptz"`
	Status       string          `gorm:"column:status;type:jobs.batch_status;not null;default:running"`
	TotalCount   int             `gorm:"column:total_count;type:integer;not null;default:0"`
	CreatedCount int             `gorm:"column:created_count;type:integer;not null;default:0"`
	MergedCount  int             `gorm:"column:merged_count;type:integer;not null;default:0"`
	UpdatedCount int             `gorm:"column:updated_count;type:integer;not null;default:0"`
	ErrorCount   int             `gorm:"column:error_count;type:integer;not null;default:0"`
	ErrorMessage *string         `gorm:"column:error_message;type:text"`
	CreatedAt    time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (IngestBatch) TableName() string { return "jobs.ingest_batches" }

// ResolutionEvent maps jobs.resolution_events: the per-posting trace of one
// resolution decision within a batch.
type ResolutionEvent struct {
	EventID         int64           `gorm:"column:event_id;primaryKey;autoIncrement"`
	EventUUID       string          `gorm:"column:event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	BatchID         int64           `gorm:"column:batch_id;type:bigint;not null;index"`
	SourceSite      string          `gorm:"column:source_site;type:text;not null"`
	ExternalID      string          `gorm:"column:external_id;type:text;not null"`
	Decision        string          `gorm:"column:decision;type:jobs.resolution_decision;not null"`
	MatchSignal     *string         `gorm:"column:match_signal;type:text"`
	PostingID       *int64          `gorm:"column:posting_id;type:bigint"`
	BestCandidateID *int64          `gorm:"column:best_candidate_id;type:bigint"`
	BestScore       *float64        `gorm:"column:best_score;type:double precision"`
	SubScores       json.RawMessage `gorm:"column:sub_scores;type:jsonb"`
	ErrorMessage    *string         `gorm:"column:error_message;type:text"`
	CreatedAt       time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ResolutionEvent) TableName() string { return "jobs.resolution_events" }

func autoMigrateModels() []any {
	return []any{
		&Company{},
		&Location{},
		&JobCategory{},
		&JobPosting{},
		&JobSource{},
		&JobMetrics{},
		&IngestBatch{},
		&ResolutionEvent{},
	}
}
