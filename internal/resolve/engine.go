// Package resolve implements the job identity resolution engine: deciding
// whether an incoming scraped posting is a job the catalog has already seen,
// and either creating a canonical record or folding the sighting into an
// existing one.
package resolve

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hound.fit/jobhound/internal/db"
	"hound.fit/jobhound/internal/fingerprint"
	"hound.fit/jobhound/internal/globaltime"
	"hound.fit/jobhound/internal/langdetect"
	"hound.fit/jobhound/internal/normalize"
)

const (
	DecisionCreated = "created"
	DecisionMerged  = "merged"
	DecisionUpdated = "updated"
	DecisionError   = "error"

	signalFingerprint = "fingerprint"
	signalSimilarity  = "similarity"
)

// How many times a create is retried as a merge after losing a race to a
// concurrent batch. Each retry re-runs the fingerprint lookup, which then
// finds the row that won.
const maxConflictRetries = 2

// RawPosting is one scraped record handed over by the scraping collaborator.
type RawPosting struct {
	Title           string     `json:"title"`
	Company         string     `json:"company"`
	CompanyDomain   string     `json:"company_domain,omitempty"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	Requirements    string     `json:"requirements,omitempty"`
	JobType         string     `json:"job_type,omitempty"`
	ExperienceLevel string     `json:"experience_level,omitempty"`
	Remote          bool       `json:"remote,omitempty"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	SalaryCurrency  string     `json:"salary_currency,omitempty"`
	SalaryInterval  string     `json:"salary_interval,omitempty"`
	URL             string     `json:"url,omitempty"`
	ApplyURL        string     `json:"apply_url,omitempty"`
	ExternalID      string     `json:"external_id"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	EasyApply       bool       `json:"easy_apply,omitempty"`
}

// Batch is one scrape run against one source site.
type Batch struct {
	BatchUUID    string          `json:"batch_uuid,omitempty"`
	SourceSite   string          `json:"source_site"`
	SearchParams json.RawMessage `json:"search_params,omitempty"`
	Postings     []RawPosting    `json:"postings"`
}

// Options tune resolution. Zero values fall back to the defaults.
type Options struct {
	Threshold           float64
	Weights             Weights
	CandidateMaxAgeDays int
	CandidateLimit      int
	SnippetLength       int
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Weights == (Weights{}) {
		o.Weights = DefaultWeights()
	}
	if o.CandidateMaxAgeDays <= 0 {
		o.CandidateMaxAgeDays = 90
	}
	if o.CandidateLimit <= 0 {
		o.CandidateLimit = 100
	}
	if o.SnippetLength <= 0 {
		o.SnippetLength = normalize.DefaultSnippetLength
	}
	return o
}

// PostingTrace records the decision for one raw posting within a batch.
type PostingTrace struct {
	Index      int      `json:"index"`
	ExternalID string   `json:"external_id"`
	Decision   string   `json:"decision"`
	PostingID  int64    `json:"posting_id,omitempty"`
	Signal     string   `json:"signal,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// BatchSummary is what the run-tracking collaborator consumes.
type BatchSummary struct {
	BatchID   int64          `json:"batch_id"`
	BatchUUID string         `json:"batch_uuid"`
	Total     int            `json:"total"`
	Created   int            `json:"created"`
	Merged    int            `json:"merged"`
	Updated   int            `json:"updated"`
	Errors    int            `json:"errors"`
	Traces    []PostingTrace `json:"traces"`
}

// Engine resolves raw postings against the shared canonical catalog. The
// catalog handle is passed in explicitly; engines carry no global state, so
// several can run side by side.
type Engine struct {
	pool   *db.Pool
	cache  *db.FingerprintCache
	logger zerolog.Logger
	opts   Options
}

func NewEngine(pool *db.Pool, cache *db.FingerprintCache, logger zerolog.Logger, opts Options) *Engine {
	return &Engine{
		pool:   pool,
		cache:  cache,
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// ProcessBatch resolves every posting in the batch, one transaction per
// posting. A bad posting is counted and skipped; an unreachable catalog store
// aborts the batch, preserving the stats of postings already processed.
func (e *Engine) ProcessBatch(ctx context.Context, batch Batch) (BatchSummary, error) {
	if e == nil || e.pool == nil {
		return BatchSummary{}, fmt.Errorf("resolution engine is not initialized")
	}

	sourceSite := strings.ToLower(strings.TrimSpace(batch.SourceSite))
	if sourceSite == "" {
		return BatchSummary{}, &ValidationError{Field: "source_site"}
	}

	batchUUID := strings.TrimSpace(batch.BatchUUID)
	if batchUUID == "" {
		batchUUID = uuid.NewString()
	}

	batchID, err := e.insertBatchRow(ctx, batchUUID, sourceSite, batch.SearchParams, len(batch.Postings))
	if err != nil {
		return BatchSummary{}, &StorageError{Op: "insert batch", Err: err}
	}

	summary := BatchSummary{
		BatchID:   batchID,
		BatchUUID: batchUUID,
		Total:     len(batch.Postings),
		Traces:    make([]PostingTrace, 0, len(batch.Postings)),
	}

	for i, raw := range batch.Postings {
		trace, fatal := e.processOne(ctx, batchID, sourceSite, i, raw)
		summary.Traces = append(summary.Traces, trace)

		switch trace.Decision {
		case DecisionCreated:
			summary.Created++
		case DecisionMerged:
			summary.Merged++
		case DecisionUpdated:
			summary.Updated++
		case DecisionError:
			summary.Errors++
		}

		if fatal != nil {
			e.logger.Error().Err(fatal).
				Str("batch_uuid", batchUUID).
				Int("processed", i+1).
				Msg("catalog store unavailable, aborting batch")
			_ = e.finishBatchRow(ctx, batchID, "failed", summary, fatal.Error())
			return summary, &StorageError{Op: "process batch", Err: fatal}
		}
	}

	if err := e.finishBatchRow(ctx, batchID, "completed", summary, ""); err != nil {
		return summary, &StorageError{Op: "finish batch", Err: err}
	}

	e.logger.Info().
		Str("batch_uuid", batchUUID).
		Str("source_site", sourceSite).
		Int("total", summary.Total).
		Int("created", summary.Created).
		Int("merged", summary.Merged).
		Int("updated", summary.Updated).
		Int("errors", summary.Errors).
		Msg("batch resolved")

	return summary, nil
}

// processOne runs the per-posting state machine. The returned fatal error is
// non-nil only when the catalog store itself failed.
func (e *Engine) processOne(ctx context.Context, batchID int64, sourceSite string, index int, raw RawPosting) (PostingTrace, error) {
	trace := PostingTrace{
		Index:      index,
		ExternalID: strings.TrimSpace(raw.ExternalID),
		Decision:   DecisionError,
	}

	if err := validateRaw(raw); err != nil {
		trace.Error = err.Error()
		e.recordErrorEvent(ctx, batchID, sourceSite, trace.ExternalID, err)
		return trace, nil
	}

	d := derive(raw, e.opts.SnippetLength)

	for attempt := 0; ; attempt++ {
		outcome, err := e.resolveOnce(ctx, batchID, sourceSite, d)
		if err == nil {
			e.cache.Store(ctx, d.fp, outcome.postingID)
			trace.Decision = outcome.decision
			trace.PostingID = outcome.postingID
			trace.Signal = outcome.signal
			trace.Score = outcome.score
			e.logger.Debug().
				Str("decision", outcome.decision).
				Str("signal", outcome.signal).
				Int64("posting_id", outcome.postingID).
				Str("external_id", trace.ExternalID).
				Msg("posting resolved")
			return trace, nil
		}

		if IsUniqueViolation(err) && attempt < maxConflictRetries {
			// A concurrent batch created the same canonical row first. The
			// retry finds it by fingerprint and merges instead.
			e.logger.Debug().
				Str("external_id", trace.ExternalID).
				Int("attempt", attempt+1).
				Msg("create lost a race, retrying as merge")
			continue
		}

		trace.Error = err.Error()
		if IsStorageUnavailable(err) {
			return trace, err
		}

		e.logger.Warn().Err(err).
			Str("external_id", trace.ExternalID).
			Msg("posting failed to resolve")
		e.recordErrorEvent(ctx, batchID, sourceSite, trace.ExternalID, err)
		return trace, nil
	}
}

type outcome struct {
	decision  string
	postingID int64
	signal    string
	score     *float64
}

func (e *Engine) resolveOnce(ctx context.Context, batchID int64, sourceSite string, d derivedPosting) (outcome, error) {
	tx, err := e.pool.BeginTx(ctx, db.TxOptions{})
	if err != nil {
		return outcome{}, fmt.Errorf("begin posting tx: %w", err)
	}

	out, err := e.resolvePostingTx(ctx, tx, batchID, sourceSite, d)
	if err != nil {
		_ = tx.Rollback(ctx)
		return outcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		_ = tx.Rollback(ctx)
		return outcome{}, fmt.Errorf("commit posting tx: %w", err)
	}
	return out, nil
}

func (e *Engine) resolvePostingTx(ctx context.Context, tx db.Tx, batchID int64, sourceSite string, d derivedPosting) (outcome, error) {
	now := globaltime.UTC()

	// Exact match first. The cache only suggests an id; the row is always
	// re-read inside the transaction.
	postingID, found, err := e.findByFingerprintTx(ctx, tx, d.fp)
	if err != nil {
		return outcome{}, err
	}
	if found {
		one := 1.0
		decision, err := mergePostingTx(ctx, tx, mergeInput{
			batchID:    batchID,
			sourceSite: sourceSite,
			postingID:  postingID,
			signal:     signalFingerprint,
			score:      &one,
			derived:    d,
			now:        now,
		})
		if err != nil {
			return outcome{}, err
		}
		return outcome{decision: decision, postingID: postingID, signal: signalFingerprint, score: &one}, nil
	}

	best, ok, err := e.bestCandidateTx(ctx, tx, now, d)
	if err != nil {
		return outcome{}, err
	}
	if ok {
		decision, err := mergePostingTx(ctx, tx, mergeInput{
			batchID:    batchID,
			sourceSite: sourceSite,
			postingID:  best.candidate.PostingID,
			signal:     signalSimilarity,
			score:      &best.score,
			subScores:  &best.sub,
			derived:    d,
			now:        now,
		})
		if err != nil {
			return outcome{}, err
		}
		return outcome{decision: decision, postingID: best.candidate.PostingID, signal: signalSimilarity, score: &best.score}, nil
	}

	var bestID *int64
	var bestScore *float64
	var bestSub *SubScores
	if best.candidate.PostingID != 0 {
		bestID = &best.candidate.PostingID
		bestScore = &best.score
		bestSub = &best.sub
	}

	postingID, err = createPostingTx(ctx, tx, createInput{
		batchID:       batchID,
		sourceSite:    sourceSite,
		derived:       d,
		now:           now,
		bestCandidate: bestID,
		bestScore:     bestScore,
		bestSubScores: bestSub,
	})
	if err != nil {
		return outcome{}, err
	}
	return outcome{decision: DecisionCreated, postingID: postingID}, nil
}

func (e *Engine) findByFingerprintTx(ctx context.Context, tx db.Tx, fp string) (int64, bool, error) {
	if hintID, ok := e.cache.Lookup(ctx, fp); ok {
		var postingID int64
		err := tx.QueryRow(ctx, `
SELECT posting_id FROM jobs.postings WHERE posting_id = $1 AND fingerprint = $2
`, hintID, fp).Scan(&postingID)
		if err == nil {
			return postingID, true, nil
		}
		if !db.IsNoRows(err) {
			return 0, false, fmt.Errorf("verify cached fingerprint: %w", err)
		}
		// Stale hint, fall through to the indexed lookup.
	}

	var postingID int64
	err := tx.QueryRow(ctx, `
SELECT posting_id FROM jobs.postings WHERE fingerprint = $1
`, fp).Scan(&postingID)
	if db.IsNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup fingerprint: %w", err)
	}
	return postingID, true, nil
}

type scoredCandidate struct {
	candidate Candidate
	score     float64
	sub       SubScores
}

// bestCandidateTx retrieves and scores candidates. ok reports whether the
// best one clears the threshold; the best scored candidate is returned either
// way so a create can still trace what it almost matched.
func (e *Engine) bestCandidateTx(ctx context.Context, tx db.Tx, now time.Time, d derivedPosting) (scoredCandidate, bool, error) {
	candidates, err := findCandidates(ctx, tx, now, candidateFilter{
		NormalizedCompany: d.profile.Company,
		KeyTerms:          d.keyTerms,
		MaxAgeDays:        e.opts.CandidateMaxAgeDays,
		Limit:             e.opts.CandidateLimit,
	})
	if err != nil {
		return scoredCandidate{}, false, err
	}
	if len(candidates) == 0 {
		return scoredCandidate{}, false, nil
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		total, sub := Score(d.profile, c.Profile(), e.opts.Weights)
		scored = append(scored, scoredCandidate{candidate: c, score: total, sub: sub})
	}

	// Total order: score descending, posting id ascending. Repeated runs on
	// identical input pick identical winners.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].candidate.PostingID < scored[j].candidate.PostingID
	})

	best := scored[0]
	return best, Duplicate(best.score, e.opts.Threshold), nil
}

func (e *Engine) insertBatchRow(ctx context.Context, batchUUID, sourceSite string, searchParams json.RawMessage, total int) (int64, error) {
	params := searchParams
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}

	var batchID int64
	err := e.pool.QueryRow(ctx, `
INSERT INTO jobs.ingest_batches (batch_uuid, source_site, search_params, started_at, status, total_count)
VALUES ($1, $2, $3::jsonb, $4, 'running', $5)
RETURNING batch_id
`, batchUUID, sourceSite, string(params), globaltime.UTC(), total).Scan(&batchID)
	if err != nil {
		return 0, fmt.Errorf("insert ingest batch: %w", err)
	}
	return batchID, nil
}

func (e *Engine) finishBatchRow(ctx context.Context, batchID int64, status string, s BatchSummary, errMsg string) error {
	var msg *string
	if errMsg != "" {
		msg = &errMsg
	}

	_, err := e.pool.Exec(ctx, `
UPDATE jobs.ingest_batches
SET status = $2,
	finished_at = $3,
	created_count = $4,
	merged_count = $5,
	updated_count = $6,
	error_count = $7,
	error_message = $8,
	updated_at = $3
WHERE batch_id = $1
`, batchID, status, globaltime.UTC(), s.Created, s.Merged, s.Updated, s.Errors, msg)
	if err != nil {
		return fmt.Errorf("finish ingest batch: %w", err)
	}
	return nil
}

// recordErrorEvent writes the trace row for a posting whose own transaction
// rolled back. Best effort: a failure here is logged, not propagated, so the
// original error classification survives.
func (e *Engine) recordErrorEvent(ctx context.Context, batchID int64, sourceSite, externalID string, cause error) {
	msg := cause.Error()
	_, err := e.pool.Exec(ctx, `
INSERT INTO jobs.resolution_events (batch_id, source_site, external_id, decision, error_message, created_at)
VALUES ($1, $2, $3, 'error', $4, $5)
`, batchID, sourceSite, externalID, msg, globaltime.UTC())
	if err != nil {
		e.logger.Warn().Err(err).
			Str("external_id", externalID).
			Msg("failed to record error event")
	}
}

func validateRaw(raw RawPosting) error {
	if strings.TrimSpace(raw.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(raw.Company) == "" {
		return &ValidationError{Field: "company"}
	}
	if strings.TrimSpace(raw.ExternalID) == "" {
		return &ValidationError{Field: "external_id"}
	}
	return nil
}

// derivedPosting carries every normalization product of a raw posting, so
// each transform runs exactly once per posting.
type derivedPosting struct {
	raw              RawPosting
	profile          Profile
	fp               string
	keyTerms         map[string]struct{}
	loc              normalize.ParsedLocation
	remote           bool
	category         normalize.Category
	cleanDescription string
	requirements     *string
	language         *string
	salaryMin        *float64
	salaryMax        *float64
}

func derive(raw RawPosting, snippetLen int) derivedPosting {
	d := derivedPosting{raw: raw}

	d.profile = Profile{
		Title:    normalize.Title(raw.Title),
		Company:  normalize.Company(raw.Company),
		Location: normalize.Location(raw.Location),
		JobType:  strings.ToLower(strings.TrimSpace(raw.JobType)),
		Snippet:  normalize.DescriptionSnippet(raw.Description, snippetLen),
	}

	d.fp = fingerprint.Compute(fingerprint.Fields{
		Title:    d.profile.Title,
		Company:  d.profile.Company,
		Location: d.profile.Location,
		JobType:  d.profile.JobType,
		Snippet:  d.profile.Snippet,
	})

	d.keyTerms = normalize.KeyTerms(d.profile.Title)
	d.remote = raw.Remote || normalize.LooksRemote(raw.Location)
	d.loc = normalize.ParseLocation(d.profile.Location)
	d.category = normalize.CategoryFor(d.profile.Title)
	d.cleanDescription = normalize.StripMarkup(raw.Description)

	if req := normalize.StripMarkup(raw.Requirements); req != "" {
		d.requirements = &req
	}
	if code := langdetect.DetectISO6391(d.cleanDescription); code != "" {
		lang := code
		d.language = &lang
	}

	// Inverted salary bounds are corrected, never persisted.
	d.salaryMin, d.salaryMax = raw.SalaryMin, raw.SalaryMax
	if d.salaryMin != nil && d.salaryMax != nil && *d.salaryMin > *d.salaryMax {
		d.salaryMin, d.salaryMax = d.salaryMax, d.salaryMin
	}

	return d
}
