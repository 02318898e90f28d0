package payloadschema

import (
	"encoding/json"
	"testing"
	"time"
)

func TestValidateBatchPayload_Valid(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"linkedin",
		"batch_uuid":"7d2f8a8e-6a11-4f6e-9c35-58a2a4b6f001",
		"search_params":{"query":"software engineer","location":"san francisco"},
		"postings":[
			{
				"title":"Senior Software Engineer",
				"company":"Acme Inc",
				"external_id":"li-98765",
				"location":"San Francisco, CA",
				"description":"<p>We build crawlers.</p>",
				"job_type":"Full-Time",
				"remote":false,
				"salary_min":140000,
				"salary_max":180000,
				"salary_currency":"USD",
				"salary_interval":"yearly",
				"url":"https://linkedin.example.com/jobs/98765",
				"posted_at":"2026-08-20T09:00:00Z",
				"easy_apply":true
			}
		]
	}`)

	batch, err := ValidateBatchPayload(payload)
	if err != nil {
		t.Fatalf("expected payload to be valid, got error: %v", err)
	}

	if batch.SourceSite != "linkedin" {
		t.Fatalf("expected source_site=linkedin, got %q", batch.SourceSite)
	}
	if batch.BatchUUID != "7d2f8a8e-6a11-4f6e-9c35-58a2a4b6f001" {
		t.Fatalf("unexpected batch uuid %q", batch.BatchUUID)
	}
	if len(batch.Postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(batch.Postings))
	}

	p := batch.Postings[0]
	if p.ExternalID != "li-98765" {
		t.Fatalf("expected external_id=li-98765, got %q", p.ExternalID)
	}
	if p.PostedAt == nil || !p.PostedAt.Equal(time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("posted_at not parsed: %v", p.PostedAt)
	}
	if p.SalaryMin == nil || *p.SalaryMin != 140000 {
		t.Fatalf("salary_min not carried: %v", p.SalaryMin)
	}
	if !p.EasyApply {
		t.Fatalf("easy_apply flag lost")
	}
}

func TestValidateBatchPayload_MissingRequired(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"indeed",
		"postings":[{"title":"Engineer","company":"Acme"}]
	}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for missing external_id")
	}
}

func TestValidateBatchPayload_WrongVersion(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v2",
		"source_site":"indeed",
		"postings":[]
	}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown payload version")
	}
}

func TestValidateBatchPayload_WhitespaceTitle(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"indeed",
		"postings":[{"title":"   ","company":"Acme","external_id":"x1"}]
	}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for whitespace-only title")
	}
}

func TestValidateBatchPayload_BadPostedAt(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"indeed",
		"postings":[{"title":"Engineer","company":"Acme","external_id":"x1","posted_at":"yesterday"}]
	}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for malformed posted_at")
	}
}

func TestValidateBatchPayload_UnknownField(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"indeed",
		"surprise":true,
		"postings":[]
	}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for unknown top-level field")
	}
}

func TestValidateBatchPayload_TrailingContent(t *testing.T) {
	payload := json.RawMessage(`{"payload_version":"v1","source_site":"indeed","postings":[]} {}`)

	if _, err := ValidateBatchPayload(payload); err == nil {
		t.Fatalf("expected validation to fail for trailing JSON content")
	}
}

func TestValidateBatchPayload_EmptyPostingsAllowed(t *testing.T) {
	payload := json.RawMessage(`{
		"payload_version":"v1",
		"source_site":"indeed",
		"postings":[]
	}`)

	batch, err := ValidateBatchPayload(payload)
	if err != nil {
		t.Fatalf("empty batch should validate: %v", err)
	}
	if len(batch.Postings) != 0 {
		t.Fatalf("expected no postings, got %d", len(batch.Postings))
	}
}
