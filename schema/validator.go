// Package payloadschema validates incoming scrape batches against the v1
// payload contract before they reach the resolution engine.
package payloadschema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hound.fit/jobhound/internal/resolve"
)

//go:embed job_posting_batch.schema.json
var batchSchemaJSON string

// BatchPayload is the wire shape of one scrape batch. Timestamps arrive as
// RFC3339 strings and are parsed during conversion.
type BatchPayload struct {
	PayloadVersion string           `json:"payload_version"`
	SourceSite     string           `json:"source_site"`
	BatchUUID      *string          `json:"batch_uuid,omitempty"`
	SearchParams   json.RawMessage  `json:"search_params,omitempty"`
	Postings       []PostingPayload `json:"postings"`
}

type PostingPayload struct {
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	CompanyDomain   *string  `json:"company_domain,omitempty"`
	ExternalID      string   `json:"external_id"`
	Location        *string  `json:"location,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Requirements    *string  `json:"requirements,omitempty"`
	JobType         *string  `json:"job_type,omitempty"`
	ExperienceLevel *string  `json:"experience_level,omitempty"`
	Remote          *bool    `json:"remote,omitempty"`
	SalaryMin       *float64 `json:"salary_min,omitempty"`
	SalaryMax       *float64 `json:"salary_max,omitempty"`
	SalaryCurrency  *string  `json:"salary_currency,omitempty"`
	SalaryInterval  *string  `json:"salary_interval,omitempty"`
	URL             *string  `json:"url,omitempty"`
	ApplyURL        *string  `json:"apply_url,omitempty"`
	PostedAt        *string  `json:"posted_at,omitempty"`
	EasyApply       *bool    `json:"easy_apply,omitempty"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ValidateBatchPayload checks a raw payload against the embedded JSON schema
// and the semantic rules the schema cannot express, then converts it into the
// engine's batch input.
func ValidateBatchPayload(payload json.RawMessage) (*resolve.Batch, error) {
	value, err := decodeStrictJSON(payload)
	if err != nil {
		return nil, fmt.Errorf("decode payload JSON: %w", err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize payload JSON: %w", err)
	}

	var wire BatchPayload
	if err := json.Unmarshal(normalized, &wire); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := validateSemantics(&wire); err != nil {
		return nil, err
	}

	return toBatch(&wire)
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true

		if err := compiler.AddResource("job_posting_batch.schema.json", strings.NewReader(batchSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("job_posting_batch.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

func validateSemantics(wire *BatchPayload) error {
	if wire == nil {
		return fmt.Errorf("payload is nil")
	}

	if strings.TrimSpace(wire.PayloadVersion) != "v1" {
		return fmt.Errorf("payload_version must be v1")
	}
	if strings.TrimSpace(wire.SourceSite) == "" {
		return fmt.Errorf("source_site must not be empty")
	}

	for i, p := range wire.Postings {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("postings[%d].title must not be empty", i)
		}
		if strings.TrimSpace(p.Company) == "" {
			return fmt.Errorf("postings[%d].company must not be empty", i)
		}
		if strings.TrimSpace(p.ExternalID) == "" {
			return fmt.Errorf("postings[%d].external_id must not be empty", i)
		}
		if p.URL != nil {
			if err := validateURI(fmt.Sprintf("postings[%d].url", i), *p.URL); err != nil {
				return err
			}
		}
		if p.ApplyURL != nil {
			if err := validateURI(fmt.Sprintf("postings[%d].apply_url", i), *p.ApplyURL); err != nil {
				return err
			}
		}
		if p.PostedAt != nil {
			if _, err := time.Parse(time.RFC3339, strings.TrimSpace(*p.PostedAt)); err != nil {
				return fmt.Errorf("postings[%d].posted_at must be RFC3339: %w", i, err)
			}
		}
	}

	return nil
}

func toBatch(wire *BatchPayload) (*resolve.Batch, error) {
	batch := &resolve.Batch{
		SourceSite:   strings.TrimSpace(wire.SourceSite),
		SearchParams: wire.SearchParams,
		Postings:     make([]resolve.RawPosting, 0, len(wire.Postings)),
	}
	if wire.BatchUUID != nil {
		batch.BatchUUID = strings.TrimSpace(*wire.BatchUUID)
	}

	for i, p := range wire.Postings {
		raw := resolve.RawPosting{
			Title:           p.Title,
			Company:         p.Company,
			CompanyDomain:   stringValue(p.CompanyDomain),
			Location:        stringValue(p.Location),
			Description:     stringValue(p.Description),
			Requirements:    stringValue(p.Requirements),
			JobType:         stringValue(p.JobType),
			ExperienceLevel: stringValue(p.ExperienceLevel),
			SalaryMin:       p.SalaryMin,
			SalaryMax:       p.SalaryMax,
			SalaryCurrency:  stringValue(p.SalaryCurrency),
			SalaryInterval:  stringValue(p.SalaryInterval),
			URL:             stringValue(p.URL),
			ApplyURL:        stringValue(p.ApplyURL),
			ExternalID:      p.ExternalID,
		}
		if p.Remote != nil {
			raw.Remote = *p.Remote
		}
		if p.EasyApply != nil {
			raw.EasyApply = *p.EasyApply
		}
		if p.PostedAt != nil {
			parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*p.PostedAt))
			if err != nil {
				return nil, fmt.Errorf("postings[%d].posted_at must be RFC3339: %w", i, err)
			}
			utc := parsed.UTC()
			raw.PostedAt = &utc
		}
		batch.Postings = append(batch.Postings, raw)
	}

	return batch, nil
}

func validateURI(fieldName, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return fmt.Errorf("%s is not a valid URI: %w", fieldName, err)
	}
	return nil
}

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
