package resolve

import (
	"errors"
	"sort"
	"testing"
	"time"
)

func TestValidateRaw(t *testing.T) {
	t.Parallel()

	valid := RawPosting{Title: "Software Engineer", Company: "Acme", ExternalID: "ext-1"}
	if err := validateRaw(valid); err != nil {
		t.Fatalf("unexpected error for valid posting: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*RawPosting)
		field  string
	}{
		{"missing title", func(p *RawPosting) { p.Title = " " }, "title"},
		{"missing company", func(p *RawPosting) { p.Company = "" }, "company"},
		{"missing external id", func(p *RawPosting) { p.ExternalID = "" }, "external_id"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tc.mutate(&p)
			err := validateRaw(p)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestDeriveFingerprintStableAcrossSites(t *testing.T) {
	t.Parallel()

	posted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	a := RawPosting{
		Title:       "Senior Software Engineer II (Remote)",
		Company:     "Acme Inc",
		Location:    "San Francisco, CA, USA",
		Description: "We build crawlers.",
		JobType:     "Full-Time",
		ExternalID:  "site-a-1",
		PostedAt:    &posted,
	}
	b := RawPosting{
		Title:       "software engineer",
		Company:     "ACME",
		Location:    "san francisco / CA",
		Description: "We build crawlers.",
		JobType:     "full-time",
		ExternalID:  "site-b-9",
	}

	first := derive(a, 0)
	second := derive(b, 0)
	if first.fp != second.fp {
		t.Fatalf("logically identical postings fingerprint differently:\n%s\n%s\nprofiles: %+v vs %+v",
			first.fp, second.fp, first.profile, second.profile)
	}
	if derive(a, 0).fp != first.fp {
		t.Fatalf("fingerprint not stable across repeated derivation")
	}
}

func TestDeriveSalaryCorrection(t *testing.T) {
	t.Parallel()

	low, high := 90000.0, 150000.0
	raw := RawPosting{
		Title:      "Engineer",
		Company:    "Acme",
		ExternalID: "x",
		SalaryMin:  &high,
		SalaryMax:  &low,
	}

	d := derive(raw, 0)
	if d.salaryMin == nil || d.salaryMax == nil {
		t.Fatalf("salary bounds lost: %+v", d)
	}
	if *d.salaryMin != low || *d.salaryMax != high {
		t.Fatalf("inverted bounds not corrected: min=%v max=%v", *d.salaryMin, *d.salaryMax)
	}
}

func TestDeriveRemoteDetection(t *testing.T) {
	t.Parallel()

	if d := derive(RawPosting{Title: "Engineer", Company: "Acme", ExternalID: "x", Location: "Remote"}, 0); !d.remote {
		t.Fatalf("remote location text not detected")
	}
	if d := derive(RawPosting{Title: "Engineer", Company: "Acme", ExternalID: "x", Remote: true, Location: "Austin, TX"}, 0); !d.remote {
		t.Fatalf("explicit remote flag ignored")
	}
	if d := derive(RawPosting{Title: "Engineer", Company: "Acme", ExternalID: "x", Location: "Austin, TX"}, 0); d.remote {
		t.Fatalf("on-site posting marked remote")
	}
}

func TestDeriveCategoryAssignment(t *testing.T) {
	t.Parallel()

	d := derive(RawPosting{Title: "Senior Data Engineer", Company: "Acme", ExternalID: "x"}, 0)
	if d.category.Name != "Data Engineering" {
		t.Fatalf("expected Data Engineering, got %+v", d.category)
	}

	d = derive(RawPosting{Title: "Dog Walker", Company: "Acme", ExternalID: "x"}, 0)
	if d.category.Name != "Other" {
		t.Fatalf("expected Other fallback, got %+v", d.category)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	t.Parallel()

	opts := Options{}.withDefaults()
	if opts.Threshold != DefaultThreshold {
		t.Fatalf("threshold default missing: %v", opts.Threshold)
	}
	if opts.Weights != DefaultWeights() {
		t.Fatalf("weights default missing: %+v", opts.Weights)
	}
	if opts.CandidateMaxAgeDays != 90 || opts.CandidateLimit != 100 {
		t.Fatalf("candidate defaults missing: %+v", opts)
	}

	custom := Options{Threshold: 0.9, CandidateLimit: 10}.withDefaults()
	if custom.Threshold != 0.9 || custom.CandidateLimit != 10 {
		t.Fatalf("explicit options overridden: %+v", custom)
	}
}

func TestMatchesKeyTerms(t *testing.T) {
	t.Parallel()

	terms := map[string]struct{}{"engineer": {}, "software": {}}
	if !matchesKeyTerms("backend engineer", terms) {
		t.Fatalf("shared term not matched")
	}
	if matchesKeyTerms("registered nurse", terms) {
		t.Fatalf("disjoint titles matched")
	}
	if !matchesKeyTerms("anything", nil) {
		t.Fatalf("empty term set must not filter")
	}
}

func TestCandidateProfile(t *testing.T) {
	t.Parallel()

	c := Candidate{
		NormalizedTitle: "software engineer",
		CompanyName:     "acme",
		JobType:         "Full-Time",
		Description:     "We build crawlers.",
		City:            "san francisco",
		State:           "ca",
	}

	p := c.Profile()
	if p.Location != "san francisco, ca" {
		t.Fatalf("location join wrong: %q", p.Location)
	}
	if p.JobType != "full-time" {
		t.Fatalf("job type not lowered: %q", p.JobType)
	}
	if p.Snippet != "we build crawlers." {
		t.Fatalf("snippet not derived: %q", p.Snippet)
	}

	remote := Candidate{NormalizedTitle: "engineer", CompanyName: "acme"}
	if got := remote.Profile().Location; got != "" {
		t.Fatalf("location-less candidate got %q", got)
	}
}

// The winner among equally scored candidates must not depend on retrieval
// order.
func TestCandidateOrderingIsTotal(t *testing.T) {
	t.Parallel()

	scored := []scoredCandidate{
		{candidate: Candidate{PostingID: 7}, score: 0.91},
		{candidate: Candidate{PostingID: 3}, score: 0.91},
		{candidate: Candidate{PostingID: 5}, score: 0.95},
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].candidate.PostingID < scored[j].candidate.PostingID
	})

	if scored[0].candidate.PostingID != 5 {
		t.Fatalf("highest score must win, got %d", scored[0].candidate.PostingID)
	}
	if scored[1].candidate.PostingID != 3 || scored[2].candidate.PostingID != 7 {
		t.Fatalf("ties must break by posting id: %v", []int64{scored[1].candidate.PostingID, scored[2].candidate.PostingID})
	}
}
