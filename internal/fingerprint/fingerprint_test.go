package fingerprint

import "testing"

func TestComputeDeterministic(t *testing.T) {
	t.Parallel()

	f := Fields{
		Title:    "software engineer",
		Company:  "acme",
		Location: "san francisco, ca",
		JobType:  "full-time",
		Snippet:  "we build crawlers for job boards.",
	}

	first := Compute(f)
	second := Compute(f)
	if first != second {
		t.Fatalf("fingerprint not deterministic: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
	for _, r := range first {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("unexpected rune %q in fingerprint %s", r, first)
		}
	}
}

func TestComputeFieldBoundaries(t *testing.T) {
	t.Parallel()

	a := Compute(Fields{Title: "ab", Company: "c"})
	b := Compute(Fields{Title: "a", Company: "bc"})
	if a == b {
		t.Fatalf("adjacent fields bled together: %s", a)
	}
}

func TestComputeFieldSensitivity(t *testing.T) {
	t.Parallel()

	base := Fields{
		Title:    "software engineer",
		Company:  "acme",
		Location: "austin, tx",
		JobType:  "full-time",
		Snippet:  "snippet",
	}

	variants := []Fields{
		{Title: "data engineer", Company: base.Company, Location: base.Location, JobType: base.JobType, Snippet: base.Snippet},
		{Title: base.Title, Company: "globex", Location: base.Location, JobType: base.JobType, Snippet: base.Snippet},
		{Title: base.Title, Company: base.Company, Location: "remote", JobType: base.JobType, Snippet: base.Snippet},
		{Title: base.Title, Company: base.Company, Location: base.Location, JobType: "contract", Snippet: base.Snippet},
		{Title: base.Title, Company: base.Company, Location: base.Location, JobType: base.JobType, Snippet: "other snippet"},
	}

	baseFP := Compute(base)
	for i, v := range variants {
		if Compute(v) == baseFP {
			t.Fatalf("variant %d produced the base fingerprint", i)
		}
	}
}

func TestComputeEmptyFields(t *testing.T) {
	t.Parallel()

	empty := Compute(Fields{})
	if len(empty) != 64 {
		t.Fatalf("expected a digest for empty fields, got %q", empty)
	}
	if empty == Compute(Fields{Title: "x"}) {
		t.Fatalf("empty and non-empty fields collided")
	}
}
