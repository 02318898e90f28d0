package resolve

import (
	"math"
	"testing"
)

func TestSimilarityRatio(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "software engineer", "software engineer", 1},
		{"both empty", "", "", 1},
		{"one empty", "acme", "", 0},
		{"disjoint", "xyz", "qwu", 0},
		{"shared run", "abcd", "bcde", 0.75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SimilarityRatio(tc.a, tc.b); got != tc.want {
				t.Fatalf("SimilarityRatio(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSimilarityRatioSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"software engineer", "senior software engineer"},
		{"acme", "acme corp"},
		{"new york, ny", "new york"},
	}
	for _, p := range pairs {
		ab := SimilarityRatio(p[0], p[1])
		ba := SimilarityRatio(p[1], p[0])
		if ab != ba {
			t.Fatalf("ratio not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab <= 0 || ab >= 1 {
			t.Fatalf("expected partial overlap in (0,1) for %q/%q, got %v", p[0], p[1], ab)
		}
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	base := Profile{
		Title:    "software engineer",
		Company:  "acme",
		Location: "san francisco, ca",
		JobType:  "full-time",
		Snippet:  "we build crawlers for job boards.",
	}

	t.Run("identical profiles score one", func(t *testing.T) {
		t.Parallel()
		total, sub := Score(base, base, DefaultWeights())
		if math.Abs(total-1) > 1e-9 {
			t.Fatalf("expected 1.0, got %v", total)
		}
		if sub.Title != 1 || sub.Company != 1 || sub.Location != 1 || sub.JobType != 1 || sub.Snippet != 1 {
			t.Fatalf("expected all sub-scores 1, got %+v", sub)
		}
	})

	t.Run("job type mismatch costs its weight", func(t *testing.T) {
		t.Parallel()
		other := base
		other.JobType = "contract"
		total, sub := Score(base, other, DefaultWeights())
		if sub.JobType != 0 {
			t.Fatalf("expected job type sub-score 0, got %v", sub.JobType)
		}
		if math.Abs(total-0.90) > 1e-9 {
			t.Fatalf("expected 0.90, got %v", total)
		}
	})

	t.Run("unrelated postings score low", func(t *testing.T) {
		t.Parallel()
		other := Profile{
			Title:    "registered nurse",
			Company:  "mercy hospital",
			Location: "tulsa, ok",
			JobType:  "part-time",
			Snippet:  "compassionate patient care in our icu.",
		}
		total, _ := Score(base, other, DefaultWeights())
		if total >= DefaultThreshold {
			t.Fatalf("unrelated postings scored %v, above threshold", total)
		}
	})

	t.Run("zero weights score zero", func(t *testing.T) {
		t.Parallel()
		total, _ := Score(base, base, Weights{})
		if total != 0 {
			t.Fatalf("expected 0 for empty weights, got %v", total)
		}
	})
}

func TestDuplicateBoundaryInclusive(t *testing.T) {
	t.Parallel()

	if !Duplicate(0.85, DefaultThreshold) {
		t.Fatalf("score exactly at threshold must be a duplicate")
	}
	if Duplicate(0.8499, DefaultThreshold) {
		t.Fatalf("score below threshold must be distinct")
	}
	if !Duplicate(1.0, DefaultThreshold) {
		t.Fatalf("perfect score must be a duplicate")
	}
}
