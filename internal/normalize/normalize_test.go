package normalize

import (
	"testing"
)

func TestTitle(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Software Engineer", "software engineer"},
		{"seniority and level and parenthetical", "Senior Software Engineer II (Remote)", "software engineer"},
		{"abbreviated seniority", "Jr. Developer", "developer"},
		{"stacked seniority", "Senior Lead Data Scientist", "data scientist"},
		{"head of", "Head of Marketing", "marketing"},
		{"level suffix with word", "Engineering Manager, Level 2", "engineering manager"},
		{"roman numeral", "Accountant III", "accountant"},
		{"work mode token", "Backend Developer Hybrid", "backend developer"},
		{"dangling separator", "Lead Data Scientist - Remote", "data scientist"},
		{"whitespace noise", "  Product   Manager  ", "product manager"},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Title(tc.in); got != tc.want {
				t.Fatalf("Title(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTitleVariantsConverge(t *testing.T) {
	t.Parallel()

	if a, b := Title("Senior Software Engineer II (Remote)"), Title("software engineer"); a != b {
		t.Fatalf("variants diverged: %q vs %q", a, b)
	}
}

func TestCompany(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "Acme", "acme"},
		{"double legal suffix", "Acme Co., Ltd.", "acme"},
		{"inc", "Initech Inc", "initech"},
		{"corporation", "Globex Corporation", "globex"},
		{"suffix only name survives", "LLC", "llc"},
		{"interior word kept", "Coca-Cola Company", "coca-cola"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Company(tc.in); got != tc.want {
				t.Fatalf("Company(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"city state", "San Francisco, CA", "san francisco, ca"},
		{"drops usa", "San Francisco, CA, USA", "san francisco, ca"},
		{"parenthetical and mode", "Austin, TX (Hybrid)", "austin, tx"},
		{"slash separator", "Remote - New York / USA", "new york"},
		{"pure remote", "Fully Remote", ""},
		{"keeps non-us country", "Berlin, Germany", "berlin, germany"},
		{"empty", "  ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Location(tc.in); got != tc.want {
				t.Fatalf("Location(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want ParsedLocation
	}{
		{"empty", "", ParsedLocation{}},
		{"city only", "portland", ParsedLocation{City: "portland"}},
		{"city state", "san francisco, ca", ParsedLocation{City: "san francisco", State: "ca"}},
		{"full triple", "toronto, on, canada", ParsedLocation{City: "toronto", State: "on", Country: "canada"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseLocation(tc.in); got != tc.want {
				t.Fatalf("ParseLocation(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestLooksRemote(t *testing.T) {
	t.Parallel()

	if !LooksRemote("Remote") {
		t.Fatalf("expected bare Remote to read as remote")
	}
	if !LooksRemote("Work from home") {
		t.Fatalf("expected work-from-home to read as remote")
	}
	if LooksRemote("Chicago, IL") {
		t.Fatalf("expected a concrete city not to read as remote")
	}
	if LooksRemote("") {
		t.Fatalf("expected empty location not to read as remote")
	}
}

func TestDescriptionSnippet(t *testing.T) {
	t.Parallel()

	t.Run("short text passes through lowered", func(t *testing.T) {
		t.Parallel()
		got := DescriptionSnippet("  We are   HIRING engineers.  ", 200)
		if got != "we are hiring engineers." {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("truncates at sentence boundary", func(t *testing.T) {
		t.Parallel()
		got := DescriptionSnippet("one two three. four five six seven eight nine ten.", 20)
		if got != "one two three." {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("falls back to word boundary", func(t *testing.T) {
		t.Parallel()
		got := DescriptionSnippet("alpha beta gamma delta epsilon", 12)
		if got != "alpha beta" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		if got := DescriptionSnippet("", 200); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})
}

func TestKeyTerms(t *testing.T) {
	t.Parallel()

	terms := KeyTerms("software engineer")
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d: %v", len(terms), terms)
	}
	for _, want := range []string{"software", "engineer"} {
		if _, ok := terms[want]; !ok {
			t.Fatalf("missing term %q in %v", want, terms)
		}
	}

	terms = KeyTerms("vp of sales")
	if len(terms) != 1 {
		t.Fatalf("expected short and stop tokens dropped, got %v", terms)
	}
	if _, ok := terms["sales"]; !ok {
		t.Fatalf("missing term sales in %v", terms)
	}

	if got := KeyTerms(""); len(got) != 0 {
		t.Fatalf("expected empty set for empty title, got %v", got)
	}
}
