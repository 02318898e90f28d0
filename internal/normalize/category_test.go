package normalize

import "testing"

func TestCategoryFor(t *testing.T) {
	t.Parallel()

	cases := []struct {
		title      string
		wantName   string
		wantParent string
	}{
		{"software engineer", "Engineering", ""},
		{"machine learning engineer", "Machine Learning", "Data & Analytics"},
		{"data engineer", "Data Engineering", "Data & Analytics"},
		{"ios developer", "Mobile Engineering", "Engineering"},
		{"site reliability engineer", "DevOps & SRE", "Engineering"},
		{"product manager", "Product", ""},
		{"account executive", "Sales", ""},
		{"registered nurse", "Healthcare", ""},
		{"bios technician", OtherCategory, ""},
		{"chimney sweep", OtherCategory, ""},
	}

	for _, tc := range cases {
		t.Run(tc.title, func(t *testing.T) {
			t.Parallel()
			got := CategoryFor(tc.title)
			if got.Name != tc.wantName || got.Parent != tc.wantParent {
				t.Fatalf("CategoryFor(%q) = %+v, want {%s %s}", tc.title, got, tc.wantName, tc.wantParent)
			}
		})
	}
}

func TestContainsWordishBoundaries(t *testing.T) {
	t.Parallel()

	if containsWordish("bios technician", "ios") {
		t.Fatalf("ios matched inside bios")
	}
	if !containsWordish("ios platform developer", "ios") {
		t.Fatalf("ios failed to match on a word boundary")
	}
	if containsWordish("interested party", "sre") {
		t.Fatalf("sre matched inside interested")
	}
}
