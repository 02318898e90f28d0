package normalize

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	t.Run("plain text passes through", func(t *testing.T) {
		t.Parallel()
		if got := StripMarkup("Just plain   text"); got != "Just plain text" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		if got := StripMarkup("   "); got != "" {
			t.Fatalf("got %q, want empty", got)
		}
	})

	t.Run("html fragment loses tags", func(t *testing.T) {
		t.Parallel()
		got := StripMarkup("<div><p>We build <b>crawlers</b> for job boards.</p><ul><li>Go</li><li>SQL</li></ul></div>")
		if strings.ContainsAny(got, "<>") {
			t.Fatalf("markup survived: %q", got)
		}
		for _, want := range []string{"crawlers", "Go", "SQL"} {
			if !strings.Contains(got, want) {
				t.Fatalf("missing %q in %q", want, got)
			}
		}
	})
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	got := CleanText("Line one\n\n  Line   two  \nline three")
	want := "Line one\n\nLine two line three"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
