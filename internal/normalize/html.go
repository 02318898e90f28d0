package normalize

import (
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/go-shiori/dom"
	"golang.org/x/net/html"
)

// Job boards deliver descriptions as HTML fragments more often than as full
// documents, so the fragment is wrapped before extraction and a plain tag
// stripper backs up readability for inputs too small for it.

// StripMarkup reduces a job description, HTML or plain text, to readable
// text. Empty or whitespace-only input yields "".
func StripMarkup(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.ContainsRune(trimmed, '<') {
		return CleanText(trimmed)
	}

	if text := extractReadable(trimmed); text != "" {
		return text
	}
	return CleanText(stripTags(trimmed))
}

func extractReadable(fragment string) string {
	page := fragment
	if !strings.Contains(strings.ToLower(fragment), "<body") {
		page = "<html><body>" + fragment + "</body></html>"
	}

	pageURL, err := url.Parse("https://jobhound.invalid/posting")
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(strings.NewReader(page), pageURL)
	if err != nil {
		return ""
	}

	var b strings.Builder
	if err := article.RenderText(&b); err != nil {
		return ""
	}
	return CleanText(b.String())
}

// stripTags drops every element, keeping text content in document order.
func stripTags(fragment string) string {
	node, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return dom.TextContent(node)
}

// CleanText normalizes whitespace line by line: blank lines separate
// paragraphs, everything else collapses to single spaces.
func CleanText(text string) string {
	lines := strings.Split(text, "\n")
	paragraphs := make([]string, 0, len(lines))
	var current []string

	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, " "))
			current = current[:0]
		}
	}

	for _, line := range lines {
		cleaned := collapseWhitespace(line)
		if cleaned == "" {
			flush()
			continue
		}
		current = append(current, cleaned)
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}
