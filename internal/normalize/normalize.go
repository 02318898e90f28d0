package normalize

import (
	"strings"
	"unicode"
)

// DefaultSnippetLength bounds description snippets used for fingerprinting
// and fuzzy comparison.
const DefaultSnippetLength = 200

var titleStopWords = map[string]struct{}{
	"and": {}, "the": {}, "for": {}, "with": {}, "our": {}, "you": {},
	"all": {}, "are": {}, "will": {}, "who": {}, "into": {}, "from": {},
	"per": {}, "via": {},
}

// Seniority qualifiers stripped from the front of a title. Multi-word
// prefixes must come before their single-word forms.
var seniorityPrefixes = []string{
	"head of", "sr.", "sr", "jr.", "jr", "senior", "junior", "lead",
	"principal", "staff", "chief",
}

var workModeTokens = map[string]struct{}{
	"remote": {}, "onsite": {}, "on-site": {}, "hybrid": {}, "wfh": {},
}

var remoteQualifiers = []string{
	"fully remote", "remote ok", "remote friendly", "work from home",
	"remote", "anywhere", "wfh",
}

var usaSuffixes = map[string]struct{}{
	"usa": {}, "us": {}, "u.s.": {}, "u.s.a.": {}, "u.s": {}, "u.s.a": {},
	"united states": {}, "united states of america": {},
}

// Legal suffixes stripped from the tail of a company name, longest first.
var companyLegalSuffixes = []string{
	"incorporated", "corporation", "company", "limited", "l.l.c.", "l.l.c",
	"inc.", "inc", "corp.", "corp", "llc.", "llc", "ltd.", "ltd", "llp",
	"gmbh", "plc", "co.", "co",
}

var romanLevels = map[string]struct{}{
	"i": {}, "ii": {}, "iii": {}, "iv": {}, "v": {}, "vi": {}, "vii": {},
	"viii": {}, "ix": {}, "x": {},
}

// Title canonicalizes a raw job title for comparison: lower-cased, collapsed
// whitespace, seniority prefixes, trailing level suffixes, parentheticals,
// and work-mode qualifiers removed. The core role wording is preserved, so
// "Senior Software Engineer II (Remote)" and "software engineer" normalize
// to the same value.
func Title(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	lowered = stripParentheticals(lowered)
	lowered = collapseWhitespace(lowered)

	for {
		stripped := stripSeniorityPrefix(lowered)
		if stripped == lowered {
			break
		}
		lowered = stripped
	}

	tokens := strings.Fields(lowered)
	kept := tokens[:0]
	for _, token := range tokens {
		if _, ok := workModeTokens[token]; ok {
			continue
		}
		kept = append(kept, token)
	}
	tokens = kept

	for len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if _, roman := romanLevels[last]; roman || isLevelNumber(last) {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		if last == "level" || last == "lvl" {
			tokens = tokens[:len(tokens)-1]
			continue
		}
		break
	}

	return strings.TrimRight(strings.Join(tokens, " "), " ,-")
}

// Company canonicalizes an employer name: lower-cased, trailing legal
// suffixes removed ("Acme Co., Ltd." and "acme" compare equal).
func Company(raw string) string {
	lowered := collapseWhitespace(strings.ToLower(strings.TrimSpace(raw)))
	if lowered == "" {
		return ""
	}

	for {
		trimmed := strings.TrimRight(lowered, " ,.")
		matched := false
		for _, suffix := range companyLegalSuffixes {
			if trimmed == suffix {
				break
			}
			if strings.HasSuffix(trimmed, " "+suffix) || strings.HasSuffix(trimmed, ","+suffix) {
				trimmed = strings.TrimSuffix(trimmed, suffix)
				trimmed = strings.TrimRight(trimmed, " ,.")
				matched = true
				break
			}
		}
		if !matched {
			return trimmed
		}
		lowered = trimmed
	}
}

// Location canonicalizes a free-text location: lower-cased, separators
// standardized to commas, parentheticals, remote qualifiers, and trailing
// USA variants removed.
func Location(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	lowered = stripParentheticals(lowered)
	for _, sep := range []string{"|", "/", ";", " - ", " – ", " — ", "·"} {
		lowered = strings.ReplaceAll(lowered, sep, ",")
	}

	parts := strings.Split(lowered, ",")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := collapseWhitespace(strings.TrimSpace(part))
		if segment == "" {
			continue
		}
		if isRemoteQualifier(segment) {
			continue
		}
		segments = append(segments, segment)
	}

	for len(segments) > 1 {
		if _, ok := usaSuffixes[segments[len(segments)-1]]; !ok {
			break
		}
		segments = segments[:len(segments)-1]
	}

	return strings.Join(segments, ", ")
}

// ParsedLocation is the (city, state, country) triple extracted from a
// normalized location string.
type ParsedLocation struct {
	City    string
	State   string
	Country string
}

// ParseLocation splits a normalized location into its triple. An empty
// normalized value yields an empty triple (the posting stays location-less).
func ParseLocation(normalized string) ParsedLocation {
	if strings.TrimSpace(normalized) == "" {
		return ParsedLocation{}
	}

	parts := strings.Split(normalized, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 1:
		return ParsedLocation{City: parts[0]}
	case 2:
		return ParsedLocation{City: parts[0], State: parts[1]}
	default:
		return ParsedLocation{
			City:    parts[0],
			State:   strings.Join(parts[1:len(parts)-1], ", "),
			Country: parts[len(parts)-1],
		}
	}
}

// LooksRemote reports whether a raw location reads as a remote posting.
func LooksRemote(rawLocation string) bool {
	lowered := strings.ToLower(strings.TrimSpace(rawLocation))
	if lowered == "" {
		return false
	}
	if isRemoteQualifier(lowered) {
		return true
	}
	return Location(rawLocation) == ""
}

// DescriptionSnippet strips markup, collapses whitespace, lower-cases, and
// truncates at a sentence boundary not exceeding maxLen.
func DescriptionSnippet(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultSnippetLength
	}

	text := strings.ToLower(collapseWhitespace(StripMarkup(raw)))
	if text == "" {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	window := runes[:maxLen]
	if cut := lastSentenceBoundary(window); cut > 0 {
		return strings.TrimSpace(string(window[:cut]))
	}
	if cut := lastIndexRune(window, ' '); cut > 0 {
		return strings.TrimSpace(string(window[:cut]))
	}
	return strings.TrimSpace(string(window))
}

// KeyTerms tokenizes a normalized title and drops stop words and short
// tokens. Empty input yields an empty set.
func KeyTerms(normalizedTitle string) map[string]struct{} {
	terms := make(map[string]struct{})
	for _, token := range tokenize(normalizedTitle) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := titleStopWords[token]; stop {
			continue
		}
		terms[token] = struct{}{}
	}
	return terms
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func stripSeniorityPrefix(title string) string {
	for _, prefix := range seniorityPrefixes {
		if title == prefix {
			return ""
		}
		if strings.HasPrefix(title, prefix+" ") {
			return strings.TrimSpace(strings.TrimPrefix(title, prefix+" "))
		}
	}
	return title
}

func stripParentheticals(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	depth := 0
	for _, r := range text {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isRemoteQualifier(segment string) bool {
	for _, qualifier := range remoteQualifiers {
		if segment == qualifier {
			return true
		}
	}
	return false
}

func isLevelNumber(token string) bool {
	if len(token) != 1 {
		return false
	}
	return token[0] >= '1' && token[0] <= '9'
}

func lastSentenceBoundary(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			return i + 1
		}
	}
	return 0
}

func lastIndexRune(window []rune, target rune) int {
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == target {
			return i
		}
	}
	return -1
}
