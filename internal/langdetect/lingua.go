// Package langdetect tags posting descriptions with an ISO 639-1 language
// code. Detection is best effort: short or ambiguous text yields "".
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// Job boards in scope publish in a bounded set of languages. Restricting the
// detector keeps model memory down and avoids misdetections between close
// relatives of languages that never appear in the corpus.
var boardLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Italian,
	lingua.Polish,
	lingua.Swedish,
	lingua.Japanese,
}

// Descriptions shorter than this rarely detect reliably.
const minLetters = 12

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter language code of text, or "" when the
// text is too short or the detector is not confident.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(boardLanguages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
