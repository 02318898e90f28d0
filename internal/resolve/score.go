package resolve

import "strings"

// DefaultThreshold is the similarity score at or above which a candidate is
// the same real-world job. Hand tuned, so it stays configurable.
const DefaultThreshold = 0.85

// Weights are the per-field contributions to the overall similarity score.
// They are configuration, not invariants.
type Weights struct {
	Title    float64
	Company  float64
	Location float64
	JobType  float64
	Snippet  float64
}

// DefaultWeights favors title and company: those two fields carry most of a
// posting's identity, while location and snippet wording drift between sites.
func DefaultWeights() Weights {
	return Weights{
		Title:    0.40,
		Company:  0.30,
		Location: 0.15,
		JobType:  0.10,
		Snippet:  0.05,
	}
}

// Profile is the normalized comparison view of a posting, raw or canonical.
// All fields are already normalized by the caller.
type Profile struct {
	Title    string
	Company  string
	Location string
	JobType  string
	Snippet  string
}

// SubScores records the per-field similarity components for the resolution
// trace.
type SubScores struct {
	Title    float64 `json:"title"`
	Company  float64 `json:"company"`
	Location float64 `json:"location"`
	JobType  float64 `json:"job_type"`
	Snippet  float64 `json:"snippet"`
}

// Score compares two posting profiles and returns the weighted similarity in
// [0, 1] along with the per-field components. Text fields use a character
// level sequence-matching ratio; job type is exact equality.
func Score(a, b Profile, w Weights) (float64, SubScores) {
	sub := SubScores{
		Title:    SimilarityRatio(a.Title, b.Title),
		Company:  SimilarityRatio(a.Company, b.Company),
		Location: SimilarityRatio(a.Location, b.Location),
		JobType:  equalityScore(a.JobType, b.JobType),
		Snippet:  SimilarityRatio(a.Snippet, b.Snippet),
	}

	denom := w.Title + w.Company + w.Location + w.JobType + w.Snippet
	if denom <= 0 {
		return 0, sub
	}

	total := (w.Title*sub.Title +
		w.Company*sub.Company +
		w.Location*sub.Location +
		w.JobType*sub.JobType +
		w.Snippet*sub.Snippet) / denom

	return total, sub
}

// Duplicate reports whether a score clears the threshold. The boundary is
// inclusive: exactly threshold is a duplicate.
func Duplicate(score, threshold float64) bool {
	return score >= threshold
}

func equalityScore(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1
	}
	return 0
}

// SimilarityRatio is the character-level sequence-matching ratio of two
// strings: twice the number of matching characters found by recursively
// taking the longest common substring, divided by the total length. Two
// equal strings, including two empty strings, score 1.
func SimilarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}

	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 || len(br) == 0 {
		return 0
	}

	matches := matchingRunes(ar, br)
	return 2 * float64(matches) / float64(len(ar)+len(br))
}

func matchingRunes(a, b []rune) int {
	ai, bi, size := longestCommonRun(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

// longestCommonRun finds the longest common substring of a and b, preferring
// the earliest occurrence in a (then in b) so that scoring is deterministic.
func longestCommonRun(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0

	// lengths[j] is the length of the common run ending at a[i], b[j-1] from
	// the previous row.
	lengths := make([]int, len(b)+1)
	for i := range a {
		prev := 0
		for j := range b {
			current := lengths[j+1]
			if a[i] == b[j] {
				lengths[j+1] = prev + 1
				if lengths[j+1] > bestSize {
					bestSize = lengths[j+1]
					bestA = i - bestSize + 1
					bestB = j - bestSize + 1
				}
			} else {
				lengths[j+1] = 0
			}
			prev = current
		}
	}

	return bestA, bestB, bestSize
}
