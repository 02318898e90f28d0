// Package fingerprint derives the stable content identity of a job posting.
// Two scrapes of the same underlying job, possibly from different sites,
// produce the same fingerprint whenever their normalized fields agree.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fieldSeparator keeps adjacent fields from bleeding into each other, so
// ("ab", "c") and ("a", "bc") hash differently. The unit separator cannot
// appear in normalized text.
const fieldSeparator = "\x1f"

// Fields are the normalized inputs to a posting fingerprint, in canonical
// order. Empty fields participate as empty strings so that position, not
// presence, determines the digest.
type Fields struct {
	Title    string
	Company  string
	Location string
	JobType  string
	Snippet  string
}

// Compute returns the lowercase hex SHA-256 of the canonical field encoding,
// always 64 characters.
func Compute(f Fields) string {
	joined := strings.Join([]string{
		f.Title,
		f.Company,
		f.Location,
		f.JobType,
		f.Snippet,
	}, fieldSeparator)

	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
