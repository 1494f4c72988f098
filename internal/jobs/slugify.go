// SPDX-License-Identifier: MIT

package jobs

import (
	"crypto/sha1" // #nosec G505 -- filename uniqueness, not security
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 50

// German sharp letters expand to digraphs rather than losing a letter.
var germanExpansions = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss")

// stripAccents decomposes to NFD and drops the combining marks, so
// "café réservé" folds to "cafe reserve".
func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// slugify converts a dataset name into a filesystem-safe, human-readable slug.
// Example: "Sales Q3 2024.csv" → "sales-q3-2024-csv"
func slugify(name string) string {
	s := stripAccents(germanExpansions.Replace(strings.ToLower(name)))

	// Keep a-z and 0-9; any run of anything else becomes one interior dash.
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}

	slug := b.String()
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "dataset"
	}
	return slug
}

// SafeDatasetFilename builds the on-disk filename for an ingested dataset.
// Format: "name-SUFFIX.csv" where SUFFIX is 6 chars hashed from uniq.
// This keeps filenames:
//   - Human-readable (e.g. "sales-q3-3fa92b.csv" instead of a bare UUID)
//   - Collision-free (different uploads of the same name get different files)
//   - Free of path traversal, since the slug drops every separator
func SafeDatasetFilename(name, uniq string) string {
	slug := slugify(name)

	sum := sha1.Sum([]byte(uniq)) // #nosec G401 -- filename uniqueness, not security
	suffix := hex.EncodeToString(sum[:])[:6]

	return slug + "-" + suffix + ".csv"
}
