// SPDX-License-Identifier: MIT

package dataset

import (
	"strconv"
	"strings"
	"time"
)

// kindThreshold is the share of non-null sampled values that must parse as a
// candidate kind before the column is typed as that kind.
const kindThreshold = 0.8

// nullMarkers are cell values treated as missing regardless of column kind.
var nullMarkers = map[string]struct{}{
	"":     {},
	"null": {},
	"NULL": {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
}

// IsNull reports whether a raw cell value represents a missing entry.
func IsNull(s string) bool {
	_, ok := nullMarkers[strings.TrimSpace(s)]
	return ok
}

// dateFormats lists the accepted datetime layouts, tried in order.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"Jan-2006",
	"January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

func parseDatetime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBoolean(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes":
		return true, true
	case "false", "f", "no":
		return false, true
	}
	return false, false
}

// parseNumeric parses a cell as float64, tolerating thousands separators and
// leading currency symbols.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.TrimPrefix(s, sym)
	}
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// detectKind infers a column kind from raw values. At most sampleCap non-null
// values are examined; a kind wins when at least 80% of them parse as it.
// Candidates are tried in the order boolean, datetime, numeric; anything else
// is categorical.
func detectKind(values []string, sampleCap int) Kind {
	if sampleCap <= 0 {
		sampleCap = 1000
	}

	var examined, boolHits, dateHits, numHits int
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		if examined >= sampleCap {
			break
		}
		examined++
		if _, ok := parseBoolean(v); ok {
			boolHits++
		}
		if _, ok := parseDatetime(v); ok {
			dateHits++
		}
		if _, ok := parseNumeric(v); ok {
			numHits++
		}
	}

	if examined == 0 {
		return KindCategorical
	}

	threshold := int(float64(examined) * kindThreshold)
	if threshold < 1 {
		threshold = 1
	}
	switch {
	case boolHits >= threshold:
		return KindBoolean
	case dateHits >= threshold:
		return KindDatetime
	case numHits >= threshold:
		return KindNumeric
	default:
		return KindCategorical
	}
}
