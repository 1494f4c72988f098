// SPDX-License-Identifier: MIT

package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ReadOptions controls CSV ingestion.
type ReadOptions struct {
	// Name overrides the dataset name. Defaults to the file base name.
	Name string
	// Delimiter overrides sniffing. Zero sniffs comma, semicolon and tab.
	Delimiter rune
	// SampleRows bounds the rows examined during kind inference. Zero means
	// 1000.
	SampleRows int
	// Schema supplies per-column kind overrides.
	Schema *Schema
}

// ReadFile reads a CSV file into a dataset. The dataset name defaults to the
// file name without extension.
func ReadFile(path string, opts ReadOptions) (*Dataset, error) {
	// #nosec G304 -- dataset paths come from the operator or the guarded registry
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	if opts.Name == "" {
		base := filepath.Base(path)
		opts.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return ReadCSV(f, opts)
}

// ReadCSV reads CSV content into a dataset: decode charset, sniff the
// delimiter, parse records, infer column kinds and build typed columns.
func ReadCSV(r io.Reader, opts ReadOptions) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	text, err := decodeCharset(raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	delim := opts.Delimiter
	if opts.Schema != nil && opts.Schema.Delimiter != "" {
		delim = rune(opts.Schema.Delimiter[0])
	}
	if delim == 0 {
		delim = sniffDelimiter(text)
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	header := dedupeHeader(records[0])
	body := records[1:]
	if len(body) == 0 {
		return nil, ErrNoRows
	}

	// Columnar transpose with ragged-row tolerance: short rows are padded
	// with missing, long rows truncated.
	raws := make([][]string, len(header))
	for i := range raws {
		raws[i] = make([]string, len(body))
	}
	for rowIdx, rec := range body {
		for colIdx := range header {
			if colIdx < len(rec) {
				raws[colIdx][rowIdx] = strings.TrimSpace(rec[colIdx])
			}
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		kind, overridden := opts.Schema.kindFor(name)
		if !overridden {
			kind = detectKind(raws[i], opts.SampleRows)
		}
		cols[i] = buildColumn(name, kind, raws[i])
	}

	return New(opts.Name, cols)
}

// decodeCharset converts raw bytes to a UTF-8 string. UTF-8 and UTF-16 BOMs
// are honored; invalid UTF-8 without a BOM falls back to Latin-1.
func decodeCharset(raw []byte) (string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}):
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode utf-16le: %w", err)
		}
		return string(out), nil
	case bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("decode utf-16be: %w", err)
		}
		return string(out), nil
	}
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(out), nil
}

// sniffDelimiter picks the delimiter whose count in the header line is
// highest among comma, semicolon and tab. Quoted sections are skipped.
func sniffDelimiter(text string) rune {
	line := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		line = text[:i]
	}
	counts := map[rune]int{',': 0, ';': 0, '\t': 0}
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if inQuotes {
			continue
		}
		if _, ok := counts[r]; ok {
			counts[r]++
		}
	}
	best := ','
	bestCount := counts[',']
	for _, cand := range []rune{';', '\t'} {
		if counts[cand] > bestCount {
			best = cand
			bestCount = counts[cand]
		}
	}
	return best
}

// dedupeHeader trims names, replaces empty ones and suffixes duplicates with
// _2, _3 and so on.
func dedupeHeader(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n, dup := seen[name]; dup {
			for {
				n++
				candidate := fmt.Sprintf("%s_%d", name, n)
				if _, exists := seen[candidate]; !exists {
					seen[name] = n
					name = candidate
					break
				}
			}
		}
		if _, dup := seen[name]; !dup {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}

// buildColumn converts raw cells into a typed column of the given kind.
// Unparseable cells become missing.
func buildColumn(name string, kind Kind, raw []string) *Column {
	switch kind {
	case KindNumeric:
		values := make([]float64, len(raw))
		for i, s := range raw {
			if IsNull(s) {
				values[i] = math.NaN()
				continue
			}
			v, ok := parseNumeric(s)
			if !ok {
				v = math.NaN()
			}
			values[i] = v
		}
		return NewNumericColumn(name, values)

	case KindBoolean:
		values := make([]bool, len(raw))
		missing := make([]bool, len(raw))
		for i, s := range raw {
			if IsNull(s) {
				missing[i] = true
				continue
			}
			v, ok := parseBoolean(s)
			if !ok {
				missing[i] = true
				continue
			}
			values[i] = v
		}
		return NewBooleanColumn(name, values, missing)

	case KindDatetime:
		values := make([]time.Time, len(raw))
		missing := make([]bool, len(raw))
		for i, s := range raw {
			if IsNull(s) {
				missing[i] = true
				continue
			}
			v, ok := parseDatetime(s)
			if !ok {
				missing[i] = true
				continue
			}
			values[i] = v
		}
		return NewDatetimeColumn(name, values, missing)

	default:
		return NewCategoricalColumn(name, raw)
	}
}
