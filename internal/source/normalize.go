package source

import (
	"path"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonAlnumRun   = regexp.MustCompile(`[^a-z0-9]+`)
	nonIdentifier = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// NormalizeHeader turns a raw header cell into a column identifier:
// trimmed, lowercased, runs of anything outside [a-z0-9] collapsed into a
// single underscore, and leading or trailing underscores removed.
// It is idempotent.
func NormalizeHeader(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = nonAlnumRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// UniqueHeaders normalizes every header and makes the result usable as a
// column list. Headers that normalize to nothing become column_<n>
// (1-based position) and repeated names get _2, _3... suffixes.
func UniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		name := NormalizeHeader(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		candidate := name
		for n := 2; seen[candidate]; n++ {
			candidate = name + "_" + strconv.Itoa(n)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

// SanitizeTableName replaces every character outside [a-zA-Z0-9_] with an
// underscore and lowercases the result.
func SanitizeTableName(name string) string {
	return strings.ToLower(nonIdentifier.ReplaceAllString(name, "_"))
}

// DeriveTableName derives a table name from a source location: the base
// name without its compression suffix and extension, sanitized.
//
//	"data/Sales 2024.csv"        -> "sales_2024"
//	"s3://bucket/raw/orders.tsv.gz" -> "orders"
func DeriveTableName(location string) string {
	base := path.Base(strings.ReplaceAll(stripQuery(location), `\`, "/"))
	if c := compressionFromName(base); c != CompressionNone {
		base = strings.TrimSuffix(base, path.Ext(base))
	}
	base = strings.TrimSuffix(base, path.Ext(base))
	return SanitizeTableName(base)
}

func stripQuery(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 && isURL(location) {
		return location[:i]
	}
	return location
}
