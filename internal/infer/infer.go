// Package infer classifies the semantic type of delimited-text columns from
// a sample of their values.
//
// Classification is sample based: only the first SampleSize rows are
// inspected, so a column whose non-conforming values all appear later is
// misclassified. That is a known approximation, not a bug.
package infer

import (
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// SampleSize is the number of leading rows inspected per column.
const SampleSize = 100

// defaultStorage is used when no dialect is supplied.
var defaultStorage = map[core.SemanticType]string{
	core.TypeString: "TEXT",
	core.TypeNumber: "REAL",
	core.TypeDate:   "TEXT",
}

// Infer returns one ColumnSchema per header, in header order. Storage types
// come from d, or SQLite affinities when d is nil. Rows beyond SampleSize
// are ignored and missing cells count as empty.
func Infer(headers []string, rows []core.Row, d *core.DialectConfig) []core.ColumnSchema {
	if len(rows) > SampleSize {
		rows = rows[:SampleSize]
	}

	storage := defaultStorage
	if d != nil && len(d.StorageTypes) > 0 {
		storage = d.StorageTypes
	}

	columns := make([]core.ColumnSchema, len(headers))
	values := make([]string, 0, len(rows))
	for i, name := range headers {
		values = values[:0]
		for _, row := range rows {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				values = append(values, row[i])
			}
		}
		t := Classify(values)
		columns[i] = core.ColumnSchema{Name: name, Type: t, StorageType: storage[t]}
	}
	return columns
}

// Classify returns the type every value conforms to, trying date, then
// number, then falling back to string. An empty sample is a string column.
func Classify(values []string) core.SemanticType {
	if len(values) == 0 {
		return core.TypeString
	}
	if all(values, IsDate) {
		return core.TypeDate
	}
	if all(values, IsNumber) {
		return core.TypeNumber
	}
	return core.TypeString
}

func all(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}
