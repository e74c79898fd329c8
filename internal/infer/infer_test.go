package infer

import (
	"strconv"
	"testing"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   core.SemanticType
	}{
		{"empty sample", nil, core.TypeString},
		{"currency", []string{"$1,200.50", "$980", "$1,500"}, core.TypeNumber},
		{"percent", []string{"12%", "3.5%", "-1%"}, core.TypeNumber},
		{"iso dates", []string{"2024-01-15", "2024-02-01"}, core.TypeDate},
		{"year-month", []string{"2024-01", "2024-02", "2024-03"}, core.TypeDate},
		{"compact digits are numbers", []string{"20240115", "20240201"}, core.TypeNumber},
		{"mixed date and text", []string{"2024-01-15", "soon"}, core.TypeString},
		{"mixed number and text", []string{"1", "2", "n/a"}, core.TypeString},
		{"us dates", []string{"01/15/2024", "12/31/2023"}, core.TypeDate},
		{"month names", []string{"Jan 15, 2024", "Feb 1 2024"}, core.TypeDate},
		{"iso datetimes", []string{"2024-01-15T10:30:00Z", "2024-01-15T11:00:00"}, core.TypeDate},
		{"words", []string{"north", "south"}, core.TypeString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.values))
		})
	}
}

func TestIsDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-15", true},
		{"01-15-2024", true},
		{"2024/01/15", true},
		{"  2024-03  ", true},
		{"January 2, 2024", true},
		{"2 Jan 2024", true},
		{"2024-01-15 08:30:00", true},
		{"Mon, 02 Jan 2006 15:04:05 MST", true},
		{"20240115", false},
		{"3.14", false},
		{"1.5.6", false},
		{"1/2", false},
		{"hello, world", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDate(tt.in))
		})
	}
}

func TestIsNumber(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"100", true},
		{"-42.5", true},
		{"$1,200.50", true},
		{"15%", true},
		{" 7 ", true},
		{"1e3", true},
		{"$", false},
		{"%", false},
		{"12abc", false},
		{"$$5", false},
		{"", false},
		{"NaN", false},
		{"Infinity", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNumber(tt.in))
		})
	}
}

func TestInfer(t *testing.T) {
	headers := []string{"date", "revenue", "region", "notes"}
	rows := []core.Row{
		{"2024-01", "100", "north"},
		{"2024-02", "150", "south", ""},
		{"2024-03", "200", "", "  "},
	}

	cols := Infer(headers, rows, nil)
	require.Len(t, cols, 4)

	assert.Equal(t, core.ColumnSchema{Name: "date", Type: core.TypeDate, StorageType: "TEXT"}, cols[0])
	assert.Equal(t, core.ColumnSchema{Name: "revenue", Type: core.TypeNumber, StorageType: "REAL"}, cols[1])
	assert.Equal(t, core.TypeString, cols[2].Type)
	assert.Equal(t, core.TypeString, cols[3].Type, "an all-empty column is a string column")
}

func TestInfer_DialectStorageTypes(t *testing.T) {
	d := &core.DialectConfig{
		Name: "duckdb",
		StorageTypes: map[core.SemanticType]string{
			core.TypeString: "VARCHAR",
			core.TypeNumber: "DOUBLE",
			core.TypeDate:   "VARCHAR",
		},
	}
	cols := Infer([]string{"n"}, []core.Row{{"1"}}, d)
	assert.Equal(t, "DOUBLE", cols[0].StorageType)
}

func TestInfer_OnlySamplesLeadingRows(t *testing.T) {
	rows := make([]core.Row, 0, SampleSize+1)
	for i := 0; i < SampleSize; i++ {
		rows = append(rows, core.Row{strconv.Itoa(i)})
	}
	rows = append(rows, core.Row{"not a number"})

	cols := Infer([]string{"n"}, rows, nil)
	assert.Equal(t, core.TypeNumber, cols[0].Type, "values past the sample are not inspected")
}

func TestInfer_NoRows(t *testing.T) {
	cols := Infer([]string{"a", "b"}, nil, nil)
	require.Len(t, cols, 2)
	for _, c := range cols {
		assert.Equal(t, core.TypeString, c.Type)
	}
}
