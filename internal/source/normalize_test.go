package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Revenue (USD)", "revenue_usd"},
		{"  Order Date ", "order_date"},
		{"first--name", "first_name"},
		{"__id__", "id"},
		{"ÜNITS", "nits"},
		{"%", ""},
		{"already_normal", "already_normal"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeHeader(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, NormalizeHeader(got), "normalization must be idempotent")
		})
	}
}

func TestUniqueHeaders(t *testing.T) {
	got := UniqueHeaders([]string{"Name", "name", "", "NAME ", "#", "column_3"})
	assert.Equal(t, []string{"name", "name_2", "column_3", "name_3", "column_5", "column_3_2"}, got)
}

func TestDeriveTableName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data/sales.csv", "sales"},
		{"Sales 2024.csv", "sales_2024"},
		{"/tmp/Q1-Report.tsv", "q1_report"},
		{"orders.csv.gz", "orders"},
		{"events.tsv.zst", "events"},
		{"s3://bucket/raw/Orders.csv.xz", "orders"},
		{"https://example.com/files/users.csv?token=abc", "users"},
		{"noext", "noext"},
		{"archive.tar", "archive"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTableName(tt.in))
		})
	}
}

func TestSanitizeTableName(t *testing.T) {
	assert.Equal(t, "my_table", SanitizeTableName("My Table"))
	assert.Equal(t, "t_x__drop", SanitizeTableName(`t"x";drop`))
	assert.Equal(t, "already_ok_1", SanitizeTableName("already_ok_1"))
}
