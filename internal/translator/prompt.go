package translator

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

var engineNames = map[string]string{
	"sqlite":   "SQLite",
	"duckdb":   "DuckDB",
	"postgres": "PostgreSQL",
}

// BuildPrompt renders the system prompt: the schema summary with row counts,
// the query rules and the required JSON response shape.
func BuildPrompt(schema *core.ProjectSchema, dialect string) string {
	engine, ok := engineNames[strings.ToLower(dialect)]
	if !ok {
		engine = "SQLite"
	}

	tables := make([]string, 0, len(schema.Tables))
	for _, t := range schema.Tables {
		var b strings.Builder
		fmt.Fprintf(&b, "  Table: %q (%d rows)", t.Name, t.RowCount)
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "\n    %s (%s → %s)", c.Name, c.Type, c.StorageType)
		}
		tables = append(tables, b.String())
	}

	return fmt.Sprintf(`You are a SQL query generator for %[1]s databases.

Here is the database schema:

%[2]s

Rules:
1. Generate ONLY valid %[1]s SELECT queries.
2. Never use DROP, DELETE, INSERT, UPDATE, ALTER, or CREATE.
3. Use double quotes for table and column names.
4. Keep queries simple and efficient.
5. When grouping by date/month, use the column as-is (dates are stored as TEXT like "2024-01").
6. For aggregations, use SUM, AVG, COUNT, MIN, MAX as appropriate.
7. Always alias computed columns with readable names.

You MUST respond with valid JSON only. No markdown, no code fences, no explanation.

Response format:
{
  "sql": "SELECT ...",
  "chartType": "line" | "bar" | "table",
  "xAxis": "column_name_for_x_axis",
  "yAxis": "column_name_for_y_axis",
  "title": "Human readable chart title"
}

Chart type rules:
- Use "line" for time series data (dates on x-axis)
- Use "bar" for categorical comparisons (categories on x-axis)
- Use "table" for detailed multi-column results or when no clear chart fits`, engine, strings.Join(tables, "\n\n"))
}
