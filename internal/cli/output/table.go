package output

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Table writes rows in column order: a boxed table in text mode, a
// markdown table in markdown mode and an array of objects in JSON mode.
func (r *Renderer) Table(columns []string, rows []map[string]any) error {
	if r.EffectiveMode() == ModeJSON {
		if rows == nil {
			rows = []map[string]any{}
		}
		return r.JSON(rows)
	}
	if len(rows) == 0 {
		r.Println("(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	header := make(table.Row, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, len(columns))
		for i, col := range columns {
			cells[i] = FormatValue(row[col])
		}
		t.AppendRow(cells)
	}

	if r.EffectiveMode() == ModeMarkdown {
		t.RenderMarkdown()
	} else {
		t.SetStyle(table.StyleLight)
		t.Render()
	}
	r.Printf("(%s rows)\n", r.Number(int64(len(rows))))
	return nil
}
