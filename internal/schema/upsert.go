package schema

import "github.com/leapstack-labs/analytics-agent/pkg/core"

// Upsert returns a copy of ps in which any table named t.Name is removed and
// t is appended. ps itself is not modified.
func Upsert(ps *core.ProjectSchema, t core.TableSchema) *core.ProjectSchema {
	out := &core.ProjectSchema{
		CreatedAt: ps.CreatedAt,
		Version:   ps.Version,
		Tables:    make([]core.TableSchema, 0, len(ps.Tables)+1),
	}
	for _, existing := range ps.Tables {
		if existing.Name != t.Name {
			out.Tables = append(out.Tables, existing)
		}
	}
	out.Tables = append(out.Tables, t)
	return out
}
