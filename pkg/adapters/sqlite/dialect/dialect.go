// Package dialect provides the SQLite SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/leapstack-labs/analytics-agent/pkg/dialect"
)

func init() {
	dialect.Register(SQLite)
}

// SQLite uses type affinity: numbers land in REAL columns, everything else in TEXT.
var SQLite = dialect.NewDialect("sqlite").
	StorageType(core.TypeString, "TEXT").
	StorageType(core.TypeNumber, "REAL").
	StorageType(core.TypeDate, "TEXT").
	Build()
