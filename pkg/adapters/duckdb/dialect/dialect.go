// Package dialect provides the DuckDB SQL dialect definition.
package dialect

import (
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/leapstack-labs/analytics-agent/pkg/dialect"
)

func init() {
	dialect.Register(DuckDB)
}

// DuckDB is strictly typed: numbers are stored as DOUBLE.
var DuckDB = dialect.NewDialect("duckdb").
	StorageType(core.TypeString, "VARCHAR").
	StorageType(core.TypeNumber, "DOUBLE").
	StorageType(core.TypeDate, "VARCHAR").
	Build()
