// Package dialect provides the PostgreSQL SQL dialect definition.
// This package is lightweight and has no database driver dependencies.
package dialect

import (
	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/leapstack-labs/analytics-agent/pkg/dialect"
)

func init() {
	dialect.Register(Postgres)
}

// Postgres binds $n parameters. Dates stay TEXT because cells are loaded
// as-is and PostgreSQL only casts text to DATE in its configured DateStyle.
var Postgres = dialect.NewDialect("postgres").
	Placeholder(core.PlaceholderDollar).
	StorageType(core.TypeString, "TEXT").
	StorageType(core.TypeNumber, "DOUBLE PRECISION").
	StorageType(core.TypeDate, "TEXT").
	Build()
