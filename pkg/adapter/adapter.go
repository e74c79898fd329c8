// Package adapter provides the store adapter contract and registry for
// analytics-agent.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves from init(). Import them with a blank identifier.
package adapter

import (
	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter
)
