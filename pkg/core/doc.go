// Package core defines the shared language of the analytics-agent system.
//
// This package contains:
//   - Schema entities (SemanticType, ColumnSchema, TableSchema, ProjectSchema)
//   - Query-time values (Translation, QueryResult, ValidationResult)
//   - Service interfaces (Adapter, Translator)
//   - The error taxonomy shared by the load and ask pipelines
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
