// Package dialect describes the SQL dialects of the supported stores:
// identifier quoting and the mapping from semantic types to native column types.
//
// This package is lightweight and has no database driver dependencies.
package dialect

import (
	"fmt"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
)

// Dialect represents a SQL dialect configuration.
type Dialect struct {
	Name        string
	Identifiers core.IdentifierConfig
	Placeholder core.PlaceholderStyle

	storageTypes map[core.SemanticType]string
}

// Builder builds a Dialect with a fluent API.
type Builder struct {
	d *Dialect
}

// NewDialect starts a dialect definition.
// Identifiers default to ANSI double quotes.
func NewDialect(name string) *Builder {
	return &Builder{d: &Dialect{
		Name: name,
		Identifiers: core.IdentifierConfig{
			Quote:       `"`,
			QuoteEnd:    `"`,
			QuoteEscape: `""`,
		},
		storageTypes: make(map[core.SemanticType]string),
	}}
}

// Identifiers sets the identifier quoting characters.
func (b *Builder) Identifiers(quote, quoteEnd, escape string) *Builder {
	b.d.Identifiers = core.IdentifierConfig{Quote: quote, QuoteEnd: quoteEnd, QuoteEscape: escape}
	return b
}

// Placeholder sets the bind parameter style. The default is ?.
func (b *Builder) Placeholder(style core.PlaceholderStyle) *Builder {
	b.d.Placeholder = style
	return b
}

// StorageType maps a semantic type to a native column type.
func (b *Builder) StorageType(t core.SemanticType, native string) *Builder {
	b.d.storageTypes[t] = native
	return b
}

// Build validates and returns the dialect. It panics when a semantic type
// has no storage mapping, since dialects are package-level definitions.
func (b *Builder) Build() *Dialect {
	for _, t := range []core.SemanticType{core.TypeString, core.TypeNumber, core.TypeDate} {
		if _, ok := b.d.storageTypes[t]; !ok {
			panic(fmt.Sprintf("dialect %s: no storage type for %s", b.d.Name, t))
		}
	}
	return b.d
}

// StorageType returns the native column type for a semantic type.
func (d *Dialect) StorageType(t core.SemanticType) string {
	switch t {
	case core.TypeString, core.TypeNumber, core.TypeDate:
		return d.storageTypes[t]
	default:
		panic(fmt.Sprintf("dialect %s: unknown semantic type %d", d.Name, int(t)))
	}
}

// QuoteIdentifier quotes an identifier using the dialect's quote characters.
func (d *Dialect) QuoteIdentifier(name string) string {
	return d.Config().QuoteIdentifier(name)
}

// Config returns the pure data configuration for this dialect.
func (d *Dialect) Config() *core.DialectConfig {
	types := make(map[core.SemanticType]string, len(d.storageTypes))
	for k, v := range d.storageTypes {
		types[k] = v
	}
	return &core.DialectConfig{
		Name:         d.Name,
		Identifier:   d.Identifiers,
		StorageTypes: types,
		Placeholder:  d.Placeholder,
	}
}
