package core_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/leapstack-labs/analytics-agent/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticType_Text(t *testing.T) {
	for _, st := range []core.SemanticType{core.TypeString, core.TypeNumber, core.TypeDate} {
		b, err := st.MarshalText()
		require.NoError(t, err)

		var back core.SemanticType
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, st, back)
	}

	_, err := core.SemanticType(9).MarshalText()
	require.Error(t, err)

	var st core.SemanticType
	require.Error(t, st.UnmarshalText([]byte("boolean")))
}

func TestProjectSchema_Document(t *testing.T) {
	loaded := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ps := core.NewProjectSchema(loaded)
	ps.Tables = append(ps.Tables, core.TableSchema{
		Name: "sales",
		Columns: []core.ColumnSchema{
			{Name: "region", Type: core.TypeString, StorageType: "TEXT"},
			{Name: "amount", Type: core.TypeNumber, StorageType: "REAL"},
		},
		RowCount: 3,
		Source:   "sales.csv",
		LoadedAt: loaded,
	})

	data, err := json.Marshal(ps)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tables": [{
			"name": "sales",
			"columns": [
				{"name": "region", "type": "string", "sqlType": "TEXT"},
				{"name": "amount", "type": "number", "sqlType": "REAL"}
			],
			"rowCount": 3,
			"source": "sales.csv",
			"loadedAt": "2024-03-01T12:00:00Z"
		}],
		"createdAt": "2024-03-01T12:00:00Z",
		"version": "1.0.0"
	}`, string(data))

	ts, ok := ps.Table("sales")
	require.True(t, ok)
	col, ok := ts.Column("amount")
	require.True(t, ok)
	assert.Equal(t, core.TypeNumber, col.Type)

	_, ok = ps.Table("missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"sales"}, ps.TableNames())
}

func TestErrorKind(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&core.ValidationError{SQL: "DROP TABLE x", Reason: "DROP"}, "validation"},
		{fmt.Errorf("ask: %w", &core.TranslatorError{Err: cause}), "translator"},
		{&core.ExecutionError{SQL: "SELECT", Err: cause}, "execution"},
		{&core.NotFoundError{Path: "schema.json"}, "not_found"},
		{&core.CorruptSchemaError{Path: "schema.json", Err: cause}, "corrupt_schema"},
		{&core.EmptyInputError{Path: "a.csv"}, "empty_input"},
		{core.ErrNoTables, "no_tables"},
		{fmt.Errorf("load: %w", core.ErrLocked), "locked"},
		{&core.IOError{Path: "a.csv", Err: cause}, "io"},
		{cause, "internal"},
	}
	for _, tt := range tests {
		name := tt.want
		if name == "" {
			name = "nil"
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.ErrorKind(tt.err))
		})
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	assert.ErrorIs(t, &core.IOError{Path: "x", Err: cause}, cause)
	assert.ErrorIs(t, &core.ExecutionError{SQL: "SELECT", Err: cause}, cause)
	assert.ErrorIs(t, &core.TranslatorError{Err: cause}, cause)
	assert.ErrorIs(t, &core.CorruptSchemaError{Path: "x", Err: cause}, cause)
}

func TestDialectConfig_QuoteIdentifier(t *testing.T) {
	d := &core.DialectConfig{Identifier: core.IdentifierConfig{Quote: `"`, QuoteEnd: `"`, QuoteEscape: `""`}}
	assert.Equal(t, `"order_date"`, d.QuoteIdentifier("order_date"))
	assert.Equal(t, `"a""b"`, d.QuoteIdentifier(`a"b`))
}

func TestDialectConfig_BindVar(t *testing.T) {
	question := &core.DialectConfig{}
	assert.Equal(t, "?", question.BindVar(3))

	dollar := &core.DialectConfig{Placeholder: core.PlaceholderDollar}
	assert.Equal(t, "$1", dollar.BindVar(1))
	assert.Equal(t, "$12", dollar.BindVar(12))
}
