package llm

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceSchema() *Schema {
	return &Schema{
		Name:        "test-choice",
		Description: "A single answer option",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text":   map[string]any{"type": "string"},
				"weight": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
			},
			"required": []any{"text", "weight"},
		},
	}
}

func TestValidateResponse_Valid(t *testing.T) {
	raw := json.RawMessage(`{"text": "I enjoy debugging", "weight": 3}`)
	require.NoError(t, ValidateResponse(choiceSchema(), raw))
}

func TestValidateResponse_NilSchema(t *testing.T) {
	require.NoError(t, ValidateResponse(nil, json.RawMessage(`not even json`)))
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"text": "I enjoy debugging"}`)
	err := ValidateResponse(choiceSchema(), raw)
	require.Error(t, err)

	var invErr *ErrInvalidResponse
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, raw, invErr.Content)
}

func TestValidateResponse_WrongType(t *testing.T) {
	raw := json.RawMessage(`{"text": "I enjoy debugging", "weight": "three"}`)
	err := ValidateResponse(choiceSchema(), raw)
	require.Error(t, err)
}

func TestValidateResponse_OutOfRange(t *testing.T) {
	raw := json.RawMessage(`{"text": "I enjoy debugging", "weight": 10}`)
	err := ValidateResponse(choiceSchema(), raw)
	require.Error(t, err)
}

func TestValidateResponse_MalformedJSON(t *testing.T) {
	err := ValidateResponse(choiceSchema(), json.RawMessage(`{"text": `))
	require.Error(t, err)

	var invErr *ErrInvalidResponse
	require.True(t, errors.As(err, &invErr))
}

func TestValidateResponse_SchemaCached(t *testing.T) {
	schema := choiceSchema()
	raw := json.RawMessage(`{"text": "ok", "weight": 1}`)

	require.NoError(t, ValidateResponse(schema, raw))
	_, ok := compiledSchemas.Load(schema.Name)
	assert.True(t, ok)

	// Second call hits the cache.
	require.NoError(t, ValidateResponse(schema, raw))
}
