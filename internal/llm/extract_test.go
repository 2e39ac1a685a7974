package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	raw, err := ExtractJSON(`{"questions":[{"text":"Q1"}]}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"questions":[{"text":"Q1"}]}`, string(raw))
}

func TestExtractJSON_WithWhitespace(t *testing.T) {
	raw, err := ExtractJSON("\n\n  {\"ok\": true}  \n")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok": true}`, string(raw))
}

func TestExtractJSON_CodeFence(t *testing.T) {
	text := "```json\n{\"summary\": \"strong analytical profile\"}\n```"
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary": "strong analytical profile"}`, string(raw))
}

func TestExtractJSON_FenceWithoutLanguageTag(t *testing.T) {
	text := "```\n[1, 2, 3]\n```"
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, string(raw))
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	text := `Here is the requested analysis:

{"strengths": ["problem solving"], "score": 87}

Let me know if you need anything else.`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"strengths": ["problem solving"], "score": 87}`, string(raw))
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	text := `The result: {"text": "use {curly} braces", "nested": {"a": 1}}`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `{"text": "use {curly} braces", "nested": {"a": 1}}`, string(raw))
}

func TestExtractJSON_ArrayDocument(t *testing.T) {
	text := `Questions below: [{"text": "Q1"}, {"text": "Q2"}]`
	raw, err := ExtractJSON(text)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"text": "Q1"}, {"text": "Q2"}]`, string(raw))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce the requested content.")
	require.Error(t, err)

	var invErr *ErrInvalidResponse
	assert.True(t, errors.As(err, &invErr))
}

func TestExtractJSON_UnbalancedBraces(t *testing.T) {
	_, err := ExtractJSON(`{"partial": "response`)
	require.Error(t, err)
}
