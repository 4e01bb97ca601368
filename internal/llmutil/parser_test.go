package llmutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	A int `json:"a"`
}

func TestParseCleanJSON(t *testing.T) {
	t.Parallel()
	result, err := Parse[payload](`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.A)
}

func TestParseFencedBlock(t *testing.T) {
	t.Parallel()
	result, err := Parse[payload]("```json\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.Equal(t, 1, result.A)

	// Bare fence without a language tag.
	result, err = Parse[payload]("```\n{\"a\":1}\n```")
	require.NoError(t, err)
	assert.Equal(t, 1, result.A)
}

func TestParseProseWrappedJSON(t *testing.T) {
	t.Parallel()
	result, err := Parse[payload](`noise {"a":1} more noise`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.A)
}

// TestParseStrategiesAgree: all three shapes of the same logical payload must
// produce the same parsed value.
func TestParseStrategiesAgree(t *testing.T) {
	t.Parallel()
	inputs := []string{
		`{"a":1}`,
		"```json\n{\"a\":1}\n```",
		`noise {"a":1} more noise`,
	}
	for _, input := range inputs {
		result, err := Parse[payload](input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, 1, result.A, "input %q", input)
	}
}

func TestParseHandlesQuotedBraces(t *testing.T) {
	t.Parallel()
	type named struct {
		Name string `json:"name"`
	}

	// Braces and escaped quotes inside string values must not confuse the
	// depth counter.
	result, err := Parse[named](`The model says: {"name": "a \"brace\" like } or {"} trailing prose`)
	require.NoError(t, err)
	assert.Equal(t, `a "brace" like } or {`, result.Name)
}

func TestParseArrays(t *testing.T) {
	t.Parallel()
	result, err := Parse[[]int]("here you go: [1, 2, 3] hope that helps")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, *result)
}

func TestParseFailure(t *testing.T) {
	t.Parallel()
	_, err := Parse[payload]("I could not produce a model for this input.")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoJSON)

	// Unbalanced braces never resolve to a candidate.
	_, err = Parse[payload](`{"a": {"b": 1}`)
	require.Error(t, err)
}

func TestParseSkipsMalformedCandidate(t *testing.T) {
	t.Parallel()
	// The first balanced group is not valid JSON; the scan must move on to
	// the second one.
	result, err := Parse[payload](`{not json} but later {"a":2} appears`)
	require.NoError(t, err)
	assert.Equal(t, 2, result.A)
}

func TestExtractJSON(t *testing.T) {
	t.Parallel()
	raw, ok := ExtractJSON("Reasoning first. ```json\n{\"swimlanes\":[]}\n``` Done.")
	require.True(t, ok)
	assert.JSONEq(t, `{"swimlanes":[]}`, raw)

	_, ok = ExtractJSON("no structure here")
	assert.False(t, ok)
}
