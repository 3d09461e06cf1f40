package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONObject(t *testing.T) {
	const object = `{"unit_rate": 130, "confidence": 0.8, "breakdown": []}`

	tests := []struct {
		name       string
		input      string
		wantFenced bool
	}{
		{name: "bare object", input: object},
		{name: "surrounding whitespace", input: "\n\t " + object + "\n"},
		{name: "json fence", input: "```json\n" + object + "\n```", wantFenced: true},
		{name: "upper-case json fence", input: "```JSON\n" + object + "\n```", wantFenced: true},
		{name: "fence with prose around it", input: "Sure! Here you go:\n```json\n" + object + "\n```\nHope this helps.", wantFenced: true},
		{name: "untagged fence", input: "```\n" + object + "\n```", wantFenced: true},
		{name: "other tag fence", input: "```javascript\n" + object + "\n```", wantFenced: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseJSONObject(tt.input)
			require.True(t, got.OK(), "parse failed: %v", got.Err)
			assert.Equal(t, tt.wantFenced, got.Fenced)
			assert.Equal(t, tt.input, got.Raw)
			assert.Equal(t, json.Number("130"), got.Object["unit_rate"])
		})
	}
}

func TestParseJSONObject_FencedEqualsBare(t *testing.T) {
	const object = `{"unit_rate": 99.5, "rationale": "ok", "breakdown": [{"name": "Cement", "total": 99.5}]}`

	bare := ParseJSONObject(object)
	fenced := ParseJSONObject("```json\n" + object + "\n```")

	require.True(t, bare.OK())
	require.True(t, fenced.OK())
	assert.Equal(t, bare.Object, fenced.Object)
}

func TestParseJSONObject_Failures(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "prose", input: "The rate is about 130 EGP per Sqm."},
		{name: "empty", input: ""},
		{name: "array", input: "[1, 2, 3]"},
		{name: "number", input: "130"},
		{name: "null", input: "null"},
		{name: "broken fence", input: "```json\n{\"unit_rate\": 130,\n```"},
		{name: "unclosed fence", input: "```json\n{\"unit_rate\": 130}"},
		{name: "fenced array", input: "```json\n[1]\n```"},
		{name: "trailing data", input: `{"unit_rate": 130} {"unit_rate": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseJSONObject(tt.input)
			assert.False(t, got.OK())
			assert.Error(t, got.Err)
			assert.Nil(t, got.Object)
			assert.Equal(t, tt.input, got.Raw)
		})
	}
}

func TestParseJSONObject_PrefersJSONFence(t *testing.T) {
	input := "```text\nnot json\n```\n```json\n{\"a\": 1}\n```"

	got := ParseJSONObject(input)
	require.True(t, got.OK())
	assert.Equal(t, json.Number("1"), got.Object["a"])
}

func TestParseJSONObject_OutOfRangeNumber(t *testing.T) {
	got := ParseJSONObject(`{"unit_rate": 1e400, "breakdown": [{"total": 5}]}`)

	require.True(t, got.OK(), "parse failed: %v", got.Err)
	rate, ok := got.Object["unit_rate"].(json.Number)
	require.True(t, ok)
	_, err := rate.Float64()
	assert.Error(t, err)
}
