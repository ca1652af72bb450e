package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answerShape struct {
	Answer string `json:"answer"`
	Source string `json:"source"`
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("Here you go:\n```\n{\"a\":1}\n```\nThanks"))
	assert.Equal(t, `{"a":1}`, StripFences(`  {"a":1} `))
}

func TestExtractObject(t *testing.T) {
	obj, ok := ExtractObject(`Sure! {"a": {"b": 1}} hope that helps`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, obj)

	_, ok = ExtractObject("no json here")
	assert.False(t, ok)

	_, ok = ExtractObject("} backwards {")
	assert.False(t, ok)
}

func TestRepair(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"bare keys", `{answer: "x", source: "y"}`, `{"answer": "x", "source": "y"}`},
		{"bare values", `{"intent": list_all}`, `{"intent": "list_all"}`},
		{"literals kept", `{"ok": true, "v": null}`, `{"ok": true, "v": null}`},
		{"trailing commas", `{"a": [1, 2,], "b": 3,}`, `{"a": [1, 2], "b": 3}`},
		{"all at once", `{intent: count, filters: [],}`, `{"intent": "count", "filters": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.in))
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	got, err := DecodeResponse[answerShape]("```json\n{\"answer\": \"Two records.\", \"source\": \"filter\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Two records.", got.Answer)

	got, err = DecodeResponse[answerShape](`{answer: "Two records.", source: table,}`)
	require.NoError(t, err)
	assert.Equal(t, answerShape{Answer: "Two records.", Source: "table"}, got)
}

func TestDecodeResponse_Rejects(t *testing.T) {
	_, err := DecodeResponse[answerShape]("I cannot help with that")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = DecodeResponse[answerShape](`{"answer": "x", "extra": 1}`)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeResponse[answerShape](`{"answer": [unterminated`)
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = DecodeResponse[answerShape](`{"answer": {"nested": }}`)
	assert.ErrorIs(t, err, ErrMalformed)
}
