package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLLMJSONPlain(t *testing.T) {
	var out map[string]int
	require.NoError(t, decodeLLMJSON(`{"a": 1}`, &out))
	assert.Equal(t, 1, out["a"])
}

func TestDecodeLLMJSONStripsCodeFence(t *testing.T) {
	raw := "```json\n[{\"id\": 1}, {\"id\": 2}]\n```"
	var out []struct {
		ID int `json:"id"`
	}
	require.NoError(t, decodeLLMJSON(raw, &out))
	require.Len(t, out, 2)
	assert.Equal(t, 2, out[1].ID)
}

func TestDecodeLLMJSONIgnoresSurroundingProse(t *testing.T) {
	raw := "Sure! Here are your questions:\n{\"question\": \"q\"}\nLet me know if you need more."
	var out map[string]string
	require.NoError(t, decodeLLMJSON(raw, &out))
	assert.Equal(t, "q", out["question"])
}

func TestDecodeLLMJSONNoPayload(t *testing.T) {
	var out map[string]string
	assert.Error(t, decodeLLMJSON("I could not produce the content.", &out))
	assert.Error(t, decodeLLMJSON("", &out))
	assert.Error(t, decodeLLMJSON("unterminated {\"a\": ", &out))
}
