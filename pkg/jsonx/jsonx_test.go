package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptsim/backend/pkg/apperr"
)

func TestExtractFencedBlock(t *testing.T) {
	response := "Here is the result:\n```json\n{\"score\": 85}\n```\nHope that helps!"

	candidate, err := Extract(response)
	require.NoError(t, err)
	assert.Equal(t, `{"score": 85}`, candidate)
}

func TestExtractFenceWithoutLanguageTag(t *testing.T) {
	response := "```\n{\"a\": 1}\n```"

	candidate, err := Extract(response)
	require.NoError(t, err)
	assert.Equal(t, `{"a": 1}`, candidate)
}

func TestExtractBareObject(t *testing.T) {
	response := `Sure! {"combinedPrompt": "text", "rationale": "because"} done.`

	candidate, err := Extract(response)
	require.NoError(t, err)
	assert.Equal(t, `{"combinedPrompt": "text", "rationale": "because"}`, candidate)
}

func TestExtractBareObjectSpansNestedBraces(t *testing.T) {
	response := `{"outer": {"inner": 1}}`

	candidate, err := Extract(response)
	require.NoError(t, err)
	assert.Equal(t, response, candidate)
}

func TestExtractNoObject(t *testing.T) {
	_, err := Extract("the model refused to answer")
	require.Error(t, err)
	assert.True(t, apperr.IsParse(err))
}

func TestExtractObjectFirstToLastBrace(t *testing.T) {
	candidate, ok := ExtractObject(`noise {"x": 1} more {"y": 2} tail`)
	require.True(t, ok)
	assert.Equal(t, `{"x": 1} more {"y": 2}`, candidate)
}

func TestRepairTrailingComma(t *testing.T) {
	repaired := Repair(`{"a": 1, "b": [1, 2,],}`)
	assert.Equal(t, `{"a": 1, "b": [1, 2]}`, repaired)
}

func TestRepairStripsSurroundingJunk(t *testing.T) {
	repaired := Repair("json: {\"a\": 1} trailing text")
	assert.Equal(t, `{"a": 1}`, repaired)
}

func TestUnmarshalCleanResponse(t *testing.T) {
	var out struct {
		Score float64 `json:"score"`
	}
	err := Unmarshal(`{"score": 92.5}`, &out)
	require.NoError(t, err)
	assert.Equal(t, 92.5, out.Score)
}

func TestUnmarshalRepairsTrailingComma(t *testing.T) {
	var out struct {
		A int `json:"a"`
	}
	err := Unmarshal(`{"a": 7,}`, &out)
	require.NoError(t, err)
	assert.Equal(t, 7, out.A)
}

func TestUnmarshalUnrepairable(t *testing.T) {
	var out map[string]interface{}
	err := Unmarshal(`{"a": not even close`+"}", &out)
	require.Error(t, err)
	assert.True(t, apperr.IsParse(err))
}

func TestParseErrorCarriesPreview(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	_, err := Extract(string(long))
	require.Error(t, err)
	assert.LessOrEqual(t, len(err.Error()), 300)
}
