package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hotpotSample = `{
  "_id": "5a8b57f25542995d1e6f1371",
  "question": "Were Scott Derrickson and Ed Wood of the same nationality?",
  "answer": "yes",
  "type": "comparison",
  "level": "hard",
  "supporting_facts": [["Scott Derrickson", 0], ["Ed Wood", 0]],
  "context": [
    ["Ed Wood (film)", ["Ed Wood is a 1994 American biographical film.", " It stars Johnny Depp."]],
    ["Scott Derrickson", ["Scott Derrickson is an American director."]],
    ["Ed Wood", ["Edward Davis Wood Jr. was an American filmmaker."]]
  ]
}`

func TestQAExample_UnmarshalHotpot(t *testing.T) {
	var ex QAExample
	require.NoError(t, json.Unmarshal([]byte(hotpotSample), &ex))
	assert.Equal(t, "5a8b57f25542995d1e6f1371", ex.Key)
	assert.Equal(t, "yes", ex.Answer)
	require.Len(t, ex.Context, 3)
	assert.Equal(t, "Ed Wood (film)", ex.Context[0].Title)
	assert.Len(t, ex.Context[0].Sentences, 2)
	require.Len(t, ex.SupportingFacts, 2)
	assert.Equal(t, SupportingFact{Title: "Ed Wood", SentenceIndex: 0}, ex.SupportingFacts[1])
}

func TestContextEntry_Marshal(t *testing.T) {
	data, err := json.Marshal(ContextEntry{Title: "T", Sentences: []string{"a", "b"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["T",["a","b"]]`, string(data))
}

func TestContextEntry_UnmarshalInvalid(t *testing.T) {
	for _, in := range []string{`["only title"]`, `{"title": "x"}`, `[1, ["a"]]`} {
		var c ContextEntry
		assert.Error(t, json.Unmarshal([]byte(in), &c), "input %s", in)
	}
}

func TestSupportingFact_UnmarshalInvalid(t *testing.T) {
	var s SupportingFact
	assert.Error(t, json.Unmarshal([]byte(`["title", "zero"]`), &s))
}

func TestQAExample_SupportIndices(t *testing.T) {
	var ex QAExample
	require.NoError(t, json.Unmarshal([]byte(hotpotSample), &ex))
	assert.Equal(t, map[int]struct{}{1: {}, 2: {}}, ex.SupportIndices())

	ex.SupportingFacts = append(ex.SupportingFacts, SupportingFact{Title: "Ed Wood", SentenceIndex: 3})
	assert.Len(t, ex.SupportIndices(), 2, "duplicate titles should count once")

	ex.SupportingFacts = nil
	assert.Empty(t, ex.SupportIndices())
}

func TestEvaluationReport_Complete(t *testing.T) {
	r := &EvaluationReport{Evaluated: 3, Total: 4, Failed: 1}
	assert.False(t, r.Complete())
	r.Evaluated = 4
	assert.True(t, r.Complete())
}
