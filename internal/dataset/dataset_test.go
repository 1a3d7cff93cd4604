package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ragbench/internal/models"
)

const sample = `[
  {
    "_id": "a1",
    "question": "Were Scott Derrickson and Ed Wood of the same nationality?",
    "answer": "yes",
    "type": "comparison",
    "level": "hard",
    "supporting_facts": [["Scott Derrickson", 0], ["Ed Wood", 0]],
    "context": [
      ["Scott Derrickson", ["Scott Derrickson is an American director."]],
      ["Ed Wood", ["Edward Davis Wood Jr. was an American filmmaker."]]
    ]
  },
  {
    "_id": "b2",
    "question": "What government position was held by the woman who portrayed Corliss Archer?",
    "answer": "Chief of Protocol",
    "supporting_facts": [["Shirley Temple", 0]],
    "context": [["Shirley Temple", ["Shirley Temple was an actress.", " She served as Chief of Protocol."]]]
  },
  {
    "_id": "c3",
    "question": "Third?",
    "answer": "three",
    "supporting_facts": [],
    "context": []
  }
]`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hotpot_dev.json")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0600))
	return path
}

func TestHotpotFile_Load(t *testing.T) {
	h := &HotpotFile{Path: writeSample(t)}
	assert.Equal(t, "hotpot_dev.json", h.Name())

	examples, err := h.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, examples, 3)

	for i, ex := range examples {
		assert.Equal(t, i, ex.ExampleID)
	}
	assert.Equal(t, "a1", examples[0].Key)
	assert.Equal(t, "yes", examples[0].Answer)
	require.Len(t, examples[0].Context, 2)
	assert.Equal(t, "Ed Wood", examples[0].Context[1].Title)
	assert.Equal(t, []models.SupportingFact{{Title: "Scott Derrickson"}, {Title: "Ed Wood"}}, examples[0].SupportingFacts)
	assert.Equal(t, []string{"Shirley Temple was an actress.", " She served as Chief of Protocol."}, examples[1].Context[0].Sentences)
	assert.Empty(t, examples[2].Context)
}

func TestHotpotFile_Limit(t *testing.T) {
	examples, err := (&HotpotFile{Path: writeSample(t), Limit: 2}).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "b2", examples[1].Key)
}

func TestHotpotFile_Errors(t *testing.T) {
	_, err := (&HotpotFile{Path: filepath.Join(t.TempDir(), "missing.json")}).Load(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"context": [["only title"]]}]`), 0600))
	_, err = (&HotpotFile{Path: bad}).Load(context.Background())
	assert.Error(t, err)
}

func TestSlice_ReassignsIDs(t *testing.T) {
	s := &Slice{Label: "inline", Examples: []models.QAExample{
		{ExampleID: 7, Question: "a"},
		{ExampleID: 9, Question: "b"},
	}}
	examples, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, examples[0].ExampleID)
	assert.Equal(t, 1, examples[1].ExampleID)
	assert.Equal(t, 7, s.Examples[0].ExampleID, "source slice is left untouched")
	assert.Equal(t, "inline", s.Name())
}
