package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/ragbench/internal/models"
)

func sampleExamples() []models.QAExample {
	return []models.QAExample{
		{
			ExampleID: 0,
			Question:  "q0",
			Context: []models.ContextEntry{
				{Title: "A", Sentences: []string{"Alpha one.", " Alpha two."}},
				{Title: "B", Sentences: []string{"Beta."}},
			},
		},
		{
			ExampleID: 1,
			Question:  "q1",
			Context: []models.ContextEntry{
				{Title: "C", Sentences: []string{"Gamma\n  three."}},
			},
		},
	}
}

func TestFlatten(t *testing.T) {
	c := Flatten(sampleExamples())
	require.Equal(t, 3, c.Len())
	require.Len(t, c.IDs, 3)
	assert.Equal(t, "Alpha one. Alpha two.", c.Text(0))
	assert.Equal(t, "Gamma three.", c.Text(2))
	want := []models.PassageID{{ExampleID: 0, LocalIndex: 0}, {ExampleID: 0, LocalIndex: 1}, {ExampleID: 1, LocalIndex: 0}}
	for i, id := range want {
		assert.Equal(t, id, c.ID(i), "id %d", i)
	}
}

func TestFlatten_idsUnique(t *testing.T) {
	c := Flatten(sampleExamples())
	seen := make(map[models.PassageID]bool)
	for _, id := range c.IDs {
		assert.False(t, seen[id], "duplicate id %+v", id)
		seen[id] = true
	}
}

func TestFlatten_empty(t *testing.T) {
	c := Flatten(nil)
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.IDs)
	assert.NotEmpty(t, c.Fingerprint(), "fingerprint of empty corpus should still be defined")
}

func TestRecords(t *testing.T) {
	records := Flatten(sampleExamples()).Records()
	for i, r := range records {
		assert.Equal(t, i, r.GlobalIndex)
	}
	assert.Equal(t, 1, records[2].ExampleID)
	assert.Equal(t, 0, records[2].LocalIndex)
	assert.Equal(t, "Gamma three.", records[2].Text)
}

func TestFingerprint(t *testing.T) {
	a := Flatten(sampleExamples())
	b := Flatten(sampleExamples())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "fingerprint should be deterministic")

	changed := sampleExamples()
	changed[1].Context[0].Sentences = []string{"Gamma four."}
	assert.NotEqual(t, a.Fingerprint(), Flatten(changed).Fingerprint(), "fingerprint should change with text")

	fewer := sampleExamples()[:1]
	assert.NotEqual(t, a.Fingerprint(), Flatten(fewer).Fingerprint(), "fingerprint should change with passage count")
}

func TestPreprocess(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello   world  ", "hello world"},
		{"a\n\tb", "a b"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Preprocess(tt.in), "Preprocess(%q)", tt.in)
	}
}
