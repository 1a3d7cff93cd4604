// Package corpus flattens QA examples into an ordered passage sequence with a parallel id map.
package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/hyperjump/ragbench/internal/models"
)

// PassageSeparator joins the sentences of one context entry. It is part of the cache fingerprint.
const PassageSeparator = " "

// fingerprintVersion changes whenever the flattening or preprocessing rules change.
const fingerprintVersion = 1

// Corpus is the flattened passage sequence. Passages[i] and IDs[i] describe global index i.
type Corpus struct {
	Passages []string
	IDs      []models.PassageID
}

// Flatten turns examples into passages in dataset order: every context entry of every example
// contributes exactly one passage.
func Flatten(examples []models.QAExample) *Corpus {
	c := &Corpus{
		Passages: make([]string, 0),
		IDs:      make([]models.PassageID, 0),
	}
	for _, ex := range examples {
		for j, entry := range ex.Context {
			c.Passages = append(c.Passages, JoinSentences(entry.Sentences))
			c.IDs = append(c.IDs, models.PassageID{ExampleID: ex.ExampleID, LocalIndex: j})
		}
	}
	return c
}

// JoinSentences preprocesses each sentence and joins them with PassageSeparator.
func JoinSentences(sentences []string) string {
	parts := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if p := Preprocess(s); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, PassageSeparator)
}

// Len returns the number of passages.
func (c *Corpus) Len() int {
	return len(c.Passages)
}

// Text returns the passage text at global index i.
func (c *Corpus) Text(i int) string {
	return c.Passages[i]
}

// ID returns the passage id at global index i.
func (c *Corpus) ID(i int) models.PassageID {
	return c.IDs[i]
}

// Records returns the passages as PassageRecords with dense 0-based global indices.
func (c *Corpus) Records() []models.PassageRecord {
	out := make([]models.PassageRecord, len(c.Passages))
	for i, text := range c.Passages {
		out[i] = models.PassageRecord{
			GlobalIndex: i,
			ExampleID:   c.IDs[i].ExampleID,
			LocalIndex:  c.IDs[i].LocalIndex,
			Text:        text,
		}
	}
	return out
}

// Fingerprint returns a hex SHA-256 digest over the passage count, id map and texts.
// Two corpora with the same fingerprint produce the same embeddings.
func (c *Corpus) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeUint(fingerprintVersion)
	writeUint(uint64(len(PassageSeparator)))
	h.Write([]byte(PassageSeparator))
	writeUint(uint64(len(c.Passages)))
	for i, text := range c.Passages {
		writeUint(uint64(c.IDs[i].ExampleID))
		writeUint(uint64(c.IDs[i].LocalIndex))
		writeUint(uint64(len(text)))
		h.Write([]byte(text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
