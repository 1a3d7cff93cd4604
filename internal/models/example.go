// Package models defines core data structures for QA examples, passages, retrieval and scores.
package models

import (
	"encoding/json"
	"fmt"
)

// QAExample is one multi-hop question with its candidate context and gold supporting facts.
type QAExample struct {
	ExampleID       int              `json:"-"`
	Key             string           `json:"_id"`
	Question        string           `json:"question"`
	Answer          string           `json:"answer"`
	Type            string           `json:"type,omitempty"`
	Level           string           `json:"level,omitempty"`
	Context         []ContextEntry   `json:"context"`
	SupportingFacts []SupportingFact `json:"supporting_facts"`
}

// ContextEntry is a titled passage made of sentences. On the wire it is a pair [title, [sentences...]].
type ContextEntry struct {
	Title     string
	Sentences []string
}

// MarshalJSON encodes the entry as a [title, sentences] pair.
func (c ContextEntry) MarshalJSON() ([]byte, error) {
	sentences := c.Sentences
	if sentences == nil {
		sentences = []string{}
	}
	return json.Marshal([]interface{}{c.Title, sentences})
}

// UnmarshalJSON decodes a [title, sentences] pair.
func (c *ContextEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("context entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("context entry: expected [title, sentences], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.Title); err != nil {
		return fmt.Errorf("context entry title: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.Sentences); err != nil {
		return fmt.Errorf("context entry sentences: %w", err)
	}
	return nil
}

// SupportingFact marks a sentence of a titled passage the gold answer depends on.
// On the wire it is a pair [title, sentence_index].
type SupportingFact struct {
	Title         string
	SentenceIndex int
}

// MarshalJSON encodes the fact as a [title, index] pair.
func (s SupportingFact) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Title, s.SentenceIndex})
}

// UnmarshalJSON decodes a [title, index] pair.
func (s *SupportingFact) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("supporting fact: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("supporting fact: expected [title, index], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &s.Title); err != nil {
		return fmt.Errorf("supporting fact title: %w", err)
	}
	if err := json.Unmarshal(pair[1], &s.SentenceIndex); err != nil {
		return fmt.Errorf("supporting fact index: %w", err)
	}
	return nil
}

// SupportIndices returns the set of context positions whose title appears in the supporting facts.
// Several facts pointing at the same passage count once.
func (e *QAExample) SupportIndices() map[int]struct{} {
	titles := make(map[string]struct{}, len(e.SupportingFacts))
	for _, f := range e.SupportingFacts {
		titles[f.Title] = struct{}{}
	}
	out := make(map[int]struct{})
	for j, entry := range e.Context {
		if _, ok := titles[entry.Title]; ok {
			out[j] = struct{}{}
		}
	}
	return out
}
