package models

// PassageID identifies a passage by the example it belongs to and its position in that example's context.
type PassageID struct {
	ExampleID  int `json:"example_id"`
	LocalIndex int `json:"local_index"`
}

// PassageRecord is one flattened passage. GlobalIndex is its row in the embedding matrix and vector index.
type PassageRecord struct {
	GlobalIndex int    `json:"global_index"`
	ExampleID   int    `json:"example_id"`
	LocalIndex  int    `json:"local_index"`
	Text        string `json:"text"`
}

// Neighbor is a single nearest-neighbor hit. Distance is squared Euclidean.
type Neighbor struct {
	GlobalIndex int
	Distance    float32
}

// RetrievalResult is the ranked output of a top-k query. All slices are index-aligned.
type RetrievalResult struct {
	Question            string      `json:"question"`
	RankedGlobalIndices []int       `json:"ranked_global_indices"`
	Distances           []float32   `json:"distances"`
	PassageIDs          []PassageID `json:"passage_ids"`
	PassageTexts        []string    `json:"passage_texts"`
}

// Len returns the number of retrieved passages.
func (r *RetrievalResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.RankedGlobalIndices)
}
