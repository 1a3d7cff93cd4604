package models

// ScoreRecord holds the four metrics for one evaluated example. It is never mutated after creation.
type ScoreRecord struct {
	ExampleID           int     `json:"example_id"`
	F1                  float64 `json:"f1"`
	SemanticSimilarity  float64 `json:"semantic_similarity"`
	RougeL              float64 `json:"rouge_l"`
	SupportingFactMatch float64 `json:"supporting_fact_match"`
}

// ExampleOutcome is the full record of one evaluation iteration. Score is nil when Err is set.
type ExampleOutcome struct {
	ExampleID  int              `json:"example_id"`
	Question   string           `json:"question"`
	Gold       string           `json:"gold"`
	Prediction string           `json:"prediction"`
	Retrieval  *RetrievalResult `json:"retrieval,omitempty"`
	Score      *ScoreRecord     `json:"score,omitempty"`
	Err        string           `json:"error,omitempty"`
}

// Failed reports whether the example could not be scored.
func (o *ExampleOutcome) Failed() bool {
	return o.Score == nil
}

// EvaluationReport holds the mean of each metric over evaluated examples.
// Evaluated may be less than Total; Failed counts examples recorded without a score.
type EvaluationReport struct {
	Evaluated           int     `json:"evaluated"`
	Total               int     `json:"total"`
	Failed              int     `json:"failed"`
	F1                  float64 `json:"f1"`
	SemanticSimilarity  float64 `json:"semantic_similarity"`
	RougeL              float64 `json:"rouge_l"`
	SupportingFactMatch float64 `json:"supporting_fact_match"`
}

// Complete reports whether every example was evaluated.
func (r *EvaluationReport) Complete() bool {
	return r.Evaluated == r.Total
}
