package scoring

import "github.com/hyperjump/ragbench/internal/models"

// SupportingFactMatch is the fraction of the example's supporting passages found in the
// retrieval result. Only retrieved passages whose example id equals example.ExampleID count;
// a passage from another example with the same local index is not a hit. Examples without
// supporting passages score 0.
func SupportingFactMatch(example *models.QAExample, retrieval *models.RetrievalResult) float64 {
	support := example.SupportIndices()
	if len(support) == 0 || retrieval == nil {
		return 0
	}
	hits := 0
	for _, id := range retrieval.PassageIDs {
		if id.ExampleID != example.ExampleID {
			continue
		}
		if _, ok := support[id.LocalIndex]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(support))
}
