// Package scoring computes per-example answer and retrieval metrics.
package scoring

import "strings"

// LexicalF1 is the token-overlap F1 between prediction and gold. Tokens are lowercased
// whitespace-separated words. Overlap is counted on token sets, while precision and recall
// divide by the full token counts. Either side empty gives 0.
func LexicalF1(prediction, gold string) float64 {
	predTokens := strings.Fields(strings.ToLower(prediction))
	goldTokens := strings.Fields(strings.ToLower(gold))
	if len(predTokens) == 0 || len(goldTokens) == 0 {
		return 0
	}

	goldSet := make(map[string]struct{}, len(goldTokens))
	for _, tok := range goldTokens {
		goldSet[tok] = struct{}{}
	}
	common := make(map[string]struct{})
	for _, tok := range predTokens {
		if _, ok := goldSet[tok]; ok {
			common[tok] = struct{}{}
		}
	}

	precision := float64(len(common)) / float64(len(predTokens))
	recall := float64(len(common)) / float64(len(goldTokens))
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}
