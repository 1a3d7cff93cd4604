package scoring

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
)

// minStemLength: tokens this short or shorter are not stemmed.
const minStemLength = 3

var stemmer = porter.NewPorterStemmer()

// RougeTokens lowercases text, treats every character other than ASCII letters and digits as a
// separator, and Porter-stems tokens longer than three characters.
func RougeTokens(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	if len(fields) == 0 {
		return nil
	}

	stream := make(analysis.TokenStream, 0, len(fields))
	for _, f := range fields {
		stream = append(stream, &analysis.Token{Term: []byte(f), KeyWord: len(f) <= minStemLength})
	}
	stream = stemmer.Filter(stream)

	out := make([]string, len(stream))
	for i, tok := range stream {
		out[i] = string(tok.Term)
	}
	return out
}

// RougeL is the ROUGE-L F-measure of prediction against gold: precision is LCS / prediction
// tokens, recall is LCS / gold tokens. Either side without tokens gives 0.
func RougeL(prediction, gold string) float64 {
	pred := RougeTokens(prediction)
	ref := RougeTokens(gold)
	if len(pred) == 0 || len(ref) == 0 {
		return 0
	}
	lcs := lcsLength(ref, pred)
	if lcs == 0 {
		return 0
	}
	precision := float64(lcs) / float64(len(pred))
	recall := float64(lcs) / float64(len(ref))
	return 2 * precision * recall / (precision + recall)
}

// lcsLength returns the length of the longest common subsequence using two rolling rows.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
