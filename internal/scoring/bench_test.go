package scoring

import "testing"

func BenchmarkRougeL(b *testing.B) {
	pred := "The Seine river flows through Paris before reaching the English Channel at Le Havre"
	gold := "the river Seine which flows through Paris"
	for i := 0; i < b.N; i++ {
		_ = RougeL(pred, gold)
	}
}

func BenchmarkLexicalF1(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = LexicalF1("Chief of Protocol of the United States", "Chief of Protocol")
	}
}
