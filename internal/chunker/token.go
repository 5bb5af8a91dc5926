package chunker

import "strings"

// tokensPerWord is the rough English tokens-per-word ratio used throughout
// the chunker.
const tokensPerWord = 1.33

// EstimateTokens gives a rough token count from the word count. Exact
// tokenization is not required for chunking; the budget only has to be
// conservative enough that downstream calls fit their context window.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := tokensForWords(len(strings.Fields(text)))
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// tokensForWords converts a word count to the token estimate. Chunk budgets
// are checked with this on the assembled chunk's word count — whitespace
// joining makes word counts additive, so the figure matches EstimateTokens
// of the final chunk text.
func tokensForWords(words int) int {
	return int(float64(words) * tokensPerWord)
}
