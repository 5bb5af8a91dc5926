package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one two three four", 5},   // 4 * 1.33 = 5.32 -> 5
		{strings.Repeat("w ", 100), 133}, // 100 * 1.33
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%q...) = %d, want %d", truncateForLog(tc.text), got, tc.want)
		}
	}
}

func truncateForLog(s string) string {
	if len(s) > 20 {
		return s[:20]
	}
	return s
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	text := "  A short transcript that fits in one call.  "
	chunks := Split(text, Config{MaxTokens: 500, OverlapTokens: 50})

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != strings.TrimSpace(text) {
		t.Errorf("short text should be returned trimmed: %q", chunks[0])
	}
}

func TestSplit_EmptyText(t *testing.T) {
	if chunks := Split("   \n ", DefaultConfig()); chunks != nil {
		t.Errorf("expected nil for blank text, got %v", chunks)
	}
}

func TestSplit_RespectsTokenBudget(t *testing.T) {
	// ~40 paragraphs of ~50 words each: ~2660 tokens total.
	para := strings.Repeat("The speaker keeps talking about the topic at hand. ", 10)
	text := strings.Repeat(para+"\n\n", 40)

	cfg := Config{MaxTokens: 500, OverlapTokens: 50}
	chunks := Split(text, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// No paragraph here exceeds the budget alone, so the bound is strict.
	for i, c := range chunks {
		if tokens := EstimateTokens(c); tokens > cfg.MaxTokens {
			t.Errorf("chunk %d: %d tokens exceeds budget %d", i, tokens, cfg.MaxTokens)
		}
	}
}

func TestSplit_BudgetHoldsForShortSentenceRuns(t *testing.T) {
	// Many tiny sentences, each with a truncated per-sentence estimate.
	// Summing those estimates under-counts the assembled chunk, so the
	// budget must be measured on the chunk itself.
	text := strings.Repeat("Alpha beta gamma delta. ", 200) // one paragraph
	cfg := Config{MaxTokens: 100, OverlapTokens: 10}

	chunks := Split(text, cfg)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if tokens := EstimateTokens(c); tokens > cfg.MaxTokens {
			t.Errorf("chunk %d: %d tokens exceeds budget %d", i, tokens, cfg.MaxTokens)
		}
	}
}

// numberedSentences builds n distinct short sentences so substring checks
// between chunks cannot match by accident.
func numberedSentences(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "Sentence number %d ends now. ", i)
	}
	return sb.String()
}

func TestSplit_NoTrailingOverlapOnlyChunk(t *testing.T) {
	// Text just over the budget, with a large overlap: the final flush used
	// to emit the overlap seed alone as a closing chunk.
	text := numberedSentences(20) // 100 words, ~133 tokens
	cfg := Config{MaxTokens: 100, OverlapTokens: 50}

	chunks := Split(text, cfg)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if tokens := EstimateTokens(c); tokens > cfg.MaxTokens {
			t.Errorf("chunk %d: %d tokens exceeds budget %d", i, tokens, cfg.MaxTokens)
		}
		if i > 0 && strings.Contains(chunks[i-1], c) {
			t.Errorf("chunk %d holds no content beyond chunk %d", i, i-1)
		}
	}
}

func TestSplit_EveryChunkAddsContent(t *testing.T) {
	// A buffered paragraph followed by an oversize paragraph used to emit a
	// chunk holding nothing but the overlap tail of its predecessor.
	small := "A brief opening paragraph sits here before the long one."
	text := small + "\n\n" + numberedSentences(200)

	chunks := Split(text, Config{MaxTokens: 100, OverlapTokens: 40})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if strings.Contains(chunks[i-1], chunks[i]) {
			t.Errorf("chunk %d is fully contained in chunk %d:\n%q", i, i-1, chunks[i])
		}
	}
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	para := strings.Repeat("Words flow across the chunk boundary here. ", 10)
	text := strings.Repeat(para+"\n\n", 40)

	cfg := Config{MaxTokens: 500, OverlapTokens: 100}
	chunks := Split(text, cfg)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		tail := strings.Join(prevWords[len(prevWords)-5:], " ")
		if !strings.Contains(chunks[i], tail) {
			t.Errorf("chunk %d does not begin with the tail of chunk %d", i, i-1)
		}
	}
}

func TestSplit_NoOverlapWhenDisabled(t *testing.T) {
	para := strings.Repeat("Distinct sentence number one goes right here. ", 10)
	text := strings.Repeat(para+"\n\n", 40)

	chunks := Split(text, Config{MaxTokens: 500, OverlapTokens: 0})
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		total += len(strings.Fields(c))
	}
	if want := len(strings.Fields(text)); total != want {
		t.Errorf("word count with zero overlap = %d, want %d (no duplication)", total, want)
	}
}

func TestSplit_OversizeSentenceEmittedWhole(t *testing.T) {
	// One sentence with no terminal punctuation, far over the budget.
	sentence := strings.Repeat("word ", 1000)
	chunks := Split(sentence, Config{MaxTokens: 100, OverlapTokens: 10})

	if len(chunks) != 1 {
		t.Fatalf("expected the oversize sentence emitted whole, got %d chunks", len(chunks))
	}
	if len(strings.Fields(chunks[0])) != 1000 {
		t.Errorf("sentence was truncated: %d words", len(strings.Fields(chunks[0])))
	}
}

func TestSplit_ZeroConfigFallsBackToDefaults(t *testing.T) {
	text := strings.Repeat("word ", 200)
	chunks := Split(text, Config{})
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk under default budget, got %d", len(chunks))
	}
}
