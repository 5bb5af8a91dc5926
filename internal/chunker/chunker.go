// Package chunker splits oversized transcripts into token-bounded chunks
// with boundary overlap, for structure generation when a single call cannot
// consume the whole transcript.
package chunker

import "strings"

// Config controls chunking behavior.
type Config struct {
	MaxTokens     int // token budget per chunk
	OverlapTokens int // trailing context repeated into the next chunk
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     6000,
		OverlapTokens: 200,
	}
}

// Split breaks a transcript into chunks of at most MaxTokens, splitting on
// paragraph and sentence boundaries, never mid-token. Each chunk after the
// first repeats the trailing OverlapTokens worth of the previous chunk to
// preserve cross-boundary context. A single sentence that alone exceeds the
// budget is emitted whole: oversize beats data loss.
func Split(text string, cfg Config) []string {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 6000
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}

	if EstimateTokens(text) <= cfg.MaxTokens {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var result []string
	var current strings.Builder
	currentWords := 0
	// hasNew guards against emitting a chunk that holds nothing beyond the
	// overlap seed repeated from its predecessor.
	hasNew := false

	flush := func() {
		chunk := current.String()
		result = append(result, chunk)
		current.Reset()
		currentWords = 0
		hasNew = false
		if overlap := overlapText(chunk, cfg.OverlapTokens); overlap != "" {
			current.WriteString(overlap)
			currentWords = len(strings.Fields(overlap))
		}
	}

	// add appends one unit, flushing first when the assembled chunk would go
	// over budget. The budget is measured on the whole chunk's word count,
	// not a sum of per-unit estimates: truncation in per-unit estimates lets
	// a sum drift under the real figure. A unit appended to an empty buffer
	// may exceed the budget on its own; that is the oversize-unit escape.
	add := func(unit, sep string) {
		unitWords := len(strings.Fields(unit))
		if hasNew && tokensForWords(currentWords+unitWords) > cfg.MaxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(unit)
		currentWords += unitWords
		hasNew = true
	}

	for _, para := range splitByParagraphs(text) {
		// A paragraph over the budget is broken down by sentences.
		if EstimateTokens(para) > cfg.MaxTokens {
			for _, sent := range splitSentences(para) {
				add(sent, " ")
			}
			continue
		}
		add(para, "\n\n")
	}

	if hasNew {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on double-newlines, dropping blank entries.
func splitByParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting on terminal punctuation
// followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// overlapText extracts the last targetTokens worth of text, on word
// boundaries, for chunk overlap.
func overlapText(text string, targetTokens int) string {
	if targetTokens <= 0 {
		return ""
	}
	words := strings.Fields(text)
	targetWords := int(float64(targetTokens) / tokensPerWord)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
