package notes

import (
	"errors"
	"fmt"
)

// ErrStatsMismatch is returned when statistics are combined with something
// that is not a statistics value.
var ErrStatsMismatch = errors.New("can only combine GenerationStatistics values")

// GenerationStatistics accumulates token and time counters across
// generation calls. Times are in seconds, as reported by the provider.
type GenerationStatistics struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	InputTime    float64 `json:"input_time"`
	OutputTime   float64 `json:"output_time"`
	TotalTime    float64 `json:"total_time"`
	ModelName    string  `json:"model_name"`
}

// Add accumulates other into s component-wise. The model name is retained
// from the accumulator. Combining with nil fails with ErrStatsMismatch.
func (s *GenerationStatistics) Add(other *GenerationStatistics) error {
	if other == nil {
		return ErrStatsMismatch
	}
	s.InputTokens += other.InputTokens
	s.OutputTokens += other.OutputTokens
	s.InputTime += other.InputTime
	s.OutputTime += other.OutputTime
	s.TotalTime += other.TotalTime
	return nil
}

// Speed returns tokens-per-second throughput. A zero duration means zero
// throughput, not an error: a zero-duration call with zero tokens is a
// valid, if degenerate, outcome.
func Speed(tokens int, seconds float64) float64 {
	if seconds == 0 {
		return 0
	}
	return float64(tokens) / seconds
}

// InputSpeed returns prompt-side throughput in tokens per second.
func (s *GenerationStatistics) InputSpeed() float64 {
	return Speed(s.InputTokens, s.InputTime)
}

// OutputSpeed returns completion-side throughput in tokens per second.
func (s *GenerationStatistics) OutputSpeed() float64 {
	return Speed(s.OutputTokens, s.OutputTime)
}

// Markdown renders the running totals as a small markdown table for
// progress displays.
func (s *GenerationStatistics) Markdown() string {
	return fmt.Sprintf(
		"\n## Model: %s\n\n"+
			"| Metric | Input | Output | Total |\n"+
			"|--------|-------|--------|-------|\n"+
			"| Tokens | %d | %d | %d |\n"+
			"| Time (s) | %.2f | %.2f | %.2f |\n"+
			"| Speed (t/s) | %.1f | %.1f | |\n",
		s.ModelName,
		s.InputTokens, s.OutputTokens, s.InputTokens+s.OutputTokens,
		s.InputTime, s.OutputTime, s.TotalTime,
		s.InputSpeed(), s.OutputSpeed(),
	)
}
