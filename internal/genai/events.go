package genai

import "github.com/dgallion1/audiogest/internal/notes"

// Event is one element of a section generation stream: a content token, a
// usage statistics record closing out the preceding token run, or a
// terminal error. Tokens and statistics interleave on the same channel so
// the consumer sees the provider's exact ordering.
type Event struct {
	Token string
	Stats *notes.GenerationStatistics
	Err   error
}
