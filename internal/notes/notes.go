// Package notes holds the live document model: streamed section content
// accumulated against an outline, plus generation usage counters.
package notes

import (
	"fmt"
	"strings"

	"github.com/dgallion1/audiogest/internal/outline"
)

// UpdateResult tells the caller what an Update did. Unknown titles are
// ignored rather than failed — streamed tokens may arrive while a render is
// in progress — but the outcome stays observable so upstream bugs are not
// masked.
type UpdateResult int

const (
	Applied UpdateResult = iota
	UnknownTitle
)

// NoteTree accumulates streamed content against an outline. Every title in
// the structure, at any nesting depth, has exactly one content slot; titles
// repeated at different depths alias into the same slot, last writer wins.
type NoteTree struct {
	structure  *outline.Node
	transcript string
	contents   map[string]string
	order      []string
}

// Build seeds a NoteTree from an outline and the full transcript, with
// every flattened title mapped to empty content.
func Build(structure *outline.Node, transcript string) *NoteTree {
	order := structure.Flatten()
	contents := make(map[string]string, len(order))
	for _, title := range order {
		contents[title] = ""
	}
	return &NoteTree{
		structure:  structure,
		transcript: transcript,
		contents:   contents,
		order:      order,
	}
}

// Structure returns the read-only outline the tree was built from.
func (t *NoteTree) Structure() *outline.Node { return t.structure }

// Transcript returns the full source transcript.
func (t *NoteTree) Transcript() string { return t.transcript }

// Titles returns the flattened title order.
func (t *NoteTree) Titles() []string { return t.order }

// Content returns the accumulated content for a title.
func (t *NoteTree) Content(title string) string { return t.contents[title] }

// Update appends delta to the content slot for title. An unknown title is a
// no-op reported as UnknownTitle.
func (t *NoteTree) Update(title, delta string) UpdateResult {
	if _, ok := t.contents[title]; !ok {
		return UnknownTitle
	}
	t.contents[title] += delta
	return Applied
}

// ExistingContents renders the sections that already hold content, as
// markdown with heading depth equal to nesting depth. Used to ground each
// generation call in what has already been written, so sections are not
// repeated.
func (t *NoteTree) ExistingContents() string {
	return t.renderContents()
}

// FullMarkdown renders the whole tree, skipping sections whose content is
// still empty.
func (t *NoteTree) FullMarkdown() string {
	return t.renderContents()
}

// renderContents walks the outline pre-order and emits a heading plus
// accumulated content for every non-empty section. Rendering never mutates
// the contents.
func (t *NoteTree) renderContents() string {
	var sb strings.Builder
	t.structure.Walk(func(path []string, title string, _ *outline.Node) {
		content := t.contents[title]
		if strings.TrimSpace(content) == "" {
			return
		}
		level := len(path) + 1
		fmt.Fprintf(&sb, "%s %s\n%s\n\n", strings.Repeat("#", level), title, content)
	})
	return sb.String()
}

// TranscriptMarkdown renders a transcript-segmentation outline: every title
// with its verbatim segment text, no truncation and no emptiness filter, so
// the view preserves the original transcript in full.
func (t *NoteTree) TranscriptMarkdown() string {
	var sb strings.Builder
	t.structure.Walk(func(path []string, title string, node *outline.Node) {
		level := len(path) + 1
		fmt.Fprintf(&sb, "%s %s\n%s\n\n", strings.Repeat("#", level), title, node.Description())
	})
	return sb.String()
}
