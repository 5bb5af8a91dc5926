package outline

import "log/slog"

// ChunkOutline is one chunk-level outline result: either already parsed, or
// a raw JSON string still needing a parse.
type ChunkOutline struct {
	Raw  string
	Node *Node
}

// Merge combines per-chunk outlines into a composite: a mapping from chunk
// index to that chunk's outline, plus a flat list of every top-level title
// in chunk order. Malformed entries are logged and skipped — one bad chunk
// never fails the whole merge. Duplicate titles are retained; deduplication
// is the caller's concern.
func Merge(chunks []ChunkOutline, log *slog.Logger) (map[int]*Node, []string) {
	merged := make(map[int]*Node, len(chunks))
	var titles []string

	for i, c := range chunks {
		node := c.Node
		if node == nil {
			parsed, err := Parse([]byte(c.Raw))
			if err != nil {
				log.Warn("skipping malformed chunk outline", "chunk", i, "error", err)
				continue
			}
			node = parsed
		}
		merged[i] = node
		titles = append(titles, node.Titles()...)
	}

	return merged, titles
}

// Composite flattens a merged chunk mapping back into a single outline,
// concatenating entries in chunk order. A title repeated across chunks
// keeps its first position but takes the later chunk's subtree.
func Composite(merged map[int]*Node, chunkCount int) *Node {
	root := Branch()
	for i := range chunkCount {
		chunk, ok := merged[i]
		if !ok {
			continue
		}
		for _, title := range chunk.Titles() {
			root.Add(title, chunk.Child(title))
		}
	}
	return root
}
